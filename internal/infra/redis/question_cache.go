package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches the question bank in Redis and falls back to the
// wrapped bank on a miss.
// Categories are stored as:  SET bank:category:{category} [questions…]
// Questions are stored as:   SET bank:question:{id} {question}
type QuestionCache struct {
	client *redis.Client
	bank   app.QuestionBank
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, bank app.QuestionBank, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		bank:   bank,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchByCategories(ctx context.Context, categories []string, excludedIDs []string) ([]domain.Question, error) {
	var out []domain.Question
	for _, category := range categories {
		questions, err := c.category(ctx, category)
		if err != nil {
			return nil, err
		}
		out = append(out, questions...)
	}
	return exclude(out, excludedIDs), nil
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	key := questionKey(id)
	var q domain.Question
	if c.lookup(ctx, key, &q) {
		return q, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		var q domain.Question
		if c.lookup(ctx, key, &q) {
			return q, nil
		}
		q, err := c.bank.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.store(ctx, map[string]any{key: q})
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) category(ctx context.Context, category string) ([]domain.Question, error) {
	key := categoryKey(category)
	var questions []domain.Question
	if c.lookup(ctx, key, &questions) {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		var questions []domain.Question
		if c.lookup(ctx, key, &questions) {
			return questions, nil
		}
		questions, err := c.bank.FetchByCategories(ctx, []string{category}, nil)
		if err != nil {
			return nil, err
		}
		values := map[string]any{key: questions}
		for _, q := range questions {
			values[questionKey(q.ID)] = q
		}
		c.store(ctx, values)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// lookup reports a cache hit. Redis errors count as misses.
func (c *QuestionCache) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// store writes values best-effort; a failed write only costs a later miss.
func (c *QuestionCache) store(ctx context.Context, values map[string]any) {
	ttl := c.ttlWithJitter()
	pipe := c.client.Pipeline()
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		pipe.Set(ctx, key, raw, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func categoryKey(category string) string {
	return "bank:category:" + category
}

func questionKey(id string) string {
	return "bank:question:" + id
}

func exclude(questions []domain.Question, excludedIDs []string) []domain.Question {
	if len(excludedIDs) == 0 {
		return questions
	}
	skip := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		skip[id] = struct{}{}
	}
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := skip[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}
