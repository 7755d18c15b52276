package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches a QuestionBank per category with a TTL to avoid
// repeated bank reads. Exclusions are applied after the cache.
type QuestionCache struct {
	bank  app.QuestionBank
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu         sync.RWMutex
	categories map[string]cachedCategory
	questions  map[string]domain.Question
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(bank app.QuestionBank, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		bank:       bank,
		ttl:        ttl,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		categories: make(map[string]cachedCategory),
		questions:  make(map[string]domain.Question),
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
	c.mu.RLock()
	q, ok := c.questions[id]
	c.mu.RUnlock()
	if ok {
		return q, nil
	}

	result, err, _ := c.sf.Do("question:"+id, func() (interface{}, error) {
		q, err := c.bank.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.mu.Lock()
		c.questions[id] = q
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) category(ctx context.Context, category string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.categories[category]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("category:"+category, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.categories[category]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.bank.FetchByCategories(ctx, []string{category}, nil)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.categories[category] = cachedCategory{questions: questions, expiresAt: expiresAt}
		for _, q := range questions {
			c.questions[q.ID] = q
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
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
