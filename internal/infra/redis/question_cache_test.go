package redis

import (
	"context"
	"testing"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := &countingBank{StaticQuestionBank: memory.NewStaticQuestionBank(sampleQuestions())}
	cache := NewQuestionCache(newClient(mr), bank, time.Minute)
	ctx := context.Background()

	got, err := cache.FetchByCategories(ctx, []string{"science"}, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if bank.fetches != 1 {
		t.Fatalf("expected bank called once, got %d", bank.fetches)
	}
	if !mr.Exists("bank:category:science") || !mr.Exists("bank:question:s1") {
		t.Fatalf("expected category and question keys")
	}
	if ttl := mr.TTL("bank:category:science"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with up to 10%% jitter, got %s", ttl)
	}

	// Second call should hit cache and still honor exclusions.
	got, _ = cache.FetchByCategories(ctx, []string{"science"}, []string{"s2"})
	if bank.fetches != 1 {
		t.Fatalf("expected cache hit, bank fetches=%d", bank.fetches)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected only s1, got %+v", got)
	}

	q, err := cache.GetQuestion(ctx, "s2")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectLabel != "B" || q.Options[3].Label != "D" {
		t.Fatalf("unexpected cached question %+v", q)
	}
	if bank.gets != 0 {
		t.Fatalf("expected question served from redis, bank gets=%d", bank.gets)
	}
}

func TestQuestionCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	bank := &countingBank{StaticQuestionBank: memory.NewStaticQuestionBank(sampleQuestions())}
	cache := NewQuestionCache(client, bank, time.Minute)

	q, err := cache.GetQuestion(context.Background(), "h1")
	if err != nil {
		t.Fatalf("expected bank fallback, got %v", err)
	}
	if q.ID != "h1" || bank.gets != 1 {
		t.Fatalf("unexpected fallback result %+v (gets=%d)", q, bank.gets)
	}
}

type countingBank struct {
	*memory.StaticQuestionBank
	fetches int
	gets    int
}

func (b *countingBank) FetchByCategories(ctx context.Context, categories []string, excluded []string) ([]domain.Question, error) {
	b.fetches++
	return b.StaticQuestionBank.FetchByCategories(ctx, categories, excluded)
}

func (b *countingBank) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	b.gets++
	return b.StaticQuestionBank.GetQuestion(ctx, id)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		question("s1", "science", "What is H2O?", "A"),
		question("s2", "science", "Which planet is red?", "B"),
		question("h1", "history", "Who built the pyramids?", "C"),
	}
}

func question(id, category, prompt, correct string) domain.Question {
	q := domain.Question{ID: id, Category: category, Prompt: prompt, CorrectLabel: correct}
	for i, label := range domain.OptionLabels {
		q.Options[i] = domain.Option{Label: label, Text: prompt + " " + label}
	}
	return q
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
