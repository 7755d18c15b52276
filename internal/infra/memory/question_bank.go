package memory

import (
	"context"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// StaticQuestionBank is a QuestionBank backed by a fixed slice (useful for
// tests, demos and file-seeded deployments without Postgres).
type StaticQuestionBank struct {
	questions []domain.Question
	byID      map[string]domain.Question
}

func NewStaticQuestionBank(questions []domain.Question) *StaticQuestionBank {
	byID := make(map[string]domain.Question, len(questions))
	kept := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; dup {
			continue
		}
		byID[q.ID] = q
		kept = append(kept, q)
	}
	return &StaticQuestionBank{questions: kept, byID: byID}
}

func (b *StaticQuestionBank) FetchByCategories(_ context.Context, categories []string, excludedIDs []string) ([]domain.Question, error) {
	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	var out []domain.Question
	for _, q := range b.questions {
		if _, ok := want[q.Category]; ok {
			out = append(out, q)
		}
	}
	return exclude(out, excludedIDs), nil
}

func (b *StaticQuestionBank) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	if q, ok := b.byID[id]; ok {
		return q, nil
	}
	return domain.Question{}, &domain.NotFoundError{Resource: "question", ID: id}
}
