package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// Allocator serves questions to hosts without ever repeating one for the
// same host. Usage is tracked per host; other hosts may use the same question.
type Allocator struct {
	bank QuestionBank
	now  func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAllocator(bank QuestionBank, rnd *rand.Rand, now func() time.Time) *Allocator {
	return &Allocator{bank: bank, rnd: rnd, now: now}
}

// Available returns the questions in categories that the host has not used.
func (a *Allocator) Available(ctx context.Context, repo Repository, hostID string, categories []string) ([]domain.Question, error) {
	used, err := repo.ListUsedQuestionIDs(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("list used questions: %w", err)
	}
	questions, err := a.bank.FetchByCategories(ctx, categories, used)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return distinct(questions, used), nil
}

// Allocate picks n unused questions uniformly at random and marks them used
// in the same atomic unit. The host lock keeps two allocations for one host
// from picking the same question.
func (a *Allocator) Allocate(ctx context.Context, repo Repository, hostID string, categories []string, n int) ([]domain.Question, error) {
	if err := repo.LockHost(ctx, hostID); err != nil {
		return nil, fmt.Errorf("lock host: %w", err)
	}
	candidates, err := a.Available(ctx, repo, hostID, categories)
	if err != nil {
		return nil, err
	}
	if len(candidates) < n {
		return nil, &domain.InsufficientQuestionsError{
			HostID:     hostID,
			Categories: append([]string(nil), categories...),
			Needed:     n,
			Available:  len(candidates),
		}
	}

	picked := a.sample(candidates, n)
	ids := make([]string, len(picked))
	for i, q := range picked {
		ids[i] = q.ID
	}
	if err := repo.MarkQuestionsUsed(ctx, hostID, ids, a.now()); err != nil {
		return nil, fmt.Errorf("mark questions used: %w", err)
	}
	return picked, nil
}

// Mark records questions as used by the host. Re-marking a pair is a no-op.
func (a *Allocator) Mark(ctx context.Context, repo Repository, hostID string, questionIDs []string) error {
	ids := make([]string, 0, len(questionIDs))
	seen := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	return repo.MarkQuestionsUsed(ctx, hostID, ids, a.now())
}

// sample is a partial Fisher-Yates shuffle over a copy of candidates.
func (a *Allocator) sample(candidates []domain.Question, n int) []domain.Question {
	pool := append([]domain.Question(nil), candidates...)
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		j := i + a.rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func distinct(questions []domain.Question, excluded []string) []domain.Question {
	skip := make(map[string]struct{}, len(excluded)+len(questions))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	out := questions[:0:0]
	for _, q := range questions {
		if _, ok := skip[q.ID]; ok {
			continue
		}
		skip[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// GetAvailableQuestionsForHost lists the questions a host could still be served.
func (s *GameService) GetAvailableQuestionsForHost(ctx context.Context, callerID, hostID string, categories []string) ([]domain.Question, error) {
	if callerID == "" || callerID != hostID {
		return nil, &domain.UnauthorizedError{Op: "list available questions", Resource: "host " + hostID, CallerID: callerID}
	}
	if len(categories) == 0 {
		verr := &domain.ValidationError{Resource: "question query"}
		verr.Add("categories", "min", "must contain at least 1 entries")
		return nil, verr
	}
	questions, err := s.alloc.Available(ctx, s.repo, hostID, categories)
	if err != nil {
		return nil, domain.WrapStorage("list available questions", err)
	}
	return questions, nil
}

// MarkQuestionsUsed records questions as served to the host.
func (s *GameService) MarkQuestionsUsed(ctx context.Context, callerID, hostID string, questionIDs []string) error {
	if callerID == "" || callerID != hostID {
		return &domain.UnauthorizedError{Op: "mark questions used", Resource: "host " + hostID, CallerID: callerID}
	}
	return domain.WrapStorage("mark questions used", s.alloc.Mark(ctx, s.repo, hostID, questionIDs))
}

// ReplaceRoundQuestion swaps an assigned question for a fresh one of the same
// category. The assignment keeps its identity and order.
func (s *GameService) ReplaceRoundQuestion(ctx context.Context, callerID, roundQuestionID string) (domain.RoundQuestion, error) {
	var (
		replaced domain.RoundQuestion
		previous string
	)
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		rq, err := repo.GetRoundQuestion(ctx, roundQuestionID)
		if err != nil {
			return err
		}
		game, err := repo.LockGame(ctx, rq.GameID)
		if err != nil {
			return err
		}
		// a concurrent replace may have committed while we waited
		if rq, err = repo.GetRoundQuestion(ctx, roundQuestionID); err != nil {
			return err
		}
		if err := requireHost(game, callerID, "replace question in"); err != nil {
			return err
		}
		if game.Status != domain.GameInProgress {
			return &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "replace question"}
		}
		round, err := repo.GetRound(ctx, rq.RoundID)
		if err != nil {
			return err
		}
		if round.Status == domain.RoundCompleted {
			return domain.NewNotEditable("replace", "round question", rq.ID, string(round.Status), "round already completed")
		}
		answered, err := repo.CountRoundQuestionAnswers(ctx, rq.ID)
		if err != nil {
			return err
		}
		if answered > 0 {
			return domain.NewNotEditable("replace", "round question", rq.ID, string(round.Status),
				fmt.Sprintf("%d teams already answered", answered))
		}

		fresh, err := s.alloc.Allocate(ctx, repo, game.HostID, []string{rq.Category}, 1)
		if err != nil {
			return err
		}
		previous = rq.QuestionID
		rq.QuestionID = fresh[0].ID
		if err := repo.UpdateRoundQuestion(ctx, rq); err != nil {
			return err
		}
		replaced = rq
		return nil
	})
	if err != nil {
		return domain.RoundQuestion{}, domain.WrapStorage("replace round question", err)
	}
	s.publish(ctx, s.event(domain.EventQuestionReplaced, replaced.GameID, map[string]any{
		"roundQuestionId": replaced.ID,
		"roundId":         replaced.RoundID,
		"previous":        previous,
		"questionId":      replaced.QuestionID,
	}))
	return replaced, nil
}
