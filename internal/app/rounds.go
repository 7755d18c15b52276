package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// RoundController owns round rows and their pending → in_progress →
// completed progression. It never advances on its own.
type RoundController struct {
	now   func() time.Time
	newID func() string
}

func NewRoundController(now func() time.Time, newID func() string) *RoundController {
	return &RoundController{now: now, newID: newID}
}

// CreateRounds creates rounds 1..TotalRounds, all pending.
func (c *RoundController) CreateRounds(ctx context.Context, repo Repository, game domain.Game) ([]domain.Round, error) {
	rounds := make([]domain.Round, game.TotalRounds)
	for i := range rounds {
		rounds[i] = domain.Round{
			ID:     c.newID(),
			GameID: game.ID,
			Number: i + 1,
			Status: domain.RoundPending,
		}
	}
	if err := repo.CreateRounds(ctx, rounds); err != nil {
		return nil, fmt.Errorf("create rounds: %w", err)
	}
	return rounds, nil
}

// AssignQuestions writes the round's questions at positions 1..len.
func (c *RoundController) AssignQuestions(ctx context.Context, repo Repository, round domain.Round, questions []domain.Question) ([]domain.RoundQuestion, error) {
	if round.Status != domain.RoundPending {
		return nil, &domain.TransitionError{Entity: "round", ID: round.ID, From: string(round.Status), Op: "assign questions"}
	}
	assigned := make([]domain.RoundQuestion, len(questions))
	for i, q := range questions {
		assigned[i] = domain.RoundQuestion{
			ID:         c.newID(),
			RoundID:    round.ID,
			GameID:     round.GameID,
			QuestionID: q.ID,
			Category:   q.Category,
			Order:      i + 1,
		}
	}
	if err := repo.CreateRoundQuestions(ctx, assigned); err != nil {
		return nil, fmt.Errorf("create round questions: %w", err)
	}
	return assigned, nil
}

// Start moves a pending round to in_progress.
func (c *RoundController) Start(ctx context.Context, repo Repository, round domain.Round) (domain.Round, error) {
	if !round.Status.CanTransition(domain.RoundInProgress) {
		return domain.Round{}, roundTransition(round, domain.RoundInProgress)
	}
	now := c.now()
	round.Status = domain.RoundInProgress
	round.StartedAt = &now
	if err := repo.UpdateRound(ctx, round); err != nil {
		return domain.Round{}, err
	}
	return round, nil
}

// Complete moves an in_progress round to completed.
func (c *RoundController) Complete(ctx context.Context, repo Repository, round domain.Round) (domain.Round, error) {
	if !round.Status.CanTransition(domain.RoundCompleted) {
		return domain.Round{}, roundTransition(round, domain.RoundCompleted)
	}
	now := c.now()
	round.Status = domain.RoundCompleted
	round.EndedAt = &now
	if err := repo.UpdateRound(ctx, round); err != nil {
		return domain.Round{}, err
	}
	return round, nil
}

func roundTransition(round domain.Round, to domain.RoundStatus) error {
	return &domain.TransitionError{Entity: "round", ID: round.ID, From: string(round.Status), To: string(to)}
}

// chunk splits questions into consecutive groups of size per.
func chunk(questions []domain.Question, per int) [][]domain.Question {
	var out [][]domain.Question
	for len(questions) > 0 {
		n := per
		if n > len(questions) {
			n = len(questions)
		}
		out = append(out, questions[:n])
		questions = questions[n:]
	}
	return out
}

func sortRounds(rounds []domain.Round) {
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
}

// checkRoundOrder enforces that rounds run one at a time in number order.
func checkRoundOrder(rounds []domain.Round, target domain.Round) error {
	for _, r := range rounds {
		if r.ID == target.ID {
			continue
		}
		if r.Status == domain.RoundInProgress {
			return &domain.TransitionError{
				Entity: "round", ID: target.ID, From: string(target.Status),
				Op: fmt.Sprintf("start while round %d is in progress", r.Number),
			}
		}
		if r.Number < target.Number && r.Status != domain.RoundCompleted {
			return &domain.TransitionError{
				Entity: "round", ID: target.ID, From: string(target.Status),
				Op: fmt.Sprintf("start before round %d is completed", r.Number),
			}
		}
	}
	return nil
}

// StartRound starts a pending round of a running game. Host only.
func (s *GameService) StartRound(ctx context.Context, callerID, roundID string) (domain.Round, error) {
	var started domain.Round
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, round, err := s.lockRoundGame(ctx, repo, roundID, callerID, "start round")
		if err != nil {
			return err
		}
		rounds, err := repo.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		if round.Status == domain.RoundPending {
			if err := checkRoundOrder(rounds, round); err != nil {
				return err
			}
		}
		started, err = s.rounds.Start(ctx, repo, round)
		return err
	})
	if err != nil {
		return domain.Round{}, domain.WrapStorage("start round", err)
	}
	s.publish(ctx, s.event(domain.EventRoundStarted, started.GameID, started))
	return started, nil
}

// CompleteRound completes an in-progress round. The next round is not
// started automatically.
func (s *GameService) CompleteRound(ctx context.Context, callerID, roundID string) (domain.Round, error) {
	var completed domain.Round
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		_, round, err := s.lockRoundGame(ctx, repo, roundID, callerID, "complete round")
		if err != nil {
			return err
		}
		completed, err = s.rounds.Complete(ctx, repo, round)
		return err
	})
	if err != nil {
		return domain.Round{}, domain.WrapStorage("complete round", err)
	}
	s.publish(ctx, s.event(domain.EventRoundCompleted, completed.GameID, completed))
	return completed, nil
}

// AdvanceRound completes the running round, if any, and starts the next
// pending one. It returns nil when no pending round is left.
func (s *GameService) AdvanceRound(ctx context.Context, callerID, gameID string) (*domain.Round, error) {
	var (
		completed *domain.Round
		next      *domain.Round
	)
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, err := repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "advance round"); err != nil {
			return err
		}
		if game.Status != domain.GameInProgress {
			return &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "advance round"}
		}
		rounds, err := repo.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		sortRounds(rounds)
		for _, r := range rounds {
			switch r.Status {
			case domain.RoundInProgress:
				done, err := s.rounds.Complete(ctx, repo, r)
				if err != nil {
					return err
				}
				completed = &done
			case domain.RoundPending:
				started, err := s.rounds.Start(ctx, repo, r)
				if err != nil {
					return err
				}
				next = &started
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapStorage("advance round", err)
	}
	if completed != nil {
		s.publish(ctx, s.event(domain.EventRoundCompleted, gameID, *completed))
	}
	if next != nil {
		s.publish(ctx, s.event(domain.EventRoundStarted, gameID, *next))
	}
	return next, nil
}

// ListRounds returns a game's rounds ordered by number.
func (s *GameService) ListRounds(ctx context.Context, gameID string) ([]domain.Round, error) {
	rounds, err := s.repo.ListRounds(ctx, gameID)
	if err != nil {
		return nil, domain.WrapStorage("list rounds", err)
	}
	sortRounds(rounds)
	return rounds, nil
}

// lockRoundGame locks the game owning roundID, checks the host and that the
// game is running, then reads the round under that lock.
func (s *GameService) lockRoundGame(ctx context.Context, repo Repository, roundID, callerID, op string) (domain.Game, domain.Round, error) {
	round, err := repo.GetRound(ctx, roundID)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	game, err := repo.LockGame(ctx, round.GameID)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	if err := requireHost(game, callerID, op); err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	if game.Status != domain.GameInProgress {
		return domain.Game{}, domain.Round{}, &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: op}
	}
	round, err = repo.GetRound(ctx, roundID)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	return game, round, nil
}

// GetRoundQuestions lists a round's questions in order with their bank text.
// The host always sees them with correct labels; anyone else only once the
// round has started, and without labels.
func (s *GameService) GetRoundQuestions(ctx context.Context, callerID, roundID string) ([]domain.PlayableQuestion, error) {
	round, err := s.repo.GetRound(ctx, roundID)
	if err != nil {
		return nil, domain.WrapStorage("get round questions", err)
	}
	game, err := s.repo.GetGame(ctx, round.GameID)
	if err != nil {
		return nil, domain.WrapStorage("get round questions", err)
	}
	isHost := requireHost(game, callerID, "view round questions") == nil
	if !isHost && round.Status == domain.RoundPending {
		return nil, &domain.TransitionError{Entity: "round", ID: round.ID, From: string(round.Status), Op: "view questions"}
	}
	all, err := s.repo.ListRoundQuestions(ctx, round.GameID)
	if err != nil {
		return nil, domain.WrapStorage("get round questions", err)
	}
	out := make([]domain.PlayableQuestion, 0, game.QuestionsPerRound)
	for _, rq := range all {
		if rq.RoundID != round.ID {
			continue
		}
		q, err := s.bank.GetQuestion(ctx, rq.QuestionID)
		if err != nil {
			return nil, domain.WrapStorage("get round questions", err)
		}
		if !isHost {
			q = q.Public()
		}
		out = append(out, domain.PlayableQuestion{RoundQuestion: rq, Question: q})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}
