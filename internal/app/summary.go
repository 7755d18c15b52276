package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"golang.org/x/sync/errgroup"
)

// SummaryAggregator recomputes a finished game's results from storage. It
// holds no state of its own.
type SummaryAggregator struct{}

// Compute loads teams, rounds, round-questions and answers concurrently and
// folds them into a GameSummary. repo must be safe for concurrent reads.
func (SummaryAggregator) Compute(ctx context.Context, repo Repository, game domain.Game) (domain.GameSummary, error) {
	var (
		teams     []domain.Team
		rounds    []domain.Round
		questions []domain.RoundQuestion
		answers   []domain.TeamAnswer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if teams, err = repo.ListTeams(gctx, game.ID); err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if rounds, err = repo.ListRounds(gctx, game.ID); err != nil {
			return fmt.Errorf("list rounds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if questions, err = repo.ListRoundQuestions(gctx, game.ID); err != nil {
			return fmt.Errorf("list round questions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if answers, err = repo.ListGameAnswers(gctx, game.ID); err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.GameSummary{}, err
	}
	return summarize(game, teams, rounds, questions, answers), nil
}

type tally struct {
	score, correct, answered int
}

func summarize(game domain.Game, teams []domain.Team, rounds []domain.Round, questions []domain.RoundQuestion, answers []domain.TeamAnswer) domain.GameSummary {
	roundOf := make(map[string]string, len(questions))
	for _, q := range questions {
		roundOf[q.ID] = q.RoundID
	}

	perTeam := make(map[string]*tally, len(teams))
	perRound := make(map[string]map[string]*tally, len(rounds))
	for _, t := range teams {
		perTeam[t.ID] = &tally{}
	}
	for _, r := range rounds {
		perRound[r.ID] = make(map[string]*tally, len(teams))
	}

	var overall domain.OverallStats
	for _, a := range answers {
		overall.TotalAnswered++
		if a.IsCorrect {
			overall.TotalCorrect++
		}
		if t, ok := perTeam[a.TeamID]; ok {
			t.answered++
			t.score += a.Points
			if a.IsCorrect {
				t.correct++
			}
		}
		byTeam, ok := perRound[roundOf[a.RoundQuestionID]]
		if !ok {
			continue
		}
		rt := byTeam[a.TeamID]
		if rt == nil {
			rt = &tally{}
			byTeam[a.TeamID] = rt
		}
		rt.score += a.Points
		if a.IsCorrect {
			rt.correct++
		}
	}
	overall.AverageAccuracy = domain.Accuracy(overall.TotalCorrect, overall.TotalAnswered)
	if game.StartedAt != nil && game.EndedAt != nil {
		overall.Duration = game.EndedAt.Sub(*game.StartedAt)
	}

	summary := domain.GameSummary{
		GameID:  game.ID,
		Teams:   make([]domain.TeamSummary, 0, len(teams)),
		Rounds:  make([]domain.RoundSummary, 0, len(rounds)),
		Overall: overall,
	}
	for _, t := range teams {
		tl := perTeam[t.ID]
		summary.Teams = append(summary.Teams, domain.TeamSummary{
			TeamID:   t.ID,
			Name:     t.Name,
			Score:    tl.score,
			Correct:  tl.correct,
			Answered: tl.answered,
			Accuracy: domain.Accuracy(tl.correct, tl.answered),
		})
	}
	sort.SliceStable(summary.Teams, func(i, j int) bool {
		a, b := summary.Teams[i], summary.Teams[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Name < b.Name
	})

	sorted := append([]domain.Round(nil), rounds...)
	sortRounds(sorted)
	for _, r := range sorted {
		rs := domain.RoundSummary{RoundID: r.ID, Number: r.Number, Teams: make([]domain.RoundTeamScore, 0, len(teams))}
		for _, t := range teams {
			entry := domain.RoundTeamScore{TeamID: t.ID}
			if tl := perRound[r.ID][t.ID]; tl != nil {
				entry.Score = tl.score
				entry.Correct = tl.correct
			}
			rs.Teams = append(rs.Teams, entry)
		}
		summary.Rounds = append(summary.Rounds, rs)
	}
	return summary
}

// GetGameSummary recomputes the summary of a completed game.
func (s *GameService) GetGameSummary(ctx context.Context, gameID string) (domain.GameSummary, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.GameSummary{}, domain.WrapStorage("get game summary", err)
	}
	if game.Status != domain.GameCompleted {
		return domain.GameSummary{}, &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "summarize"}
	}
	summary, err := s.summary.Compute(ctx, s.repo, game)
	if err != nil {
		return domain.GameSummary{}, domain.WrapStorage("get game summary", err)
	}
	return summary, nil
}
