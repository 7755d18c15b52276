package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// DefaultPointsPerCorrect is awarded by the default flat policy.
const DefaultPointsPerCorrect = 10

// ScoreInput is what a ScoringPolicy may base its award on.
type ScoreInput struct {
	Correct      bool
	RoundStarted time.Time
	SubmittedAt  time.Time
}

// ScoringPolicy decides the points of one answer. Incorrect answers must
// score 0 and scores must never be negative.
type ScoringPolicy interface {
	Points(in ScoreInput) int
}

// FlatScoring awards a fixed amount per correct answer.
type FlatScoring struct {
	PointsPerCorrect int
}

func (p FlatScoring) Points(in ScoreInput) int {
	if !in.Correct {
		return 0
	}
	return p.PointsPerCorrect
}

// TimeBonusScoring awards Base for a correct answer plus up to MaxBonus,
// decaying linearly to 0 over TimeLimit from the start of the round.
type TimeBonusScoring struct {
	Base      int
	MaxBonus  int
	TimeLimit time.Duration
}

func (p TimeBonusScoring) Points(in ScoreInput) int {
	if !in.Correct {
		return 0
	}
	if p.TimeLimit <= 0 || in.RoundStarted.IsZero() {
		return p.Base
	}
	elapsed := in.SubmittedAt.Sub(in.RoundStarted)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= p.TimeLimit {
		return p.Base
	}
	remaining := float64(p.TimeLimit-elapsed) / float64(p.TimeLimit)
	return p.Base + int(float64(p.MaxBonus)*remaining)
}

// Scorer records team answers and keeps team scores in step with them.
type Scorer struct {
	bank   QuestionBank
	policy ScoringPolicy
	now    func() time.Time
	newID  func() string
}

func NewScorer(bank QuestionBank, policy ScoringPolicy, now func() time.Time, newID func() string) *Scorer {
	return &Scorer{bank: bank, policy: policy, now: now, newID: newID}
}

// Record grades the answer, inserts it and adds its points to the team in the
// caller's atomic unit. A repeated (team, round-question) pair is rejected by
// the store and nothing is scored.
func (sc *Scorer) Record(ctx context.Context, repo Repository, round domain.Round, rq domain.RoundQuestion, in AnswerInput) (domain.AnswerResult, error) {
	question, err := sc.bank.GetQuestion(ctx, rq.QuestionID)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("get question: %w", err)
	}
	label := strings.ToUpper(strings.TrimSpace(in.AnswerLabel))
	correct := label == strings.ToUpper(question.CorrectLabel)

	submitted := sc.now()
	score := ScoreInput{Correct: correct, SubmittedAt: submitted}
	if round.StartedAt != nil {
		score.RoundStarted = *round.StartedAt
	}
	points := sc.policy.Points(score)
	if points < 0 || !correct {
		points = 0
	}

	answer := domain.TeamAnswer{
		ID:              sc.newID(),
		TeamID:          in.TeamID,
		RoundQuestionID: rq.ID,
		GameID:          rq.GameID,
		PlayerID:        in.PlayerID,
		AnswerLabel:     label,
		IsCorrect:       correct,
		Points:          points,
		SubmittedAt:     submitted,
	}
	if err := repo.CreateTeamAnswer(ctx, answer); err != nil {
		return domain.AnswerResult{}, err
	}
	total, err := repo.AddTeamScore(ctx, in.TeamID, points)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("add team score: %w", err)
	}
	return domain.AnswerResult{Answer: answer, TotalScore: total}, nil
}

// Stats derives a team's statistics from its answers.
func Stats(teamID string, answers []domain.TeamAnswer) domain.TeamStats {
	stats := domain.TeamStats{TeamID: teamID, TotalAnswers: len(answers)}
	for _, a := range answers {
		if a.IsCorrect {
			stats.Correct++
		}
		stats.Points += a.Points
	}
	stats.Accuracy = domain.Accuracy(stats.Correct, stats.TotalAnswers)
	return stats
}

// SubmitAnswer records a team's one answer to a round-question. The caller
// must be the submitting player and a member of the team.
func (s *GameService) SubmitAnswer(ctx context.Context, callerID string, in AnswerInput) (domain.AnswerResult, error) {
	in.AnswerLabel = strings.TrimSpace(in.AnswerLabel)
	if err := asError(validateStruct("answer", in)); err != nil {
		return domain.AnswerResult{}, err
	}
	if callerID == "" || callerID != in.PlayerID {
		return domain.AnswerResult{}, &domain.UnauthorizedError{Op: "answer for", Resource: "player " + in.PlayerID, CallerID: callerID}
	}

	var result domain.AnswerResult
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		rq, err := repo.GetRoundQuestion(ctx, in.RoundQuestionID)
		if err != nil {
			return err
		}
		game, err := repo.LockGame(ctx, rq.GameID)
		if err != nil {
			return err
		}
		if game.Status != domain.GameInProgress {
			return &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "submit answer"}
		}
		round, err := repo.GetRound(ctx, rq.RoundID)
		if err != nil {
			return err
		}
		if round.Status != domain.RoundInProgress {
			return &domain.TransitionError{Entity: "round", ID: round.ID, From: string(round.Status), Op: "submit answer"}
		}
		team, err := repo.GetTeam(ctx, in.TeamID)
		if err != nil {
			return err
		}
		if team.GameID != game.ID {
			return &domain.NotFoundError{Resource: "team", ID: in.TeamID}
		}
		teamID, ok, err := repo.FindPlayerTeam(ctx, game.ID, in.PlayerID)
		if err != nil {
			return err
		}
		if !ok || teamID != team.ID {
			return &domain.MembershipError{TeamID: team.ID, PlayerID: in.PlayerID}
		}
		result, err = s.scorer.Record(ctx, repo, round, rq, in)
		return err
	})
	if err != nil {
		var dup *domain.DuplicateAnswerError
		if errors.As(err, &dup) {
			s.log.InfoContext(ctx, "duplicate answer rejected", "team", in.TeamID, "round_question", in.RoundQuestionID)
		}
		return domain.AnswerResult{}, domain.WrapStorage("submit answer", err)
	}

	s.cachePoints(ctx, result.Answer.GameID, result.Answer.TeamID, result.Answer.Points)
	s.publish(ctx, s.event(domain.EventAnswerSubmitted, result.Answer.GameID, result))
	return result, nil
}

// GetTeamStats returns a team's answer statistics.
func (s *GameService) GetTeamStats(ctx context.Context, teamID string) (domain.TeamStats, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return domain.TeamStats{}, domain.WrapStorage("get team stats", err)
	}
	answers, err := s.repo.ListTeamAnswers(ctx, teamID)
	if err != nil {
		return domain.TeamStats{}, domain.WrapStorage("get team stats", err)
	}
	return Stats(teamID, answers), nil
}

// GetLeaderboard orders a game's teams by score, then name.
func (s *GameService) GetLeaderboard(ctx context.Context, gameID string) (domain.Leaderboard, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return domain.Leaderboard{}, domain.WrapStorage("get leaderboard", err)
	}
	teams, err := s.repo.ListTeams(ctx, gameID)
	if err != nil {
		return domain.Leaderboard{}, domain.WrapStorage("get leaderboard", err)
	}
	board := domain.Leaderboard{GameID: gameID, Entries: make([]domain.LeaderboardEntry, 0, len(teams))}
	for _, t := range teams {
		board.Entries = append(board.Entries, domain.LeaderboardEntry{TeamID: t.ID, Name: t.Name, Score: t.CurrentScore})
	}
	sort.SliceStable(board.Entries, func(i, j int) bool {
		a, b := board.Entries[i], board.Entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Name < b.Name
	})
	return board, nil
}

func (s *GameService) cachePoints(ctx context.Context, gameID, teamID string, points int) {
	if s.scores == nil || points == 0 {
		return
	}
	if err := s.scores.AddPoints(ctx, gameID, teamID, points); err != nil {
		s.log.WarnContext(ctx, "score cache update failed", "game", gameID, "team", teamID, "err", err)
	}
}
