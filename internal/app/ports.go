package app

import (
	"context"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// QuestionBank reads the external question pool.
type QuestionBank interface {
	FetchByCategories(ctx context.Context, categories []string, excludedIDs []string) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// Repository is the persistence capability the core runs against.
//
// Atomic runs fn as one atomic unit with a Repository bound to it; calling
// Atomic on a bound Repository joins the enclosing unit. Lock* methods take
// an exclusive lock held until the unit ends. Uniqueness violations are
// reported as the matching domain errors.
type Repository interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	CreateGame(ctx context.Context, game domain.Game) error
	GetGame(ctx context.Context, id string) (domain.Game, error)
	LockGame(ctx context.Context, id string) (domain.Game, error)
	UpdateGame(ctx context.Context, game domain.Game) error
	DeleteGame(ctx context.Context, id string) error
	ListHostGames(ctx context.Context, hostID string, includeArchived bool) ([]domain.Game, error)

	CreateRounds(ctx context.Context, rounds []domain.Round) error
	DeleteRounds(ctx context.Context, gameID string) error
	GetRound(ctx context.Context, id string) (domain.Round, error)
	ListRounds(ctx context.Context, gameID string) ([]domain.Round, error)
	UpdateRound(ctx context.Context, round domain.Round) error

	CreateRoundQuestions(ctx context.Context, questions []domain.RoundQuestion) error
	GetRoundQuestion(ctx context.Context, id string) (domain.RoundQuestion, error)
	ListRoundQuestions(ctx context.Context, gameID string) ([]domain.RoundQuestion, error)
	UpdateRoundQuestion(ctx context.Context, question domain.RoundQuestion) error

	CreateTeam(ctx context.Context, team domain.Team) error
	GetTeam(ctx context.Context, id string) (domain.Team, error)
	LockTeam(ctx context.Context, id string) (domain.Team, error)
	UpdateTeam(ctx context.Context, team domain.Team) error
	DeleteTeam(ctx context.Context, id string) error
	ListTeams(ctx context.Context, gameID string) ([]domain.Team, error)
	AddTeamScore(ctx context.Context, teamID string, points int) (int, error)

	AddTeamPlayer(ctx context.Context, member domain.TeamPlayer) error
	RemoveTeamPlayer(ctx context.Context, teamID, playerID string) (bool, error)
	ListTeamPlayers(ctx context.Context, teamID string) ([]domain.TeamPlayer, error)
	FindPlayerTeam(ctx context.Context, gameID, playerID string) (string, bool, error)

	CreateTeamAnswer(ctx context.Context, answer domain.TeamAnswer) error
	ListTeamAnswers(ctx context.Context, teamID string) ([]domain.TeamAnswer, error)
	ListGameAnswers(ctx context.Context, gameID string) ([]domain.TeamAnswer, error)
	CountRoundQuestionAnswers(ctx context.Context, roundQuestionID string) (int, error)

	LockHost(ctx context.Context, hostID string) error
	ListUsedQuestionIDs(ctx context.Context, hostID string) ([]string, error)
	MarkQuestionsUsed(ctx context.Context, hostID string, questionIDs []string, at time.Time) error
}

// EventPublisher hands committed state changes to an external fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// ScoreCache mirrors team scores for readers outside the core. Writes are
// best-effort; the authoritative score lives in the Repository.
type ScoreCache interface {
	AddPoints(ctx context.Context, gameID, teamID string, points int) error
	Replace(ctx context.Context, gameID string, scores map[string]int) error
}
