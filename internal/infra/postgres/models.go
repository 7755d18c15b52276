package postgres

import (
	"fmt"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/uptrace/bun"
)

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                string     `bun:"id,pk"`
	HostID            string     `bun:"host_id,notnull"`
	Title             string     `bun:"title,notnull"`
	ScheduledAt       *time.Time `bun:"scheduled_at"`
	Status            string     `bun:"status,notnull"`
	TotalRounds       int        `bun:"total_rounds,notnull"`
	QuestionsPerRound int        `bun:"questions_per_round,notnull"`
	Categories        []string   `bun:"categories,array"`
	MaxTeams          int        `bun:"max_teams,notnull"`
	MaxPlayersPerTeam int        `bun:"max_players_per_team,notnull"`
	MinPlayersPerTeam int        `bun:"min_players_per_team,notnull"`
	Archived          bool       `bun:"archived,notnull"`
	StartedAt         *time.Time `bun:"started_at"`
	EndedAt           *time.Time `bun:"ended_at"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull"`
}

func newGameRow(g domain.Game) *gameRow {
	if g.Categories == nil {
		g.Categories = []string{}
	}
	return &gameRow{
		ID:                g.ID,
		HostID:            g.HostID,
		Title:             g.Title,
		ScheduledAt:       g.ScheduledAt,
		Status:            string(g.Status),
		TotalRounds:       g.TotalRounds,
		QuestionsPerRound: g.QuestionsPerRound,
		Categories:        g.Categories,
		MaxTeams:          g.MaxTeams,
		MaxPlayersPerTeam: g.MaxPlayersPerTeam,
		MinPlayersPerTeam: g.MinPlayersPerTeam,
		Archived:          g.Archived,
		StartedAt:         g.StartedAt,
		EndedAt:           g.EndedAt,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

// validate rejects rows whose status the lifecycle does not know.
func (r *gameRow) validate() error {
	if !domain.GameStatus(r.Status).Valid() {
		return fmt.Errorf("game %s: unknown status %q", r.ID, r.Status)
	}
	return nil
}

func (r *gameRow) domain() domain.Game {
	return domain.Game{
		ID:                r.ID,
		HostID:            r.HostID,
		Title:             r.Title,
		ScheduledAt:       r.ScheduledAt,
		Status:            domain.GameStatus(r.Status),
		TotalRounds:       r.TotalRounds,
		QuestionsPerRound: r.QuestionsPerRound,
		Categories:        r.Categories,
		MaxTeams:          r.MaxTeams,
		MaxPlayersPerTeam: r.MaxPlayersPerTeam,
		MinPlayersPerTeam: r.MinPlayersPerTeam,
		Archived:          r.Archived,
		StartedAt:         r.StartedAt,
		EndedAt:           r.EndedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type roundRow struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID        string     `bun:"id,pk"`
	GameID    string     `bun:"game_id,notnull"`
	Number    int        `bun:"number,notnull"`
	Status    string     `bun:"status,notnull"`
	StartedAt *time.Time `bun:"started_at"`
	EndedAt   *time.Time `bun:"ended_at"`
}

func newRoundRow(r domain.Round) roundRow {
	return roundRow{ID: r.ID, GameID: r.GameID, Number: r.Number, Status: string(r.Status), StartedAt: r.StartedAt, EndedAt: r.EndedAt}
}

func (r *roundRow) validate() error {
	if !domain.RoundStatus(r.Status).Valid() {
		return fmt.Errorf("round %s: unknown status %q", r.ID, r.Status)
	}
	return nil
}

func (r *roundRow) domain() domain.Round {
	return domain.Round{ID: r.ID, GameID: r.GameID, Number: r.Number, Status: domain.RoundStatus(r.Status), StartedAt: r.StartedAt, EndedAt: r.EndedAt}
}

type roundQuestionRow struct {
	bun.BaseModel `bun:"table:round_questions,alias:rq"`

	ID         string `bun:"id,pk"`
	RoundID    string `bun:"round_id,notnull"`
	GameID     string `bun:"game_id,notnull"`
	QuestionID string `bun:"question_id,notnull"`
	Category   string `bun:"category,notnull"`
	Position   int    `bun:"position,notnull"`
}

func newRoundQuestionRow(q domain.RoundQuestion) roundQuestionRow {
	return roundQuestionRow{ID: q.ID, RoundID: q.RoundID, GameID: q.GameID, QuestionID: q.QuestionID, Category: q.Category, Position: q.Order}
}

func (r *roundQuestionRow) domain() domain.RoundQuestion {
	return domain.RoundQuestion{ID: r.ID, RoundID: r.RoundID, GameID: r.GameID, QuestionID: r.QuestionID, Category: r.Category, Order: r.Position}
}

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID           string    `bun:"id,pk"`
	GameID       string    `bun:"game_id,notnull"`
	Name         string    `bun:"name,notnull"`
	Color        string    `bun:"color,notnull"`
	CurrentScore int       `bun:"current_score,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func newTeamRow(t domain.Team) *teamRow {
	return &teamRow{ID: t.ID, GameID: t.GameID, Name: t.Name, Color: t.Color, CurrentScore: t.CurrentScore, CreatedAt: t.CreatedAt}
}

func (r *teamRow) domain() domain.Team {
	return domain.Team{ID: r.ID, GameID: r.GameID, Name: r.Name, Color: r.Color, CurrentScore: r.CurrentScore, CreatedAt: r.CreatedAt}
}

type teamPlayerRow struct {
	bun.BaseModel `bun:"table:team_players,alias:tp"`

	TeamID   string    `bun:"team_id,pk"`
	PlayerID string    `bun:"player_id,pk"`
	GameID   string    `bun:"game_id,notnull"`
	JoinedAt time.Time `bun:"joined_at,notnull"`
}

func (r *teamPlayerRow) domain() domain.TeamPlayer {
	return domain.TeamPlayer{TeamID: r.TeamID, GameID: r.GameID, PlayerID: r.PlayerID, JoinedAt: r.JoinedAt}
}

type teamAnswerRow struct {
	bun.BaseModel `bun:"table:team_answers,alias:ta"`

	ID              string    `bun:"id,pk"`
	TeamID          string    `bun:"team_id,notnull"`
	RoundQuestionID string    `bun:"round_question_id,notnull"`
	GameID          string    `bun:"game_id,notnull"`
	PlayerID        string    `bun:"player_id,notnull"`
	AnswerLabel     string    `bun:"answer_label,notnull"`
	IsCorrect       bool      `bun:"is_correct,notnull"`
	Points          int       `bun:"points,notnull"`
	SubmittedAt     time.Time `bun:"submitted_at,notnull"`
}

func newTeamAnswerRow(a domain.TeamAnswer) *teamAnswerRow {
	return &teamAnswerRow{
		ID:              a.ID,
		TeamID:          a.TeamID,
		RoundQuestionID: a.RoundQuestionID,
		GameID:          a.GameID,
		PlayerID:        a.PlayerID,
		AnswerLabel:     a.AnswerLabel,
		IsCorrect:       a.IsCorrect,
		Points:          a.Points,
		SubmittedAt:     a.SubmittedAt,
	}
}

func (r *teamAnswerRow) domain() domain.TeamAnswer {
	return domain.TeamAnswer{
		ID:              r.ID,
		TeamID:          r.TeamID,
		RoundQuestionID: r.RoundQuestionID,
		GameID:          r.GameID,
		PlayerID:        r.PlayerID,
		AnswerLabel:     r.AnswerLabel,
		IsCorrect:       r.IsCorrect,
		Points:          r.Points,
		SubmittedAt:     r.SubmittedAt,
	}
}

type hostUsedQuestionRow struct {
	bun.BaseModel `bun:"table:host_used_questions,alias:hu"`

	HostID     string    `bun:"host_id,pk"`
	QuestionID string    `bun:"question_id,pk"`
	UsedAt     time.Time `bun:"used_at,notnull"`
}
