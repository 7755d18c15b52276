package domain

import "time"

// Game is a host-owned trivia competition.
type Game struct {
	ID                string     `json:"id"`
	HostID            string     `json:"hostId"`
	Title             string     `json:"title"`
	ScheduledAt       *time.Time `json:"scheduledAt,omitempty"`
	Status            GameStatus `json:"status"`
	TotalRounds       int        `json:"totalRounds"`
	QuestionsPerRound int        `json:"questionsPerRound"`
	Categories        []string   `json:"categories"`
	MaxTeams          int        `json:"maxTeams"`
	MaxPlayersPerTeam int        `json:"maxPlayersPerTeam"`
	MinPlayersPerTeam int        `json:"minPlayersPerTeam"`
	Archived          bool       `json:"archived"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	EndedAt           *time.Time `json:"endedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// QuestionCount is the number of questions a started game consumes.
func (g Game) QuestionCount() int {
	return g.TotalRounds * g.QuestionsPerRound
}

// Team is a named group of players within one game.
type Team struct {
	ID           string    `json:"id"`
	GameID       string    `json:"gameId"`
	Name         string    `json:"name"`
	Color        string    `json:"color,omitempty"`
	CurrentScore int       `json:"currentScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TeamPlayer is a membership edge. GameID is carried so a player can be
// constrained to one team per game.
type TeamPlayer struct {
	TeamID   string    `json:"teamId"`
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Round is one scored segment of a game.
type Round struct {
	ID        string      `json:"id"`
	GameID    string      `json:"gameId"`
	Number    int         `json:"number"`
	Status    RoundStatus `json:"status"`
	StartedAt *time.Time  `json:"startedAt,omitempty"`
	EndedAt   *time.Time  `json:"endedAt,omitempty"`
}

// RoundQuestion assigns one bank question to a position within a round.
type RoundQuestion struct {
	ID         string `json:"id"`
	RoundID    string `json:"roundId"`
	GameID     string `json:"gameId"`
	QuestionID string `json:"questionId"`
	Category   string `json:"category"`
	Order      int    `json:"order"`
}

// PlayableQuestion is a round-question joined with its bank entry.
type PlayableQuestion struct {
	RoundQuestion
	Question Question `json:"question"`
}

// TeamAnswer is the single accepted submission of a team for a round-question.
type TeamAnswer struct {
	ID              string    `json:"id"`
	TeamID          string    `json:"teamId"`
	RoundQuestionID string    `json:"roundQuestionId"`
	GameID          string    `json:"gameId"`
	PlayerID        string    `json:"playerId"`
	AnswerLabel     string    `json:"answerLabel"`
	IsCorrect       bool      `json:"isCorrect"`
	Points          int       `json:"points"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// OptionLabels are the four answer labels every bank question carries.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Option is one labeled choice of a question.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// Question is a read-only question bank entry with exactly one correct option.
type Question struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Prompt       string    `json:"prompt"`
	Options      [4]Option `json:"options"`
	CorrectLabel string    `json:"correctLabel"`
}

// Public strips the correct label for clients that should not see it.
func (q Question) Public() Question {
	q.CorrectLabel = ""
	return q
}

// TeamReadiness reports whether a team's roster is within the game's bounds.
type TeamReadiness struct {
	TeamID  string `json:"teamId"`
	Name    string `json:"name"`
	Members int    `json:"members"`
	Ready   bool   `json:"ready"`
}

// Readiness is the start-readiness of a game's teams.
type Readiness struct {
	GameID string          `json:"gameId"`
	Ready  bool            `json:"ready"`
	Teams  []TeamReadiness `json:"teams"`
}

// TeamStats are derived answer statistics for one team.
type TeamStats struct {
	TeamID       string  `json:"teamId"`
	TotalAnswers int     `json:"totalAnswers"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`
	Points       int     `json:"points"`
}

// AnswerResult summarizes an accepted submission.
type AnswerResult struct {
	Answer     TeamAnswer `json:"answer"`
	TotalScore int        `json:"totalScore"`
}

// LeaderboardEntry is a team's position on the scoreboard.
type LeaderboardEntry struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Leaderboard is the ordered scoreboard of a game.
type Leaderboard struct {
	GameID  string             `json:"gameId"`
	Entries []LeaderboardEntry `json:"entries"`
}
