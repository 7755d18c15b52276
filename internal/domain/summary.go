package domain

import "time"

// TeamSummary is a team's end-of-game result.
type TeamSummary struct {
	TeamID   string  `json:"teamId"`
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Correct  int     `json:"correct"`
	Answered int     `json:"answered"`
	Accuracy float64 `json:"accuracy"`
}

// RoundTeamScore is one team's result within a single round.
type RoundTeamScore struct {
	TeamID  string `json:"teamId"`
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
}

// RoundSummary groups per-team results for a round.
type RoundSummary struct {
	RoundID string           `json:"roundId"`
	Number  int              `json:"number"`
	Teams   []RoundTeamScore `json:"teams"`
}

// OverallStats aggregates a whole game.
type OverallStats struct {
	TotalAnswered   int           `json:"totalAnswered"`
	TotalCorrect    int           `json:"totalCorrect"`
	AverageAccuracy float64       `json:"averageAccuracy"`
	Duration        time.Duration `json:"duration"`
}

// GameSummary is recomputed on demand from answers, rounds and teams.
type GameSummary struct {
	GameID  string         `json:"gameId"`
	Teams   []TeamSummary  `json:"teams"`
	Rounds  []RoundSummary `json:"rounds"`
	Overall OverallStats   `json:"overall"`
}

// Accuracy returns correct/total as a percentage, or 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
