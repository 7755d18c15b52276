package app

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Options carries the optional collaborators and policies of a GameService.
// Zero values fall back to production defaults.
type Options struct {
	Now   func() time.Time
	NewID func() string
	Rand  *rand.Rand

	// Scoring decides the points of an answer; defaults to FlatScoring.
	Scoring ScoringPolicy
	// RequireReadyTeams makes StartGame reject games with a team outside its
	// player bounds. When false readiness is advisory (see GetReadiness).
	RequireReadyTeams bool

	Events EventPublisher
	Scores ScoreCache
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Scoring == nil {
		o.Scoring = FlatScoring{PointsPerCorrect: DefaultPointsPerCorrect}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
