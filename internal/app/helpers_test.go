package app_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

const host = "host-1"

type fixture struct {
	svc    *app.GameService
	store  *memory.Store
	events *memory.EventLog
	clock  *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newFixture(t *testing.T, questions []domain.Question, configure ...func(*app.Options)) *fixture {
	t.Helper()
	var seq atomic.Int64
	f := &fixture{
		store:  memory.NewStore(),
		events: memory.NewEventLog(),
		clock:  &testClock{now: time.Date(2026, 10, 19, 19, 0, 0, 0, time.UTC)},
	}
	opts := app.Options{
		Now:    f.clock.Now,
		NewID:  func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
		Rand:   rand.New(rand.NewSource(1)),
		Events: f.events,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	f.svc = app.NewGameService(f.store, memory.NewStaticQuestionBank(questions), opts)
	return f
}

func bankOf(category string, n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		q := domain.Question{
			ID:           fmt.Sprintf("%s-%d", category, i+1),
			Category:     category,
			Prompt:       fmt.Sprintf("%s question %d", category, i+1),
			CorrectLabel: "A",
		}
		for j, label := range domain.OptionLabels {
			q.Options[j] = domain.Option{Label: label, Text: fmt.Sprintf("answer %s", label)}
		}
		out[i] = q
	}
	return out
}

func gameConfig(rounds, perRound int) app.GameConfig {
	return app.GameConfig{
		Title:             "Friday quiz night",
		TotalRounds:       rounds,
		QuestionsPerRound: perRound,
		Categories:        []string{"science"},
		MaxTeams:          4,
		MaxPlayersPerTeam: 3,
		MinPlayersPerTeam: 1,
	}
}

func (f *fixture) createGame(t *testing.T, cfg app.GameConfig) domain.Game {
	t.Helper()
	game, err := f.svc.CreateGame(context.Background(), host, cfg)
	require.NoError(t, err)
	return game
}

func (f *fixture) createTeam(t *testing.T, gameID, name string, players ...string) domain.Team {
	t.Helper()
	ctx := context.Background()
	team, err := f.svc.CreateTeam(ctx, host, gameID, app.TeamInput{Name: name})
	require.NoError(t, err)
	for _, p := range players {
		_, err := f.svc.JoinTeam(ctx, p, team.ID, "")
		require.NoError(t, err)
	}
	return team
}

// roundQuestions returns the assignments of round number n.
func (f *fixture) roundQuestions(t *testing.T, gameID string, n int) []domain.RoundQuestion {
	t.Helper()
	ctx := context.Background()
	rounds, err := f.svc.ListRounds(ctx, gameID)
	require.NoError(t, err)
	all, err := f.store.ListRoundQuestions(ctx, gameID)
	require.NoError(t, err)
	var out []domain.RoundQuestion
	for _, rq := range all {
		if rq.RoundID == rounds[n-1].ID {
			out = append(out, rq)
		}
	}
	return out
}

func (f *fixture) answer(t *testing.T, team domain.Team, player string, rq domain.RoundQuestion, label string) domain.AnswerResult {
	t.Helper()
	res, err := f.svc.SubmitAnswer(context.Background(), player, app.AnswerInput{
		TeamID:          team.ID,
		RoundQuestionID: rq.ID,
		AnswerLabel:     label,
		PlayerID:        player,
	})
	require.NoError(t, err)
	return res
}

// failingRepo fails usage lookups inside and outside atomic units.
type failingRepo struct {
	app.Repository
	err error
}

func (r failingRepo) Atomic(ctx context.Context, fn func(ctx context.Context, repo app.Repository) error) error {
	return r.Repository.Atomic(ctx, func(ctx context.Context, repo app.Repository) error {
		return fn(ctx, failingRepo{Repository: repo, err: r.err})
	})
}

func (r failingRepo) ListUsedQuestionIDs(context.Context, string) ([]string, error) {
	return nil, r.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, domain.Event) error {
	return fmt.Errorf("broker unavailable")
}

type failingScores struct{}

func (failingScores) AddPoints(context.Context, string, string, int) error {
	return fmt.Errorf("cache unavailable")
}

func (failingScores) Replace(context.Context, string, map[string]int) error {
	return fmt.Errorf("cache unavailable")
}

// lockRecorder logs lock acquisitions and round-question reads in the order
// an atomic unit issues them.
type lockRecorder struct {
	app.Repository
	mu    *sync.Mutex
	calls *[]string
}

func newLockRecorder(repo app.Repository) lockRecorder {
	return lockRecorder{Repository: repo, mu: &sync.Mutex{}, calls: &[]string{}}
}

func (r lockRecorder) record(call string) {
	r.mu.Lock()
	*r.calls = append(*r.calls, call)
	r.mu.Unlock()
}

func (r lockRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), *r.calls...)
}

func (r lockRecorder) Atomic(ctx context.Context, fn func(ctx context.Context, repo app.Repository) error) error {
	return r.Repository.Atomic(ctx, func(ctx context.Context, repo app.Repository) error {
		return fn(ctx, lockRecorder{Repository: repo, mu: r.mu, calls: r.calls})
	})
}

func (r lockRecorder) LockGame(ctx context.Context, id string) (domain.Game, error) {
	r.record("LockGame")
	return r.Repository.LockGame(ctx, id)
}

func (r lockRecorder) LockTeam(ctx context.Context, id string) (domain.Team, error) {
	r.record("LockTeam")
	return r.Repository.LockTeam(ctx, id)
}

func (r lockRecorder) GetRoundQuestion(ctx context.Context, id string) (domain.RoundQuestion, error) {
	r.record("GetRoundQuestion")
	return r.Repository.GetRoundQuestion(ctx, id)
}
