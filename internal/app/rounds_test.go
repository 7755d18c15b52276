package app_test

import (
	"context"
	"testing"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundProgression(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bankOf("science", 6))
	game := f.createGame(t, gameConfig(3, 2))

	rounds, err := f.svc.ListRounds(ctx, game.ID)
	require.NoError(t, err)
	_, err = f.svc.StartRound(ctx, host, rounds[0].ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "game still in setup")

	_, err = f.svc.StartGame(ctx, host, game.ID)
	require.NoError(t, err)

	_, err = f.svc.StartRound(ctx, host, rounds[1].ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "round 1 still running")
	_, err = f.svc.StartRound(ctx, host, rounds[0].ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "already in progress")

	_, err = f.svc.CompleteRound(ctx, "p1", rounds[0].ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	done, err := f.svc.CompleteRound(ctx, host, rounds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundCompleted, done.Status)
	require.NotNil(t, done.EndedAt)

	_, err = f.svc.CompleteRound(ctx, host, rounds[0].ID)
	var terr *domain.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "completed", terr.From)
	assert.Equal(t, "completed", terr.To)

	_, err = f.svc.StartRound(ctx, host, rounds[2].ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "round 2 not completed")

	current, err := f.svc.ListRounds(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundPending, current[1].Status, "no auto-advance")

	started, err := f.svc.StartRound(ctx, host, rounds[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundInProgress, started.Status)
}

func TestAdvanceRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bankOf("science", 4))
	game := f.createGame(t, gameConfig(2, 2))
	_, err := f.svc.StartGame(ctx, host, game.ID)
	require.NoError(t, err)

	next, err := f.svc.AdvanceRound(ctx, host, game.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Number)
	assert.Equal(t, domain.RoundInProgress, next.Status)

	next, err = f.svc.AdvanceRound(ctx, host, game.ID)
	require.NoError(t, err)
	assert.Nil(t, next)

	rounds, err := f.svc.ListRounds(ctx, game.ID)
	require.NoError(t, err)
	for _, r := range rounds {
		assert.Equal(t, domain.RoundCompleted, r.Status)
	}

	_, err = f.svc.CompleteGame(ctx, host, game.ID)
	require.NoError(t, err)

	types := f.events.Types(game.ID)
	assert.Contains(t, types, domain.EventRoundCompleted)
	assert.Contains(t, types, domain.EventRoundStarted)
	assert.Equal(t, domain.EventGameCompleted, types[len(types)-1])
}

func TestGetRoundQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bankOf("science", 4))
	game := f.createGame(t, gameConfig(2, 2))
	_, err := f.svc.StartGame(ctx, host, game.ID)
	require.NoError(t, err)
	rounds, err := f.svc.ListRounds(ctx, game.ID)
	require.NoError(t, err)

	t.Run("host sees correct labels", func(t *testing.T) {
		qs, err := f.svc.GetRoundQuestions(ctx, host, rounds[0].ID)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Equal(t, 1, qs[0].Order)
		assert.Equal(t, "A", qs[0].Question.CorrectLabel)
		assert.Equal(t, qs[0].QuestionID, qs[0].Question.ID)
	})

	t.Run("players see the started round without labels", func(t *testing.T) {
		qs, err := f.svc.GetRoundQuestions(ctx, "p1", rounds[0].ID)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		for _, q := range qs {
			assert.Empty(t, q.Question.CorrectLabel)
			assert.NotEmpty(t, q.Question.Prompt)
		}
	})

	t.Run("players cannot preview pending rounds", func(t *testing.T) {
		_, err := f.svc.GetRoundQuestions(ctx, "p1", rounds[1].ID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
		qs, err := f.svc.GetRoundQuestions(ctx, host, rounds[1].ID)
		require.NoError(t, err)
		assert.Len(t, qs, 2)
	})
}
