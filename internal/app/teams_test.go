package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("enforces max teams", func(t *testing.T) {
		f := newFixture(t, nil)
		cfg := gameConfig(1, 1)
		cfg.MaxTeams = 2
		game := f.createGame(t, cfg)
		f.createTeam(t, game.ID, "Owls")
		f.createTeam(t, game.ID, "Foxes")

		_, err := f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "Bears"})
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.NotErrorIs(t, err, domain.ErrTeamFull)

		var cerr *domain.CapacityError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, domain.ResourceTeams, cerr.Resource)
		assert.Equal(t, 2, cerr.Limit)
	})

	t.Run("names are unique per game and case-sensitive", func(t *testing.T) {
		f := newFixture(t, nil)
		game := f.createGame(t, gameConfig(1, 1))
		other := f.createGame(t, gameConfig(1, 1))
		f.createTeam(t, game.ID, "Owls")

		_, err := f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "Owls"})
		require.ErrorIs(t, err, domain.ErrDuplicateName)

		_, err = f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "owls"})
		require.NoError(t, err)
		_, err = f.svc.CreateTeam(ctx, host, other.ID, app.TeamInput{Name: "Owls"})
		require.NoError(t, err)
	})

	t.Run("validates input", func(t *testing.T) {
		f := newFixture(t, nil)
		game := f.createGame(t, gameConfig(1, 1))

		_, err := f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "  ", Color: "blue"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasField("name"))
		assert.True(t, verr.HasField("color"))

		team, err := f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "Owls", Color: "#1e90ff"})
		require.NoError(t, err)
		assert.Equal(t, 0, team.CurrentScore)
	})

	t.Run("only during setup", func(t *testing.T) {
		f := newFixture(t, bankOf("science", 1))
		game := f.createGame(t, gameConfig(1, 1))
		_, err := f.svc.StartGame(ctx, host, game.ID)
		require.NoError(t, err)

		_, err = f.svc.CreateTeam(ctx, host, game.ID, app.TeamInput{Name: "Late"})
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestUpdateAndDeleteTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bankOf("science", 1))
	game := f.createGame(t, gameConfig(1, 1))
	owls := f.createTeam(t, game.ID, "Owls", "p1")
	f.createTeam(t, game.ID, "Foxes")

	_, err := f.svc.UpdateTeam(ctx, host, owls.ID, app.TeamInput{Name: "Foxes"})
	require.ErrorIs(t, err, domain.ErrDuplicateName)
	_, err = f.svc.UpdateTeam(ctx, "p1", owls.ID, app.TeamInput{Name: "Hawks"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	renamed, err := f.svc.UpdateTeam(ctx, host, owls.ID, app.TeamInput{Name: "Hawks", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "Hawks", renamed.Name)

	require.NoError(t, f.svc.DeleteTeam(ctx, host, owls.ID))
	_, err = f.svc.GetTeamStats(ctx, owls.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	foxes := f.createTeam(t, game.ID, "Owls")
	_, err = f.svc.JoinTeam(ctx, "p1", foxes.ID, "")
	require.NoError(t, err, "deleting a team frees its players")

	_, err = f.svc.StartGame(ctx, host, game.ID)
	require.NoError(t, err)
	err = f.svc.DeleteTeam(ctx, host, foxes.ID)
	require.ErrorIs(t, err, domain.ErrNotDeletable)
	_, err = f.svc.UpdateTeam(ctx, host, foxes.ID, app.TeamInput{Name: "Renamed"})
	require.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestJoinTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("team full at max players", func(t *testing.T) {
		f := newFixture(t, nil)
		cfg := gameConfig(1, 1)
		cfg.MaxPlayersPerTeam = 2
		game := f.createGame(t, cfg)
		team := f.createTeam(t, game.ID, "Owls", "p1", "p2")

		_, err := f.svc.JoinTeam(ctx, "p3", team.ID, "")
		require.ErrorIs(t, err, domain.ErrTeamFull)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)

		var cerr *domain.CapacityError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, team.ID, cerr.TeamID)
		assert.Equal(t, 2, cerr.Limit)
	})

	t.Run("one team per player per game", func(t *testing.T) {
		f := newFixture(t, nil)
		game := f.createGame(t, gameConfig(1, 1))
		owls := f.createTeam(t, game.ID, "Owls", "p1")
		foxes := f.createTeam(t, game.ID, "Foxes")

		_, err := f.svc.JoinTeam(ctx, "p1", foxes.ID, "")
		var perr *domain.PlayerAssignedError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, owls.ID, perr.TeamID)

		_, err = f.svc.JoinTeam(ctx, "p1", owls.ID, "")
		require.ErrorIs(t, err, domain.ErrPlayerAlreadyAssigned)

		other := f.createGame(t, gameConfig(1, 1))
		f.createTeam(t, other.ID, "Owls", "p1")
	})

	t.Run("caller must be the player or the host", func(t *testing.T) {
		f := newFixture(t, nil)
		game := f.createGame(t, gameConfig(1, 1))
		team := f.createTeam(t, game.ID, "Owls")

		_, err := f.svc.JoinTeam(ctx, "p2", team.ID, "p1")
		require.ErrorIs(t, err, domain.ErrUnauthorized)

		member, err := f.svc.JoinTeam(ctx, host, team.ID, "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", member.PlayerID)
	})

	t.Run("late join while in progress but not after", func(t *testing.T) {
		f := newFixture(t, bankOf("science", 1))
		game := f.createGame(t, gameConfig(1, 1))
		team := f.createTeam(t, game.ID, "Owls")
		_, err := f.svc.StartGame(ctx, host, game.ID)
		require.NoError(t, err)

		_, err = f.svc.JoinTeam(ctx, "p1", team.ID, "")
		require.NoError(t, err)

		_, err = f.svc.CancelGame(ctx, host, game.ID)
		require.NoError(t, err)
		_, err = f.svc.JoinTeam(ctx, "p2", team.ID, "")
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("concurrent joins never exceed capacity", func(t *testing.T) {
		f := newFixture(t, nil)
		cfg := gameConfig(1, 1)
		cfg.MaxPlayersPerTeam = 3
		game := f.createGame(t, cfg)
		team := f.createTeam(t, game.ID, "Owls")

		var wg sync.WaitGroup
		errs := make([]error, 12)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.JoinTeam(ctx, fmt.Sprintf("p%d", i), team.ID, "")
			}(i)
		}
		wg.Wait()

		joined := 0
		for _, err := range errs {
			if err == nil {
				joined++
				continue
			}
			require.ErrorIs(t, err, domain.ErrTeamFull)
		}
		assert.Equal(t, 3, joined)
		members, err := f.store.ListTeamPlayers(ctx, team.ID)
		require.NoError(t, err)
		assert.Len(t, members, 3)
	})

	t.Run("concurrent joins across teams keep one team per player", func(t *testing.T) {
		f := newFixture(t, nil)
		game := f.createGame(t, gameConfig(1, 1))
		owls := f.createTeam(t, game.ID, "Owls")
		foxes := f.createTeam(t, game.ID, "Foxes")

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			team := owls
			if i%2 == 1 {
				team = foxes
			}
			wg.Add(1)
			go func(i int, teamID string) {
				defer wg.Done()
				_, errs[i] = f.svc.JoinTeam(ctx, "p1", teamID, "")
			}(i, team.ID)
		}
		wg.Wait()

		joined := 0
		for _, err := range errs {
			if err == nil {
				joined++
			}
		}
		assert.Equal(t, 1, joined)
	})
}

func TestRosterChangesLockGameBeforeTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	game := f.createGame(t, gameConfig(1, 1))
	team := f.createTeam(t, game.ID, "Owls")

	rec := newLockRecorder(f.store)
	svc := app.NewGameService(rec, memory.NewStaticQuestionBank(nil), app.Options{Now: f.clock.Now})

	_, err := svc.JoinTeam(ctx, "p1", team.ID, "")
	require.NoError(t, err)
	require.NoError(t, svc.LeaveTeam(ctx, "p1", team.ID, ""))

	assert.Equal(t, []string{"LockGame", "LockTeam", "LockGame", "LockTeam"}, rec.Calls())
}

func TestJoinRespectsShrunkLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cfg := gameConfig(1, 1)
	cfg.MaxPlayersPerTeam = 3
	game := f.createGame(t, cfg)
	team := f.createTeam(t, game.ID, "Owls", "p1")

	shrunk := cfg
	shrunk.MaxPlayersPerTeam = 1
	var wg sync.WaitGroup
	var joinErr, updateErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, joinErr = f.svc.JoinTeam(ctx, "p2", team.ID, "")
	}()
	go func() {
		defer wg.Done()
		_, updateErr = f.svc.UpdateGame(ctx, host, game.ID, shrunk)
	}()
	wg.Wait()

	// exactly one side wins
	if joinErr == nil {
		require.ErrorIs(t, updateErr, domain.ErrValidation)
	} else {
		require.ErrorIs(t, joinErr, domain.ErrTeamFull)
		require.NoError(t, updateErr)
	}

	got, err := f.svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	members, err := f.store.ListTeamPlayers(ctx, team.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(members), got.MaxPlayersPerTeam)
}

func TestLeaveTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	game := f.createGame(t, gameConfig(1, 1))
	team := f.createTeam(t, game.ID, "Owls", "p1")

	require.NoError(t, f.svc.LeaveTeam(ctx, "p2", team.ID, ""), "non-member removal is a no-op")
	require.ErrorIs(t, f.svc.LeaveTeam(ctx, "p2", team.ID, "p1"), domain.ErrUnauthorized)
	require.NoError(t, f.svc.LeaveTeam(ctx, "p1", team.ID, ""))

	readiness, err := f.svc.GetReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, readiness.Teams, 1)
	assert.Equal(t, 0, readiness.Teams[0].Members)
	assert.False(t, readiness.Ready)
}
