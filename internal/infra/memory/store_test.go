package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

func TestStoreAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.Atomic(ctx, func(ctx context.Context, repo app.Repository) error {
		if err := repo.CreateGame(ctx, domain.Game{ID: "g1", HostID: "h1"}); err != nil {
			return err
		}
		if err := repo.MarkQuestionsUsed(ctx, "h1", []string{"q1"}, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.GetGame(ctx, "g1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected game rolled back, got %v", err)
	}
	used, _ := store.ListUsedQuestionIDs(ctx, "h1")
	if len(used) != 0 {
		t.Fatalf("expected usage rolled back, got %v", used)
	}
}

func TestStoreNestedAtomicJoinsUnit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Atomic(ctx, func(ctx context.Context, repo app.Repository) error {
		return repo.Atomic(ctx, func(ctx context.Context, inner app.Repository) error {
			return inner.CreateGame(ctx, domain.Game{ID: "g1", HostID: "h1"})
		})
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}
	if _, err := store.GetGame(ctx, "g1"); err != nil {
		t.Fatalf("get game: %v", err)
	}
}

func TestStoreEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateGame(ctx, domain.Game{ID: "g1", HostID: "h1"})
	if err := store.CreateTeam(ctx, domain.Team{ID: "t1", GameID: "g1", Name: "Owls"}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := store.CreateTeam(ctx, domain.Team{ID: "t2", GameID: "g1", Name: "Owls"}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	if err := store.CreateTeam(ctx, domain.Team{ID: "t2", GameID: "g1", Name: "owls"}); err != nil {
		t.Fatalf("names are case-sensitive: %v", err)
	}

	if err := store.AddTeamPlayer(ctx, domain.TeamPlayer{TeamID: "t1", GameID: "g1", PlayerID: "p1"}); err != nil {
		t.Fatalf("add player: %v", err)
	}
	if err := store.AddTeamPlayer(ctx, domain.TeamPlayer{TeamID: "t2", GameID: "g1", PlayerID: "p1"}); !errors.Is(err, domain.ErrPlayerAlreadyAssigned) {
		t.Fatalf("expected player already assigned, got %v", err)
	}

	answer := domain.TeamAnswer{ID: "a1", TeamID: "t1", RoundQuestionID: "rq1", GameID: "g1"}
	if err := store.CreateTeamAnswer(ctx, answer); err != nil {
		t.Fatalf("create answer: %v", err)
	}
	answer.ID = "a2"
	if err := store.CreateTeamAnswer(ctx, answer); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate answer, got %v", err)
	}
}

func TestStoreMarkQuestionsUsedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.MarkQuestionsUsed(ctx, "h1", []string{"q1", "q2"}, first); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := store.MarkQuestionsUsed(ctx, "h1", []string{"q2", "q3"}, first.Add(time.Hour)); err != nil {
		t.Fatalf("mark again: %v", err)
	}
	used, _ := store.ListUsedQuestionIDs(ctx, "h1")
	if len(used) != 3 {
		t.Fatalf("expected 3 used questions, got %v", used)
	}
	other, _ := store.ListUsedQuestionIDs(ctx, "h2")
	if len(other) != 0 {
		t.Fatalf("usage must be per host, got %v", other)
	}
}

func TestStoreDeleteTeamReleasesPlayers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateGame(ctx, domain.Game{ID: "g1", HostID: "h1"})
	_ = store.CreateTeam(ctx, domain.Team{ID: "t1", GameID: "g1", Name: "Owls"})
	_ = store.AddTeamPlayer(ctx, domain.TeamPlayer{TeamID: "t1", GameID: "g1", PlayerID: "p1"})

	if err := store.DeleteTeam(ctx, "t1"); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if _, ok, _ := store.FindPlayerTeam(ctx, "g1", "p1"); ok {
		t.Fatalf("expected membership removed with team")
	}
	if removed, _ := store.RemoveTeamPlayer(ctx, "t1", "p1"); removed {
		t.Fatalf("expected no-op removal")
	}
}

func TestStoreAddTeamScore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateTeam(ctx, domain.Team{ID: "t1", GameID: "g1", Name: "Owls"})

	total, err := store.AddTeamScore(ctx, "t1", 10)
	if err != nil || total != 10 {
		t.Fatalf("expected 10, got %d (%v)", total, err)
	}
	total, _ = store.AddTeamScore(ctx, "t1", 5)
	if total != 15 {
		t.Fatalf("expected 15, got %d", total)
	}
	if _, err := store.AddTeamScore(ctx, "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
