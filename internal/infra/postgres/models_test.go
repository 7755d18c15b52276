package postgres

import (
	"testing"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

func TestRowsRejectUnknownStatus(t *testing.T) {
	game := newGameRow(domain.Game{ID: "g1", Status: domain.GameInProgress})
	if err := game.validate(); err != nil {
		t.Fatalf("valid game status rejected: %v", err)
	}
	game.Status = "paused"
	if err := game.validate(); err == nil {
		t.Fatalf("expected error for unknown game status")
	}

	round := newRoundRow(domain.Round{ID: "r1", Status: domain.RoundPending})
	if err := round.validate(); err != nil {
		t.Fatalf("valid round status rejected: %v", err)
	}
	round.Status = ""
	if err := round.validate(); err == nil {
		t.Fatalf("expected error for empty round status")
	}
}

func TestNewGameRowDefaultsCategories(t *testing.T) {
	row := newGameRow(domain.Game{ID: "g1"})
	if row.Categories == nil || len(row.Categories) != 0 {
		t.Fatalf("expected empty non-nil categories, got %#v", row.Categories)
	}
}
