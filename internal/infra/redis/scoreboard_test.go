package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestScoreboardAddAndReplace(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	board := NewScoreboard(newClient(mr))
	ctx := context.Background()

	if err := board.AddPoints(ctx, "g1", "t1", 10); err != nil {
		t.Fatalf("add points: %v", err)
	}
	_ = board.AddPoints(ctx, "g1", "t1", 5)
	_ = board.AddPoints(ctx, "g1", "t2", 10)

	scores, err := board.Scores(ctx, "g1")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores["t1"] != 15 || scores["t2"] != 10 {
		t.Fatalf("unexpected scores %v", scores)
	}

	if err := board.Replace(ctx, "g1", map[string]int{"t2": 30}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	scores, _ = board.Scores(ctx, "g1")
	if len(scores) != 1 || scores["t2"] != 30 {
		t.Fatalf("expected board replaced, got %v", scores)
	}
	if !mr.Exists("game:g1:scores") {
		t.Fatalf("expected sorted set key")
	}
}
