package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/config"
)

func TestScoringPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	flat, ok := scoringPolicy(cfg).(app.FlatScoring)
	if !ok || flat.PointsPerCorrect != 10 {
		t.Fatalf("expected flat 10, got %#v", scoringPolicy(cfg))
	}

	cfg.Scoring.Policy = "time_bonus"
	cfg.Scoring.MaxBonus = 5
	cfg.Scoring.TimeLimit = "20s"
	bonus, ok := scoringPolicy(cfg).(app.TimeBonusScoring)
	if !ok || bonus.Base != 10 || bonus.MaxBonus != 5 || bonus.TimeLimit != 20*time.Second {
		t.Fatalf("unexpected time bonus policy: %#v", scoringPolicy(cfg))
	}
}

func TestSampleQuestionsParse(t *testing.T) {
	questions, err := fileQuestions("")
	if err != nil {
		t.Fatalf("sample questions: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 sample questions, got %d", len(questions))
	}
}

func TestFileQuestionsReadsConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	body := `- {id: x1, category: art, prompt: "Who painted it?", options: {A: a, B: b, C: c, D: d}, correct: C}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	questions, err := fileQuestions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectLabel != "C" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestMigrateWithoutPostgresFails(t *testing.T) {
	cfg := config.Default()
	cfg.Postgres.URL = ""
	if _, err := openDB(cfg); err == nil {
		t.Fatalf("expected error without postgres url")
	}
}
