package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Scoring.Points != 10 || cfg.Scoring.Policy != "flat" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9000"
postgres:
  url: postgres://file
scoring:
  policy: time_bonus
  points: 20
  max_bonus: 5
  time_limit: 30s
game:
  require_ready_teams: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected file port, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://env" {
		t.Fatalf("expected env override, got %q", cfg.Postgres.URL)
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Fatalf("expected auth secret from env")
	}
	if !cfg.Game.RequireReadyTeams || cfg.Scoring.Points != 20 || cfg.Scoring.MaxBonus != 5 {
		t.Fatalf("unexpected game/scoring config: %+v", cfg)
	}
	if d := TTLDuration(cfg.Scoring.TimeLimit, 0); d != 30*time.Second {
		t.Fatalf("expected 30s, got %s", d)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scoring:\n  policy: golf\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestLoadRejectsNonPositivePoints(t *testing.T) {
	for _, body := range []string{"scoring:\n  points: 0\n", "scoring:\n  points: -5\n"} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("empty: got %s", d)
	}
	if d := TTLDuration("soon", time.Minute); d != time.Minute {
		t.Fatalf("invalid: got %s", d)
	}
}

func TestParseQuestions(t *testing.T) {
	data := []byte(`
- id: q1
  category: science
  prompt: What is H2O?
  options: {A: Water, B: Salt, C: Sand, D: Air}
  correct: a
`)
	qs, err := ParseQuestions(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectLabel != "A" || qs[0].Options[3].Text != "Air" || qs[0].Options[3].Label != "D" {
		t.Fatalf("unexpected question: %+v", qs)
	}
}

func TestParseQuestionsRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing option": "- {id: q1, category: c, prompt: p, options: {A: a, B: b, C: c}, correct: A}",
		"bad correct":    "- {id: q1, category: c, prompt: p, options: {A: a, B: b, C: c, D: d}, correct: E}",
		"duplicate id": "- {id: q1, category: c, prompt: p, options: {A: a, B: b, C: c, D: d}, correct: A}\n" +
			"- {id: q1, category: c, prompt: p, options: {A: a, B: b, C: c, D: d}, correct: B}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestions([]byte(body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), "question ") {
				t.Fatalf("error should name the entry index: %v", err)
			}
		})
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TRIVIA_TEST_A=from-file\nTRIVIA_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRIVIA_TEST_A", "from-env")
	t.Setenv("TRIVIA_TEST_B", "")
	os.Unsetenv("TRIVIA_TEST_B")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("TRIVIA_TEST_A"); got != "from-env" {
		t.Fatalf("existing value overwritten: %q", got)
	}
	if got := os.Getenv("TRIVIA_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
