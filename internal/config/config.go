package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		EventsChannel string `yaml:"events_channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"bank"`
	Game struct {
		RequireReadyTeams bool `yaml:"require_ready_teams"`
	} `yaml:"game"`
	Scoring struct {
		Policy    string `yaml:"policy"`
		Points    int    `yaml:"points"`
		MaxBonus  int    `yaml:"max_bonus"`
		TimeLimit string `yaml:"time_limit"`
	} `yaml:"scoring"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Bank.TTL = "10m"
	cfg.Scoring.Policy = "flat"
	cfg.Scoring.Points = 10
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path on top of Default, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
}

func (c Config) validate() error {
	switch strings.ToLower(c.Scoring.Policy) {
	case "", "flat", "time_bonus":
	default:
		return fmt.Errorf("unknown scoring policy %q", c.Scoring.Policy)
	}
	if c.Scoring.Points <= 0 {
		return fmt.Errorf("scoring points must be positive")
	}
	if c.Scoring.MaxBonus < 0 {
		return fmt.Errorf("scoring max bonus must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
