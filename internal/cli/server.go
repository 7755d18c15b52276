package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/config"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/infra/memory"
	pgstore "github.com/burggraf/trivia-party-new-2-sub000/internal/infra/postgres"
	rediscache "github.com/burggraf/trivia-party-new-2-sub000/internal/infra/redis"
	transport "github.com/burggraf/trivia-party-new-2-sub000/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth secret not configured (auth.secret or AUTH_SECRET)")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var (
		repo app.Repository
		bank app.QuestionBank
	)
	if cfg.Postgres.URL != "" {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrateDB(ctx, db, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = pgstore.NewStore(db)
		bank = pgstore.NewQuestionBank(pool)
	} else {
		questions, err := fileQuestions(cfg.Bank.File)
		if err != nil {
			return err
		}
		logger.Warn("postgres not configured, using in-memory storage", "questions", len(questions))
		repo = memory.NewStore()
		bank = memory.NewStaticQuestionBank(questions)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	opts := app.Options{
		Scoring:           scoringPolicy(cfg),
		RequireReadyTeams: cfg.Game.RequireReadyTeams,
		Logger:            logger,
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		bank = rediscache.NewQuestionCache(client, bank, bankTTL)
		opts.Events = rediscache.NewEventPublisher(client, cfg.Redis.EventsChannel)
		opts.Scores = rediscache.NewScoreboard(client)
	} else {
		bank = memory.NewQuestionCache(bank, bankTTL)
	}

	service := app.NewGameService(repo, bank, opts)
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := transport.NewHandler(service, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router([]byte(cfg.Auth.Secret)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting trivia service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func scoringPolicy(cfg config.Config) app.ScoringPolicy {
	if strings.EqualFold(cfg.Scoring.Policy, "time_bonus") {
		return app.TimeBonusScoring{
			Base:      cfg.Scoring.Points,
			MaxBonus:  cfg.Scoring.MaxBonus,
			TimeLimit: config.TTLDuration(cfg.Scoring.TimeLimit, 30*time.Second),
		}
	}
	return app.FlatScoring{PointsPerCorrect: cfg.Scoring.Points}
}

// fileQuestions loads the configured bank file, or a small built-in set.
func fileQuestions(path string) ([]domain.Question, error) {
	if path != "" {
		return config.LoadQuestions(path)
	}
	return config.ParseQuestions([]byte(sampleQuestions))
}

const sampleQuestions = `
- id: sample-1
  category: general
  prompt: What is 2 + 2?
  options: {A: "3", B: "4", C: "5", D: "22"}
  correct: B
- id: sample-2
  category: general
  prompt: Which planet is known as the Red Planet?
  options: {A: Venus, B: Jupiter, C: Mars, D: Mercury}
  correct: C
- id: sample-3
  category: general
  prompt: How many sides does a hexagon have?
  options: {A: "6", B: "5", C: "8", D: "7"}
  correct: A
- id: sample-4
  category: general
  prompt: What is the chemical symbol for gold?
  options: {A: Ag, B: Gd, C: Go, D: Au}
  correct: D
`
