package cli

import (
	"context"
	"fmt"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/config"
	pgstore "github.com/burggraf/trivia-party-new-2-sub000/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a YAML question file into the questions table.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question bank file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "questions.yaml", "YAML question bank file")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	logger := newLogger(cfg)

	questions, err := config.LoadQuestions(file)
	if err != nil {
		return fmt.Errorf("seed %s: %w", file, err)
	}
	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgstore.NewQuestionBank(pool).Upsert(ctx, questions); err != nil {
		return err
	}
	logger.Info("questions seeded", "file", file, "count", len(questions))
	return nil
}
