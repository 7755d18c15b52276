package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `id, category, prompt, option_a, option_b, option_c, option_d, correct_label`

// QuestionBank reads the read-only questions table through a pgx pool.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) FetchByCategories(ctx context.Context, categories []string, excludedIDs []string) ([]domain.Question, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	rows, err := b.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE category = ANY($1) AND NOT (id = ANY($2))
		 ORDER BY id`,
		categories, excludedIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return out, nil
}

func (b *QuestionBank) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := b.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, &domain.NotFoundError{Resource: "question", ID: id}
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// Upsert writes questions in one batch, replacing rows with the same id.
func (b *QuestionBank) Upsert(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(`INSERT INTO questions (`+questionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				category = EXCLUDED.category,
				prompt = EXCLUDED.prompt,
				option_a = EXCLUDED.option_a,
				option_b = EXCLUDED.option_b,
				option_c = EXCLUDED.option_c,
				option_d = EXCLUDED.option_d,
				correct_label = EXCLUDED.correct_label`,
			q.ID, q.Category, q.Prompt,
			q.Options[0].Text, q.Options[1].Text, q.Options[2].Text, q.Options[3].Text,
			q.CorrectLabel)
	}
	return b.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range questions {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("upsert question %s: %w", questions[i].ID, err)
			}
		}
		return results.Close()
	})
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q    domain.Question
		text [4]string
	)
	if err := row.Scan(&q.ID, &q.Category, &q.Prompt, &text[0], &text[1], &text[2], &text[3], &q.CorrectLabel); err != nil {
		return domain.Question{}, err
	}
	for i, label := range domain.OptionLabels {
		q.Options[i] = domain.Option{Label: label, Text: text[i]}
	}
	return q, nil
}
