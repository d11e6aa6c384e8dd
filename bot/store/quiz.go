// Package store reads and seeds the quiz bank kept in SQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gptbot/bot/quiz"
	"github.com/m3rciful/gptbot/core/bootstrap"
	"github.com/m3rciful/gptbot/core/logger"
)

// quizRow mirrors the quiz_items table. Options are stored as a JSON array
// so the schema stays the same on postgres and sqlite.
type quizRow struct {
	Position int    `db:"position"`
	Question string `db:"question"`
	Options  string `db:"options"`
	Correct  string `db:"correct"`
	Image    string `db:"image"`
}

// QuizRepository accesses quiz_items.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository wraps db.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// Items returns every item ordered by position.
func (r *QuizRepository) Items(ctx context.Context) ([]quiz.Item, error) {
	var rows []quizRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT position, question, options, correct, image FROM quiz_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: select quiz items: %w", err)
	}
	items := make([]quiz.Item, 0, len(rows))
	for _, row := range rows {
		var options []string
		if err := json.Unmarshal([]byte(row.Options), &options); err != nil {
			return nil, fmt.Errorf("store: quiz item %d options: %w", row.Position, err)
		}
		items = append(items, quiz.Item{
			Question: row.Question,
			Options:  options,
			Correct:  row.Correct,
			Image:    row.Image,
		})
	}
	return items, nil
}

// Count returns the number of stored items.
func (r *QuizRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM quiz_items`); err != nil {
		return 0, fmt.Errorf("store: count quiz items: %w", err)
	}
	return n, nil
}

// Insert appends items after the current last position in one transaction.
func (r *QuizRepository) Insert(ctx context.Context, items []quiz.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int
	if err := tx.GetContext(ctx, &last, `SELECT COALESCE(MAX(position), 0) FROM quiz_items`); err != nil {
		return 0, fmt.Errorf("store: last position: %w", err)
	}

	rows := make([]quizRow, 0, len(items))
	for i, it := range items {
		options, err := json.Marshal(it.Options)
		if err != nil {
			return 0, fmt.Errorf("store: encode options: %w", err)
		}
		rows = append(rows, quizRow{
			Position: last + i + 1,
			Question: it.Question,
			Options:  string(options),
			Correct:  it.Correct,
			Image:    it.Image,
		})
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO quiz_items (position, question, options, correct, image)
		 VALUES (:position, :question, :options, :correct, :image)`, rows)
	if err != nil {
		return 0, fmt.Errorf("store: insert quiz items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(rows), nil
}

// QuizSeeder fills an empty quiz_items table with defaults. A table that
// already has rows is left alone so edits made in the database survive restarts.
func QuizSeeder(defaults []quiz.Item) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "quiz_items",
		Fn: func(ctx context.Context, db *sqlx.DB) (int, error) {
			repo := NewQuizRepository(db)
			n, err := repo.Count(ctx)
			if err != nil {
				return 0, err
			}
			if n > 0 {
				logger.LogEvent(ctx, logger.SEED, slog.LevelDebug, "seed.skip",
					slog.String("seeder", "quiz_items"),
					slog.Int("existing", n),
				)
				return 0, nil
			}
			return repo.Insert(ctx, defaults)
		},
	}
}
