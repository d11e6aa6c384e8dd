package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gptbot/core/logger"
)

// Seeder loads reference data once migrations have been applied.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, db *sqlx.DB) (int, error)
}

// Name returns the label used in log lines.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) (int, error) {
	return f.Fn(ctx, db)
}

func runSeeders(ctx context.Context, db *sqlx.DB, seeders []Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		n, err := s.Seed(ctx, db)
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed",
			slog.String("seeder", s.Name()),
			slog.String("status", logger.Status(err)),
			slog.Int("rows", n),
			slog.Any("err", err),
		)
		if err != nil {
			return fmt.Errorf("bootstrap: seeder %s failed: %w", s.Name(), err)
		}
	}
	return nil
}
