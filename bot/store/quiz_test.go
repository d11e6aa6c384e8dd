package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gptbot/bot/quiz"
	coreconfig "github.com/m3rciful/gptbot/core/config"
	"github.com/m3rciful/gptbot/core/database"
)

var items = []quiz.Item{
	{Question: "2 + 2?", Options: []string{"3", "4"}, Correct: "4", Image: "quiz"},
	{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo"}, Correct: "Paris"},
}

// openDB creates a migrated sqlite database in a temp dir.
func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := coreconfig.DatabaseConfig{
		Driver:         coreconfig.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "quiz.db"),
		MaxConnections: 1,
		MigrationsDir:  filepath.Join("..", "..", "migrations"),
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.RunMigrations(ctx, cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestInsertAndReadBackInOrder(t *testing.T) {
	repo := NewQuizRepository(openDB(t))
	ctx := context.Background()

	n, err := repo.Insert(ctx, items)
	if err != nil || n != 2 {
		t.Fatalf("insert = %d, %v", n, err)
	}
	if _, err := repo.Insert(ctx, items[:1]); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	got, err := repo.Items(ctx)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("items = %d, want 3", len(got))
	}
	if got[1].Question != "Capital of France?" || len(got[1].Options) != 3 || got[1].Correct != "Paris" {
		t.Fatalf("item 1 = %+v", got[1])
	}
	if got[0].Image != "quiz" || got[2].Question != "2 + 2?" {
		t.Fatalf("order or image lost: %+v", got)
	}
	if _, err := quiz.NewEngine(got); err != nil {
		t.Fatalf("stored items invalid: %v", err)
	}
}

func TestQuizSeederOnlyFillsEmptyTable(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	seeder := QuizSeeder(items)

	if seeder.Name() != "quiz_items" {
		t.Fatalf("name = %q", seeder.Name())
	}
	n, err := seeder.Seed(ctx, db)
	if err != nil || n != len(items) {
		t.Fatalf("first seed = %d, %v", n, err)
	}
	n, err = seeder.Seed(ctx, db)
	if err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v", n, err)
	}
	count, _ := NewQuizRepository(db).Count(ctx)
	if count != len(items) {
		t.Fatalf("count = %d", count)
	}
}
