package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	coreconfig "github.com/m3rciful/gptbot/core/config"
)

func TestListMigrationFilesSortsUpOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	got := listMigrationFiles(dir)
	want := []string{"0001_a.up.sql", "0002_b.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}
	if got := selectApplied(files, 1, 3); !reflect.DeepEqual(got, files[1:]) {
		t.Fatalf("applied = %v", got)
	}
	if got := selectApplied(files, 3, 3); got != nil {
		t.Fatalf("no-change run should apply nothing, got %v", got)
	}
}

func TestDSNForms(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "gptbot", SSLMode: "disable",
	}
	if got, want := URLDSN(cfg), "postgres://bot:p%40ss@db:5432/gptbot?sslmode=disable"; got != want {
		t.Fatalf("URLDSN = %q, want %q", got, want)
	}
	if got, want := KeyValueDSN(cfg), "user=bot password=p@ss host=db port=5432 dbname=gptbot sslmode=disable"; got != want {
		t.Fatalf("KeyValueDSN = %q, want %q", got, want)
	}
}

func TestMigrateURLPerDriver(t *testing.T) {
	sqlite := coreconfig.DatabaseConfig{Driver: coreconfig.DriverSQLite, Path: "data/quiz.db"}
	if got := MigrateURL(sqlite); got != "sqlite://data/quiz.db" {
		t.Fatalf("sqlite url = %q", got)
	}
	pg := coreconfig.DatabaseConfig{Driver: coreconfig.DriverPostgres, Host: "db", Port: "5432", User: "u", Name: "n", SSLMode: "disable"}
	if got := MigrateURL(pg); got != URLDSN(pg) {
		t.Fatalf("postgres url = %q", got)
	}
}
