package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/gptbot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunSkipsDatabaseWithoutHost(t *testing.T) {
	connected := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if connected || res.DB != nil {
		t.Fatal("database must not be touched without a host")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("refused")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{Database: coreconfig.DatabaseConfig{Host: "db", Name: "x"}},
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestRunSeedersStopsOnError(t *testing.T) {
	var calls []string
	mk := func(name string, err error) Seeder {
		return SeederFunc{Label: name, Fn: func(context.Context, *sqlx.DB) (int, error) {
			calls = append(calls, name)
			return 0, err
		}}
	}
	err := runSeeders(context.Background(), nil, []Seeder{mk("a", nil), mk("b", errors.New("x")), mk("c", nil)})
	if err == nil {
		t.Fatal("expected seeder error")
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want a and b only", calls)
	}
}

func TestRunRejectsNilConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
