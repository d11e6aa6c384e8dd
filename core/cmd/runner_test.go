package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/gptbot/core/config"
	coretelegram "github.com/m3rciful/gptbot/core/telegram"
)

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv("CONFIG_PATH", "test.yaml")
	app := &fakeApp{}
	var (
		loadedFrom string
		started    bool
		loggerDown bool
	)
	err := Run(Options{
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedFrom = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			started = true
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
		ShutdownLogger: func() error { loggerDown = true; return nil },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loadedFrom != "test.yaml" || !started || !app.closed || !loggerDown {
		t.Fatalf("lifecycle incomplete: path=%q started=%v closed=%v logger=%v", loadedFrom, started, app.closed, loggerDown)
	}
}

func TestRunRequiresConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, errors.New("unreachable") },
		Bootstrap:  func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("expected missing path error")
	}
}
