package bootstrap

import (
	"context"
	"errors"
	"testing"
)

func TestStartServiceRunsHooksWhenWiringFails(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0

	var order []string
	wantErr := errors.New("database unavailable")
	err := StartService(AppInfo{
		ServiceName: "test-service",
		Config:      cfg,
		RegisterHandlers: func(appCtx *AppCtx) error {
			appCtx.OnShutdown(func(context.Context) error {
				order = append(order, "db")
				return nil
			})
			appCtx.OnShutdown(func(context.Context) error {
				order = append(order, "kafka")
				return errors.New("close failed")
			})
			return wantErr
		},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wiring error, got %v", err)
	}
	if len(order) != 2 || order[0] != "kafka" || order[1] != "db" {
		t.Fatalf("expected hooks to run in reverse order, got %v", order)
	}
}

func TestRunShutdownHooksRunsOnce(t *testing.T) {
	appCtx := &AppCtx{}
	calls := 0
	appCtx.OnShutdown(func(context.Context) error {
		calls++
		return nil
	})
	appCtx.runShutdownHooks(context.Background())
	appCtx.runShutdownHooks(context.Background())
	if calls != 1 {
		t.Fatalf("expected hook to run once, got %d", calls)
	}
}
