package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"schedulerd/internal/config"
)

func writeTestConfig(t *testing.T, cfg config.Config) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func baseTestConfig() config.Config {
	return config.Config{
		Logging: config.LoggingConfig{Level: "error", Console: false},
		Scheduler: config.SchedulerConfig{
			Enabled:      true,
			Workers:      2,
			MaxQueueSize: 16,
		},
		Recurring: config.RecurringConfig{Enabled: true},
		Metrics:   config.MetricsConfig{Enabled: false},
	}
}

func TestNewAppRejectsZeroWorkers(t *testing.T) {
	cfg := baseTestConfig()
	cfg.Scheduler.Workers = 0
	path := writeTestConfig(t, cfg)

	if _, err := NewApp(path); err == nil {
		t.Fatal("expected error for scheduler.workers = 0")
	}
}

func TestAppStartStopLifecycle(t *testing.T) {
	path := writeTestConfig(t, baseTestConfig())

	a, err := NewApp(path)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-a.Done():
		t.Fatal("app should not be done immediately after Start")
	case <-time.After(20 * time.Millisecond):
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestAppStopBeforeStartIsNoop(t *testing.T) {
	path := writeTestConfig(t, baseTestConfig())

	a, err := NewApp(path)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start should be a no-op, got: %v", err)
	}
}

func TestAppWithHistoryEnabled(t *testing.T) {
	dir := t.TempDir()
	cfg := baseTestConfig()
	cfg.History = &config.HistoryConfig{
		Driver: "file",
		Path:   filepath.Join(dir, "history.jsonl"),
	}
	path := writeTestConfig(t, cfg)

	a, err := NewApp(path)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
