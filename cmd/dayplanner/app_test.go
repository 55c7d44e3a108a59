package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"day-planner/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		l := newLogger(tt.level)
		if !l.Enabled(context.Background(), tt.want) {
			t.Errorf("%q: expected %s enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && l.Enabled(context.Background(), tt.want-4) {
			t.Errorf("%q: expected levels below %s disabled", tt.level, tt.want)
		}
	}
}

func TestNewAppWiresServices(t *testing.T) {
	c := config.DefaultConfig()
	c.DataDir = t.TempDir()
	c.Timezone = "UTC"
	c.HomeLocationAddress = "1 Main St"

	a, err := newApp(c, newLogger("error"))
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	if a.nlp {
		t.Error("nlp must be off without an API key")
	}
	ctx := context.Background()
	n, err := a.tasks.Seed(ctx, time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC))
	if err != nil || n != 3 {
		t.Fatalf("Seed() = %d, %v", n, err)
	}
	plan, err := a.planner.GeneratePlan(ctx, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GeneratePlan() failed: %v", err)
	}
	if len(plan.Blocks) != 3 {
		t.Errorf("expected all sample tasks planned, got %d blocks", len(plan.Blocks))
	}
}

func TestNewAppRejectsBadTimezone(t *testing.T) {
	c := config.DefaultConfig()
	c.DataDir = t.TempDir()
	c.Timezone = "Mars/Olympus"
	if _, err := newApp(c, newLogger("error")); err == nil {
		t.Error("expected time zone error")
	}
}
