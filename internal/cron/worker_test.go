package cron

import (
	"testing"
	"time"

	"github.com/wattfinder/wattfinder/internal/config"
)

func TestDefaultIntervalSettingFromConfig(t *testing.T) {
	cfg := config.Config{RefreshInterval: time.Hour}
	if got := defaultIntervalSetting(cfg); got != "3600" {
		t.Fatalf("expected 3600, got %s", got)
	}
}

func TestDefaultIntervalSettingFallback(t *testing.T) {
	if got := defaultIntervalSetting(config.Config{}); got != "86400" {
		t.Fatalf("expected 86400 for zero interval, got %s", got)
	}
}

func TestDefaultIntervalSettingFollowsEnv(t *testing.T) {
	t.Setenv("WATTFINDER_REFRESH_INTERVAL", "30m")
	if got := defaultIntervalSetting(config.FromEnv()); got != "1800" {
		t.Fatalf("expected 1800 from WATTFINDER_REFRESH_INTERVAL=30m, got %s", got)
	}
}

func TestNextRunAfter(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if got := nextRunAfter("3600", base); got != base.Add(time.Hour) {
		t.Fatalf("integer seconds: got %s", got)
	}

	// Standard cron expression: daily at midnight.
	if got := nextRunAfter("0 0 * * *", base); got != time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("cron expression: got %s", got)
	}

	if got := nextRunAfter("bogus", base); got != base.Add(24*time.Hour) {
		t.Fatalf("fallback: got %s", got)
	}
}
