package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SESSION_DURATION", "")
	t.Setenv("STATS_DEBOUNCE", "")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %v, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %v, want sqlite", cfg.DatabaseType)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Errorf("SessionDuration = %v, want 24h", cfg.SessionDuration)
	}
	if cfg.StatsDebounce != 300*time.Millisecond {
		t.Errorf("StatsDebounce = %v, want 300ms", cfg.StatsDebounce)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("DEBUG", "true")
	t.Setenv("STATS_DEBOUNCE", "not-a-duration")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %v, want 9090", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %v, want postgres", cfg.DatabaseType)
	}
	if cfg.SessionDuration != 2*time.Hour {
		t.Errorf("SessionDuration = %v, want 2h", cfg.SessionDuration)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.StatsDebounce != 300*time.Millisecond {
		t.Errorf("StatsDebounce = %v, want fallback 300ms", cfg.StatsDebounce)
	}
}
