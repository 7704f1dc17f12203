package config

import (
	"testing"
	"time"

	"ucic-governance-go/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOURNAL_BACKEND", "")
	t.Setenv("SCHEDULER_POLLING_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Journal.Backend != models.JournalSQLite {
		t.Errorf("Backend = %q, want %q", cfg.Journal.Backend, models.JournalSQLite)
	}
	if cfg.Scheduler.PollingInterval != 30*time.Second {
		t.Errorf("PollingInterval = %s, want 30s", cfg.Scheduler.PollingInterval)
	}
	if cfg.Git.Attempts != 3 {
		t.Errorf("Git.Attempts = %d, want 3", cfg.Git.Attempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JOURNAL_BACKEND", models.JournalNone)
	t.Setenv("REWARD_INTERVAL", "1h")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("GOVERNANCE_ADMIN", "council")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Journal.Backend != models.JournalNone {
		t.Errorf("Backend = %q", cfg.Journal.Backend)
	}
	if cfg.Scheduler.RewardInterval != time.Hour {
		t.Errorf("RewardInterval = %s, want 1h", cfg.Scheduler.RewardInterval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics to be enabled")
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want the default 25 for an unparseable value", cfg.Database.MaxOpenConns)
	}
	if cfg.GovernanceAdmin != "council" {
		t.Errorf("GovernanceAdmin = %q, want council", cfg.GovernanceAdmin)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"JOURNAL_BACKEND", "postgres"},
		{"SCHEDULER_POLLING_INTERVAL", "soon"},
		{"GIT_VERIFY_TIMEOUT", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
