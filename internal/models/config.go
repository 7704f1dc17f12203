package models

import "time"

// Journal backends
const (
	JournalSQLite   = "sqlite"
	JournalFormance = "formance"
	JournalNone     = "none"
)

// Config represents the application configuration
type Config struct {
	Database        DatabaseConfig
	Journal         JournalConfig
	Formance        FormanceConfig
	Git             GitConfig
	Scheduler       SchedulerConfig
	Metrics         MetricsConfig
	GovernanceFile  string
	// GovernanceAdmin, when set, overrides the admin caller from the governance file.
	GovernanceAdmin string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// JournalConfig selects where applied operations and postings are recorded
type JournalConfig struct {
	Backend string
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// GitConfig holds settings for the commit verification client
type GitConfig struct {
	APIURL     string
	Token      string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// SchedulerConfig holds the governance tick settings
type SchedulerConfig struct {
	PollingInterval time.Duration
	RewardInterval  time.Duration
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Addr    string
}
