/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ucic-governance-go/internal/models"
)

func Load() (*models.Config, error) {
	pollingInterval, err := getEnvDuration("SCHEDULER_POLLING_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	rewardInterval, err := getEnvDuration("REWARD_INTERVAL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	gitTimeout, err := getEnvDuration("GIT_VERIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	gitRetryDelay, err := getEnvDuration("GIT_VERIFY_RETRY_DELAY", 400*time.Millisecond)
	if err != nil {
		return nil, err
	}

	backend := getEnvString("JOURNAL_BACKEND", models.JournalSQLite)
	switch backend {
	case models.JournalSQLite, models.JournalFormance, models.JournalNone:
	default:
		return nil, fmt.Errorf("invalid JOURNAL_BACKEND %q (want %s, %s or %s)",
			backend, models.JournalSQLite, models.JournalFormance, models.JournalNone)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ucic.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Journal: models.JournalConfig{
			Backend: backend,
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "ucic-governance"),
		},
		Git: models.GitConfig{
			APIURL:     getEnvString("GIT_API_URL", "https://api.github.com"),
			Token:      getEnvString("GIT_API_TOKEN", ""),
			Timeout:    gitTimeout,
			Attempts:   getEnvInt("GIT_VERIFY_ATTEMPTS", 3),
			RetryDelay: gitRetryDelay,
		},
		Scheduler: models.SchedulerConfig{
			PollingInterval: pollingInterval,
			RewardInterval:  rewardInterval,
		},
		Metrics: models.MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", false),
			Addr:    getEnvString("METRICS_ADDR", ":9102"),
		},
		GovernanceFile:  getEnvString("GOVERNANCE_FILE", "governance.yaml"),
		GovernanceAdmin: getEnvString("GOVERNANCE_ADMIN", ""),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
