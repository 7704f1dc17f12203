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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/database"
	"ucic-governance-go/internal/formance"
	"ucic-governance-go/internal/gitverify"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
	"ucic-governance-go/internal/oracle"
	"ucic-governance-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Journal    store.JournalStore
	Node       *node.Node
	Governance *GovernanceConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured journal, builds the node and applies the
// bootstrap founders and verifiers from the governance file. clk may be nil for the
// system clock; promRegistry may be nil for a private registry.
func InitializeServices(ctx context.Context, cfg *models.Config, clk clock.Clock, promRegistry prometheus.Registerer) (*Services, error) {
	govCfg, err := LoadGovernanceParams(cfg.GovernanceFile)
	if err != nil {
		return nil, err
	}
	if cfg.GovernanceAdmin != "" {
		govCfg.Admin = cfg.GovernanceAdmin
	}
	params, err := govCfg.Params()
	if err != nil {
		return nil, err
	}
	supply, err := govCfg.Supply()
	if err != nil {
		return nil, err
	}

	journal, err := InitializeJournalOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var git oracle.GitVerifier
	if cfg.Git.APIURL != "" {
		client, err := gitverify.NewClient(cfg.Git)
		if err != nil {
			closeJournal(journal)
			return nil, err
		}
		git = client
	}

	n, err := node.New(ctx, node.Config{
		InitialSupply: supply,
		Governance:    params,
		Oracle:        govCfg.OracleParams(),
		Clock:         clk,
		Journal:       journal,
		Git:           git,
		PromRegistry:  promRegistry,
		Admin:         govCfg.Admin,
	})
	if err != nil {
		closeJournal(journal)
		return nil, err
	}

	if err := bootstrap(ctx, n, govCfg); err != nil {
		closeJournal(journal)
		return nil, err
	}

	return &Services{
		Journal:    journal,
		Node:       n,
		Governance: govCfg,
	}, nil
}

// bootstrap registers the configured founders and verifiers through the node so the
// journal sees them like any other operation.
func bootstrap(ctx context.Context, n *node.Node, govCfg *GovernanceConfig) error {
	var ops []models.Operation
	for _, addr := range govCfg.Founders {
		ops = append(ops,
			models.Operation{Kind: models.OpRegisterContributor, Account: addr},
			models.Operation{Kind: models.OpAssignFounder, Caller: n.Admin(), Account: addr})
	}
	for _, addr := range govCfg.Verifiers {
		ops = append(ops, models.Operation{Kind: models.OpRegisterVerifier, Caller: n.Admin(), Account: addr})
	}
	if len(ops) == 0 {
		return nil
	}

	receipts, err := n.ApplyBatch(ctx, ops)
	if err != nil {
		return fmt.Errorf("unable to bootstrap governance: %w", err)
	}
	zap.L().Info("Governance bootstrapped",
		zap.Int("founders", len(govCfg.Founders)),
		zap.Int("verifiers", len(govCfg.Verifiers)),
		zap.Int("operations", len(receipts)))
	return nil
}

// InitializeJournalOnly opens just the configured journal backend. It returns nil for
// the "none" backend. Useful for read-only operations like querying balances.
func InitializeJournalOnly(ctx context.Context, cfg *models.Config) (store.JournalStore, error) {
	switch cfg.Journal.Backend {
	case models.JournalSQLite:
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return dbService, nil
	case models.JournalFormance:
		formanceService, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			return nil, err
		}
		return formanceService, nil
	case models.JournalNone, "":
		zap.L().Warn("Journal disabled, operations will not be persisted")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}

func (cs *Services) Close() {
	closeJournal(cs.Journal)
}

func closeJournal(journal store.JournalStore) {
	if journal != nil {
		journal.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
