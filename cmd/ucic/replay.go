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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/common"
	"ucic-governance-go/internal/database"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
	"ucic-governance-go/internal/oracle"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type replayStats struct {
	applied  int
	rejected int
}

func replayCommand() *cobra.Command {
	var scriptFile string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operation script on a manual clock and report the final state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayRun(cmd.Context(), scriptFile)
		},
	}
	cmd.Flags().StringVar(&scriptFile, "script", "", "path to the YAML operation script")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func replayRun(ctx context.Context, scriptFile string) error {
	script, err := common.LoadScript(scriptFile)
	if err != nil {
		return err
	}

	start := script.Start
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	clk := clock.NewManual(start)

	services, err := common.InitializeServices(ctx, cfg, clk, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	common.PrintHeader(fmt.Sprintf("REPLAY %s (%d operations)", scriptFile, len(script.Operations)), common.WideWidth)
	stats := applyScript(ctx, services.Node, clk, script.Operations)

	integrity := "OK"
	if err := services.Node.VerifyIntegrity(); err != nil {
		integrity = err.Error()
	}
	if journal, ok := services.Journal.(*database.Service); ok {
		if err := journal.VerifyJournal(ctx); err != nil {
			integrity += "; journal: " + err.Error()
		}
	}

	var supply, treasury uint64
	services.Node.View(func(l *ledger.Ledger, _ *governance.Registry, _ *oracle.Oracle) {
		supply = l.TotalSupply()
		treasury = l.TreasuryBalance()
	})

	summary := fmt.Sprintf("SUMMARY: %d applied, %d rejected, supply %s, treasury %s, integrity %s",
		stats.applied, stats.rejected, common.FormatUC(supply), common.FormatUC(treasury), integrity)
	common.PrintFooter(summary, common.WideWidth)

	zap.L().Info("Replay completed",
		zap.String("script", scriptFile),
		zap.Int("applied", stats.applied),
		zap.Int("rejected", stats.rejected))
	if integrity != "OK" {
		return errors.New("integrity check failed")
	}
	return nil
}

// applyScript applies operations one at a time so each can move the clock first. A
// rejected operation is reported and the replay continues. clk may be nil, in which
// case advances are ignored.
func applyScript(ctx context.Context, n *node.Node, clk *clock.Manual, ops []models.Operation) replayStats {
	var stats replayStats
	for i, op := range ops {
		if op.Advance > 0 {
			if clk == nil {
				zap.L().Warn("Ignoring clock advance on the system clock",
					zap.Int("index", i),
					zap.Duration("advance", op.Advance))
			} else {
				clk.Advance(op.Advance)
			}
		}

		receipt, err := n.Apply(ctx, op)
		isLast := i == len(ops)-1
		if err != nil {
			stats.rejected++
			fmt.Printf("%s%-5s %-22s %s✗ %s%s\n", common.BoxPrefix(isLast), "-", op.Kind, colorRed, err, colorReset)
			continue
		}
		stats.applied++
		fmt.Printf("%s%s\n", common.BoxPrefix(isLast), common.FormatReceipt(receipt))
	}
	return stats
}

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
)
