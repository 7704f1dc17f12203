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

	"ucic-governance-go/internal/common"
	"ucic-governance-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func balancesCommand() *cobra.Command {
	var accountFilter string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the balances recorded in the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return balancesRun(cmd.Context(), accountFilter)
		},
	}
	cmd.Flags().StringVar(&accountFilter, "account", "", "filter by a single account (optional)")
	return cmd
}

func printAccount(account common.AccountInfo, isLast bool) {
	fmt.Printf("%s %-32s: %24s UC (v%d)\n",
		common.BoxPrefix(isLast),
		account.Account,
		account.Balance.String(),
		account.Version)
}

func balancesRun(ctx context.Context, accountFilter string) error {
	logger := zap.L()
	logger.Info("Starting balance query", zap.String("journal", cfg.Journal.Backend))

	// Read-only: no node, just the journal
	journal, err := common.InitializeJournalOnly(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}
	if journal == nil {
		return errors.New("balances need a journal backend, got " + models.JournalNone)
	}
	defer journal.Close()

	accounts, err := common.InitializeAccounts(ctx, journal, accountFilter, logger)
	if err != nil {
		return err
	}

	common.PrintHeader("JOURNAL BALANCE REPORT", common.DefaultWidth)
	for i, account := range accounts {
		printAccount(account, i == len(accounts)-1)
	}

	summary := fmt.Sprintf("SUMMARY: %d accounts", len(accounts))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed", zap.Int("accounts", len(accounts)))
	return nil
}
