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

	"ucic-governance-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountInfo represents a journal balance for command-line utilities
type AccountInfo struct {
	Account string
	Balance decimal.Decimal
	Version int64
}

// InitializeAccounts retrieves journal balances based on an optional account filter.
// If accountFilter is provided, returns a single account, reconciled against its
// postings. If accountFilter is empty, returns all accounts.
func InitializeAccounts(ctx context.Context, journal store.JournalStore, accountFilter string, logger *zap.Logger) ([]AccountInfo, error) {
	var accounts []AccountInfo

	if accountFilter != "" {
		logger.Info("Looking up account", zap.String("account", accountFilter))
		balance, err := journal.GetAccountBalance(ctx, accountFilter)
		if err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		if err := journal.ReconcileAccount(ctx, accountFilter); err != nil {
			return nil, fmt.Errorf("account %s does not reconcile: %w", accountFilter, err)
		}
		accounts = append(accounts, AccountInfo{
			Account: accountFilter,
			Balance: balance,
		})
	} else {
		all, err := journal.GetAccountBalances(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get balances: %w", err)
		}
		for _, b := range all {
			accounts = append(accounts, AccountInfo{
				Account: b.Account,
				Balance: b.Balance,
				Version: b.Version,
			})
		}
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
