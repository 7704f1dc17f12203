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

package api

import (
	"fmt"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/oracle"

	"github.com/shopspring/decimal"
)

// GetBalance returns the UC balance of an address. Unknown addresses hold zero.
func (s *GovernanceService) GetBalance(address string) (decimal.Decimal, error) {
	if address == "" {
		return decimal.Zero, fmt.Errorf("address is required")
	}

	var units uint64
	s.node.View(func(l *ledger.Ledger, _ *governance.Registry, _ *oracle.Oracle) {
		units = l.BalanceOf(address)
	})
	return models.UnitsToUC(units), nil
}

// GetBalances returns every account with a non-zero balance, ordered by address
func (s *GovernanceService) GetBalances() []models.AccountView {
	var result []models.AccountView
	s.node.View(func(l *ledger.Ledger, _ *governance.Registry, _ *oracle.Oracle) {
		for _, acct := range l.Accounts() {
			if acct.Balance == 0 {
				continue
			}
			result = append(result, models.AccountView{
				Address: acct.Address,
				Balance: models.UnitsToUC(acct.Balance),
				Nonce:   acct.Nonce,
			})
		}
	})
	return result
}

// GetTransactionHistory returns paginated transaction history for an address, newest
// first
func (s *GovernanceService) GetTransactionHistory(address string, limit, offset int) ([]models.TransactionRecord, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var history []ledger.Transaction
	s.node.View(func(l *ledger.Ledger, _ *governance.Registry, _ *oracle.Oracle) {
		history = l.History(address)
	})

	result := make([]models.TransactionRecord, 0, limit)
	for i := len(history) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		tx := history[i]
		result = append(result, models.TransactionRecord{
			Ref:       tx.Ref,
			Seq:       tx.Seq,
			Type:      string(tx.Kind),
			From:      tx.From,
			To:        tx.To,
			Amount:    models.UnitsToUC(tx.Amount),
			Timestamp: tx.Timestamp,
		})
	}

	return result, nil
}
