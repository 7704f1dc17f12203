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


package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// leg is one side of a posting: the account it touches and the signed change.
type leg struct {
	account      string
	counterparty string
	delta        decimal.Decimal
}

// ProcessPosting atomically applies both sides of a ledger transaction, records a
// posting row per side and adds the matching journal entries.
func (s *SubledgerService) ProcessPosting(ctx context.Context, params store.PostingParams) ([]models.Posting, error) {
	if params.Ref == "" {
		return nil, fmt.Errorf("posting reference cannot be empty")
	}
	if params.Amount == 0 {
		return nil, fmt.Errorf("posting %s has zero amount", params.Ref)
	}
	if params.Source == params.Destination {
		return nil, fmt.Errorf("posting %s has identical source and destination %s", params.Ref, params.Source)
	}

	amount := models.UnitsToUC(params.Amount)
	zap.L().Debug("Processing posting",
		zap.String("ref", params.Ref),
		zap.String("kind", params.Kind),
		zap.String("source", params.Source),
		zap.String("destination", params.Destination),
		zap.String("amount", amount.String()))

	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicatePosting, params.Ref).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: posting %s already recorded", ErrDuplicateTransaction, params.Ref)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate posting: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	legs := []leg{
		{account: params.Source, counterparty: params.Destination, delta: amount.Neg()},
		{account: params.Destination, counterparty: params.Source, delta: amount},
	}

	postings := make([]models.Posting, 0, len(legs))
	for _, l := range legs {
		posting, err := s.applyLeg(ctx, tx, params, l)
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	if err := s.addJournalEntries(ctx, tx, params.Ref, params.Source, params.Destination, amount); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Posting recorded",
		zap.String("ref", params.Ref),
		zap.String("kind", params.Kind),
		zap.String("source", params.Source),
		zap.String("destination", params.Destination),
		zap.String("amount", amount.String()))

	return postings, nil
}

// applyLeg updates one account balance under its version lock and inserts the
// matching posting row.
func (s *SubledgerService) applyLeg(ctx context.Context, tx *sql.Tx, params store.PostingParams, l leg) (models.Posting, error) {
	var currentBalanceStr string
	var accountId string
	var version int64

	err := tx.QueryRowContext(ctx, queryGetAccountBalance, l.account).Scan(&accountId, &currentBalanceStr, &version)

	var currentBalance decimal.Decimal
	if errors.Is(err, sql.ErrNoRows) {
		accountId = uuid.New().String()
		currentBalance = decimal.Zero
		version = 1

		if _, err := tx.ExecContext(ctx, queryInsertAccountBalance, accountId, l.account, "0", 1); err != nil {
			return models.Posting{}, fmt.Errorf("failed to create account balance: %w", err)
		}
	} else if err != nil {
		return models.Posting{}, fmt.Errorf("failed to get current balance: %w", err)
	} else {
		currentBalance, err = decimal.NewFromString(currentBalanceStr)
		if err != nil {
			return models.Posting{}, fmt.Errorf("failed to parse current balance '%s': %w", currentBalanceStr, err)
		}
	}

	newBalance := currentBalance.Add(l.delta)
	createdAt := params.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	posting := models.Posting{
		Id:            uuid.New().String(),
		Ref:           params.Ref,
		Seq:           params.Seq,
		OperationSeq:  params.OperationSeq,
		Kind:          params.Kind,
		Account:       l.account,
		Counterparty:  l.counterparty,
		Amount:        l.delta,
		BalanceBefore: currentBalance,
		BalanceAfter:  newBalance,
		CreatedAt:     createdAt,
	}

	_, err = tx.ExecContext(ctx, queryInsertPosting,
		posting.Id, posting.Ref, posting.Seq, posting.OperationSeq, posting.Kind,
		posting.Account, posting.Counterparty,
		posting.Amount.String(), posting.BalanceBefore.String(), posting.BalanceAfter.String(),
		posting.CreatedAt)
	if err != nil {
		return models.Posting{}, fmt.Errorf("failed to insert posting: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccountBalance,
		newBalance.String(), params.Ref, createdAt, l.account, version)
	if err != nil {
		return models.Posting{}, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Posting{}, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.Posting{}, fmt.Errorf("balance update for %s failed - %w", l.account, ErrConcurrentModification)
	}

	return posting, nil
}

// accountType classifies an account for the double-entry journal.
func accountType(account string) string {
	switch account {
	case ledger.TreasuryAddress:
		return "treasury"
	case ledger.MintAddress:
		return "issuance"
	case ledger.BurnAddress:
		return "retirement"
	default:
		return "holder"
	}
}

// addJournalEntries debits the receiving account and credits the paying one.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, ref, source, destination string, amount decimal.Decimal) error {
	journalEntries := []struct {
		accountId    string
		debitAmount  decimal.Decimal
		creditAmount decimal.Decimal
	}{
		{destination, amount, decimal.Zero},
		{source, decimal.Zero, amount},
	}

	for _, entry := range journalEntries {
		entryId := uuid.New().String()
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			entryId, ref, accountType(entry.accountId), entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String())
		if err != nil {
			return err
		}
	}

	return nil
}

// GetPostingHistory returns paginated postings for an account, newest first
func (s *SubledgerService) GetPostingHistory(ctx context.Context, account string, limit, offset int) ([]models.Posting, error) {
	zap.L().Debug("Getting posting history",
		zap.String("account", account),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetPostingHistory, account, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get posting history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var postings []models.Posting
	for rows.Next() {
		var p models.Posting
		var amountStr, balanceBeforeStr, balanceAfterStr string
		err := rows.Scan(&p.Id, &p.Ref, &p.Seq, &p.OperationSeq, &p.Kind, &p.Account, &p.Counterparty,
			&amountStr, &balanceBeforeStr, &balanceAfterStr, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}

		p.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}

		p.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance before '%s': %w", balanceBeforeStr, err)
		}

		p.BalanceAfter, err = decimal.NewFromString(balanceAfterStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance after '%s': %w", balanceAfterStr, err)
		}

		postings = append(postings, p)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during posting row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating posting rows: %w", err)
	}

	return postings, nil
}

// JournalTotals returns the sum of all debits and all credits. They are equal for a
// consistent journal.
func (s *SubledgerService) JournalTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, queryGetJournalTotals)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read journal entries: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	debits, credits := decimal.Zero, decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		debit, err := decimal.NewFromString(debitStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse debit '%s': %w", debitStr, err)
		}
		credit, err := decimal.NewFromString(creditStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse credit '%s': %w", creditStr, err)
		}
		debits = debits.Add(debit)
		credits = credits.Add(credit)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return debits, credits, nil
}
