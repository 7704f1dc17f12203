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

	"ucic-governance-go/internal/models"

	"go.uber.org/zap"
)

// RecordOperation journals one operation. Sequence numbers are unique; writing the same
// sequence twice reports ErrDuplicateTransaction so replays stay idempotent.
func (s *Service) RecordOperation(ctx context.Context, record models.OperationRecord) error {
	var existing uint64
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateOperation, record.Seq).Scan(&existing)
	if err == nil {
		return fmt.Errorf("%w: operation %d already recorded", ErrDuplicateTransaction, record.Seq)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate operation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertOperation,
		record.Seq, record.Kind, record.Payload, record.Outcome, record.Error, record.Result, record.AppliedAt)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	zap.L().Debug("Operation recorded",
		zap.Uint64("seq", record.Seq),
		zap.String("kind", record.Kind),
		zap.String("outcome", record.Outcome))
	return nil
}

// LastOperationSeq returns the highest journaled sequence, 0 for an empty journal.
func (s *Service) LastOperationSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := s.db.QueryRowContext(ctx, queryLastOperationSeq).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read last operation seq: %w", err)
	}
	return seq, nil
}

// GetOperations returns journaled operations in sequence order
func (s *Service) GetOperations(ctx context.Context, limit, offset int) ([]models.OperationRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetOperations, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get operations: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var records []models.OperationRecord
	for rows.Next() {
		var r models.OperationRecord
		if err := rows.Scan(&r.Seq, &r.Kind, &r.Payload, &r.Outcome, &r.Error, &r.Result, &r.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during operation row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}

	return records, nil
}

// VerifyJournal checks that total debits equal total credits and that every account
// reconciles against its postings.
func (s *Service) VerifyJournal(ctx context.Context) error {
	debits, credits, err := s.subledger.JournalTotals(ctx)
	if err != nil {
		return err
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("journal out of balance: debits=%s, credits=%s", debits.String(), credits.String())
	}

	balances, err := s.subledger.GetAllBalances(ctx)
	if err != nil {
		return err
	}
	for _, b := range balances {
		if err := s.subledger.ReconcileBalance(ctx, b.Account); err != nil {
			return fmt.Errorf("account %s: %w", b.Account, err)
		}
	}
	return nil
}
