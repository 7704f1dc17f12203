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

package store

import (
	"context"
	"errors"
	"time"

	"ucic-governance-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by all backends. Callers use errors.Is() to check.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrAccountNotFound        = errors.New("account not found")
)

// PostingParams describes one value-moving ledger transaction to be journaled.
// Amount is in smallest UC units.
type PostingParams struct {
	Ref          string
	Seq          uint64
	OperationSeq uint64
	Kind         string
	Source       string
	Destination  string
	Amount       uint64
	Timestamp    time.Time
}

// JournalStore defines the contract that every journal backend (SQLite, Formance, ...)
// must satisfy.
type JournalStore interface {
	// --- Operations ---
	RecordOperation(ctx context.Context, record models.OperationRecord) error
	GetOperations(ctx context.Context, limit, offset int) ([]models.OperationRecord, error)
	// LastOperationSeq returns the highest recorded operation sequence, or 0.
	LastOperationSeq(ctx context.Context) (uint64, error)

	// --- Postings ---
	RecordPosting(ctx context.Context, params PostingParams) error
	GetPostings(ctx context.Context, account string, limit, offset int) ([]models.Posting, error)

	// --- Balances ---
	GetAccountBalance(ctx context.Context, account string) (decimal.Decimal, error)
	GetAccountBalances(ctx context.Context) ([]models.AccountBalance, error)
	ReconcileAccount(ctx context.Context, account string) error

	// --- Lifecycle ---
	Close()
}
