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
	"database/sql"

	"ucic-governance-go/internal/store"
)

// Sentinel errors for database operations
var (
	ErrDuplicateTransaction   = store.ErrDuplicateTransaction
	ErrConcurrentModification = store.ErrConcurrentModification
)

// SubledgerService handles posting and balance bookkeeping
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

// InitSchema creates the balance, posting and journal tables. Amounts are stored as
// decimal text so that SUM() never goes through floating point.
func (s *SubledgerService) InitSchema() error {
	schema := `
	-- Account Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS account_balances (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL UNIQUE,
		balance TEXT NOT NULL DEFAULT '0',
		last_posting_ref TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Postings Table (Audit Trail - Cold Data), one row per side of a ledger transaction
	CREATE TABLE IF NOT EXISTS postings (
		id TEXT PRIMARY KEY,
		posting_ref TEXT NOT NULL,
		seq INTEGER NOT NULL,
		operation_seq INTEGER NOT NULL DEFAULT 0,
		kind TEXT NOT NULL,
		account TEXT NOT NULL,
		counterparty TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(posting_ref, account)
	);

	CREATE INDEX IF NOT EXISTS idx_postings_ref ON postings(posting_ref);
	CREATE INDEX IF NOT EXISTS idx_postings_account ON postings(account);
	CREATE INDEX IF NOT EXISTS idx_postings_seq ON postings(seq);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		posting_ref TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_posting_ref ON journal_entries(posting_ref);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
