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

const (
	// Operation queries
	queryCheckDuplicateOperation = `
		SELECT seq FROM operations WHERE seq = ? LIMIT 1`

	queryInsertOperation = `
		INSERT INTO operations (seq, kind, payload, outcome, error, result, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryLastOperationSeq = `
		SELECT COALESCE(MAX(seq), 0) FROM operations`

	queryGetOperations = `
		SELECT seq, kind, payload, outcome, error, result, applied_at
		FROM operations
		ORDER BY seq
		LIMIT ? OFFSET ?`

	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE account = ?`

	queryGetAllBalances = `
		SELECT id, account, balance, last_posting_ref, version, updated_at
		FROM account_balances
		ORDER BY account`

	queryReconcileBalance = `
		SELECT amount
		FROM postings
		WHERE account = ?`

	// Posting queries
	queryCheckDuplicatePosting = `
		SELECT id FROM postings WHERE posting_ref = ? LIMIT 1`

	queryGetAccountBalance = `
		SELECT id, balance, version
		FROM account_balances
		WHERE account = ?`

	queryInsertAccountBalance = `
		INSERT INTO account_balances (id, account, balance, version)
		VALUES (?, ?, ?, ?)`

	queryInsertPosting = `
		INSERT INTO postings (
			id, posting_ref, seq, operation_seq, kind, account, counterparty,
			amount, balance_before, balance_after, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateAccountBalance = `
		UPDATE account_balances
		SET balance = ?, last_posting_ref = ?, version = version + 1, updated_at = ?
		WHERE account = ? AND version = ?`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, posting_ref, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetPostingHistory = `
		SELECT id, posting_ref, seq, operation_seq, kind, account, counterparty,
		       amount, balance_before, balance_after, created_at
		FROM postings
		WHERE account = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`

	queryGetJournalTotals = `
		SELECT debit_amount, credit_amount
		FROM journal_entries`
)
