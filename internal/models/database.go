package models

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// UC amounts are stored with 8 decimal places.
const ucExponent = -8

// Operation outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// OperationRecord is one journaled operation, applied or rejected
type OperationRecord struct {
	Seq       uint64    `db:"seq"`
	Kind      string    `db:"kind"`
	Payload   string    `db:"payload"`
	Outcome   string    `db:"outcome"`
	Error     string    `db:"error"`
	Result    string    `db:"result"`
	AppliedAt time.Time `db:"applied_at"`
}

// AccountBalance represents current balance state (hot data)
type AccountBalance struct {
	Id             string          `db:"id"`
	Account        string          `db:"account"`
	Balance        decimal.Decimal `db:"balance"`
	LastPostingRef string          `db:"last_posting_ref"`
	Version        int64           `db:"version"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Posting is one side of a ledger transaction (cold data). Amount is signed: negative
// for the source account, positive for the destination.
type Posting struct {
	Id            string          `db:"id"`
	Ref           string          `db:"posting_ref"`
	Seq           uint64          `db:"seq"`
	OperationSeq  uint64          `db:"operation_seq"`
	Kind          string          `db:"kind"`
	Account       string          `db:"account"`
	Counterparty  string          `db:"counterparty"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
}

// UnitsToUC converts smallest units to a UC decimal.
func UnitsToUC(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), ucExponent)
}

// UCToUnits converts a UC decimal to smallest units. It fails on negative values, on
// more than 8 decimal places and on values that do not fit in 64 bits.
func UCToUnits(amount decimal.Decimal) (uint64, bool) {
	if amount.IsNegative() {
		return 0, false
	}
	scaled := amount.Shift(-ucExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, false
	}
	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, false
	}
	return units.Uint64(), true
}
