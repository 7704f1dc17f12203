package ledger

import "time"

type TxKind string

const (
	TxGenesis           TxKind = "genesis"
	TxTransfer          TxKind = "transfer"
	TxTransferFrom      TxKind = "transfer_from"
	TxMint              TxKind = "mint"
	TxBurn              TxKind = "burn"
	TxReward            TxKind = "reward"
	TxApprove           TxKind = "approve"
	TxIncreaseAllowance TxKind = "increase_allowance"
	TxDecreaseAllowance TxKind = "decrease_allowance"
)

// MovesValue reports whether a transaction of this kind changes balances. Allowance
// changes are recorded in account histories but carry no posting.
func (k TxKind) MovesValue() bool {
	switch k {
	case TxApprove, TxIncreaseAllowance, TxDecreaseAllowance:
		return false
	default:
		return true
	}
}

// Transaction is an entry in the ledger's append-only log. Ref is derived from the
// sequence number and contents, so replaying the same operations yields the same refs.
type Transaction struct {
	Ref       string
	Seq       uint64
	Kind      TxKind
	From      string
	To        string
	Amount    uint64
	Timestamp time.Time
}

// TransactionsSince returns the log entries after the first cursor entries, and the new
// cursor.
func (l *Ledger) TransactionsSince(cursor int) ([]Transaction, int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(l.txs) {
		return nil, len(l.txs)
	}
	out := make([]Transaction, len(l.txs)-cursor)
	copy(out, l.txs[cursor:])
	return out, len(l.txs)
}

func (l *Ledger) TransactionCount() int {
	return len(l.txs)
}

// Transaction looks up a log entry by ref.
func (l *Ledger) Transaction(ref string) (Transaction, bool) {
	idx, ok := l.refs[ref]
	if !ok {
		return Transaction{}, false
	}
	return l.txs[idx], true
}

// History returns the transactions touching address, oldest first.
func (l *Ledger) History(address string) []Transaction {
	acct, ok := l.accounts[address]
	if !ok {
		return nil
	}
	out := make([]Transaction, 0, len(acct.Transactions))
	for _, ref := range acct.Transactions {
		out = append(out, l.txs[l.refs[ref]])
	}
	return out
}
