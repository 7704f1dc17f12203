package ledger

import "fmt"

// Approve sets the treasury's allowance for spender to amount. Zero revokes it.
func (l *Ledger) Approve(spender string, amount uint64) (Transaction, error) {
	if err := validateCounterparty(spender); err != nil {
		return Transaction{}, err
	}
	l.allowances[allowanceKey{owner: TreasuryAddress, spender: spender}] = amount
	return l.record(TxApprove, TreasuryAddress, spender, amount), nil
}

func (l *Ledger) IncreaseAllowance(spender string, delta uint64) (Transaction, error) {
	if err := validateCounterparty(spender); err != nil {
		return Transaction{}, err
	}
	if delta == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	key := allowanceKey{owner: TreasuryAddress, spender: spender}
	current := l.allowances[key]
	if current+delta < current {
		return Transaction{}, fmt.Errorf("%w: allowance overflow", ErrInvalidAmount)
	}
	l.allowances[key] = current + delta
	return l.record(TxIncreaseAllowance, TreasuryAddress, spender, delta), nil
}

func (l *Ledger) DecreaseAllowance(spender string, delta uint64) (Transaction, error) {
	if err := validateCounterparty(spender); err != nil {
		return Transaction{}, err
	}
	if delta == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	key := allowanceKey{owner: TreasuryAddress, spender: spender}
	current := l.allowances[key]
	if delta > current {
		return Transaction{}, fmt.Errorf("%w: allowance is %d, cannot decrease by %d", ErrInsufficientAllowance, current, delta)
	}
	l.allowances[key] = current - delta
	return l.record(TxDecreaseAllowance, TreasuryAddress, spender, delta), nil
}

func (l *Ledger) Allowance(owner, spender string) uint64 {
	return l.allowances[allowanceKey{owner: owner, spender: spender}]
}
