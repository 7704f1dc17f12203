// Package ledger implements UC token accounting: balances, allowances, mint/burn and
// treasury-funded transfers. The sum of all balances always equals total supply.
//
// A Ledger is not safe for concurrent use; the node package serializes access.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"ucic-governance-go/internal/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	Symbol                  = "UC"
	Decimals                = 8
	UnitsPerToken    uint64 = 100_000_000
	MaxAddressLength        = 64

	TreasuryAddress = "__TREASURY__"
	// MintAddress and BurnAddress are the synthetic source and sink of supply changes.
	// They appear in transaction histories but never hold a balance.
	MintAddress = "__MINT__"
	BurnAddress = "__BURN__"
)

var (
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrTreasuryExhausted is the reward precondition failure: the payout exceeds what
	// the treasury holds.
	ErrTreasuryExhausted = fmt.Errorf("%w: reward exceeds treasury balance", ErrInsufficientFunds)
)

var refNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ucic:ledger:transactions"))

// ToUnits converts whole UC tokens to smallest units.
func ToUnits(tokens uint64) uint64 {
	return tokens * UnitsPerToken
}

type Account struct {
	Address      string
	Balance      uint64
	Nonce        uint64
	CreatedAt    time.Time
	Transactions []string
}

type allowanceKey struct {
	owner   string
	spender string
}

type Ledger struct {
	clock       clock.Clock
	accounts    map[string]*Account
	allowances  map[allowanceKey]uint64
	totalSupply uint64
	txs         []Transaction
	refs        map[string]int
}

// New creates a ledger whose treasury holds initialSupply units, recorded as a genesis
// mint.
func New(initialSupply uint64, clk clock.Clock) *Ledger {
	l := &Ledger{
		clock:      clk,
		accounts:   make(map[string]*Account),
		allowances: make(map[allowanceKey]uint64),
		refs:       make(map[string]int),
	}

	l.account(MintAddress)
	treasury := l.account(TreasuryAddress)
	treasury.Balance = initialSupply
	l.totalSupply = initialSupply
	l.record(TxGenesis, MintAddress, TreasuryAddress, initialSupply)

	zap.L().Info("Ledger initialized",
		zap.String("symbol", Symbol),
		zap.Uint64("initial_supply", initialSupply))
	return l
}

// account returns the account for address, creating it if needed.
func (l *Ledger) account(address string) *Account {
	if acct, ok := l.accounts[address]; ok {
		return acct
	}
	acct := &Account{Address: address, CreatedAt: l.clock.Now()}
	l.accounts[address] = acct
	return acct
}

func (l *Ledger) balance(address string) uint64 {
	if acct, ok := l.accounts[address]; ok {
		return acct.Balance
	}
	return 0
}

// IsReserved reports whether address is one of the ledger's own accounts.
func IsReserved(address string) bool {
	switch address {
	case TreasuryAddress, MintAddress, BurnAddress:
		return true
	}
	return false
}

func validateAddress(address string) error {
	if address == "" || len(address) > MaxAddressLength {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if address == MintAddress || address == BurnAddress {
		return fmt.Errorf("%w: %s is reserved", ErrInvalidAddress, address)
	}
	return nil
}

// validateCounterparty rejects the treasury as well as the reserved sentinels.
func validateCounterparty(address string) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	if address == TreasuryAddress {
		return fmt.Errorf("%w: %s cannot be a counterparty", ErrInvalidAddress, address)
	}
	return nil
}

func (l *Ledger) record(kind TxKind, from, to string, amount uint64) Transaction {
	seq := uint64(len(l.txs)) + 1
	ref := uuid.NewSHA1(refNamespace, []byte(fmt.Sprintf("%d:%s:%s:%s:%d", seq, kind, from, to, amount))).String()

	tx := Transaction{
		Ref:       ref,
		Seq:       seq,
		Kind:      kind,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: l.clock.Now(),
	}
	l.txs = append(l.txs, tx)
	l.refs[ref] = len(l.txs) - 1

	src := l.account(from)
	src.Transactions = append(src.Transactions, ref)
	if to != from {
		dst := l.account(to)
		dst.Transactions = append(dst.Transactions, ref)
	}
	return tx
}

// move debits from and credits to; callers have already checked the balance.
func (l *Ledger) move(kind TxKind, from, to string, amount uint64) Transaction {
	src := l.account(from)
	src.Balance -= amount
	src.Nonce++
	dst := l.account(to)
	dst.Balance += amount
	return l.record(kind, from, to, amount)
}

// RegisterAccount creates an empty account. It reports false when the account
// already existed.
func (l *Ledger) RegisterAccount(address string) (bool, error) {
	if err := validateAddress(address); err != nil {
		return false, err
	}
	if _, ok := l.accounts[address]; ok {
		return false, nil
	}
	l.account(address)
	return true, nil
}

func (l *Ledger) AccountExists(address string) bool {
	_, ok := l.accounts[address]
	return ok
}

// Transfer pays amount from the treasury to recipient.
func (l *Ledger) Transfer(recipient string, amount uint64) (Transaction, error) {
	if err := validateCounterparty(recipient); err != nil {
		return Transaction{}, err
	}
	if amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if available := l.balance(TreasuryAddress); available < amount {
		return Transaction{}, fmt.Errorf("%w: treasury holds %d, need %d", ErrInsufficientFunds, available, amount)
	}

	tx := l.move(TxTransfer, TreasuryAddress, recipient, amount)
	zap.L().Debug("Treasury transfer",
		zap.String("recipient", recipient),
		zap.Uint64("amount", amount),
		zap.String("ref", tx.Ref))
	return tx, nil
}

// DistributeReward is a treasury payout reserved for the governance reward cycle.
func (l *Ledger) DistributeReward(recipient string, amount uint64) (Transaction, error) {
	if err := validateCounterparty(recipient); err != nil {
		return Transaction{}, err
	}
	if amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if amount > l.balance(TreasuryAddress) {
		return Transaction{}, ErrTreasuryExhausted
	}

	tx := l.move(TxReward, TreasuryAddress, recipient, amount)
	zap.L().Info("Reward distributed",
		zap.String("recipient", recipient),
		zap.Uint64("amount", amount),
		zap.String("ref", tx.Ref))
	return tx, nil
}

// TransferFrom moves amount from owner to recipient against the allowance owner granted
// to recipient.
func (l *Ledger) TransferFrom(owner, recipient string, amount uint64) (Transaction, error) {
	if err := validateAddress(owner); err != nil {
		return Transaction{}, err
	}
	if err := validateCounterparty(recipient); err != nil {
		return Transaction{}, err
	}
	if amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}

	key := allowanceKey{owner: owner, spender: recipient}
	if allowed := l.allowances[key]; allowed < amount {
		return Transaction{}, fmt.Errorf("%w: allowed %d, need %d", ErrInsufficientAllowance, allowed, amount)
	}
	if available := l.balance(owner); available < amount {
		return Transaction{}, fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientFunds, owner, available, amount)
	}

	l.allowances[key] -= amount
	return l.move(TxTransferFrom, owner, recipient, amount), nil
}

func (l *Ledger) Mint(account string, amount uint64) (Transaction, error) {
	if err := validateAddress(account); err != nil {
		return Transaction{}, err
	}
	if amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if l.totalSupply+amount < l.totalSupply {
		return Transaction{}, fmt.Errorf("%w: supply overflow", ErrInvalidAmount)
	}

	l.account(account).Balance += amount
	l.totalSupply += amount
	tx := l.record(TxMint, MintAddress, account, amount)

	zap.L().Info("Tokens minted",
		zap.String("account", account),
		zap.Uint64("amount", amount),
		zap.Uint64("total_supply", l.totalSupply))
	return tx, nil
}

func (l *Ledger) Burn(account string, amount uint64) (Transaction, error) {
	if err := validateAddress(account); err != nil {
		return Transaction{}, err
	}
	if amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if available := l.balance(account); available < amount {
		return Transaction{}, fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientFunds, account, available, amount)
	}

	acct := l.account(account)
	acct.Balance -= amount
	acct.Nonce++
	l.totalSupply -= amount
	tx := l.record(TxBurn, account, BurnAddress, amount)

	zap.L().Info("Tokens burned",
		zap.String("account", account),
		zap.Uint64("amount", amount),
		zap.Uint64("total_supply", l.totalSupply))
	return tx, nil
}

func (l *Ledger) BalanceOf(address string) uint64 {
	return l.balance(address)
}

func (l *Ledger) TotalSupply() uint64 {
	return l.totalSupply
}

func (l *Ledger) TreasuryBalance() uint64 {
	return l.balance(TreasuryAddress)
}

// Account returns a copy of the account state.
func (l *Ledger) Account(address string) (Account, bool) {
	acct, ok := l.accounts[address]
	if !ok {
		return Account{}, false
	}
	return copyAccount(acct), true
}

// Accounts returns copies of every account, ordered by address.
func (l *Ledger) Accounts() []Account {
	out := make([]Account, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, copyAccount(acct))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func copyAccount(acct *Account) Account {
	c := *acct
	c.Transactions = append([]string(nil), acct.Transactions...)
	return c
}

// VerifyIntegrity reports whether the balances sum to total supply.
func (l *Ledger) VerifyIntegrity() bool {
	return l.Reconcile() == nil
}

// Reconcile is VerifyIntegrity with the discrepancy spelled out.
func (l *Ledger) Reconcile() error {
	var sum uint64
	for _, acct := range l.accounts {
		next := sum + acct.Balance
		if next < sum {
			return fmt.Errorf("balance sum overflows at account %s", acct.Address)
		}
		sum = next
	}
	if sum != l.totalSupply {
		return fmt.Errorf("balance sum %d does not match total supply %d", sum, l.totalSupply)
	}
	return nil
}
