package ledger

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"ammpool/internal/model"
)

var (
	ErrNotRegistered       = errors.New("account not registered")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Ledger is a single-asset balance book owned by the pool. For external
// assets it mirrors the pool-relevant slice of the asset's own ledger;
// for the LP token it is the authoritative book. Accounts must be
// registered before they can hold a balance.
type Ledger struct {
	mu          sync.RWMutex
	balances    map[model.AccountID]*uint256.Int
	totalSupply *uint256.Int
}

func New() *Ledger {
	return &Ledger{
		balances:    make(map[model.AccountID]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// Register creates a zero-balance entry for the account. Idempotent.
func (l *Ledger) Register(account model.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[account]; !ok {
		l.balances[account] = uint256.NewInt(0)
	}
}

// Registered reports whether the account holds an entry.
func (l *Ledger) Registered(account model.AccountID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.balances[account]
	return ok
}

// BalanceOf returns a copy of the account's balance, zero if unregistered.
func (l *Ledger) BalanceOf(account model.AccountID) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.balances[account]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(balance)
}

// TotalSupply returns a copy of the sum of all balances.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.totalSupply)
}

// Deposit credits the account and grows total supply.
func (l *Ledger) Deposit(account model.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deposit(account, amount)
}

// Withdraw debits the account and shrinks total supply.
func (l *Ledger) Withdraw(account model.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.withdraw(account, amount)
}

// Transfer is an atomic debit of from and credit of to: either both happen
// or neither does.
func (l *Ledger) Transfer(from, to model.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[to]; !ok {
		return ErrNotRegistered
	}
	if err := l.withdraw(from, amount); err != nil {
		return err
	}
	if err := l.deposit(to, amount); err != nil {
		// roll back the debit
		l.balances[from].Add(l.balances[from], amount)
		l.totalSupply.Add(l.totalSupply, amount)
		return err
	}
	return nil
}

func (l *Ledger) deposit(account model.AccountID, amount *uint256.Int) error {
	balance, ok := l.balances[account]
	if !ok {
		return ErrNotRegistered
	}
	next := new(uint256.Int)
	if _, overflow := next.AddOverflow(balance, amount); overflow {
		return ErrBalanceOverflow
	}
	supply := new(uint256.Int)
	if _, overflow := supply.AddOverflow(l.totalSupply, amount); overflow {
		return ErrBalanceOverflow
	}
	l.balances[account] = next
	l.totalSupply = supply
	return nil
}

func (l *Ledger) withdraw(account model.AccountID, amount *uint256.Int) error {
	balance, ok := l.balances[account]
	if !ok {
		return ErrNotRegistered
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[account] = new(uint256.Int).Sub(balance, amount)
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	return nil
}
