package ledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"ammpool/internal/model"
)

const (
	alice = model.AccountID("alice")
	bob   = model.AccountID("bob")
)

func TestDepositAndBalance(t *testing.T) {
	l := New()
	l.Register(alice)

	if err := l.Deposit(alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := l.BalanceOf(alice); got.Uint64() != 100 {
		t.Fatalf("balance mismatch: %s != 100", got)
	}
	if got := l.TotalSupply(); got.Uint64() != 100 {
		t.Fatalf("total supply mismatch: %s != 100", got)
	}
}

func TestDepositUnregistered(t *testing.T) {
	l := New()
	if err := l.Deposit(alice, uint256.NewInt(1)); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}
}

func TestWithdrawInsufficient(t *testing.T) {
	l := New()
	l.Register(alice)
	if err := l.Deposit(alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := l.Withdraw(alice, uint256.NewInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := l.BalanceOf(alice); got.Uint64() != 10 {
		t.Fatalf("balance changed on failed withdraw: %s", got)
	}
}

func TestTransfer(t *testing.T) {
	l := New()
	l.Register(alice)
	l.Register(bob)
	if err := l.Deposit(alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := l.Transfer(alice, bob, uint256.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.BalanceOf(alice); got.Uint64() != 60 {
		t.Fatalf("sender balance mismatch: %s != 60", got)
	}
	if got := l.BalanceOf(bob); got.Uint64() != 40 {
		t.Fatalf("receiver balance mismatch: %s != 40", got)
	}
	if got := l.TotalSupply(); got.Uint64() != 100 {
		t.Fatalf("total supply changed on transfer: %s", got)
	}
}

func TestTransferFailureLeavesBalances(t *testing.T) {
	l := New()
	l.Register(alice)
	l.Register(bob)
	if err := l.Deposit(alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := l.Transfer(alice, bob, uint256.NewInt(20)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := l.BalanceOf(alice); got.Uint64() != 10 {
		t.Fatalf("sender balance changed: %s", got)
	}
	if got := l.BalanceOf(bob); !got.IsZero() {
		t.Fatalf("receiver balance changed: %s", got)
	}
}

func TestTransferUnregisteredReceiver(t *testing.T) {
	l := New()
	l.Register(alice)
	if err := l.Deposit(alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := l.Transfer(alice, bob, uint256.NewInt(5)); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}
	if got := l.BalanceOf(alice); got.Uint64() != 10 {
		t.Fatalf("sender balance changed: %s", got)
	}
}

func TestBalanceCopyIsolated(t *testing.T) {
	l := New()
	l.Register(alice)
	if err := l.Deposit(alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	got := l.BalanceOf(alice)
	got.SetUint64(999)
	if fresh := l.BalanceOf(alice); fresh.Uint64() != 10 {
		t.Fatalf("ledger balance aliased by caller copy: %s", fresh)
	}
}
