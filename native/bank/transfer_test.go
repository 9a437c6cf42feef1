package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/state"
	"birdswap/storage"
)

var (
	weth  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	shop  = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(state.NewManager(storage.NewMemDB()))
}

func mustBalance(t *testing.T, l *Ledger, asset, owner common.Address) *big.Int {
	t.Helper()
	bal, err := l.Balance(asset, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func TestTransferMovesBalances(t *testing.T) {
	l := newLedger(t)
	if err := l.Credit(NativeAsset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Transfer(NativeAsset, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := mustBalance(t, l, NativeAsset, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected alice balance %s", got)
	}
	if got := mustBalance(t, l, NativeAsset, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("unexpected bob balance %s", got)
	}
	if err := l.Transfer(NativeAsset, bob, alice, big.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := l.Transfer(NativeAsset, bob, alice, big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative amount rejection")
	}
	if err := l.Transfer(NativeAsset, bob, bob, big.NewInt(40)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if got := mustBalance(t, l, NativeAsset, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("self transfer changed balance: %s", got)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l := newLedger(t)
	if err := l.Credit(weth, alice, big.NewInt(10)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.TransferFrom(weth, shop, alice, shop, big.NewInt(5)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance error, got %v", err)
	}
	if err := l.Approve(weth, alice, shop, big.NewInt(7)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.TransferFrom(weth, shop, alice, shop, big.NewInt(5)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	remaining, err := l.Allowance(weth, alice, shop)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if remaining.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("unexpected remaining allowance %s", remaining)
	}
	if got := mustBalance(t, l, weth, shop); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected shop balance %s", got)
	}
	if err := l.Approve(NativeAsset, alice, shop, big.NewInt(1)); err == nil {
		t.Fatalf("expected native approve rejection")
	}
}

func TestTransferFromRevertsAllowanceWhenBalanceShort(t *testing.T) {
	l := newLedger(t)
	if err := l.Approve(weth, alice, shop, big.NewInt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.TransferFrom(weth, shop, alice, shop, big.NewInt(20)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected balance error, got %v", err)
	}
	allowance, err := l.Allowance(weth, alice, shop)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("allowance must be restored, got %s", allowance)
	}
}
