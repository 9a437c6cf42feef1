package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/events"
)

// NativeAsset is the asset key for the chain's native coin.
var NativeAsset = common.Address{}

var (
	ErrInsufficientBalance   = errors.New("bank: insufficient balance")
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
	ErrInvalidAmount         = errors.New("bank: amount must not be negative")
	ErrNativeApproval        = errors.New("bank: native asset does not support allowances")
)

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Snapshot() int
	RevertToSnapshot(int)
}

// Ledger tracks fungible balances per (asset, account) and ERC20-style
// allowances for non-native assets.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
}

// NewLedger returns a ledger bound to the shared state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

func balanceKey(asset, owner common.Address) []byte {
	key := make([]byte, 0, len("bank/balance/")+2*common.AddressLength)
	key = append(key, "bank/balance/"...)
	key = append(key, asset.Bytes()...)
	return append(key, owner.Bytes()...)
}

func allowanceKey(asset, owner, spender common.Address) []byte {
	key := make([]byte, 0, len("bank/allowance/")+3*common.AddressLength)
	key = append(key, "bank/allowance/"...)
	key = append(key, asset.Bytes()...)
	key = append(key, owner.Bytes()...)
	return append(key, spender.Bytes()...)
}

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	var amount big.Int
	ok, err := l.state.KVGet(key, &amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return &amount, nil
}

// Balance returns the holder's balance of asset.
func (l *Ledger) Balance(asset, owner common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: state unavailable")
	}
	return l.loadAmount(balanceKey(asset, owner))
}

// Allowance returns how much spender may pull from owner.
func (l *Ledger) Allowance(asset, owner, spender common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: state unavailable")
	}
	return l.loadAmount(allowanceKey(asset, owner, spender))
}

// Credit mints amount of asset to the account.
func (l *Ledger) Credit(asset, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	current, err := l.Balance(asset, to)
	if err != nil {
		return err
	}
	if err := l.state.KVPut(balanceKey(asset, to), new(big.Int).Add(current, amount)); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{Asset: asset, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// Transfer moves amount of asset between accounts. Zero-value transfers are
// no-ops.
func (l *Ledger) Transfer(asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBal, err := l.Balance(asset, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBal, amount)
	}
	snap := l.state.Snapshot()
	if err := l.move(asset, from, to, fromBal, amount); err != nil {
		l.state.RevertToSnapshot(snap)
		return err
	}
	l.emitter.Emit(events.Transfer{Asset: asset, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

func (l *Ledger) move(asset, from, to common.Address, fromBal, amount *big.Int) error {
	if err := l.state.KVPut(balanceKey(asset, from), new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := l.Balance(asset, to)
	if err != nil {
		return err
	}
	return l.state.KVPut(balanceKey(asset, to), new(big.Int).Add(toBal, amount))
}

// Approve sets the allowance spender may pull from owner.
func (l *Ledger) Approve(asset, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if asset == NativeAsset {
		return ErrNativeApproval
	}
	if err := l.state.KVPut(allowanceKey(asset, owner, spender), new(big.Int).Set(amount)); err != nil {
		return err
	}
	l.emitter.Emit(events.Approval{Asset: asset, Owner: owner, Spender: spender, Amount: new(big.Int).Set(amount)})
	return nil
}

// TransferFrom moves amount from owner to to on behalf of spender, consuming
// the allowance.
func (l *Ledger) TransferFrom(asset, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	allowance, err := l.Allowance(asset, from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientAllowance, allowance, amount)
	}
	snap := l.state.Snapshot()
	if err := l.state.KVPut(allowanceKey(asset, from, spender), new(big.Int).Sub(allowance, amount)); err != nil {
		l.state.RevertToSnapshot(snap)
		return err
	}
	if err := l.Transfer(asset, from, to, amount); err != nil {
		l.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}
