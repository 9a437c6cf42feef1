// Package birdswap implements the escrow marketplace: asks, custody of
// deposited tokens, atomic settlement and the owner-controlled admin surface.
package birdswap

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/events"
	"birdswap/core/types"
	"birdswap/native/collateral"
	nativecommon "birdswap/native/common"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	Snapshot() int
	RevertToSnapshot(int)
	StateVersion() (uint32, bool, error)
	SetStateVersion(version uint32) error
}

type ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	TransferFrom(asset, spender, from, to common.Address, amount *big.Int) error
}

type birdswapEvent struct {
	evt *types.Event
}

func (e birdswapEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e birdswapEvent) Event() *types.Event { return e.evt }

// Engine wires the marketplace business logic to the shared state, the
// collateral collection and the value ledger.
type Engine struct {
	address       common.Address
	state         engineState
	collateral    collateral.Collateral
	bank          ledger
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	nowFn         func() int64
	requireNested bool
}

var _ collateral.Receiver = (*Engine)(nil)

// NewEngine returns a marketplace deployed at address.
func NewEngine(address common.Address) *Engine {
	return &Engine{address: address, emitter: events.NoopEmitter{}}
}

// Address returns the marketplace account that holds custody and payments.
func (e *Engine) Address() common.Address { return e.address }

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCollateral configures the collection the marketplace escrows.
func (e *Engine) SetCollateral(c collateral.Collateral) { e.collateral = c }

// SetLedger configures the value ledger used for payments.
func (e *Engine) SetLedger(l ledger) { e.bank = l }

// SetEmitter configures the event emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetPauses configures the pause view consulted before mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the clock used for timestamps.
func (e *Engine) SetNowFunc(now func() int64) { e.nowFn = now }

// SetRequireNestedDeposit rejects deposits of tokens that are not nested.
func (e *Engine) SetRequireNestedDeposit(required bool) { e.requireNested = required }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(birdswapEvent{evt: evt})
}

func (e *Engine) ready() error {
	if e.state == nil {
		return fmt.Errorf("birdswap engine: state not configured")
	}
	if e.collateral == nil {
		return fmt.Errorf("birdswap engine: collateral not configured")
	}
	if e.bank == nil {
		return fmt.Errorf("birdswap engine: ledger not configured")
	}
	return nil
}

// mutate is atomic behind the module pause. Admin calls skip the pause.
func (e *Engine) mutate(fn func() error) error {
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		if errors.Is(err, nativecommon.ErrModulePaused) {
			return ErrPaused
		}
		return err
	}
	return e.atomic(fn)
}

// atomic runs fn inside a state snapshot, reverting every write when fn
// fails.
func (e *Engine) atomic(fn func() error) error {
	if err := e.ready(); err != nil {
		return err
	}
	snap := e.state.Snapshot()
	if err := fn(); err != nil {
		e.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// schemaVersion returns the stored schema version, 0 before Initialize.
func (e *Engine) schemaVersion() (uint32, error) {
	version, ok, err := e.state.StateVersion()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return version, nil
}
