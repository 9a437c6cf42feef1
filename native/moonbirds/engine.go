// Package moonbirds is the state-backed NFT collection the marketplace
// escrows. Tokens can be "nested" in place; nested tokens only move through
// SafeTransferWhileNesting.
package moonbirds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/events"
	"birdswap/native/collateral"
	nativecommon "birdswap/native/common"
)

// ModuleName identifies the collection in pause configuration.
const ModuleName = "moonbirds"

// MaxRoyaltyBps caps the default ERC-2981 style royalty.
const MaxRoyaltyBps = 10_000

var (
	errNotOwner          = errors.New("Ownable: caller is not the owner")
	errAlreadyInit       = errors.New("Initializable: contract is already initialized")
	errNotInitialized    = errors.New("moonbirds: not initialized")
	errNesting           = errors.New("Moonbirds: nesting")
	errOnlyOwner         = errors.New("Moonbirds: Only owner")
	errTransferNotOwner  = errors.New("ERC721: transfer from incorrect owner")
	errNotApproved       = errors.New("ERC721: caller is not token owner or approved")
	errTransferToZero    = errors.New("ERC721: transfer to the zero address")
	errRoyaltyTooHigh    = errors.New("ERC2981: royalty fee will exceed salePrice")
	errMintZeroRecipient = errors.New("ERC721: mint to the zero address")
	errPaused            = errors.New("moonbirds: module paused")
)

var reverts = []error{
	errNotOwner, errAlreadyInit, errNesting, errOnlyOwner, errTransferNotOwner,
	errNotApproved, errTransferToZero, errRoyaltyTooHigh, errMintZeroRecipient,
	errPaused, collateral.ErrNonexistentToken,
}

// Reverted reports whether err is one of the collection's revert reasons, as
// opposed to a storage failure.
func Reverted(err error) bool {
	for _, target := range reverts {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	Snapshot() int
	RevertToSnapshot(int)
}

type collectionConfig struct {
	Owner           common.Address
	RoyaltyReceiver common.Address
	RoyaltyBps      uint16
	NextTokenID     uint64
	Initialized     bool
}

type tokenRecord struct {
	Owner          common.Address
	Approved       common.Address
	Nested         bool
	NestingStarted uint64
	NestingTotal   uint64
}

// Engine implements collateral.Collateral on top of the shared state.
type Engine struct {
	address   common.Address
	state     engineState
	emitter   events.Emitter
	nowFn     func() int64
	pauses    nativecommon.PauseView
	mu        sync.RWMutex
	receivers map[common.Address]collateral.Receiver
}

var _ collateral.Collateral = (*Engine)(nil)

// NewEngine returns a collection deployed at address.
func NewEngine(address common.Address) *Engine {
	return &Engine{
		address:   address,
		emitter:   events.NoopEmitter{},
		receivers: make(map[common.Address]collateral.Receiver),
	}
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock used for nesting periods.
func (e *Engine) SetNowFunc(now func() int64) { e.nowFn = now }

// SetPauses installs the pause view consulted before every state change.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// RegisterReceiver installs the transfer hook for a contract account.
func (e *Engine) RegisterReceiver(addr common.Address, r collateral.Receiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r == nil {
		delete(e.receivers, addr)
		return
	}
	e.receivers[addr] = r
}

// Address returns the collection's contract address.
func (e *Engine) Address() common.Address { return e.address }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

var configKey = []byte("moonbirds/config")

func tokenKey(id uint64) []byte {
	key := make([]byte, len("moonbirds/token/")+8)
	copy(key, "moonbirds/token/")
	binary.BigEndian.PutUint64(key[len("moonbirds/token/"):], id)
	return key
}

func (e *Engine) loadConfig() (*collectionConfig, error) {
	if e.state == nil {
		return nil, fmt.Errorf("moonbirds: state not configured")
	}
	var cfg collectionConfig
	ok, err := e.state.KVGet(configKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok || !cfg.Initialized {
		return nil, errNotInitialized
	}
	return &cfg, nil
}

func (e *Engine) loadToken(id uint64) (*tokenRecord, error) {
	if e.state == nil {
		return nil, fmt.Errorf("moonbirds: state not configured")
	}
	var rec tokenRecord
	ok, err := e.state.KVGet(tokenKey(id), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", collateral.ErrNonexistentToken, id)
	}
	return &rec, nil
}

func (e *Engine) atomic(fn func() error) error {
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return errPaused
	}
	snap := e.state.Snapshot()
	if err := fn(); err != nil {
		e.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// Initialize records the collection owner and default royalty.
func (e *Engine) Initialize(owner, royaltyReceiver common.Address, royaltyBps uint16) error {
	if e.state == nil {
		return fmt.Errorf("moonbirds: state not configured")
	}
	if royaltyBps > MaxRoyaltyBps {
		return errRoyaltyTooHigh
	}
	var existing collectionConfig
	ok, err := e.state.KVGet(configKey, &existing)
	if err != nil {
		return err
	}
	if ok && existing.Initialized {
		return errAlreadyInit
	}
	return e.state.KVPut(configKey, &collectionConfig{
		Owner:           owner,
		RoyaltyReceiver: royaltyReceiver,
		RoyaltyBps:      royaltyBps,
		Initialized:     true,
	})
}

// Owner returns the collection admin.
func (e *Engine) Owner() (common.Address, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return common.Address{}, err
	}
	return cfg.Owner, nil
}

// MintUnclaimed mints count sequential tokens to the recipient.
func (e *Engine) MintUnclaimed(caller, to common.Address, count uint64) ([]uint64, error) {
	var minted []uint64
	err := e.atomic(func() error {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		if caller != cfg.Owner {
			return errNotOwner
		}
		if to == (common.Address{}) {
			return errMintZeroRecipient
		}
		for i := uint64(0); i < count; i++ {
			id := cfg.NextTokenID
			if err := e.state.KVPut(tokenKey(id), &tokenRecord{Owner: to}); err != nil {
				return err
			}
			minted = append(minted, id)
			cfg.NextTokenID++
		}
		return e.state.KVPut(configKey, cfg)
	})
	if err != nil {
		return nil, err
	}
	for _, id := range minted {
		e.emitter.Emit(events.MoonbirdTransfer{To: to, TokenID: id})
	}
	return minted, nil
}

// TotalMinted returns the number of tokens minted so far.
func (e *Engine) TotalMinted() (uint64, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.NextTokenID, nil
}

// OwnerOf returns the current holder of the token.
func (e *Engine) OwnerOf(tokenID uint64) (common.Address, error) {
	rec, err := e.loadToken(tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return rec.Owner, nil
}

// IsNested reports whether the token is currently nested.
func (e *Engine) IsNested(tokenID uint64) (bool, error) {
	rec, err := e.loadToken(tokenID)
	if err != nil {
		return false, err
	}
	return rec.Nested, nil
}

// NestingPeriod reports the nesting flag, the current streak in seconds and
// the accumulated total including the current streak.
func (e *Engine) NestingPeriod(tokenID uint64) (bool, uint64, uint64, error) {
	rec, err := e.loadToken(tokenID)
	if err != nil {
		return false, 0, 0, err
	}
	if !rec.Nested {
		return false, 0, rec.NestingTotal, nil
	}
	current := uint64(0)
	if now := e.now(); now > int64(rec.NestingStarted) {
		current = uint64(now) - rec.NestingStarted
	}
	return true, current, rec.NestingTotal + current, nil
}

// ToggleNesting flips the nesting state of every listed token. The caller must
// own each of them.
func (e *Engine) ToggleNesting(caller common.Address, tokenIDs []uint64) error {
	var emitted []events.MoonbirdNesting
	err := e.atomic(func() error {
		now := e.now()
		for _, id := range tokenIDs {
			rec, err := e.loadToken(id)
			if err != nil {
				return err
			}
			if rec.Owner != caller {
				return errNotApproved
			}
			if rec.Nested {
				if now > int64(rec.NestingStarted) {
					rec.NestingTotal += uint64(now) - rec.NestingStarted
				}
				rec.Nested = false
				rec.NestingStarted = 0
			} else {
				rec.Nested = true
				rec.NestingStarted = uint64(now)
			}
			if err := e.state.KVPut(tokenKey(id), rec); err != nil {
				return err
			}
			emitted = append(emitted, events.MoonbirdNesting{Owner: caller, TokenID: id, Nested: rec.Nested, At: now})
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, evt := range emitted {
		e.emitter.Emit(evt)
	}
	return nil
}

// Approve grants a single address the right to transfer the token.
func (e *Engine) Approve(caller, to common.Address, tokenID uint64) error {
	return e.atomic(func() error {
		rec, err := e.loadToken(tokenID)
		if err != nil {
			return err
		}
		if rec.Owner != caller {
			return errNotApproved
		}
		rec.Approved = to
		return e.state.KVPut(tokenKey(tokenID), rec)
	})
}

// TransferFrom is the plain ERC-721 transfer. Nested tokens cannot move this
// way and receiver hooks are not invoked.
func (e *Engine) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	var transfer events.MoonbirdTransfer
	err := e.atomic(func() error {
		rec, err := e.loadToken(tokenID)
		if err != nil {
			return err
		}
		if rec.Nested {
			return errNesting
		}
		if caller != rec.Owner && caller != rec.Approved {
			return errNotApproved
		}
		transfer, err = e.move(rec, from, to, tokenID)
		return err
	})
	if err != nil {
		return err
	}
	e.emitter.Emit(transfer)
	return nil
}

// SafeTransferWhileNesting moves a token, nested or not, and runs the
// receiver hook when the destination is a registered contract. Only the
// current owner may call it.
func (e *Engine) SafeTransferWhileNesting(operator, from, to common.Address, tokenID uint64) error {
	var transfer events.MoonbirdTransfer
	err := e.atomic(func() error {
		rec, err := e.loadToken(tokenID)
		if err != nil {
			return err
		}
		if rec.Owner != operator {
			return errOnlyOwner
		}
		transfer, err = e.move(rec, from, to, tokenID)
		if err != nil {
			return err
		}
		e.mu.RLock()
		receiver, ok := e.receivers[to]
		e.mu.RUnlock()
		if !ok {
			return nil
		}
		return receiver.OnERC721Received(e.address, operator, from, tokenID, nil)
	})
	if err != nil {
		return err
	}
	e.emitter.Emit(transfer)
	return nil
}

// move rewrites ownership and returns the transfer event for the caller to
// emit once the surrounding call commits.
func (e *Engine) move(rec *tokenRecord, from, to common.Address, tokenID uint64) (events.MoonbirdTransfer, error) {
	if rec.Owner != from {
		return events.MoonbirdTransfer{}, errTransferNotOwner
	}
	if to == (common.Address{}) {
		return events.MoonbirdTransfer{}, errTransferToZero
	}
	rec.Owner = to
	rec.Approved = common.Address{}
	if err := e.state.KVPut(tokenKey(tokenID), rec); err != nil {
		return events.MoonbirdTransfer{}, err
	}
	return events.MoonbirdTransfer{From: from, To: to, TokenID: tokenID, Nested: rec.Nested}, nil
}

// SetDefaultRoyalty updates the collection-wide royalty.
func (e *Engine) SetDefaultRoyalty(caller, receiver common.Address, bps uint16) error {
	if bps > MaxRoyaltyBps {
		return errRoyaltyTooHigh
	}
	err := e.atomic(func() error {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		if caller != cfg.Owner {
			return errNotOwner
		}
		cfg.RoyaltyReceiver = receiver
		cfg.RoyaltyBps = bps
		return e.state.KVPut(configKey, cfg)
	})
	if err != nil {
		return err
	}
	e.emitter.Emit(events.MoonbirdRoyaltyUpdated{Receiver: receiver, Bps: uint32(bps)})
	return nil
}

// RoyaltyInfo returns the default royalty receiver and the amount the
// collection's own rate yields on salePrice.
func (e *Engine) RoyaltyInfo(tokenID uint64, salePrice *big.Int) (common.Address, *big.Int, error) {
	if _, err := e.loadToken(tokenID); err != nil {
		return common.Address{}, nil, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return common.Address{}, nil, err
	}
	amount := new(big.Int)
	if salePrice != nil {
		amount.Mul(salePrice, big.NewInt(int64(cfg.RoyaltyBps)))
		amount.Quo(amount, big.NewInt(10_000))
	}
	return cfg.RoyaltyReceiver, amount, nil
}
