package moonbirds

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/events"
	"birdswap/core/state"
	"birdswap/native/collateral"
	nativecommon "birdswap/native/common"
	"birdswap/storage"
)

var (
	deployer = common.HexToAddress("0x0000000000000000000000000000000000000d01")
	minterA  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	minterB  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	market   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	royalty  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

type recordingReceiver struct {
	calls []uint64
	err   error
}

func (r *recordingReceiver) OnERC721Received(sender, operator, from common.Address, tokenID uint64, data []byte) error {
	r.calls = append(r.calls, tokenID)
	return r.err
}

func newEngine(t *testing.T) (*Engine, *capturingEmitter) {
	t.Helper()
	e := NewEngine(common.HexToAddress("0x0000000000000000000000000000000000000f01"))
	e.SetState(state.NewManager(storage.NewMemDB()))
	emitter := &capturingEmitter{}
	e.SetEmitter(emitter)
	now := int64(1_000)
	e.SetNowFunc(func() int64 { return now })
	if err := e.Initialize(deployer, royalty, 500); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return e, emitter
}

func mint(t *testing.T, e *Engine, to common.Address, n uint64) []uint64 {
	t.Helper()
	ids, err := e.MintUnclaimed(deployer, to, n)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return ids
}

func TestMintAssignsSequentialIDs(t *testing.T) {
	e, emitter := newEngine(t)
	ids := mint(t, e, minterA, 3)
	if len(ids) != 3 || ids[0] != 0 || ids[2] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	more := mint(t, e, minterB, 1)
	if more[0] != 3 {
		t.Fatalf("expected next id 3, got %d", more[0])
	}
	owner, err := e.OwnerOf(3)
	if err != nil || owner != minterB {
		t.Fatalf("unexpected owner %s err %v", owner.Hex(), err)
	}
	if len(emitter.events) != 4 {
		t.Fatalf("expected 4 mint transfers, got %d", len(emitter.events))
	}
	if _, err := e.MintUnclaimed(minterA, minterA, 1); !errors.Is(err, errNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	if _, err := e.OwnerOf(99); !errors.Is(err, collateral.ErrNonexistentToken) {
		t.Fatalf("expected nonexistent token, got %v", err)
	}
	if err := e.Initialize(deployer, royalty, 1); !errors.Is(err, errAlreadyInit) {
		t.Fatalf("expected one-shot init, got %v", err)
	}
}

func TestNestedTokensOnlyMoveWhileNesting(t *testing.T) {
	e, _ := newEngine(t)
	id := mint(t, e, minterA, 1)[0]
	if err := e.ToggleNesting(minterA, []uint64{id}); err != nil {
		t.Fatalf("toggle nesting: %v", err)
	}
	nested, err := e.IsNested(id)
	if err != nil || !nested {
		t.Fatalf("expected nested token, got %v err %v", nested, err)
	}
	if err := e.TransferFrom(minterA, minterA, minterB, id); !errors.Is(err, errNesting) {
		t.Fatalf("expected nesting block, got %v", err)
	}
	if err := e.SafeTransferWhileNesting(minterB, minterA, minterB, id); !errors.Is(err, errOnlyOwner) {
		t.Fatalf("expected only-owner error, got %v", err)
	}
	if err := e.SafeTransferWhileNesting(minterA, minterA, minterB, id); err != nil {
		t.Fatalf("safe transfer while nesting: %v", err)
	}
	owner, _ := e.OwnerOf(id)
	if owner != minterB {
		t.Fatalf("expected minterB to own token, got %s", owner.Hex())
	}
	if nested, _ := e.IsNested(id); !nested {
		t.Fatalf("nesting must survive the transfer")
	}
	if err := e.ToggleNesting(minterA, []uint64{id}); !errors.Is(err, errNotApproved) {
		t.Fatalf("expected non-owner toggle rejection, got %v", err)
	}
}

func TestNestingPeriodAccumulates(t *testing.T) {
	e, _ := newEngine(t)
	clock := int64(100)
	e.SetNowFunc(func() int64 { return clock })
	id := mint(t, e, minterA, 1)[0]
	if err := e.ToggleNesting(minterA, []uint64{id}); err != nil {
		t.Fatalf("nest: %v", err)
	}
	clock = 160
	nesting, current, total, err := e.NestingPeriod(id)
	if err != nil || !nesting || current != 60 || total != 60 {
		t.Fatalf("unexpected period nesting=%v current=%d total=%d err=%v", nesting, current, total, err)
	}
	if err := e.ToggleNesting(minterA, []uint64{id}); err != nil {
		t.Fatalf("unnest: %v", err)
	}
	clock = 500
	nesting, current, total, _ = e.NestingPeriod(id)
	if nesting || current != 0 || total != 60 {
		t.Fatalf("unexpected period after unnest nesting=%v current=%d total=%d", nesting, current, total)
	}
}

func TestReceiverHookFailureRevertsTransfer(t *testing.T) {
	e, emitter := newEngine(t)
	id := mint(t, e, minterA, 1)[0]
	receiver := &recordingReceiver{err: errors.New("rejected")}
	e.RegisterReceiver(market, receiver)

	if err := e.SafeTransferWhileNesting(minterA, minterA, market, id); err == nil {
		t.Fatalf("expected hook failure to propagate")
	}
	owner, _ := e.OwnerOf(id)
	if owner != minterA {
		t.Fatalf("failed hook must leave token with owner, got %s", owner.Hex())
	}
	if n := countTransfers(emitter); n != 0 {
		t.Fatalf("rejected transfer must not emit, got %d transfer events", n)
	}

	receiver.err = nil
	if err := e.SafeTransferWhileNesting(minterA, minterA, market, id); err != nil {
		t.Fatalf("safe transfer: %v", err)
	}
	if len(receiver.calls) != 2 {
		t.Fatalf("expected hook invoked twice, got %d", len(receiver.calls))
	}
	owner, _ = e.OwnerOf(id)
	if owner != market {
		t.Fatalf("expected market custody, got %s", owner.Hex())
	}
	if n := countTransfers(emitter); n != 1 {
		t.Fatalf("expected one transfer event, got %d", n)
	}
}

// countTransfers counts owner-to-owner transfers, skipping mints.
func countTransfers(c *capturingEmitter) int {
	n := 0
	for _, evt := range c.events {
		if tr, ok := evt.(events.MoonbirdTransfer); ok && tr.From != (common.Address{}) {
			n++
		}
	}
	return n
}

func TestApprovedTransferAndRoyalty(t *testing.T) {
	e, _ := newEngine(t)
	id := mint(t, e, minterA, 1)[0]
	if err := e.TransferFrom(minterB, minterA, minterB, id); !errors.Is(err, errNotApproved) {
		t.Fatalf("expected approval error, got %v", err)
	}
	if err := e.Approve(minterA, minterB, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := e.TransferFrom(minterB, minterA, minterB, id); err != nil {
		t.Fatalf("approved transfer: %v", err)
	}
	if err := e.TransferFrom(minterB, minterB, common.Address{}, id); !errors.Is(err, errTransferToZero) {
		t.Fatalf("expected zero-recipient rejection, got %v", err)
	}

	receiver, amount, err := e.RoyaltyInfo(id, big.NewInt(10_000))
	if err != nil {
		t.Fatalf("royalty info: %v", err)
	}
	if receiver != royalty || amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected royalty %s %s", receiver.Hex(), amount)
	}
	if err := e.SetDefaultRoyalty(minterA, royalty, 100); !errors.Is(err, errNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	if err := e.SetDefaultRoyalty(deployer, common.Address{}, 0); err != nil {
		t.Fatalf("set royalty: %v", err)
	}
	receiver, amount, _ = e.RoyaltyInfo(id, big.NewInt(10_000))
	if receiver != (common.Address{}) || amount.Sign() != 0 {
		t.Fatalf("expected cleared royalty, got %s %s", receiver.Hex(), amount)
	}
}

func TestPausedCollectionRejectsChanges(t *testing.T) {
	e, _ := newEngine(t)
	ids := mint(t, e, minterA, 1)
	e.SetPauses(nativecommon.StaticPauses{"moonbirds": true})
	err := e.TransferFrom(minterA, minterA, minterB, ids[0])
	if !errors.Is(err, errPaused) || !Reverted(err) {
		t.Fatalf("expected paused revert, got %v", err)
	}
	if owner, _ := e.OwnerOf(ids[0]); owner != minterA {
		t.Fatalf("paused transfer moved the token to %s", owner.Hex())
	}
	e.SetPauses(nil)
	if err := e.TransferFrom(minterA, minterA, minterB, ids[0]); err != nil {
		t.Fatalf("transfer after unpause: %v", err)
	}
	if Reverted(errors.New("disk full")) {
		t.Fatalf("foreign errors are not reverts")
	}
}
