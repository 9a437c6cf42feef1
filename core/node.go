package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"birdswap/core/events"
	corestate "birdswap/core/state"
	"birdswap/core/types"
	"birdswap/native/bank"
	"birdswap/native/birdswap"
	nativecommon "birdswap/native/common"
	"birdswap/native/moonbirds"
	"birdswap/observability"
	"birdswap/storage"
)

const defaultEventLogSize = 1024

// ErrNotAdmin is returned by operator-only node calls such as the faucet.
var ErrNotAdmin = errors.New("core: caller is not the marketplace owner")

// Options configure a node. Genesis values are only used the first time the
// node opens an empty database.
type Options struct {
	Owner                common.Address
	FeePayoutAddress     common.Address
	FeeBps               uint16
	AlternateCurrency    common.Address
	RoyaltyReceiver      common.Address
	RoyaltyBps           uint16
	RequireNestedDeposit bool

	// AllowMigrate upgrades older state to the newest schema at startup.
	// Without it an older schema keeps running until the owner calls
	// UpgradeTo.
	AllowMigrate bool

	Pauses      nativecommon.PauseView
	Logger      *slog.Logger
	Emitter     events.Emitter // receives every committed event
	MaxEventLog int
	Now         func() int64
}

// Addresses lists the contract accounts the node hosts.
type Addresses struct {
	Marketplace common.Address
	Moonbirds   common.Address
}

// Node is the central controller. It owns the state, wires the native
// modules together and executes every call atomically and one at a time.
type Node struct {
	mu        sync.Mutex
	db        storage.Database
	state     *corestate.Manager
	bank      *bank.Ledger
	moonbirds *moonbirds.Engine
	market    *birdswap.Engine
	buffer    *events.Buffer
	sink      events.Emitter
	eventLog  []*types.Event
	maxEvents int
	logger    *slog.Logger
	metrics   *observability.MarketplaceMetrics
	addrs     Addresses
}

// DeriveAddresses returns the deterministic contract accounts for a deployer,
// the way contract creation derives them from the deployer nonce.
func DeriveAddresses(owner common.Address) Addresses {
	return Addresses{
		Moonbirds:   ethcrypto.CreateAddress(owner, 0),
		Marketplace: ethcrypto.CreateAddress(owner, 1),
	}
}

// NewNode opens (or bootstraps) marketplace state on db.
func NewNode(db storage.Database, opts Options) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if opts.Owner == (common.Address{}) {
		return nil, fmt.Errorf("core: owner address required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Emitter
	if sink == nil {
		sink = events.NoopEmitter{}
	}
	maxEvents := opts.MaxEventLog
	if maxEvents <= 0 {
		maxEvents = defaultEventLogSize
	}

	addrs := DeriveAddresses(opts.Owner)
	manager := corestate.NewManager(db)
	buffer := &events.Buffer{}

	ledger := bank.NewLedger(manager)
	ledger.SetEmitter(buffer)

	nft := moonbirds.NewEngine(addrs.Moonbirds)
	nft.SetState(manager)
	nft.SetEmitter(buffer)
	nft.SetPauses(opts.Pauses)

	market := birdswap.NewEngine(addrs.Marketplace)
	market.SetState(manager)
	market.SetCollateral(nft)
	market.SetLedger(ledger)
	market.SetEmitter(buffer)
	market.SetPauses(opts.Pauses)
	market.SetRequireNestedDeposit(opts.RequireNestedDeposit)
	if opts.Now != nil {
		nft.SetNowFunc(opts.Now)
		market.SetNowFunc(opts.Now)
	}
	nft.RegisterReceiver(addrs.Marketplace, market)

	n := &Node{
		db:        db,
		state:     manager,
		bank:      ledger,
		moonbirds: nft,
		market:    market,
		buffer:    buffer,
		sink:      sink,
		maxEvents: maxEvents,
		logger:    logger.With("component", "node"),
		metrics:   observability.Marketplace(),
		addrs:     addrs,
	}
	if err := n.open(opts); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) open(opts Options) error {
	version, ok, err := n.state.StateVersion()
	if err != nil {
		return fmt.Errorf("core: read state version: %w", err)
	}
	if !ok {
		return n.execute("genesis", func() error {
			if err := n.moonbirds.Initialize(opts.Owner, opts.RoyaltyReceiver, opts.RoyaltyBps); err != nil {
				return fmt.Errorf("init moonbirds: %w", err)
			}
			if err := n.market.Initialize(birdswap.InitParams{
				Owner:                       opts.Owner,
				Collateral:                  n.addrs.Moonbirds,
				MarketplaceFeeBps:           opts.FeeBps,
				MarketplaceFeePayoutAddress: opts.FeePayoutAddress,
				AlternateCurrency:           opts.AlternateCurrency,
			}); err != nil {
				return fmt.Errorf("init birdswap: %w", err)
			}
			_, err := n.market.Migrate()
			return err
		})
	}
	if err := corestate.EnsureStateVersion(n.state, birdswap.SchemaVersion, true); err != nil {
		return err
	}
	if version == birdswap.SchemaVersion {
		return nil
	}
	if !opts.AllowMigrate {
		n.logger.Warn("state schema is older than this binary; run UpgradeTo or restart with AllowMigrate",
			slog.Int("version", int(version)),
			slog.Int("latest", int(birdswap.SchemaVersion)))
		return nil
	}
	return n.execute("migrate", func() error {
		from, err := n.market.Migrate()
		if err == nil {
			n.logger.Info("state migrated", slog.Int("from", int(from)), slog.Int("version", int(birdswap.SchemaVersion)))
		}
		return err
	})
}

// execute runs fn against a fresh snapshot. Success commits the write cache
// in one batch and publishes the buffered events; failure reverts both.
func (n *Node) execute(method string, fn func() error, attrs ...any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	snap := n.state.Snapshot()
	n.buffer.Reset()

	if err := fn(); err != nil {
		n.state.RevertToSnapshot(snap)
		n.state.Discard()
		n.buffer.Reset()
		n.metrics.ObserveCall(method, false, time.Since(start))
		n.logger.Warn("call reverted", append([]any{slog.String("method", method), slog.String("reason", birdswap.Reason(err))}, attrs...)...)
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Discard()
		n.buffer.Reset()
		n.metrics.ObserveCall(method, false, time.Since(start))
		n.logger.Error("commit failed", slog.String("method", method), slog.Any("error", err))
		return fmt.Errorf("core: commit %s: %w", method, err)
	}
	for _, evt := range n.buffer.Drain() {
		n.record(evt)
	}
	n.metrics.ObserveCall(method, true, time.Since(start))
	n.logger.Debug("call committed", append([]any{slog.String("method", method)}, attrs...)...)
	return nil
}

func (n *Node) record(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	n.eventLog = append(n.eventLog, rendered)
	if overflow := len(n.eventLog) - n.maxEvents; overflow > 0 {
		n.eventLog = append([]*types.Event(nil), n.eventLog[overflow:]...)
	}
	observability.Events().Record(rendered.Type)
	n.sink.Emit(evt)
}

func (n *Node) read(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

// Addresses returns the hosted contract accounts.
func (n *Node) Addresses() Addresses { return n.addrs }

// Close releases the database.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.db.Close()
}

// Events returns up to limit of the most recent committed events, oldest
// first. A non-positive limit returns the whole log.
func (n *Node) Events(limit int) []*types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	start := 0
	if limit > 0 && limit < len(n.eventLog) {
		start = len(n.eventLog) - limit
	}
	out := make([]*types.Event, 0, len(n.eventLog)-start)
	for _, evt := range n.eventLog[start:] {
		out = append(out, evt.Clone())
	}
	return out
}

func tokenAttr(tokenID uint64) slog.Attr {
	return slog.Uint64("tokenId", tokenID)
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
