package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	corestate "birdswap/core/state"
	"birdswap/native/bank"
	"birdswap/native/birdswap"
	"birdswap/storage"
)

var (
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testPayout  = common.HexToAddress("0x47A90D927DfA99EC3a3582D2C4DAbf12cF58f340")
	testRoyalty = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	testWETH    = common.HexToAddress("0x00000000000000000000000000000000000000e7")
	testSeller  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testBuyer   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func milliEther(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000))
}

func testOptions() Options {
	return Options{
		Owner:             testOwner,
		FeePayoutAddress:  testPayout,
		FeeBps:            200,
		AlternateCurrency: testWETH,
		RoyaltyReceiver:   testRoyalty,
		RoyaltyBps:        500,
		Now:               func() int64 { return 1_700_000_000 },
	}
}

func newTestNode(t *testing.T, db storage.Database) *Node {
	t.Helper()
	if db == nil {
		db = storage.NewMemDB()
	}
	node, err := NewNode(db, testOptions())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// listAndDeposit mints a token to the seller, lists it for the buyer and
// moves it into custody.
func listAndDeposit(t *testing.T, node *Node, price *big.Int, currency common.Address) uint64 {
	t.Helper()
	ids, err := node.MintUnclaimed(testOwner, testSeller, 1)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := ids[0]
	if _, err := node.CreateAsk(testSeller, birdswap.CreateAskParams{
		TokenID:              id,
		Buyer:                testBuyer,
		AskPrice:             price,
		RoyaltyFeeBps:        500,
		AskCurrency:          currency,
		SellerFundsRecipient: testSeller,
	}); err != nil {
		t.Fatalf("create ask: %v", err)
	}
	if err := node.SafeTransferWhileNesting(testSeller, testSeller, node.Addresses().Marketplace, id); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return id
}

func mustBalance(t *testing.T, node *Node, asset, owner common.Address) *big.Int {
	t.Helper()
	bal, err := node.Balance(asset, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func TestNodeGenesisUsesNewestSchema(t *testing.T) {
	node := newTestNode(t, nil)
	version, err := node.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != birdswap.SchemaVersion {
		t.Fatalf("expected schema %d, got %d", birdswap.SchemaVersion, version)
	}
	cfg, err := node.MarketplaceConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Owner != testOwner || cfg.MarketplaceFeeBps != 200 || cfg.Collateral != node.Addresses().Moonbirds {
		t.Fatalf("unexpected config %+v", cfg)
	}
	addrs := DeriveAddresses(testOwner)
	if addrs != node.Addresses() {
		t.Fatalf("addresses not deterministic: %+v vs %+v", addrs, node.Addresses())
	}
}

func TestNodeFillNativeAsk(t *testing.T) {
	node := newTestNode(t, nil)
	id := listAndDeposit(t, node, ether(10), common.Address{})

	held, err := node.IsMoonbirdEscrowed(id)
	if err != nil || !held {
		t.Fatalf("expected escrow, got %v (%v)", held, err)
	}
	if err := node.Credit(testOwner, NativeAsset, testBuyer, ether(20)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	settled, err := node.FillAsk(testBuyer, id, ether(11))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if settled.MarketplaceFee.Cmp(milliEther(200)) != 0 {
		t.Fatalf("unexpected fee %s", settled.MarketplaceFee)
	}
	if settled.RoyaltyFee.Cmp(milliEther(500)) != 0 {
		t.Fatalf("unexpected royalty %s", settled.RoyaltyFee)
	}
	if got := mustBalance(t, node, NativeAsset, testSeller); got.Cmp(milliEther(9300)) != 0 {
		t.Fatalf("seller proceeds %s", got)
	}
	if got := mustBalance(t, node, NativeAsset, testPayout); got.Cmp(milliEther(200)) != 0 {
		t.Fatalf("payout balance %s", got)
	}
	if got := mustBalance(t, node, NativeAsset, testRoyalty); got.Cmp(milliEther(500)) != 0 {
		t.Fatalf("royalty balance %s", got)
	}
	// 20 credited, 11 attached, 1 refunded.
	if got := mustBalance(t, node, NativeAsset, testBuyer); got.Cmp(ether(10)) != 0 {
		t.Fatalf("buyer balance %s", got)
	}
	if got := mustBalance(t, node, NativeAsset, node.Addresses().Marketplace); got.Sign() != 0 {
		t.Fatalf("marketplace kept %s", got)
	}
	owner, err := node.OwnerOf(id)
	if err != nil || owner != testBuyer {
		t.Fatalf("expected buyer to own token, got %s (%v)", owner.Hex(), err)
	}
	if total, _ := node.TotalSwap(); total != 1 {
		t.Fatalf("expected one swap, got %d", total)
	}
	if volume, _ := node.TotalVolume(common.Address{}); volume.Cmp(ether(10)) != 0 {
		t.Fatalf("unexpected volume %s", volume)
	}
	ask, _ := node.AskForMoonbird(id)
	if ask.Active() {
		t.Fatalf("ask should be cleared")
	}
	if depositor, _ := node.MoonbirdTransferredFromOwner(id); depositor != (common.Address{}) {
		t.Fatalf("custody should be cleared, got %s", depositor.Hex())
	}

	var sawFill bool
	for _, evt := range node.Events(0) {
		if evt.Type == birdswap.EventTypeAskFilled {
			sawFill = true
			if evt.Attributes["refund"] != ether(1).String() {
				t.Fatalf("unexpected refund attribute %q", evt.Attributes["refund"])
			}
		}
	}
	if !sawFill {
		t.Fatalf("fill event not recorded")
	}
}

func TestNodeFillCurrencyAsk(t *testing.T) {
	node := newTestNode(t, nil)
	id := listAndDeposit(t, node, ether(4), testWETH)
	market := node.Addresses().Marketplace

	if err := node.Credit(testOwner, testWETH, testBuyer, ether(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := node.FillAsk(testBuyer, id, nil); err == nil {
		t.Fatalf("expected fill without allowance to fail")
	}
	if err := node.Approve(testBuyer, testWETH, market, ether(4)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := node.Credit(testOwner, NativeAsset, testBuyer, ether(1)); err != nil {
		t.Fatalf("credit native: %v", err)
	}
	if _, err := node.FillAsk(testBuyer, id, big.NewInt(1)); !errors.Is(err, birdswap.ErrFillValueWithToken) {
		t.Fatalf("expected value rejection, got %v", err)
	}
	if _, err := node.FillAsk(testBuyer, id, nil); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if got := mustBalance(t, node, testWETH, testBuyer); got.Cmp(ether(1)) != 0 {
		t.Fatalf("buyer weth %s", got)
	}
	if got := mustBalance(t, node, testWETH, testSeller); got.Cmp(milliEther(3720)) != 0 {
		t.Fatalf("seller weth %s", got)
	}
	allowance, err := node.Allowance(testWETH, testBuyer, market)
	if err != nil || allowance.Sign() != 0 {
		t.Fatalf("allowance should be spent, got %s (%v)", allowance, err)
	}
}

func TestNodeRevertRestoresAttachedValue(t *testing.T) {
	node := newTestNode(t, nil)
	id := listAndDeposit(t, node, ether(10), common.Address{})
	if err := node.Credit(testOwner, NativeAsset, testBuyer, ether(20)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	before := len(node.Events(0))

	if _, err := node.FillAsk(testBuyer, id, ether(9)); !errors.Is(err, birdswap.ErrFillUnderpaid) {
		t.Fatalf("expected underpaid, got %v", err)
	}
	if got := mustBalance(t, node, NativeAsset, testBuyer); got.Cmp(ether(20)) != 0 {
		t.Fatalf("attached value not restored: %s", got)
	}
	if got := mustBalance(t, node, NativeAsset, node.Addresses().Marketplace); got.Sign() != 0 {
		t.Fatalf("marketplace kept %s", got)
	}
	if after := len(node.Events(0)); after != before {
		t.Fatalf("reverted call published %d events", after-before)
	}
	if _, err := node.FillAsk(testBuyer, id, ether(30)); !errors.Is(err, bank.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	ask, _ := node.AskForMoonbird(id)
	if !ask.Active() {
		t.Fatalf("ask should survive a reverted fill")
	}
}

func TestNodeCancelReturnsToken(t *testing.T) {
	node := newTestNode(t, nil)
	id := listAndDeposit(t, node, ether(1), common.Address{})
	if err := node.CancelAsk(testBuyer, id); !errors.Is(err, birdswap.ErrCancelNotSeller) {
		t.Fatalf("expected seller gate, got %v", err)
	}
	if err := node.CancelAsk(testSeller, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	owner, _ := node.OwnerOf(id)
	if owner != testSeller {
		t.Fatalf("token not returned, owner %s", owner.Hex())
	}
	if err := node.CancelAsk(testSeller, id); !errors.Is(err, birdswap.ErrCancelNoAsk) {
		t.Fatalf("expected missing ask, got %v", err)
	}
}

func TestNodeCreditRequiresOwner(t *testing.T) {
	node := newTestNode(t, nil)
	if err := node.Credit(testBuyer, NativeAsset, testBuyer, ether(1)); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected admin gate, got %v", err)
	}
	if err := node.Transfer(testBuyer, NativeAsset, testSeller, ether(1)); !errors.Is(err, bank.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestNodeLevelDBPersistence(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open("leveldb", dir)
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	node := newTestNode(t, db)
	id := listAndDeposit(t, node, ether(2), common.Address{})
	node.Close()

	db, err = storage.Open("leveldb", dir)
	if err != nil {
		t.Fatalf("reopen leveldb: %v", err)
	}
	reopened := newTestNode(t, db)
	defer reopened.Close()
	ask, err := reopened.AskForMoonbird(id)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !ask.Active() || ask.AskPrice.Cmp(ether(2)) != 0 || ask.Buyer != testBuyer {
		t.Fatalf("ask not persisted: %+v", ask)
	}
	depositor, _ := reopened.MoonbirdTransferredFromOwner(id)
	if depositor != testSeller {
		t.Fatalf("custody not persisted, got %s", depositor.Hex())
	}
}

func downgradeToGenesis(t *testing.T, db storage.Database) {
	t.Helper()
	manager := corestate.NewManager(db)
	if err := manager.SetStateVersion(birdswap.GenesisSchemaVersion); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestNodeOlderSchemaWaitsForUpgrade(t *testing.T) {
	db := storage.NewMemDB()
	newTestNode(t, db)
	downgradeToGenesis(t, db)

	node := newTestNode(t, db)
	if version, _ := node.Version(); version != birdswap.GenesisSchemaVersion {
		t.Fatalf("expected node to keep schema 1, got %d", version)
	}
	if _, err := node.TotalVolume(common.Address{}); !errors.Is(err, birdswap.ErrVolumeUnavailable) {
		t.Fatalf("expected volume unavailable, got %v", err)
	}
	if err := node.UpgradeTo(testBuyer, birdswap.SchemaVersion); !errors.Is(err, birdswap.ErrNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	if err := node.UpgradeTo(testOwner, birdswap.SchemaVersion); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if version, _ := node.Version(); version != birdswap.SchemaVersion {
		t.Fatalf("expected upgraded schema, got %d", version)
	}
}

func TestNodeAllowMigrateUpgradesAtStartup(t *testing.T) {
	db := storage.NewMemDB()
	newTestNode(t, db)
	downgradeToGenesis(t, db)

	opts := testOptions()
	opts.AllowMigrate = true
	node, err := NewNode(db, opts)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	if version, _ := node.Version(); version != birdswap.SchemaVersion {
		t.Fatalf("expected migration at startup, got %d", version)
	}
}

func TestNodeRejectsNewerSchema(t *testing.T) {
	db := storage.NewMemDB()
	newTestNode(t, db)
	manager := corestate.NewManager(db)
	if err := manager.SetStateVersion(birdswap.SchemaVersion + 1); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := NewNode(db, testOptions()); !errors.Is(err, corestate.ErrStateVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}
