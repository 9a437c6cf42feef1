package birdswap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// askV1 is the ask layout written before schema version 2.
type askV1 struct {
	Seller               common.Address
	Buyer                common.Address
	AskPrice             *big.Int
	RoyaltyFeeBps        uint16
	AskCurrency          common.Address
	SellerFundsRecipient common.Address
	UID                  common.Hash
}

func TestUpgradePreservesConfigAndAsks(t *testing.T) {
	f := newFixtureAt(t, false)
	if version, _ := f.engine.Version(); version != GenesisSchemaVersion {
		t.Fatalf("expected genesis version, got %d", version)
	}
	if err := f.engine.SetMarketplaceFeePayoutAddress(ownerAddr, stranger); err != nil {
		t.Fatalf("set payout: %v", err)
	}
	f.mint(1, minterA)
	v1Ask := f.list(1, minterA, minterB, ether(3), 0)
	if v1Ask.CreatedAt != 0 {
		t.Fatalf("v1 asks carry no creation time, got %d", v1Ask.CreatedAt)
	}
	if err := f.deposit(1, minterA); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	legacy := askV1{
		Seller:               minterB,
		Buyer:                minterA,
		AskPrice:             ether(7),
		SellerFundsRecipient: minterB,
		UID:                  common.HexToHash("0x01"),
	}
	if err := f.state.KVPut(askKey(2), &legacy); err != nil {
		t.Fatalf("write legacy ask: %v", err)
	}
	if _, err := f.engine.TotalVolume(common.Address{}); !errors.Is(err, ErrVolumeUnavailable) {
		t.Fatalf("expected volume unavailable before upgrade, got %v", err)
	}

	if err := f.engine.UpgradeTo(stranger, SchemaVersion); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	if err := f.engine.UpgradeTo(ownerAddr, SchemaVersion+1); !errors.Is(err, ErrUpgradeTarget) {
		t.Fatalf("expected unsupported target, got %v", err)
	}
	if err := f.engine.UpgradeTo(ownerAddr, SchemaVersion); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	if version, _ := f.engine.Version(); version != SchemaVersion {
		t.Fatalf("expected version %d, got %d", SchemaVersion, version)
	}
	cfg, err := f.engine.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.MarketplaceFeePayoutAddress != stranger || cfg.MarketplaceFeeBps != 200 {
		t.Fatalf("config must survive upgrade, got %+v", cfg)
	}
	stored, err := f.engine.AskForMoonbird(1)
	if err != nil || stored.UID != v1Ask.UID {
		t.Fatalf("ask must survive upgrade, got %+v err %v", stored, err)
	}
	decoded, err := f.engine.AskForMoonbird(2)
	if err != nil {
		t.Fatalf("legacy ask must decode: %v", err)
	}
	if decoded.Seller != minterB || decoded.AskPrice.Cmp(ether(7)) != 0 || decoded.CreatedAt != 0 {
		t.Fatalf("unexpected legacy ask %+v", decoded)
	}
	if depositor, _ := f.engine.MoonbirdTransferredFromOwner(1); depositor != minterA {
		t.Fatalf("custody must survive upgrade, got %s", depositor.Hex())
	}
	volume, err := f.engine.TotalVolume(common.Address{})
	if err != nil || volume.Sign() != 0 {
		t.Fatalf("expected empty volume after upgrade, got %v err %v", volume, err)
	}
	if evt := f.emitter.last(EventTypeUpgraded); evt == nil || evt.Attributes["from"] != "1" || evt.Attributes["to"] != "2" {
		t.Fatalf("unexpected upgrade event %+v", evt)
	}

	// A fill on the pre-upgrade ask settles under the new logic.
	f.pay(minterB, ether(3))
	if _, err := f.engine.FillAsk(minterB, 1, ether(3)); err != nil {
		t.Fatalf("fill after upgrade: %v", err)
	}
	volume, _ = f.engine.TotalVolume(common.Address{})
	if volume.Cmp(ether(3)) != 0 {
		t.Fatalf("expected volume tracked after upgrade, got %s", volume)
	}
	if err := f.engine.UpgradeTo(ownerAddr, GenesisSchemaVersion); !errors.Is(err, ErrUpgradeTarget) {
		t.Fatalf("expected downgrade rejection, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	from, err := f.engine.Migrate()
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if from != SchemaVersion {
		t.Fatalf("expected already-current schema, got from=%d", from)
	}
}
