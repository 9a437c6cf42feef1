package birdswap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// InitParams configure a fresh deployment.
type InitParams struct {
	Owner                       common.Address
	Collateral                  common.Address
	MarketplaceFeeBps           uint16
	MarketplaceFeePayoutAddress common.Address
	AlternateCurrency           common.Address
}

func (e *Engine) loadConfig() (*Config, error) {
	var cfg Config
	ok, err := e.state.KVGet(configKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok || !cfg.Initialized {
		return nil, ErrNotInitialized
	}
	return &cfg, nil
}

func (e *Engine) storeConfig(cfg *Config) error {
	return e.state.KVPut(configKey, cfg)
}

// Initialize stores the initial configuration and the first schema version.
// It can only run once per state.
func (e *Engine) Initialize(p InitParams) error {
	return e.atomic(func() error {
		var existing Config
		ok, err := e.state.KVGet(configKey, &existing)
		if err != nil {
			return err
		}
		if ok && existing.Initialized {
			return ErrAlreadyInitialized
		}
		if p.Owner == (common.Address{}) {
			return ErrZeroNewOwner
		}
		if p.MarketplaceFeeBps > MaxMarketplaceFeeBps {
			return ErrFeeBpsTooHigh
		}
		if p.MarketplaceFeePayoutAddress == (common.Address{}) {
			return ErrZeroPayout
		}
		if p.Collateral != e.collateral.Address() {
			return fmt.Errorf("birdswap engine: collateral %s does not match configured %s", p.Collateral.Hex(), e.collateral.Address().Hex())
		}
		cfg := &Config{
			Owner:                       p.Owner,
			Collateral:                  p.Collateral,
			MarketplaceFeeBps:           p.MarketplaceFeeBps,
			MarketplaceFeePayoutAddress: p.MarketplaceFeePayoutAddress,
			AlternateCurrency:           p.AlternateCurrency,
			Initialized:                 true,
		}
		if err := e.storeConfig(cfg); err != nil {
			return err
		}
		if err := e.state.SetStateVersion(GenesisSchemaVersion); err != nil {
			return err
		}
		e.emit(NewInitializedEvent(cfg))
		return nil
	})
}

// Config returns a copy of the marketplace configuration.
func (e *Engine) Config() (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadConfig()
}

// Version returns the stored schema version.
func (e *Engine) Version() (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.schemaVersion()
}

func (e *Engine) onlyOwner(caller common.Address) (*Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Owner {
		return nil, ErrNotOwner
	}
	return cfg, nil
}

// SetMarketplaceFeeBps updates the marketplace fee. Open asks settle at the
// new rate.
func (e *Engine) SetMarketplaceFeeBps(caller common.Address, bps uint16) error {
	return e.atomic(func() error {
		cfg, err := e.onlyOwner(caller)
		if err != nil {
			return err
		}
		if bps > MaxMarketplaceFeeBps {
			return ErrFeeBpsTooHigh
		}
		previous := cfg.MarketplaceFeeBps
		cfg.MarketplaceFeeBps = bps
		if err := e.storeConfig(cfg); err != nil {
			return err
		}
		e.emit(NewFeeBpsUpdatedEvent(previous, bps))
		return nil
	})
}

// SetMarketplaceFeePayoutAddress updates where marketplace fees are paid.
func (e *Engine) SetMarketplaceFeePayoutAddress(caller, payout common.Address) error {
	return e.atomic(func() error {
		cfg, err := e.onlyOwner(caller)
		if err != nil {
			return err
		}
		if payout == (common.Address{}) {
			return ErrZeroPayout
		}
		previous := cfg.MarketplaceFeePayoutAddress
		cfg.MarketplaceFeePayoutAddress = payout
		if err := e.storeConfig(cfg); err != nil {
			return err
		}
		e.emit(NewPayoutUpdatedEvent(previous, payout))
		return nil
	})
}

// TransferOwnership hands the admin role to newOwner.
func (e *Engine) TransferOwnership(caller, newOwner common.Address) error {
	return e.atomic(func() error {
		cfg, err := e.onlyOwner(caller)
		if err != nil {
			return err
		}
		if newOwner == (common.Address{}) {
			return ErrZeroNewOwner
		}
		cfg.Owner = newOwner
		if err := e.storeConfig(cfg); err != nil {
			return err
		}
		e.emit(NewOwnershipTransferredEvent(caller, newOwner))
		return nil
	})
}
