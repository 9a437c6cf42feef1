package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	maxFeeBps     = 10_000
	maxRoyaltyBps = 10_000
)

// Validate checks the configuration before the node opens its database.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	m := cfg.Marketplace
	if err := requireAddress("marketplace.Owner", m.Owner, false); err != nil {
		return err
	}
	if err := requireAddress("marketplace.FeePayoutAddress", m.FeePayoutAddress, false); err != nil {
		return err
	}
	if err := requireAddress("marketplace.AlternateCurrency", m.AlternateCurrency, true); err != nil {
		return err
	}
	if err := requireAddress("marketplace.RoyaltyReceiver", m.RoyaltyReceiver, true); err != nil {
		return err
	}
	if m.FeeBps > maxFeeBps {
		return fmt.Errorf("marketplace: FeeBps %d exceeds %d", m.FeeBps, maxFeeBps)
	}
	if m.RoyaltyBps > maxRoyaltyBps {
		return fmt.Errorf("marketplace: RoyaltyBps %d exceeds %d", m.RoyaltyBps, maxRoyaltyBps)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "leveldb", "bolt", "bbolt", "boltdb", "memory", "mem":
	default:
		return fmt.Errorf("storage: unknown backend %q", cfg.Storage.Backend)
	}
	if cfg.RPC.Burst < 0 {
		return fmt.Errorf("rpc: Burst must not be negative")
	}
	return nil
}

func requireAddress(field, value string, optional bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s: invalid address %q", field, value)
	}
	if !optional && common.HexToAddress(value) == (common.Address{}) {
		return fmt.Errorf("%s must not be the zero address", field)
	}
	return nil
}
