package core

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/native/bank"
	"birdswap/native/birdswap"
)

// CreateAsk lists a token for a designated buyer.
func (n *Node) CreateAsk(caller common.Address, params birdswap.CreateAskParams) (*birdswap.Ask, error) {
	var ask *birdswap.Ask
	err := n.execute("createAsk", func() error {
		var err error
		ask, err = n.market.CreateAsk(caller, params)
		return err
	}, tokenAttr(params.TokenID), slog.String("seller", caller.Hex()))
	if err != nil {
		return nil, err
	}
	return ask, nil
}

// SetAskPrice lowers an ask's price.
func (n *Node) SetAskPrice(caller common.Address, tokenID uint64, price *big.Int) error {
	return n.execute("setAskPrice", func() error {
		return n.market.SetAskPrice(caller, tokenID, price)
	}, tokenAttr(tokenID))
}

// CancelAsk removes an ask and releases custody.
func (n *Node) CancelAsk(caller common.Address, tokenID uint64) error {
	return n.execute("cancelAsk", func() error {
		return n.market.CancelAsk(caller, tokenID)
	}, tokenAttr(tokenID))
}

// WithdrawBird returns an escrowed token to its depositor.
func (n *Node) WithdrawBird(caller common.Address, tokenID uint64) error {
	return n.execute("withdrawBird", func() error {
		return n.market.WithdrawBird(caller, tokenID)
	}, tokenAttr(tokenID))
}

// FillAsk settles an ask. value is the native amount attached to the call;
// it moves into the marketplace account before the engine runs and moves
// back if the call reverts.
func (n *Node) FillAsk(caller common.Address, tokenID uint64, value *big.Int) (*birdswap.Settlement, error) {
	value = amountOrZero(value)
	if value.Sign() < 0 {
		return nil, birdswap.ErrFillUnderpaid
	}
	var settled *birdswap.Settlement
	err := n.execute("fillAsk", func() error {
		if value.Sign() > 0 {
			if err := n.bank.Transfer(bank.NativeAsset, caller, n.addrs.Marketplace, value); err != nil {
				return fmt.Errorf("core: attach value: %w", err)
			}
		}
		var err error
		settled, err = n.market.FillAsk(caller, tokenID, value)
		return err
	}, tokenAttr(tokenID), slog.String("buyer", caller.Hex()))
	if err != nil {
		return nil, err
	}
	n.metrics.RecordFill(currencyLabel(settled.Currency), settled.Price)
	return settled, nil
}

func currencyLabel(currency common.Address) string {
	if currency == (common.Address{}) {
		return "native"
	}
	return currency.Hex()
}

// SetMarketplaceFeeBps updates the marketplace fee.
func (n *Node) SetMarketplaceFeeBps(caller common.Address, bps uint16) error {
	return n.execute("setMarketplaceFeeBps", func() error {
		return n.market.SetMarketplaceFeeBps(caller, bps)
	})
}

// SetMarketplaceFeePayoutAddress updates the fee recipient.
func (n *Node) SetMarketplaceFeePayoutAddress(caller, payout common.Address) error {
	return n.execute("setMarketplaceFeePayoutAddress", func() error {
		return n.market.SetMarketplaceFeePayoutAddress(caller, payout)
	})
}

// TransferOwnership hands over the admin role.
func (n *Node) TransferOwnership(caller, newOwner common.Address) error {
	return n.execute("transferOwnership", func() error {
		return n.market.TransferOwnership(caller, newOwner)
	})
}

// UpgradeTo migrates state to the target schema version.
func (n *Node) UpgradeTo(caller common.Address, version uint32) error {
	return n.execute("upgradeTo", func() error {
		return n.market.UpgradeTo(caller, version)
	}, slog.Int("version", int(version)))
}

// AskForMoonbird returns the current ask, zero-valued when none exists.
func (n *Node) AskForMoonbird(tokenID uint64) (*birdswap.Ask, error) {
	var ask *birdswap.Ask
	err := n.read(func() error {
		var err error
		ask, err = n.market.AskForMoonbird(tokenID)
		return err
	})
	return ask, err
}

// MoonbirdTransferredFromOwner returns the custody depositor, or zero.
func (n *Node) MoonbirdTransferredFromOwner(tokenID uint64) (common.Address, error) {
	var addr common.Address
	err := n.read(func() error {
		var err error
		addr, err = n.market.MoonbirdTransferredFromOwner(tokenID)
		return err
	})
	return addr, err
}

// IsMoonbirdEscrowed reports whether the marketplace holds the token.
func (n *Node) IsMoonbirdEscrowed(tokenID uint64) (bool, error) {
	var held bool
	err := n.read(func() error {
		var err error
		held, err = n.market.IsMoonbirdEscrowed(tokenID)
		return err
	})
	return held, err
}

// TotalSwap returns the number of successful fills.
func (n *Node) TotalSwap() (uint64, error) {
	var total uint64
	err := n.read(func() error {
		var err error
		total, err = n.market.TotalSwap()
		return err
	})
	return total, err
}

// TotalVolume returns the settled volume for a currency.
func (n *Node) TotalVolume(currency common.Address) (*big.Int, error) {
	var volume *big.Int
	err := n.read(func() error {
		var err error
		volume, err = n.market.TotalVolume(currency)
		return err
	})
	return volume, err
}

// MarketplaceConfig returns the admin configuration.
func (n *Node) MarketplaceConfig() (*birdswap.Config, error) {
	var cfg *birdswap.Config
	err := n.read(func() error {
		var err error
		cfg, err = n.market.Config()
		return err
	})
	return cfg, err
}

// Version returns the stored schema version.
func (n *Node) Version() (uint32, error) {
	var version uint32
	err := n.read(func() error {
		var err error
		version, err = n.market.Version()
		return err
	})
	return version, err
}
