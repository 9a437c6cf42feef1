package birdswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// ModuleName identifies the marketplace in pause configuration.
	ModuleName = "birdswap"

	BpsDenominator       = 10_000
	MaxRoyaltyFeeBps     = 1_000
	MaxMarketplaceFeeBps = 10_000
)

// Ask is a fixed-price offer for one token to one designated buyer. A zero
// Seller means there is no active ask for the token.
type Ask struct {
	Seller               common.Address
	Buyer                common.Address
	AskPrice             *big.Int
	RoyaltyFeeBps        uint16
	AskCurrency          common.Address
	SellerFundsRecipient common.Address
	UID                  common.Hash
	// CreatedAt is appended in schema version 2.
	CreatedAt uint64 `rlp:"optional"`
}

// Active reports whether the ask is live.
func (a *Ask) Active() bool {
	return a != nil && a.Seller != (common.Address{})
}

// Clone returns a deep copy of the ask.
func (a *Ask) Clone() *Ask {
	if a == nil {
		return nil
	}
	out := *a
	if a.AskPrice != nil {
		out.AskPrice = new(big.Int).Set(a.AskPrice)
	}
	return &out
}

func emptyAsk() *Ask {
	return &Ask{AskPrice: big.NewInt(0)}
}

// Config is the owner-controlled marketplace configuration.
type Config struct {
	Owner                       common.Address
	Collateral                  common.Address
	MarketplaceFeeBps           uint16
	MarketplaceFeePayoutAddress common.Address
	AlternateCurrency           common.Address
	Initialized                 bool
}

// Settlement describes the money movements of a successful fill.
type Settlement struct {
	TokenID          uint64
	UID              common.Hash
	Seller           common.Address
	Buyer            common.Address
	Currency         common.Address
	Price            *big.Int
	RoyaltyFeeBps    uint16
	MarketplaceFee   *big.Int
	RoyaltyFee       *big.Int
	RoyaltyRecipient common.Address
	SellerProceeds   *big.Int
	FundsRecipient   common.Address
	Refund           *big.Int
}
