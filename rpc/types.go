package rpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core"
	"birdswap/native/birdswap"
)

// AskResult is the JSON view of an ask. Amounts are decimal strings.
type AskResult struct {
	Active               bool   `json:"active"`
	Seller               string `json:"seller"`
	Buyer                string `json:"buyer"`
	AskPrice             string `json:"askPrice"`
	RoyaltyFeeBps        uint16 `json:"royaltyFeeBps"`
	AskCurrency          string `json:"askCurrency"`
	SellerFundsRecipient string `json:"sellerFundsRecipient"`
	UID                  string `json:"uid"`
	CreatedAt            uint64 `json:"createdAt,omitempty"`
}

type SettlementResult struct {
	TokenID          uint64 `json:"tokenId"`
	UID              string `json:"uid"`
	Seller           string `json:"seller"`
	Buyer            string `json:"buyer"`
	Currency         string `json:"currency"`
	Price            string `json:"price"`
	MarketplaceFee   string `json:"marketplaceFee"`
	RoyaltyFee       string `json:"royaltyFee"`
	RoyaltyRecipient string `json:"royaltyRecipient,omitempty"`
	SellerProceeds   string `json:"sellerProceeds"`
	FundsRecipient   string `json:"fundsRecipient"`
	Refund           string `json:"refund"`
}

type ConfigResult struct {
	Owner                       string `json:"owner"`
	Collateral                  string `json:"collateral"`
	MarketplaceFeeBps           uint16 `json:"marketplaceFeeBps"`
	MarketplaceFeePayoutAddress string `json:"marketplaceFeePayoutAddress"`
	AlternateCurrency           string `json:"alternateCurrency"`
	Version                     uint32 `json:"version"`
}

type AddressesResult struct {
	Marketplace string `json:"marketplace"`
	Moonbirds   string `json:"moonbirds"`
}

// OKResult acknowledges a committed write without a return value.
type OKResult struct {
	OK bool `json:"ok"`
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func addressString(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}

func askResult(ask *birdswap.Ask) AskResult {
	if !ask.Active() {
		return AskResult{AskPrice: "0"}
	}
	return AskResult{
		Active:               true,
		Seller:               ask.Seller.Hex(),
		Buyer:                ask.Buyer.Hex(),
		AskPrice:             amountString(ask.AskPrice),
		RoyaltyFeeBps:        ask.RoyaltyFeeBps,
		AskCurrency:          addressString(ask.AskCurrency),
		SellerFundsRecipient: ask.SellerFundsRecipient.Hex(),
		UID:                  ask.UID.Hex(),
		CreatedAt:            ask.CreatedAt,
	}
}

func settlementResult(s *birdswap.Settlement) SettlementResult {
	return SettlementResult{
		TokenID:          s.TokenID,
		UID:              s.UID.Hex(),
		Seller:           s.Seller.Hex(),
		Buyer:            s.Buyer.Hex(),
		Currency:         addressString(s.Currency),
		Price:            amountString(s.Price),
		MarketplaceFee:   amountString(s.MarketplaceFee),
		RoyaltyFee:       amountString(s.RoyaltyFee),
		RoyaltyRecipient: addressString(s.RoyaltyRecipient),
		SellerProceeds:   amountString(s.SellerProceeds),
		FundsRecipient:   s.FundsRecipient.Hex(),
		Refund:           amountString(s.Refund),
	}
}

func addressesResult(a core.Addresses) AddressesResult {
	return AddressesResult{Marketplace: a.Marketplace.Hex(), Moonbirds: a.Moonbirds.Hex()}
}
