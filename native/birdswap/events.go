package birdswap

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/types"
)

const (
	EventTypeInitialized          = "birdswap.initialized"
	EventTypeAskCreated           = "birdswap.ask.created"
	EventTypeAskPriceUpdated      = "birdswap.ask.price_updated"
	EventTypeAskCanceled          = "birdswap.ask.canceled"
	EventTypeAskFilled            = "birdswap.ask.filled"
	EventTypeDeposited            = "birdswap.deposited"
	EventTypeWithdrawn            = "birdswap.withdrawn"
	EventTypeFeeBpsUpdated        = "birdswap.fee_bps_updated"
	EventTypePayoutUpdated        = "birdswap.payout_updated"
	EventTypeOwnershipTransferred = "birdswap.ownership_transferred"
	EventTypeUpgraded             = "birdswap.upgraded"
)

func tokenIDString(id uint64) string { return strconv.FormatUint(id, 10) }

// NewAskCreatedEvent is emitted for every created or overridden ask.
func NewAskCreatedEvent(tokenID uint64, ask *Ask) *types.Event {
	return newAskEvent(EventTypeAskCreated, tokenID, ask)
}

// NewAskPriceUpdatedEvent carries the lowered price and the previous one.
func NewAskPriceUpdatedEvent(tokenID uint64, ask *Ask, previous *big.Int) *types.Event {
	evt := newAskEvent(EventTypeAskPriceUpdated, tokenID, ask)
	if previous != nil {
		evt.Attributes["previousPrice"] = previous.String()
	}
	return evt
}

// NewAskCanceledEvent reports a cancel; returnedTo is set when custody was
// released.
func NewAskCanceledEvent(tokenID uint64, ask *Ask, returnedTo common.Address) *types.Event {
	evt := newAskEvent(EventTypeAskCanceled, tokenID, ask)
	if returnedTo != (common.Address{}) {
		evt.Attributes["returnedTo"] = returnedTo.Hex()
	}
	return evt
}

// NewAskFilledEvent is the settlement receipt.
func NewAskFilledEvent(s *Settlement) *types.Event {
	attrs := map[string]string{}
	if s != nil {
		attrs["tokenId"] = tokenIDString(s.TokenID)
		attrs["seller"] = s.Seller.Hex()
		attrs["buyer"] = s.Buyer.Hex()
		attrs["askPrice"] = s.Price.String()
		attrs["royaltyFeeBps"] = strconv.FormatUint(uint64(s.RoyaltyFeeBps), 10)
		attrs["uid"] = s.UID.Hex()
		attrs["currency"] = s.Currency.Hex()
		attrs["marketplaceFee"] = s.MarketplaceFee.String()
		attrs["royaltyFee"] = s.RoyaltyFee.String()
		attrs["sellerProceeds"] = s.SellerProceeds.String()
		if s.Refund != nil && s.Refund.Sign() > 0 {
			attrs["refund"] = s.Refund.String()
		}
	}
	return &types.Event{Type: EventTypeAskFilled, Attributes: attrs}
}

func NewDepositedEvent(tokenID uint64, depositor common.Address, uid common.Hash) *types.Event {
	return &types.Event{Type: EventTypeDeposited, Attributes: map[string]string{
		"tokenId":   tokenIDString(tokenID),
		"depositor": depositor.Hex(),
		"uid":       uid.Hex(),
	}}
}

func NewWithdrawnEvent(tokenID uint64, depositor common.Address) *types.Event {
	return &types.Event{Type: EventTypeWithdrawn, Attributes: map[string]string{
		"tokenId":   tokenIDString(tokenID),
		"depositor": depositor.Hex(),
	}}
}

func NewInitializedEvent(cfg *Config) *types.Event {
	return &types.Event{Type: EventTypeInitialized, Attributes: map[string]string{
		"owner":             cfg.Owner.Hex(),
		"collateral":        cfg.Collateral.Hex(),
		"feeBps":            strconv.FormatUint(uint64(cfg.MarketplaceFeeBps), 10),
		"payout":            cfg.MarketplaceFeePayoutAddress.Hex(),
		"alternateCurrency": cfg.AlternateCurrency.Hex(),
	}}
}

func NewFeeBpsUpdatedEvent(previous, current uint16) *types.Event {
	return &types.Event{Type: EventTypeFeeBpsUpdated, Attributes: map[string]string{
		"previous": strconv.FormatUint(uint64(previous), 10),
		"feeBps":   strconv.FormatUint(uint64(current), 10),
	}}
}

func NewPayoutUpdatedEvent(previous, current common.Address) *types.Event {
	return &types.Event{Type: EventTypePayoutUpdated, Attributes: map[string]string{
		"previous": previous.Hex(),
		"payout":   current.Hex(),
	}}
}

func NewOwnershipTransferredEvent(previous, current common.Address) *types.Event {
	return &types.Event{Type: EventTypeOwnershipTransferred, Attributes: map[string]string{
		"previousOwner": previous.Hex(),
		"newOwner":      current.Hex(),
	}}
}

func NewUpgradedEvent(from, to uint32) *types.Event {
	return &types.Event{Type: EventTypeUpgraded, Attributes: map[string]string{
		"from": strconv.FormatUint(uint64(from), 10),
		"to":   strconv.FormatUint(uint64(to), 10),
	}}
}

func newAskEvent(eventType string, tokenID uint64, ask *Ask) *types.Event {
	attrs := map[string]string{"tokenId": tokenIDString(tokenID)}
	if ask == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["seller"] = ask.Seller.Hex()
	attrs["buyer"] = ask.Buyer.Hex()
	if ask.AskPrice != nil {
		attrs["askPrice"] = ask.AskPrice.String()
	}
	attrs["royaltyFeeBps"] = strconv.FormatUint(uint64(ask.RoyaltyFeeBps), 10)
	attrs["currency"] = ask.AskCurrency.Hex()
	attrs["fundsRecipient"] = ask.SellerFundsRecipient.Hex()
	attrs["uid"] = ask.UID.Hex()
	if ask.CreatedAt != 0 {
		attrs["createdAt"] = strconv.FormatUint(ask.CreatedAt, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
