package birdswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type feeSplit struct {
	marketplaceFee *uint256.Int
	royaltyFee     *uint256.Int
	sellerProceeds *uint256.Int
}

// splitPrice divides price into the marketplace fee, the royalty and the
// seller's share. Integer division truncates both fees, so the remainder
// stays with the seller.
func splitPrice(price *big.Int, feeBps, royaltyBps uint16) (*feeSplit, error) {
	p, overflow := uint256.FromBig(price)
	if overflow {
		return nil, ErrFillFeeOverflow
	}
	denom := uint256.NewInt(BpsDenominator)
	marketplaceFee, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(uint64(feeBps)))
	if overflow {
		return nil, ErrFillFeeOverflow
	}
	marketplaceFee.Div(marketplaceFee, denom)
	royaltyFee, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(uint64(royaltyBps)))
	if overflow {
		return nil, ErrFillFeeOverflow
	}
	royaltyFee.Div(royaltyFee, denom)
	fees, overflow := new(uint256.Int).AddOverflow(marketplaceFee, royaltyFee)
	if overflow || fees.Gt(p) {
		return nil, ErrFillFeesExceedPrice
	}
	return &feeSplit{
		marketplaceFee: marketplaceFee,
		royaltyFee:     royaltyFee,
		sellerProceeds: new(uint256.Int).Sub(p, fees),
	}, nil
}

// FillAsk settles the ask on tokenID. value is the native amount the caller
// attached, which the host has already moved into the marketplace account.
// Currency asks pull the price from the buyer through the ledger allowance
// instead.
func (e *Engine) FillAsk(caller common.Address, tokenID uint64, value *big.Int) (*Settlement, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	var settled *Settlement
	err := e.mutate(func() error {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		ask, err := e.loadAsk(tokenID)
		if err != nil {
			return err
		}
		if !ask.Active() {
			return ErrFillNoAsk
		}
		if ask.Buyer != caller {
			return ErrFillNotBuyer
		}
		held, err := e.escrowed(tokenID)
		if err != nil {
			return downstream(ErrFillCustodyQuery, err)
		}
		if !held {
			return ErrFillNotEscrowed
		}
		currency := ask.AskCurrency
		native := currency == (common.Address{})
		if native {
			if value.Cmp(ask.AskPrice) < 0 {
				return ErrFillUnderpaid
			}
		} else if value.Sign() != 0 {
			return ErrFillValueWithToken
		}

		split, err := splitPrice(ask.AskPrice, cfg.MarketplaceFeeBps, ask.RoyaltyFeeBps)
		if err != nil {
			return err
		}
		var royaltyRecipient common.Address
		if !split.royaltyFee.IsZero() {
			recipient, _, err := e.collateral.RoyaltyInfo(tokenID, ask.AskPrice)
			if err != nil {
				return downstream(ErrFillRoyaltyQuery, err)
			}
			if recipient == (common.Address{}) {
				return ErrFillNoRoyaltyTarget
			}
			royaltyRecipient = recipient
		}

		if !native {
			if err := e.bank.TransferFrom(currency, e.address, caller, e.address, ask.AskPrice); err != nil {
				return downstream(ErrFillPayment, err)
			}
		}
		refund := big.NewInt(0)
		if native {
			refund.Sub(value, ask.AskPrice)
		}
		payouts := []struct {
			to     common.Address
			amount *big.Int
		}{
			{cfg.MarketplaceFeePayoutAddress, split.marketplaceFee.ToBig()},
			{royaltyRecipient, split.royaltyFee.ToBig()},
			{ask.SellerFundsRecipient, split.sellerProceeds.ToBig()},
			{caller, refund},
		}
		for _, p := range payouts {
			if p.amount.Sign() == 0 {
				continue
			}
			if err := e.bank.Transfer(currency, e.address, p.to, p.amount); err != nil {
				return downstream(ErrFillPayment, err)
			}
		}

		if err := e.clearAsk(tokenID); err != nil {
			return err
		}
		if err := e.clearDepositor(tokenID); err != nil {
			return err
		}
		if err := e.collateral.SafeTransferWhileNesting(e.address, e.address, caller, tokenID); err != nil {
			return downstream(ErrFillTokenTransfer, err)
		}
		if _, err := e.incrementTotalSwap(); err != nil {
			return err
		}
		version, err := e.schemaVersion()
		if err != nil {
			return err
		}
		if version >= 2 {
			if err := e.addVolume(currency, ask.AskPrice); err != nil {
				return err
			}
		}

		settled = &Settlement{
			TokenID:          tokenID,
			UID:              ask.UID,
			Seller:           ask.Seller,
			Buyer:            caller,
			Currency:         currency,
			Price:            new(big.Int).Set(ask.AskPrice),
			RoyaltyFeeBps:    ask.RoyaltyFeeBps,
			MarketplaceFee:   split.marketplaceFee.ToBig(),
			RoyaltyFee:       split.royaltyFee.ToBig(),
			RoyaltyRecipient: royaltyRecipient,
			SellerProceeds:   split.sellerProceeds.ToBig(),
			FundsRecipient:   ask.SellerFundsRecipient,
			Refund:           refund,
		}
		e.emit(NewAskFilledEvent(settled))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}
