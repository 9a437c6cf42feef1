package birdswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CreateAskParams are the terms of a new ask.
type CreateAskParams struct {
	TokenID              uint64
	Buyer                common.Address
	AskPrice             *big.Int
	RoyaltyFeeBps        uint16
	AskCurrency          common.Address
	SellerFundsRecipient common.Address
}

// CreateAsk records (or overrides) the ask for a token the caller owns.
// Custody is never touched, so overriding an escrowed token's ask keeps the
// existing depositor.
func (e *Engine) CreateAsk(caller common.Address, p CreateAskParams) (*Ask, error) {
	var created *Ask
	err := e.mutate(func() error {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		owner, err := e.collateral.OwnerOf(p.TokenID)
		if err != nil {
			return downstream(ErrCreateOwnerQuery, err)
		}
		if owner != caller {
			return ErrCreateNotOwner
		}
		if p.Buyer == (common.Address{}) {
			return ErrCreateZeroBuyer
		}
		if p.RoyaltyFeeBps > MaxRoyaltyFeeBps {
			return ErrCreateRoyaltyTooBig
		}
		if p.AskCurrency != (common.Address{}) && p.AskCurrency != cfg.AlternateCurrency {
			return ErrCreateCurrency
		}
		if p.AskPrice == nil || p.AskPrice.Sign() < 0 || p.AskPrice.BitLen() > 256 {
			return ErrCreatePrice
		}
		recipient := p.SellerFundsRecipient
		if recipient == (common.Address{}) {
			recipient = caller
		}
		nonce, err := e.nextNonce()
		if err != nil {
			return err
		}
		ask := &Ask{
			Seller:               caller,
			Buyer:                p.Buyer,
			AskPrice:             new(big.Int).Set(p.AskPrice),
			RoyaltyFeeBps:        p.RoyaltyFeeBps,
			AskCurrency:          p.AskCurrency,
			SellerFundsRecipient: recipient,
			UID:                  askUID(p.TokenID, caller, p.Buyer, p.AskPrice, p.RoyaltyFeeBps, p.AskCurrency, nonce),
		}
		version, err := e.schemaVersion()
		if err != nil {
			return err
		}
		if version >= 2 {
			ask.CreatedAt = uint64(e.now())
		}
		if err := e.storeAsk(p.TokenID, ask); err != nil {
			return err
		}
		created = ask
		e.emit(NewAskCreatedEvent(p.TokenID, ask))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// SetAskPrice lowers the price of the caller's ask. The UID is kept.
func (e *Engine) SetAskPrice(caller common.Address, tokenID uint64, price *big.Int) error {
	return e.mutate(func() error {
		ask, err := e.loadAsk(tokenID)
		if err != nil {
			return err
		}
		if !ask.Active() || ask.Seller != caller {
			return ErrPriceNotSeller
		}
		if price == nil || price.Sign() < 0 || price.Cmp(ask.AskPrice) > 0 {
			return ErrPriceNotLower
		}
		previous := ask.AskPrice
		ask.AskPrice = new(big.Int).Set(price)
		if err := e.storeAsk(tokenID, ask); err != nil {
			return err
		}
		e.emit(NewAskPriceUpdatedEvent(tokenID, ask, previous))
		return nil
	})
}

// CancelAsk removes the caller's ask. An escrowed token goes back to whoever
// deposited it.
func (e *Engine) CancelAsk(caller common.Address, tokenID uint64) error {
	return e.mutate(func() error {
		ask, err := e.loadAsk(tokenID)
		if err != nil {
			return err
		}
		if !ask.Active() {
			return ErrCancelNoAsk
		}
		if ask.Seller != caller {
			return ErrCancelNotSeller
		}
		if err := e.clearAsk(tokenID); err != nil {
			return err
		}
		held, err := e.escrowed(tokenID)
		if err != nil {
			return downstream(ErrCancelReturn, err)
		}
		var returnedTo common.Address
		if held {
			holder, err := e.depositor(tokenID)
			if err != nil {
				return err
			}
			if err := e.clearDepositor(tokenID); err != nil {
				return err
			}
			if err := e.collateral.SafeTransferWhileNesting(e.address, e.address, holder, tokenID); err != nil {
				return downstream(ErrCancelReturn, err)
			}
			returnedTo = holder
		}
		e.emit(NewAskCanceledEvent(tokenID, ask, returnedTo))
		return nil
	})
}

// WithdrawBird returns an escrowed token to its depositor. The ask, if any,
// is left in place.
func (e *Engine) WithdrawBird(caller common.Address, tokenID uint64) error {
	return e.mutate(func() error {
		holder, err := e.depositor(tokenID)
		if err != nil {
			return err
		}
		if holder == (common.Address{}) || holder != caller {
			return ErrWithdrawNotDepositor
		}
		if err := e.clearDepositor(tokenID); err != nil {
			return err
		}
		if err := e.collateral.SafeTransferWhileNesting(e.address, e.address, caller, tokenID); err != nil {
			return downstream(ErrWithdrawTransfer, err)
		}
		e.emit(NewWithdrawnEvent(tokenID, caller))
		return nil
	})
}
