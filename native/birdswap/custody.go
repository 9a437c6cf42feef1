package birdswap

import (
	"github.com/ethereum/go-ethereum/common"
)

func (e *Engine) depositor(tokenID uint64) (common.Address, error) {
	var addr common.Address
	if _, err := e.state.KVGet(custodyKey(tokenID), &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *Engine) setDepositor(tokenID uint64, addr common.Address) error {
	return e.state.KVPut(custodyKey(tokenID), addr)
}

func (e *Engine) clearDepositor(tokenID uint64) error {
	return e.state.KVDelete(custodyKey(tokenID))
}

// escrowed reports whether the marketplace holds the token on behalf of a
// recorded depositor.
func (e *Engine) escrowed(tokenID uint64) (bool, error) {
	holder, err := e.depositor(tokenID)
	if err != nil {
		return false, err
	}
	if holder == (common.Address{}) {
		return false, nil
	}
	owner, err := e.collateral.OwnerOf(tokenID)
	if err != nil {
		return false, err
	}
	return owner == e.address, nil
}

// OnERC721Received is the collateral's transfer hook. It accepts a token only
// when it really arrived from the configured collection and the sender has a
// live listing for it.
func (e *Engine) OnERC721Received(sender, operator, from common.Address, tokenID uint64, data []byte) error {
	return e.mutate(func() error {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		if sender != cfg.Collateral || sender != e.collateral.Address() {
			return ErrNotTransferred
		}
		owner, err := e.collateral.OwnerOf(tokenID)
		if err != nil {
			return downstream(ErrDepositQuery, err)
		}
		if owner != e.address {
			return ErrNotTransferred
		}
		ask, err := e.loadAsk(tokenID)
		if err != nil {
			return err
		}
		if !ask.Active() || ask.Seller != from {
			return ErrDepositWithoutAsk
		}
		if e.requireNested {
			nested, err := e.collateral.IsNested(tokenID)
			if err != nil {
				return downstream(ErrDepositQuery, err)
			}
			if !nested {
				return ErrDepositNotNested
			}
		}
		if err := e.setDepositor(tokenID, from); err != nil {
			return err
		}
		e.emit(NewDepositedEvent(tokenID, from, ask.UID))
		return nil
	})
}

// MoonbirdTransferredFromOwner returns the depositor of an escrowed token, or
// the zero address.
func (e *Engine) MoonbirdTransferredFromOwner(tokenID uint64) (common.Address, error) {
	if err := e.ready(); err != nil {
		return common.Address{}, err
	}
	return e.depositor(tokenID)
}

// IsMoonbirdEscrowed reports whether the token is currently in custody.
func (e *Engine) IsMoonbirdEscrowed(tokenID uint64) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.escrowed(tokenID)
}
