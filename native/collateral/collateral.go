// Package collateral describes the NFT contract the marketplace escrows. The
// marketplace only ever talks to the collection through these interfaces.
package collateral

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNonexistentToken is returned for token ids that were never minted.
var ErrNonexistentToken = errors.New("collateral: owner query for nonexistent token")

// Collateral is the subset of the collection the marketplace depends on.
type Collateral interface {
	Address() common.Address
	OwnerOf(tokenID uint64) (common.Address, error)
	// SafeTransferWhileNesting moves a token without breaking its nesting
	// state. The operator must own the token. When to is a registered
	// receiver its hook runs before the call returns.
	SafeTransferWhileNesting(operator, from, to common.Address, tokenID uint64) error
	IsNested(tokenID uint64) (bool, error)
	// RoyaltyInfo reports the royalty recipient and the royalty the
	// collection itself would charge on salePrice.
	RoyaltyInfo(tokenID uint64, salePrice *big.Int) (common.Address, *big.Int, error)
}

// Receiver is implemented by accounts that accept safe transfers. sender is
// the collection that invoked the hook.
type Receiver interface {
	OnERC721Received(sender, operator, from common.Address, tokenID uint64, data []byte) error
}
