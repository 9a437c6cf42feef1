package core

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/native/bank"
)

// MintUnclaimed mints count tokens; only the collection owner may call it.
func (n *Node) MintUnclaimed(caller, to common.Address, count uint64) ([]uint64, error) {
	var ids []uint64
	err := n.execute("mintUnclaimed", func() error {
		var err error
		ids, err = n.moonbirds.MintUnclaimed(caller, to, count)
		return err
	}, slog.Uint64("count", count))
	return ids, err
}

// ToggleNesting flips nesting on the caller's tokens.
func (n *Node) ToggleNesting(caller common.Address, tokenIDs []uint64) error {
	return n.execute("toggleNesting", func() error {
		return n.moonbirds.ToggleNesting(caller, tokenIDs)
	})
}

// SafeTransferWhileNesting moves a token the caller owns. Sending to the
// marketplace address deposits it into custody.
func (n *Node) SafeTransferWhileNesting(caller, from, to common.Address, tokenID uint64) error {
	return n.execute("safeTransferWhileNesting", func() error {
		return n.moonbirds.SafeTransferWhileNesting(caller, from, to, tokenID)
	}, tokenAttr(tokenID))
}

// TransferFrom is the plain, hook-free token transfer.
func (n *Node) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	return n.execute("transferFrom", func() error {
		return n.moonbirds.TransferFrom(caller, from, to, tokenID)
	}, tokenAttr(tokenID))
}

// OwnerOf returns the token holder.
func (n *Node) OwnerOf(tokenID uint64) (common.Address, error) {
	var owner common.Address
	err := n.read(func() error {
		var err error
		owner, err = n.moonbirds.OwnerOf(tokenID)
		return err
	})
	return owner, err
}

// IsNested reports the token's nesting flag.
func (n *Node) IsNested(tokenID uint64) (bool, error) {
	var nested bool
	err := n.read(func() error {
		var err error
		nested, err = n.moonbirds.IsNested(tokenID)
		return err
	})
	return nested, err
}

// Credit mints ledger balance. It is a development faucet gated on the
// marketplace owner.
func (n *Node) Credit(caller, asset, to common.Address, amount *big.Int) error {
	return n.execute("credit", func() error {
		cfg, err := n.market.Config()
		if err != nil {
			return err
		}
		if caller != cfg.Owner {
			return ErrNotAdmin
		}
		return n.bank.Credit(asset, to, amount)
	})
}

// Approve lets spender pull asset from the caller.
func (n *Node) Approve(caller, asset, spender common.Address, amount *big.Int) error {
	return n.execute("approve", func() error {
		return n.bank.Approve(asset, caller, spender, amount)
	})
}

// Transfer moves the caller's balance.
func (n *Node) Transfer(caller, asset, to common.Address, amount *big.Int) error {
	return n.execute("transfer", func() error {
		return n.bank.Transfer(asset, caller, to, amount)
	})
}

// Balance returns an account balance. The zero asset is the native coin.
func (n *Node) Balance(asset, owner common.Address) (*big.Int, error) {
	var bal *big.Int
	err := n.read(func() error {
		var err error
		bal, err = n.bank.Balance(asset, owner)
		return err
	})
	return bal, err
}

// Allowance returns what spender may still pull from owner.
func (n *Node) Allowance(asset, owner, spender common.Address) (*big.Int, error) {
	var amount *big.Int
	err := n.read(func() error {
		var err error
		amount, err = n.bank.Allowance(asset, owner, spender)
		return err
	})
	return amount, err
}

// NativeAsset is re-exported for callers that only import core.
var NativeAsset = bank.NativeAsset

// ApproveToken sets the single-token operator approval.
func (n *Node) ApproveToken(caller, to common.Address, tokenID uint64) error {
	return n.execute("approveToken", func() error {
		return n.moonbirds.Approve(caller, to, tokenID)
	}, tokenAttr(tokenID))
}

// SetDefaultRoyalty updates the collection royalty; owner only.
func (n *Node) SetDefaultRoyalty(caller, receiver common.Address, bps uint16) error {
	return n.execute("setDefaultRoyalty", func() error {
		return n.moonbirds.SetDefaultRoyalty(caller, receiver, bps)
	})
}
