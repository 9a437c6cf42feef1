package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/types"
)

const (
	// TypeTransfer is emitted for ledger balance movements.
	TypeTransfer = "bank.transfer"
	// TypeApproval is emitted when an allowance is set.
	TypeApproval = "bank.approval"
)

// Transfer reports a balance movement. The zero asset is the native coin.
type Transfer struct {
	Asset  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"asset":  formatAddress(e.Asset),
		"from":   formatAddress(e.From),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}}
}

// Approval reports a new spending allowance.
type Approval struct {
	Asset   common.Address
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

func (Approval) EventType() string { return TypeApproval }

func (e Approval) Event() *types.Event {
	return &types.Event{Type: TypeApproval, Attributes: map[string]string{
		"asset":   formatAddress(e.Asset),
		"owner":   formatAddress(e.Owner),
		"spender": formatAddress(e.Spender),
		"amount":  formatAmount(e.Amount),
	}}
}
