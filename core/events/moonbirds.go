package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/types"
)

const (
	TypeMoonbirdTransfer = "moonbirds.transfer"
	TypeMoonbirdNested   = "moonbirds.nested"
	TypeMoonbirdUnnested = "moonbirds.unnested"
	TypeMoonbirdRoyalty  = "moonbirds.royalty_updated"
)

// MoonbirdTransfer is emitted whenever a token changes owner, including mints
// (From is the zero address).
type MoonbirdTransfer struct {
	From    common.Address
	To      common.Address
	TokenID uint64
	Nested  bool
}

func (MoonbirdTransfer) EventType() string { return TypeMoonbirdTransfer }

func (e MoonbirdTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeMoonbirdTransfer,
		Attributes: map[string]string{
			"from":    formatAddress(e.From),
			"to":      formatAddress(e.To),
			"tokenId": uintToString(e.TokenID),
			"nested":  strconv.FormatBool(e.Nested),
		},
	}
}

// MoonbirdNesting reports a nesting toggle.
type MoonbirdNesting struct {
	Owner   common.Address
	TokenID uint64
	Nested  bool
	At      int64
}

func (e MoonbirdNesting) EventType() string {
	if e.Nested {
		return TypeMoonbirdNested
	}
	return TypeMoonbirdUnnested
}

func (e MoonbirdNesting) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"owner":   formatAddress(e.Owner),
			"tokenId": uintToString(e.TokenID),
			"at":      strconv.FormatInt(e.At, 10),
		},
	}
}

// MoonbirdRoyaltyUpdated reports a change of the default royalty.
type MoonbirdRoyaltyUpdated struct {
	Receiver common.Address
	Bps      uint32
}

func (MoonbirdRoyaltyUpdated) EventType() string { return TypeMoonbirdRoyalty }

func (e MoonbirdRoyaltyUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeMoonbirdRoyalty,
		Attributes: map[string]string{
			"receiver": formatAddress(e.Receiver),
			"bps":      uintToString(uint64(e.Bps)),
		},
	}
}
