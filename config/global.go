package config

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "birdswap/native/common"
)

// Address parses an optional hex address; empty strings yield the zero
// address. Validate has already rejected malformed values.
func Address(value string) common.Address {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}
	}
	return common.HexToAddress(value)
}

// PauseView returns the configured module pauses.
func (p Pauses) PauseView() nativecommon.StaticPauses {
	return nativecommon.StaticPauses{
		"birdswap":  p.Birdswap,
		"moonbirds": p.Moonbirds,
	}
}
