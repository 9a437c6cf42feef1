package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func invalidParam(format string, args ...interface{}) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}

// callParams is the single parameter object every method accepts. Each
// handler reads only the fields it needs.
type callParams struct {
	Caller               string   `json:"caller,omitempty"`
	TokenID              *uint64  `json:"tokenId,omitempty"`
	TokenIDs             []uint64 `json:"tokenIds,omitempty"`
	Buyer                string   `json:"buyer,omitempty"`
	From                 string   `json:"from,omitempty"`
	To                   string   `json:"to,omitempty"`
	Owner                string   `json:"owner,omitempty"`
	Spender              string   `json:"spender,omitempty"`
	Asset                string   `json:"asset,omitempty"`
	Currency             string   `json:"currency,omitempty"`
	Address              string   `json:"address,omitempty"`
	AskCurrency          string   `json:"askCurrency,omitempty"`
	SellerFundsRecipient string   `json:"sellerFundsRecipient,omitempty"`
	AskPrice             string   `json:"askPrice,omitempty"`
	Value                string   `json:"value,omitempty"`
	Amount               string   `json:"amount,omitempty"`
	RoyaltyFeeBps        *uint32  `json:"royaltyFeeBps,omitempty"`
	Bps                  *uint32  `json:"bps,omitempty"`
	Version              *uint32  `json:"version,omitempty"`
	Count                *uint64  `json:"count,omitempty"`
	Limit                int      `json:"limit,omitempty"`
}

func decodeParams(raw []json.RawMessage) (*callParams, error) {
	p := &callParams{}
	switch len(raw) {
	case 0:
		return p, nil
	case 1:
		if err := json.Unmarshal(raw[0], p); err != nil {
			return nil, invalidParam("invalid parameter object: %v", err)
		}
		return p, nil
	default:
		return nil, invalidParam("expected a single parameter object")
	}
}

func parseAddress(field, value string, required bool) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return common.Address{}, invalidParam("%s is required", field)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, invalidParam("%s: invalid address %q", field, value)
	}
	return common.HexToAddress(value), nil
}

// parseAmount accepts decimal or 0x-prefixed hex integers.
func parseAmount(field, value string, required bool) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return nil, invalidParam("%s is required", field)
		}
		return big.NewInt(0), nil
	}
	var (
		amount *big.Int
		err    error
	)
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		amount, err = hexutil.DecodeBig(value)
	} else {
		var ok bool
		amount, ok = new(big.Int).SetString(value, 10)
		if !ok {
			err = fmt.Errorf("not a decimal integer")
		}
	}
	if err != nil {
		return nil, invalidParam("%s: %v", field, err)
	}
	if amount.Sign() < 0 {
		return nil, invalidParam("%s must not be negative", field)
	}
	return amount, nil
}

func (p *callParams) caller() (common.Address, error) {
	return parseAddress("caller", p.Caller, true)
}

func (p *callParams) tokenID() (uint64, error) {
	if p.TokenID == nil {
		return 0, invalidParam("tokenId is required")
	}
	return *p.TokenID, nil
}

func bps(field string, value *uint32) (uint16, error) {
	if value == nil {
		return 0, invalidParam("%s is required", field)
	}
	if *value > 0xffff {
		return 0, invalidParam("%s out of range", field)
	}
	return uint16(*value), nil
}
