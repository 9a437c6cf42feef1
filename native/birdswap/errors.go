package birdswap

import "errors"

// Error kinds. Every failure returned by the engine matches exactly one of
// these with errors.Is.
var (
	ErrUnauthorized = errors.New("birdswap: unauthorized")
	ErrInvalid      = errors.New("birdswap: invalid argument")
	ErrNotFound     = errors.New("birdswap: not found")
	ErrDownstream   = errors.New("birdswap: downstream failure")
)

// RevertError carries the revert reason of a failed call together with its
// kind and, for downstream failures, the underlying cause.
type RevertError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *RevertError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Is matches a sentinel by kind and reason so a wrapped downstream error
// still compares equal to its sentinel.
func (e *RevertError) Is(target error) bool {
	t, ok := target.(*RevertError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Reason == e.Reason && t.Err == nil
}

func revert(kind error, reason string) *RevertError {
	return &RevertError{Kind: kind, Reason: reason}
}

// downstream wraps a collateral or bank failure under the given sentinel.
func downstream(sentinel *RevertError, cause error) error {
	return &RevertError{Kind: sentinel.Kind, Reason: sentinel.Reason, Err: cause}
}

// Reason returns the revert reason of err, or err.Error() for foreign errors.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var rev *RevertError
	if errors.As(err, &rev) {
		return rev.Reason
	}
	return err.Error()
}

var (
	ErrNotTransferred       = revert(ErrUnauthorized, "onERC721Received Moonbirds not transferred")
	ErrDepositWithoutAsk    = revert(ErrNotFound, "onERC721Received Cannot send Nested MB without active listing.")
	ErrDepositNotNested     = revert(ErrInvalid, "onERC721Received Moonbirds not nested")
	ErrDepositQuery         = revert(ErrDownstream, "onERC721Received collateral query failed")
	ErrCreateNotOwner       = revert(ErrUnauthorized, "createAsk must be token owner")
	ErrCreateZeroBuyer      = revert(ErrInvalid, "createAsk buyer must not be zero address")
	ErrCreateRoyaltyTooBig  = revert(ErrInvalid, "createAsk royalty fee basis points must be less than or equal to 10%")
	ErrCreateCurrency       = revert(ErrInvalid, "createAsk unsupported currency")
	ErrCreatePrice          = revert(ErrInvalid, "createAsk price must fit in 256 bits")
	ErrCreateOwnerQuery     = revert(ErrDownstream, "createAsk owner query failed")
	ErrPriceNotSeller       = revert(ErrUnauthorized, "setAskPrice must be seller")
	ErrPriceNotLower        = revert(ErrInvalid, "setAskPrice can only be used to lower the price")
	ErrCancelNoAsk          = revert(ErrNotFound, "cancelAsk must be active ask")
	ErrCancelNotSeller      = revert(ErrUnauthorized, "cancelAsk must be seller")
	ErrCancelReturn         = revert(ErrDownstream, "cancelAsk return from custody failed")
	ErrWithdrawNotDepositor = revert(ErrUnauthorized, "withdrawBird must be depositor")
	ErrWithdrawTransfer     = revert(ErrDownstream, "withdrawBird transfer failed")
	ErrFillNoAsk            = revert(ErrNotFound, "fillAsk must be active ask")
	ErrFillNotBuyer         = revert(ErrUnauthorized, "fillAsk must be buyer")
	ErrFillNotEscrowed      = revert(ErrNotFound, "fillAsk Moonbird must be escrowed before purchase")
	ErrFillCustodyQuery     = revert(ErrDownstream, "fillAsk custody query failed")
	ErrFillUnderpaid        = revert(ErrInvalid, "fillAsk incoming amount less than expected")
	ErrFillValueWithToken   = revert(ErrInvalid, "fillAsk msg value must be zero for currency asks")
	ErrFillFeeOverflow      = revert(ErrInvalid, "fillAsk fee overflow")
	ErrFillFeesExceedPrice  = revert(ErrInvalid, "fillAsk fees exceed price")
	ErrFillNoRoyaltyTarget  = revert(ErrInvalid, "fillAsk royalty recipient not set")
	ErrFillPayment          = revert(ErrDownstream, "fillAsk payment failed")
	ErrFillRoyaltyQuery     = revert(ErrDownstream, "fillAsk royalty query failed")
	ErrFillTokenTransfer    = revert(ErrDownstream, "fillAsk token transfer failed")
	ErrNotOwner             = revert(ErrUnauthorized, "Ownable: caller is not the owner")
	ErrFeeBpsTooHigh        = revert(ErrInvalid, "setMarketplaceFeeBps must be less than or equal to 10000")
	ErrZeroPayout           = revert(ErrInvalid, "setMarketplaceFeePayoutAddress must not be zero address")
	ErrZeroNewOwner         = revert(ErrInvalid, "Ownable: new owner is the zero address")
	ErrAlreadyInitialized   = revert(ErrInvalid, "Initializable: contract is already initialized")
	ErrNotInitialized       = revert(ErrNotFound, "birdswap: not initialized")
	ErrPaused               = revert(ErrUnauthorized, "birdswap: module paused")
	ErrVolumeUnavailable    = revert(ErrNotFound, "totalVolume requires schema version 2")
	ErrUpgradeTarget        = revert(ErrInvalid, "upgradeTo unsupported version")
)
