package rpc

import (
	"errors"
	"net/http"

	"birdswap/core"
	"birdswap/native/bank"
	"birdswap/native/birdswap"
	"birdswap/native/moonbirds"
)

// classify maps a call failure to its HTTP status, JSON-RPC code and message.
// Marketplace reverts carry their revert reason as the message.
func classify(err error) (int, int, string) {
	var perr *paramError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest, codeInvalidParams, perr.Error()
	case errors.Is(err, core.ErrNotAdmin), errors.Is(err, birdswap.ErrUnauthorized):
		return http.StatusForbidden, codeForbidden, birdswap.Reason(err)
	case errors.Is(err, birdswap.ErrNotFound):
		return http.StatusNotFound, codeNotFound, birdswap.Reason(err)
	case errors.Is(err, birdswap.ErrDownstream):
		return http.StatusBadRequest, codeDownstream, birdswap.Reason(err)
	case errors.Is(err, birdswap.ErrInvalid),
		errors.Is(err, bank.ErrInsufficientBalance),
		errors.Is(err, bank.ErrInsufficientAllowance),
		errors.Is(err, bank.ErrInvalidAmount),
		errors.Is(err, bank.ErrNativeApproval):
		return http.StatusBadRequest, codeInvalid, birdswap.Reason(err)
	case moonbirds.Reverted(err):
		return http.StatusBadRequest, codeInvalid, err.Error()
	default:
		return http.StatusInternalServerError, codeServerError, "internal error"
	}
}

// errorData exposes the downstream cause; internal errors stay opaque.
func errorData(err error, code int) interface{} {
	switch code {
	case codeServerError, codeInvalidParams:
		return nil
	}
	if reason := birdswap.Reason(err); reason != err.Error() {
		return err.Error()
	}
	return nil
}
