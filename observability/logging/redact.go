package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces secrets in log output.
const RedactedValue = "[REDACTED]"

// secretKeys are the attribute keys birdswapd treats as credentials: the rpc
// bearer token under its config and header names.
var secretKeys = map[string]struct{}{
	"token":         {},
	"authtoken":     {},
	"authorization": {},
	"bearer":        {},
}

// IsSecret reports whether values logged under key must be masked.
func IsSecret(key string) bool {
	_, ok := secretKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField returns a string attribute, masking the value when the key names
// a credential. Empty values pass through so a missing token stays visible.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || !IsSecret(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}
