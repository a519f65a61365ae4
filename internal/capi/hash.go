// Package capi builds and transmits server-side conversion events with
// hashed PII, following the advertising platform's matching requirements.
package capi

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashField normalizes and one-way-hashes a PII field: trim, lower-case,
// SHA-256, lower-hex. Returns "" for empty input so callers can decide
// between empty arrays and omitted fields.
func HashField(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	if clean == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone reduces a raw phone number to the digits-only national form
// used for hashing: strip non-digits, drop a single leading zero, and prefix
// the country code when exactly 10 digits remain. This is a best-effort
// national-number assumption, not general E.164 normalization.
func NormalizePhone(raw, countryPrefix string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	digits = strings.TrimPrefix(digits, "0")

	if len(digits) == 10 && countryPrefix != "" {
		return countryPrefix + digits
	}
	return digits
}

// SplitName divides a full name on whitespace into a first name and the
// remaining tokens joined as last name. A single token yields an empty
// last name.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
