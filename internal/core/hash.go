package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashDeviceFingerprint produces the opaque hash stored in place of a raw
// client device identifier. The raw value is never persisted.
func HashDeviceFingerprint(fingerprint string) string {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return ""
	}
	return hashHex(fingerprint)
}

// HashUserAgent hashes a user agent string for storage.
func HashUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return ""
	}
	return hashHex(userAgent)
}

// HashMessage normalizes message text (trim, lowercase, collapse runs of
// whitespace) and hashes it, so trivially padded repeats still match.
func HashMessage(message string) string {
	normalized := NormalizeMessage(message)
	if normalized == "" {
		return ""
	}
	return hashHex(normalized)
}

// NormalizeMessage applies the normalization used for repeat detection.
func NormalizeMessage(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

func hashHex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
