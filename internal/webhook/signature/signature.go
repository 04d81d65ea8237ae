// Package signature signs and verifies webhook bodies with HMAC-SHA256.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Header carries the hex signature on both inbound and outbound deliveries.
const Header = "X-Signature"

// Sign returns the lowercase hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against Sign(secret, payload) case-insensitively
// in constant time. An empty secret never verifies.
func Verify(secret string, payload []byte, signature string) bool {
	if secret == "" {
		return false
	}
	provided := strings.ToLower(strings.TrimSpace(signature))
	if provided == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(provided), []byte(expected))
}
