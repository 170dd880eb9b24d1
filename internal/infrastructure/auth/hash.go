package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSecret returns the lowercase hex SHA-256 digest of a secret value.
// Invitation tokens, OTP codes, and session tokens are stored and looked
// up only through this digest; the raw value never reaches the store.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
