package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPayload returns the hex SHA-256 of a request body.
func HashPayload(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}
