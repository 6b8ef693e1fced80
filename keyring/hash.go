package keyring

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHash computes the SHA256 fingerprint of encoded keyring bytes
func ComputeHash(keyringBytes []byte) string {
	sum := sha256.Sum256(keyringBytes)
	return hex.EncodeToString(sum[:])
}
