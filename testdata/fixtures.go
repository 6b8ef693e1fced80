// Package testdata provides embedded test vectors for use across all test packages.
package testdata

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// VectorsJSON holds known-answer vectors for signatures and CMAC
//
//go:embed vectors.json
var VectorsJSON []byte

// ShatteredPrefixHex holds the first 320 bytes of the SHAttered shattered-1.pdf
// as hex. The prefix contains both near-collision blocks, so SHA-1 collision
// detection fires on it.
//
//go:embed shattered-prefix.hex
var ShatteredPrefixHex string

// ShatteredPrefix decodes ShatteredPrefixHex.
func ShatteredPrefix() ([]byte, error) {
	b, err := hex.DecodeString(strings.Join(strings.Fields(ShatteredPrefixHex), ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode shattered prefix: %w", err)
	}
	return b, nil
}

// SignatureVector is a hash, signature and public key with the expected
// verification outcome.
type SignatureVector struct {
	Name      string `json:"name"`
	Curve     string `json:"curve"`
	PublicKey string `json:"publicKey"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
	Valid     bool   `json:"valid"`
}

// CmacVector is an AES-128 CMAC known answer. All values are hex.
type CmacVector struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
}

// Vectors is the decoded content of VectorsJSON.
type Vectors struct {
	Signatures []SignatureVector `json:"signatures"`
	Cmac       []CmacVector      `json:"cmac"`
}

// Load decodes the embedded vectors.
func Load() (*Vectors, error) {
	var v Vectors
	if err := json.Unmarshal(VectorsJSON, &v); err != nil {
		return nil, fmt.Errorf("failed to decode vectors: %w", err)
	}
	return &v, nil
}
