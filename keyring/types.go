// Package keyring provides types and codecs for keyring files.
//
// A keyring is a Borsh-encoded bundle of the key material needed to check
// packages: the signing curve, the package CMAC key and the current and
// legacy public keys. Loading a keyring overrides the embedded defaults.
//
// # Keyring Structure
//
// A keyring contains:
//   - Version: format version, currently 1
//   - Curve: name and parameters p, a, b, n and base point (Gx, Gy)
//   - PackageKey: 16-byte AES-128 CMAC key
//   - Current: public key tried first
//   - Legacy: public key tried when Current does not verify
//
// # Parsing
//
// Decode keyrings using DecodeFromFile or DecodeFromBase64:
//
//	kr, raw, err := keyring.DecodeFromFile("keys.bin")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Compute a fingerprint to compare keyrings:
//
//	fp := keyring.ComputeHash(raw)
package keyring

import (
	"encoding/hex"
	"encoding/json"
)

// CurrentVersion is the keyring format version written by Encode.
const CurrentVersion uint8 = 1

// Field is a 20-byte big-endian curve parameter or coordinate.
type Field [20]byte

// MarshalJSON renders the field as hex.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(f[:]))
}

// PublicKey is an X‖Y encoded curve point.
type PublicKey [40]byte

// MarshalJSON renders the key as hex.
func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(k[:]))
}

// CmacKey is a 16-byte AES-128 key.
type CmacKey [16]byte

// MarshalJSON renders the key as hex.
func (k CmacKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(k[:]))
}

type CurveParams struct {
	Name string `borsh:"name" json:"name"`
	P    Field  `borsh:"p" json:"p"`
	A    Field  `borsh:"a" json:"a"`
	B    Field  `borsh:"b" json:"b"`
	N    Field  `borsh:"n" json:"n"`
	Gx   Field  `borsh:"gx" json:"gx"`
	Gy   Field  `borsh:"gy" json:"gy"`
}

// G returns the X‖Y base point.
func (c CurveParams) G() []byte {
	return append(append([]byte(nil), c.Gx[:]...), c.Gy[:]...)
}

type Keyring struct {
	Version    uint8       `borsh:"version" json:"version"`
	Curve      CurveParams `borsh:"curve" json:"curve"`
	PackageKey CmacKey     `borsh:"package_key" json:"packageKey"`
	Current    PublicKey   `borsh:"current" json:"current"`
	Legacy     PublicKey   `borsh:"legacy" json:"legacy"`
}
