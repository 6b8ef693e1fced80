// Package keys provides the key material used to check packages.
//
// The embedded defaults carry the two VSH curves, the VSH public key, the
// NPDRM current and legacy public keys and the package CMAC key. A keyring
// file (see the keyring package) can replace them.
//
// # Loading Keys
//
// Use a KeyProvider so callers do not care where keys come from:
//
//	var provider keys.KeyProvider = keys.EmbeddedProvider{}
//	if path != "" {
//		provider = &keys.FileKeyProvider{Path: path}
//	}
//	set, err := provider.Keys(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Private Key Files
//
// Signing reads a private key file with the format "hexkey:curve" where:
//   - hexkey: Hex-encoded 20-byte private scalar (40 hex characters)
//   - curve: Curve name, vsh-1 or vsh-2
package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/psn-tools/pkgcheck/ecc"
	"github.com/psn-tools/pkgcheck/keyring"
)

// KeyProvider supplies the key set used for checking.
type KeyProvider interface {
	Keys(ctx context.Context) (*Set, error)
}

// EmbeddedProvider implements KeyProvider with the embedded defaults
type EmbeddedProvider struct{}

// Keys returns the embedded key set
func (EmbeddedProvider) Keys(ctx context.Context) (*Set, error) {
	return Default()
}

// FileKeyProvider implements KeyProvider by reading a keyring file
type FileKeyProvider struct {
	Path string
}

// Keys loads the key set from the keyring file
func (f *FileKeyProvider) Keys(ctx context.Context) (*Set, error) {
	kr, _, err := keyring.DecodeFromFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyring %s: %w", f.Path, err)
	}
	return FromKeyring(kr)
}

// FromKeyring builds a key set from decoded keyring contents.
func FromKeyring(kr *keyring.Keyring) (*Set, error) {
	c := kr.Curve
	curve, err := ecc.NewCurve(c.Name, c.P[:], c.A[:], c.B[:], c.N[:], c.G())
	if err != nil {
		return nil, fmt.Errorf("invalid keyring curve: %w", err)
	}
	current, err := ecc.ParsePoint(kr.Current[:])
	if err != nil {
		return nil, err
	}
	legacy, err := ecc.ParsePoint(kr.Legacy[:])
	if err != nil {
		return nil, err
	}
	return NewSet(curve, kr.PackageKey[:], current, legacy)
}

// Export converts a key set into keyring contents.
func Export(s *Set) *keyring.Keyring {
	kr := &keyring.Keyring{
		Version: keyring.CurrentVersion,
		Curve:   keyring.CurveParams{Name: s.Curve.Name()},
	}
	params := s.Curve.Params()
	copy(kr.Curve.P[:], params.P)
	copy(kr.Curve.A[:], params.A)
	copy(kr.Curve.B[:], params.B)
	copy(kr.Curve.N[:], params.N)
	kr.Curve.Gx = params.G.X
	kr.Curve.Gy = params.G.Y

	copy(kr.PackageKey[:], s.PackageKey)
	copy(kr.Current[:], s.Current.Bytes())
	copy(kr.Legacy[:], s.Legacy.Bytes())
	return kr
}

// ParsePublicKey decodes a hex X‖Y public key and checks it against curve.
func ParsePublicKey(curve *ecc.Curve, s string) (ecc.Point, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return ecc.Point{}, fmt.Errorf("failed to decode public key hex: %w", err)
	}
	p, err := ecc.ParsePoint(b)
	if err != nil {
		return ecc.Point{}, err
	}
	if !curve.IsOnCurve(p) {
		return ecc.Point{}, fmt.Errorf("public key %s: %w", s, ecc.ErrPointNotOnCurve)
	}
	return p, nil
}

// LoadPrivateKeyFromFile reads a "hexkey:curve" private key file and returns
// the curve and the private scalar.
func LoadPrivateKeyFromFile(path string) (*ecc.Curve, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return ParsePrivateKey(string(content))
}

// ParsePrivateKey parses the "hexkey:curve" private key format.
func ParsePrivateKey(s string) (*ecc.Curve, []byte, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return nil, nil, errors.New("invalid private key format, expected 'hexkey:curve'")
	}

	curve, err := Curve(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("unsupported curve: %s", parts[1])
	}

	priv, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	return curve, priv, nil
}
