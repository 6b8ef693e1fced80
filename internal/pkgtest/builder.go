// Package pkgtest builds signed synthetic packages for tests.
package pkgtest

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/psn-tools/pkgcheck/cmac"
	"github.com/psn-tools/pkgcheck/crypto"
	"github.com/psn-tools/pkgcheck/ecc"
	"github.com/psn-tools/pkgcheck/keys"
	"github.com/psn-tools/pkgcheck/pkgfile"
)

// Private scalars for the test current and legacy keys on the package curve.
const (
	CurrentPrivateKey = "00C0FFEE00C0FFEE00C0FFEE00C0FFEE00C0FFEE"
	LegacyPrivateKey  = "0BADC0DE0BADC0DE0BADC0DE0BADC0DE0BADC0DE"
)

// Signer signs section digests.
type Signer struct {
	Curve   *ecc.Curve
	Private []byte
	MAC     *cmac.MAC
}

// Keys returns a key set whose current and legacy public keys belong to the
// test private keys, with the embedded curve and package CMAC key.
func Keys(t testing.TB) *keys.Set {
	t.Helper()
	def, err := keys.Default()
	if err != nil {
		t.Fatalf("failed to load default keys: %v", err)
	}
	current := publicKey(t, def.Curve, CurrentPrivateKey)
	legacy := publicKey(t, def.Curve, LegacyPrivateKey)
	set, err := def.WithPublicKeys(current, legacy)
	if err != nil {
		t.Fatalf("failed to build key set: %v", err)
	}
	return set
}

// CurrentSigner signs with the key Keys reports as current.
func CurrentSigner(t testing.TB, set *keys.Set) *Signer {
	return &Signer{Curve: set.Curve, Private: mustHex(t, CurrentPrivateKey), MAC: set.MAC()}
}

// LegacySigner signs with the key Keys reports as legacy.
func LegacySigner(t testing.TB, set *keys.Set) *Signer {
	return &Signer{Curve: set.Curve, Private: mustHex(t, LegacyPrivateKey), MAC: set.MAC()}
}

// DigestBlock builds a valid 64-byte digest block over body.
func (s *Signer) DigestBlock(body []byte) ([]byte, error) {
	sum := sha1.Sum(body)
	sig, err := crypto.Sign(rand.Reader, s.Curve, s.Private, sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign section: %w", err)
	}
	tag := s.MAC.Sum(body)

	block := make([]byte, 0, pkgfile.DigestSize)
	block = append(block, tag[:]...)
	block = append(block, sig.Bytes()...)
	block = append(block, sum[12:20]...)
	return block, nil
}

// Package describes a synthetic package.
type Package struct {
	ContentID string
	Metadata  []byte
	Content   []byte

	// Header and Meta sign the two sections. A nil signer leaves the digest
	// block zeroed.
	Header *Signer
	Meta   *Signer
}

// Build lays out the package: header, metadata with its digest block,
// content, and a trailer carrying the SHA-1 of everything before it.
func (p *Package) Build() ([]byte, error) {
	metaSize := len(p.Metadata) + pkgfile.DigestSize
	dataOffset := pkgfile.HeaderSize + metaSize
	total := dataOffset + len(p.Content) + pkgfile.TrailerSize

	h := &pkgfile.Header{
		Revision:   0x8000,
		Type:       0x0001,
		MetaOffset: pkgfile.HeaderSize,
		MetaCount:  1,
		MetaSize:   uint32(metaSize),
		ItemCount:  1,
		TotalSize:  uint64(total),
		DataOffset: uint64(dataOffset),
		DataSize:   uint64(len(p.Content)),
		ContentID:  p.ContentID,
	}
	header := h.Marshal()
	if p.Header != nil {
		block, err := p.Header.DigestBlock(header[:pkgfile.HeaderSize-pkgfile.DigestSize])
		if err != nil {
			return nil, err
		}
		copy(header[pkgfile.HeaderSize-pkgfile.DigestSize:], block)
	}

	meta := make([]byte, metaSize)
	copy(meta, p.Metadata)
	if p.Meta != nil {
		block, err := p.Meta.DigestBlock(p.Metadata)
		if err != nil {
			return nil, err
		}
		copy(meta[len(p.Metadata):], block)
	}

	out := make([]byte, 0, total)
	out = append(out, header...)
	out = append(out, meta...)
	out = append(out, p.Content...)
	out = append(out, make([]byte, pkgfile.TrailerSize)...)
	Reseal(out)
	return out, nil
}

// Reseal recomputes the trailer checksum of a built package in place.
func Reseal(pkg []byte) {
	body := len(pkg) - pkgfile.TrailerSize
	sum := sha1.Sum(pkg[:body])
	copy(pkg[body:], sum[:])
}

// Signed returns a package whose sections are signed with the current key.
func Signed(t testing.TB, set *keys.Set) []byte {
	t.Helper()
	signer := CurrentSigner(t, set)
	return Build(t, &Package{
		ContentID: "UP0001-TEST00000_00-0000000000000001",
		Metadata:  []byte("synthetic metadata section with some bytes"),
		Content:   []byte("encrypted content is not checked"),
		Header:    signer,
		Meta:      signer,
	})
}

// Build is Package.Build failing the test on error.
func Build(t testing.TB, p *Package) []byte {
	t.Helper()
	b, err := p.Build()
	if err != nil {
		t.Fatalf("failed to build package: %v", err)
	}
	return b
}

// WriteFile writes a package into dir and returns its path.
func WriteFile(t testing.TB, dir, name string, pkg []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pkg, 0644); err != nil {
		t.Fatalf("failed to write package: %v", err)
	}
	return path
}

func publicKey(t testing.TB, curve *ecc.Curve, privHex string) ecc.Point {
	t.Helper()
	q, err := crypto.PublicKey(curve, mustHex(t, privHex))
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	return q
}

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}
