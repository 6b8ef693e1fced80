// Package crypto provides the ECDSA-style signatures used by package digest
// blocks.
//
// This package provides:
//   - Signature verification against a 160-bit curve and public key
//   - Signing with a private scalar (used to build test packages)
//   - Public key derivation
//
// Signatures are raw r‖s pairs of 20 bytes each. Hashes are 20-byte SHA-1
// digests. Scalars are widened to 21 bytes internally so that values up to
// the curve order fit alongside a carry byte.
//
// # Verification
//
// Verify a signature over a SHA-1 digest:
//
//	ok, err := crypto.Verify(curve, publicKey, sig, digest[:])
//	if err != nil {
//		return err // malformed input, not a bad signature
//	}
//
// A signature that does not match is reported as false with a nil error.
//
// # Signing
//
// Sign a digest with a 20-byte private scalar:
//
//	sig, err := crypto.Sign(rand.Reader, curve, priv, digest[:])
//	if err != nil {
//		log.Fatal(err)
//	}
package crypto

import (
	"errors"
	"fmt"
	"io"

	"github.com/psn-tools/pkgcheck/bignum"
	"github.com/psn-tools/pkgcheck/ecc"
)

const (
	// HashSize is the width of the signed digest.
	HashSize = 20

	// ScalarSize is the width of r, s and private keys.
	ScalarSize = 20

	// SignatureSize is the width of an encoded r‖s signature.
	SignatureSize = 2 * ScalarSize
)

var (
	// ErrInvalidSignatureInput reports a hash or signature of the wrong width.
	ErrInvalidSignatureInput = errors.New("invalid signature input")

	// ErrInvalidPrivateKey reports a private scalar outside [1, n-1].
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// maxSignAttempts bounds the nonce retry loop in Sign.
const maxSignAttempts = 64

// Signature is a raw r‖s signature.
type Signature struct {
	R, S [ScalarSize]byte
}

// ParseSignature decodes a 40-byte r‖s signature.
func ParseSignature(rs []byte) (Signature, error) {
	if len(rs) != SignatureSize {
		return Signature{}, fmt.Errorf("%w: signature must be %d bytes, got %d",
			ErrInvalidSignatureInput, SignatureSize, len(rs))
	}
	var sig Signature
	copy(sig.R[:], rs[:ScalarSize])
	copy(sig.S[:], rs[ScalarSize:])
	return sig, nil
}

// Bytes returns the r‖s encoding of sig.
func (sig Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, sig.R[:]...)
	return append(out, sig.S[:]...)
}

// Verify checks sig over hash with public key q. It returns an error only for
// a hash that is not HashSize bytes; every other failure, including a public
// key that is not on the curve, is reported as false.
func Verify(curve *ecc.Curve, q ecc.Point, sig Signature, hash []byte) (bool, error) {
	if len(hash) != HashSize {
		return false, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidSignatureInput, HashSize, len(hash))
	}
	if !curve.IsOnCurve(q) {
		return false, nil
	}

	n := curve.Order()
	r := wide(n, sig.R[:])
	s := wide(n, sig.S[:])
	if !inRange(n, r) || !inRange(n, s) {
		return false, nil
	}
	e := n.Reduce(wide(n, hash))

	sInv := n.Inverse(n.ToMont(s))
	w1 := n.FromMont(n.Mul(n.ToMont(e), sInv))
	w2 := n.FromMont(n.Mul(n.ToMont(r), sInv))

	pt, err := curve.LinearCombination(w1.Bytes(), w2.Bytes(), q)
	if err != nil {
		return false, fmt.Errorf("failed to compute verification point: %w", err)
	}
	if pt.IsInfinity() {
		return false, nil
	}

	x := n.Reduce(wide(n, pt.X[:]))
	return x.Equal(r), nil
}

// VerifyBytes is Verify for an encoded r‖s signature.
func VerifyBytes(curve *ecc.Curve, q ecc.Point, rs, hash []byte) (bool, error) {
	sig, err := ParseSignature(rs)
	if err != nil {
		return false, err
	}
	return Verify(curve, q, sig, hash)
}

// Sign signs hash with the private scalar priv, drawing nonces from rand.
func Sign(rand io.Reader, curve *ecc.Curve, priv, hash []byte) (Signature, error) {
	if len(hash) != HashSize {
		return Signature{}, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidSignatureInput, HashSize, len(hash))
	}
	n := curve.Order()
	d, err := privateScalar(n, priv)
	if err != nil {
		return Signature{}, err
	}
	dm := n.ToMont(d)
	em := n.ToMont(n.Reduce(wide(n, hash)))

	buf := make([]byte, ScalarSize)
	for i := 0; i < maxSignAttempts; i++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return Signature{}, fmt.Errorf("failed to read nonce: %w", err)
		}
		k := n.Reduce(wide(n, buf))
		if k.IsZero() {
			continue
		}

		pt, err := curve.ScalarBaseMult(k.Bytes())
		if err != nil {
			return Signature{}, fmt.Errorf("failed to compute nonce point: %w", err)
		}
		r := n.Reduce(wide(n, pt.X[:]))
		if r.IsZero() {
			continue
		}

		// s = k^-1 (e + r*d) mod n
		rd := n.Mul(n.ToMont(r), dm)
		sm := n.Mul(n.Inverse(n.ToMont(k)), n.Add(em, rd))
		s := n.FromMont(sm)
		if s.IsZero() {
			continue
		}

		var sig Signature
		copy(sig.R[:], r.Bytes()[1:])
		copy(sig.S[:], s.Bytes()[1:])
		return sig, nil
	}
	return Signature{}, errors.New("failed to find a usable nonce")
}

// PublicKey returns priv*G.
func PublicKey(curve *ecc.Curve, priv []byte) (ecc.Point, error) {
	d, err := privateScalar(curve.Order(), priv)
	if err != nil {
		return ecc.Point{}, err
	}
	return curve.ScalarBaseMult(d.Bytes())
}

func privateScalar(n *bignum.Modulus, priv []byte) (bignum.Int, error) {
	if len(priv) != ScalarSize {
		return bignum.Int{}, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidPrivateKey, ScalarSize, len(priv))
	}
	d := wide(n, priv)
	if !inRange(n, d) {
		return bignum.Int{}, fmt.Errorf("%w: private key must be in [1, n-1]", ErrInvalidPrivateKey)
	}
	return d, nil
}

// wide lifts a ScalarSize buffer into the order's width.
func wide(n *bignum.Modulus, b []byte) bignum.Int {
	w, err := bignum.Widen(b)
	if err != nil {
		panic(err)
	}
	v, err := n.SetBytes(w)
	if err != nil {
		panic(err)
	}
	return v
}

// inRange reports whether 0 < v < n.
func inRange(n *bignum.Modulus, v bignum.Int) bool {
	return !v.IsZero() && v.Cmp(n.Int()) < 0
}
