// Package bignum implements fixed-width unsigned integer arithmetic modulo an
// odd modulus, using byte-serial Montgomery multiplication.
//
// Values are big-endian byte strings of exactly FieldSize (20) or WideSize
// (21) bytes, matching the width of the modulus they belong to. The wider form
// carries one leading zero byte so that order-sized values can absorb carries
// before their first reduction.
//
// # Representations
//
// A residue is either plain (Int) or in Montgomery form (Mont, holding a*R mod
// N with R = 2^(8*width)). The two are distinct types and only convert through
// ToMont and FromMont:
//
//	m, err := bignum.NewModulus(nBytes)
//	if err != nil {
//		return err
//	}
//	a, _ := m.SetBytes(aBytes)
//	am := m.ToMont(a)
//	inv := m.Inverse(am)
//	one := m.FromMont(m.Mul(am, inv))
//
// Inverse uses Fermat's little theorem and therefore requires a prime modulus.
// Call RequirePrime when the modulus comes from untrusted input.
//
// Nothing here runs in constant time.
package bignum

import "fmt"

const (
	// FieldSize is the width in bytes of a field element.
	FieldSize = 20

	// WideSize is the width in bytes of a value reduced modulo the curve
	// order.
	WideSize = 21
)

// Modulus is an odd modulus together with its precomputed Montgomery
// constants. It is immutable after construction and safe for concurrent use.
type Modulus struct {
	n  []byte
	r  []byte // R mod N, the Montgomery form of 1
	r2 []byte // R^2 mod N
}

// Int is a plain, non-Montgomery value of a modulus' width.
type Int struct {
	b []byte
}

// Mont is a value in Montgomery form.
type Mont struct {
	b []byte
}

// NewModulus returns the modulus n. n must be FieldSize or WideSize bytes
// with an odd low byte.
func NewModulus(n []byte) (*Modulus, error) {
	if len(n) != FieldSize && len(n) != WideSize {
		return nil, makeError(ErrInvalidLength, fmt.Sprintf(
			"modulus must be %d or %d bytes, got %d", FieldSize, WideSize, len(n)))
	}
	if n[len(n)-1]&1 == 0 {
		return nil, makeError(ErrEvenModulus, "modulus must be odd")
	}

	m := &Modulus{n: append([]byte(nil), n...)}

	// R = 2^(8w) mod N and R^2 mod N by repeated modular doubling of 1.
	acc := make([]byte, len(n))
	acc[len(acc)-1] = 1
	reduceOnce(acc, m.n)
	bits := 8 * len(n)
	for i := 0; i < bits; i++ {
		modAdd(acc, acc, acc, m.n)
	}
	m.r = append([]byte(nil), acc...)
	for i := 0; i < bits; i++ {
		modAdd(acc, acc, acc, m.n)
	}
	m.r2 = acc

	return m, nil
}

// Size returns the width in bytes of the modulus and its values.
func (m *Modulus) Size() int {
	return len(m.n)
}

// Bytes returns a copy of the modulus.
func (m *Modulus) Bytes() []byte {
	return append([]byte(nil), m.n...)
}

// Int returns the modulus itself as a plain value. It is not reduced.
func (m *Modulus) Int() Int {
	return Int{b: m.Bytes()}
}

// SetBytes wraps b as a plain value. b must have exactly the modulus' width.
// The value is not reduced.
func (m *Modulus) SetBytes(b []byte) (Int, error) {
	if len(b) != len(m.n) {
		return Int{}, makeError(ErrInvalidLength, fmt.Sprintf(
			"value must be %d bytes, got %d", len(m.n), len(b)))
	}
	return Int{b: append([]byte(nil), b...)}, nil
}

// Zero returns the plain value 0.
func (m *Modulus) Zero() Int {
	return Int{b: make([]byte, len(m.n))}
}

// Reduce subtracts the modulus once if a >= N.
func (m *Modulus) Reduce(a Int) Int {
	d := m.widthOf(a.b)
	reduceOnce(d, m.n)
	return Int{b: d}
}

// ToMont converts a plain value into Montgomery form. Values at or above the
// modulus are fully reduced first.
func (m *Modulus) ToMont(a Int) Mont {
	d := m.widthOf(a.b)
	for cmp(d, m.n) >= 0 {
		subRaw(d, d, m.n)
	}
	return Mont{b: monMul(d, m.r2, m.n)}
}

// FromMont converts a Montgomery-form value back to plain form.
func (m *Modulus) FromMont(a Mont) Int {
	one := make([]byte, len(m.n))
	one[len(one)-1] = 1
	return Int{b: monMul(m.widthOf(a.b), one, m.n)}
}

// One returns 1 in Montgomery form.
func (m *Modulus) One() Mont {
	return Mont{b: append([]byte(nil), m.r...)}
}

// Add returns a + b mod N.
func (m *Modulus) Add(a, b Mont) Mont {
	d := make([]byte, len(m.n))
	modAdd(d, m.widthOf(a.b), m.widthOf(b.b), m.n)
	return Mont{b: d}
}

// Sub returns a - b mod N.
func (m *Modulus) Sub(a, b Mont) Mont {
	d := make([]byte, len(m.n))
	modSub(d, m.widthOf(a.b), m.widthOf(b.b), m.n)
	return Mont{b: d}
}

// Mul returns the Montgomery product a*b*R^-1 mod N.
func (m *Modulus) Mul(a, b Mont) Mont {
	return Mont{b: monMul(m.widthOf(a.b), m.widthOf(b.b), m.n)}
}

// Square returns a*a in Montgomery form.
func (m *Modulus) Square(a Mont) Mont {
	return m.Mul(a, a)
}

// Exp returns a^e in Montgomery form. e is a big-endian exponent of any
// length; every bit is processed, leading zeros included.
func (m *Modulus) Exp(a Mont, e []byte) Mont {
	return Mont{b: monExp(m.widthOf(a.b), e, m.r, m.n)}
}

// Inverse returns a^-1 in Montgomery form, computed as a^(N-2). The result is
// only meaningful for a prime modulus. The inverse of zero is zero.
func (m *Modulus) Inverse(a Mont) Mont {
	two := make([]byte, len(m.n))
	two[len(two)-1] = 2
	e := make([]byte, len(m.n))
	subRaw(e, m.n, two)
	return m.Exp(a, e)
}

// RequirePrime runs a Fermat probable-prime test on the modulus against a few
// small bases. Moduli used with Inverse must pass it.
func (m *Modulus) RequirePrime() error {
	e := make([]byte, len(m.n))
	one := make([]byte, len(m.n))
	one[len(one)-1] = 1
	subRaw(e, m.n, one)

	for _, base := range []byte{2, 3, 5, 7} {
		b := make([]byte, len(m.n))
		b[len(b)-1] = base
		if cmp(b, m.n) >= 0 {
			continue
		}
		got := m.Exp(m.ToMont(Int{b: b}), e)
		if cmp(got.b, m.r) != 0 {
			return makeError(ErrPrimeModulusRequired, fmt.Sprintf(
				"modulus %x is not prime (Fermat witness %d)", m.n, base))
		}
	}
	return nil
}

// widthOf returns a copy of b zero-extended to the modulus' width. Zero-value
// Ints and Monts read as zero. A value wider than the modulus is a programming
// error.
func (m *Modulus) widthOf(b []byte) []byte {
	if len(b) > len(m.n) {
		panic(fmt.Sprintf("bignum: %d-byte value used with %d-byte modulus", len(b), len(m.n)))
	}
	d := make([]byte, len(m.n))
	copy(d[len(d)-len(b):], b)
	return d
}

// Bytes returns a copy of the big-endian value.
func (a Int) Bytes() []byte {
	return append([]byte(nil), a.b...)
}

// IsZero reports whether a is zero.
func (a Int) IsZero() bool {
	return isZero(a.b)
}

// Cmp compares a and b, which must share a width.
func (a Int) Cmp(b Int) int {
	return cmp(a.b, b.b)
}

// Equal reports whether a and b hold the same value.
func (a Int) Equal(b Int) bool {
	return len(a.b) == len(b.b) && cmp(a.b, b.b) == 0
}

// Bytes returns a copy of the big-endian Montgomery representation.
func (a Mont) Bytes() []byte {
	return append([]byte(nil), a.b...)
}

// IsZero reports whether a is zero. Zero is the same in both representations.
func (a Mont) IsZero() bool {
	return isZero(a.b)
}

// Equal reports whether a and b hold the same value.
func (a Mont) Equal(b Mont) bool {
	return len(a.b) == len(b.b) && cmp(a.b, b.b) == 0
}

// Compare compares two equal-width unsigned big-endian buffers.
func Compare(a, b []byte) (int, error) {
	if len(a) != len(b) {
		return 0, makeError(ErrInvalidLength, fmt.Sprintf(
			"operands differ in width: %d and %d", len(a), len(b)))
	}
	return cmp(a, b), nil
}

// Widen expands a FieldSize value to WideSize with a leading zero byte.
func Widen(b []byte) ([]byte, error) {
	if len(b) != FieldSize {
		return nil, makeError(ErrInvalidLength, fmt.Sprintf(
			"value must be %d bytes, got %d", FieldSize, len(b)))
	}
	w := make([]byte, WideSize)
	copy(w[1:], b)
	return w, nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
