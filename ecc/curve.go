// Package ecc implements affine point arithmetic on short Weierstrass curves
// y² = x³ + ax + b over 160-bit prime fields.
//
// Points exchanged with callers (Point) are plain big-endian coordinates. All
// arithmetic runs on Montgomery-form coordinates; conversion happens only when
// a point enters or leaves an exported operation.
//
// The all-zero point stands for the point at infinity. It never satisfies the
// curve equation for the curves used here (b != 0) and every operation
// special-cases it.
package ecc

import (
	"errors"
	"fmt"

	"github.com/psn-tools/pkgcheck/bignum"
)

const (
	// FieldSize is the width of a coordinate.
	FieldSize = bignum.FieldSize

	// PointSize is the width of an encoded X‖Y point.
	PointSize = 2 * FieldSize

	// ScalarSize is the width of a scalar multiplier.
	ScalarSize = bignum.WideSize
)

var (
	// ErrInvalidLength is returned when a parameter, point or scalar does not
	// have the width the operation requires. It is the same kind as
	// bignum.ErrInvalidLength.
	ErrInvalidLength error = bignum.ErrInvalidLength

	// ErrPointNotOnCurve is returned when a point does not satisfy the curve
	// equation.
	ErrPointNotOnCurve = errors.New("point is not on the curve")
)

// Point is an affine point in plain coordinates.
type Point struct {
	X, Y [FieldSize]byte
}

// Infinity returns the point at infinity.
func Infinity() Point {
	return Point{}
}

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool {
	return p == Point{}
}

// Bytes returns the X‖Y encoding of p.
func (p Point) Bytes() []byte {
	out := make([]byte, 0, PointSize)
	out = append(out, p.X[:]...)
	return append(out, p.Y[:]...)
}

// ParsePoint decodes an X‖Y encoded point. It does not check the curve
// equation.
func ParsePoint(b []byte) (Point, error) {
	if len(b) != PointSize {
		return Point{}, fmt.Errorf("%w: point must be %d bytes, got %d", ErrInvalidLength, PointSize, len(b))
	}
	var p Point
	copy(p.X[:], b[:FieldSize])
	copy(p.Y[:], b[FieldSize:])
	return p, nil
}

// Curve is an immutable set of curve parameters. a, b and the base point are
// held in Montgomery form. A Curve is safe for concurrent use.
type Curve struct {
	name   string
	p      *bignum.Modulus
	n      *bignum.Modulus
	a, b   bignum.Mont
	g      montPoint
	params Params
}

// Params are a curve's defining parameters in plain big-endian form.
type Params struct {
	P, A, B, N []byte
	G          Point
}

// NewCurve builds a curve from big-endian parameters: p, a, b and n of
// FieldSize bytes and g as an X‖Y point. Both p and n must be prime and g
// must lie on the curve.
func NewCurve(name string, p, a, b, n, g []byte) (*Curve, error) {
	for _, param := range []struct {
		name string
		v    []byte
	}{{"p", p}, {"a", a}, {"b", b}, {"n", n}} {
		if len(param.v) != FieldSize {
			return nil, fmt.Errorf("%w: curve parameter %s must be %d bytes, got %d",
				ErrInvalidLength, param.name, FieldSize, len(param.v))
		}
	}
	gp, err := ParsePoint(g)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base point: %w", err)
	}

	field, err := bignum.NewModulus(p)
	if err != nil {
		return nil, fmt.Errorf("invalid field prime: %w", err)
	}
	if err := field.RequirePrime(); err != nil {
		return nil, fmt.Errorf("invalid field prime: %w", err)
	}

	wideN, err := bignum.Widen(n)
	if err != nil {
		return nil, err
	}
	order, err := bignum.NewModulus(wideN)
	if err != nil {
		return nil, fmt.Errorf("invalid curve order: %w", err)
	}
	if err := order.RequirePrime(); err != nil {
		return nil, fmt.Errorf("invalid curve order: %w", err)
	}

	c := &Curve{
		name:   name,
		p:      field,
		n:      order,
		a:      field.ToMont(mustInt(field, a)),
		b:      field.ToMont(mustInt(field, b)),
		params: Params{
			P: append([]byte(nil), p...),
			A: append([]byte(nil), a...),
			B: append([]byte(nil), b...),
			N: append([]byte(nil), n...),
			G: gp,
		},
	}
	c.g = c.toMontgomeryForm(gp)

	if !c.onCurve(c.g) {
		return nil, fmt.Errorf("base point: %w", ErrPointNotOnCurve)
	}
	return c, nil
}

// Name returns the curve's name.
func (c *Curve) Name() string {
	return c.name
}

// Field returns the field prime modulus.
func (c *Curve) Field() *bignum.Modulus {
	return c.p
}

// Order returns the curve order as a WideSize modulus.
func (c *Curve) Order() *bignum.Modulus {
	return c.n
}

// Generator returns the base point in plain coordinates.
func (c *Curve) Generator() Point {
	return c.params.G
}

// Params returns a copy of the curve's defining parameters.
func (c *Curve) Params() Params {
	return Params{
		P: append([]byte(nil), c.params.P...),
		A: append([]byte(nil), c.params.A...),
		B: append([]byte(nil), c.params.B...),
		N: append([]byte(nil), c.params.N...),
		G: c.params.G,
	}
}

// IsOnCurve reports whether p satisfies the curve equation. The point at
// infinity is not on the curve.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.IsInfinity() {
		return false
	}
	if !c.inField(p.X) || !c.inField(p.Y) {
		return false
	}
	return c.onCurve(c.toMontgomeryForm(p))
}

// Add returns p + q.
func (c *Curve) Add(p, q Point) Point {
	return c.fromMontgomeryForm(c.add(c.toMontgomeryForm(p), c.toMontgomeryForm(q)))
}

// Double returns 2p.
func (c *Curve) Double(p Point) Point {
	return c.fromMontgomeryForm(c.double(c.toMontgomeryForm(p)))
}

// ScalarMult returns k*p for a ScalarSize big-endian k.
func (c *Curve) ScalarMult(k []byte, p Point) (Point, error) {
	if len(k) != ScalarSize {
		return Point{}, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrInvalidLength, ScalarSize, len(k))
	}
	return c.fromMontgomeryForm(c.scalarMult(k, c.toMontgomeryForm(p))), nil
}

// ScalarBaseMult returns k*G for a ScalarSize big-endian k.
func (c *Curve) ScalarBaseMult(k []byte) (Point, error) {
	if len(k) != ScalarSize {
		return Point{}, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrInvalidLength, ScalarSize, len(k))
	}
	return c.fromMontgomeryForm(c.scalarMult(k, c.g)), nil
}

// LinearCombination returns u1*G + u2*q, both scalars ScalarSize bytes.
func (c *Curve) LinearCombination(u1 []byte, u2 []byte, q Point) (Point, error) {
	if len(u1) != ScalarSize || len(u2) != ScalarSize {
		return Point{}, fmt.Errorf("%w: scalars must be %d bytes", ErrInvalidLength, ScalarSize)
	}
	r1 := c.scalarMult(u1, c.g)
	r2 := c.scalarMult(u2, c.toMontgomeryForm(q))
	return c.fromMontgomeryForm(c.add(r1, r2)), nil
}

func (c *Curve) inField(v [FieldSize]byte) bool {
	pb := c.p.Bytes()
	r, _ := bignum.Compare(v[:], pb)
	return r < 0
}

// mustInt wraps a buffer whose width has already been checked.
func mustInt(m *bignum.Modulus, b []byte) bignum.Int {
	v, err := m.SetBytes(b)
	if err != nil {
		panic(err)
	}
	return v
}
