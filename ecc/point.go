package ecc

import "github.com/psn-tools/pkgcheck/bignum"

// montPoint is an affine point whose coordinates are in Montgomery form. The
// zero point is the point at infinity in both representations.
type montPoint struct {
	x, y bignum.Mont
}

func (p montPoint) isInfinity() bool {
	return p.x.IsZero() && p.y.IsZero()
}

// toMontgomeryForm converts plain coordinates into Montgomery form.
func (c *Curve) toMontgomeryForm(p Point) montPoint {
	return montPoint{
		x: c.p.ToMont(mustInt(c.p, p.X[:])),
		y: c.p.ToMont(mustInt(c.p, p.Y[:])),
	}
}

// fromMontgomeryForm converts Montgomery-form coordinates back to plain form.
func (c *Curve) fromMontgomeryForm(p montPoint) Point {
	var out Point
	copy(out.X[:], c.p.FromMont(p.x).Bytes())
	copy(out.Y[:], c.p.FromMont(p.y).Bytes())
	return out
}

// onCurve checks y² = x³ + ax + b.
func (c *Curve) onCurve(p montPoint) bool {
	f := c.p
	lhs := f.Square(p.y)
	rhs := f.Mul(f.Square(p.x), p.x)
	rhs = f.Add(rhs, f.Mul(c.a, p.x))
	rhs = f.Add(rhs, c.b)
	return lhs.Equal(rhs)
}

// double returns 2p. A point with y = 0 has a vertical tangent and doubles to
// infinity.
func (c *Curve) double(p montPoint) montPoint {
	if p.y.IsZero() {
		return montPoint{}
	}
	f := c.p

	// s = (3x² + a) / 2y
	t := f.Square(p.x)
	s := f.Add(t, t)
	s = f.Add(s, t)
	s = f.Add(s, c.a)
	t = f.Add(p.y, p.y)
	s = f.Mul(s, f.Inverse(t))

	// rx = s² - 2x
	rx := f.Sub(f.Square(s), f.Add(p.x, p.x))

	// ry = s(x - rx) - y
	ry := f.Sub(f.Mul(s, f.Sub(p.x, rx)), p.y)

	return montPoint{x: rx, y: ry}
}

// add returns p + q.
func (c *Curve) add(p, q montPoint) montPoint {
	if p.isInfinity() {
		return q
	}
	if q.isInfinity() {
		return p
	}
	f := c.p

	u := f.Sub(q.x, p.x)
	if u.IsZero() {
		if f.Sub(q.y, p.y).IsZero() {
			return c.double(p)
		}
		return montPoint{}
	}

	// s = (qy - py) / (qx - px)
	s := f.Mul(f.Inverse(u), f.Sub(q.y, p.y))

	// rx = s² - (px + qx)
	rx := f.Sub(f.Square(s), f.Add(p.x, q.x))

	// ry = s(px - rx) - py
	ry := f.Sub(f.Mul(s, f.Sub(p.x, rx)), p.y)

	return montPoint{x: rx, y: ry}
}

// scalarMult computes k*p by double-and-add over every bit of k, most
// significant first, starting from infinity.
func (c *Curve) scalarMult(k []byte, p montPoint) montPoint {
	var r montPoint
	for _, kb := range k {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			r = c.double(r)
			if kb&mask != 0 {
				r = c.add(r, p)
			}
		}
	}
	return r
}
