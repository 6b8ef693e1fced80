package bignum

// Raw byte-serial primitives. Every buffer is big-endian and all operands of a
// single call share one width.

// inv256 holds, for every odd byte v, the inverse of v modulo 256, indexed by
// v/2.
var inv256 = [128]byte{
	0x01, 0xab, 0xcd, 0xb7, 0x39, 0xa3, 0xc5, 0xef,
	0xf1, 0x1b, 0x3d, 0xa7, 0x29, 0x13, 0x35, 0xdf,
	0xe1, 0x8b, 0xad, 0x97, 0x19, 0x83, 0xa5, 0xcf,
	0xd1, 0xfb, 0x1d, 0x87, 0x09, 0xf3, 0x15, 0xbf,
	0xc1, 0x6b, 0x8d, 0x77, 0xf9, 0x63, 0x85, 0xaf,
	0xb1, 0xdb, 0xfd, 0x67, 0xe9, 0xd3, 0xf5, 0x9f,
	0xa1, 0x4b, 0x6d, 0x57, 0xd9, 0x43, 0x65, 0x8f,
	0x91, 0xbb, 0xdd, 0x47, 0xc9, 0xb3, 0xd5, 0x7f,
	0x81, 0x2b, 0x4d, 0x37, 0xb9, 0x23, 0x45, 0x6f,
	0x71, 0x9b, 0xbd, 0x27, 0xa9, 0x93, 0xb5, 0x5f,
	0x61, 0x0b, 0x2d, 0x17, 0x99, 0x03, 0x25, 0x4f,
	0x51, 0x7b, 0x9d, 0x07, 0x89, 0x73, 0x95, 0x3f,
	0x41, 0xeb, 0x0d, 0xf7, 0x79, 0xe3, 0x05, 0x2f,
	0x31, 0x5b, 0x7d, 0xe7, 0x69, 0x53, 0x75, 0x1f,
	0x21, 0xcb, 0xed, 0xd7, 0x59, 0xc3, 0xe5, 0x0f,
	0x11, 0x3b, 0x5d, 0xc7, 0x49, 0x33, 0x55, 0xff,
}

// cmp compares a and b as unsigned integers and returns -1, 0 or 1.
func cmp(a, b []byte) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// addRaw sets d = a + b mod 2^(8n) and reports whether a carry fell off the top.
func addRaw(d, a, b []byte) bool {
	var c uint
	for i := len(d) - 1; i >= 0; i-- {
		dig := uint(a[i]) + uint(b[i]) + c
		d[i] = byte(dig)
		c = dig >> 8
	}
	return c != 0
}

// subRaw sets d = a - b mod 2^(8n) and reports whether a borrow was needed.
func subRaw(d, a, b []byte) bool {
	c := uint(1)
	for i := len(d) - 1; i >= 0; i-- {
		dig := uint(a[i]) + 255 - uint(b[i]) + c
		d[i] = byte(dig)
		c = dig >> 8
	}
	return c == 0
}

// reduceOnce subtracts n from d once when d >= n.
func reduceOnce(d, n []byte) {
	if cmp(d, n) >= 0 {
		subRaw(d, d, n)
	}
}

// modAdd sets d = a + b mod n for a, b < n.
func modAdd(d, a, b, n []byte) {
	if addRaw(d, a, b) {
		subRaw(d, d, n)
	}
	reduceOnce(d, n)
}

// modSub sets d = a - b mod n for a, b < n.
func modSub(d, a, b, n []byte) {
	if subRaw(d, a, b) {
		addRaw(d, d, n)
	}
}

// monMulAddDigit folds one digit of the multiplier into the running
// Montgomery accumulator d: d = (d + a*b + z*n) / 256, with z chosen so the
// division is exact.
func monMulAddDigit(d, a []byte, b byte, n []byte) {
	last := len(d) - 1
	z := -(d[last] + a[last]*b) * inv256[n[last]/2]

	dig := uint(d[last]) + uint(a[last])*uint(b) + uint(n[last])*uint(z)
	dig >>= 8

	for i := last - 1; i >= 0; i-- {
		dig += uint(d[i]) + uint(a[i])*uint(b) + uint(n[i])*uint(z)
		d[i+1] = byte(dig)
		dig >>= 8
	}

	d[0] = byte(dig)
	dig >>= 8

	if dig != 0 {
		subRaw(d, d, n)
	}
	reduceOnce(d, n)
}

// monMul returns a*b*R^-1 mod n, processing b's bytes least significant first.
func monMul(a, b, n []byte) []byte {
	t := make([]byte, len(n))
	for i := len(b) - 1; i >= 0; i-- {
		monMulAddDigit(t, a, b[i], n)
	}
	return t
}

// monExp returns a^e in Montgomery form, given a and one = R mod n in
// Montgomery form. Bits of e are consumed most significant first.
func monExp(a, e, one, n []byte) []byte {
	d := append([]byte(nil), one...)
	for _, eb := range e {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			t := monMul(d, d, n)
			if eb&mask != 0 {
				t = monMul(t, a, n)
			}
			d = t
		}
	}
	return d
}
