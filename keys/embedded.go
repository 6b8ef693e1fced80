package keys

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/psn-tools/pkgcheck/cmac"
	"github.com/psn-tools/pkgcheck/ecc"
)

// Curve names.
const (
	CurveVSH1 = "vsh-1"
	CurveVSH2 = "vsh-2"
)

// curveParams holds big-endian hex parameters of a curve.
type curveParams struct {
	p, a, b, n, gx, gy string
}

var curveTable = map[string]curveParams{
	CurveVSH1: {
		p:  "FFFFFFFFFFFFFFFF00000001FFFFFFFFFFFFFFFF",
		a:  "FFFFFFFFFFFFFFFF00000001FFFFFFFFFFFFFFFC",
		b:  "65D1488C0359E234ADC95BD3908014BD91A525F9",
		n:  "FFFFFFFFFFFFFFFF0001B5C617F290EAE1DBAD8F",
		gx: "2259ACEE15489CB096A882F0AE1CF9FD8EE5F8FA",
		gy: "604358456D0A1CB2908DE90F27D75C82BEC108C0",
	},
	CurveVSH2: {
		p:  "FFFFFFFFFFFFFFFF00000001FFFFFFFFFFFFFFFF",
		a:  "FFFFFFFFFFFFFFFF00000001FFFFFFFFFFFFFFFC",
		b:  "A68BEDC33418029C1D3CE33B9A321FCCBB9E0F0B",
		n:  "FFFFFFFFFFFFFFFEFFFFB5AE3C523E63944F2127",
		gx: "128EC4256487FD8FDF64E2437BC0A1F6D5AFDE2C",
		gy: "5958557EB1DB001260425524DBC379D5AC5F4ADF",
	},
}

// Embedded key material. All public keys live on CurveVSH2.
const (
	// PackageCurve is the curve package digest blocks are signed on.
	PackageCurve = CurveVSH2

	vshPublicKeyHex    = "6227B00A02856FB04108876719E0A0183291EEB96E736ABF81F70EE9161B0DDEB026761AFF7BC85B"
	npdrmCurrentKeyHex = "E6792E446CEBA27BCADF374B99504FD8E80ADFEB3E66DE73FFE58D3291221C65018C038D3822C3C9"
	npdrmLegacyKeyHex  = "D9AAEB6054307FC0FB488B15AE11B558C75FC8A3EC4907E129C5B5CD386D94D82318B9D558777C5A"
	packageCmacKeyHex  = "2E7B71D7C9C9A14EA3221F188828B8F8"
)

var (
	curvesOnce sync.Once
	curves     map[string]*ecc.Curve
	curvesErr  error

	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// CurveNames lists the embedded curves.
func CurveNames() []string {
	names := make([]string, 0, len(curveTable))
	for name := range curveTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Curve returns the embedded curve with the given name. Curves are built once
// and shared.
func Curve(name string) (*ecc.Curve, error) {
	curvesOnce.Do(func() {
		curves = make(map[string]*ecc.Curve, len(curveTable))
		for n, params := range curveTable {
			c, err := buildCurve(n, params)
			if err != nil {
				curvesErr = fmt.Errorf("failed to build curve %s: %w", n, err)
				return
			}
			curves[n] = c
		}
	})
	if curvesErr != nil {
		return nil, curvesErr
	}
	c, ok := curves[name]
	if !ok {
		return nil, fmt.Errorf("unknown curve: %s", name)
	}
	return c, nil
}

// VshPublicKey returns the embedded VSH public key.
func VshPublicKey() ecc.Point {
	return mustPoint(vshPublicKeyHex)
}

// PackageCmacKey returns a copy of the embedded package CMAC key.
func PackageCmacKey() []byte {
	return mustHex(packageCmacKeyHex)
}

// Default returns the embedded key set. It is built once, read-only and safe
// to share between goroutines.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		curve, err := Curve(PackageCurve)
		if err != nil {
			defaultErr = err
			return
		}
		defaultSet, defaultErr = NewSet(curve, PackageCmacKey(), mustPoint(npdrmCurrentKeyHex), mustPoint(npdrmLegacyKeyHex))
	})
	return defaultSet, defaultErr
}

// Set is the key material needed to check package sections.
type Set struct {
	Curve      *ecc.Curve
	PackageKey []byte
	Current    ecc.Point
	Legacy     ecc.Point

	mac *cmac.MAC
}

// NewSet validates and assembles a key set. Both public keys must be on
// curve.
func NewSet(curve *ecc.Curve, packageKey []byte, current, legacy ecc.Point) (*Set, error) {
	mac, err := cmac.New(packageKey)
	if err != nil {
		return nil, fmt.Errorf("invalid package key: %w", err)
	}
	if !curve.IsOnCurve(current) {
		return nil, fmt.Errorf("current public key: %w", ecc.ErrPointNotOnCurve)
	}
	if !curve.IsOnCurve(legacy) {
		return nil, fmt.Errorf("legacy public key: %w", ecc.ErrPointNotOnCurve)
	}
	return &Set{
		Curve:      curve,
		PackageKey: append([]byte(nil), packageKey...),
		Current:    current,
		Legacy:     legacy,
		mac:        mac,
	}, nil
}

// MAC returns the CMAC keyed with PackageKey.
func (s *Set) MAC() *cmac.MAC {
	return s.mac
}

// WithPublicKeys returns a copy of s using the given current and legacy keys.
func (s *Set) WithPublicKeys(current, legacy ecc.Point) (*Set, error) {
	return NewSet(s.Curve, s.PackageKey, current, legacy)
}

func buildCurve(name string, params curveParams) (*ecc.Curve, error) {
	g := append(mustHex(params.gx), mustHex(params.gy)...)
	return ecc.NewCurve(name, mustHex(params.p), mustHex(params.a), mustHex(params.b), mustHex(params.n), g)
}

// mustHex decodes an embedded constant.
func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("keys: bad embedded constant %q: %v", s, err))
	}
	return b
}

func mustPoint(s string) ecc.Point {
	p, err := ecc.ParsePoint(mustHex(s))
	if err != nil {
		panic(fmt.Sprintf("keys: bad embedded point: %v", err))
	}
	return p
}
