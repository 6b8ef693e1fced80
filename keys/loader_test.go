package keys

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psn-tools/pkgcheck/ecc"
	"github.com/psn-tools/pkgcheck/keyring"
)

func TestDefault(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	assert.Equal(t, CurveVSH2, set.Curve.Name())
	assert.Equal(t, strings.ToLower(packageCmacKeyHex), hex.EncodeToString(set.PackageKey))
	assert.True(t, set.Curve.IsOnCurve(set.Current))
	assert.True(t, set.Curve.IsOnCurve(set.Legacy))
	assert.NotEqual(t, set.Current, set.Legacy)
	assert.NotNil(t, set.MAC())

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, set, again)
}

func TestCurve(t *testing.T) {
	assert.Equal(t, []string{CurveVSH1, CurveVSH2}, CurveNames())

	for _, name := range CurveNames() {
		t.Run(name, func(t *testing.T) {
			c, err := Curve(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			// The order annihilates the base point.
			r, err := c.ScalarBaseMult(c.Order().Bytes())
			require.NoError(t, err)
			assert.True(t, r.IsInfinity())
		})
	}

	t.Run("unknown curve", func(t *testing.T) {
		_, err := Curve("p256")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown curve")
	})
}

func TestVshPublicKey(t *testing.T) {
	vsh2, err := Curve(CurveVSH2)
	require.NoError(t, err)
	vsh1, err := Curve(CurveVSH1)
	require.NoError(t, err)

	assert.True(t, vsh2.IsOnCurve(VshPublicKey()))
	assert.False(t, vsh1.IsOnCurve(VshPublicKey()))
}

func TestNewSet(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	t.Run("invalid package key", func(t *testing.T) {
		_, err := NewSet(set.Curve, make([]byte, 8), set.Current, set.Legacy)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid package key")
	})

	t.Run("current key off the curve", func(t *testing.T) {
		_, err := NewSet(set.Curve, set.PackageKey, ecc.Point{}, set.Legacy)
		require.ErrorIs(t, err, ecc.ErrPointNotOnCurve)
	})

	t.Run("legacy key off the curve", func(t *testing.T) {
		_, err := NewSet(set.Curve, set.PackageKey, set.Current, ecc.Point{X: set.Legacy.X})
		require.ErrorIs(t, err, ecc.ErrPointNotOnCurve)
	})

	t.Run("swapped public keys", func(t *testing.T) {
		swapped, err := set.WithPublicKeys(set.Legacy, set.Current)
		require.NoError(t, err)
		assert.Equal(t, set.Legacy, swapped.Current)
		assert.Equal(t, set.Current, swapped.Legacy)
		assert.Same(t, set.Curve, swapped.Curve)
	})
}

func TestEmbeddedProvider(t *testing.T) {
	set, err := EmbeddedProvider{}.Keys(context.Background())
	require.NoError(t, err)

	def, err := Default()
	require.NoError(t, err)
	assert.Same(t, def, set)
}

func TestFileKeyProvider(t *testing.T) {
	def, err := Default()
	require.NoError(t, err)

	t.Run("exported keyring round trips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keys.bin")
		_, err := keyring.WriteFile(path, Export(def))
		require.NoError(t, err)

		provider := &FileKeyProvider{Path: path}
		set, err := provider.Keys(context.Background())
		require.NoError(t, err)

		assert.Equal(t, def.Curve.Name(), set.Curve.Name())
		assert.Equal(t, def.Curve.Params(), set.Curve.Params())
		assert.Equal(t, def.PackageKey, set.PackageKey)
		assert.Equal(t, def.Current, set.Current)
		assert.Equal(t, def.Legacy, set.Legacy)
	})

	t.Run("missing file", func(t *testing.T) {
		provider := &FileKeyProvider{Path: filepath.Join(t.TempDir(), "missing.bin")}
		_, err := provider.Keys(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load keyring")
	})

	t.Run("keyring with invalid curve", func(t *testing.T) {
		kr := Export(def)
		kr.Curve.Gy[0] ^= 0xFF
		_, err := FromKeyring(kr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid keyring curve")
	})
}

func TestExport(t *testing.T) {
	def, err := Default()
	require.NoError(t, err)

	kr := Export(def)
	assert.Equal(t, keyring.CurrentVersion, kr.Version)
	assert.Equal(t, CurveVSH2, kr.Curve.Name)
	assert.Equal(t, strings.ToLower(npdrmCurrentKeyHex), hex.EncodeToString(kr.Current[:]))
	assert.Equal(t, strings.ToLower(npdrmLegacyKeyHex), hex.EncodeToString(kr.Legacy[:]))
	assert.Equal(t, strings.ToLower(curveTable[CurveVSH2].n), hex.EncodeToString(kr.Curve.N[:]))
}

func TestParsePublicKey(t *testing.T) {
	curve, err := Curve(CurveVSH2)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "vsh key", input: vshPublicKeyHex},
		{name: "surrounding whitespace", input: " " + npdrmLegacyKeyHex + "\n"},
		{name: "invalid hex", input: "zz", wantErr: "failed to decode public key hex"},
		{name: "wrong length", input: "0102", wantErr: "point must be 40 bytes"},
		{name: "off the curve", input: strings.Repeat("00", 39) + "01", wantErr: "not on the curve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePublicKey(curve, tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, curve.IsOnCurve(p))
		})
	}
}

func TestParsePrivateKey(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCurve string
		wantErr   string
	}{
		{
			name:      "valid vsh-2 key",
			content:   "00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee:vsh-2",
			wantCurve: CurveVSH2,
		},
		{
			name:      "trailing newline",
			content:   "00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee:vsh-1\n",
			wantCurve: CurveVSH1,
		},
		{
			name:    "missing curve",
			content: "00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee",
			wantErr: "invalid private key format",
		},
		{
			name:    "unsupported curve",
			content: "00c0ffee:p256",
			wantErr: "unsupported curve: p256",
		},
		{
			name:    "invalid hex",
			content: "not-hex:vsh-2",
			wantErr: "failed to decode private key hex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve, priv, err := ParsePrivateKey(tt.content)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurve, curve.Name())
			assert.Len(t, priv, 20)
		})
	}
}

func TestLoadPrivateKeyFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "signer.private")
		require.NoError(t, os.WriteFile(path, []byte("00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee:vsh-2\n"), 0600))

		curve, priv, err := LoadPrivateKeyFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, CurveVSH2, curve.Name())
		assert.Equal(t, "00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee", hex.EncodeToString(priv))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadPrivateKeyFromFile(filepath.Join(dir, "missing.private"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read private key file")
	})
}
