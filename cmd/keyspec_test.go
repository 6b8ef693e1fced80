package cmd

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psn-tools/pkgcheck/internal/pkgtest"
	"github.com/psn-tools/pkgcheck/keyring"
	"github.com/psn-tools/pkgcheck/keys"
)

func TestParsePublicKeys(t *testing.T) {
	def, err := keys.Default()
	require.NoError(t, err)
	test := pkgtest.Keys(t)
	currentHex := hex.EncodeToString(test.Current.Bytes())
	legacyHex := hex.EncodeToString(test.Legacy.Bytes())
	off := test.Current.Bytes()
	off[len(off)-1] ^= 0x01
	offHex := hex.EncodeToString(off)

	tests := []struct {
		name        string
		input       string
		wantCurrent bool
		wantLegacy  bool
		wantError   string
	}{
		{name: "empty string", input: ""},
		{name: "current only", input: "current:" + currentHex, wantCurrent: true},
		{name: "legacy only", input: "legacy:" + legacyHex, wantLegacy: true},
		{
			name:        "both with whitespace",
			input:       " current:" + currentHex + " , legacy:" + legacyHex + " ",
			wantCurrent: true,
			wantLegacy:  true,
		},
		{name: "case insensitive name", input: "CURRENT:" + currentHex, wantCurrent: true},
		{name: "missing colon", input: "current" + currentHex, wantError: "expected format 'name:hex_value'"},
		{name: "unknown name", input: "other:" + currentHex, wantError: "unknown public key name"},
		{name: "invalid hex", input: "current:zz", wantError: "invalid current public key"},
		{name: "wrong length", input: "current:abcd", wantError: "invalid current public key"},
		{name: "off curve", input: "legacy:" + offHex, wantError: "invalid legacy public key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePublicKeys(def.Curve, tt.input)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, got.Current != nil)
			assert.Equal(t, tt.wantLegacy, got.Legacy != nil)
			if got.Current != nil {
				assert.Equal(t, test.Current, *got.Current)
			}
			if got.Legacy != nil {
				assert.Equal(t, test.Legacy, *got.Legacy)
			}
		})
	}
}

func TestPublicKeyOverridesApply(t *testing.T) {
	def, err := keys.Default()
	require.NoError(t, err)
	test := pkgtest.Keys(t)

	t.Run("no overrides keeps the set", func(t *testing.T) {
		got, err := (&PublicKeyOverrides{}).Apply(def)
		require.NoError(t, err)
		assert.Same(t, def, got)
	})

	t.Run("current only", func(t *testing.T) {
		got, err := (&PublicKeyOverrides{Current: &test.Current}).Apply(def)
		require.NoError(t, err)
		assert.Equal(t, test.Current, got.Current)
		assert.Equal(t, def.Legacy, got.Legacy)
		assert.Equal(t, def.PackageKey, got.PackageKey)
	})
}

func TestLoadKeySet(t *testing.T) {
	ctx := context.Background()
	def, err := keys.Default()
	require.NoError(t, err)

	t.Run("embedded", func(t *testing.T) {
		set, err := loadKeySet(ctx, "", "")
		require.NoError(t, err)
		assert.Same(t, def, set)
	})

	t.Run("keyring file", func(t *testing.T) {
		test := pkgtest.Keys(t)
		path := filepath.Join(t.TempDir(), "keys.bin")
		_, err := keyring.WriteFile(path, keys.Export(test))
		require.NoError(t, err)

		set, err := loadKeySet(ctx, path, "")
		require.NoError(t, err)
		assert.Equal(t, test.Current, set.Current)
		assert.Equal(t, test.Legacy, set.Legacy)
	})

	t.Run("missing keyring", func(t *testing.T) {
		_, err := loadKeySet(ctx, filepath.Join(t.TempDir(), "none.bin"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load keys")
	})

	t.Run("bad override", func(t *testing.T) {
		_, err := loadKeySet(ctx, "", "current:00")
		require.Error(t, err)
	})
}
