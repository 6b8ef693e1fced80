package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const (
	knownHash = "ab59624d92c9c3c8d82dffca9abde44ae98e5853"
	knownRS   = "9445F62151BA0F0AAF47D1483B0D0FC6F75C3388779450C9CDE48116C966D99AA8F893A140540AFE"

	vshPublicKey = "6227B00A02856FB04108876719E0A0183291EEB96E736ABF81F70EE9161B0DDEB026761AFF7BC85B"
)

func TestVerifySignatureCommand(t *testing.T) {
	cmd := VerifySignatureCommand()

	require.NotNil(t, cmd)
	require.Equal(t, "verify-signature", cmd.Name)

	names := flagNames(cmd.Flags)
	for _, name := range []string{"hash", "signature", "public-key", "curve"} {
		assert.True(t, names[name], "Should have --%s flag", name)
	}
}

func TestRunVerifySignatureCommand(t *testing.T) {
	t.Run("known signature with the VSH key", func(t *testing.T) {
		stdout, _, err := runApp(t, "verify-signature", "--hash", knownHash, "--signature", knownRS)
		require.NoError(t, err)
		assert.Equal(t, "valid\n", stdout)
	})

	t.Run("modified hash", func(t *testing.T) {
		hash := "bb" + knownHash[2:]
		stdout, _, err := runApp(t, "verify-signature", "--hash", hash, "--signature", knownRS)
		require.Error(t, err)

		var exitErr cli.ExitCoder
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Equal(t, "invalid\n", stdout)
	})

	t.Run("other curve needs an explicit public key", func(t *testing.T) {
		stdout, _, err := runApp(t, "verify-signature", "--curve", "vsh-1", "--hash", knownHash, "--signature", knownRS)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--public-key is required with --curve vsh-1")
		assert.Empty(t, stdout)
	})

	t.Run("VSH key on the other curve is rejected", func(t *testing.T) {
		_, _, err := runApp(t, "verify-signature", "--curve", "vsh-1", "--public-key", vshPublicKey,
			"--hash", knownHash, "--signature", knownRS)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not on the curve")
	})

	t.Run("unknown curve", func(t *testing.T) {
		_, _, err := runApp(t, "verify-signature", "--curve", "p256", "--hash", knownHash, "--signature", knownRS)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown curve")
	})

	t.Run("short signature", func(t *testing.T) {
		_, _, err := runApp(t, "verify-signature", "--hash", knownHash, "--signature", knownRS[:20])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to verify signature")
	})

	t.Run("bad hex", func(t *testing.T) {
		_, _, err := runApp(t, "verify-signature", "--hash", strings.Repeat("z", 40), "--signature", knownRS)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode hash hex")
	})
}
