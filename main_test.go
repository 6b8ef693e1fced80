package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/testdata"
)

func runMain(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := app.Run(context.Background(), append([]string{"pkgcheck"}, args...))
	return buf.String(), err
}

func TestMainApp(t *testing.T) {
	t.Run("app structure", func(t *testing.T) {
		app := newApp()
		require.Equal(t, "pkgcheck", app.Name)
		require.Len(t, app.Commands, 5)

		commandNames := make(map[string]bool)
		for _, cmd := range app.Commands {
			commandNames[cmd.Name] = true
		}
		for _, name := range []string{"check", "verify-signature", "cmac", "sign", "keyring"} {
			require.True(t, commandNames[name], "missing %s command", name)
		}
		require.False(t, commandNames["invalid-command"])
	})

	t.Run("help command", func(t *testing.T) {
		output, err := runMain(t, "--help")
		require.NoError(t, err)
		require.Contains(t, output, "pkgcheck")
		require.Contains(t, output, "COMMANDS:")
	})
}

func TestMainCommands(t *testing.T) {
	for _, name := range []string{"check", "verify-signature", "cmac", "sign", "keyring"} {
		t.Run(name+" help", func(t *testing.T) {
			output, err := runMain(t, name, "--help")
			require.NoError(t, err)
			require.Contains(t, output, name)
		})
	}
}

func TestKnownAnswerVectors(t *testing.T) {
	vectors, err := testdata.Load()
	require.NoError(t, err)
	require.NotEmpty(t, vectors.Signatures)
	require.NotEmpty(t, vectors.Cmac)

	for _, v := range vectors.Signatures {
		t.Run(v.Name, func(t *testing.T) {
			output, err := runMain(t, "verify-signature",
				"--curve", v.Curve,
				"--public-key", v.PublicKey,
				"--hash", v.Hash,
				"--signature", v.Signature)
			if v.Valid {
				require.NoError(t, err)
				assert.Equal(t, "valid\n", output)
			} else {
				require.Error(t, err)
				assert.Equal(t, "invalid\n", output)
			}
		})
	}

	for _, v := range vectors.Cmac {
		if v.Message == "" {
			continue
		}
		t.Run(v.Name, func(t *testing.T) {
			output, err := runMain(t, "cmac", "--key", v.Key, "--hex", v.Message)
			require.NoError(t, err)
			assert.Equal(t, v.Tag, strings.ToLower(strings.TrimSpace(output)))
		})
	}
}
