package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/keyring"
	"github.com/psn-tools/pkgcheck/keys"
)

// KeyringCommand creates the keyring commands
func KeyringCommand() *cli.Command {
	return &cli.Command{
		Name:  "keyring",
		Usage: "Export and inspect keyring files",
		Commands: []*cli.Command{
			keyringExportCommand(),
			keyringShowCommand(),
		},
	}
}

func keyringExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the embedded keys, with optional overrides, to a keyring file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Path of the keyring file to write",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "public-keys",
				Usage: "Override public keys, format: 'current:<hex>,legacy:<hex>'",
			},
		},
		Action: runKeyringExportCommand,
	}
}

func runKeyringExportCommand(ctx context.Context, cmd *cli.Command) error {
	set, err := loadKeySet(ctx, "", cmd.String("public-keys"))
	if err != nil {
		return err
	}

	out := cmd.String("out")
	b, err := keyring.WriteFile(out, keys.Export(set))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %s (sha256 %s)\n", out, keyring.ComputeHash(b))
	return nil
}

func keyringShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Decode and print a keyring file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to the keyring file",
			},
			&cli.StringFlag{
				Name:  "base64",
				Usage: "Base64-encoded keyring",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output in JSON format",
			},
		},
		Action: runKeyringShowCommand,
	}
}

func runKeyringShowCommand(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")
	b64 := cmd.String("base64")

	if filePath == "" && b64 == "" {
		return fmt.Errorf("either --file or --base64 must be provided")
	}
	if filePath != "" && b64 != "" {
		return fmt.Errorf("only one of --file or --base64 should be provided")
	}

	var kr *keyring.Keyring
	var raw []byte
	var err error
	if filePath != "" {
		kr, raw, err = keyring.DecodeFromFile(filePath)
	} else {
		kr, raw, err = keyring.DecodeFromBase64(b64)
	}
	if err != nil {
		return fmt.Errorf("failed to decode keyring: %w", err)
	}

	// Rejects keyrings whose curve or keys do not validate.
	if _, err := keys.FromKeyring(kr); err != nil {
		return fmt.Errorf("invalid keyring: %w", err)
	}

	out := cmd.Root().Writer
	hash := keyring.ComputeHash(raw)

	if cmd.Bool("json") {
		jsonBytes, err := json.MarshalIndent(struct {
			*keyring.Keyring
			Hash string `json:"hash"`
		}{kr, hash}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	fmt.Fprintf(out, "=== Keyring ===\n")
	fmt.Fprintf(out, "Version:     %d\n", kr.Version)
	fmt.Fprintf(out, "Hash:        %s\n", hash)
	fmt.Fprintf(out, "Curve:       %s\n", kr.Curve.Name)
	fmt.Fprintf(out, "  p:         %s\n", upperHex(kr.Curve.P[:]))
	fmt.Fprintf(out, "  a:         %s\n", upperHex(kr.Curve.A[:]))
	fmt.Fprintf(out, "  b:         %s\n", upperHex(kr.Curve.B[:]))
	fmt.Fprintf(out, "  n:         %s\n", upperHex(kr.Curve.N[:]))
	fmt.Fprintf(out, "  G:         %s\n", upperHex(kr.Curve.G()))
	fmt.Fprintf(out, "Package key: %s\n", upperHex(kr.PackageKey[:]))
	fmt.Fprintf(out, "Current key: %s\n", upperHex(kr.Current[:]))
	fmt.Fprintf(out, "Legacy key:  %s\n", upperHex(kr.Legacy[:]))
	return nil
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
