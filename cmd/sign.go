package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/crypto"
	"github.com/psn-tools/pkgcheck/ecc"
	"github.com/psn-tools/pkgcheck/keys"
)

// SignCommand creates the sign command
func SignCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign a SHA-1 hash with a private key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "private-key",
				Usage:    "Private key file ('hexkey:curve'), or the key itself as 'hexkey:curve' or hex",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Message hash (20 bytes hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "curve",
				Usage: "Curve for a bare hex private key: " + strings.Join(keys.CurveNames(), ", "),
				Value: keys.PackageCurve,
			},
		},
		Action: runSignCommand,
	}
}

func runSignCommand(ctx context.Context, cmd *cli.Command) error {
	curve, priv, err := resolvePrivateKey(cmd.String("private-key"), cmd.String("curve"))
	if err != nil {
		return err
	}

	hash, err := hex.DecodeString(strings.TrimSpace(cmd.String("hash")))
	if err != nil {
		return fmt.Errorf("failed to decode hash hex: %w", err)
	}

	sig, err := crypto.Sign(rand.Reader, curve, priv, hash)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	pub, err := crypto.PublicKey(curve, priv)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().ErrWriter, "Public key: %s\n", strings.ToUpper(hex.EncodeToString(pub.Bytes())))
	fmt.Fprintln(cmd.Root().Writer, strings.ToUpper(hex.EncodeToString(sig.Bytes())))
	return nil
}

// resolvePrivateKey accepts a key file path, a "hexkey:curve" literal, or bare
// hex on curveName.
func resolvePrivateKey(value, curveName string) (*ecc.Curve, []byte, error) {
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		return keys.LoadPrivateKeyFromFile(value)
	}
	if strings.Contains(value, ":") {
		return keys.ParsePrivateKey(value)
	}

	curve, err := keys.Curve(curveName)
	if err != nil {
		return nil, nil, err
	}
	priv, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	return curve, priv, nil
}
