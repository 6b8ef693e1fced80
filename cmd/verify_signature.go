package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/crypto"
	"github.com/psn-tools/pkgcheck/keys"
)

// VerifySignatureCommand creates the verify-signature command
func VerifySignatureCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify-signature",
		Usage: "Verify an ECDSA signature over a SHA-1 hash",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Message hash (20 bytes hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signature",
				Usage:    "Signature r‖s (40 bytes hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Public key X‖Y (40 bytes hex), defaults to the VSH key on " + keys.PackageCurve,
			},
			&cli.StringFlag{
				Name:  "curve",
				Usage: "Curve name: " + strings.Join(keys.CurveNames(), ", "),
				Value: keys.PackageCurve,
			},
		},
		Action: runVerifySignatureCommand,
	}
}

func runVerifySignatureCommand(ctx context.Context, cmd *cli.Command) error {
	curveName := cmd.String("curve")
	curve, err := keys.Curve(curveName)
	if err != nil {
		return err
	}

	q := keys.VshPublicKey()
	if pk := cmd.String("public-key"); pk != "" {
		q, err = keys.ParsePublicKey(curve, pk)
		if err != nil {
			return err
		}
	} else if curveName != keys.PackageCurve {
		// The default VSH key only lies on the package curve.
		return fmt.Errorf("--public-key is required with --curve %s", curveName)
	}

	hash, err := hex.DecodeString(strings.TrimSpace(cmd.String("hash")))
	if err != nil {
		return fmt.Errorf("failed to decode hash hex: %w", err)
	}
	rs, err := hex.DecodeString(strings.TrimSpace(cmd.String("signature")))
	if err != nil {
		return fmt.Errorf("failed to decode signature hex: %w", err)
	}

	ok, err := crypto.VerifyBytes(curve, q, rs, hash)
	if err != nil {
		return fmt.Errorf("failed to verify signature: %w", err)
	}

	out := cmd.Root().Writer
	if !ok {
		fmt.Fprintln(out, "invalid")
		return cli.Exit("signature verification failed", 1)
	}
	fmt.Fprintln(out, "valid")
	return nil
}
