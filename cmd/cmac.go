package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/cmac"
	"github.com/psn-tools/pkgcheck/keys"
)

// CmacCommand creates the cmac command
func CmacCommand() *cli.Command {
	return &cli.Command{
		Name:  "cmac",
		Usage: "Compute the AES-128 CMAC of a message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "key",
				Usage: "CMAC key (16 bytes hex), defaults to the package key",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to the message file",
			},
			&cli.StringFlag{
				Name:  "hex",
				Usage: "Hex-encoded message",
			},
			&cli.BoolFlag{
				Name:  "wide",
				Usage: "Print the 20-byte output (four bytes of the previous block followed by the tag)",
			},
		},
		Action: runCmacCommand,
	}
}

func runCmacCommand(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")
	msgHex := cmd.String("hex")

	if filePath == "" && msgHex == "" {
		return fmt.Errorf("either --file or --hex must be provided")
	}
	if filePath != "" && msgHex != "" {
		return fmt.Errorf("only one of --file or --hex should be provided")
	}

	key := keys.PackageCmacKey()
	if k := cmd.String("key"); k != "" {
		var err error
		key, err = hex.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return fmt.Errorf("failed to decode key hex: %w", err)
		}
	}

	var msg []byte
	var err error
	if filePath != "" {
		msg, err = os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read message file: %w", err)
		}
	} else {
		msg, err = hex.DecodeString(strings.TrimSpace(msgHex))
		if err != nil {
			return fmt.Errorf("failed to decode message hex: %w", err)
		}
	}

	mac, err := cmac.New(key)
	if err != nil {
		return err
	}

	var sum []byte
	if cmd.Bool("wide") {
		wide, err := mac.SumWide(msg)
		if err != nil {
			return err
		}
		sum = wide[:]
	} else {
		tag := mac.Sum(msg)
		sum = tag[:]
	}

	fmt.Fprintln(cmd.Root().Writer, strings.ToUpper(hex.EncodeToString(sum)))
	return nil
}
