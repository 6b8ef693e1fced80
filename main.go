package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/cmd"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pkgcheck",
		Usage: "PSN PKG signature and checksum checker",
		Commands: []*cli.Command{
			cmd.CheckCommand(),
			cmd.VerifySignatureCommand(),
			cmd.CmacCommand(),
			cmd.SignCommand(),
			cmd.KeyringCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		log.Fatal(err)
	}
}
