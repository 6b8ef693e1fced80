package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// runApp runs args against a root command holding every subcommand and
// returns what it wrote. Exit codes are returned as errors instead of exiting.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := &cli.Command{
		Name:      "pkgcheck",
		Writer:    &stdout,
		ErrWriter: &stderr,
		Commands: []*cli.Command{
			CheckCommand(),
			VerifySignatureCommand(),
			CmacCommand(),
			SignCommand(),
			KeyringCommand(),
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	err := app.Run(context.Background(), append([]string{"pkgcheck"}, args...))
	return stdout.String(), stderr.String(), err
}

func flagNames(flags []cli.Flag) map[string]bool {
	names := make(map[string]bool, len(flags))
	for _, flag := range flags {
		switch f := flag.(type) {
		case *cli.StringFlag:
			names[f.Name] = true
		case *cli.BoolFlag:
			names[f.Name] = true
		case *cli.IntFlag:
			names[f.Name] = true
		}
	}
	return names
}
