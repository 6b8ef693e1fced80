package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/cheggaaa/pb"
	"github.com/urfave/cli/v3"

	"github.com/psn-tools/pkgcheck/logging"
	"github.com/psn-tools/pkgcheck/scan"
	"github.com/psn-tools/pkgcheck/verify"
)

// CheckCommand creates the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check the signatures and checksum of PKG files",
		ArgsUsage: "<file or directory>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of packages checked at once",
				Value:   runtime.NumCPU(),
				Sources: cli.EnvVars("PKGCHECK_WORKERS"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: " + strings.Join(verify.Formats, ", "),
				Value:   verify.FormatTable,
			},
			&cli.StringFlag{
				Name:    "keyring",
				Usage:   "Keyring file replacing the embedded keys",
				Sources: cli.EnvVars("PKGCHECK_KEYRING"),
			},
			&cli.StringFlag{
				Name:  "public-keys",
				Usage: "Override public keys, format: 'current:<hex>,legacy:<hex>'",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log encoding: " + strings.Join(logging.Encodings, ", "),
				Value: logging.Console,
			},
		},
		Action: runCheckCommand,
	}
}

func runCheckCommand(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !slices.Contains(verify.Formats, format) {
		return fmt.Errorf("unsupported format: %s", format)
	}
	if cmd.NArg() == 0 {
		return fmt.Errorf("at least one file or directory must be provided")
	}

	stdout, stderr := cmd.Root().Writer, cmd.Root().ErrWriter
	logger, err := logging.NewWithEncoding(stderr, cmd.String("log-format"), cmd.Bool("verbose"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	set, err := loadKeySet(ctx, cmd.String("keyring"), cmd.String("public-keys"))
	if err != nil {
		return err
	}

	found := scan.Packages(cmd.Args().Slice(), logger)
	if err := found.Require(); err != nil {
		return err
	}
	logger.Debugw("packages found", "count", len(found.Packages), "unknown", len(found.Unknown))

	opts := []verify.Option{
		verify.WithLogger(logger),
		verify.WithWorkers(cmd.Int("workers")),
	}

	var bar *pb.ProgressBar
	if cmd.Bool("progress") {
		bar = pb.New64(totalSize(found.Packages)).SetUnits(pb.U_BYTES)
		bar.Output = stderr
		bar.Start()
		opts = append(opts, verify.WithProgress(bar))
	}

	results, err := verify.NewService(set, opts...).CheckAll(ctx, found.Packages)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("check interrupted: %w", err)
	}

	formatter := verify.NewFormatter()
	if err := formatter.Write(stdout, format, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if format == verify.FormatTable {
		fmt.Fprintln(stdout, formatter.Summary(results))
	}

	if failed := formatter.Report(results).Failed; failed > 0 {
		return cli.Exit(fmt.Sprintf("%d package(s) failed verification", failed), 1)
	}
	return nil
}

// totalSize sums the sizes of paths, ignoring files that cannot be stat'ed.
func totalSize(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
