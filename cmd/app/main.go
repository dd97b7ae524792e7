// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/factorauth/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Factor-derived authentication key service",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the service",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, cmd.Root().Version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-master-key",
				Usage: "Generate a new master key for the keeper KMS provider",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateMasterKey(os.Stdout)
				},
			},
			{
				Name:  "validate-setup",
				Usage: "Run an end-to-end self-test of the crypto pipeline",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunValidateSetup(ctx)
				},
			},
			{
				Name:  "rotate-master-key",
				Usage: "Activate the next master key version on the KMS provider",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "rewrap",
						Aliases: []string{"r"},
						Value:   false,
						Usage:   "Re-wrap all stored keys under the new version in the same run",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateMasterKey(ctx, cmd.Bool("rewrap"))
				},
			},
			{
				Name:  "rewrap-keys",
				Usage: "Re-wrap all stored keys under the current master key version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRewrapKeys(ctx)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
