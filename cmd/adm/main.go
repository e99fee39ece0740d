// Package main provides the complaint-service admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/cmd/adm/commands"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg.Logger.Level = "error"
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync() //nolint:errcheck

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Complaint service administration tool",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.TokenCommand(cfg))
	rootCmd.AddCommand(commands.DirectoryCommands(cfg, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(cfg, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
