package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// DatabaseCommands groups schema management commands.
func DatabaseCommands(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Postgres.DSN == "" {
				return errors.New("POSTGRES_DSN is not set")
			}
			if err := persistence.RunMigrations(cfg.Postgres, logger); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	})
	return dbCmd
}
