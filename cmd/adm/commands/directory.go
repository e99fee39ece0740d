package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// DirectoryCommands groups directory inspection commands.
func DirectoryCommands(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	dirCmd := &cobra.Command{
		Use:   "directory",
		Short: "Inspect the actor directory seed",
	}
	dirCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List actors in the directory seed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := directory.LoadFile(cfg.Directory.File)
			if err != nil {
				return fmt.Errorf("load directory: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-8s %-24s %s\n", "ID", "ROLE", "NAME", "SCOPE")
			for _, actor := range dir.Actors() {
				scope := actor.ClassID
				if len(actor.Classes) > 0 {
					scope = strings.Join(actor.Classes, ",")
				}
				fmt.Fprintf(out, "%-12s %-8s %-24s %s\n", actor.ID, actor.Role, actor.Name, scope)
			}
			return nil
		},
	})
	dirCmd.AddCommand(&cobra.Command{
		Use:   "flush <actor-id>...",
		Short: "Drop cached directory entries so the next lookup reads the seed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Redis.Addr == "" {
				return errors.New("REDIS_ADDR is not set")
			}
			rdb := persistence.NewRedis(cmd.Context(), cfg.Redis, logger)
			defer rdb.Close()

			dir, err := directory.LoadFile(cfg.Directory.File)
			if err != nil {
				return fmt.Errorf("load directory: %w", err)
			}
			cached := directory.NewCachedDirectory(dir, rdb.Client, cfg.Redis.DirectoryCacheTTL(), logger)
			for _, id := range args {
				if err := cached.Invalidate(cmd.Context(), id); err != nil {
					return fmt.Errorf("flush %s: %w", id, err)
				}
				cmd.Printf("flushed %s\n", id)
			}
			return nil
		},
	})
	return dirCmd
}
