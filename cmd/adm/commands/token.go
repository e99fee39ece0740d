package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/directory"
)

// TokenCommand mints a bearer token for an actor in the directory seed.
func TokenCommand(cfg *config.Config) *cobra.Command {
	var ttl int
	cmd := &cobra.Command{
		Use:   "token [actor-id]",
		Short: "Issue a bearer token for a directory actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := directory.LoadFile(cfg.Directory.File)
			if err != nil {
				return fmt.Errorf("load directory: %w", err)
			}
			actor, err := dir.ResolveActor(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTLMinutes
			}
			token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(actor.ID, actor.Role)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "# %s (%s) expires %s\n", actor.Name, actor.Role, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().IntVar(&ttl, "ttl", 0, "token lifetime in minutes (defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	return cmd
}
