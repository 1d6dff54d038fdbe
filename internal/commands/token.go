package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development bearer token",
	Long: `Sign a token with LISTENINGROOM_JWT_SECRET for testing against a local server.

Examples:
  export LISTENINGROOM_TOKEN=$(listeningroom token vol-1 --role volunteer)`,
	Args: cobra.ExactArgs(1),
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		switch role {
		case "", auth.RoleVolunteer, auth.RoleSeeker:
		default:
			return fmt.Errorf("unknown role %q (use %s or %s)", role, auth.RoleVolunteer, auth.RoleSeeker)
		}

		token, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer).Issue(args[0], role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}),
}

func init() {
	tokenCmd.Flags().String("role", "", "Role claim: volunteer or seeker")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
