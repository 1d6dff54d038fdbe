package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your earnings as a volunteer",
	Args:  cobra.NoArgs,
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		stats, err := c.VolunteerStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🙋 Volunteer %s\n", stats.VolunteerID)
		fmt.Fprintf(out, "📊 Sessions: %d ended, %d active\n", stats.SessionsEnded, stats.SessionsActive)
		fmt.Fprintf(out, "⏱️  Listened: %.1f minutes\n", stats.TotalMinutes)
		fmt.Fprintf(out, "⭐ Earned: %d points ($%.2f)\n", stats.TotalPoints, stats.TotalAmount)
		return nil
	}),
}
