package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rates"
	"github.com/balkashynov/listeningroom/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your sessions",
	Long: `List sessions you take part in, as volunteer or seeker. Opens an
interactive browser by default; pick an active session to watch it.`,
	Args: cobra.NoArgs,
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		if status == "all" {
			status = ""
		}
		sessions, err := c.ListSessions(cmd.Context(), status)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		}

		viewer, _ := auth.Subject(cfg.Token)
		chosen, err := tui.RunListTUI(sessions, viewer, shimmerConfig(cfg))
		if err != nil || chosen == "" {
			return err
		}
		return tui.RunTimerTUI(c, chosen, cfg.PollInterval, cfg.PollTimeout, shimmerConfig(cfg))
	}),
}

func printSessions(out io.Writer, sessions []models.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found. Start one with 'listeningroom session start'.")
		return
	}

	fmt.Fprintf(out, "%-36s %-7s %-9s %-16s %8s %9s %9s\n", "ID", "STATUS", "MODE", "STARTED", "MINUTES", "POINTS", "AMOUNT")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, s := range sessions {
		minutes := time.Duration(s.TimeSpentSeconds * float64(time.Second)).Minutes()
		fmt.Fprintf(out, "%-36s %-7s %-9s %-16s %8.1f %9d %9s\n",
			s.ID,
			s.Status,
			s.BillingMode,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			minutes,
			s.AccruedPoints,
			fmt.Sprintf("$%.2f", rates.Dollars(s.AccruedAmountCents)))
	}
}

func init() {
	listCmd.Flags().StringP("status", "s", models.StatusActive, "Filter by status: active, ended, all")
	listCmd.Flags().Bool("plain", false, "Simple text output")
}
