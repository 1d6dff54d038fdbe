package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/db"
	"github.com/balkashynov/listeningroom/internal/rates"
	"github.com/balkashynov/listeningroom/internal/rewards"
	"github.com/balkashynov/listeningroom/internal/tui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start, end and inspect sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Create an active session for a volunteer and a seeker",
	Long: `Create an active session directly in storage, the way the matching
service does once a volunteer accepts a seeker.

Examples:
  listeningroom session start --volunteer vol-1 --seeker seek-1
  listeningroom session start            # interactive form`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		volunteer, _ := cmd.Flags().GetString("volunteer")
		seeker, _ := cmd.Flags().GetString("seeker")
		noUI, _ := cmd.Flags().GetBool("no-ui")

		if (volunteer == "" || seeker == "") && !noUI {
			var ok bool
			var err error
			volunteer, seeker, ok, err = tui.RunStartTUI(volunteer, seeker)
			if err != nil || !ok {
				return err
			}
		}

		svc := rewards.NewService(db.NewSessionStore(db.DB), nil, nil, newLogger("warn"))
		session, err := svc.Start(cmd.Context(), volunteer, seeker)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Session started - ID: %s\n", session.ID)
		fmt.Fprintf(out, "   %s listening to %s since %s\n", session.VolunteerID, session.SeekerID, session.StartedAt.Local().Format("15:04:05"))
		fmt.Fprintf(out, "   Use 'listeningroom watch %s' to follow rewards.\n", session.ID)
		return nil
	}),
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End a session and show its final rewards",
	Args:  cobra.ExactArgs(1),
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		snap, err := c.End(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "⏹️  Ended session %s\n", snap.SessionID)
		fmt.Fprintf(out, "📊 %s listened · %s · %d points · $%.2f\n",
			formatDuration(snap.Elapsed()), snap.BillingMode, snap.CurrentPoints, snap.CurrentAmount)
		return nil
	}),
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show the decisions recorded for a session",
	Args:  cobra.ExactArgs(1),
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		records, err := c.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No decisions recorded yet.")
			return nil
		}
		fmt.Fprintf(out, "%-8s %-9s %-9s %9s %9s %9s\n", "TIME", "ACTION", "MODE", "ELAPSED", "POINTS", "AMOUNT")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, r := range records {
			action := r.Action
			if r.Final {
				action += "*"
			}
			fmt.Fprintf(out, "%-8s %-9s %-9s %9.0fs %9d %9s\n",
				r.TakenAt.Local().Format("15:04:05"),
				action,
				r.BillingMode,
				r.TimeSpentSeconds,
				r.Points,
				fmt.Sprintf("$%.2f", rates.Dollars(r.AmountCents)))
		}
		return nil
	}),
}

func init() {
	sessionStartCmd.Flags().String("volunteer", "", "Volunteer user ID")
	sessionStartCmd.Flags().String("seeker", "", "Seeker user ID")
	sessionStartCmd.Flags().Bool("no-ui", false, "Fail instead of opening the form when IDs are missing")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
}
