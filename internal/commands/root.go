package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/client"
	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/db"
	"github.com/balkashynov/listeningroom/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "listeningroom",
	Short: "Session rewards for ListeningRoom peer support",
	Long: `listeningroom runs the session reward server and a terminal timer for
volunteers and seekers. Points accrue at 40/min for the first five minutes
and at 60/min after both agree to continue; 100 points are worth $10.00.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// withConfig wraps a command function to load configuration first.
// Persistent flags override the environment.
func withConfig(fn func(*cobra.Command, []string, *config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("server"); v != "" {
			cfg.ServerURL = v
		}
		if v, _ := cmd.Flags().GetString("token"); v != "" {
			cfg.Token = v
		}
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			cfg.LogLevel = v
		}
		return fn(cmd, args, cfg)
	}
}

// withDB wraps a command function to initialize the database first
func withDB(fn func(*cobra.Command, []string, *config.Config) error) func(*cobra.Command, []string) error {
	return withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		if err := db.Initialize(cfg); err != nil {
			return err
		}
		defer db.Close()
		return fn(cmd, args, cfg)
	})
}

// newClient builds an API client from configuration
func newClient(cfg *config.Config) (*client.Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("no token: set LISTENINGROOM_TOKEN or pass --token (mint one with 'listeningroom token <user-id>')")
	}
	return client.New(cfg.ServerURL, cfg.Token, nil), nil
}

// newLogger returns the JSON logger used by the server
// shimmerConfig applies LISTENINGROOM_REDUCE_MOTION to the TUI highlight
func shimmerConfig(cfg *config.Config) tui.ShimmerConfig {
	sc := tui.DefaultShimmerConfig()
	sc.ReduceMotion = cfg.ReduceMotion
	return sc
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("listeningroom %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Reward server URL (default from LISTENINGROOM_SERVER_URL)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (default from LISTENINGROOM_TOKEN)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.SetHelpCommand(helpCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}
