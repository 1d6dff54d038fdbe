package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/cache"
	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/db"
	"github.com/balkashynov/listeningroom/internal/rewards"
	"github.com/balkashynov/listeningroom/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reward server",
	Long: `Run the HTTP reward endpoint until interrupted.

Examples:
  listeningroom serve
  listeningroom serve --addr :9090
  LISTENINGROOM_DB_DRIVER=postgres LISTENINGROOM_DATABASE_URL=postgres://... listeningroom serve`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		logger := newLogger(cfg.LogLevel)

		snapshots := cache.New(cfg, logger)
		defer snapshots.Close()

		svc := rewards.NewService(db.NewSessionStore(db.DB), snapshots, rewards.NewCalculator(nil), logger)
		authn := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("database ready", "driver", cfg.DBDriver)
		return server.New(svc, authn, logger).Serve(ctx, cfg.Addr)
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from LISTENINGROOM_ADDR)")
}
