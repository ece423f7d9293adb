package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/transport"
)

// TriggerSecretEnv names the env var carrying the shared trigger
// secret. Without it every trigger request fails with a configuration
// error.
const TriggerSecretEnv = "POLIER_TRIGGER_SECRET"

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			secret := os.Getenv(TriggerSecretEnv)
			if secret == "" {
				logger.Warn("trigger secret not set, all trigger calls will fail", "env", TriggerSecretEnv)
			}

			server := transport.NewServer(app.Snapshots, app.Insights, app.Refresh, logger)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Handler(secret),
				ReadHeaderTimeout: 5 * time.Second,
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
			return httpServer.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8787", "Listen address")

	return cmd
}
