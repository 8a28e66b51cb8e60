package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentdeck/deckctl/internal/console"
)

func newConsoleCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Serve the local dashboard",
		Long: `Serve the AgentDeck dashboard on a loopback address. The dashboard
shares the CLI's session and workspace selection; an unauthenticated
session is fine, the dashboard shows its login state instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Best effort: the dashboard works unauthenticated, a
			// transient verification failure just means a logged-out view.
			if err := app.Boot.Run(ctx); err != nil {
				app.Printer.Warning("Could not verify stored credentials: %v", err)
			}

			if addr == "" {
				addr = app.Cfg.Console.Addr
			}
			srv := console.New(console.Config{
				Addr:              addr,
				RequestsPerSecond: app.Cfg.RateLimit.RequestsPerSecond,
				Burst:             app.Cfg.RateLimit.Burst,
			}, app.Client, app.Session, app.Tenants)

			app.Printer.Info("Dashboard available at http://%s", addr)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
