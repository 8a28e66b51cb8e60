// Copyright 2026 The AgentDeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli contains all deckctl commands
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentdeck/deckctl/internal/api"
	"github.com/agentdeck/deckctl/internal/bootstrap"
	"github.com/agentdeck/deckctl/internal/config"
	"github.com/agentdeck/deckctl/internal/observability/logger"
	"github.com/agentdeck/deckctl/internal/observability/metrics"
	"github.com/agentdeck/deckctl/internal/observability/tracing"
	"github.com/agentdeck/deckctl/internal/output"
	"github.com/agentdeck/deckctl/internal/prefs"
	"github.com/agentdeck/deckctl/internal/retry"
	"github.com/agentdeck/deckctl/internal/session"
	"github.com/agentdeck/deckctl/internal/tenant"
	"github.com/agentdeck/deckctl/internal/tokenstore"
)

var (
	cfgFile string
	verbose bool
	app     *App
	version = "dev"
)

// App holds the wired client core shared by every command
type App struct {
	Cfg     *config.Config
	Tokens  tokenstore.Store
	Session *session.Manager
	Tenants *tenant.Context
	Client  *api.Client
	Boot    *bootstrap.Bootstrapper
	Printer *output.Printer
	Tracer  *tracing.Tracer
}

// rootCmd represents the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "deckctl",
	Short: "AgentDeck workspace console CLI",
	Long: `deckctl manages your AgentDeck account, workspaces, and agents
from the terminal.

Example usage:
  deckctl login                      # Authenticate against AgentDeck
  deckctl workspace list             # List workspaces you belong to
  deckctl workspace switch acme      # Make a workspace current
  deckctl agent list                 # List agents in the current workspace
  deckctl console                    # Serve the local dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil && app.Tracer != nil {
			_ = app.Tracer.Shutdown(cmd.Context())
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/deckctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newWorkspaceCmd())
	rootCmd.AddCommand(newAgentCmd())
	rootCmd.AddCommand(newConsoleCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initApp loads configuration and wires the client core. Wiring order:
// config, logger, tracing, stores, session, tenant context, API client,
// bootstrapper.
func initApp(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.Observability.LogLevel
	if verbose {
		logLevel = "debug"
	}
	logger.InitLogger(logger.Config{
		Level:       logLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled,
	})

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Warn("failed to initialize tracer", logger.Error(err))
		tracer = nil
	}

	recorder, err := metrics.New(cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("failed to initialize metrics", logger.Error(err))
		recorder = nil
	}

	fs := afero.NewOsFs()
	dir := config.Dir()
	tokens := tokenstore.NewFile(fs, dir)
	state := prefs.New(fs, dir)

	sess := session.NewManager(tokens)
	tenants := tenant.NewContext(state)

	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Backoff:     retry.BackoffExponential,
		},
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		UserAgent:         "deckctl/" + version,
	}, sess, tenants, recorder)

	app = &App{
		Cfg:     cfg,
		Tokens:  tokens,
		Session: sess,
		Tenants: tenants,
		Client:  client,
		Boot:    bootstrap.New(tokens, sess, tenants, client),
		Printer: output.NewPrinter(),
		Tracer:  tracer,
	}
	return nil
}

// requireSession bootstraps and fails with a login hint when no
// authenticated session comes out of it. A transient verification
// failure is surfaced as-is: the stored credentials are intact and the
// next invocation retries.
func (a *App) requireSession(ctx context.Context) error {
	if err := a.Boot.Run(ctx); err != nil {
		return fmt.Errorf("could not verify stored credentials (will retry on next run): %w", err)
	}
	if !a.Session.Authenticated() {
		return fmt.Errorf("not logged in; run 'deckctl login'")
	}
	return nil
}

// requireWorkspaces is requireSession plus a loaded workspace set,
// refetching when the startup fetch failed or was skipped.
func (a *App) requireWorkspaces(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if len(a.Tenants.List()) > 0 {
		return nil
	}
	workspaces, err := a.Client.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("listing workspaces: %w", err)
	}
	a.Tenants.ReplaceAll(workspaces)
	return nil
}
