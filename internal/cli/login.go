package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against AgentDeck",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if email == "" {
				fmt.Fprint(os.Stderr, "Email: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading email: %w", err)
				}
				email = strings.TrimSpace(line)
			}
			if email == "" {
				return fmt.Errorf("email is required")
			}

			password := os.Getenv("DECKCTL_PASSWORD")
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = string(raw)
			}

			identity, err := app.Client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			app.Printer.Success("Logged in as %s", identity.Email)

			workspaces, err := app.Client.ListWorkspaces(ctx)
			if err != nil {
				app.Printer.Warning("Could not list workspaces: %v", err)
				return nil
			}
			app.Tenants.ReplaceAll(workspaces)

			if _, ok := app.Tenants.Current(); !ok && len(workspaces) == 1 {
				_ = app.Tenants.Select(workspaces[0].ID)
			}
			if current, ok := app.Tenants.Current(); ok {
				app.Printer.Info("Current workspace: %s", current.Name)
			} else if len(workspaces) > 1 {
				app.Printer.Info("You belong to %d workspaces; pick one with 'deckctl workspace switch'", len(workspaces))
			} else {
				app.Printer.Info("No workspaces yet; create one with 'deckctl workspace create'")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	return cmd
}
