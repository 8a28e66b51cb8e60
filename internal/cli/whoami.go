package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentdeck/deckctl/internal/output"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(cmd.Context()); err != nil {
				return err
			}

			identity := app.Session.Identity()
			app.Printer.Print("%s <%s>", app.Printer.Bold(displayName(identity.Name, identity.Email)), identity.Email)
			if identity.Role != "" {
				app.Printer.Print("Role: %s", identity.Role)
			}
			if current, ok := app.Tenants.Current(); ok {
				app.Printer.Print("Current workspace: %s (%s)", current.Name, current.ID)
			}

			if len(identity.Memberships) > 0 {
				table := output.NewTable([]string{"workspace", "role", "status"})
				for _, m := range identity.Memberships {
					table.AddRow([]string{m.TenantID, m.Role, m.Status})
				}
				table.Render()
			}
			return nil
		},
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
