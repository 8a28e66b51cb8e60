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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentdeck/deckctl/internal/output"
	"github.com/agentdeck/deckctl/internal/tenant"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceSwitchCmd())
	cmd.AddCommand(newWorkspaceCreateCmd())
	cmd.AddCommand(newWorkspaceRemoveCmd())
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			workspaces, err := app.Client.ListWorkspaces(ctx)
			if err != nil {
				return fmt.Errorf("listing workspaces: %w", err)
			}
			app.Tenants.ReplaceAll(workspaces)

			renderWorkspaces(app.Tenants.List(), app.Tenants.CurrentID())
			return nil
		},
	}
}

func newWorkspaceSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch [query]",
		Short: "Make a workspace current",
		Long: `Make a workspace current. The argument may be a workspace id or a
case-insensitive name fragment. Without an argument, or when the query
is ambiguous, the matching workspaces are listed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireWorkspaces(ctx); err != nil {
				return err
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			// Exact id wins over fuzzy matching
			if query != "" {
				if err := app.Tenants.Select(query); err == nil {
					current, _ := app.Tenants.Current()
					app.Printer.Success("Switched to %s", current.Name)
					return nil
				}
			}

			matches := app.Tenants.Search(query)
			switch len(matches) {
			case 0:
				return fmt.Errorf("no workspace matches %q", query)
			case 1:
				if err := app.Tenants.Select(matches[0].ID); err != nil {
					return err
				}
				app.Printer.Success("Switched to %s", matches[0].Name)
				return nil
			default:
				renderWorkspaces(matches, app.Tenants.CurrentID())
				if query == "" {
					return fmt.Errorf("pick a workspace: deckctl workspace switch <id>")
				}
				return fmt.Errorf("%q is ambiguous (%d matches)", query, len(matches))
			}
		},
	}
}

func newWorkspaceCreateCmd() *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			created, err := app.Client.CreateWorkspace(ctx, args[0], tenant.Plan(plan))
			if err != nil {
				return fmt.Errorf("creating workspace: %w", err)
			}
			app.Tenants.UpsertOne(created)
			app.Printer.Success("Created workspace %s (%s)", created.Name, created.ID)

			if _, ok := app.Tenants.Current(); !ok {
				if err := app.Tenants.Select(created.ID); err == nil {
					app.Printer.Info("Current workspace: %s", created.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", string(tenant.PlanFree), "plan tier (free, starter, pro, enterprise)")
	return cmd
}

func newWorkspaceRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a workspace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireWorkspaces(ctx); err != nil {
				return err
			}
			id := args[0]
			if !yes {
				return fmt.Errorf("deleting a workspace is permanent; re-run with --yes to confirm")
			}

			if err := app.Client.DeleteWorkspace(ctx, id); err != nil {
				return fmt.Errorf("deleting workspace: %w", err)
			}
			app.Printer.Success("Deleted workspace %s", id)

			// The context never reselects on its own; deciding the
			// fallback is this command's job.
			if app.Tenants.RemoveOne(id) {
				if remaining := app.Tenants.List(); len(remaining) > 0 {
					if err := app.Tenants.Select(remaining[0].ID); err == nil {
						app.Printer.Info("Current workspace: %s", remaining[0].Name)
					}
				} else {
					app.Printer.Info("No workspaces left; create one with 'deckctl workspace create'")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func renderWorkspaces(workspaces []tenant.Tenant, currentID string) {
	if len(workspaces) == 0 {
		app.Printer.Info("No workspaces; create one with 'deckctl workspace create'")
		return
	}
	table := output.NewTable([]string{"", "id", "name", "plan", "status"})
	for _, ws := range workspaces {
		marker := ""
		if ws.ID == currentID {
			marker = "*"
		}
		table.AddRow([]string{marker, ws.ID, ws.Name, string(ws.Plan), app.Printer.StatusBadge(string(ws.Status))})
	}
	table.Render()
}
