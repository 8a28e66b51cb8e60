package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentdeck/deckctl/internal/output"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents in the current workspace",
	}
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentRemoveCmd())
	return cmd
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireWorkspaces(ctx); err != nil {
				return err
			}

			agents, err := app.Client.ListAgents(ctx)
			if err != nil {
				return fmt.Errorf("listing agents: %w", err)
			}
			if len(agents) == 0 {
				app.Printer.Info("No agents in this workspace; deploy one with 'deckctl agent create'")
				return nil
			}

			table := output.NewTable([]string{"id", "name", "model", "status", "created"})
			for _, a := range agents {
				table.AddRow([]string{a.ID, a.Name, a.Model, app.Printer.StatusBadge(a.Status), a.CreatedAt.Format("2006-01-02 15:04")})
			}
			table.Render()
			return nil
		},
	}
}

func newAgentCreateCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Deploy a new agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireWorkspaces(ctx); err != nil {
				return err
			}

			created, err := app.Client.CreateAgent(ctx, args[0], model)
			if err != nil {
				return fmt.Errorf("creating agent: %w", err)
			}
			app.Printer.Success("Deployed agent %s (%s)", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model the agent runs on")
	return cmd
}

func newAgentRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireWorkspaces(ctx); err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("removing an agent is permanent; re-run with --yes to confirm")
			}

			if err := app.Client.DeleteAgent(ctx, args[0]); err != nil {
				return fmt.Errorf("removing agent: %w", err)
			}
			app.Printer.Success("Removed agent %s", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
