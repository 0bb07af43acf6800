package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/server"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

func newTrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Decide whether a workspace may choose its own shell",
	}

	cmd.AddCommand(newTrustDecisionCmd("allow", "Let the workspace shell setting launch", trust.Allowed))
	cmd.AddCommand(newTrustDecisionCmd("disallow", "Ignore the workspace shell setting", trust.Disallowed))
	cmd.AddCommand(newTrustQueryCmd())
	cmd.AddCommand(newTrustListCmd())

	return cmd
}

func newTrustDecisionCmd(use, short string, state trust.State) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <workspace-root>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			workspaceID, err := id.WorkspaceIDFor(args[0])
			if err != nil {
				return err
			}
			gate, err := server.NewGate(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			if state == trust.Allowed {
				err = gate.Allow(cmd.Context(), workspaceID.String())
			} else {
				err = gate.Disallow(cmd.Context(), workspaceID.String())
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", workspaceID, gate.Query(workspaceID.String()))
			return nil
		},
	}
}

func newTrustQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <workspace-root>",
		Short: "Show the decision recorded for a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			workspaceID, err := id.WorkspaceIDFor(args[0])
			if err != nil {
				return err
			}
			gate, err := server.NewGate(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", workspaceID, gate.Query(workspaceID.String()))
			return nil
		},
	}
}

func newTrustListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recorded decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			gate, err := server.NewGate(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, workspaceID := range sortedKeys(gate.Snapshot()) {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", workspaceID, gate.Query(workspaceID))
			}
			return nil
		},
	}
}
