package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/server"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// resolution is what a new terminal in the workspace would launch
type resolution struct {
	WorkspaceID   id.WorkspaceID      `json:"workspace_id"`
	Platform      shell.Platform      `json:"platform"`
	Shell         shell.Configuration `json:"shell"`
	Trust         trust.State         `json:"trust"`
	TrustRequired bool                `json:"trust_required"`
	WorkspaceFile string              `json:"workspace_file,omitempty"`
	Cwd           string              `json:"cwd,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <workspace-root>",
		Short: "Show which shell a new terminal in the workspace would launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			res, err := resolve(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "workspace\t%s\n", res.WorkspaceID)
			fmt.Fprintf(w, "platform\t%s\n", res.Platform)
			fmt.Fprintf(w, "shell\t%s\n", res.Shell.Path)
			fmt.Fprintf(w, "args\t%s\n", strings.Join(res.Shell.Args, " "))
			fmt.Fprintf(w, "source\t%s\n", res.Shell.Source)
			fmt.Fprintf(w, "trust\t%s\n", res.Trust)
			if res.TrustRequired {
				fmt.Fprintf(w, "note\tworkspace shell %s ignored until allowed\n", res.WorkspaceFile)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func resolve(cmd *cobra.Command, cfg *config.Config, root string) (*resolution, error) {
	platform, err := server.Platform(cfg)
	if err != nil {
		return nil, err
	}
	workspaceID, err := id.WorkspaceIDFor(root)
	if err != nil {
		return nil, err
	}
	gate, err := server.NewGate(cmd.Context(), cfg, nil)
	if err != nil {
		return nil, err
	}
	loader, err := server.NewSettingsLoader(cfg)
	if err != nil {
		return nil, err
	}
	layers, err := loader.Load(root, platform)
	if err != nil {
		return nil, err
	}

	state := gate.Query(workspaceID.String())
	trustErr := gate.Check(workspaceID.String(), !layers.Workspace.IsZero())
	if trustErr != nil && !errors.Is(trustErr, trust.ErrTrustRequired) {
		return nil, trustErr
	}
	return &resolution{
		WorkspaceID:   workspaceID,
		Platform:      platform,
		Shell:         server.NewResolver().Resolve(platform, layers.User, layers.Workspace, state),
		Trust:         state,
		TrustRequired: trustErr != nil,
		WorkspaceFile: layers.WorkspaceFile,
		Cwd:           layers.Cwd(),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
