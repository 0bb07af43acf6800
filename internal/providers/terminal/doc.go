// Package terminal exposes the terminal subsystem as a fixed command table.
//
// Every command maps to exactly one registry, session, find or trust
// operation. Commands that act on a terminal take an optional terminal_id and
// default to the focused terminal, which is how keybindings reach them.
//
// Example Usage:
//
//	provider := terminal.NewProvider(registry, gate, logger)
//	res, err := provider.Execute(ctx, terminal.KindCreate, map[string]interface{}{
//		"workspace_root": "/home/user/project",
//	})
//	provider.Execute(ctx, terminal.KindWrite, map[string]interface{}{"data": "ls -la\r"})
//	provider.Execute(ctx, terminal.KindFindNext, map[string]interface{}{"term": "error"})
//
// Parameter errors wrap ErrInvalidParams; unknown commands wrap
// ErrUnknownCommand. Errors from the domain are returned unchanged.
package terminal
