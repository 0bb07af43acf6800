// Package trust records whether a workspace may supply its own shell.
//
// A repository can check in settings that point the integrated terminal at
// an arbitrary executable. Until the user explicitly allows that workspace,
// its shell override is ignored and the user or default shell is launched
// instead; the creator of the session is told that a decision is pending.
//
// Decisions are keyed by workspace ID, loaded once at startup and flushed to
// the Store on every change.
//
// Example Usage:
//
//	gate, err := trust.NewGate(ctx, trust.NewFileStore(path), logger)
//	if err := gate.Check(workspaceID, override != nil); errors.Is(err, trust.ErrTrustRequired) {
//		// prompt the user, then gate.Allow(ctx, workspaceID)
//	}
package trust
