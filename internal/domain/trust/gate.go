package trust

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
)

// ErrTrustRequired signals that a workspace shell override exists but the user
// has not decided whether it may run. It is a prompt, not a failure.
var ErrTrustRequired = errors.New("workspace shell configuration requires a trust decision")

// State is the trust decision for one workspace
type State int

const (
	Unknown State = iota
	Allowed
	Disallowed
)

func (s State) String() string {
	switch s {
	case Allowed:
		return "allowed"
	case Disallowed:
		return "disallowed"
	default:
		return "unknown"
	}
}

// ParseState converts a persisted name back to a State
func ParseState(s string) (State, error) {
	switch s {
	case "unknown", "":
		return Unknown, nil
	case "allowed":
		return Allowed, nil
	case "disallowed":
		return Disallowed, nil
	default:
		return Unknown, fmt.Errorf("invalid trust state: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Store persists trust decisions keyed by workspace ID
type Store interface {
	Load(ctx context.Context) (map[string]State, error)
	Save(ctx context.Context, states map[string]State) error
}

// Gate enforces workspace shell trust decisions
type Gate struct {
	mu      sync.RWMutex
	states  map[string]State // Protected by mu
	store   Store
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewGate loads persisted decisions from store
func NewGate(ctx context.Context, store Store, logger *zap.Logger) (*Gate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	states, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trust store: %w", err)
	}
	if states == nil {
		states = make(map[string]State)
	}

	logger.Debug("Trust store loaded", zap.Int("workspaces", len(states)))

	return &Gate{
		states: states,
		store:  store,
		logger: logger,
	}, nil
}

// WithMetrics records each changed decision
func (g *Gate) WithMetrics(metrics *monitoring.Metrics) *Gate {
	g.metrics = metrics
	return g
}

// Query returns the decision for a workspace, Unknown if none was recorded
func (g *Gate) Query(workspaceID string) State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.states[workspaceID]
}

// Allow permits the workspace's shell override
func (g *Gate) Allow(ctx context.Context, workspaceID string) error {
	return g.set(ctx, workspaceID, Allowed)
}

// Disallow forbids the workspace's shell override
func (g *Gate) Disallow(ctx context.Context, workspaceID string) error {
	return g.set(ctx, workspaceID, Disallowed)
}

// Check returns ErrTrustRequired when an override is present and undecided
func (g *Gate) Check(workspaceID string, hasOverride bool) error {
	if hasOverride && g.Query(workspaceID) == Unknown {
		return fmt.Errorf("workspace %s: %w", workspaceID, ErrTrustRequired)
	}
	return nil
}

// Snapshot returns a copy of all recorded decisions
func (g *Gate) Snapshot() map[string]State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]State, len(g.states))
	for k, v := range g.states {
		out[k] = v
	}
	return out
}

func (g *Gate) set(ctx context.Context, workspaceID string, state State) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	previous, existed := g.states[workspaceID]
	if existed && previous == state {
		return nil
	}

	next := make(map[string]State, len(g.states)+1)
	for k, v := range g.states {
		next[k] = v
	}
	next[workspaceID] = state

	// Persist before publishing so memory never runs ahead of disk
	if err := g.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist trust decision: %w", err)
	}
	g.states = next
	if g.metrics != nil {
		g.metrics.IncTrustDecisions(state.String())
	}

	g.logger.Info("Workspace shell trust changed",
		zap.String("workspace_id", workspaceID),
		zap.Stringer("from", previous),
		zap.Stringer("to", state),
	)

	return nil
}
