package trust

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context) (map[string]State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]State), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, states map[string]State) error {
	args := m.Called(ctx, states)
	return args.Error(0)
}

func TestQueryDefaultsToUnknown(t *testing.T) {
	gate, err := NewGate(context.Background(), NewMemoryStore(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, Unknown, gate.Query("ws_never_seen"))
}

func TestAllowAndDisallow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	gate, err := NewGate(ctx, store, nil)
	require.NoError(t, err)

	require.NoError(t, gate.Allow(ctx, "ws_a"))
	assert.Equal(t, Allowed, gate.Query("ws_a"))

	require.NoError(t, gate.Disallow(ctx, "ws_a"))
	assert.Equal(t, Disallowed, gate.Query("ws_a"))

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Disallowed, persisted["ws_a"])
}

func TestDecisionsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	gate, err := NewGate(ctx, store, nil)
	require.NoError(t, err)

	require.NoError(t, gate.Allow(ctx, "ws_a"))
	require.NoError(t, gate.Allow(ctx, "ws_a"))
	require.NoError(t, gate.Allow(ctx, "ws_a"))

	assert.Equal(t, Allowed, gate.Query("ws_a"))
	assert.Equal(t, 1, store.Saves(), "repeated decisions should not rewrite the store")
}

func TestEmptyWorkspaceIDRejected(t *testing.T) {
	gate, err := NewGate(context.Background(), NewMemoryStore(nil), nil)
	require.NoError(t, err)

	assert.Error(t, gate.Allow(context.Background(), ""))
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	gate, err := NewGate(ctx, NewMemoryStore(map[string]State{
		"ws_allowed":    Allowed,
		"ws_disallowed": Disallowed,
	}), nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		workspace   string
		hasOverride bool
		wantPrompt  bool
	}{
		{"unknown with override", "ws_new", true, true},
		{"unknown without override", "ws_new", false, false},
		{"allowed with override", "ws_allowed", true, false},
		{"disallowed with override", "ws_disallowed", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(tt.workspace, tt.hasOverride)
			if tt.wantPrompt {
				assert.ErrorIs(t, err, ErrTrustRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("Load", mock.Anything).Return(map[string]State{}, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	gate, err := NewGate(ctx, store, nil)
	require.NoError(t, err)

	err = gate.Allow(ctx, "ws_a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Unknown, gate.Query("ws_a"))
	store.AssertExpectations(t)
}

func TestNewGateLoadError(t *testing.T) {
	store := new(mockStore)
	store.On("Load", mock.Anything).Return(nil, errors.New("corrupt"))

	_, err := NewGate(context.Background(), store, nil)
	assert.Error(t, err)
}

func TestFileStorePersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "trust.json")

	gate, err := NewGate(ctx, NewFileStore(path), nil)
	require.NoError(t, err)
	require.NoError(t, gate.Allow(ctx, "ws_a"))
	require.NoError(t, gate.Disallow(ctx, "ws_b"))

	// Simulate a process restart with a fresh store over the same file
	restarted, err := NewGate(ctx, NewFileStore(path), nil)
	require.NoError(t, err)

	assert.Equal(t, Allowed, restarted.Query("ws_a"))
	assert.Equal(t, Disallowed, restarted.Query("ws_b"))
	assert.Equal(t, Unknown, restarted.Query("ws_c"))
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	states, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestFileStoreRejectsBadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"workspaces":{"ws_a":"maybe"}}`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestStateTextRoundTrip(t *testing.T) {
	for _, s := range []State{Unknown, Allowed, Disallowed} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var parsed State
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}
}

func TestDecisionsAreCounted(t *testing.T) {
	ctx := context.Background()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	gate, err := NewGate(ctx, NewMemoryStore(nil), nil)
	require.NoError(t, err)
	gate.WithMetrics(metrics)

	require.NoError(t, gate.Allow(ctx, "ws_a"))
	require.NoError(t, gate.Allow(ctx, "ws_a"))
	require.NoError(t, gate.Disallow(ctx, "ws_b"))

	assert.Equal(t, 1.0, prom.ToFloat64(metrics.TrustDecisions.WithLabelValues(Allowed.String())))
	assert.Equal(t, 1.0, prom.ToFloat64(metrics.TrustDecisions.WithLabelValues(Disallowed.String())))
}
