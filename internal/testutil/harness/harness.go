// Package harness assembles a complete terminal stack over fake processes
// for tests above the domain layer.
package harness

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GriffinCanCode/shellgate/internal/domain/settings"
	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
	"github.com/GriffinCanCode/shellgate/internal/testutil"
)

// DefaultShell is the shell every harness resolves to without overrides
const DefaultShell = "/bin/bash"

// EvilWorkspace is a workspace settings file pointing at an untrusted shell
const EvilWorkspace = `{
	// checked in by someone else
	"terminal.integrated.shell.linux": "/tmp/evil.sh",
}`

// Harness is a registry, trust gate and command provider wired together
type Harness struct {
	Registry *sessions.Registry
	Gate     *trust.Gate
	Store    *trust.MemoryStore
	Spawner  *testutil.FakeSpawner
	Provider *terminal.Provider
	Metrics  *monitoring.Metrics
}

// New builds a harness on Linux defaults. Every terminal is killed when the
// test ends.
func New(t testing.TB, mutate ...func(*sessions.Config)) *Harness {
	t.Helper()

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := trust.NewMemoryStore(nil)
	gate, err := trust.NewGate(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("trust gate: %v", err)
	}
	gate.WithMetrics(metrics)

	resolver := shell.NewResolver(shell.Defaults{
		shell.PlatformLinux:   {Path: DefaultShell, Args: []string{}},
		shell.PlatformMacOS:   {Path: "/bin/zsh", Args: []string{"-l"}},
		shell.PlatformWindows: {Path: "cmd.exe", Args: []string{}},
	})

	cfg := sessions.DefaultConfig()
	cfg.Platform = shell.PlatformLinux
	cfg.KillGrace = 50 * time.Millisecond
	cfg.BaseEnv = []string{"PATH=/usr/bin"}
	for _, m := range mutate {
		m(&cfg)
	}

	spawner := testutil.NewFakeSpawner()
	registry := sessions.NewRegistry(cfg, resolver, settings.NewLoader("", ""), gate, spawner, nil).
		WithMetrics(metrics)

	h := &Harness{
		Registry: registry,
		Gate:     gate,
		Store:    store,
		Spawner:  spawner,
		Provider: terminal.NewProvider(registry, gate, nil).WithMetrics(metrics),
		Metrics:  metrics,
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = registry.KillAll(ctx)
	})
	return h
}

// EvilWorkspaceRoot writes a workspace whose settings request /tmp/evil.sh
func EvilWorkspaceRoot(t testing.TB) string {
	t.Helper()
	return testutil.WriteWorkspace(t, map[string]string{
		".shellgate/settings.jsonc": EvilWorkspace,
	})
}

// Process returns the fake process behind the n-th launch
func (h *Harness) Process(n int) *testutil.FakeProcess {
	return h.Spawner.Process(n)
}
