package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
)

func testDefaults() Defaults {
	return DetectDefaults(func(key string) string {
		switch key {
		case "SHELL":
			return "/bin/bash"
		case "COMSPEC":
			return `C:\Windows\System32\cmd.exe`
		}
		return ""
	})
}

func TestDetectDefaults(t *testing.T) {
	defaults := testDefaults()

	assert.Equal(t, "/bin/bash", defaults[PlatformLinux].Path)
	assert.Empty(t, defaults[PlatformLinux].Args)
	assert.Equal(t, []string{"-l"}, defaults[PlatformMacOS].Args)
	assert.Equal(t, `C:\Windows\System32\cmd.exe`, defaults[PlatformWindows].Path)

	empty := DetectDefaults(func(string) string { return "" })
	assert.Equal(t, "sh", empty[PlatformLinux].Path)
	assert.Equal(t, "cmd.exe", empty[PlatformWindows].Path)
}

func TestResolveDefault(t *testing.T) {
	r := NewResolver(testDefaults())

	cfg := r.Resolve(PlatformMacOS, nil, nil, trust.Unknown)

	assert.Equal(t, "/bin/bash", cfg.Path)
	assert.Equal(t, []string{"-l"}, cfg.Args)
	assert.Equal(t, SourceDefault, cfg.Source)
}

func TestResolveUserOverride(t *testing.T) {
	r := NewResolver(testDefaults())
	user := &Override{Path: "/usr/bin/zsh", HasPath: true}

	cfg := r.Resolve(PlatformMacOS, user, nil, trust.Unknown)

	assert.Equal(t, "/usr/bin/zsh", cfg.Path)
	assert.Equal(t, []string{"-l"}, cfg.Args, "args fall through from the default")
	assert.Equal(t, SourceUser, cfg.Source)
}

func TestResolveEmptyArgsAreValid(t *testing.T) {
	r := NewResolver(testDefaults())
	user := &Override{Args: []string{}, HasArgs: true}

	cfg := r.Resolve(PlatformMacOS, user, nil, trust.Unknown)

	assert.NotNil(t, cfg.Args)
	assert.Empty(t, cfg.Args)
	assert.Equal(t, SourceUser, cfg.Source)
}

func TestResolveNeverEscalatesWithoutTrust(t *testing.T) {
	r := NewResolver(testDefaults())
	workspace := &Override{Path: "/tmp/evil.sh", Args: []string{"--pwn"}, HasPath: true, HasArgs: true}
	users := []*Override{nil, {Path: "/usr/bin/fish", HasPath: true}}

	for _, platform := range Platforms {
		for _, state := range []trust.State{trust.Unknown, trust.Disallowed} {
			for _, user := range users {
				cfg := r.Resolve(platform, user, workspace, state)

				assert.NotEqual(t, SourceWorkspace, cfg.Source, "platform=%s state=%s", platform, state)
				assert.NotEqual(t, "/tmp/evil.sh", cfg.Path)
				assert.NotContains(t, cfg.Args, "--pwn")
			}
		}
	}
}

func TestResolveAllowedReturnsWorkspaceOverride(t *testing.T) {
	r := NewResolver(testDefaults())
	user := &Override{Path: "/usr/bin/fish", Args: []string{"-i"}, HasPath: true, HasArgs: true}
	workspace := &Override{Path: "/opt/tools/devshell", Args: []string{"--rc", "ws.rc"}, HasPath: true, HasArgs: true}

	for _, platform := range Platforms {
		cfg := r.Resolve(platform, user, workspace, trust.Allowed)

		assert.Equal(t, "/opt/tools/devshell", cfg.Path)
		assert.Equal(t, []string{"--rc", "ws.rc"}, cfg.Args)
		assert.Equal(t, SourceWorkspace, cfg.Source)
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	defaults := testDefaults()
	r := NewResolver(defaults)
	workspace := &Override{Path: "/opt/shell", Args: []string{"a", "b"}, HasPath: true, HasArgs: true}

	cfg := r.Resolve(PlatformLinux, nil, workspace, trust.Allowed)
	cfg.Args[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, workspace.Args)

	macCfg := r.Resolve(PlatformMacOS, nil, nil, trust.Unknown)
	macCfg.Args[0] = "changed"
	assert.Equal(t, []string{"-l"}, r.Resolve(PlatformMacOS, nil, nil, trust.Unknown).Args)
	assert.Equal(t, []string{"-l"}, defaults[PlatformMacOS].Args)
}

func TestParsePlatform(t *testing.T) {
	tests := map[string]Platform{
		"linux":   PlatformLinux,
		"darwin":  PlatformMacOS,
		"osx":     PlatformMacOS,
		"Windows": PlatformWindows,
		"freebsd": PlatformLinux,
	}
	for in, want := range tests {
		got, err := ParsePlatform(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePlatform("plan9")
	assert.Error(t, err)
}
