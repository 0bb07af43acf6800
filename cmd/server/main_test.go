package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TRUST_STORE", filepath.Join(dir, "trust.json"))
	t.Setenv("SETTINGS_USER", filepath.Join(dir, "settings.json"))
	t.Setenv("TERMINAL_PLATFORM", "linux")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ".shellgate")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.jsonc"), []byte(`{
		// workspace shell
		"terminal.integrated.shell.linux": "/tmp/evil.sh",
	}`), 0o644))
	return root
}

func TestTrustCommands(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	workspaceID, err := id.WorkspaceIDFor(root)
	require.NoError(t, err)

	out, err := run(t, "trust", "query", root)
	require.NoError(t, err)
	assert.Equal(t, workspaceID.String()+"\tunknown\n", out)

	out, err = run(t, "trust", "allow", root)
	require.NoError(t, err)
	assert.Equal(t, workspaceID.String()+"\tallowed\n", out)

	// A fresh command reloads the decision from disk
	out, err = run(t, "trust", "query", root)
	require.NoError(t, err)
	assert.Equal(t, workspaceID.String()+"\tallowed\n", out)

	_, err = run(t, "trust", "disallow", root)
	require.NoError(t, err)

	out, err = run(t, "trust", "list")
	require.NoError(t, err)
	assert.Equal(t, workspaceID.String()+"\tdisallowed\n", out)
}

func TestTrustRequiresRoot(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "trust", "allow")
	assert.Error(t, err)
}

func TestResolveIgnoresUntrustedWorkspace(t *testing.T) {
	setupEnv(t)
	t.Setenv("SHELL", "/bin/zsh")
	root := writeWorkspace(t)

	out, err := run(t, "resolve", root)
	require.NoError(t, err)
	assert.Contains(t, out, "/bin/zsh")
	assert.NotContains(t, out, "/tmp/evil.sh")
	assert.Contains(t, out, "ignored until allowed")
}

func TestResolveJSONAfterAllow(t *testing.T) {
	setupEnv(t)
	root := writeWorkspace(t)

	_, err := run(t, "trust", "allow", root)
	require.NoError(t, err)

	out, err := run(t, "resolve", root, "--json")
	require.NoError(t, err)

	var res struct {
		Platform      string `json:"platform"`
		Trust         string `json:"trust"`
		TrustRequired bool   `json:"trust_required"`
		Shell         struct {
			Path   string `json:"path"`
			Source string `json:"source"`
		} `json:"shell"`
	}
	require.NoError(t, sonic.Unmarshal([]byte(strings.TrimSpace(out)), &res))
	assert.Equal(t, "linux", res.Platform)
	assert.Equal(t, "allowed", res.Trust)
	assert.False(t, res.TrustRequired)
	assert.Equal(t, "/tmp/evil.sh", res.Shell.Path)
	assert.Equal(t, "workspace", res.Shell.Source)
}
