package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{
			name: "jsonc with comments",
			file: "settings.json",
			data: `{
				// login shell
				"terminal.integrated.shell.linux": "/bin/zsh",
				"terminal.integrated.shellArgs.linux": ["-l", "-i"], /* trailing */
			}`,
		},
		{
			name: "yaml nested",
			file: "settings.yaml",
			data: "terminal:\n  integrated:\n    shell:\n      linux: /bin/zsh\n    shellArgs:\n      linux: [\"-l\", \"-i\"]\n",
		},
		{
			name: "toml flat keys",
			file: "settings.toml",
			data: "\"terminal.integrated.shell.linux\" = \"/bin/zsh\"\n\"terminal.integrated.shellArgs.linux\" = [\"-l\", \"-i\"]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := Parse(tt.file, []byte(tt.data))
			require.NoError(t, err)

			override, err := layer.ShellOverride(shell.PlatformLinux)
			require.NoError(t, err)
			require.NotNil(t, override)

			assert.Equal(t, "/bin/zsh", override.Path)
			assert.Equal(t, []string{"-l", "-i"}, override.Args)
			assert.True(t, override.HasPath)
			assert.True(t, override.HasArgs)
		})
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse("settings.ini", []byte("x=1"))
	assert.Error(t, err)
}

func TestShellOverrideAbsent(t *testing.T) {
	layer, err := Parse("settings.json", []byte(`{"terminal.integrated.shell.windows": "pwsh.exe"}`))
	require.NoError(t, err)

	override, err := layer.ShellOverride(shell.PlatformLinux)
	require.NoError(t, err)
	assert.Nil(t, override)
}

func TestShellOverrideEmptyArgs(t *testing.T) {
	layer, err := Parse("settings.json", []byte(`{"terminal.integrated.shellArgs.osx": []}`))
	require.NoError(t, err)

	override, err := layer.ShellOverride(shell.PlatformMacOS)
	require.NoError(t, err)
	require.NotNil(t, override)
	assert.True(t, override.HasArgs)
	assert.Empty(t, override.Args)
	assert.False(t, override.HasPath)
}

func TestShellOverrideTypeErrors(t *testing.T) {
	layer, err := Parse("settings.json", []byte(`{"terminal.integrated.shellArgs.linux": [1, 2]}`))
	require.NoError(t, err)

	_, err = layer.ShellOverride(shell.PlatformLinux)
	assert.Error(t, err)

	layer, err = Parse("settings.json", []byte(`{"terminal.integrated.shell.linux": 42}`))
	require.NoError(t, err)

	_, err = layer.ShellOverride(shell.PlatformLinux)
	assert.Error(t, err)
}

func TestLoaderLoadsBothLayers(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()

	userPath := filepath.Join(home, "settings.json")
	writeFile(t, userPath, `{"terminal.integrated.shell.linux": "/usr/bin/fish", "terminal.integrated.cwd": "/srv"}`)
	writeFile(t, filepath.Join(root, ".shellgate", "settings.yaml"),
		"terminal.integrated.shell.linux: /tmp/evil.sh\nterminal.integrated.cwd: sub\n")

	layers, err := NewLoader(userPath, "").Load(root, shell.PlatformLinux)
	require.NoError(t, err)

	require.NotNil(t, layers.User)
	assert.Equal(t, "/usr/bin/fish", layers.User.Path)
	require.NotNil(t, layers.Workspace)
	assert.Equal(t, "/tmp/evil.sh", layers.Workspace.Path)
	assert.Equal(t, filepath.Join(root, "sub"), layers.Cwd())
	assert.Equal(t, filepath.Join(root, ".shellgate", "settings.yaml"), layers.WorkspaceFile)
}

func TestLoaderMissingFiles(t *testing.T) {
	layers, err := NewLoader(filepath.Join(t.TempDir(), "nope.json"), "").Load(t.TempDir(), shell.PlatformLinux)
	require.NoError(t, err)

	assert.Nil(t, layers.User)
	assert.Nil(t, layers.Workspace)
	assert.Empty(t, layers.Cwd())
}

func TestLoaderMalformedWorkspaceFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".shellgate", "settings.json"), `{"terminal.integrated.shell.linux": `)

	_, err := NewLoader("", "").Load(root, shell.PlatformLinux)
	assert.Error(t, err)
}

func TestFindWorkspaceFilePrefersStableOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".shellgate", "settings.yaml"), "a: 1\n")
	writeFile(t, filepath.Join(root, ".shellgate", "settings.json"), `{}`)

	path, err := FindWorkspaceFile(root, DefaultWorkspaceDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".shellgate", "settings.json"), path)
}
