package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
)

// DefaultWorkspaceDir is the folder inside a workspace holding its settings
const DefaultWorkspaceDir = ".shellgate"

// Layers holds the User and Workspace settings relevant to a launch
type Layers struct {
	User          *shell.Override
	Workspace     *shell.Override
	UserCwd       string
	WorkspaceCwd  string
	WorkspaceFile string
}

// Cwd picks the starting directory; the workspace layer wins
func (l Layers) Cwd() string {
	if l.WorkspaceCwd != "" {
		return l.WorkspaceCwd
	}
	return l.UserCwd
}

// Loader reads settings layers from disk
type Loader struct {
	UserPath     string
	WorkspaceDir string
}

// NewLoader creates a loader; userPath may be empty when no user file exists
func NewLoader(userPath, workspaceDir string) *Loader {
	if workspaceDir == "" {
		workspaceDir = DefaultWorkspaceDir
	}
	return &Loader{UserPath: userPath, WorkspaceDir: workspaceDir}
}

// Load reads both layers for a platform. A missing file is an empty layer;
// a malformed one is an error.
func (l *Loader) Load(workspaceRoot string, platform shell.Platform) (Layers, error) {
	var layers Layers

	if l.UserPath != "" {
		user, err := loadOptional(l.UserPath)
		if err != nil {
			return Layers{}, err
		}
		if layers.User, err = user.ShellOverride(platform); err != nil {
			return Layers{}, fmt.Errorf("user settings: %w", err)
		}
		layers.UserCwd = user.Cwd()
	}

	if workspaceRoot == "" {
		return layers, nil
	}

	path, err := FindWorkspaceFile(workspaceRoot, l.WorkspaceDir)
	if err != nil {
		return Layers{}, err
	}
	if path == "" {
		return layers, nil
	}

	workspace, err := LoadFile(path)
	if err != nil {
		return Layers{}, err
	}
	if layers.Workspace, err = workspace.ShellOverride(platform); err != nil {
		return Layers{}, fmt.Errorf("workspace settings: %w", err)
	}
	layers.WorkspaceCwd = resolveCwd(workspaceRoot, workspace.Cwd())
	layers.WorkspaceFile = path

	return layers, nil
}

// FindWorkspaceFile locates the settings file under root/dir. When several
// formats exist the lexically first name wins, so the choice is stable.
func FindWorkspaceFile(root, dir string) (string, error) {
	pattern := filepath.ToSlash(filepath.Join(dir, "settings.{json,jsonc,yaml,yml,toml}"))

	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return "", fmt.Errorf("failed to search workspace settings: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.Strings(matches)
	return filepath.Join(root, filepath.FromSlash(matches[0])), nil
}

func loadOptional(path string) (Layer, error) {
	layer, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Layer{}, nil
	}
	return layer, err
}

// resolveCwd anchors a relative workspace cwd at the workspace root
func resolveCwd(root, cwd string) string {
	if cwd == "" || filepath.IsAbs(cwd) {
		return cwd
	}
	return filepath.Join(root, cwd)
}
