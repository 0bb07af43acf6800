package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"

	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
)

const (
	keyShell     = "terminal.integrated.shell."
	keyShellArgs = "terminal.integrated.shellArgs."
	keyCwd       = "terminal.integrated.cwd"
)

// Layer is one settings document flattened to dotted keys
type Layer map[string]any

// Parse decodes a settings document, choosing the format by file extension
func Parse(name string, data []byte) (Layer, error) {
	var raw map[string]any

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json", ".jsonc":
		// Settings files carry comments and trailing commas
		if err := sonic.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, fmt.Errorf("JSON parse error in %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error in %s: %w", name, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error in %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported settings format: %q", ext)
	}

	layer := make(Layer)
	flatten("", raw, layer)
	return layer, nil
}

// LoadFile reads and parses a settings file
func LoadFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return Parse(path, data)
}

// flatten turns nested tables into dotted keys so YAML and TOML documents
// can use either "terminal: {integrated: ...}" or the flat VS Code spelling.
func flatten(prefix string, in map[string]any, out Layer) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := asMap(v); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			converted[fmt.Sprint(k)] = val
		}
		return converted, true
	default:
		return nil, false
	}
}

// ShellOverride extracts the shell and shellArgs settings for a platform.
// It returns nil when the layer configures neither.
func (l Layer) ShellOverride(platform shell.Platform) (*shell.Override, error) {
	var o shell.Override

	if v, ok := l[keyShell+string(platform)]; ok && v != nil {
		path, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s%s must be a string", keyShell, platform)
		}
		o.Path = path
		o.HasPath = path != ""
	}

	if v, ok := l[keyShellArgs+string(platform)]; ok && v != nil {
		args, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", keyShellArgs, platform, err)
		}
		o.Args = args
		o.HasArgs = true
	}

	if o.IsZero() {
		return nil, nil
	}
	return &o, nil
}

// Cwd returns the configured starting directory, if any
func (l Layer) Cwd() string {
	cwd, _ := l[keyCwd].(string)
	return cwd
}

// Keys returns the layer's keys in sorted order
func (l Layer) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d must be a string", i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of strings")
	}
}
