package shell

import (
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
)

// Environment looks up an environment variable
type Environment func(key string) string

// DetectDefaults builds the built-in profiles from the environment.
// macOS launches a login shell because ~/.profile is not sourced when a user
// logs into a macOS session; the other platforms launch without arguments.
func DetectDefaults(env Environment) Defaults {
	unix := env("SHELL")
	if unix == "" {
		unix = "sh"
	}
	windows := env("COMSPEC")
	if windows == "" {
		windows = "cmd.exe"
	}

	return Defaults{
		PlatformLinux:   {Path: unix, Args: []string{}},
		PlatformMacOS:   {Path: unix, Args: []string{"-l"}},
		PlatformWindows: {Path: windows, Args: []string{}},
	}
}

// Resolver turns configuration layers into a launch configuration
type Resolver struct {
	defaults Defaults
}

// NewResolver creates a resolver over a copy of the given defaults
func NewResolver(defaults Defaults) *Resolver {
	copied := make(Defaults, len(defaults))
	for p, profile := range defaults {
		copied[p] = Profile{Path: profile.Path, Args: cloneArgs(profile.Args)}
	}
	return &Resolver{defaults: copied}
}

// Resolve picks the executable and arguments for a new session.
//
// The workspace layer is applied only when state is trust.Allowed. For any
// other state it is ignored and the result's Source stays User or Default.
// Inputs are never mutated and the returned slices are fresh copies.
func (r *Resolver) Resolve(platform Platform, user, workspace *Override, state trust.State) Configuration {
	profile, ok := r.defaults[platform]
	if !ok {
		profile = r.defaults[PlatformLinux]
	}

	cfg := Configuration{
		Path:   profile.Path,
		Args:   cloneArgs(profile.Args),
		Source: SourceDefault,
	}

	apply(&cfg, user, SourceUser)
	if state == trust.Allowed {
		apply(&cfg, workspace, SourceWorkspace)
	}

	return cfg
}

func apply(cfg *Configuration, layer *Override, source Source) {
	if layer.IsZero() {
		return
	}
	if layer.HasPath && layer.Path != "" {
		cfg.Path = layer.Path
		cfg.Source = source
	}
	if layer.HasArgs {
		cfg.Args = cloneArgs(layer.Args)
		cfg.Source = source
	}
}
