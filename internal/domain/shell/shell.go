package shell

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies an operating system family with its own shell settings
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "osx"
	PlatformWindows Platform = "windows"
)

// Platforms lists every supported platform in settings-key order
var Platforms = []Platform{PlatformLinux, PlatformMacOS, PlatformWindows}

// ParsePlatform accepts settings-key names and GOOS values
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return PlatformLinux, nil
	case "osx", "darwin", "macos":
		return PlatformMacOS, nil
	case "windows", "win32":
		return PlatformWindows, nil
	default:
		return "", fmt.Errorf("unsupported platform: %q", s)
	}
}

// Current returns the platform of the running process
func Current() Platform {
	p, err := ParsePlatform(runtime.GOOS)
	if err != nil {
		return PlatformLinux
	}
	return p
}

// Source records which configuration layer won
type Source int

const (
	SourceDefault Source = iota
	SourceUser
	SourceWorkspace
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceUser:
		return "user"
	case SourceWorkspace:
		return "workspace"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Configuration is a fully resolved launch configuration
type Configuration struct {
	Path   string   `json:"path"`
	Args   []string `json:"args"`
	Source Source   `json:"source"`
}

// Override is one layer's shell settings for a single platform.
// HasPath and HasArgs record presence, so an explicitly empty argument list
// is distinguishable from one that was never configured.
type Override struct {
	Path    string
	Args    []string
	HasPath bool
	HasArgs bool
}

// IsZero reports whether the override configures nothing
func (o *Override) IsZero() bool {
	return o == nil || (!o.HasPath && !o.HasArgs)
}

// Profile is the built-in default for a platform
type Profile struct {
	Path string
	Args []string
}

// Defaults maps each platform to its built-in profile
type Defaults map[Platform]Profile

func cloneArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	return out
}
