// Package id provides centralized ID generation for shellgate.
//
// Terminal sessions and stream connections get prefixed ULIDs, which are
// k-sortable and make log lines readable (term_*, conn_*). Workspaces get a
// deterministic name-based UUID derived from their root directory, so the same
// folder always maps to the same persisted trust entry.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// TerminalID identifies a terminal session
type TerminalID string

// WorkspaceID identifies a workspace folder
type WorkspaceID string

// ConnectionID identifies a stream subscriber
type ConnectionID string

const (
	TerminalPrefix   = "term"
	WorkspacePrefix  = "ws"
	ConnectionPrefix = "conn"
)

// workspaceNamespace scopes name-based workspace UUIDs.
var workspaceNamespace = uuid.MustParse("6f1c2a8e-4b0d-5e3a-9c61-2d7f0b8a4e15")

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewTerminalID generates a new terminal session ID
func NewTerminalID() TerminalID {
	return TerminalID(Default().GenerateWithPrefix(TerminalPrefix))
}

// NewConnectionID generates a new stream connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(ConnectionPrefix))
}

// WorkspaceIDFor derives the workspace identity of a root directory.
// The path is made absolute and cleaned first, so "./repo" and "/src/repo/"
// resolve to the same ID when they name the same folder.
func WorkspaceIDFor(root string) (WorkspaceID, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	u := uuid.NewSHA1(workspaceNamespace, []byte(filepath.Clean(abs)))
	return WorkspaceID(fmt.Sprintf("%s_%s", WorkspacePrefix, u.String())), nil
}

// String methods for ID types
func (id TerminalID) String() string   { return string(id) }
func (id WorkspaceID) String() string  { return string(id) }
func (id ConnectionID) String() string { return string(id) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsTerminalID checks that s is a term_-prefixed ULID
func IsTerminalID(s string) bool {
	prefix, rest, ok := strings.Cut(s, "_")
	return ok && prefix == TerminalPrefix && IsValid(rest)
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
