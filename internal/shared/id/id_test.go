package id

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestNewTerminalID(t *testing.T) {
	termID := NewTerminalID()

	if !strings.HasPrefix(string(termID), "term_") {
		t.Errorf("TerminalID should start with 'term_', got: %s", termID)
	}
	if !IsTerminalID(termID.String()) {
		t.Errorf("IsTerminalID should accept %s", termID)
	}
}

func TestIsTerminalID(t *testing.T) {
	invalid := []string{
		"",
		"term_",
		"term_invalid",
		"conn_" + NewGenerator().GenerateString(),
		NewGenerator().GenerateString(),
	}

	for _, s := range invalid {
		if IsTerminalID(s) {
			t.Errorf("IsTerminalID should reject %q", s)
		}
	}
}

func TestNewConnectionID(t *testing.T) {
	connID := NewConnectionID()

	if !strings.HasPrefix(string(connID), "conn_") {
		t.Errorf("ConnectionID should start with 'conn_', got: %s", connID)
	}
}

func TestWorkspaceIDForIsDeterministic(t *testing.T) {
	dir := t.TempDir()

	first, err := WorkspaceIDFor(dir)
	if err != nil {
		t.Fatalf("WorkspaceIDFor failed: %v", err)
	}
	second, err := WorkspaceIDFor(dir + string(os.PathSeparator))
	if err != nil {
		t.Fatalf("WorkspaceIDFor failed: %v", err)
	}

	if first != second {
		t.Errorf("Same folder should map to same ID: %s != %s", first, second)
	}
	if !strings.HasPrefix(string(first), "ws_") {
		t.Errorf("WorkspaceID should start with 'ws_', got: %s", first)
	}

	other, err := WorkspaceIDFor(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatalf("WorkspaceIDFor failed: %v", err)
	}
	if other == first {
		t.Error("Different folders should map to different IDs")
	}
}

func TestWorkspaceIDForEmptyRoot(t *testing.T) {
	if _, err := WorkspaceIDFor("  "); err == nil {
		t.Error("Expected error for empty workspace root")
	}
}

func TestIsValid(t *testing.T) {
	gen := NewGenerator()

	validID := gen.GenerateString()
	if !IsValid(validID) {
		t.Error("Generated ULID should be valid")
	}

	invalidIDs := []string{
		"",
		"invalid",
		"1234567890",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}

	for _, id := range invalidIDs {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()

	before := time.Now()
	id := gen.GenerateString()
	after := time.Now()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	// ULID timestamps have millisecond precision
	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp should be between %d and %d ms, got %d ms",
			before.UnixMilli(), after.UnixMilli(), ts.UnixMilli())
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const idsPerGoroutine = 100

	var wg sync.WaitGroup
	idChan := make(chan string, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- gen.GenerateString()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	seen := make(map[string]bool)
	for id := range idChan {
		if seen[id] {
			t.Errorf("Duplicate ID found in concurrent generation: %s", id)
		}
		seen[id] = true
	}

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}

func TestLexicographicSorting(t *testing.T) {
	gen := NewGenerator()

	ids := make([]string, 5)
	for i := 0; i < 5; i++ {
		ids[i] = gen.GenerateString()
		time.Sleep(2 * time.Millisecond)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("IDs should be lexicographically sorted: %s should be > %s", ids[i], ids[i-1])
		}
	}
}

func BenchmarkNewTerminalID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewTerminalID()
	}
}
