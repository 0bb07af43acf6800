// Package testutil provides fakes and helpers shared by shellgate tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/GriffinCanCode/shellgate/internal/infrastructure/spawn"
)

// FakeProcess is an in-memory spawn.Process.
// Output written with Emit is readable through Read in order; input written
// by the session is captured for assertions.
type FakeProcess struct {
	Spec spawn.Spec

	outR *io.PipeReader
	outW *io.PipeWriter

	mu         sync.Mutex
	input      bytes.Buffer
	cols, rows int
	terminated int
	killed     bool
	closed     bool

	// IgnoreTerminate makes the process survive Terminate, so only Kill
	// ends it
	IgnoreTerminate bool

	pid      int
	exitCh   chan int
	exitOnce sync.Once
}

// NewFakeProcess creates a running fake process
func NewFakeProcess(spec spawn.Spec, pid int) *FakeProcess {
	r, w := io.Pipe()
	return &FakeProcess{
		Spec:   spec,
		outR:   r,
		outW:   w,
		cols:   spec.Cols,
		rows:   spec.Rows,
		pid:    pid,
		exitCh: make(chan int, 1),
	}
}

// Emit writes process output; it blocks until the session reader consumes it
func (p *FakeProcess) Emit(s string) {
	p.outW.Write([]byte(s))
}

// Exit ends the process with code. Only the first call has an effect.
func (p *FakeProcess) Exit(code int) {
	p.exitOnce.Do(func() {
		p.outW.Close()
		p.exitCh <- code
	})
}

// Input returns everything written to the process
func (p *FakeProcess) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.input.String()
}

// Size returns the last size set by Resize
func (p *FakeProcess) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cols, p.rows
}

// Terminated returns how many times Terminate was called
func (p *FakeProcess) Terminated() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.terminated
}

// Killed reports whether Kill was called
func (p *FakeProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.killed
}

// Closed reports whether Close was called
func (p *FakeProcess) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *FakeProcess) Read(b []byte) (int, error) {
	return p.outR.Read(b)
}

func (p *FakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.input.Write(b)
}

func (p *FakeProcess) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cols, p.rows = cols, rows
	return nil
}

func (p *FakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated++
	ignore := p.IgnoreTerminate
	p.mu.Unlock()

	if !ignore {
		p.Exit(129)
	}
	return nil
}

func (p *FakeProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()

	p.Exit(-1)
	return nil
}

func (p *FakeProcess) Wait() (int, error) {
	return <-p.exitCh, nil
}

func (p *FakeProcess) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	return p.outR.Close()
}

func (p *FakeProcess) Pid() int {
	return p.pid
}

// FakeSpawner hands out FakeProcesses and records every spec it was asked for
type FakeSpawner struct {
	mu        sync.Mutex
	specs     []spawn.Spec
	processes []*FakeProcess

	// FailPaths makes Spawn fail for the listed executables
	FailPaths map[string]error
	// IgnoreTerminate is copied onto every spawned process
	IgnoreTerminate bool
}

// NewFakeSpawner creates an empty spawner
func NewFakeSpawner() *FakeSpawner {
	return &FakeSpawner{FailPaths: map[string]error{}}
}

// Spawn records spec and returns a new fake process
func (s *FakeSpawner) Spawn(ctx context.Context, spec spawn.Spec) (spawn.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = append(s.specs, spec)
	if err, ok := s.FailPaths[spec.Path]; ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proc := NewFakeProcess(spec, 1000+len(s.processes))
	proc.IgnoreTerminate = s.IgnoreTerminate
	s.processes = append(s.processes, proc)
	return proc, nil
}

// Specs returns every requested spec in order
func (s *FakeSpawner) Specs() []spawn.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]spawn.Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// LastSpec returns the most recent spec
func (s *FakeSpawner) LastSpec() spawn.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.specs) == 0 {
		return spawn.Spec{}
	}
	return s.specs[len(s.specs)-1]
}

// Process returns the i-th successfully spawned process
func (s *FakeSpawner) Process(i int) *FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.processes) {
		panic(fmt.Sprintf("no fake process at index %d (have %d)", i, len(s.processes)))
	}
	return s.processes[i]
}

// Count returns how many processes were spawned
func (s *FakeSpawner) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.processes)
}

// WriteWorkspace creates a temporary workspace folder. files maps paths
// relative to the workspace root to their contents.
func WriteWorkspace(t testing.TB, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}
