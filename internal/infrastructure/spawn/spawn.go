// Package spawn starts shell processes on pseudo-terminals.
//
// The terminal core only sees the Process interface, so tests can drive
// sessions with in-memory fakes while production uses creack/pty.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Spec describes the process to launch
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string
	Cols int
	Rows int
}

// Process is a running shell attached to a terminal
type Process interface {
	io.ReadWriter
	Resize(cols, rows int) error
	// Terminate asks the process to exit (SIGHUP, like a closed terminal)
	Terminate() error
	// Kill forces the process to exit
	Kill() error
	// Wait blocks until exit and returns the exit code (-1 when signaled)
	Wait() (int, error)
	Close() error
	Pid() int
}

// Spawner launches processes
type Spawner interface {
	Spawn(ctx context.Context, spec Spec) (Process, error)
}

// PTY spawns processes on a pseudo-terminal
type PTY struct{}

// NewPTY creates a PTY spawner
func NewPTY() *PTY {
	return &PTY{}
}

// Spawn resolves the executable and starts it with the requested size
func (p *PTY) Spawn(ctx context.Context, spec Spec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", spec.Path, err)
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	size, err := winsize(spec.Cols, spec.Rows)
	if err != nil {
		return nil, err
	}

	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	return &ptyProcess{cmd: cmd, ptmx: ptmx}, nil
}

type ptyProcess struct {
	cmd  *exec.Cmd
	ptmx *os.File

	closeOnce sync.Once
	closeErr  error
}

func (p *ptyProcess) Read(b []byte) (int, error) {
	n, err := p.ptmx.Read(b)
	// Linux reports EIO on the master once the slave side has closed
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		return n, io.EOF
	}
	return n, err
}

func (p *ptyProcess) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *ptyProcess) Resize(cols, rows int) error {
	size, err := winsize(cols, rows)
	if err != nil {
		return err
	}
	return pty.Setsize(p.ptmx, size)
}

// winsize refuses dimensions that would wrap in the uint16 window fields
func winsize(cols, rows int) (*pty.Winsize, error) {
	if cols < 0 || rows < 0 || cols > math.MaxUint16 || rows > math.MaxUint16 {
		return nil, fmt.Errorf("window size %dx%d out of range", cols, rows)
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}, nil
}

func (p *ptyProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(syscall.SIGHUP)
}

func (p *ptyProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *ptyProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), nil
	}
	return -1, err
}

func (p *ptyProcess) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.ptmx.Close()
	})
	return p.closeErr
}

func (p *ptyProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
