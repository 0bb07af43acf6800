package spawn

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePTY(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PTY spawning is not supported on Windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("no pseudo-terminal support")
	}
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := NewPTY().Spawn(context.Background(), Spec{
		Path: "/definitely/not/a/shell",
		Cols: 80,
		Rows: 24,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find")
}

func TestSpawnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPTY().Spawn(ctx, Spec{Path: "sh"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWinsizeRejectsOverflow(t *testing.T) {
	size, err := winsize(80, 24)
	require.NoError(t, err)
	assert.Equal(t, uint16(80), size.Cols)
	assert.Equal(t, uint16(24), size.Rows)

	_, err = winsize(70000, 24)
	assert.Error(t, err)
	_, err = winsize(80, 1<<16)
	assert.Error(t, err)
}

func TestSpawnEchoAndExitCode(t *testing.T) {
	requirePTY(t)

	proc, err := NewPTY().Spawn(context.Background(), Spec{
		Path: "sh",
		Args: []string{"-c", "echo shellgate-ok; exit 3"},
		Env:  []string{"PATH=" + os.Getenv("PATH")},
		Cols: 80,
		Rows: 24,
	})
	require.NoError(t, err)
	defer proc.Close()

	assert.Greater(t, proc.Pid(), 0)

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		io.Copy(&out, proc)
		close(done)
	}()

	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		proc.Close()
		<-done
	}

	assert.True(t, strings.Contains(out.String(), "shellgate-ok"), "output: %q", out.String())
}

func TestTerminateInteractiveShell(t *testing.T) {
	requirePTY(t)

	proc, err := NewPTY().Spawn(context.Background(), Spec{
		Path: "sh",
		Env:  []string{"PATH=" + os.Getenv("PATH")},
		Cols: 80,
		Rows: 24,
	})
	require.NoError(t, err)
	defer proc.Close()

	go io.Copy(io.Discard, proc)
	require.NoError(t, proc.Resize(120, 40))

	exited := make(chan int, 1)
	go func() {
		code, _ := proc.Wait()
		exited <- code
	}()

	require.NoError(t, proc.Kill())

	select {
	case code := <-exited:
		assert.Equal(t, -1, code, "killed processes report -1")
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Kill")
	}
}
