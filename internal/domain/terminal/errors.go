package terminal

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
)

// MaxSize is the largest column or row count a PTY window can carry
const MaxSize = 1<<16 - 1

var (
	// ErrNotFound is returned for unknown or disposed terminal IDs
	ErrNotFound = errors.New("terminal not found")

	// ErrLaunch matches every LaunchError through errors.Is
	ErrLaunch = errors.New("failed to launch shell")

	// ErrInvalidSize rejects dimensions outside 1..MaxSize
	ErrInvalidSize = errors.New("invalid terminal size")
)

// LaunchError reports a shell that could not be started. It is reported once
// and never retried.
type LaunchError struct {
	Path   string
	Args   []string
	Source shell.Source
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s shell %q: %v", e.Source, e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLaunch) hold for any LaunchError
func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}

func notFound(terminalID string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, terminalID)
}
