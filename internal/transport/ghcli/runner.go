package ghcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Result is the outcome of one finished command.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// Runner runs an external command with stdin closed, stdout captured and
// stderr forwarded. A non-zero exit is reported through Result, not error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner is the os/exec Runner.
type ExecRunner struct {
	Stderr io.Writer
}

// NewExecRunner creates a runner that forwards child stderr to the process stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stderr: os.Stderr}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil // reads from the null device
	cmd.Stdout = &stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("run %s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Result{Stdout: stdout.Bytes(), ExitCode: 0}, nil
	case errors.As(err, &exitErr):
		return Result{Stdout: stdout.Bytes(), ExitCode: exitErr.ExitCode()}, nil
	default:
		return Result{}, fmt.Errorf("run %s: %w", name, err)
	}
}
