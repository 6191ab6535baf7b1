package execx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Result holds the outcome of a bounded process invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Process is a handle to a running external process whose error stream
// can be read while the process runs.
type Process interface {
	// Stderr returns the live error stream of the process. It must be
	// drained before Wait is called or the process may block on a full
	// pipe buffer.
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its exit error,
	// if any.
	Wait() error
}

// Runner launches external commands. The indirection exists so that
// backends can be exercised in tests without spawning real tools.
type Runner interface {
	// Run executes a command and waits for it to finish. A timeout of
	// zero means no bound. A non-zero exit status is reported through
	// Result.ExitCode, not through the error.
	Run(ctx context.Context, exe string, args []string, timeout time.Duration) (*Result, error)

	// RunInput is Run with the given string piped to stdin.
	RunInput(ctx context.Context, exe string, args []string, stdin string, timeout time.Duration) (*Result, error)

	// Start launches a command without waiting, exposing its error
	// stream for live consumption.
	Start(ctx context.Context, exe string, args []string) (Process, error)
}

// New returns a Runner backed by os/exec.
func New() Runner {
	return &osRunner{}
}

type osRunner struct{}

func (r *osRunner) Run(ctx context.Context, exe string, args []string, timeout time.Duration) (*Result, error) {
	return r.run(ctx, exe, args, "", timeout)
}

func (r *osRunner) RunInput(ctx context.Context, exe string, args []string, stdin string, timeout time.Duration) (*Result, error) {
	return r.run(ctx, exe, args, stdin, timeout)
}

func (r *osRunner) run(ctx context.Context, exe string, args []string, stdin string, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *osRunner) Start(ctx context.Context, exe string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &osProcess{cmd: cmd, stderr: stderr}, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stderr io.Reader
}

func (p *osProcess) Stderr() io.Reader { return p.stderr }

func (p *osProcess) Wait() error { return p.cmd.Wait() }
