// Package backend wraps the external command-line tools that perform
// the actual transcoding work. Each wrapper owns argument
// construction, process execution, timeout handling and result
// normalization for one tool family.
package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/convsuite/convsuite/internal/execx"
)

// Sentinel errors shared by all wrappers. Callers match them with
// errors.Is to distinguish failure kinds.
var (
	// ErrUnavailable means the tool could not be resolved.
	ErrUnavailable = errors.New("backend not available")
	// ErrTimeout means a bounded invocation exceeded its wall-clock budget.
	ErrTimeout = errors.New("conversion timed out")
	// ErrOutputMissing means the tool exited zero but the expected
	// artifact is absent, which usually indicates a tool/version mismatch.
	ErrOutputMissing = errors.New("output file not found after conversion")
)

// processError converts a non-zero exit into an error carrying the
// tool's own diagnostic output, preferring stderr over stdout.
func processError(tool string, res *execx.Result) error {
	msg := strings.TrimSpace(string(res.Stderr))
	if msg == "" {
		msg = strings.TrimSpace(string(res.Stdout))
	}
	if msg == "" {
		msg = fmt.Sprintf("exited with code %d", res.ExitCode)
	}
	return fmt.Errorf("%s: %s", tool, msg)
}

// ensureDir creates the directory if it does not exist.
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
