// Package gpu enumerates the display adapters installed on the host.
//
// The system query shells out to a platform utility and decodes its JSON
// output. It is only implemented on Windows; other platforms report no
// adapters.
package gpu

import (
	"context"
	"fmt"
	"strings"
)

const bytesPerMB = 1024 * 1024

// Descriptor describes one display adapter reported by the system query.
type Descriptor struct {
	Name   string  `json:"name"`
	VRAMMB *uint64 `json:"vramMb"`
}

// ExitError is returned when the query command runs but exits non-zero.
// Its message is the command's trimmed stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("GPU query exited with status %d", e.Code)
	}
	return e.Stderr
}

// ListSystem runs the platform GPU query and returns the adapters it reports.
// It blocks until the query process exits. There is no timeout; cancelling
// ctx kills the process.
func ListSystem(ctx context.Context) ([]Descriptor, error) {
	return listSystem(ctx)
}

// runQuery executes the query command and parses its stdout.
func runQuery(ctx context.Context, name string, args ...string) ([]Descriptor, error) {
	stdout, stderr, err := run(ctx, name, args...)
	if err != nil {
		if code, ok := exitCode(err); ok {
			return nil, &ExitError{Code: code, Stderr: strings.TrimSpace(string(stderr))}
		}
		return nil, fmt.Errorf("spawning GPU query: %w", err)
	}

	out := strings.TrimSpace(string(stdout))
	if out == "" {
		return []Descriptor{}, nil
	}
	return ParseSystemJSON(out)
}
