package gpu

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/benaskins/vidassist/internal/procattr"
)

// run starts name with args, waits for it and returns both output streams.
// A non-nil error is either a spawn failure or an *exec.ExitError.
func run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	procattr.HideWindow(cmd)

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
