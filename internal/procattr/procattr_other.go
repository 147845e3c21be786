//go:build !windows

// Package procattr sets platform process attributes for helper commands.
package procattr

import "os/exec"

// HideWindow is a no-op outside Windows.
func HideWindow(cmd *exec.Cmd) {}
