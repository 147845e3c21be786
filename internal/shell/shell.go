// Package shell is the shell capability plugin. The front end runs
// allowlisted helper programs (ffmpeg, the ncnn tools) by alias and gets back
// the exit code and captured output.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/benaskins/vidassist/internal/audit"
	"github.com/benaskins/vidassist/internal/config"
	"github.com/benaskins/vidassist/internal/host"
	"github.com/benaskins/vidassist/internal/ipc"
	"github.com/benaskins/vidassist/internal/logbuf"
	"github.com/benaskins/vidassist/internal/procattr"
)

const (
	// maxOutputLines bounds the output kept per stream. ffmpeg progress
	// output can run to hundreds of thousands of lines on long encodes.
	maxOutputLines = 10000

	spawnRate  = 4
	spawnBurst = 8
)

// ErrNotAllowed is returned for programs missing from the allowlist.
var ErrNotAllowed = errors.New("program not allowed")

// Result is the outcome of a finished program. A non-zero Code is not an
// error; the caller decides what it means.
type Result struct {
	Code   int    `json:"code"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

type executeArgs struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Cwd     string   `json:"cwd"`
}

type resolveArgs struct {
	Program string `json:"program"`
}

// Plugin serves the shell commands.
type Plugin struct {
	mu      sync.RWMutex
	allow   map[string]string
	limiter *rate.Limiter
	audit   audit.Recorder
}

// New creates the plugin with an alias -> program allowlist.
func New(allow map[string]string, rec audit.Recorder) *Plugin {
	if rec == nil {
		rec = audit.Discard
	}
	p := &Plugin{
		limiter: rate.NewLimiter(spawnRate, spawnBurst),
		audit:   rec,
	}
	p.setAllow(allow)
	return p
}

func (p *Plugin) Name() string { return "shell" }

func (p *Plugin) Requires() string { return ">=0.4.0" }

func (p *Plugin) Commands() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		"execute": ipc.Typed(p.execute),
		"resolve": ipc.Typed(p.resolveCmd),
		"allowed": ipc.Typed(p.allowed),
	}
}

// Reconfigure replaces the allowlist.
func (p *Plugin) Reconfigure(cfg *config.Config) {
	p.setAllow(cfg.ShellAllow)
}

func (p *Plugin) setAllow(allow map[string]string) {
	copied := make(map[string]string, len(allow))
	for alias, program := range allow {
		copied[alias] = program
	}
	p.mu.Lock()
	p.allow = copied
	p.mu.Unlock()
}

// resolve maps an alias to the executable path it runs.
func (p *Plugin) resolve(alias string) (string, error) {
	p.mu.RLock()
	program, ok := p.allow[alias]
	p.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotAllowed, alias)
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", alias, err)
	}
	return path, nil
}

func (p *Plugin) resolveCmd(ctx context.Context, args resolveArgs) (string, error) {
	return p.resolve(args.Program)
}

func (p *Plugin) allowed(ctx context.Context, _ struct{}) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	aliases := make([]string, 0, len(p.allow))
	for alias := range p.allow {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

func (p *Plugin) execute(ctx context.Context, args executeArgs) (*Result, error) {
	path, err := p.resolve(args.Program)
	if err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to run %s: %w", args.Program, err)
	}

	stdout := logbuf.New(maxOutputLines)
	stderr := logbuf.New(maxOutputLines)

	cmd := exec.CommandContext(ctx, path, args.Args...)
	cmd.Dir = args.Cwd
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	procattr.HideWindow(cmd)

	entry := audit.Entry{
		Action:  audit.ActionShellExecute,
		Command: host.PluginCommand("shell", "execute"),
		Target:  path,
		Args:    args.Args,
	}

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		entry.Error = err.Error()
		p.audit.Record(entry)
		return nil, fmt.Errorf("running %s: %w", args.Program, err)
	}

	code := cmd.ProcessState.ExitCode()
	entry.ExitCode = &code
	p.audit.Record(entry)

	return &Result{
		Code:   code,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}
