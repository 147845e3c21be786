// Package host is the application runtime the GUI front end talks to. It
// collects capability plugins and command handlers, serves them over the
// invoke bridge and re-applies configuration when the config file changes.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver/v4"

	"github.com/benaskins/vidassist/internal/config"
	"github.com/benaskins/vidassist/internal/ipc"
)

// Version is the host runtime version plugins are checked against.
const Version = "0.4.0"

const shutdownTimeout = 10 * time.Second

// Plugin is a bundled capability exposed to the front end. Its commands are
// served as "plugin:<name>|<command>".
type Plugin interface {
	Name() string
	Commands() map[string]ipc.Handler
}

// Constrained is implemented by plugins that need a minimum host version.
// Requires returns a semver range such as ">=0.3.0 <1.0.0".
type Constrained interface {
	Requires() string
}

// Reconfigurable is implemented by plugins that follow config reloads.
type Reconfigurable interface {
	Reconfigure(cfg *config.Config)
}

// Options controls where the host listens and what it watches.
type Options struct {
	SocketPath string
	TCPAddr    string // optional
	ConfigPath string // watched for changes when set
	Version    string // defaults to Version
}

type command struct {
	name    string
	handler ipc.Handler
}

// Host assembles plugins and handlers into a running invoke bridge.
type Host struct {
	opts     Options
	plugins  []Plugin
	commands []command
	onConfig []func(*config.Config)
	logger   *slog.Logger
}

// New creates a host. Register plugins and handlers before calling Run.
func New(opts Options) *Host {
	if opts.Version == "" {
		opts.Version = Version
	}
	return &Host{
		opts:   opts,
		logger: slog.With("component", "host"),
	}
}

// Plugin registers a capability plugin.
func (h *Host) Plugin(p Plugin) *Host {
	h.plugins = append(h.plugins, p)
	return h
}

// Handle registers an application command.
func (h *Host) Handle(name string, handler ipc.Handler) *Host {
	h.commands = append(h.commands, command{name: name, handler: handler})
	return h
}

// OnConfig registers fn to run with each successfully reloaded config.
func (h *Host) OnConfig(fn func(*config.Config)) *Host {
	h.onConfig = append(h.onConfig, fn)
	return h
}

// PluginCommand returns the invoke name of a plugin command.
func PluginCommand(plugin, cmd string) string {
	return "plugin:" + plugin + "|" + cmd
}

// Registry checks plugin compatibility and builds the command registry.
func (h *Host) Registry() (*ipc.Registry, error) {
	version, err := parseVersion(h.opts.Version)
	if err != nil {
		return nil, fmt.Errorf("host version %q: %w", h.opts.Version, err)
	}

	reg := ipc.NewRegistry()
	for _, p := range h.plugins {
		if c, ok := p.(Constrained); ok {
			rng, err := semver.ParseRange(c.Requires())
			if err != nil {
				return nil, fmt.Errorf("plugin %s: bad version constraint %q: %w", p.Name(), c.Requires(), err)
			}
			if !rng(version) {
				return nil, fmt.Errorf("plugin %s requires host %s, have %s", p.Name(), c.Requires(), version)
			}
		}
		for name, handler := range p.Commands() {
			if err := reg.Register(PluginCommand(p.Name(), name), handler); err != nil {
				return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
			}
		}
	}
	for _, c := range h.commands {
		if err := reg.Register(c.name, c.handler); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// parseVersion accepts a leading "v" and treats "dev" as 0.0.0.
func parseVersion(v string) (semver.Version, error) {
	clean := strings.TrimPrefix(v, "v")
	if clean == "dev" {
		return semver.Version{}, nil
	}
	return semver.Parse(clean)
}

// Run serves the invoke bridge until ctx is cancelled or a listener fails.
func (h *Host) Run(ctx context.Context) error {
	reg, err := h.Registry()
	if err != nil {
		return err
	}

	// Remove a stale socket left by a crashed run.
	os.Remove(h.opts.SocketPath)
	if err := os.MkdirAll(filepath.Dir(h.opts.SocketPath), 0755); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := ipc.NewServer(reg)
	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.ListenUnix(h.opts.SocketPath)
	}()
	if h.opts.TCPAddr != "" {
		go func() {
			errCh <- srv.ListenTCP(h.opts.TCPAddr)
		}()
	}

	if h.opts.ConfigPath != "" {
		go func() {
			if err := config.Watch(ctx, h.opts.ConfigPath, h.apply); err != nil {
				h.logger.Warn("config watch disabled", "error", err)
			}
		}()
	}

	h.logger.Info("host ready", "version", h.opts.Version, "commands", len(reg.Names()))

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("invoke bridge: %w", err)
		}
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("shutdown incomplete", "error", err)
	}
	os.Remove(h.opts.SocketPath)

	h.logger.Info("host stopped")
	return runErr
}

func (h *Host) apply(cfg *config.Config) {
	for _, p := range h.plugins {
		if r, ok := p.(Reconfigurable); ok {
			r.Reconfigure(cfg)
		}
	}
	for _, fn := range h.onConfig {
		fn(cfg)
	}
}
