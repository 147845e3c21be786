// Package files is the fs capability plugin: text file access for the front
// end, confined to the configured scope directories.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/benaskins/vidassist/internal/audit"
	"github.com/benaskins/vidassist/internal/config"
	"github.com/benaskins/vidassist/internal/host"
	"github.com/benaskins/vidassist/internal/ipc"
)

// ErrNotAllowed is returned for paths outside every scope root.
var ErrNotAllowed = errors.New("path not allowed")

// Entry is one item of a directory listing.
type Entry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
	IsFile      bool   `json:"isFile"`
}

type pathArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type writeArgs struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// Plugin serves the fs commands.
type Plugin struct {
	mu    sync.RWMutex
	roots []string
	audit audit.Recorder
}

// New creates the plugin with the given scope roots.
func New(roots []string, rec audit.Recorder) *Plugin {
	if rec == nil {
		rec = audit.Discard
	}
	p := &Plugin{audit: rec}
	p.setRoots(roots)
	return p
}

func (p *Plugin) Name() string { return "fs" }

func (p *Plugin) Requires() string { return ">=0.4.0" }

func (p *Plugin) Commands() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		"read_text_file":  ipc.Typed(p.readTextFile),
		"write_text_file": ipc.Typed(p.writeTextFile),
		"exists":          ipc.Typed(p.exists),
		"read_dir":        ipc.Typed(p.readDir),
		"mkdir":           ipc.Typed(p.mkdir),
		"remove":          ipc.Typed(p.remove),
	}
}

// Reconfigure replaces the scope roots.
func (p *Plugin) Reconfigure(cfg *config.Config) {
	p.setRoots(cfg.FSScope)
}

func (p *Plugin) setRoots(roots []string) {
	resolved := make([]string, 0, len(roots))
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			continue
		}
		resolved = append(resolved, realPath(filepath.Clean(r)))
	}
	p.mu.Lock()
	p.roots = resolved
	p.mu.Unlock()
}

// realPath resolves symlinks in the longest existing prefix of path.
func realPath(path string) string {
	rest := ""
	for dir := path; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		rest = filepath.Join(filepath.Base(dir), rest)
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve returns the real path for path and the root containing it.
func (p *Plugin) resolve(path string) (string, string, error) {
	if path == "" || !filepath.IsAbs(path) {
		return "", "", fmt.Errorf("%w: %q", ErrNotAllowed, path)
	}
	resolved := realPath(filepath.Clean(path))

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, root := range p.roots {
		if within(root, resolved) {
			return resolved, root, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrNotAllowed, path)
}

func (p *Plugin) record(entry audit.Entry, err error) {
	if err != nil {
		entry.Error = err.Error()
	}
	p.audit.Record(entry)
}

func (p *Plugin) readTextFile(ctx context.Context, args pathArgs) (string, error) {
	path, _, err := p.resolve(args.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Plugin) writeTextFile(ctx context.Context, args writeArgs) (any, error) {
	path, _, err := p.resolve(args.Path)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(path, []byte(args.Contents), 0644)
	p.record(audit.Entry{Action: audit.ActionFSWrite, Command: host.PluginCommand("fs", "write_text_file"), Target: path}, err)
	return nil, err
}

func (p *Plugin) exists(ctx context.Context, args pathArgs) (bool, error) {
	path, _, err := p.resolve(args.Path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (p *Plugin) readDir(ctx context.Context, args pathArgs) ([]Entry, error) {
	path, _, err := p.resolve(args.Path)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{
			Name:        de.Name(),
			IsDirectory: de.IsDir(),
			IsFile:      de.Type().IsRegular(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (p *Plugin) mkdir(ctx context.Context, args pathArgs) (any, error) {
	path, _, err := p.resolve(args.Path)
	if err != nil {
		return nil, err
	}
	if args.Recursive {
		err = os.MkdirAll(path, 0755)
	} else {
		err = os.Mkdir(path, 0755)
	}
	p.record(audit.Entry{Action: audit.ActionFSMkdir, Command: host.PluginCommand("fs", "mkdir"), Target: path}, err)
	return nil, err
}

func (p *Plugin) remove(ctx context.Context, args pathArgs) (any, error) {
	path, root, err := p.resolve(args.Path)
	if err != nil {
		return nil, err
	}
	if path == root {
		return nil, fmt.Errorf("%w: cannot remove scope root %s", ErrNotAllowed, args.Path)
	}
	if args.Recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	p.record(audit.Entry{Action: audit.ActionFSRemove, Command: host.PluginCommand("fs", "remove"), Target: path}, err)
	return nil, err
}
