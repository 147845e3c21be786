// Package audit records capability use by the front end.
//
// Every call that reaches outside the backend (a file written or removed, a
// program executed, a dialog shown) is appended to ~/.vidassist/audit.log as
// newline-delimited JSON.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionFSWrite      Action = "fs_write"
	ActionFSMkdir      Action = "fs_mkdir"
	ActionFSRemove     Action = "fs_remove"
	ActionShellExecute Action = "shell_execute"
	ActionDialog       Action = "dialog"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Command   string    `json:"command"`          // invoke command, e.g. "plugin:shell|execute"
	Target    string    `json:"target,omitempty"` // path or program
	Args      []string  `json:"args,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Recorder accepts audit entries.
type Recorder interface {
	Record(Entry) error
}

// Discard drops every entry.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Entry) error { return nil }

// Logger writes audit entries to an append-only file.
type Logger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	now func() time.Time
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{w: f, now: time.Now}, nil
}

// Record appends an entry, stamping it if the timestamp is unset.
func (l *Logger) Record(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
