// Package logbuf captures the tail of a child process's output.
package logbuf

import (
	"bytes"
	"strings"
	"sync"
)

// Ring keeps the last N lines written to it. It implements io.Writer so it
// can be used as a process's stdout or stderr. Lines that fall off the front
// are counted, not stored.
type Ring struct {
	mu      sync.Mutex
	lines   []string
	next    int
	count   int
	dropped int
	partial bytes.Buffer
}

// New creates a ring that holds n lines. n < 1 is treated as 1.
func New(n int) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{lines: make([]string, n)}
}

// Write stores each complete line. A trailing fragment is held until its
// newline arrives or String is called.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.partial.Write(p)
	for {
		i := bytes.IndexByte(r.partial.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(r.partial.Next(i + 1))
		r.push(strings.TrimRight(line, "\r\n"))
	}
	if r.partial.Len() == 0 {
		r.partial.Reset()
	}
	return len(p), nil
}

func (r *Ring) push(line string) {
	if r.count == len(r.lines) {
		r.dropped++
	} else {
		r.count++
	}
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
}

// Lines returns the stored complete lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Ring) snapshot() []string {
	out := make([]string, 0, r.count)
	start := (r.next - r.count + len(r.lines)) % len(r.lines)
	for i := 0; i < r.count; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}

// Last returns the last n lines. If fewer lines exist, returns all of them.
func (r *Ring) Last(n int) []string {
	all := r.Lines()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Dropped reports how many lines were discarded to stay within capacity.
func (r *Ring) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// String returns the retained output, including any unterminated last line.
func (r *Ring) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.snapshot()
	if r.partial.Len() > 0 {
		lines = append(lines, strings.TrimRight(r.partial.String(), "\r"))
	}
	return strings.Join(lines, "\n")
}
