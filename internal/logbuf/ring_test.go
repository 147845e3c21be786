package logbuf

import (
	"fmt"
	"testing"
)

func TestRingBasicWrite(t *testing.T) {
	r := New(5)
	r.Write([]byte("line 1\nline 2\r\nline 3\n"))

	lines := r.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "line 1" || lines[1] != "line 2" || lines[2] != "line 3" {
		t.Errorf("unexpected lines: %q", lines)
	}
	if r.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", r.Dropped())
	}
}

func TestRingOverflow(t *testing.T) {
	r := New(3)
	r.Write([]byte("a\nb\nc\nd\ne\n"))

	lines := r.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "c" || lines[1] != "d" || lines[2] != "e" {
		t.Errorf("expected [c d e], got %v", lines)
	}
	if r.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", r.Dropped())
	}
}

func TestRingPartialWrites(t *testing.T) {
	r := New(5)
	r.Write([]byte("hel"))
	r.Write([]byte("lo world\nsecond "))
	r.Write([]byte("line\n"))

	lines := r.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "hello world" || lines[1] != "second line" {
		t.Errorf("unexpected lines: %q", lines)
	}
}

func TestRingStringIncludesPartial(t *testing.T) {
	r := New(5)
	r.Write([]byte("frame=  10\nframe=  20"))

	if got := r.String(); got != "frame=  10\nframe=  20" {
		t.Errorf("String = %q", got)
	}
	if len(r.Lines()) != 1 {
		t.Errorf("partial line should not be in Lines")
	}
}

func TestRingStringAfterWrap(t *testing.T) {
	r := New(2)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(r, "%d\n", i)
	}
	if got := r.String(); got != "3\n4" {
		t.Errorf("String = %q, want %q", got, "3\n4")
	}
}

func TestRingLast(t *testing.T) {
	r := New(10)
	r.Write([]byte("a\nb\nc\nd\ne\n"))

	last := r.Last(3)
	if len(last) != 3 || last[0] != "c" || last[2] != "e" {
		t.Errorf("expected [c d e], got %v", last)
	}
	if got := r.Last(20); len(got) != 5 {
		t.Errorf("expected 5 lines, got %d", len(got))
	}
}

func TestRingEmpty(t *testing.T) {
	r := New(0)
	if lines := r.Lines(); len(lines) != 0 {
		t.Errorf("expected empty, got %v", lines)
	}
	if r.String() != "" {
		t.Errorf("expected empty string, got %q", r.String())
	}
}
