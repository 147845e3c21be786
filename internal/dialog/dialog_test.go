package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/benaskins/vidassist/internal/audit"
)

type memRecorder struct{ entries []audit.Entry }

func (m *memRecorder) Record(e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

type fakeTool struct {
	stdout string
	code   int
	err    error
	got    []invocation
}

func (f *fakeTool) run(ctx context.Context, inv invocation) (string, int, error) {
	f.got = append(f.got, inv)
	return f.stdout, f.code, f.err
}

func newPlugin(goos string, tool *fakeTool) (*Plugin, *memRecorder) {
	rec := &memRecorder{}
	return &Plugin{goos: goos, run: tool.run, audit: rec}, rec
}

func ask(t *testing.T, p *Plugin, args string) (bool, error) {
	t.Helper()
	out, err := p.Commands()["ask"](context.Background(), json.RawMessage(args))
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

func TestAskDarwin(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{stdout: "button returned:Yes\n"}
	p, rec := newPlugin("darwin", tool)

	yes, err := ask(t, p, `{"title":"Overwrite?","message":"out.mp4 \"exists\""}`)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !yes {
		t.Error("expected yes")
	}

	inv := tool.got[0]
	if inv.name != "osascript" {
		t.Fatalf("tool = %s", inv.name)
	}
	// User text is passed as argv, not spliced into the script.
	if n := len(inv.args); inv.args[n-2] != "Overwrite?" || inv.args[n-1] != `out.mp4 "exists"` {
		t.Errorf("argv = %q", inv.args)
	}
	for _, a := range inv.args[:len(inv.args)-2] {
		if strings.Contains(a, "out.mp4") {
			t.Errorf("message leaked into script: %q", a)
		}
	}

	if len(rec.entries) != 1 || rec.entries[0].Command != "plugin:dialog|ask" || rec.entries[0].Target != "Overwrite?" {
		t.Errorf("unexpected audit: %+v", rec.entries)
	}

	tool.stdout = "button returned:No\n"
	if yes, _ := ask(t, p, `{"message":"again"}`); yes {
		t.Error("expected no")
	}
}

func TestAskLinuxUsesExitCode(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{code: 1}
	p, _ := newPlugin("linux", tool)

	yes, err := ask(t, p, `{"message":"Cancel processing?"}`)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if yes {
		t.Error("exit 1 should mean no")
	}
	if tool.got[0].name != "zenity" || !slices.Contains(tool.got[0].args, "--question") {
		t.Errorf("unexpected invocation: %+v", tool.got[0])
	}
	if !slices.Contains(tool.got[0].args, "AI Video Processing Assistant") {
		t.Errorf("expected default title: %q", tool.got[0].args)
	}
}

func TestAskWindowsUsesEnvironment(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{stdout: "Yes\r\n"}
	p, _ := newPlugin("windows", tool)

	yes, err := ask(t, p, `{"title":"t","message":"'; Remove-Item C:\\ -Recurse; '"}`)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !yes {
		t.Error("expected yes")
	}
	inv := tool.got[0]
	if strings.Contains(strings.Join(inv.args, " "), "Remove-Item") {
		t.Errorf("message leaked into command line: %q", inv.args)
	}
	if !slices.Contains(inv.env, `VIDASSIST_DIALOG_MESSAGE='; Remove-Item C:\ -Recurse; '`) {
		t.Errorf("env = %q", inv.env)
	}
}

func TestMessageKinds(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{}
	p, _ := newPlugin("linux", tool)

	for kind, flag := range map[string]string{"": "--info", "warning": "--warning", "error": "--error"} {
		raw, _ := json.Marshal(messageArgs{Message: "done", Kind: Kind(kind)})
		if _, err := p.Commands()["message"](context.Background(), raw); err != nil {
			t.Fatalf("message(%q): %v", kind, err)
		}
		last := tool.got[len(tool.got)-1]
		if last.args[0] != flag {
			t.Errorf("kind %q: flag = %s, want %s", kind, last.args[0], flag)
		}
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{}
	p, _ := newPlugin("plan9", tool)
	if _, err := ask(t, p, `{"message":"x"}`); err == nil {
		t.Error("expected error")
	}
	if len(tool.got) != 0 {
		t.Error("tool should not run")
	}
}

func TestToolMissing(t *testing.T) {
	t.Parallel()
	tool := &fakeTool{err: errors.New(`exec: "zenity": executable file not found in $PATH`)}
	p, rec := newPlugin("linux", tool)

	_, err := p.Commands()["message"](context.Background(), json.RawMessage(`{"message":"x"}`))
	if err == nil || !strings.Contains(err.Error(), "showing dialog") {
		t.Errorf("error = %v", err)
	}
	if len(rec.entries) != 1 || rec.entries[0].Error == "" {
		t.Errorf("expected audit entry with error, got %+v", rec.entries)
	}
}
