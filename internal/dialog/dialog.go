// Package dialog is the native dialog capability plugin. Dialogs are shown
// by the platform's scripting tool: osascript on macOS, zenity on Linux and
// PowerShell on Windows.
package dialog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/benaskins/vidassist/internal/audit"
	"github.com/benaskins/vidassist/internal/host"
	"github.com/benaskins/vidassist/internal/ipc"
	"github.com/benaskins/vidassist/internal/procattr"
)

// Kind selects the dialog's icon and buttons.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type messageArgs struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// invocation is one run of the platform dialog tool. Text travels through
// argv or the environment, never through the script source.
type invocation struct {
	name string
	args []string
	env  []string
}

// runFunc runs an invocation and returns its stdout and exit code. err is
// set only when the tool could not be started.
type runFunc func(ctx context.Context, inv invocation) (stdout string, code int, err error)

// Plugin serves the dialog commands.
type Plugin struct {
	goos  string
	run   runFunc
	audit audit.Recorder
}

// New creates the plugin for the current platform.
func New(rec audit.Recorder) *Plugin {
	if rec == nil {
		rec = audit.Discard
	}
	return &Plugin{goos: runtime.GOOS, run: runTool, audit: rec}
}

func (p *Plugin) Name() string { return "dialog" }

func (p *Plugin) Commands() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		"message": ipc.Typed(p.message),
		"ask":     ipc.Typed(p.ask),
	}
}

func (p *Plugin) message(ctx context.Context, args messageArgs) (any, error) {
	inv, err := messageInvocation(p.goos, args)
	if err != nil {
		return nil, err
	}
	_, _, err = p.show(ctx, "message", args, inv)
	return nil, err
}

func (p *Plugin) ask(ctx context.Context, args messageArgs) (bool, error) {
	inv, err := askInvocation(p.goos, args)
	if err != nil {
		return false, err
	}
	stdout, code, err := p.show(ctx, "ask", args, inv)
	if err != nil {
		return false, err
	}
	return answeredYes(p.goos, stdout, code), nil
}

func (p *Plugin) show(ctx context.Context, cmd string, args messageArgs, inv invocation) (string, int, error) {
	stdout, code, err := p.run(ctx, inv)
	entry := audit.Entry{
		Action:  audit.ActionDialog,
		Command: host.PluginCommand("dialog", cmd),
		Target:  args.Title,
	}
	if err != nil {
		entry.Error = err.Error()
		p.audit.Record(entry)
		return "", 0, fmt.Errorf("showing dialog: %w", err)
	}
	entry.ExitCode = &code
	p.audit.Record(entry)
	return stdout, code, nil
}

func runTool(ctx context.Context, inv invocation) (string, int, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.name, inv.args...)
	cmd.Stdout = &stdout
	if len(inv.env) > 0 {
		cmd.Env = append(os.Environ(), inv.env...)
	}
	procattr.HideWindow(cmd)

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", 0, err
	}
	return stdout.String(), cmd.ProcessState.ExitCode(), nil
}

func title(args messageArgs) string {
	if args.Title == "" {
		return "AI Video Processing Assistant"
	}
	return args.Title
}

func messageInvocation(goos string, args messageArgs) (invocation, error) {
	switch goos {
	case "darwin":
		icon := map[Kind]string{KindWarning: "caution", KindError: "stop"}[args.Kind]
		if icon == "" {
			icon = "note"
		}
		return osascript(`display dialog (item 2 of argv) with title (item 1 of argv) buttons {"OK"} default button "OK" with icon `+icon,
			title(args), args.Message), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		flag := map[Kind]string{KindWarning: "--warning", KindError: "--error"}[args.Kind]
		if flag == "" {
			flag = "--info"
		}
		return invocation{name: "zenity", args: []string{flag, "--title", title(args), "--text", args.Message}}, nil
	case "windows":
		icon := map[Kind]string{KindWarning: "Warning", KindError: "Error"}[args.Kind]
		if icon == "" {
			icon = "Information"
		}
		return powershell(`[System.Windows.MessageBox]::Show($env:VIDASSIST_DIALOG_MESSAGE, $env:VIDASSIST_DIALOG_TITLE, 'OK', '`+icon+`')`, args), nil
	}
	return invocation{}, fmt.Errorf("dialogs are not supported on %s", goos)
}

func askInvocation(goos string, args messageArgs) (invocation, error) {
	switch goos {
	case "darwin":
		return osascript(`display dialog (item 2 of argv) with title (item 1 of argv) buttons {"No", "Yes"} default button "Yes"`,
			title(args), args.Message), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return invocation{name: "zenity", args: []string{"--question", "--title", title(args), "--text", args.Message}}, nil
	case "windows":
		return powershell(`[System.Windows.MessageBox]::Show($env:VIDASSIST_DIALOG_MESSAGE, $env:VIDASSIST_DIALOG_TITLE, 'YesNo', 'Question')`, args), nil
	}
	return invocation{}, fmt.Errorf("dialogs are not supported on %s", goos)
}

func osascript(statement string, argv ...string) invocation {
	args := []string{"-e", "on run argv", "-e", statement, "-e", "end run"}
	return invocation{name: "osascript", args: append(args, argv...)}
}

func powershell(statement string, args messageArgs) invocation {
	return invocation{
		name: "powershell",
		args: []string{"-NoProfile", "-Command", "Add-Type -AssemblyName PresentationFramework; " + statement},
		env: []string{
			"VIDASSIST_DIALOG_TITLE=" + title(args),
			"VIDASSIST_DIALOG_MESSAGE=" + args.Message,
		},
	}
}

// answeredYes reads the tool's reply. zenity answers with its exit code;
// osascript and PowerShell print the chosen button.
func answeredYes(goos, stdout string, code int) bool {
	switch goos {
	case "darwin":
		return code == 0 && strings.Contains(stdout, "button returned:Yes")
	case "windows":
		return code == 0 && strings.TrimSpace(stdout) == "Yes"
	}
	return code == 0
}
