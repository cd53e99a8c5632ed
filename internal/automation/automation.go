// Package automation drives Messages.app and Contacts.app through
// osascript. Each call is a single synchronous external-process invocation:
// stdout carries the result, a non-zero exit is a failure. There is no
// structured error payload, only raw text, which gets wrapped into the local
// error taxonomy before it reaches callers.
package automation

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

const osascriptPath = "/usr/bin/osascript"

// ScriptRunner executes an AppleScript given as lines, passing args to its
// run handler, and returns trimmed stdout. Tests substitute a fake.
type ScriptRunner func(ctx context.Context, lines []string, args []string) (string, error)

// RunOsascript is the production ScriptRunner.
func RunOsascript(ctx context.Context, lines []string, args []string) (string, error) {
	cmdArgs := make([]string, 0, len(lines)*2+len(args))
	for _, line := range lines {
		cmdArgs = append(cmdArgs, "-e", line)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, osascriptPath, cmdArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "osascript: %s", strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
