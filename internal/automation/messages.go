package automation

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

// Messenger sends messages through Messages.app.
type Messenger struct {
	run ScriptRunner
}

// NewMessenger returns a Messenger using the real osascript runner.
func NewMessenger() *Messenger {
	return &Messenger{run: RunOsascript}
}

// NewMessengerWithRunner returns a Messenger with a custom script runner.
func NewMessengerWithRunner(run ScriptRunner) *Messenger {
	return &Messenger{run: run}
}

// Send delivers a message to a recipient handle (phone or email). It tries
// iMessage first and retries once over SMS before surfacing the failure.
// Returns a human-readable status string on success.
func (m *Messenger) Send(ctx context.Context, recipient, body string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", eris.Wrap(store.ErrInvalidInput, "recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return "", eris.Wrap(store.ErrInvalidInput, "message body is required")
	}

	imsgErr := m.sendVia(ctx, "iMessage", recipient, body)
	if imsgErr == nil {
		return "Message sent to " + recipient, nil
	}

	// Secondary path: one SMS attempt, then surface both failures.
	smsErr := m.sendVia(ctx, "SMS", recipient, body)
	if smsErr == nil {
		return "Message sent to " + recipient + " via SMS", nil
	}

	return "", eris.Wrapf(store.ErrAutomationFailure, "send to %s failed (iMessage: %v; SMS: %v)", recipient, imsgErr, smsErr)
}

func (m *Messenger) sendVia(ctx context.Context, service, recipient, body string) error {
	script := []string{
		`on run argv`,
		`set targetHandle to item 1 of argv`,
		`set bodyText to item 2 of argv`,
		`set desiredService to item 3 of argv`,
		`tell application "Messages"`,
		`set targetAccount to first account whose service type is desiredService`,
		`set targetParticipant to participant targetHandle of targetAccount`,
		`send bodyText to targetParticipant`,
		`end tell`,
		`end run`,
	}
	_, err := m.run(ctx, script, []string{recipient, body, service})
	return err
}
