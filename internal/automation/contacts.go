package automation

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

// ContactCard is one address-book entry with its reachable handles.
type ContactCard struct {
	Name   string   `json:"name"`
	Phones []string `json:"phones"`
	Emails []string `json:"emails"`
}

// ContactsClient looks up address-book entries through Contacts.app.
type ContactsClient struct {
	run ScriptRunner
}

// NewContactsClient returns a ContactsClient using the real osascript runner.
func NewContactsClient() *ContactsClient {
	return &ContactsClient{run: RunOsascript}
}

// NewContactsClientWithRunner returns a ContactsClient with a custom runner.
func NewContactsClientWithRunner(run ScriptRunner) *ContactsClient {
	return &ContactsClient{run: run}
}

// fieldSep and entrySep keep the AppleScript output parseable without
// colliding with names, numbers, or email addresses.
const (
	fieldSep = "|||"
	entrySep = "@@@"
)

// Lookup finds contacts whose name contains the query and returns their
// phone numbers and email addresses.
func (c *ContactsClient) Lookup(ctx context.Context, name string) ([]ContactCard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.Wrap(store.ErrInvalidInput, "contact name is required")
	}

	script := []string{
		`on run argv`,
		`set queryName to item 1 of argv`,
		`tell application "Contacts"`,
		`set matched to (every person whose name contains queryName)`,
		`set rows to {}`,
		`repeat with p in matched`,
		`set phoneList to ""`,
		`repeat with ph in phones of p`,
		`set phoneList to phoneList & (value of ph) & ","`,
		`end repeat`,
		`set emailList to ""`,
		`repeat with em in emails of p`,
		`set emailList to emailList & (value of em) & ","`,
		`end repeat`,
		`set end of rows to (name of p & "` + fieldSep + `" & phoneList & "` + fieldSep + `" & emailList)`,
		`end repeat`,
		`set AppleScript's text item delimiters to "` + entrySep + `"`,
		`return rows as text`,
		`end tell`,
		`end run`,
	}

	out, err := c.run(ctx, script, []string{name})
	if err != nil {
		return nil, eris.Wrapf(store.ErrAutomationFailure, "contacts lookup for %q failed: %v", name, err)
	}

	return parseContactCards(out), nil
}

// parseContactCards parses the delimited osascript output. Malformed entries
// are skipped rather than failing the whole lookup.
func parseContactCards(out string) []ContactCard {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	var cards []ContactCard
	for _, entry := range strings.Split(out, entrySep) {
		parts := strings.Split(entry, fieldSep)
		if len(parts) != 3 {
			continue
		}
		card := ContactCard{
			Name:   strings.TrimSpace(parts[0]),
			Phones: splitHandleList(parts[1]),
			Emails: splitHandleList(parts[2]),
		}
		if card.Name == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

func splitHandleList(raw string) []string {
	var handles []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}
