package store

import "errors"

// Error taxonomy for the query layer. Operations wrap these sentinels with
// eris so callers can classify failures with errors.Is while still receiving
// a human-actionable message.
var (
	// ErrStoreNotFound means the chat.db file is absent. Not retryable until
	// the Messages app has been used on this machine.
	ErrStoreNotFound = errors.New("message store not found")

	// ErrPermissionDenied means the store exists but cannot be opened.
	// Requires an out-of-band grant (Full Disk Access) before retrying.
	ErrPermissionDenied = errors.New("message store permission denied")

	// ErrStoreCorruption means a row is missing a field the schema guarantees,
	// such as a primary identifier. Fatal for that operation; never patched
	// over with defaults.
	ErrStoreCorruption = errors.New("message store corruption")

	// ErrInvalidInput means an operation's hard-required parameter is missing.
	// Optional numeric parameters never produce this; they degrade to defaults.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAutomationFailure means an external automation command failed or
	// returned malformed output.
	ErrAutomationFailure = errors.New("automation failure")
)
