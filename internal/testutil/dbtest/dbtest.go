// Package dbtest provides a file-backed chat.db fixture with seed helpers
// for query-layer tests. The fixture is file-backed rather than in-memory
// because the repository opens a fresh connection per operation; an
// in-memory database would vanish between opens.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haasonsaas/imessage-mcp-server/internal/appletime"
)

// schema is the subset of the Messages database that the query layer reads.
const schema = `
CREATE TABLE message (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT,
	text TEXT,
	attributedBody BLOB,
	handle_id INTEGER DEFAULT 0,
	date INTEGER DEFAULT 0,
	is_from_me INTEGER DEFAULT 0,
	is_read INTEGER DEFAULT 0,
	cache_has_attachments INTEGER DEFAULT 0
);
CREATE TABLE handle (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL,
	service TEXT
);
CREATE TABLE chat (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT,
	chat_identifier TEXT,
	service_name TEXT,
	display_name TEXT,
	style INTEGER DEFAULT 45
);
CREATE TABLE chat_message_join (
	chat_id INTEGER,
	message_id INTEGER
);
CREATE TABLE chat_handle_join (
	chat_id INTEGER,
	handle_id INTEGER
);
CREATE TABLE attachment (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT,
	transfer_name TEXT,
	mime_type TEXT,
	total_bytes INTEGER,
	is_sticker INTEGER DEFAULT 0
);
CREATE TABLE message_attachment_join (
	message_id INTEGER,
	attachment_id INTEGER
);
`

// StrPtr returns a pointer to a string (for optional fields in seed opts).
func StrPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to an int64.
func Int64Ptr(v int64) *int64 { return &v }

// TestDB wraps a seeded chat.db in a temp directory.
type TestDB struct {
	Path string
	DB   *sql.DB
	T    testing.TB
}

// New creates a chat.db with the production schema in a temp directory.
func New(t testing.TB) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return &TestDB{Path: path, DB: db, T: t}
}

// Native converts wall-clock time to the store's nanosecond encoding.
func Native(t time.Time) int64 {
	return appletime.FromWallClock(t)
}

// AddHandle inserts a handle row and returns its ROWID.
func (tdb *TestDB) AddHandle(id string) int64 {
	tdb.T.Helper()
	return tdb.insert(`INSERT INTO handle (id, service) VALUES (?, 'iMessage')`, id)
}

// AddChat inserts a chat row and returns its ROWID. Style 43 marks a group
// chat; use 45 for direct chats.
func (tdb *TestDB) AddChat(identifier, displayName, serviceName string, style int) int64 {
	tdb.T.Helper()
	var display interface{}
	if displayName != "" {
		display = displayName
	}
	return tdb.insert(
		`INSERT INTO chat (chat_identifier, display_name, service_name, style) VALUES (?, ?, ?, ?)`,
		identifier, display, serviceName, style,
	)
}

// MessageOpts describes one message row to seed. A nil Text stays NULL in
// the store, exercising the placeholder fallbacks.
type MessageOpts struct {
	Text           *string
	AttributedBody []byte
	HandleID       int64
	SentAt         time.Time
	FromMe         bool
	Read           bool
	HasAttachments bool
}

// AddMessage inserts a message row and returns its ROWID.
func (tdb *TestDB) AddMessage(opts MessageOpts) int64 {
	tdb.T.Helper()

	var text interface{}
	if opts.Text != nil {
		text = *opts.Text
	}
	var body interface{}
	if len(opts.AttributedBody) > 0 {
		body = opts.AttributedBody
	}
	return tdb.insert(`
		INSERT INTO message (text, attributedBody, handle_id, date, is_from_me, is_read, cache_has_attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		text, body, opts.HandleID, Native(opts.SentAt), boolInt(opts.FromMe), boolInt(opts.Read), boolInt(opts.HasAttachments),
	)
}

// JoinChatMessage links a message into a chat.
func (tdb *TestDB) JoinChatMessage(chatID, messageID int64) {
	tdb.T.Helper()
	tdb.exec(`INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)`, chatID, messageID)
}

// JoinChatHandle links a handle into a chat as a participant.
func (tdb *TestDB) JoinChatHandle(chatID, handleID int64) {
	tdb.T.Helper()
	tdb.exec(`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, chatID, handleID)
}

// AttachmentOpts describes one attachment row to seed.
type AttachmentOpts struct {
	Filename     string
	TransferName string
	MimeType     string
	TotalBytes   *int64
	IsSticker    bool
}

// AddAttachment inserts an attachment row joined to a message and returns
// its ROWID.
func (tdb *TestDB) AddAttachment(messageID int64, opts AttachmentOpts) int64 {
	tdb.T.Helper()

	var size interface{}
	if opts.TotalBytes != nil {
		size = *opts.TotalBytes
	}
	id := tdb.insert(`
		INSERT INTO attachment (filename, transfer_name, mime_type, total_bytes, is_sticker)
		VALUES (?, ?, ?, ?, ?)`,
		opts.Filename, opts.TransferName, opts.MimeType, size, boolInt(opts.IsSticker),
	)
	tdb.exec(`INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)`, messageID, id)
	return id
}

func (tdb *TestDB) insert(query string, args ...interface{}) int64 {
	tdb.T.Helper()
	res, err := tdb.DB.Exec(query, args...)
	if err != nil {
		tdb.T.Fatalf("insert: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tdb.T.Fatalf("last insert id: %v", err)
	}
	return id
}

func (tdb *TestDB) exec(query string, args ...interface{}) {
	tdb.T.Helper()
	if _, err := tdb.DB.Exec(query, args...); err != nil {
		tdb.T.Fatalf("exec: %v", err)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
