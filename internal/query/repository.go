package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/haasonsaas/imessage-mcp-server/internal/appletime"
	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

// Repository exposes the read-only query operations over the message store.
// Implementations open a short-lived connection per call, execute one
// logical query, and close the connection before returning. No caching, no
// pooling, no retries: a failed query surfaces immediately.
type Repository interface {
	RecentMessages(ctx context.Context, lookbackHours float64, contact string, limit int) ([]Message, error)
	Conversation(ctx context.Context, contact string, lookbackDays float64, limit int) ([]ConversationMessage, error)
	Search(ctx context.Context, textQuery string, lookbackDays float64, limit int) ([]Message, error)
	ListChats(ctx context.Context, limit int, includeGroupChats bool) ([]Chat, error)
	UnreadCount(ctx context.Context) (int64, error)
	AttachmentsForMessage(ctx context.Context, messageID int64) ([]Attachment, error)
	RecentAttachmentMessages(ctx context.Context, lookbackDays float64, contact string, limit int) ([]MessageWithAttachments, error)
	GroupChatMembers(ctx context.Context, chatIdentifier string) ([]string, error)
	FindChatByContact(ctx context.Context, contact string) (*Chat, error)
	Stats(ctx context.Context) (*DatabaseStats, error)
}

// SQLiteRepository implements Repository against chat.db.
type SQLiteRepository struct {
	store *store.Store
}

// NewSQLiteRepository creates a repository over the given store.
func NewSQLiteRepository(s *store.Store) *SQLiteRepository {
	return &SQLiteRepository{store: s}
}

// messageSelect is the shared projection for message-list queries. The chat
// is resolved through the join table; a message outside any chat keeps NULL
// chat columns and falls back in the mapper.
const messageSelect = `
	SELECT
		m.ROWID,
		m.text,
		m.attributedBody,
		m.date,
		COALESCE(m.is_from_me, 0),
		COALESCE(m.cache_has_attachments, 0),
		h.id,
		c.display_name,
		c.chat_identifier
	FROM message m
	LEFT JOIN handle h ON h.ROWID = m.handle_id
	LEFT JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
	LEFT JOIN chat c ON c.ROWID = cmj.chat_id
`

// contactCondition builds the 3-pattern contact predicate against the handle
// column. All patterns are bound as parameters, never interpolated.
func contactCondition(contact string) (string, []interface{}) {
	p := PatternsFor(contact)
	cond := "(h.id LIKE ? OR h.id = ? OR h.id LIKE ?)"
	return cond, []interface{}{p.OriginalSubstring, p.NormalizedExact, p.NormalizedSubstring}
}

// RecentMessages returns messages newer than the lookback window, newest
// first, optionally filtered by contact.
func (r *SQLiteRepository) RecentMessages(ctx context.Context, lookbackHours float64, contact string, limit int) ([]Message, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	conditions := []string{"m.date >= ?"}
	args := []interface{}{appletime.HoursAgo(lookbackHours)}
	if contact != "" {
		cond, condArgs := contactCondition(contact)
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY m.date DESC LIMIT ?", messageSelect, strings.Join(conditions, " AND "))
	args = append(args, limit)

	return r.queryMessages(ctx, db, query, args)
}

// Conversation returns messages exchanged with one contact, oldest first
// (reading order). The contact is required.
func (r *SQLiteRepository) Conversation(ctx context.Context, contact string, lookbackDays float64, limit int) ([]ConversationMessage, error) {
	if strings.TrimSpace(contact) == "" {
		return nil, eris.Wrap(store.ErrInvalidInput, "contact is required for conversation lookup")
	}

	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cond, condArgs := contactCondition(contact)
	query := fmt.Sprintf("%s WHERE m.date >= ? AND %s ORDER BY m.date ASC LIMIT ?", messageSelect, cond)
	args := append([]interface{}{appletime.DaysAgo(lookbackDays)}, condArgs...)
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query conversation")
	}
	defer rows.Close()

	var results []ConversationMessage
	for rows.Next() {
		row, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		msg, err := mapConversationMessage(row)
		if err != nil {
			return nil, err
		}
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate conversation rows")
	}
	return results, nil
}

// Search returns messages whose text contains textQuery as a substring,
// newest first. The query string is required.
func (r *SQLiteRepository) Search(ctx context.Context, textQuery string, lookbackDays float64, limit int) ([]Message, error) {
	if textQuery == "" {
		return nil, eris.Wrap(store.ErrInvalidInput, "search query is required")
	}

	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := messageSelect + " WHERE m.date >= ? AND m.text LIKE ? ORDER BY m.date DESC LIMIT ?"
	args := []interface{}{appletime.DaysAgo(lookbackDays), "%" + textQuery + "%", limit}

	return r.queryMessages(ctx, db, query, args)
}

// queryMessages runs a message-list query and maps the rows.
func (r *SQLiteRepository) queryMessages(ctx context.Context, db *sql.DB, query string, args []interface{}) ([]Message, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query messages")
	}
	defer rows.Close()

	var results []Message
	for rows.Next() {
		row, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		msg, err := mapMessage(row)
		if err != nil {
			return nil, err
		}
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate message rows")
	}
	return results, nil
}

func scanMessageRow(rows *sql.Rows) (messageRow, error) {
	var row messageRow
	if err := rows.Scan(
		&row.id,
		&row.text,
		&row.attributedBody,
		&row.date,
		&row.isFromMe,
		&row.hasAttachment,
		&row.handle,
		&row.displayName,
		&row.chatIdentifier,
	); err != nil {
		return messageRow{}, eris.Wrap(err, "scan message row")
	}
	return row, nil
}

// ListChats returns chats annotated with message count, last-message time,
// and a truncated preview of the most recent message, ordered by most recent
// activity. Style code 43 marks group chats; they are excluded when
// includeGroupChats is false.
func (r *SQLiteRepository) ListChats(ctx context.Context, limit int, includeGroupChats bool) ([]Chat, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	where := ""
	if !includeGroupChats {
		where = fmt.Sprintf("WHERE COALESCE(c.style, 0) != %d", groupChatStyle)
	}

	query := fmt.Sprintf(`
		WITH chat_stats AS (
			SELECT cmj.chat_id AS chat_id, COUNT(m.ROWID) AS message_count, MAX(m.date) AS last_date
			FROM chat_message_join cmj
			JOIN message m ON m.ROWID = cmj.message_id
			GROUP BY cmj.chat_id
		)
		SELECT
			c.ROWID,
			c.chat_identifier,
			c.display_name,
			c.service_name,
			COALESCE(c.style, 0),
			COALESCE(cs.message_count, 0),
			cs.last_date,
			(SELECT m2.text FROM message m2
				JOIN chat_message_join cmj2 ON cmj2.message_id = m2.ROWID
				WHERE cmj2.chat_id = c.ROWID
				ORDER BY m2.date DESC LIMIT 1)
		FROM chat c
		LEFT JOIN chat_stats cs ON cs.chat_id = c.ROWID
		%s
		ORDER BY cs.last_date DESC
		LIMIT ?
	`, where)

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query chats")
	}
	defer rows.Close()

	var results []Chat
	for rows.Next() {
		chat, err := scanChatRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate chat rows")
	}
	return results, nil
}

// groupChatStyle is the chat style code Messages assigns to multi-party
// (group) chats; every other code is a direct chat.
const groupChatStyle = 43

type chatScanner interface {
	Scan(dest ...interface{}) error
}

func scanChatRow(row chatScanner) (Chat, error) {
	var (
		id             sql.NullInt64
		chatIdentifier sql.NullString
		displayName    sql.NullString
		serviceName    sql.NullString
		style          int64
		messageCount   int64
		lastDate       sql.NullInt64
		lastText       sql.NullString
	)
	if err := row.Scan(&id, &chatIdentifier, &displayName, &serviceName, &style, &messageCount, &lastDate, &lastText); err != nil {
		return Chat{}, eris.Wrap(err, "scan chat row")
	}
	if !id.Valid {
		return Chat{}, eris.Wrap(store.ErrStoreCorruption, "chat row missing ROWID")
	}

	preview := ""
	if lastText.Valid && lastText.String != "" {
		preview = truncatePreview(lastText.String)
	}

	return Chat{
		ID:                 id.Int64,
		ChatIdentifier:     chatIdentifier.String,
		DisplayName:        fallback(displayName.String, chatIdentifier.String),
		ServiceName:        serviceName.String,
		IsGroupChat:        style == groupChatStyle,
		MessageCount:       messageCount,
		LastMessageDate:    formatNativeDate(lastDate),
		LastMessagePreview: preview,
	}, nil
}

// UnreadCount returns the number of unread messages not authored by self.
func (r *SQLiteRepository) UnreadCount(ctx context.Context) (int64, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int64
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM message
		WHERE COALESCE(is_from_me, 0) = 0 AND COALESCE(is_read, 0) = 0
	`).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "count unread messages")
	}
	return count, nil
}

// AttachmentsForMessage returns the attachments joined to one message.
func (r *SQLiteRepository) AttachmentsForMessage(ctx context.Context, messageID int64) ([]Attachment, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return fetchAttachments(ctx, db, messageID)
}

func fetchAttachments(ctx context.Context, db *sql.DB, messageID int64) ([]Attachment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT a.ROWID, a.filename, a.transfer_name, a.mime_type, a.total_bytes, COALESCE(a.is_sticker, 0)
		FROM attachment a
		JOIN message_attachment_join maj ON maj.attachment_id = a.ROWID
		WHERE maj.message_id = ?
	`, messageID)
	if err != nil {
		return nil, eris.Wrap(err, "query attachments")
	}
	defer rows.Close()

	var results []Attachment
	for rows.Next() {
		var (
			id                               sql.NullInt64
			filename, transferName, mimeType sql.NullString
			totalBytes, isSticker            sql.NullInt64
		)
		if err := rows.Scan(&id, &filename, &transferName, &mimeType, &totalBytes, &isSticker); err != nil {
			return nil, eris.Wrap(err, "scan attachment row")
		}
		att, err := mapAttachment(id, filename, transferName, mimeType, totalBytes, isSticker)
		if err != nil {
			return nil, err
		}
		results = append(results, att)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate attachment rows")
	}
	return results, nil
}

// RecentAttachmentMessages returns messages carrying at least one attachment
// within the lookback window, newest first, each paired with its full
// attachment list.
func (r *SQLiteRepository) RecentAttachmentMessages(ctx context.Context, lookbackDays float64, contact string, limit int) ([]MessageWithAttachments, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	conditions := []string{"m.date >= ?", "COALESCE(m.cache_has_attachments, 0) = 1"}
	args := []interface{}{appletime.DaysAgo(lookbackDays)}
	if contact != "" {
		cond, condArgs := contactCondition(contact)
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY m.date DESC LIMIT ?", messageSelect, strings.Join(conditions, " AND "))
	args = append(args, limit)

	messages, err := r.queryMessages(ctx, db, query, args)
	if err != nil {
		return nil, err
	}

	results := make([]MessageWithAttachments, 0, len(messages))
	for _, msg := range messages {
		attachments, err := fetchAttachments(ctx, db, msg.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, MessageWithAttachments{Message: msg, Attachments: attachments})
	}
	return results, nil
}

// GroupChatMembers returns the handle identifiers joined to a chat.
func (r *SQLiteRepository) GroupChatMembers(ctx context.Context, chatIdentifier string) ([]string, error) {
	if strings.TrimSpace(chatIdentifier) == "" {
		return nil, eris.Wrap(store.ErrInvalidInput, "chat identifier is required")
	}

	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT h.id
		FROM handle h
		JOIN chat_handle_join chj ON chj.handle_id = h.ROWID
		JOIN chat c ON c.ROWID = chj.chat_id
		WHERE c.chat_identifier = ?
		ORDER BY h.id
	`, chatIdentifier)
	if err != nil {
		return nil, eris.Wrap(err, "query chat members")
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, eris.Wrap(err, "scan chat member")
		}
		members = append(members, handle)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate chat members")
	}
	return members, nil
}

// FindChatByContact returns the most-recently-active chat matching the
// contact heuristic, or nil when nothing matches.
func (r *SQLiteRepository) FindChatByContact(ctx context.Context, contact string) (*Chat, error) {
	if strings.TrimSpace(contact) == "" {
		return nil, eris.Wrap(store.ErrInvalidInput, "contact is required to find a chat")
	}

	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	p := PatternsFor(contact)
	row := db.QueryRowContext(ctx, `
		WITH chat_stats AS (
			SELECT cmj.chat_id AS chat_id, COUNT(m.ROWID) AS message_count, MAX(m.date) AS last_date
			FROM chat_message_join cmj
			JOIN message m ON m.ROWID = cmj.message_id
			GROUP BY cmj.chat_id
		)
		SELECT
			c.ROWID,
			c.chat_identifier,
			c.display_name,
			c.service_name,
			COALESCE(c.style, 0),
			COALESCE(cs.message_count, 0),
			cs.last_date,
			(SELECT m2.text FROM message m2
				JOIN chat_message_join cmj2 ON cmj2.message_id = m2.ROWID
				WHERE cmj2.chat_id = c.ROWID
				ORDER BY m2.date DESC LIMIT 1)
		FROM chat c
		LEFT JOIN chat_stats cs ON cs.chat_id = c.ROWID
		LEFT JOIN chat_handle_join chj ON chj.chat_id = c.ROWID
		LEFT JOIN handle h ON h.ROWID = chj.handle_id
		WHERE h.id LIKE ? OR h.id = ? OR h.id LIKE ?
			OR c.chat_identifier LIKE ? OR c.chat_identifier = ?
		ORDER BY cs.last_date DESC
		LIMIT 1
	`, p.OriginalSubstring, p.NormalizedExact, p.NormalizedSubstring, p.OriginalSubstring, p.NormalizedExact)

	chat, err := scanChatRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

// Stats returns aggregate counts of messages, chats, and distinct handles.
func (r *SQLiteRepository) Stats(ctx context.Context) (*DatabaseStats, error) {
	db, err := r.store.OpenReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := &DatabaseStats{}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message").Scan(&stats.TotalMessages); err != nil {
		return nil, eris.Wrap(err, "count messages")
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat").Scan(&stats.TotalChats); err != nil {
		return nil, eris.Wrap(err, "count chats")
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT id) FROM handle").Scan(&stats.TotalHandles); err != nil {
		return nil, eris.Wrap(err, "count handles")
	}
	return stats, nil
}
