package query

import (
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/haasonsaas/imessage-mcp-server/internal/appletime"
	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

// Textual fallbacks applied when optional fields are absent. Mapping is total
// over optional fields; only a missing required identifier fails, and that is
// store corruption, not a mappable default.
const (
	noTextPlaceholder    = "[No text content]"
	unknownHandleLabel   = "Unknown"
	directMessageLabel   = "Direct Message"
	unknownDateLabel     = "Unknown"
	unknownFilenameLabel = "Unknown file"
	previewMaxLen        = 50
	wallClockLayout      = "2006-01-02 15:04:05"
)

// messageRow is the raw shape shared by the message-list queries.
type messageRow struct {
	id             sql.NullInt64
	text           sql.NullString
	attributedBody []byte
	date           sql.NullInt64
	isFromMe       sql.NullInt64
	hasAttachment  sql.NullInt64
	handle         sql.NullString
	displayName    sql.NullString
	chatIdentifier sql.NullString
}

// mapMessage converts a raw row into a Message entity.
func mapMessage(row messageRow) (Message, error) {
	if !row.id.Valid {
		return Message{}, eris.Wrap(store.ErrStoreCorruption, "message row missing ROWID")
	}
	return Message{
		ID:            row.id.Int64,
		Text:          messageText(row.text, row.attributedBody),
		Date:          formatNativeDate(row.date),
		IsFromMe:      row.isFromMe.Valid && row.isFromMe.Int64 != 0,
		HasAttachment: row.hasAttachment.Valid && row.hasAttachment.Int64 != 0,
		Handle:        fallback(row.handle.String, unknownHandleLabel),
		Chat:          chatLabel(row.displayName, row.chatIdentifier),
	}, nil
}

// mapConversationMessage converts a raw row into a ConversationMessage,
// labeling the sender "You" for outgoing messages.
func mapConversationMessage(row messageRow) (ConversationMessage, error) {
	if !row.id.Valid {
		return ConversationMessage{}, eris.Wrap(store.ErrStoreCorruption, "message row missing ROWID")
	}
	fromMe := row.isFromMe.Valid && row.isFromMe.Int64 != 0
	sender := "You"
	if !fromMe {
		sender = fallback(row.handle.String, unknownHandleLabel)
	}
	return ConversationMessage{
		ID:       row.id.Int64,
		Text:     messageText(row.text, row.attributedBody),
		Date:     formatNativeDate(row.date),
		IsFromMe: fromMe,
		Sender:   sender,
	}, nil
}

// messageText returns the message text, recovering it from the
// attributedBody blob when the text column is NULL, and falling back to the
// placeholder when neither carries anything readable.
func messageText(text sql.NullString, attributedBody []byte) string {
	if text.Valid && text.String != "" {
		return text.String
	}
	if recovered := extractAttributedBodyText(attributedBody); recovered != "" {
		return recovered
	}
	return noTextPlaceholder
}

// chatLabel resolves the owning chat's display label: display name, else
// identifier, else the direct-message placeholder.
func chatLabel(displayName, chatIdentifier sql.NullString) string {
	if s := strings.TrimSpace(displayName.String); s != "" {
		return s
	}
	if s := strings.TrimSpace(chatIdentifier.String); s != "" {
		return s
	}
	return directMessageLabel
}

// formatNativeDate converts a native timestamp to a wall-clock date string.
func formatNativeDate(native sql.NullInt64) string {
	if !native.Valid || native.Int64 == 0 {
		return unknownDateLabel
	}
	return appletime.ToWallClock(native.Int64).Format(wallClockLayout)
}

// mapAttachment converts a raw attachment row into an Attachment entity.
// The transfer name is preferred over the raw filename, which on disk is a
// full path.
func mapAttachment(id sql.NullInt64, filename, transferName, mimeType sql.NullString, totalBytes sql.NullInt64, isSticker sql.NullInt64) (Attachment, error) {
	if !id.Valid {
		return Attachment{}, eris.Wrap(store.ErrStoreCorruption, "attachment row missing ROWID")
	}

	name := strings.TrimSpace(transferName.String)
	if name == "" && filename.Valid {
		name = filepath.Base(filename.String)
	}
	if name == "" || name == "." {
		name = unknownFilenameLabel
	}

	var size *int64
	if totalBytes.Valid && totalBytes.Int64 > 0 {
		v := totalBytes.Int64
		size = &v
	}

	mime := fallback(mimeType.String, "unknown")
	return Attachment{
		ID:             id.Int64,
		Filename:       name,
		MimeType:       mime,
		FilePath:       filename.String,
		FileSize:       size,
		FileSizeLabel:  FormatFileSize(size),
		IsSticker:      isSticker.Valid && isSticker.Int64 != 0,
		IsAudioMessage: isAudioMessage(mime, transferName.String),
	}, nil
}

// isAudioMessage reports whether an attachment is a recorded audio message:
// audio MIME type and a transfer name carrying the Messages audio marker.
func isAudioMessage(mimeType, transferName string) bool {
	return strings.HasPrefix(mimeType, "audio/") && strings.Contains(transferName, "Audio Message")
}

// truncatePreview shortens free text for chat previews, suffixing an
// ellipsis when anything was cut.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewMaxLen {
		return text
	}
	return string(runes[:previewMaxLen]) + "..."
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
