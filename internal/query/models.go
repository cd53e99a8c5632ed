// Package query implements the read-only query and mapping layer over the
// Messages database: parameter normalization, contact matching, parameterized
// queries against the chat.db schema, and mapping of raw rows into stable
// domain entities.
package query

import "fmt"

// Message is one message row projected for callers. All timestamps are
// already converted to wall-clock form; callers never see the native
// encoding. Entities are read-only snapshots constructed per query call.
type Message struct {
	ID            int64  `json:"id"`
	Text          string `json:"text"`
	Date          string `json:"date"`
	IsFromMe      bool   `json:"is_from_me"`
	HasAttachment bool   `json:"has_attachment"`
	Handle        string `json:"handle"`
	Chat          string `json:"chat"`
}

// ConversationMessage is a message scoped to one contact, labeled by sender
// ("You" for outgoing, the handle otherwise).
type ConversationMessage struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Date     string `json:"date"`
	IsFromMe bool   `json:"is_from_me"`
	Sender   string `json:"sender"`
}

// Chat is a conversation summary. LastMessageDate is "Unknown" for chats
// that have no messages.
type Chat struct {
	ID                 int64  `json:"id"`
	ChatIdentifier     string `json:"chat_identifier"`
	DisplayName        string `json:"display_name"`
	ServiceName        string `json:"service_name"`
	IsGroupChat        bool   `json:"is_group_chat"`
	MessageCount       int64  `json:"message_count"`
	LastMessageDate    string `json:"last_message_date"`
	LastMessagePreview string `json:"last_message_preview"`
}

// Attachment is one attachment row. FileSize is nil when the store has no
// byte count for the transfer.
type Attachment struct {
	ID             int64  `json:"id"`
	Filename       string `json:"filename"`
	MimeType       string `json:"mime_type"`
	FilePath       string `json:"file_path"`
	FileSize       *int64 `json:"file_size"`
	FileSizeLabel  string `json:"file_size_label"`
	IsSticker      bool   `json:"is_sticker"`
	IsAudioMessage bool   `json:"is_audio_message"`
}

// MessageWithAttachments pairs a message with its full attachment list.
type MessageWithAttachments struct {
	Message
	Attachments []Attachment `json:"attachments"`
}

// DatabaseStats holds aggregate counts over the whole store.
type DatabaseStats struct {
	TotalMessages int64 `json:"total_messages"`
	TotalChats    int64 `json:"total_chats"`
	TotalHandles  int64 `json:"total_handles"`
}

// FormatFileSize renders a byte count for display. Absent or non-positive
// sizes render as "Unknown size".
func FormatFileSize(size *int64) string {
	if size == nil || *size <= 0 {
		return "Unknown size"
	}
	n := float64(*size)
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", *size)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", n/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", n/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", n/(1024*1024*1024))
	}
}
