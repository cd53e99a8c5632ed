// Package querytest provides a mock Repository for handler tests.
package querytest

import (
	"context"

	"github.com/haasonsaas/imessage-mcp-server/internal/query"
)

// MockRepository implements query.Repository with canned results. Each call
// records the arguments it received so tests can assert on normalization.
type MockRepository struct {
	RecentMessagesResult    []query.Message
	ConversationResult      []query.ConversationMessage
	SearchResult            []query.Message
	ListChatsResult         []query.Chat
	UnreadCountResult       int64
	AttachmentsResult       []query.Attachment
	RecentAttachmentsResult []query.MessageWithAttachments
	GroupChatMembersResult  []string
	FindChatResult          *query.Chat
	StatsResult             *query.DatabaseStats
	Err                     error

	// Recorded arguments from the last call of each operation.
	LastLookbackHours float64
	LastLookbackDays  float64
	LastContact       string
	LastLimit         int
	LastQuery         string
	LastIncludeGroups bool
	LastMessageID     int64
	LastChatID        string
}

var _ query.Repository = (*MockRepository)(nil)

func (m *MockRepository) RecentMessages(_ context.Context, lookbackHours float64, contact string, limit int) ([]query.Message, error) {
	m.LastLookbackHours, m.LastContact, m.LastLimit = lookbackHours, contact, limit
	return m.RecentMessagesResult, m.Err
}

func (m *MockRepository) Conversation(_ context.Context, contact string, lookbackDays float64, limit int) ([]query.ConversationMessage, error) {
	m.LastContact, m.LastLookbackDays, m.LastLimit = contact, lookbackDays, limit
	return m.ConversationResult, m.Err
}

func (m *MockRepository) Search(_ context.Context, textQuery string, lookbackDays float64, limit int) ([]query.Message, error) {
	m.LastQuery, m.LastLookbackDays, m.LastLimit = textQuery, lookbackDays, limit
	return m.SearchResult, m.Err
}

func (m *MockRepository) ListChats(_ context.Context, limit int, includeGroupChats bool) ([]query.Chat, error) {
	m.LastLimit, m.LastIncludeGroups = limit, includeGroupChats
	return m.ListChatsResult, m.Err
}

func (m *MockRepository) UnreadCount(_ context.Context) (int64, error) {
	return m.UnreadCountResult, m.Err
}

func (m *MockRepository) AttachmentsForMessage(_ context.Context, messageID int64) ([]query.Attachment, error) {
	m.LastMessageID = messageID
	return m.AttachmentsResult, m.Err
}

func (m *MockRepository) RecentAttachmentMessages(_ context.Context, lookbackDays float64, contact string, limit int) ([]query.MessageWithAttachments, error) {
	m.LastLookbackDays, m.LastContact, m.LastLimit = lookbackDays, contact, limit
	return m.RecentAttachmentsResult, m.Err
}

func (m *MockRepository) GroupChatMembers(_ context.Context, chatIdentifier string) ([]string, error) {
	m.LastChatID = chatIdentifier
	return m.GroupChatMembersResult, m.Err
}

func (m *MockRepository) FindChatByContact(_ context.Context, contact string) (*query.Chat, error) {
	m.LastContact = contact
	return m.FindChatResult, m.Err
}

func (m *MockRepository) Stats(_ context.Context) (*query.DatabaseStats, error) {
	return m.StatsResult, m.Err
}
