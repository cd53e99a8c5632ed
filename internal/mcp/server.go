// Package mcp is the outer dispatch shell: it declares the MCP tools,
// validates their arguments, and serializes query-layer entities as JSON
// over a stdio server.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/haasonsaas/imessage-mcp-server/internal/automation"
	"github.com/haasonsaas/imessage-mcp-server/internal/query"
	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

// Tool name constants.
const (
	ToolRecentMessages      = "get_recent_messages"
	ToolConversation        = "get_conversation"
	ToolSearchMessages      = "search_messages"
	ToolListChats           = "list_chats"
	ToolUnreadCount         = "get_unread_count"
	ToolMessageAttachments  = "get_message_attachments"
	ToolRecentAttachments   = "get_recent_attachments"
	ToolGroupChatMembers    = "get_group_chat_members"
	ToolFindChat            = "find_chat"
	ToolDatabaseStats       = "get_database_stats"
	ToolCheckDatabaseAccess = "check_database_access"
	ToolSendMessage         = "send_message"
	ToolLookupContact       = "lookup_contact"
)

// Options wires the collaborators behind the tool handlers.
type Options struct {
	Repository  query.Repository
	Store       *store.Store
	Messenger   *automation.Messenger
	Contacts    *automation.ContactsClient
	MaxLimit    int
	SendEnabled bool
}

// Serve creates the MCP server with all iMessage tools and serves over
// stdio. It blocks until stdin closes or the context is cancelled.
func Serve(ctx context.Context, opts Options) error {
	s := NewServer(opts)
	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// NewServer builds the MCP server without binding it to stdio.
func NewServer(opts Options) *server.MCPServer {
	s := server.NewMCPServer(
		"imessage-mcp-server",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = query.MaxMessageLimit
	}
	h := &handlers{
		repo:        opts.Repository,
		store:       opts.Store,
		messenger:   opts.Messenger,
		contacts:    opts.Contacts,
		maxLimit:    maxLimit,
		sendEnabled: opts.SendEnabled,
	}

	s.AddTool(recentMessagesTool(), h.recentMessages)
	s.AddTool(conversationTool(), h.conversation)
	s.AddTool(searchMessagesTool(), h.searchMessages)
	s.AddTool(listChatsTool(), h.listChats)
	s.AddTool(unreadCountTool(), h.unreadCount)
	s.AddTool(messageAttachmentsTool(), h.messageAttachments)
	s.AddTool(recentAttachmentsTool(), h.recentAttachments)
	s.AddTool(groupChatMembersTool(), h.groupChatMembers)
	s.AddTool(findChatTool(), h.findChat)
	s.AddTool(databaseStatsTool(), h.databaseStats)
	s.AddTool(checkDatabaseAccessTool(), h.checkDatabaseAccess)
	s.AddTool(sendMessageTool(), h.sendMessage)
	s.AddTool(lookupContactTool(), h.lookupContact)

	return s
}

// Common argument helpers for recurring tool option definitions.

func withLimit(defaultDesc string) mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default "+defaultDesc+")"),
	)
}

func withContact(desc string) mcp.ToolOption {
	return mcp.WithString("contact",
		mcp.Description(desc),
	)
}

func withDays() mcp.ToolOption {
	return mcp.WithNumber("days",
		mcp.Description("Lookback window in days (default 7)"),
	)
}

func recentMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolRecentMessages,
		mcp.WithDescription("Get recent iMessages, newest first, optionally filtered to one contact."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("hours",
			mcp.Description("Lookback window in hours (default 24)"),
		),
		withContact("Phone number, email, or partial handle to filter by"),
		withLimit("50"),
	)
}

func conversationTool() mcp.Tool {
	return mcp.NewTool(ToolConversation,
		mcp.WithDescription("Get the conversation with one contact in reading order (oldest first)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("contact",
			mcp.Required(),
			mcp.Description("Phone number, email, or partial handle"),
		),
		withDays(),
		withLimit("50"),
	)
}

func searchMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchMessages,
		mcp.WithDescription("Search message text for a substring, newest first. % and _ act as wildcards."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		withDays(),
		withLimit("50"),
	)
}

func listChatsTool() mcp.Tool {
	return mcp.NewTool(ToolListChats,
		mcp.WithDescription("List chats with message counts, last activity, and a preview of the latest message."),
		mcp.WithReadOnlyHintAnnotation(true),
		withLimit("50"),
		mcp.WithBoolean("include_group_chats",
			mcp.Description("Include group chats (default true)"),
		),
	)
}

func unreadCountTool() mcp.Tool {
	return mcp.NewTool(ToolUnreadCount,
		mcp.WithDescription("Count unread incoming messages."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func messageAttachmentsTool() mcp.Tool {
	return mcp.NewTool(ToolMessageAttachments,
		mcp.WithDescription("List the attachments of one message by message ID."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("message_id",
			mcp.Required(),
			mcp.Description("Message ID"),
		),
	)
}

func recentAttachmentsTool() mcp.Tool {
	return mcp.NewTool(ToolRecentAttachments,
		mcp.WithDescription("Get recent messages that carry attachments, each with its full attachment list."),
		mcp.WithReadOnlyHintAnnotation(true),
		withDays(),
		withContact("Phone number, email, or partial handle to filter by"),
		withLimit("50"),
	)
}

func groupChatMembersTool() mcp.Tool {
	return mcp.NewTool(ToolGroupChatMembers,
		mcp.WithDescription("List the handles that belong to a group chat."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("chat_identifier",
			mcp.Required(),
			mcp.Description("Chat identifier (e.g. chat123456789)"),
		),
	)
}

func findChatTool() mcp.Tool {
	return mcp.NewTool(ToolFindChat,
		mcp.WithDescription("Find the most recently active chat that matches a contact."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("contact",
			mcp.Required(),
			mcp.Description("Phone number, email, or partial handle"),
		),
	)
}

func databaseStatsTool() mcp.Tool {
	return mcp.NewTool(ToolDatabaseStats,
		mcp.WithDescription("Get aggregate counts of messages, chats, and handles."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func checkDatabaseAccessTool() mcp.Tool {
	return mcp.NewTool(ToolCheckDatabaseAccess,
		mcp.WithDescription("Check whether the iMessage database exists and is readable, with remediation hints."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func sendMessageTool() mcp.Tool {
	return mcp.NewTool(ToolSendMessage,
		mcp.WithDescription("Send an iMessage (falls back to SMS once on failure)."),
		mcp.WithString("recipient",
			mcp.Required(),
			mcp.Description("Phone number or email to send to"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message body"),
		),
	)
}

func lookupContactTool() mcp.Tool {
	return mcp.NewTool(ToolLookupContact,
		mcp.WithDescription("Look up a contact by name in the macOS address book, returning phones and emails."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Full or partial contact name"),
		),
	)
}
