package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/haasonsaas/imessage-mcp-server/internal/automation"
	"github.com/haasonsaas/imessage-mcp-server/internal/query"
	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

type handlers struct {
	repo        query.Repository
	store       *store.Store
	messenger   *automation.Messenger
	contacts    *automation.ContactsClient
	maxLimit    int
	sendEnabled bool
}

// floatArg extracts an optional numeric argument. JSON numbers arrive as
// float64; nil means the caller omitted the field, which the normalizer
// turns into the default.
func floatArg(args map[string]any, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

func strArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// boolArg extracts an optional boolean argument with a default.
func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// getIDArg extracts a required positive integer ID from the arguments map.
func getIDArg(args map[string]any, key string) (int64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	if v != math.Trunc(v) || v < 1 || v > math.MaxInt64 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(v), nil
}

func (h *handlers) recentMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	hours := query.NormalizeHours(floatArg(args, "hours"), query.DefaultLookbackHours, query.MaxLookbackHours)
	limit := query.NormalizeLimit(floatArg(args, "limit"), query.DefaultMessageLimit, h.maxLimit)
	contact := strArg(args, "contact")

	messages, err := h.repo.RecentMessages(ctx, hours, contact, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get recent messages failed: %v", err)), nil
	}
	return jsonResult(messages)
}

func (h *handlers) conversation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	contact := strArg(args, "contact")
	if contact == "" {
		return mcp.NewToolResultError("contact parameter is required"), nil
	}
	days := query.NormalizeDays(floatArg(args, "days"), query.DefaultLookbackDays, query.MaxLookbackDays)
	limit := query.NormalizeLimit(floatArg(args, "limit"), query.DefaultMessageLimit, h.maxLimit)

	messages, err := h.repo.Conversation(ctx, contact, days, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get conversation failed: %v", err)), nil
	}
	return jsonResult(messages)
}

func (h *handlers) searchMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	textQuery := strArg(args, "query")
	if textQuery == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	days := query.NormalizeDays(floatArg(args, "days"), query.DefaultLookbackDays, query.MaxLookbackDays)
	limit := query.NormalizeLimit(floatArg(args, "limit"), query.DefaultMessageLimit, h.maxLimit)

	messages, err := h.repo.Search(ctx, textQuery, days, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(messages)
}

func (h *handlers) listChats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	limit := query.NormalizeLimit(floatArg(args, "limit"), query.DefaultMessageLimit, h.maxLimit)
	includeGroups := boolArg(args, "include_group_chats", true)

	chats, err := h.repo.ListChats(ctx, limit, includeGroups)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list chats failed: %v", err)), nil
	}
	return jsonResult(chats)
}

func (h *handlers) unreadCount(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := h.repo.UnreadCount(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unread count failed: %v", err)), nil
	}

	resp := struct {
		UnreadCount int64 `json:"unread_count"`
	}{UnreadCount: count}
	return jsonResult(resp)
}

func (h *handlers) messageAttachments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	id, err := getIDArg(args, "message_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	attachments, err := h.repo.AttachmentsForMessage(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get attachments failed: %v", err)), nil
	}
	return jsonResult(attachments)
}

func (h *handlers) recentAttachments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	days := query.NormalizeDays(floatArg(args, "days"), query.DefaultLookbackDays, query.MaxLookbackDays)
	limit := query.NormalizeLimit(floatArg(args, "limit"), query.DefaultMessageLimit, h.maxLimit)
	contact := strArg(args, "contact")

	messages, err := h.repo.RecentAttachmentMessages(ctx, days, contact, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get recent attachments failed: %v", err)), nil
	}
	return jsonResult(messages)
}

func (h *handlers) groupChatMembers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	identifier := strArg(args, "chat_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("chat_identifier parameter is required"), nil
	}

	members, err := h.repo.GroupChatMembers(ctx, identifier)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get group chat members failed: %v", err)), nil
	}
	return jsonResult(members)
}

func (h *handlers) findChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	contact := strArg(args, "contact")
	if contact == "" {
		return mcp.NewToolResultError("contact parameter is required"), nil
	}

	chat, err := h.repo.FindChatByContact(ctx, contact)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("find chat failed: %v", err)), nil
	}
	if chat == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no chat found for contact %q", contact)), nil
	}
	return jsonResult(chat)
}

func (h *handlers) databaseStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.repo.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func (h *handlers) checkDatabaseAccess(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.store.CheckAccess())
}

func (h *handlers) sendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !h.sendEnabled {
		return mcp.NewToolResultError("sending is disabled by configuration"), nil
	}

	args := req.GetArguments()
	recipient := strArg(args, "recipient")
	body := strArg(args, "message")
	if recipient == "" {
		return mcp.NewToolResultError("recipient parameter is required"), nil
	}
	if body == "" {
		return mcp.NewToolResultError("message parameter is required"), nil
	}

	status, err := h.messenger.Send(ctx, recipient, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("send failed: %v", err)), nil
	}

	resp := struct {
		Status string `json:"status"`
	}{Status: status}
	return jsonResult(resp)
}

func (h *handlers) lookupContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	name := strArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	cards, err := h.contacts.Lookup(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("contact lookup failed: %v", err)), nil
	}
	return jsonResult(cards)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
