package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/haasonsaas/imessage-mcp-server/internal/store"
	"github.com/haasonsaas/imessage-mcp-server/internal/testutil/dbtest"
)

func newRepo(t *testing.T) (*dbtest.TestDB, *SQLiteRepository) {
	t.Helper()
	tdb := dbtest.New(t)
	st, err := store.New(tdb.Path)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return tdb, NewSQLiteRepository(st)
}

func TestRecentMessagesOrderAndWindow(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("old"), HandleID: handle, SentAt: now.Add(-48 * time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("first"), HandleID: handle, SentAt: now.Add(-2 * time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("second"), HandleID: handle, SentAt: now.Add(-1 * time.Hour)})

	got, err := repo.RecentMessages(context.Background(), 24, "", 50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}

	var texts []string
	for _, m := range got {
		texts = append(texts, m.Text)
	}
	want := []string{"second", "first"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentMessagesContactFilter(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	alice := tdb.AddHandle("+15551234567")
	bob := tdb.AddHandle("+15559876543")
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("from alice"), HandleID: alice, SentAt: now.Add(-time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("from bob"), HandleID: bob, SentAt: now.Add(-time.Hour)})

	got, err := repo.RecentMessages(context.Background(), 24, "555-123-4567", 50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 1 || got[0].Text != "from alice" {
		t.Errorf("got %+v, want single message from alice", got)
	}
}

func TestRecentMessagesLimit(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	for i := 0; i < 10; i++ {
		tdb.AddMessage(dbtest.MessageOpts{
			Text:     dbtest.StrPtr("msg"),
			HandleID: handle,
			SentAt:   now.Add(-time.Duration(i) * time.Minute),
		})
	}

	got, err := repo.RecentMessages(context.Background(), 24, "", 3)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestRecentMessagesNullTextFallback(t *testing.T) {
	tdb, repo := newRepo(t)

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{HandleID: handle, SentAt: time.Now().Add(-time.Hour)})

	got, err := repo.RecentMessages(context.Background(), 24, "", 50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 1 || got[0].Text != "[No text content]" {
		t.Errorf("got %+v, want placeholder text", got)
	}
}

func TestRecentMessagesAttributedBodyRecovery(t *testing.T) {
	tdb, repo := newRepo(t)

	body := "recovered body"
	blob := append([]byte("streamtyped...NSString"), 0x01, 0x02, 0x03, 0x04, 0x05, byte(len(body)))
	blob = append(blob, []byte(body)...)

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{AttributedBody: blob, HandleID: handle, SentAt: time.Now().Add(-time.Hour)})

	got, err := repo.RecentMessages(context.Background(), 24, "", 50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 1 || got[0].Text != body {
		t.Errorf("got %+v, want text recovered from attributedBody", got)
	}
}

func TestConversationOldestFirst(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("newer"), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("older"), HandleID: handle, SentAt: now.Add(-3 * time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("mine"), HandleID: handle, SentAt: now.Add(-2 * time.Hour), FromMe: true})

	got, err := repo.Conversation(context.Background(), "5551234567", 7, 50)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}

	var senders, texts []string
	for _, m := range got {
		senders = append(senders, m.Sender)
		texts = append(texts, m.Text)
	}
	if diff := cmp.Diff([]string{"older", "mine", "newer"}, texts); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"+15551234567", "You", "+15551234567"}, senders); diff != "" {
		t.Errorf("senders mismatch (-want +got):\n%s", diff)
	}
}

func TestConversationRequiresContact(t *testing.T) {
	_, repo := newRepo(t)
	_, err := repo.Conversation(context.Background(), "  ", 7, 50)
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSearchSubstring(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("see you at dinner"), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("lunch tomorrow?"), HandleID: handle, SentAt: now.Add(-2 * time.Hour)})

	got, err := repo.Search(context.Background(), "dinner", 7, 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || !strings.Contains(got[0].Text, "dinner") {
		t.Errorf("got %+v, want single dinner match", got)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	_, repo := newRepo(t)
	_, err := repo.Search(context.Background(), "", 7, 50)
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListChats(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	direct := tdb.AddChat("+15551234567", "", "iMessage", 45)
	group := tdb.AddChat("chat987654321", "Family", "iMessage", 43)

	m1 := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("direct hello"), HandleID: handle, SentAt: now.Add(-2 * time.Hour)})
	tdb.JoinChatMessage(direct, m1)
	m2 := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr(strings.Repeat("g", 60)), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.JoinChatMessage(group, m2)

	got, err := repo.ListChats(context.Background(), 50, true)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	family := got[0]
	if family.DisplayName != "Family" || !family.IsGroupChat {
		t.Errorf("first chat = %+v, want group Family first", family)
	}
	if family.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", family.MessageCount)
	}
	if want := strings.Repeat("g", 50) + "..."; family.LastMessagePreview != want {
		t.Errorf("LastMessagePreview = %q, want %q", family.LastMessagePreview, want)
	}

	if got[1].DisplayName != "+15551234567" || got[1].IsGroupChat {
		t.Errorf("second chat = %+v, want direct chat", got[1])
	}
}

func TestListChatsExcludesGroups(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	direct := tdb.AddChat("+15551234567", "", "iMessage", 45)
	group := tdb.AddChat("chat987654321", "Family", "iMessage", 43)
	m1 := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("hi"), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.JoinChatMessage(direct, m1)
	m2 := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("yo"), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.JoinChatMessage(group, m2)

	got, err := repo.ListChats(context.Background(), 50, false)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(got) != 1 || got[0].IsGroupChat {
		t.Errorf("got %+v, want only the direct chat", got)
	}
}

func TestUnreadCount(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("unread"), HandleID: handle, SentAt: now})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("read"), HandleID: handle, SentAt: now, Read: true})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("mine"), HandleID: handle, SentAt: now, FromMe: true})

	count, err := repo.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAttachmentsForMessage(t *testing.T) {
	tdb, repo := newRepo(t)

	handle := tdb.AddHandle("+15551234567")
	msgID := tdb.AddMessage(dbtest.MessageOpts{HandleID: handle, SentAt: time.Now(), HasAttachments: true})
	tdb.AddAttachment(msgID, dbtest.AttachmentOpts{
		Filename:     "/var/Attachments/ab/IMG_0001.heic",
		TransferName: "IMG_0001.heic",
		MimeType:     "image/heic",
		TotalBytes:   dbtest.Int64Ptr(4096),
	})

	got, err := repo.AttachmentsForMessage(context.Background(), msgID)
	if err != nil {
		t.Fatalf("AttachmentsForMessage: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Filename != "IMG_0001.heic" || got[0].MimeType != "image/heic" {
		t.Errorf("attachment = %+v", got[0])
	}
	if got[0].FileSize == nil || *got[0].FileSize != 4096 {
		t.Errorf("FileSize = %v, want 4096", got[0].FileSize)
	}
}

func TestAttachmentsForMessageEmpty(t *testing.T) {
	tdb, repo := newRepo(t)

	handle := tdb.AddHandle("+15551234567")
	msgID := tdb.AddMessage(dbtest.MessageOpts{HandleID: handle, SentAt: time.Now()})

	got, err := repo.AttachmentsForMessage(context.Background(), msgID)
	if err != nil {
		t.Fatalf("AttachmentsForMessage: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRecentAttachmentMessages(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	withAtt := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("photo"), HandleID: handle, SentAt: now.Add(-time.Hour), HasAttachments: true})
	tdb.AddAttachment(withAtt, dbtest.AttachmentOpts{TransferName: "IMG_0002.heic", MimeType: "image/heic"})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("plain"), HandleID: handle, SentAt: now.Add(-time.Hour)})

	got, err := repo.RecentAttachmentMessages(context.Background(), 7, "", 50)
	if err != nil {
		t.Fatalf("RecentAttachmentMessages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Text != "photo" || len(got[0].Attachments) != 1 {
		t.Errorf("got %+v", got[0])
	}
}

func TestGroupChatMembers(t *testing.T) {
	tdb, repo := newRepo(t)

	group := tdb.AddChat("chat987654321", "Family", "iMessage", 43)
	for _, id := range []string{"+15551234567", "+15559876543", "mom@example.com"} {
		tdb.JoinChatHandle(group, tdb.AddHandle(id))
	}

	got, err := repo.GroupChatMembers(context.Background(), "chat987654321")
	if err != nil {
		t.Fatalf("GroupChatMembers: %v", err)
	}
	want := []string{"+15551234567", "+15559876543", "mom@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupChatMembersRequiresIdentifier(t *testing.T) {
	_, repo := newRepo(t)
	_, err := repo.GroupChatMembers(context.Background(), "")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestFindChatByContact(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	handle := tdb.AddHandle("+15551234567")
	chat := tdb.AddChat("+15551234567", "", "iMessage", 45)
	tdb.JoinChatHandle(chat, handle)
	msg := tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("hey"), HandleID: handle, SentAt: now.Add(-time.Hour)})
	tdb.JoinChatMessage(chat, msg)

	got, err := repo.FindChatByContact(context.Background(), "(555) 123-4567")
	if err != nil {
		t.Fatalf("FindChatByContact: %v", err)
	}
	if got == nil {
		t.Fatal("got nil, want chat")
	}
	if got.ChatIdentifier != "+15551234567" || got.MessageCount != 1 {
		t.Errorf("chat = %+v", got)
	}
}

func TestFindChatByContactNoMatch(t *testing.T) {
	_, repo := newRepo(t)

	got, err := repo.FindChatByContact(context.Background(), "+19998887777")
	if err != nil {
		t.Fatalf("FindChatByContact: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestStats(t *testing.T) {
	tdb, repo := newRepo(t)
	now := time.Now()

	alice := tdb.AddHandle("+15551234567")
	tdb.AddHandle("+15559876543")
	tdb.AddChat("+15551234567", "", "iMessage", 45)
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("one"), HandleID: alice, SentAt: now})
	tdb.AddMessage(dbtest.MessageOpts{Text: dbtest.StrPtr("two"), HandleID: alice, SentAt: now})

	got, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.TotalMessages != 2 || got.TotalChats != 1 || got.TotalHandles != 2 {
		t.Errorf("stats = %+v", got)
	}
}
