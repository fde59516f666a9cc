package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/lobbychat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username, sessionID string) *store.User {
	t.Helper()

	now := time.Now().UTC()
	user := &store.User{
		Username:  username,
		Avatar:    "https://example.test/" + username + ".png",
		SessionID: sessionID,
		IsAdmin:   store.IsAdminUsername(username),
		JoinedAt:  now,
		LastSeen:  now,
		Status:    "Available",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func seedMessage(t *testing.T, s *SQLiteStore, username, content string, at time.Time) *store.Message {
	t.Helper()

	msg := &store.Message{
		Username:  username,
		Kind:      store.MessageKindText,
		Content:   content,
		CreatedAt: at,
	}
	require.NoError(t, s.SaveMessage(context.Background(), msg))
	return msg
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, Migrate(context.Background(), s.db))
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice", "session-a")

	dup := &store.User{Username: "alice", SessionID: "session-b", JoinedAt: time.Now(), LastSeen: time.Now()}
	err := s.CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "session-a", got.SessionID)
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "admin", "session-admin")

	bySession, err := s.GetUserBySessionID(ctx, "session-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", bySession.Username)
	assert.True(t, bySession.IsAdmin)
	assert.Empty(t, bySession.ConnectionID)

	_, err = s.GetUserBySessionID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAttachAndDetachConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice", "session-a")

	seen := time.Now().Add(time.Minute).UTC()
	require.NoError(t, s.AttachConnection(ctx, "alice", "conn-1", seen))

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", user.ConnectionID)
	assert.WithinDuration(t, seen, user.LastSeen, time.Millisecond)

	// A stale connection must not clear the current binding.
	require.NoError(t, s.DetachConnection(ctx, "alice", "conn-old", seen))
	user, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", user.ConnectionID)

	require.NoError(t, s.DetachConnection(ctx, "alice", "conn-1", seen))
	user, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, user.ConnectionID)

	assert.ErrorIs(t, s.AttachConnection(ctx, "ghost", "conn-2", seen), store.ErrNotFound)
}

func TestProfileUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice", "session-a")

	require.NoError(t, s.IncrementMessageCount(ctx, "alice"))
	require.NoError(t, s.IncrementMessageCount(ctx, "alice"))
	require.NoError(t, s.UpdateUserStatus(ctx, "alice", "Busy"))
	_, err := s.UpdateUserAvatar(ctx, "alice", "https://example.test/new.png")
	require.NoError(t, err)

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, user.MessageCount)
	assert.Equal(t, "Busy", user.Status)
	assert.Equal(t, "https://example.test/new.png", user.Avatar)

	require.NoError(t, s.DeleteUser(ctx, "alice"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "alice"), store.ErrNotFound)
}

func TestListRecentMessagesReturnsNewestAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedMessage(t, s, "alice", string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
	}

	messages, err := s.ListRecentMessages(ctx, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	contents := []string{messages[0].Content, messages[1].Content, messages[2].Content}
	assert.Equal(t, []string{"c", "d", "e"}, contents)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestSaveMessageRoundTripsOptionalFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{
		Username:      "admin",
		Avatar:        "a.png",
		Kind:          store.MessageKindFile,
		Content:       "data:application/pdf;base64,AAAA",
		FileName:      "report.pdf",
		FileSize:      2048,
		ReplyTo:       "7",
		Mentions:      []string{"bob", "carol"},
		CreatedAt:     time.Now(),
		AuthorIsAdmin: true,
	}
	require.NoError(t, s.SaveMessage(ctx, msg))
	require.NotEmpty(t, msg.ID)

	got, err := s.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MessageKindFile, got.Kind)
	assert.Equal(t, "report.pdf", got.FileName)
	assert.EqualValues(t, 2048, got.FileSize)
	assert.Equal(t, "7", got.ReplyTo)
	assert.Equal(t, []string{"bob", "carol"}, got.Mentions)
	assert.True(t, got.AuthorIsAdmin)
	assert.False(t, got.Edited)
	assert.Nil(t, got.EditedAt)

	_, err = s.GetMessage(ctx, "not-a-number")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEditMessageAndAvatarCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := seedMessage(t, s, "alice", "one", time.Now())
	seedMessage(t, s, "alice", "two", time.Now())
	seedMessage(t, s, "bob", "three", time.Now())

	editedAt := time.Now().UTC()
	require.NoError(t, s.EditMessage(ctx, first.ID, "uno", editedAt))

	got, err := s.GetMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Content)
	assert.True(t, got.Edited)
	require.NotNil(t, got.EditedAt)

	seedUser(t, s, "alice", "session-a")
	n, err := s.UpdateUserAvatar(ctx, "alice", "new.png")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err = s.GetMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.png", got.Avatar)

	assert.ErrorIs(t, s.EditMessage(ctx, "999", "x", editedAt), store.ErrNotFound)
}

func TestUpdateUserAvatarUnknownUserLeavesMessagesUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := seedMessage(t, s, "ghost", "boo", time.Now())

	_, err := s.UpdateUserAvatar(ctx, "ghost", "new.png")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Avatar)
}

func TestDeleteMessageRemovesItsReactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := seedMessage(t, s, "alice", "hi", time.Now())
	other := seedMessage(t, s, "alice", "there", time.Now())
	for _, u := range []string{"bob", "carol"} {
		require.NoError(t, s.AddReaction(ctx, &store.Reaction{MessageID: msg.ID, Username: u, Emoji: "👍", CreatedAt: time.Now()}))
	}
	require.NoError(t, s.AddReaction(ctx, &store.Reaction{MessageID: other.ID, Username: "bob", Emoji: "🎉", CreatedAt: time.Now()}))

	require.NoError(t, s.DeleteMessage(ctx, msg.ID))

	reactions, err := s.ListReactions(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)

	reactions, err = s.ListReactions(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 1)

	assert.ErrorIs(t, s.DeleteMessage(ctx, msg.ID), store.ErrNotFound)
}

func TestDeleteAllMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := seedMessage(t, s, "alice", "hi", time.Now())
	require.NoError(t, s.AddReaction(ctx, &store.Reaction{MessageID: msg.ID, Username: "bob", Emoji: "👍", CreatedAt: time.Now()}))

	require.NoError(t, s.DeleteAllMessages(ctx))

	messages, err := s.ListRecentMessages(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, messages)

	reactions, err := s.ListReactions(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestReactionUniquePerMessageAndUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &store.Reaction{MessageID: "1", Username: "bob", Emoji: "👍", CreatedAt: time.Now()}
	require.NoError(t, s.AddReaction(ctx, r))
	assert.ErrorIs(t, s.AddReaction(ctx, r), store.ErrConflict)

	require.NoError(t, s.UpdateReactionEmoji(ctx, "1", "bob", "❤️"))
	got, err := s.GetReaction(ctx, "1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "❤️", got.Emoji)

	require.NoError(t, s.DeleteReaction(ctx, "1", "bob"))
	_, err = s.GetReaction(ctx, "1", "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListReactionsForGroupsByMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []store.Reaction{
		{MessageID: "1", Username: "a", Emoji: "👍"},
		{MessageID: "1", Username: "b", Emoji: "👍"},
		{MessageID: "2", Username: "a", Emoji: "😂"},
	} {
		r.CreatedAt = time.Now()
		require.NoError(t, s.AddReaction(ctx, &r))
	}

	grouped, err := s.ListReactionsFor(ctx, []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Len(t, grouped["1"], 2)
	assert.Len(t, grouped["2"], 1)
	assert.Empty(t, grouped["3"])

	empty, err := s.ListReactionsFor(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ban := &store.Ban{Username: "mallory", BannedBy: "admin", BannedAt: time.Now()}
	require.NoError(t, s.CreateBan(ctx, ban))
	assert.ErrorIs(t, s.CreateBan(ctx, ban), store.ErrConflict)

	got, err := s.GetBan(ctx, "mallory")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.BannedBy)

	bans, err := s.ListBans(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)

	require.NoError(t, s.DeleteBan(ctx, "mallory"))
	require.NoError(t, s.DeleteBan(ctx, "mallory"))

	_, err = s.GetBan(ctx, "mallory")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
