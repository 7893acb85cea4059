package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances by one second on every call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	s.now = tickingClock()
	return s
}

func TestFindOrCreateConversationIsSymmetric(t *testing.T) {
	s := newTestStore()
	ctx := t.Context()

	a, err := s.FindOrCreateConversation(ctx, 2, 1)
	require.NoError(t, err)
	b, err := s.FindOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, [2]int{1, 2}, a.Participants)
	assert.Equal(t, 1, a.Other(2))
	assert.True(t, a.HasParticipant(1))
	assert.False(t, a.HasParticipant(3))

	_, err = s.GetConversation(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePagingAndUnread(t *testing.T) {
	s := newTestStore()
	ctx := t.Context()

	conv, err := s.FindOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)
	other, err := s.FindOrCreateConversation(ctx, 1, 3)
	require.NoError(t, err)

	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, s.AddMessage(ctx, &Message{ConversationID: conv.ID, SenderID: 2, RecipientID: 1, Body: body}))
	}
	require.NoError(t, s.AddMessage(ctx, &Message{ConversationID: other.ID, SenderID: 1, RecipientID: 3, Body: "hi"}))

	page, err := s.ListMessages(ctx, conv.ID, Cursor{}, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "three", page[0].Body)
	assert.Equal(t, "two", page[1].Body)

	rest, err := s.ListMessages(ctx, conv.ID, CursorOf(page[1]), 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "one", rest[0].Body)

	list, err := s.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].ID, "most recent first")
	assert.Equal(t, int64(0), list[0].UnreadCount, "own messages are not unread")
	assert.Equal(t, int64(3), list[1].UnreadCount)
	assert.Equal(t, "three", list[1].LastMessage.Body)
	assert.Equal(t, 2, list[1].OtherUserID)

	n, err := s.MarkRead(ctx, conv.ID, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.MarkRead(ctx, conv.ID, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.ErrorIs(t, s.AddMessage(ctx, &Message{ConversationID: "missing"}), ErrNotFound)
}
