package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by a Store for an unknown or malformed conversation id.
var ErrNotFound = errors.New("conversation not found")

// Store persists conversations and messages.
type Store interface {
	// FindOrCreateConversation returns the conversation between a and b,
	// creating it on first contact. The order of a and b does not matter.
	FindOrCreateConversation(ctx context.Context, a, b int) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	// AddMessage stores msg, assigning ID and CreatedAt, and makes it the
	// conversation's last message.
	AddMessage(ctx context.Context, msg *Message) error
	// ListConversations returns userID's conversations, most recent first,
	// each with the number of messages userID has not read.
	ListConversations(ctx context.Context, userID int) ([]ConversationSummary, error)
	// ListMessages returns up to limit messages that sort after before in
	// newest-first order (the zero Cursor starts at the latest), newest first.
	ListMessages(ctx context.Context, conversationID string, before Cursor, limit int) ([]Message, error)
	// MarkRead marks every message sent to userID in the conversation as read.
	MarkRead(ctx context.Context, conversationID string, userID int, at time.Time) (int64, error)
}

// participants orders a pair so (a, b) and (b, a) are the same conversation.
func participants(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Cursor is a position in a conversation's (created_at, id) descending order.
// Messages sent within the same clock tick are told apart by id.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorOf returns the cursor that continues after m.
func CursorOf(m Message) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// IsZero reports whether c is the start of the conversation.
func (c Cursor) IsZero() bool { return c.CreatedAt.IsZero() }

// String encodes c as "<RFC 3339 timestamp>_<message id>".
func (c Cursor) String() string {
	return c.CreatedAt.UTC().Format(time.RFC3339Nano) + "_" + c.ID
}

// Precedes reports whether m comes after c in newest-first order.
func (c Cursor) Precedes(m Message) bool {
	if c.IsZero() {
		return true
	}
	if !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.Before(c.CreatedAt)
	}
	return m.ID < c.ID
}

// ParseCursor decodes the value produced by Cursor.String.
func ParseCursor(raw string) (Cursor, error) {
	ts, id, ok := strings.Cut(raw, "_")
	if !ok {
		return Cursor{}, errors.New("cursor must look like <timestamp>_<id>")
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return Cursor{}, err
	}
	return Cursor{CreatedAt: at, ID: id}, nil
}
