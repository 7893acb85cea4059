// Package messages implements direct messages between two users. Messages
// live in a document store (MongoDB, or memory when Mongo is not configured)
// rather than in Postgres.
package messages

import "time"

// Conversation is the thread between exactly two users.
type Conversation struct {
	ID           string    `json:"id"`
	Participants [2]int    `json:"participants"`
	LastMessage  *Preview  `json:"last_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two users.
func (c *Conversation) HasParticipant(userID int) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int) int {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// Preview is the last message shown in the conversation list.
type Preview struct {
	SenderID  int       `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one message.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       int        `json:"sender_id"`
	RecipientID    int        `json:"recipient_id"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ConversationSummary is a row of GET /messages/conversations.
type ConversationSummary struct {
	Conversation
	OtherUserID int   `json:"other_user_id"`
	UnreadCount int64 `json:"unread_count"`
}

// SendRequest is the body of POST /messages.
type SendRequest struct {
	RecipientID int    `json:"recipient_id" validate:"required,gt=0" example:"2"`
	Body        string `json:"body" validate:"required,min=1,max=2000" example:"Loved your curry!"`
}

// ConversationResponse is one page of a conversation, newest first.
type ConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
	// NextBefore is the cursor for the following page, empty on the last one.
	NextBefore string `json:"next_before,omitempty"`
}

// ReadResponse reports how many messages were marked read.
type ReadResponse struct {
	Updated int64 `json:"updated"`
}
