package messages

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps everything in process. It is used when no MONGO_URI is
// configured and in tests; its contents are lost on restart.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	byPair        map[[2]int]string
	messages      map[string][]Message // by conversation, oldest first
	now           func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		byPair:        make(map[[2]int]string),
		messages:      make(map[string][]Message),
		now:           time.Now,
	}
}

func (s *MemoryStore) FindOrCreateConversation(_ context.Context, a, b int) (*Conversation, error) {
	pair := participants(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPair[pair]; ok {
		c := *s.conversations[id]
		return &c, nil
	}
	now := s.now().UTC()
	c := &Conversation{ID: primitive.NewObjectID().Hex(), Participants: pair, CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c
	s.byPair[pair] = c.ID
	out := *c
	return &out, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) AddMessage(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return ErrNotFound
	}
	msg.ID = primitive.NewObjectID().Hex()
	msg.CreatedAt = s.now().UTC()
	s.messages[c.ID] = append(s.messages[c.ID], *msg)
	c.LastMessage = &Preview{SenderID: msg.SenderID, Body: msg.Body, CreatedAt: msg.CreatedAt}
	c.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *MemoryStore) ListConversations(_ context.Context, userID int) ([]ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []ConversationSummary{}
	for _, c := range s.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		var unread int64
		for _, m := range s.messages[c.ID] {
			if m.RecipientID == userID && m.ReadAt == nil {
				unread++
			}
		}
		out = append(out, ConversationSummary{Conversation: *c, OtherUserID: c.Other(userID), UnreadCount: unread})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListMessages walks messages newest first. Ids are ObjectIDs minted in send
// order, so insertion order matches (created_at, id).
func (s *MemoryStore) ListMessages(_ context.Context, conversationID string, before Cursor, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}

	all := s.messages[conversationID]
	out := make([]Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !before.Precedes(all[i]) {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, conversationID string, userID int, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return 0, ErrNotFound
	}

	var n int64
	msgs := s.messages[conversationID]
	for i := range msgs {
		if msgs[i].RecipientID == userID && msgs[i].ReadAt == nil {
			t := at.UTC()
			msgs[i].ReadAt = &t
			n++
		}
	}
	return n, nil
}
