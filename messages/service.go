package messages

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
)

// Page size limits of a conversation.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// UserChecker is the part of the users module that sending needs.
type UserChecker interface {
	Exists(ctx context.Context, userID int) (bool, error)
}

// Service is the messages module as the handlers see it.
type Service interface {
	Send(ctx context.Context, senderID int, req SendRequest) (*Message, error)
	Conversations(ctx context.Context, userID int) ([]ConversationSummary, error)
	Conversation(ctx context.Context, userID int, conversationID string, before Cursor, limit int) (*ConversationResponse, error)
	MarkRead(ctx context.Context, userID int, conversationID string) (int64, error)
}

// MessageService implements Service over a Store.
type MessageService struct {
	store    Store
	users    UserChecker
	notifier notifications.Notifier
	now      func() time.Time
}

// NewMessageService creates a MessageService. notifier may be nil.
func NewMessageService(store Store, users UserChecker, notifier notifications.Notifier) *MessageService {
	return &MessageService{store: store, users: users, notifier: notifier, now: time.Now}
}

// Send delivers a message, opening the conversation on first contact, and
// notifies the recipient.
func (s *MessageService) Send(ctx context.Context, senderID int, req SendRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperror.NewValidationError("body must not be blank", nil)
	}
	if req.RecipientID == senderID {
		return nil, apperror.NewBadRequestError("you cannot message yourself", nil)
	}
	exists, err := s.users.Exists(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", req.RecipientID), nil)
	}

	conv, err := s.store.FindOrCreateConversation(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, apperror.NewExternalServiceError("failed to open conversation", err)
	}
	msg := &Message{ConversationID: conv.ID, SenderID: senderID, RecipientID: req.RecipientID, Body: body}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, apperror.NewExternalServiceError("failed to store message", err)
	}

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, notifications.NewNotification{
			UserID:  req.RecipientID,
			ActorID: senderID,
			Kind:    notifications.KindMessageReceived,
			Message: "You have a new message",
			Link:    "/messages/" + conv.ID,
		})
		if err != nil {
			log.Printf("Warning: failed to notify user %d of message %s: %v", req.RecipientID, msg.ID, err)
		}
	}
	return msg, nil
}

// Conversations lists the caller's conversations, most recent first.
func (s *MessageService) Conversations(ctx context.Context, userID int) ([]ConversationSummary, error) {
	list, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, apperror.NewExternalServiceError("failed to list conversations", err)
	}
	return list, nil
}

// participantConversation loads a conversation the caller belongs to.
func (s *MessageService) participantConversation(ctx context.Context, userID int, conversationID string) (*Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NewNotFoundError("conversation not found", nil)
		}
		return nil, apperror.NewExternalServiceError("failed to load conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperror.NewUnauthorizedError("you are not part of this conversation", nil)
	}
	return conv, nil
}

// Conversation returns one page of messages, newest first. before is
// exclusive; the zero Cursor starts from the latest message.
func (s *MessageService) Conversation(ctx context.Context, userID int, conversationID string, before Cursor, limit int) (*ConversationResponse, error) {
	if limit < 1 || limit > MaxPageSize {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("limit must be between 1 and %d", MaxPageSize), nil)
	}
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conv.ID, before, limit)
	if err != nil {
		return nil, apperror.NewExternalServiceError("failed to list messages", err)
	}

	resp := &ConversationResponse{Conversation: conv, Messages: msgs}
	if len(msgs) == limit {
		resp.NextBefore = CursorOf(msgs[len(msgs)-1]).String()
	}
	return resp, nil
}

// MarkRead marks every message the caller received in the conversation as read.
func (s *MessageService) MarkRead(ctx context.Context, userID int, conversationID string) (int64, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.MarkRead(ctx, conv.ID, userID, s.now())
	if err != nil {
		return 0, apperror.NewExternalServiceError("failed to mark messages read", err)
	}
	return n, nil
}
