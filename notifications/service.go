package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// Notifier is the narrow interface the recipes and messages modules depend on.
type Notifier interface {
	Notify(ctx context.Context, n NewNotification) error
}

// Service is the notifications module as the handlers see it.
type Service interface {
	Notifier
	List(ctx context.Context, userID int, unreadOnly bool, page pagination.Params) (*ListResponse, error)
	UnreadCount(ctx context.Context, userID int) (int64, error)
	MarkRead(ctx context.Context, userID int, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// NotificationService persists notifications and pushes them to live streams.
type NotificationService struct {
	db          *pgxpool.Pool
	broadcaster *Broadcaster
	frontendURL string
}

// NewNotificationService creates a NotificationService. The broadcaster may be nil,
// in which case notifications are only stored. When frontendURL is set,
// relative links are stored as absolute URLs on that origin.
func NewNotificationService(db *pgxpool.Pool, broadcaster *Broadcaster, frontendURL string) *NotificationService {
	return &NotificationService{db: db, broadcaster: broadcaster, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// absoluteLink prefixes a path-only link with the frontend origin.
func (s *NotificationService) absoluteLink(link string) string {
	if s.frontendURL == "" || !strings.HasPrefix(link, "/") || strings.HasPrefix(link, "//") {
		return link
	}
	return s.frontendURL + link
}

// Notify stores a notification and pushes it to the recipient's open streams.
// Notifying yourself is a silent no-op.
func (s *NotificationService) Notify(ctx context.Context, n NewNotification) error {
	if n.UserID == n.ActorID {
		return nil
	}
	if !n.Kind.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("unknown notification kind %q", n.Kind), nil)
	}

	var actor *int
	if n.ActorID > 0 {
		actor = &n.ActorID
	}

	link := s.absoluteLink(n.Link)
	created := Notification{UserID: n.UserID, ActorID: actor, Kind: n.Kind, Message: n.Message, Link: link}
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, actor_id, kind, message, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		n.UserID, actor, string(n.Kind), n.Message, link,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return apperror.NewDatabaseError("failed to create notification", err)
	}

	s.push(created)
	return nil
}

// push sends the notification as a "notification" SSE event.
func (s *NotificationService) push(n Notification) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("Error encoding notification %d for SSE: %v", n.ID, err)
		return
	}
	event := SSEEvent{Event: "notification", ID: strconv.FormatInt(n.ID, 10), Data: string(payload)}
	s.broadcaster.SendToUser(n.UserID, event)
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID int, unreadOnly bool, page pagination.Params) (*ListResponse, error) {
	filter := `n.user_id = $1`
	if unreadOnly {
		filter += ` AND n.read_at IS NULL`
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications n WHERE `+filter, userID).Scan(&total); err != nil {
		return nil, apperror.NewDatabaseError("failed to count notifications", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT n.id, n.user_id, n.actor_id, u.username, n.kind, n.message, n.link, n.read_at, n.created_at
		FROM notifications n
		LEFT JOIN users u ON u.id = n.actor_id
		WHERE `+filter+`
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2 OFFSET $3`,
		userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list notifications", err)
	}
	defer rows.Close()

	list := make([]Notification, 0, page.PerPage)
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.ActorUsername, &kind, &n.Message, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan notification", err)
		}
		n.Kind = Kind(kind)
		n.Read = n.ReadAt != nil
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate notifications", err)
	}

	return &ListResponse{
		Notifications: list,
		Total:         total,
		Page:          page.Page,
		PerPage:       page.PerPage,
		TotalPages:    page.TotalPages(total),
	}, nil
}

// UnreadCount counts the user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to count unread notifications", err)
	}
	return count, nil
}

// MarkRead marks one notification read. Marking an already read
// notification again succeeds and keeps the first read time.
func (s *NotificationService) MarkRead(ctx context.Context, userID int, notificationID int64) error {
	var owner int
	err := s.db.QueryRow(ctx, `SELECT user_id FROM notifications WHERE id = $1`, notificationID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError(fmt.Sprintf("notification %d not found", notificationID), nil)
		}
		return apperror.NewDatabaseError("failed to load notification", err)
	}
	if owner != userID {
		return apperror.NewUnauthorizedError("you can only mark your own notifications as read", nil)
	}

	_, err = s.db.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE id = $1 AND read_at IS NULL`, notificationID)
	if err != nil {
		return apperror.NewDatabaseError("failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to mark notifications read", err)
	}
	return tag.RowsAffected(), nil
}
