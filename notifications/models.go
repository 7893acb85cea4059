package notifications

import "time"

// Kind names what happened. Stored verbatim in notifications.kind.
type Kind string

const (
	KindRecipeLiked     Kind = "recipe_liked"
	KindRecipeReviewed  Kind = "recipe_reviewed"
	KindMessageReceived Kind = "message_received"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRecipeLiked, KindRecipeReviewed, KindMessageReceived:
		return true
	}
	return false
}

// Notification is one row of the notifications table.
type Notification struct {
	ID            int64      `json:"id"`
	UserID        int        `json:"user_id"`
	ActorID       *int       `json:"actor_id,omitempty"`
	ActorUsername *string    `json:"actor_username,omitempty"`
	Kind          Kind       `json:"kind"`
	Message       string     `json:"message"`
	Link          string     `json:"link,omitempty"`
	Read          bool       `json:"read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewNotification is what other modules pass to Notify.
type NewNotification struct {
	UserID  int
	ActorID int
	Kind    Kind
	Message string
	Link    string
}

// ListResponse is a page of notifications.
type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PerPage       int            `json:"per_page"`
	TotalPages    int            `json:"total_pages"`
}

// UnreadCountResponse is the body of GET /notifications/unread-count.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
