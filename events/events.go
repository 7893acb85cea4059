// Package events publishes domain events to NATS so other services can react
// to recipe activity without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects published by the recipes module.
const (
	SubjectRecipeCreated = "recipes.created"
	SubjectRecipeUpdated = "recipes.updated"
	SubjectRecipeDeleted = "recipes.deleted"
	SubjectRecipeLiked   = "recipes.liked"
)

// Event is the JSON envelope of every published message.
type Event struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Publisher sends events. Publishing is best effort: callers log failures
// and carry on, a request never fails because NATS is down.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
}

// newEvent wraps data in an Event envelope.
func newEvent(subject string, data any, now time.Time) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return &Event{ID: uuid.NewString(), Subject: subject, OccurredAt: now.UTC(), Data: raw}, nil
}

// NATSPublisher publishes on a core NATS connection.
type NATSPublisher struct {
	nc *nats.Conn
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("cookease-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	log.Printf("Connected to NATS at %s", nc.ConnectedUrl())
	return &NATSPublisher{nc: nc}, nil
}

// Publish sends data wrapped in an Event envelope.
func (p *NATSPublisher) Publish(_ context.Context, subject string, data any) error {
	if p.nc == nil || !p.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}
	evt, err := newEvent(subject, data, time.Now())
	if err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, b)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.Printf("Error draining NATS connection: %v", err)
		p.nc.Close()
	}
}

// NoopPublisher drops every event. It is used when NATS_URL is unset.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
