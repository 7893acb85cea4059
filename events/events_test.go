package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	evt, err := newEvent(SubjectRecipeLiked, map[string]int{"recipe_id": 4, "user_id": 9}, now)
	require.NoError(t, err)

	assert.Equal(t, SubjectRecipeLiked, evt.Subject)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, time.UTC, evt.OccurredAt.Location())
	assert.JSONEq(t, `{"recipe_id":4,"user_id":9}`, string(evt.Data))

	b, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"subject":"recipes.liked"`)
}

func TestNewEventRejectsUnmarshalable(t *testing.T) {
	_, err := newEvent(SubjectRecipeCreated, make(chan int), time.Now())
	assert.Error(t, err)
}

func TestPublishersSatisfyInterface(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), SubjectRecipeCreated, nil))

	// A publisher that never connected reports a closed connection.
	err := (&NATSPublisher{}).Publish(context.Background(), SubjectRecipeCreated, nil)
	assert.Error(t, err)
}
