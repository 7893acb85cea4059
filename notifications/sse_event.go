package notifications

import (
	"fmt"
	"io"
	"strings"
)

// SSEEvent represents a Server-Sent Event.
// Event and ID are optional; Data may span several lines, each sent as its own
// "data:" field as the event-stream format requires.
type SSEEvent struct {
	Event string
	ID    string
	Data  string
}

// NewSSEEvent creates a new SSEEvent with the given type and data.
func NewSSEEvent(event, data string) SSEEvent {
	return SSEEvent{Event: event, Data: data}
}

// WriteTo encodes the event in text/event-stream framing, ending with the blank line
// that dispatches it on the client.
func (e SSEEvent) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Event)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
