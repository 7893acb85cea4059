// Package notifications stores per-user notifications in Postgres and pushes
// new ones to the user's open Server-Sent Event streams.
// This file, `broadcaster.go`, defines the `Broadcaster`, which manages the
// stream connections. A user may have several tabs open, so each user maps to
// a set of clients and every client has its own buffered channel.
package notifications

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// clientBufferSize is how many events a slow stream may fall behind before
// further events to it are dropped.
const clientBufferSize = 32

// clientInfo holds the channel and owner of one connected stream.
type clientInfo struct {
	userID     int
	sseChannel chan SSEEvent
}

// Broadcaster manages SSE clients and message delivery.
type Broadcaster struct {
	// clients maps a client ID to its channel.
	clients map[string]*clientInfo
	// byUser indexes client IDs by the user they belong to.
	byUser map[int]map[string]struct{}

	// `mu` is a Read-Write Mutex (`RWMutex`) protecting both maps.
	// Sends only need the read lock; registering and removing take the write lock.
	mu sync.RWMutex
}

// NewBroadcaster creates and returns a new Broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*clientInfo),
		byUser:  make(map[int]map[string]struct{}),
	}
}

// NewClient registers a stream for userID and returns its ID and receive-only channel.
func (b *Broadcaster) NewClient(userID int) (string, <-chan SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clientID := uuid.New().String()
	info := &clientInfo{
		userID:     userID,
		sseChannel: make(chan SSEEvent, clientBufferSize),
	}
	b.clients[clientID] = info
	if b.byUser[userID] == nil {
		b.byUser[userID] = make(map[string]struct{})
	}
	b.byUser[userID][clientID] = struct{}{}

	log.Printf("SSE client %s registered for user %d", clientID, userID)
	return clientID, info.sseChannel
}

// SendToUser delivers event to every stream of userID and returns how many
// streams accepted it. Sends never block: a full channel drops the event for
// that stream only.
func (b *Broadcaster) SendToUser(userID int, event SSEEvent) int {
	// The read lock is held for the whole loop so RemoveClient cannot close a
	// channel while it is being sent on.
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for clientID := range b.byUser[userID] {
		info := b.clients[clientID]
		select {
		case info.sseChannel <- event:
			delivered++
		default:
			log.Printf("Dropping SSE event for client %s: channel full", clientID)
		}
	}
	return delivered
}

// RemoveClient unregisters a client and closes its channel.
// Removing an unknown client is a no-op.
func (b *Broadcaster) RemoveClient(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	info, ok := b.clients[clientID]
	if !ok {
		return
	}
	// Closing the channel tells the stream handler no more events will come.
	close(info.sseChannel)
	delete(b.clients, clientID)
	if set := b.byUser[info.userID]; set != nil {
		delete(set, clientID)
		if len(set) == 0 {
			delete(b.byUser, info.userID)
		}
	}
	log.Printf("SSE client %s removed", clientID)
}

// ClientCount returns the number of open streams for userID.
func (b *Broadcaster) ClientCount(userID int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byUser[userID])
}
