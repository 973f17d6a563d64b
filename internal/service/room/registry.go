package room

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/solenlabs/agent-relay/backend/internal/model/relay"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// it is evicted instead of stalling the owning invocation.
const subscriberBuffer = 64

// Subscriber is one live connection's membership in a session room. The
// transport layer drains Messages and owns the underlying connection.
type Subscriber struct {
	ID        string
	SessionID string
	ch        chan relay.Message
}

// Messages returns the subscriber's outbound channel. It is closed when the
// subscriber leaves or is evicted; transports should stop on close.
func (s *Subscriber) Messages() <-chan relay.Message {
	return s.ch
}

// Registry maps session identifiers to their sets of live subscribers.
// It is safe for concurrent join, leave, and broadcast from multiple
// invocation workers and connection handlers.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

// NewRegistry bootstraps an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Subscriber]struct{})}
}

// Join registers a new subscriber under the session, creating the room on
// first join.
func (r *Registry) Join(sessionID string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ch:        make(chan relay.Message, subscriberBuffer),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[sessionID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		r.rooms[sessionID] = room
	}
	room[sub] = struct{}{}

	log.Printf("[room] subscriber %s joined session=%s members=%d", sub.ID, sessionID, len(room))
	return sub
}

// Leave removes the subscriber from its session and closes its channel.
// Leaving twice, or leaving after eviction, is a no-op.
func (r *Registry) Leave(sub *Subscriber) {
	if sub == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[sub.SessionID]
	if !ok {
		return
	}
	if _, ok := room[sub]; !ok {
		return
	}

	delete(room, sub)
	close(sub.ch)
	if len(room) == 0 {
		delete(r.rooms, sub.SessionID)
	}
	log.Printf("[room] subscriber %s left session=%s", sub.ID, sub.SessionID)
}

// Broadcast delivers msg to every subscriber currently in the session's
// room, in the order broadcasts were issued for that session. Delivery is
// best-effort per subscriber: a backpressured subscriber is evicted rather
// than allowed to block the others or the caller. Broadcasting to a session
// with no subscribers is valid and silent.
func (r *Registry) Broadcast(sessionID string, msg relay.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[sessionID]
	if !ok {
		return
	}

	for sub := range room {
		select {
		case sub.ch <- msg:
		default:
			log.Printf("[room] subscriber %s backpressured, evicting session=%s", sub.ID, sessionID)
			delete(room, sub)
			close(sub.ch)
		}
	}
	if len(room) == 0 {
		delete(r.rooms, sessionID)
	}
}

// Count reports the number of live subscribers in a session's room.
func (r *Registry) Count(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[sessionID])
}
