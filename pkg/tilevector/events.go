package tilevector

import (
	"sync"

	"github.com/google/uuid"
)

// EventType identifies a source lifecycle event.
type EventType int

const (
	// EventLoadStart fires when the outstanding request count goes from
	// zero to positive.
	EventLoadStart EventType = iota + 1

	// EventTileLoaded fires when a tile's features have been stored.
	EventTileLoaded

	// EventLoadEnd fires when the outstanding request count returns to
	// zero, whether or not every request succeeded.
	EventLoadEnd

	// EventChange fires whenever the set of resolved features changes
	// and when the URL function is replaced.
	EventChange
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventLoadStart:
		return "loadstart"
	case EventTileLoaded:
		return "tileloaded"
	case EventLoadEnd:
		return "loadend"
	case EventChange:
		return "change"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers. Tile, Key and Features are only set
// for EventTileLoaded.
type Event struct {
	Type     EventType
	Tile     TileCoord
	Key      string
	Features []*Feature
}

// Handler receives events. Handlers run synchronously on the goroutine
// that caused the event and must not block for long.
type Handler func(Event)

// Subscription identifies a registered handler.
type Subscription struct {
	Type EventType
	id   uuid.UUID
}

// notifier fans events out to subscribed handlers. It holds no event state.
type notifier struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscriber
}

type subscriber struct {
	id      uuid.UUID
	handler Handler
}

func newNotifier() *notifier {
	return &notifier{handlers: make(map[EventType][]subscriber)}
}

func (n *notifier) subscribe(t EventType, h Handler) Subscription {
	id := uuid.New()

	n.mu.Lock()
	n.handlers[t] = append(n.handlers[t], subscriber{id: id, handler: h})
	n.mu.Unlock()

	return Subscription{Type: t, id: id}
}

func (n *notifier) unsubscribe(sub Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.handlers[sub.Type]
	for i, s := range subs {
		if s.id == sub.id {
			// Copy so an emit in progress keeps its snapshot intact
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			n.handlers[sub.Type] = next
			return true
		}
	}
	return false
}

// emit calls every handler registered for e.Type in subscription order.
func (n *notifier) emit(e Event) {
	n.mu.RLock()
	subs := n.handlers[e.Type]
	n.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
