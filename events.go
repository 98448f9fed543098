package toxicity

import (
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// Topics published by the window.
const (
	EventKeyPressed    = "keyPressed"
	EventKeyReleased   = "keyReleased"
	EventMousePressed  = "mousePressed"
	EventMouseReleased = "mouseReleased"
	EventMouseMoved    = "mouseMoved"
	EventMouseScrolled = "mouseScrolled"
	EventWindowResized = "windowResized"

	EventKeyRepeated = "keyRepeated"
	// EventKeyTyped carries the typed character in Rune. EventKeyTypedMods
	// follows it with the modifiers held in Mods.
	EventKeyTyped     = "keyTyped"
	EventKeyTypedMods = "keyTypedMods"
	EventMouseEntered = "mouseEntered"
	EventMouseExited  = "mouseExited"
	// EventFilesDropped carries the dropped files in Files.
	EventFilesDropped = "filesDropped"

	EventWindowFocused     = "windowGotFocus"
	EventWindowUnfocused   = "windowLostFocus"
	EventWindowIconified   = "windowIconified"
	EventWindowDeiconified = "windowDeiconified"
	EventWindowMoved       = "windowMoved"
	// EventWindowClosing carries a *CloseRequest in Payload. The window
	// closes after dispatch unless a handler cancels it.
	EventWindowClosing = "windowClosing"

	// Monitor events carry a Monitor in Payload.
	EventMonitorConnected    = "monitorConnected"
	EventMonitorDisconnected = "monitorDisconnected"
)

// Event is a message on the event bus. Which fields are set depends on the
// topic.
type Event struct {
	Topic  string
	Key    ebiten.Key
	Button MouseButton
	// Cursor is the cursor position in window coordinates.
	Cursor Point
	// Scroll is the wheel offset for EventMouseScrolled.
	Scroll Point
	Rune   rune
	Mods   KeyModifiers
	Files  fs.FS
	// Payload carries user data for custom topics.
	Payload any
}

// CloseRequest is the payload of EventWindowClosing.
type CloseRequest struct {
	canceled atomic.Bool
}

// Cancel keeps the window open.
func (r *CloseRequest) Cancel() { r.canceled.Store(true) }

// Canceled reports whether a handler called Cancel.
func (r *CloseRequest) Canceled() bool { return r.canceled.Load() }

// EventHandler receives events for a topic it subscribed to.
type EventHandler func(Event)

// Subscription is returned by Subscribe and removes the handler again.
type Subscription struct {
	bus   *EventBus
	topic string
	id    uint64
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.topic, s.id)
}

type subscriber struct {
	id uint64
	fn EventHandler
}

const eventQueueSize = 1024

// EventBus is a topic based publish/subscribe hub. Publish delivers
// synchronously on the calling goroutine; Emit queues the event for the next
// Dispatch, which the window calls once per frame.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID uint64
	queue  chan Event
	logger *slog.Logger
}

// NewEventBus returns an empty bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		subs:   make(map[string][]subscriber),
		queue:  make(chan Event, eventQueueSize),
		logger: logger,
	}
}

// Subscribe registers fn for topic.
func (b *EventBus) Subscribe(topic string, fn EventHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	// a published list is never modified
	list := make([]subscriber, len(b.subs[topic]), len(b.subs[topic])+1)
	copy(list, b.subs[topic])
	b.subs[topic] = append(list, subscriber{id: b.nextID, fn: fn})
	return Subscription{bus: b, topic: topic, id: b.nextID}
}

func (b *EventBus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.subs[topic]
	list := make([]subscriber, 0, len(old))
	for _, s := range old {
		if s.id != id {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		delete(b.subs, topic)
		return
	}
	b.subs[topic] = list
}

// Subscribers returns the number of handlers registered for topic.
func (b *EventBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish calls every handler of ev.Topic in subscription order. Handlers
// may subscribe and unsubscribe while being called.
func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	list := b.subs[ev.Topic]
	b.mu.RUnlock()
	for _, s := range list {
		s.fn(ev)
	}
}

// Emit queues ev for the next Dispatch. It never blocks: when the queue is
// full the event is dropped and false is returned.
func (b *EventBus) Emit(ev Event) bool {
	select {
	case b.queue <- ev:
		return true
	default:
		b.logger.Warn("event queue full, event dropped", "topic", ev.Topic)
		return false
	}
}

// Dispatch publishes every queued event and returns how many there were.
func (b *EventBus) Dispatch() int {
	count := 0
	for {
		select {
		case ev := <-b.queue:
			b.Publish(ev)
			count++
		default:
			return count
		}
	}
}
