// Package events provides the in-process pub/sub hub connecting the
// coordinator to its observers (the WebSocket feed and the analytics sink).
package events

import (
	"sync"
	"sync/atomic"

	"token-crowdsale/internal/domain"
)

// Handler consumes a sale event. Handlers must not block; slow consumers
// should buffer internally.
type Handler func(ev domain.SaleEvent)

// queueSize is the async dispatch buffer. Events beyond it are dropped
// and counted rather than blocking the coordinator.
const queueSize = 1024

// Bus fans sale events out to subscribers. Subscriptions are keyed by
// event type; the empty type subscribes to everything.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	queue   chan domain.SaleEvent
	stopCh  chan struct{}
	running bool

	published int64
	dropped   int64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan domain.SaleEvent, queueSize),
		stopCh:   make(chan struct{}),
	}
}

// Subscribe registers a handler for the given event type.
// An empty eventType receives every event.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish enqueues an event for async dispatch. Never blocks; events are
// dropped (and counted) if the queue is full.
func (b *Bus) Publish(ev domain.SaleEvent) {
	select {
	case b.queue <- ev:
		atomic.AddInt64(&b.published, 1)
	default:
		atomic.AddInt64(&b.dropped, 1)
	}
}

// PublishSync dispatches an event to all matching handlers before returning.
// Used in tests and anywhere ordering against the caller matters.
func (b *Bus) PublishSync(ev domain.SaleEvent) {
	atomic.AddInt64(&b.published, 1)
	b.dispatch(ev)
}

// Start begins async dispatch.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.stopCh = make(chan struct{})
	b.mu.Unlock()

	go b.processLoop()
}

// Stop halts async dispatch. Queued events are discarded.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopCh)
	b.mu.Unlock()
}

func (b *Bus) processLoop() {
	for {
		select {
		case ev := <-b.queue:
			b.dispatch(ev)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) dispatch(ev domain.SaleEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[ev.Type])+len(b.handlers[""]))
	handlers = append(handlers, b.handlers[ev.Type]...)
	handlers = append(handlers, b.handlers[""]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Stats reports bus counters.
type Stats struct {
	Published int64
	Dropped   int64
	QueueSize int
}

// Stats returns current counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: atomic.LoadInt64(&b.published),
		Dropped:   atomic.LoadInt64(&b.dropped),
		QueueSize: len(b.queue),
	}
}
