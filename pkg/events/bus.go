package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler reacts to a published event.
type Handler func(ctx context.Context, evt Event)

// Publisher is what services depend on to emit events.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Bus is a synchronous in-process dispatcher. Handlers run on the publishing
// goroutine in subscription order; a panicking handler is logged and skipped.
type Bus struct {
	mu       sync.RWMutex
	next     uint64
	byName   map[Name][]subscription
	wildcard []subscription
	logger   *zap.Logger
}

type subscription struct {
	id      uint64
	handler Handler
}

// NewBus constructs an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{byName: make(map[Name][]subscription), logger: logger}
}

// Subscribe registers h for events named name and returns its unsubscribe func.
func (b *Bus) Subscribe(name Name, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.byName[name] = append(b.byName[name], subscription{id: id, handler: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byName[name] = remove(b.byName[name], id)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.wildcard = append(b.wildcard, subscription{id: id, handler: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = remove(b.wildcard, id)
	}
}

// Publish delivers evt to the named subscribers, then to the wildcard ones.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	targets := make([]subscription, 0, len(b.byName[evt.Name])+len(b.wildcard))
	targets = append(targets, b.byName[evt.Name]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, sub := range targets {
		b.dispatch(ctx, sub.handler, evt)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(evt.Name)),
				zap.String("event_id", evt.ID),
				zap.Any("panic", r))
		}
	}()
	h(ctx, evt)
}

func remove(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
