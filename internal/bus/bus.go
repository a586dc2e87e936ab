package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

// Topic names a class of in-process domain events.
type Topic string

const (
	// TopicItemCreated fires after an item row is committed. The round
	// engine listens to auto-open the item's first voting round.
	TopicItemCreated Topic = "item.created"
)

// ItemCreated is the payload for TopicItemCreated.
type ItemCreated struct {
	Item model.Item
}

// Handler consumes one published payload. Delivery is at-least-once:
// a publisher may re-publish after a partial failure, so handlers must
// be idempotent.
type Handler func(ctx context.Context, payload any)

// Bus is a process-local typed publish/subscribe dispatcher. Handlers
// run synchronously in publish order; a panicking handler is isolated
// and logged, never propagated to the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a topic. Intended for startup
// wiring; subscribing after publishers are live is safe but handlers
// only see subsequent publishes.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers payload to every handler of the topic.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(ctx, topic, handler, payload)
	}
}

func (b *Bus) invoke(ctx context.Context, topic Topic, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", string(topic)),
				zap.Any("panic", r))
		}
	}()
	handler(ctx, payload)
}
