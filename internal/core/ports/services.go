package ports

import (
	"context"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchEvent(ctx context.Context, ev *domain.SearchEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSearchEvents(ctx context.Context, handler func(ctx context.Context, ev *domain.SearchEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Clock supplies the current venue-local time; injected so availability
// decisions are testable.
type Clock interface {
	Now() (weekday int, minutesSinceMidnight int)
}
