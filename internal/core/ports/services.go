package ports

import (
	"context"

	"github.com/abgtour/planttour/internal/core/domain"
)

// SceneRenderer executes marker instructions against a rendering surface.
// Implementations must apply instructions in order.
type SceneRenderer interface {
	Apply(ctx context.Context, batch domain.InstructionBatch) error
}

// EventPublisher publishes tour events to a message broker.
type EventPublisher interface {
	PublishMarkerBatch(ctx context.Context, batch domain.InstructionBatch) error
	PublishCatalogUpdated(ctx context.Context, records int) error
}

// EventSubscriber subscribes to tour events from a message broker.
type EventSubscriber interface {
	SubscribeCatalogUpdates(ctx context.Context, handler func(ctx context.Context, records int) error) error
}

// CacheService provides read-through caching.
// A ttlSeconds of 0 or less stores the value without expiry.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
