package ports

import (
	"context"
	"errors"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, sample *domain.PositionSample) error
	PublishSecurityEvent(ctx context.Context, event *domain.SecurityEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, sample *domain.PositionSample) error) error
	SubscribeSecurityEvents(ctx context.Context, handler func(ctx context.Context, event *domain.SecurityEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Locator errors. Permission denial is fatal for the tracking session;
// a timeout is transient and retried up to the configured cap.
var (
	ErrPermissionDenied = errors.New("locator: permission denied")
	ErrLocatorTimeout   = errors.New("locator: fix timed out")
)

// Locator supplies GPS fixes on demand for one vehicle. Implementations
// wrap a device, a simulator, or a hosted geolocation provider.
type Locator interface {
	Fix(ctx context.Context, vehicleID string) (*domain.PositionSample, error)
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}
