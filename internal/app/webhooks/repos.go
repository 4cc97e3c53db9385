package webhooks

import (
	"context"
	"time"

	"github.com/livevlm/vlm-relay/internal/domain"
)

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
	// Subscribe subscribes to a topic
	Subscribe(topic string, fn interface{}) error
}

type DatabaseRepo interface {
	SaveDelivery(ctx context.Context, delivery *domain.Delivery) error
	GetDueDeliveries(ctx context.Context, dueTime time.Time, limit int) ([]domain.Delivery, error)
	GetDeliveryCounts(ctx context.Context) (map[domain.DeliveryStatus]int64, error)
}

type MetricsRecorder interface {
	CountDiscardedEvent(reason string)
	CountDelivery(result string)
	SetRetryQueueLength(length int)
}
