package records

import (
	"context"

	"github.com/livevlm/vlm-relay/internal/domain"
)

type EventBus interface {
	// Subscribe subscribes to a topic
	Subscribe(topic string, fn interface{}) error
}

type DatabaseRepo interface {
	SaveEvent(ctx context.Context, event *domain.AnalysisEvent) error
	PruneEvents(ctx context.Context, keep int) (int64, error)
}

type MetricsRecorder interface {
	CountReceivedEvent(stream domain.StreamIdentifier, kind domain.EventKind)
}
