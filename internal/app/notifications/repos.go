package notifications

import (
	"context"

	"github.com/livevlm/vlm-relay/internal/domain"
)

type Mailer interface {
	Send(ctx context.Context, subject, body string, to []string, options *domain.MailOptions) error
}

type EventBus interface {
	// Subscribe subscribes to a topic
	Subscribe(topic string, fn interface{}) error
}
