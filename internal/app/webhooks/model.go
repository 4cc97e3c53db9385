package webhooks

import (
	"encoding/json"
	"time"

	"github.com/livevlm/vlm-relay/internal/domain"
)

// WebhookData is the data structure for the webhook payload.
type WebhookData struct {
	// Event is the event type (e.g. analysis or test)
	Event WebhookEvent `json:"event" example:"analysis"`

	// Kind is the analysis kind (e.g. single or multi)
	Kind string `json:"kind" example:"single"`

	// Identifier is the identifier of the analysis event
	Identifier string `json:"identifier" example:"c0470b14-4d66-4d77-82b5-b49378befd69"`

	// Stream is the stream the analysis belongs to
	Stream string `json:"stream" example:"cam-entrance"`

	// Timestamp is the time the relay accepted the event
	Timestamp time.Time `json:"timestamp"`

	// Payload is the payload of the event
	Payload any `json:"payload"`

	// Metrics carries the pipeline statistics of the event, omitted if the
	// receiver opted out or the event has none
	Metrics *domain.EventMetrics `json:"metrics,omitempty"`
}

// Serialize returns the canonical JSON bytes of the WebhookData. The same bytes
// are signed, sent and journaled for retries.
func (d *WebhookData) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

// AnalysisPayload is the inner payload for forwarded analysis events.
type AnalysisPayload struct {
	// Prompt is the instruction that was sent to the VLM
	Prompt string `json:"prompt" example:"Describe the scene."`

	// Reply is the model output for the analyzed frame(s)
	Reply string `json:"reply"`

	// Alert is set if the reply triggered the alert rule
	Alert bool `json:"alert"`

	// FrameTime is the capture timestamp of the analyzed frame
	FrameTime time.Time `json:"frame_time"`
}

type WebhookEvent = string

const (
	WebhookEventAnalysis WebhookEvent = "analysis"
	WebhookEventTest     WebhookEvent = "test"
)

// NewAnalysisWebhookData builds the webhook payload for an analysis event.
func NewAnalysisWebhookData(event domain.AnalysisEvent, includeMetrics bool) *WebhookData {
	d := &WebhookData{
		Event:      WebhookEventAnalysis,
		Kind:       string(event.Kind),
		Identifier: string(event.Id),
		Stream:     string(event.Stream),
		Timestamp:  event.ReceivedAt,
		Payload: AnalysisPayload{
			Prompt:    event.Prompt,
			Reply:     event.Reply,
			Alert:     event.Alert,
			FrameTime: event.FrameTime,
		},
	}

	if includeMetrics && event.HasMetrics() {
		metrics := event.Metrics
		d.Metrics = &metrics
	}

	return d
}
