package model

import (
	"time"

	"github.com/livevlm/vlm-relay/internal/domain"
)

// EventSubmission is the ingest request for one analysis event.
type EventSubmission struct {
	Stream string `json:"Stream" validate:"required"`
	Kind   string `json:"Kind" validate:"required,oneof=single multi"`
	Prompt string `json:"Prompt"`
	Reply  string `json:"Reply"`
	Alert  bool   `json:"Alert"`
	// FrameTime is the capture timestamp of the analyzed frame in RFC 3339
	// format. If omitted, the time of ingestion is used.
	FrameTime time.Time `json:"FrameTime"`

	Metrics *EventMetrics `json:"Metrics,omitempty"`
}

type Event struct {
	Id         string `json:"Id"`
	Stream     string `json:"Stream"`
	Kind       string `json:"Kind"`
	Prompt     string `json:"Prompt"`
	Reply      string `json:"Reply"`
	Alert      bool   `json:"Alert"`
	FrameTime  string `json:"FrameTime"`
	ReceivedAt string `json:"ReceivedAt"`

	Metrics *EventMetrics `json:"Metrics,omitempty"`
}

type EventMetrics struct {
	VideoFps           float64 `json:"VideoFps"`
	InferenceFps       float64 `json:"InferenceFps"`
	DecodeLatencyMs    float64 `json:"DecodeLatencyMs"`
	InferenceLatencyMs float64 `json:"InferenceLatencyMs"`
	InputTokens        int     `json:"InputTokens"`
	OutputTokens       int     `json:"OutputTokens"`
}

// NewEvent creates a REST API Event from a domain AnalysisEvent.
func NewEvent(src *domain.AnalysisEvent) Event {
	dst := Event{
		Id:         string(src.Id),
		Stream:     string(src.Stream),
		Kind:       string(src.Kind),
		Prompt:     src.Prompt,
		Reply:      src.Reply,
		Alert:      src.Alert,
		FrameTime:  src.FrameTime.Format("2006-01-02 15:04:05"),
		ReceivedAt: src.ReceivedAt.Format("2006-01-02 15:04:05"),
	}

	if src.HasMetrics() {
		dst.Metrics = &EventMetrics{
			VideoFps:           src.Metrics.VideoFps,
			InferenceFps:       src.Metrics.InferenceFps,
			DecodeLatencyMs:    src.Metrics.DecodeLatencyMs,
			InferenceLatencyMs: src.Metrics.InferenceLatencyMs,
			InputTokens:        src.Metrics.InputTokens,
			OutputTokens:       src.Metrics.OutputTokens,
		}
	}

	return dst
}

// NewEvents creates a slice of REST API Event from a slice of domain AnalysisEvent.
func NewEvents(src []domain.AnalysisEvent) []Event {
	dst := make([]Event, 0, len(src))
	for i := range src {
		dst = append(dst, NewEvent(&src[i]))
	}
	return dst
}

// NewDomainEvent creates a domain AnalysisEvent from an ingest request.
// The event id and the time of ingestion are assigned by the caller.
func NewDomainEvent(src *EventSubmission) *domain.AnalysisEvent {
	dst := &domain.AnalysisEvent{
		Stream:    domain.StreamIdentifier(src.Stream),
		Kind:      domain.EventKind(src.Kind),
		Prompt:    src.Prompt,
		Reply:     src.Reply,
		Alert:     src.Alert,
		FrameTime: src.FrameTime,
	}

	if src.Metrics != nil {
		dst.Metrics = domain.EventMetrics{
			VideoFps:           src.Metrics.VideoFps,
			InferenceFps:       src.Metrics.InferenceFps,
			DecodeLatencyMs:    src.Metrics.DecodeLatencyMs,
			InferenceLatencyMs: src.Metrics.InferenceLatencyMs,
			InputTokens:        src.Metrics.InputTokens,
			OutputTokens:       src.Metrics.OutputTokens,
		}
	}

	return dst
}
