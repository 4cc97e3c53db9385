package domain

import (
	"time"
)

type StreamIdentifier string
type EventIdentifier string

// EventKind describes the origin of an analysis event. Single events carry the
// VLM reply for one stream, multi events carry a summary over all streams.
type EventKind string

const (
	EventKindSingle EventKind = "single"
	EventKindMulti  EventKind = "multi"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventKindSingle, EventKindMulti:
		return true
	default:
		return false
	}
}

// AnalysisEvent is one VLM analysis result reported by the webui.
type AnalysisEvent struct {
	UniqueId uint64          `gorm:"primaryKey;autoIncrement:true;column:id"`
	Id       EventIdentifier `gorm:"uniqueIndex;column:event_id"`

	Stream StreamIdentifier `gorm:"column:stream;index:idx_ev_stream"`
	Kind   EventKind        `gorm:"column:kind;index:idx_ev_kind"`

	// Prompt is the instruction that was sent to the VLM.
	Prompt string `gorm:"column:prompt"`
	// Reply is the model output for the analyzed frame(s).
	Reply string `gorm:"column:reply"`
	// Alert is set if the reply triggered the alert rule of the webui.
	Alert bool `gorm:"column:alert;index:idx_ev_alert"`

	// FrameTime is the capture timestamp of the analyzed frame.
	FrameTime time.Time `gorm:"column:frame_time"`
	// ReceivedAt is the time the relay accepted the event.
	ReceivedAt time.Time `gorm:"column:received_at;index:idx_ev_received"`

	Metrics EventMetrics `gorm:"embedded;embeddedPrefix:metric_"`
}

// HasMetrics reports whether any pipeline metric was recorded for the event.
func (e *AnalysisEvent) HasMetrics() bool {
	return e.Metrics != EventMetrics{}
}

// EventMetrics carries the pipeline statistics captured with an analysis event.
type EventMetrics struct {
	VideoFps           float64 `gorm:"column:video_fps" json:"video_fps"`
	InferenceFps       float64 `gorm:"column:inference_fps" json:"inference_fps"`
	DecodeLatencyMs    float64 `gorm:"column:decode_latency_ms" json:"decode_latency_ms"`
	InferenceLatencyMs float64 `gorm:"column:inference_latency_ms" json:"inference_latency_ms"`
	InputTokens        int     `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens       int     `gorm:"column:output_tokens" json:"output_tokens"`
}
