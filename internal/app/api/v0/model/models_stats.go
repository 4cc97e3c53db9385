package model

import (
	"github.com/livevlm/vlm-relay/internal/domain"
)

// Stats summarizes the event journal and the webhook delivery queue.
type Stats struct {
	TotalEvents        int64            `json:"TotalEvents"`
	EventsByStream     map[string]int64 `json:"EventsByStream"`
	DeliveriesByStatus map[string]int64 `json:"DeliveriesByStatus"`
}

// NewStats creates REST API Stats from the domain counters.
func NewStats(
	events map[domain.StreamIdentifier]int64,
	deliveries map[domain.DeliveryStatus]int64,
) Stats {
	dst := Stats{
		EventsByStream:     make(map[string]int64, len(events)),
		DeliveriesByStatus: make(map[string]int64, len(deliveries)),
	}

	for stream, count := range events {
		dst.TotalEvents += count
		dst.EventsByStream[string(stream)] = count
	}
	for status, count := range deliveries {
		dst.DeliveriesByStatus[string(status)] = count
	}

	return dst
}
