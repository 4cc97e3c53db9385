package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKind_IsValid(t *testing.T) {
	assert.True(t, EventKindSingle.IsValid())
	assert.True(t, EventKindMulti.IsValid())

	assert.False(t, EventKind("").IsValid())
	assert.False(t, EventKind("both").IsValid())
	assert.False(t, EventKind("Single").IsValid())
}

func TestAnalysisEvent_HasMetrics(t *testing.T) {
	event := &AnalysisEvent{}
	assert.False(t, event.HasMetrics())

	event.Metrics.InferenceFps = 4.2
	assert.True(t, event.HasMetrics())

	event.Metrics = EventMetrics{OutputTokens: 128}
	assert.True(t, event.HasMetrics())
}
