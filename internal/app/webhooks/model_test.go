package webhooks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livevlm/vlm-relay/internal/domain"
)

func TestNewAnalysisWebhookData(t *testing.T) {
	event := webhookTestEvent(domain.EventKindSingle)

	data := NewAnalysisWebhookData(event, true)
	assert.Equal(t, WebhookEventAnalysis, data.Event)
	assert.Equal(t, "single", data.Kind)
	assert.Equal(t, string(event.Id), data.Identifier)
	assert.Equal(t, "cam-entrance", data.Stream)
	assert.Equal(t, event.ReceivedAt, data.Timestamp)
	require.NotNil(t, data.Metrics)
	assert.Equal(t, 24.5, data.Metrics.VideoFps)

	payload, ok := data.Payload.(AnalysisPayload)
	require.True(t, ok)
	assert.Equal(t, "Describe the scene.", payload.Prompt)
	assert.Equal(t, "A forklift is moving pallets.", payload.Reply)
}

func TestNewAnalysisWebhookData_MetricsOptOut(t *testing.T) {
	data := NewAnalysisWebhookData(webhookTestEvent(domain.EventKindSingle), false)
	assert.Nil(t, data.Metrics)
}

func TestNewAnalysisWebhookData_NoMetricsRecorded(t *testing.T) {
	event := webhookTestEvent(domain.EventKindMulti)
	event.Metrics = domain.EventMetrics{}

	data := NewAnalysisWebhookData(event, true)
	assert.Nil(t, data.Metrics)
}

func TestWebhookData_Serialize(t *testing.T) {
	event := webhookTestEvent(domain.EventKindSingle)
	event.Alert = true

	body, err := NewAnalysisWebhookData(event, true).Serialize()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, "analysis", decoded["event"])
	assert.Equal(t, "single", decoded["kind"])
	assert.Equal(t, "cam-entrance", decoded["stream"])

	timestamp, err := time.Parse(time.RFC3339, decoded["timestamp"].(string))
	require.NoError(t, err)
	assert.True(t, timestamp.Equal(event.ReceivedAt))

	payload, ok := decoded["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, payload["alert"])
	assert.Equal(t, "Describe the scene.", payload["prompt"])

	metrics, ok := decoded["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 24.5, metrics["video_fps"])
}

func TestWebhookData_Serialize_OmitsEmptyMetrics(t *testing.T) {
	body, err := NewAnalysisWebhookData(webhookTestEvent(domain.EventKindSingle), false).Serialize()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.NotContains(t, decoded, "metrics")
}
