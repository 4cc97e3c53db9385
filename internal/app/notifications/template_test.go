package notifications

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livevlm/vlm-relay/internal/domain"
)

func TestTemplateHandler_GetAlertMail(t *testing.T) {
	handler, err := newTemplateHandler("http://relay.example.com")
	require.NoError(t, err)

	event := domain.AnalysisEvent{
		Id:         "9a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9",
		Stream:     "cam-entrance",
		Kind:       domain.EventKindSingle,
		Prompt:     "Describe the scene.",
		Reply:      "A delivery truck is blocking the driveway.",
		Alert:      true,
		ReceivedAt: time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC),
	}

	txtMail, htmlMail, err := handler.GetAlertMail(event)
	require.NoError(t, err)

	txt, err := io.ReadAll(txtMail)
	require.NoError(t, err)
	html, err := io.ReadAll(htmlMail)
	require.NoError(t, err)

	assert.Contains(t, string(txt), "cam-entrance")
	assert.Contains(t, string(txt), "Describe the scene.")
	assert.Contains(t, string(txt), "A delivery truck is blocking the driveway.")
	assert.Contains(t, string(txt), "http://relay.example.com/api/v0/events/9a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9")

	assert.Contains(t, string(html), "<html")
	assert.Contains(t, string(html), "cam-entrance")
	assert.Contains(t, string(html), "href=\"http://relay.example.com/api/v0/events/9a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9\"")
}

func TestTemplateHandler_GetAlertMail_NoRelayUrl(t *testing.T) {
	handler, err := newTemplateHandler("")
	require.NoError(t, err)

	txtMail, _, err := handler.GetAlertMail(domain.AnalysisEvent{
		Id:         "9a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9",
		Stream:     "cam-entrance",
		Kind:       domain.EventKindMulti,
		ReceivedAt: time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	txt, err := io.ReadAll(txtMail)
	require.NoError(t, err)
	assert.NotContains(t, string(txt), "Event details")
	assert.Contains(t, string(txt), "all streams")
}
