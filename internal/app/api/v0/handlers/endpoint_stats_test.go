package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type fakeStatsService struct {
	events     map[domain.StreamIdentifier]int64
	deliveries map[domain.DeliveryStatus]int64
	err        error
}

func (s *fakeStatsService) GetEventCounts(_ context.Context) (map[domain.StreamIdentifier]int64, error) {
	return s.events, s.err
}

func (s *fakeStatsService) GetDeliveryCounts(_ context.Context) (map[domain.DeliveryStatus]int64, error) {
	return s.deliveries, s.err
}

func TestStatsEndpoint_StatsGet(t *testing.T) {
	svc := &fakeStatsService{
		events: map[domain.StreamIdentifier]int64{
			"cam-entrance": 12,
			"cam-yard":     30,
		},
		deliveries: map[domain.DeliveryStatus]int64{
			domain.DeliveryStatusDelivered: 40,
			domain.DeliveryStatusRetrying:  2,
		},
	}
	router := setupTestRouter(NewStatsEndpoint(NewAuthenticationHandler(""), svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var stats model.Stats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, int64(42), stats.TotalEvents)
	assert.Equal(t, int64(30), stats.EventsByStream["cam-yard"])
	assert.Equal(t, int64(2), stats.DeliveriesByStatus["retrying"])
}

func TestStatsEndpoint_StatsGet_ServiceError(t *testing.T) {
	svc := &fakeStatsService{err: context.DeadlineExceeded}
	router := setupTestRouter(NewStatsEndpoint(NewAuthenticationHandler(""), svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
