package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type StatsService interface {
	// GetEventCounts returns the number of stored analysis events per stream.
	GetEventCounts(ctx context.Context) (map[domain.StreamIdentifier]int64, error)
	// GetDeliveryCounts returns the number of delivery journal records per status.
	GetDeliveryCounts(ctx context.Context) (map[domain.DeliveryStatus]int64, error)
}

type StatsEndpoint struct {
	authenticator Authenticator
	statsService  StatsService
}

func NewStatsEndpoint(authenticator Authenticator, statsService StatsService) StatsEndpoint {
	return StatsEndpoint{
		authenticator: authenticator,
		statsService:  statsService,
	}
}

func (e StatsEndpoint) GetName() string {
	return "StatsEndpoint"
}

func (e StatsEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Group()
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("GET /stats", e.handleStatsGet())
}

// handleStatsGet returns a gorm Handler function.
//
// @ID stats_handleStatsGet
// @Tags Stats
// @Summary Get event and delivery counters of the relay.
// @Produce json
// @Success 200 {object} model.Stats
// @Failure 401 {object} model.Error
// @Failure 500 {object} model.Error
// @Security BearerAuth
// @Router /stats [get]
func (e StatsEndpoint) handleStatsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := e.statsService.GetEventCounts(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		deliveries, err := e.statsService.GetDeliveryCounts(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewStats(events, deliveries))
	}
}
