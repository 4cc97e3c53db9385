package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-pkgz/routegroup"

	"github.com/livevlm/vlm-relay/internal/app/api/core/request"
	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 1000
)

type DeliveryService interface {
	// GetDelivery returns the delivery journal record with the given id.
	GetDelivery(ctx context.Context, id uint64) (*domain.Delivery, error)
	// GetDeliveries returns the most recent delivery journal records, newest first.
	// An empty stream or status matches all records.
	GetDeliveries(
		ctx context.Context,
		stream domain.StreamIdentifier,
		status domain.DeliveryStatus,
		limit int,
	) ([]domain.Delivery, error)
}

type DeliveriesEndpoint struct {
	authenticator   Authenticator
	deliveryService DeliveryService
}

func NewDeliveriesEndpoint(
	authenticator Authenticator,
	deliveryService DeliveryService,
) DeliveriesEndpoint {
	return DeliveriesEndpoint{
		authenticator:   authenticator,
		deliveryService: deliveryService,
	}
}

func (e DeliveriesEndpoint) GetName() string {
	return "DeliveriesEndpoint"
}

func (e DeliveriesEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Group()
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("GET /deliveries", e.handleAllGet())
	apiGroup.HandleFunc("GET /deliveries/{id}", e.handleSingleGet())
}

// handleAllGet returns a gorm Handler function.
//
// @ID deliveries_handleAllGet
// @Tags Deliveries
// @Summary Get the most recent webhook delivery records, newest first.
// @Produce json
// @Param stream query string false "Only return deliveries of the given stream"
// @Param status query string false "Only return deliveries with the given status (delivered, retrying, failed)"
// @Param limit query int false "Maximum number of records to return, defaults to 50"
// @Success 200 {object} []model.Delivery
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Security BearerAuth
// @Router /deliveries [get]
func (e DeliveriesEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(request.QueryDefault(r, "limit", strconv.Itoa(defaultDeliveryLimit)))
		if err != nil || limit <= 0 {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "invalid limit parameter"})
			return
		}
		if limit > maxDeliveryLimit {
			limit = maxDeliveryLimit
		}

		status := domain.DeliveryStatus(request.Query(r, "status"))
		switch status {
		case "", domain.DeliveryStatusDelivered, domain.DeliveryStatusRetrying, domain.DeliveryStatusFailed:
		default:
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "invalid status parameter"})
			return
		}

		stream := domain.StreamIdentifier(request.Query(r, "stream"))

		deliveries, err := e.deliveryService.GetDeliveries(r.Context(), stream, status, limit)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewDeliveries(deliveries))
	}
}

// handleSingleGet returns a gorm Handler function.
//
// @ID deliveries_handleSingleGet
// @Tags Deliveries
// @Summary Get a single webhook delivery record.
// @Produce json
// @Param id path int true "The delivery identifier"
// @Success 200 {object} model.Delivery
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Failure 404 {object} model.Error
// @Security BearerAuth
// @Router /deliveries/{id} [get]
func (e DeliveriesEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(request.Path(r, "id"), 10, 64)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "invalid id parameter"})
			return
		}

		delivery, err := e.deliveryService.GetDelivery(r.Context(), id)
		if err != nil {
			code, apiErr := ParseServiceError(err)
			respond.JSON(w, code, apiErr)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewDelivery(delivery))
	}
}
