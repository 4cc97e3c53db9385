package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pkgz/routegroup"
	"github.com/google/uuid"

	"github.com/livevlm/vlm-relay/internal/app"
	"github.com/livevlm/vlm-relay/internal/app/api/core/request"
	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
}

type EventService interface {
	// GetEvent returns the analysis event with the given id.
	GetEvent(ctx context.Context, id domain.EventIdentifier) (*domain.AnalysisEvent, error)
	// GetRecentEvents returns the most recent analysis events, newest first.
	// An empty stream matches all streams.
	GetRecentEvents(ctx context.Context, stream domain.StreamIdentifier, limit int) ([]domain.AnalysisEvent, error)
}

type EventsEndpoint struct {
	authenticator Authenticator
	validator     Validator
	bus           EventBus
	eventService  EventService
}

func NewEventsEndpoint(
	authenticator Authenticator,
	validator Validator,
	bus EventBus,
	eventService EventService,
) EventsEndpoint {
	return EventsEndpoint{
		authenticator: authenticator,
		validator:     validator,
		bus:           bus,
		eventService:  eventService,
	}
}

func (e EventsEndpoint) GetName() string {
	return "EventsEndpoint"
}

func (e EventsEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Group()
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("POST /events", e.handleCreatePost())
	apiGroup.HandleFunc("GET /events", e.handleAllGet())
	apiGroup.HandleFunc("GET /events/{id}", e.handleSingleGet())
}

// handleCreatePost returns a gorm Handler function.
//
// @ID events_handleCreatePost
// @Tags Events
// @Summary Ingest a new analysis event.
// @Description The event is accepted, published to the internal message bus and stored asynchronously.
// @Produce json
// @Param request body model.EventSubmission true "The analysis event data"
// @Success 202 {object} model.Event
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Security BearerAuth
// @Router /events [post]
func (e EventsEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.EventSubmission
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validator.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		event := model.NewDomainEvent(&req)
		event.Id = domain.EventIdentifier(uuid.New().String())
		event.ReceivedAt = time.Now()
		if event.FrameTime.IsZero() {
			event.FrameTime = event.ReceivedAt
		}

		e.bus.Publish(app.TopicAnalysisCreated, *event)
		if event.Alert {
			e.bus.Publish(app.TopicAnalysisAlert, *event)
		}

		respond.JSON(w, http.StatusAccepted, model.NewEvent(event))
	}
}

// handleAllGet returns a gorm Handler function.
//
// @ID events_handleAllGet
// @Tags Events
// @Summary Get the most recent analysis events, newest first.
// @Produce json
// @Param stream query string false "Only return events of the given stream"
// @Param limit query int false "Maximum number of events to return, defaults to 50"
// @Success 200 {object} []model.Event
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Security BearerAuth
// @Router /events [get]
func (e EventsEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(request.QueryDefault(r, "limit", strconv.Itoa(defaultEventLimit)))
		if err != nil || limit <= 0 {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "invalid limit parameter"})
			return
		}
		if limit > maxEventLimit {
			limit = maxEventLimit
		}

		stream := domain.StreamIdentifier(request.Query(r, "stream"))

		events, err := e.eventService.GetRecentEvents(r.Context(), stream, limit)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewEvents(events))
	}
}

// handleSingleGet returns a gorm Handler function.
//
// @ID events_handleSingleGet
// @Tags Events
// @Summary Get a single analysis event.
// @Produce json
// @Param id path string true "The event identifier"
// @Success 200 {object} model.Event
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Failure 404 {object} model.Error
// @Security BearerAuth
// @Router /events/{id} [get]
func (e EventsEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "missing id parameter"})
			return
		}

		event, err := e.eventService.GetEvent(r.Context(), domain.EventIdentifier(id))
		if err != nil {
			code, apiErr := ParseServiceError(err)
			respond.JSON(w, code, apiErr)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewEvent(event))
	}
}
