package handlers

import (
	"errors"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/livevlm/vlm-relay/internal/app/api/core"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type Handler interface {
	// GetName returns the name of the handler.
	GetName() string
	// RegisterRoutes registers the routes for the handler.
	RegisterRoutes(g *routegroup.Bundle)
}

// To compile the API documentation use the
// api_build_tool
// command that can be found in the $PROJECT_ROOT/cmd/api_build_tool directory.

// @title VLM Relay Management API
// @version 0.0
// @description The management API of the relay. It exposes the recorded analysis
// @description events, the webhook delivery journal and the effective webhook
// @description configuration.

// @contact.name VLM Relay Developers
// @contact.url https://github.com/livevlm/vlm-relay

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @BasePath /api/v0
// @query.collection.format multi

func NewRestApi(handlers ...Handler) core.ApiEndpointSetupFunc {
	return func() (core.ApiVersion, core.GroupSetupFn) {
		return "v0", func(group *routegroup.Bundle) {
			// Handler functions
			for _, h := range handlers {
				h.RegisterRoutes(group)
			}
		}
	}
}

// ParseServiceError maps an error from the service layer to a REST API error model.
func ParseServiceError(err error) (int, model.Error) {
	if err == nil {
		return 500, model.Error{
			Code:    500,
			Message: "unknown server error",
		}
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrNotUnique):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidData):
		code = http.StatusBadRequest
	}

	return code, model.Error{
		Code:    code,
		Message: err.Error(),
	}
}

// region handler-interfaces

type Authenticator interface {
	// LoggedIn checks if the request carries a valid API token.
	LoggedIn() func(next http.Handler) http.Handler
}

type Validator interface {
	// Struct validates the given struct.
	Struct(s interface{}) error
}

// endregion handler-interfaces
