package handlers

import (
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/config"
)

type ConfigEndpoint struct {
	cfg           *config.Config
	authenticator Authenticator
}

func NewConfigEndpoint(cfg *config.Config, authenticator Authenticator) ConfigEndpoint {
	return ConfigEndpoint{
		cfg:           cfg,
		authenticator: authenticator,
	}
}

func (e ConfigEndpoint) GetName() string {
	return "ConfigEndpoint"
}

func (e ConfigEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Group()
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("GET /config", e.handleConfigGet())
}

// handleConfigGet returns a gorm Handler function.
//
// @ID config_handleConfigGet
// @Tags Configuration
// @Summary Get the effective webhook configuration. Secret values are redacted.
// @Produce json
// @Success 200 {object} model.WebhookSettings
// @Failure 401 {object} model.Error
// @Security BearerAuth
// @Router /config [get]
func (e ConfigEndpoint) handleConfigGet() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, model.NewWebhookSettings(e.cfg.Webhook))
	}
}
