package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type WebhookService interface {
	// SendTest fires a test webhook at the configured receiver and waits for the response.
	SendTest(ctx context.Context) error
}

type WebhookEndpoint struct {
	authenticator  Authenticator
	webhookService WebhookService
}

func NewWebhookEndpoint(authenticator Authenticator, webhookService WebhookService) WebhookEndpoint {
	return WebhookEndpoint{
		authenticator:  authenticator,
		webhookService: webhookService,
	}
}

func (e WebhookEndpoint) GetName() string {
	return "WebhookEndpoint"
}

func (e WebhookEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Group()
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("POST /webhook/test", e.handleTestPost())
}

// handleTestPost returns a gorm Handler function.
//
// @ID webhook_handleTestPost
// @Tags Webhook
// @Summary Send a test webhook to the configured receiver.
// @Description The request blocks until the receiver answered or the webhook timeout expired.
// @Produce json
// @Success 200 {object} string
// @Failure 400 {object} model.Error
// @Failure 401 {object} model.Error
// @Failure 502 {object} model.Error
// @Security BearerAuth
// @Router /webhook/test [post]
func (e WebhookEndpoint) handleTestPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := e.webhookService.SendTest(r.Context()); err != nil {
			if errors.Is(err, domain.ErrInvalidData) {
				code, apiErr := ParseServiceError(err)
				respond.JSON(w, code, apiErr)
				return
			}

			respond.JSON(w, http.StatusBadGateway,
				model.Error{Code: http.StatusBadGateway, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, "webhook test succeeded")
	}
}
