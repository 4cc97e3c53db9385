package main

import (
	"context"
	"log/slog"
	"net/http"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	evbus "github.com/vardius/message-bus"

	"github.com/livevlm/vlm-relay/internal"
	"github.com/livevlm/vlm-relay/internal/adapters"
	"github.com/livevlm/vlm-relay/internal/app/api/core"
	handlersV0 "github.com/livevlm/vlm-relay/internal/app/api/v0/handlers"
	"github.com/livevlm/vlm-relay/internal/app/notifications"
	"github.com/livevlm/vlm-relay/internal/app/records"
	"github.com/livevlm/vlm-relay/internal/app/webhooks"
	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/healthcheck"
)

func main() {
	ctx := internal.SignalAwareContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.GetConfig()
	internal.AssertNoError(err)

	internal.SetupLogging(cfg.Advanced.LogLevel, cfg.Advanced.LogPretty, cfg.Advanced.LogJson)

	slog.Info("starting VLM relay...", "version", internal.Version)

	rawDb, err := adapters.NewDatabase(cfg.Database)
	internal.AssertNoError(err)

	database, err := adapters.NewSqlRepository(rawDb)
	internal.AssertNoError(err)

	queueSize := 100
	eventBus := evbus.New(queueSize)

	metricsSrv := adapters.NewMetricsServer(cfg)

	recorder, err := records.NewRecorder(cfg, eventBus, database, metricsSrv)
	internal.AssertNoError(err)
	recorder.StartBackgroundJobs(ctx)

	webhookMgr, err := webhooks.NewManager(cfg, eventBus, database, metricsSrv)
	internal.AssertNoError(err)
	webhookMgr.StartBackgroundJobs(ctx)

	mailer := adapters.NewSmtpMailRepo(cfg.Mail)
	_, err = notifications.NewManager(cfg, mailer, eventBus)
	internal.AssertNoError(err)

	validate := validator.New()
	authenticator := handlersV0.NewAuthenticationHandler(cfg.Web.ApiToken)

	apiV0 := handlersV0.NewRestApi(
		handlersV0.NewEventsEndpoint(authenticator, validate, eventBus, database),
		handlersV0.NewDeliveriesEndpoint(authenticator, database),
		handlersV0.NewStatsEndpoint(authenticator, database),
		handlersV0.NewConfigEndpoint(cfg, authenticator),
		handlersV0.NewWebhookEndpoint(authenticator, webhookMgr),
	)

	webSrv, err := core.NewServer(cfg, apiV0)
	internal.AssertNoError(err)

	if cfg.Metrics.Enabled {
		go metricsSrv.Run(ctx)
		metricsSrv.StartBackgroundJobs(ctx)
	}

	healthcheck.New(
		healthcheck.ListenOnFromEnv(),
		healthcheck.WithCustomCheck(func() int {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := database.Ping(pingCtx); err != nil {
				return http.StatusServiceUnavailable
			}
			return http.StatusOK
		}),
	).StartWithContext(ctx)

	go webSrv.Run(ctx, cfg.Web.ListeningAddress)

	// wait until context gets cancelled
	<-ctx.Done()

	slog.Info("stopped VLM relay")
}
