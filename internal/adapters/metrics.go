package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/livevlm/vlm-relay/internal"
	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type MetricsServer struct {
	*http.Server
	cfg *config.Config

	eventsReceived  *prometheus.CounterVec
	eventsDiscarded *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	retryQueue      prometheus.Gauge
	receiverUp      prometheus.Gauge
}

// NewMetricsServer returns a new prometheus server
func NewMetricsServer(cfg *config.Config) *MetricsServer {
	reg := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		Server: &http.Server{
			Addr:    cfg.Metrics.ListeningAddress,
			Handler: mux,
		},
		cfg: cfg,

		eventsReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlm_relay_events_received_total",
				Help: "Analysis events accepted by the relay.",
			}, []string{"stream", "kind"},
		),
		eventsDiscarded: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlm_relay_events_discarded_total",
				Help: "Analysis events that were not forwarded to the webhook receiver.",
			}, []string{"reason"},
		),
		deliveries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlm_relay_deliveries_total",
				Help: "Webhook delivery attempts by result.",
			}, []string{"result"},
		),
		retryQueue: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "vlm_relay_delivery_queue",
				Help: "Deliveries currently waiting for a retry.",
			},
		),
		receiverUp: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "vlm_relay_receiver_reachable",
				Help: "Reachability of the webhook receiver host (boolean: 1/0).",
			},
		),
	}
}

// Run starts the metrics server. The function blocks until the context is cancelled.
func (m *MetricsServer) Run(ctx context.Context) {
	go func() {
		if err := m.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics service exited", "address", m.Addr, "error", err)
		}
	}()

	slog.Info("started metrics service", "address", m.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics service shutdown failed", "address", m.Addr, "error", err)
	} else {
		slog.Debug("metrics service shut down", "address", m.Addr)
	}
}

// StartBackgroundJobs starts the reachability probe for the webhook receiver host.
// This method is non-blocking.
func (m *MetricsServer) StartBackgroundJobs(ctx context.Context) {
	if !m.cfg.Metrics.PingChecks || m.cfg.Webhook.Url == "" {
		return
	}

	receiverUrl, err := url.Parse(m.cfg.Webhook.Url)
	if err != nil || receiverUrl.Hostname() == "" {
		slog.Warn("skipping receiver reachability probes, webhook url has no usable host",
			"url", m.cfg.Webhook.Url)
		return
	}
	host := receiverUrl.Hostname()

	go func() {
		ticker := time.NewTicker(m.cfg.Metrics.PingInterval)
		defer ticker.Stop()

		for {
			m.receiverUp.Set(internal.BoolToFloat64(m.isReceiverPingable(ctx, host)))

			select {
			case <-ctx.Done():
				slog.Debug("stopped receiver reachability probes")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (m *MetricsServer) isReceiverPingable(ctx context.Context, host string) bool {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		slog.Debug("failed to instantiate pinger", "host", host, "error", err)
		return false
	}

	checkCount := 1
	pinger.SetPrivileged(!m.cfg.Metrics.PingUnprivileged)
	pinger.Count = checkCount
	pinger.Timeout = 2 * time.Second
	err = pinger.RunWithContext(ctx) // Blocks until finished.
	if err != nil {
		slog.Debug("pinger exited unexpectedly", "host", host, "error", err)
		return false
	}
	stats := pinger.Statistics()
	return stats.PacketsRecv == checkCount
}

// CountReceivedEvent increments the received counter for the given stream and kind.
func (m *MetricsServer) CountReceivedEvent(stream domain.StreamIdentifier, kind domain.EventKind) {
	m.eventsReceived.WithLabelValues(string(stream), string(kind)).Inc()
}

// CountDiscardedEvent increments the discarded counter for the given reason.
func (m *MetricsServer) CountDiscardedEvent(reason string) {
	m.eventsDiscarded.WithLabelValues(reason).Inc()
}

// CountDelivery increments the delivery counter for the given result.
func (m *MetricsServer) CountDelivery(result string) {
	m.deliveries.WithLabelValues(result).Inc()
}

// SetRetryQueueLength publishes the number of deliveries waiting for a retry.
func (m *MetricsServer) SetRetryQueueLength(length int) {
	m.retryQueue.Set(float64(length))
}
