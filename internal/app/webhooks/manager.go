package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"github.com/livevlm/vlm-relay/internal"
	"github.com/livevlm/vlm-relay/internal/app"
	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/domain"
)

const (
	// SignatureHeader carries the hex encoded HMAC-SHA256 of the request body.
	SignatureHeader = "X-Webhook-Signature-256"

	retryInterval    = 30 * time.Second
	retryBackoffBase = 30 * time.Second
	retryBatchSize   = 50

	// maxResponseBytes limits how much of the receiver response is read.
	maxResponseBytes = 64 * 1024
	// maxErrorLength limits the error text stored in the delivery journal.
	maxErrorLength = 255
)

// Manager forwards accepted analysis events to the configured webhook receiver.
// Events pass a mode gate, a sampling gate and an optional filter expression
// before they are sent. Every send attempt is journaled as a domain.Delivery.
type Manager struct {
	cfg *config.Config
	bus EventBus

	db      DatabaseRepo
	metrics MetricsRecorder

	client  *http.Client
	sampler *sampler

	filterOnce sync.Once
	filter     *vm.Program
}

// NewManager creates a new webhook manager instance.
func NewManager(cfg *config.Config, bus EventBus, db DatabaseRepo, metrics MetricsRecorder) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		bus:     bus,
		db:      db,
		metrics: metrics,
		client: &http.Client{
			Timeout: cfg.Webhook.Timeout,
		},
		sampler: newSampler(),
	}

	m.connectToMessageBus()

	return m, nil
}

// StartBackgroundJobs starts the retry scheduler for deliveries that did not
// reach the receiver on the first attempt.
// This method is non-blocking and returns immediately.
func (m *Manager) StartBackgroundJobs(ctx context.Context) {
	if !m.cfg.Webhook.Enabled {
		return
	}

	go m.retryDeliveries(ctx)
}

func (m *Manager) connectToMessageBus() {
	if !m.cfg.Webhook.Enabled {
		slog.Info("[WEBHOOK] webhook forwarding disabled, skipping event-bus subscription")
		return
	}

	_ = m.bus.Subscribe(app.TopicAnalysisCreated, m.handleAnalysisCreatedEvent)
}

func (m *Manager) handleAnalysisCreatedEvent(event domain.AnalysisEvent) {
	if !m.kindForwarded(event.Kind) {
		m.metrics.CountDiscardedEvent("mode")
		return
	}

	if !m.sampler.Take(event.Stream, event.Kind, m.cfg.Webhook.SampleEvery) {
		m.metrics.CountDiscardedEvent("sampled")
		return
	}

	if !m.matchesFilter(event) {
		m.metrics.CountDiscardedEvent("filtered")
		return
	}

	body, err := NewAnalysisWebhookData(event, m.cfg.Webhook.IncludeMetrics).Serialize()
	if err != nil {
		slog.Error("[WEBHOOK] failed to serialize event data", "error", err, "event", event.Id)
		return
	}

	delivery := domain.Delivery{
		EventId:     event.Id,
		Stream:      event.Stream,
		Kind:        event.Kind,
		Url:         m.cfg.Webhook.Url,
		Payload:     string(body),
		MaxAttempts: m.cfg.Webhook.MaxAttempts,
	}

	m.attemptDelivery(context.Background(), &delivery)
}

// kindForwarded applies the configured forwarding mode to an event kind.
func (m *Manager) kindForwarded(kind domain.EventKind) bool {
	switch m.cfg.Webhook.Mode {
	case config.WebhookModeSingle:
		return kind == domain.EventKindSingle
	case config.WebhookModeMulti:
		return kind == domain.EventKindMulti
	default:
		return true
	}
}

// matchesFilter evaluates the optional filter expression against the event.
// An empty or broken expression matches every event.
func (m *Manager) matchesFilter(event domain.AnalysisEvent) bool {
	if m.cfg.Webhook.Filter == "" {
		return true
	}

	m.filterOnce.Do(func() {
		program, err := expr.Compile(m.cfg.Webhook.Filter, expr.AsBool())
		if err != nil {
			slog.Error("[WEBHOOK] invalid filter expression, forwarding all events",
				"error", err, "filter", m.cfg.Webhook.Filter)
			return
		}
		m.filter = program
	})

	if m.filter == nil {
		return true
	}

	result, err := expr.Run(m.filter, filterVars(event))
	if err != nil {
		slog.Warn("[WEBHOOK] filter evaluation failed, forwarding event", "error", err,
			"event", event.Id)
		return true
	}

	matched, ok := result.(bool)
	if !ok {
		return true
	}

	return matched
}

// filterVars is the variable environment visible to filter expressions.
func filterVars(event domain.AnalysisEvent) map[string]any {
	return map[string]any{
		"stream": string(event.Stream),
		"kind":   string(event.Kind),
		"alert":  event.Alert,
		"prompt": event.Prompt,
		"reply":  event.Reply,
	}
}

// attemptDelivery sends the journaled payload and records the outcome. It is
// shared between the first inline attempt and the retry scheduler.
func (m *Manager) attemptDelivery(ctx context.Context, delivery *domain.Delivery) {
	status, err := m.sendWebhook(ctx, []byte(delivery.Payload))
	if err != nil {
		delivery.RecordFailure(status, internal.TruncateString(err.Error(), maxErrorLength),
			time.Now(), retryBackoffBase)
	} else {
		delivery.RecordSuccess(status)
	}

	if dbErr := m.db.SaveDelivery(ctx, delivery); dbErr != nil {
		slog.Error("[WEBHOOK] failed to update delivery journal", "error", dbErr,
			"event", delivery.EventId)
	}

	switch delivery.Status {
	case domain.DeliveryStatusDelivered:
		m.metrics.CountDelivery("delivered")
		m.bus.Publish(app.TopicDeliverySucceeded, *delivery)
		slog.Info("[WEBHOOK] executed webhook", "event", delivery.EventId,
			"stream", delivery.Stream, "attempts", delivery.Attempts)
	case domain.DeliveryStatusRetrying:
		m.metrics.CountDelivery("retried")
		slog.Warn("[WEBHOOK] webhook attempt failed, retry scheduled", "error", err,
			"event", delivery.EventId, "attempts", delivery.Attempts)
	case domain.DeliveryStatusFailed:
		m.metrics.CountDelivery("failed")
		m.bus.Publish(app.TopicDeliveryFailed, *delivery)
		slog.Error("[WEBHOOK] webhook failed permanently", "error", err,
			"event", delivery.EventId, "attempts", delivery.Attempts)
	}
}

func (m *Manager) retryDeliveries(ctx context.Context) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return // program stopped
		case <-ticker.C:
			due, err := m.db.GetDueDeliveries(ctx, time.Now(), retryBatchSize)
			if err != nil {
				slog.Warn("[WEBHOOK] failed to load due deliveries", "error", err)
				continue
			}

			for i := range due {
				m.attemptDelivery(ctx, &due[i])
			}

			counts, err := m.db.GetDeliveryCounts(ctx)
			if err != nil {
				continue
			}
			m.metrics.SetRetryQueueLength(int(counts[domain.DeliveryStatusRetrying]))
		}
	}
}

// SendTest fires a single test payload at the configured receiver. The fire
// bypasses the mode, sampling and filter gates and is not journaled.
func (m *Manager) SendTest(ctx context.Context) error {
	if m.cfg.Webhook.Url == "" {
		return fmt.Errorf("no webhook url configured: %w", domain.ErrInvalidData)
	}

	data := &WebhookData{
		Event:      WebhookEventTest,
		Identifier: uuid.New().String(),
		Timestamp:  time.Now(),
		Payload: AnalysisPayload{
			Prompt: "webhook connectivity test",
			Reply:  "hello from vlm-relay",
		},
	}

	body, err := data.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize test data: %w", err)
	}

	status, err := m.sendWebhook(ctx, body)
	if err != nil {
		return fmt.Errorf("test webhook failed: %w", err)
	}

	slog.Info("[WEBHOOK] executed test webhook", "status", status)

	return nil
}

func (m *Manager) sendWebhook(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Webhook.Url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	if m.cfg.Webhook.Authentication != "" {
		req.Header.Set("Authorization", m.cfg.Webhook.Authentication)
	}
	if m.cfg.Webhook.Secret != "" {
		req.Header.Set(SignatureHeader, signPayload(m.cfg.Webhook.Secret, body))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer internal.LogClose(resp.Body)

	// drain the response so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusAccepted {
		return resp.StatusCode, fmt.Errorf("webhook request failed with status: %s", resp.Status)
	}

	return resp.StatusCode, nil
}

// signPayload returns the hex encoded HMAC-SHA256 of the body, prefixed with
// "sha256=".
func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
