package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/livevlm/vlm-relay/internal/app"
	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus EventBus

	tplHandler *TemplateHandler
	mailer     Mailer

	mu            sync.Mutex
	lastAlertMail map[domain.StreamIdentifier]time.Time
}

// NewManager creates a new notification manager instance.
func NewManager(cfg *config.Config, mailer Mailer, bus EventBus) (*Manager, error) {
	tplHandler, err := newTemplateHandler(cfg.Web.ExternalUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template handler: %w", err)
	}

	m := &Manager{
		cfg:           cfg,
		bus:           bus,
		tplHandler:    tplHandler,
		mailer:        mailer,
		lastAlertMail: make(map[domain.StreamIdentifier]time.Time),
	}

	m.connectToMessageBus()

	return m, nil
}

func (m *Manager) connectToMessageBus() {
	if len(m.cfg.Notifications.MailTo) == 0 {
		slog.Info("[MAIL] no alert recipients configured, skipping event-bus subscription")
		return
	}

	_ = m.bus.Subscribe(app.TopicAnalysisAlert, m.handleAnalysisAlertEvent)
}

func (m *Manager) handleAnalysisAlertEvent(event domain.AnalysisEvent) {
	now := time.Now()
	if !m.claimAlertSlot(event.Stream, now) {
		slog.Debug("[MAIL] suppressing alert mail, cooldown active", "stream", event.Stream,
			"event", event.Id)
		return
	}

	err := m.sendAlertMail(context.Background(), event)
	if err != nil {
		m.releaseAlertSlot(event.Stream)
		slog.Error("[MAIL] failed to send alert mail", "error", err, "stream", event.Stream,
			"event", event.Id)
		return
	}

	slog.Info("[MAIL] sent alert mail", "stream", event.Stream, "event", event.Id,
		"recipients", len(m.cfg.Notifications.MailTo))
}

// claimAlertSlot checks the per-stream cooldown and restarts it if it has expired.
// It returns false while the cooldown window is still open.
func (m *Manager) claimAlertSlot(stream domain.StreamIdentifier, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.lastAlertMail[stream]; ok && now.Sub(last) < m.cfg.Notifications.Cooldown {
		return false
	}

	m.lastAlertMail[stream] = now
	return true
}

// releaseAlertSlot reopens the cooldown slot for a stream after a failed send attempt.
func (m *Manager) releaseAlertSlot(stream domain.StreamIdentifier) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.lastAlertMail, stream)
}

func (m *Manager) sendAlertMail(ctx context.Context, event domain.AnalysisEvent) error {
	txtMail, htmlMail, err := m.tplHandler.GetAlertMail(event)
	if err != nil {
		return fmt.Errorf("failed to get alert mail body: %w", err)
	}

	txtMailStr, _ := io.ReadAll(txtMail)
	htmlMailStr, _ := io.ReadAll(htmlMail)
	mailOptions := domain.MailOptions{
		HtmlBody: string(htmlMailStr),
	}

	subject := fmt.Sprintf("VLM alert on stream %s", event.Stream)
	err = m.mailer.Send(ctx, subject, string(txtMailStr), m.cfg.Notifications.MailTo, &mailOptions)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}
