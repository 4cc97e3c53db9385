package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/livevlm/vlm-relay/internal/app"
	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/domain"
)

// Recorder journals every accepted analysis event to the database and keeps the
// event table bounded.
type Recorder struct {
	cfg *config.Config
	bus EventBus

	db      DatabaseRepo
	metrics MetricsRecorder
}

func NewRecorder(cfg *config.Config, bus EventBus, db DatabaseRepo, metrics MetricsRecorder) (*Recorder, error) {
	r := &Recorder{
		cfg: cfg,
		bus: bus,

		db:      db,
		metrics: metrics,
	}

	err := r.connectToMessageBus()
	if err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return r, nil
}

// StartBackgroundJobs starts the periodic pruning of old analysis events.
// This method is non-blocking and returns immediately.
func (r *Recorder) StartBackgroundJobs(ctx context.Context) {
	if r.cfg.Core.KeepEvents <= 0 {
		slog.Info("[RECORDS] event pruning disabled, keeping all events")
		return
	}

	go r.pruneEvents(ctx)
}

func (r *Recorder) pruneEvents(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Core.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return // program stopped
		case <-ticker.C:
			pruned, err := r.db.PruneEvents(ctx, r.cfg.Core.KeepEvents)
			if err != nil {
				slog.Warn("[RECORDS] failed to prune events", "error", err)
				continue
			}
			if pruned > 0 {
				slog.Info("[RECORDS] pruned old events", "count", pruned,
					"keep", r.cfg.Core.KeepEvents)
			}
		}
	}
}

func (r *Recorder) connectToMessageBus() error {
	if err := r.bus.Subscribe(app.TopicAnalysisCreated, r.handleAnalysisCreatedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAnalysisCreated, err)
	}

	return nil
}

func (r *Recorder) handleAnalysisCreatedEvent(event domain.AnalysisEvent) {
	err := r.db.SaveEvent(context.Background(), &event)
	if err != nil {
		slog.Error("[RECORDS] failed to store analysis event", "error", err, "event", event.Id,
			"stream", event.Stream)
		return
	}

	r.metrics.CountReceivedEvent(event.Stream, event.Kind)
}
