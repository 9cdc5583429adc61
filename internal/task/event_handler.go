package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okeefe/recite-api/internal/events"
)

// StatsEventHandler implements the events.EventHandler interface, turning
// deck change notifications into queued stats refresh tasks.
type StatsEventHandler struct {
	refresher *StatsRefresher
	runner    *Runner
	logger    *slog.Logger
}

// Ensure StatsEventHandler implements events.EventHandler.
var _ events.EventHandler = (*StatsEventHandler)(nil)

// NewStatsEventHandler creates an event handler that enqueues a stats
// refresh for the deck named in each event.
func NewStatsEventHandler(
	refresher *StatsRefresher,
	runner *Runner,
	log *slog.Logger,
) *StatsEventHandler {
	if refresher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("refresher cannot be nil for StatsEventHandler")
	}
	if runner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("runner cannot be nil for StatsEventHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &StatsEventHandler{
		refresher: refresher,
		runner:    runner,
		logger:    log.With(slog.String("component", "stats_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Submission failure is
// returned to the emitter but needs no retry here: the services already
// refreshed stats synchronously, and the scheduled sweep reconciles any
// deck that slipped through.
func (h *StatsEventHandler) HandleEvent(ctx context.Context, event *events.DeckEvent) error {
	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.String("deck_id", event.DeckID.String()),
	)

	if err := h.runner.Submit(h.refresher.RefreshTask(event.DeckID)); err != nil {
		log.Warn("failed to enqueue stats refresh", slog.String("error", err.Error()))
		return fmt.Errorf("failed to enqueue stats refresh: %w", err)
	}

	log.Debug("stats refresh enqueued")
	return nil
}
