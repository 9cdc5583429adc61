package task

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically enqueues a stats refresh for every deck. The sweep
// is the reconciliation backstop: it heals any deck whose event-driven
// refresh was dropped or whose stats write failed.
type Sweeper struct {
	refresher *StatsRefresher
	runner    *Runner
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewSweeper creates a Sweeper with the given cron schedule expression
// (standard five-field syntax, e.g. "0 3 * * *" for 03:00 daily).
func NewSweeper(
	refresher *StatsRefresher,
	runner *Runner,
	schedule string,
	log *slog.Logger,
) *Sweeper {
	if refresher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("refresher cannot be nil for Sweeper")
	}
	if runner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("runner cannot be nil for Sweeper")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		refresher: refresher,
		runner:    runner,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    log.With(slog.String("component", "stats_sweeper")),
	}
}

// Start registers the sweep with the cron scheduler and starts it.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("stats sweep scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron scheduler. A sweep already enqueued keeps running on
// the task runner.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// sweep enqueues one refresh task per deck.
func (s *Sweeper) sweep() {
	decks, err := s.refresher.decks.List(s.runner.ctx)
	if err != nil {
		s.logger.Error("failed to list decks for sweep", slog.String("error", err.Error()))
		return
	}

	enqueued := 0
	for _, deck := range decks {
		if err := s.runner.Submit(s.refresher.RefreshTask(deck.ID)); err != nil {
			s.logger.Warn("failed to enqueue sweep refresh",
				slog.String("deck_id", deck.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		enqueued++
	}

	s.logger.Info("stats sweep enqueued",
		slog.Int("deck_count", len(decks)),
		slog.Int("enqueued", enqueued))
}
