package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/scheduler"
	"github.com/okeefe/recite-api/internal/store"
)

// TaskTypeStatsRefresh identifies deck statistics refresh tasks.
const TaskTypeStatsRefresh = "stats_refresh"

// DeckSource is the slice of the deck store the refresher needs: listing
// decks for the sweep and writing back recomputed stats.
type DeckSource interface {
	List(ctx context.Context) ([]*domain.Deck, error)
	UpdateStats(ctx context.Context, id uuid.UUID, stats domain.DeckStats) error
}

// CardSource reads the cards whose learning states feed the aggregates.
type CardSource interface {
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
}

// StatsRefresher builds refresh tasks over the given stores. One instance
// is shared by the event handler and the scheduled sweeper.
type StatsRefresher struct {
	decks DeckSource
	cards CardSource
}

// NewStatsRefresher creates a StatsRefresher.
func NewStatsRefresher(decks DeckSource, cards CardSource) *StatsRefresher {
	if decks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck source cannot be nil for StatsRefresher")
	}
	if cards == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card source cannot be nil for StatsRefresher")
	}

	return &StatsRefresher{decks: decks, cards: cards}
}

// RefreshTask returns a task that re-derives one deck's statistics from
// its cards and persists them.
func (f *StatsRefresher) RefreshTask(deckID uuid.UUID) Task {
	return &statsRefreshTask{
		id:     uuid.New(),
		deckID: deckID,
		decks:  f.decks,
		cards:  f.cards,
	}
}

// RefreshDeck recomputes and persists one deck's statistics immediately.
// A deck deleted since the task was queued is not an error; the cache it
// would have refreshed is gone with it.
func (f *StatsRefresher) RefreshDeck(ctx context.Context, deckID uuid.UUID) error {
	cards, err := f.cards.ListByDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil
		}
		return fmt.Errorf("failed to list deck cards: %w", err)
	}

	stats := scheduler.RecomputeStats(cards)
	if err := f.decks.UpdateStats(ctx, deckID, stats); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil
		}
		return fmt.Errorf("failed to persist deck stats: %w", err)
	}

	return nil
}

// RefreshAll recomputes statistics for every deck, reporting the first
// error after trying all of them.
func (f *StatsRefresher) RefreshAll(ctx context.Context) error {
	decks, err := f.decks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}

	var firstErr error
	for _, deck := range decks {
		if err := f.RefreshDeck(ctx, deck.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// statsRefreshTask recomputes one deck's statistics.
type statsRefreshTask struct {
	id     uuid.UUID
	deckID uuid.UUID
	decks  DeckSource
	cards  CardSource
}

// Ensure statsRefreshTask implements Task.
var _ Task = (*statsRefreshTask)(nil)

// ID implements Task.ID.
func (t *statsRefreshTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type.
func (t *statsRefreshTask) Type() string {
	return TaskTypeStatsRefresh
}

// Execute implements Task.Execute.
func (t *statsRefreshTask) Execute(ctx context.Context) error {
	refresher := &StatsRefresher{decks: t.decks, cards: t.cards}
	return refresher.RefreshDeck(ctx, t.deckID)
}
