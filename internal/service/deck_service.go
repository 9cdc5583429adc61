package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/events"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/scheduler"
	"github.com/okeefe/recite-api/internal/store"
)

// DeckRepository defines the persistence operations the deck service
// depends on. A store.DeckStore satisfies it directly; the postgres-backed
// deployment uses NewDeckRepositoryAdapter so the multi-statement
// operations run inside a transaction.
type DeckRepository interface {
	// Create saves a new deck.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// GetByCardID retrieves the deck a card belongs to.
	GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Deck, error)

	// List retrieves all decks in creation order.
	List(ctx context.Context) ([]*domain.Deck, error)

	// UpdateSettings replaces a deck's daily quota settings.
	UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.DeckSettings) error

	// UpdateStats replaces a deck's aggregate statistics.
	UpdateStats(ctx context.Context, id uuid.UUID, stats domain.DeckStats) error

	// Delete removes a deck together with its cards and their history,
	// atomically.
	Delete(ctx context.Context, id uuid.UUID) error

	// Merge combines the given decks into a new deck, atomically.
	Merge(ctx context.Context, ids []uuid.UUID, newName string) (*domain.Deck, error)
}

// DeckService manages the lifecycle of decks: creation, daily quota
// settings, aggregate statistics, and the study queue preview.
type DeckService interface {
	// CreateDeck creates a deck with the given name. A nil settings
	// applies the configured defaults.
	// Returns store.ErrDeckNameExists if the name is taken and
	// store.ErrInvalidEntity if the name or settings are invalid.
	CreateDeck(ctx context.Context, name string, settings *domain.DeckSettings) (*domain.Deck, error)

	// GetDeck retrieves a deck by ID.
	// Returns store.ErrDeckNotFound if the deck does not exist.
	GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error)

	// ListDecks retrieves all decks in creation order.
	ListDecks(ctx context.Context) ([]*domain.Deck, error)

	// UpdateDeckSettings replaces a deck's daily quotas and returns the
	// updated deck. The new quotas take effect from the next session
	// start; running sessions keep the queue they were built with.
	UpdateDeckSettings(ctx context.Context, deckID uuid.UUID, settings domain.DeckSettings) (*domain.Deck, error)

	// DeleteDeck removes a deck together with its cards and their review
	// history.
	// Returns store.ErrDeckNotFound if the deck does not exist.
	DeleteDeck(ctx context.Context, deckID uuid.UUID) error

	// MergeDecks combines two or more decks into a new deck with the
	// given name. Card order is preserved: decks in the order given, each
	// deck's cards in membership order. Learning state and review history
	// are untouched. The source decks are deleted and the first deck's
	// settings win.
	// Returns store.ErrDeckNotFound if a source deck does not exist,
	// store.ErrDeckNameExists if the name is taken, and
	// store.ErrInvalidEntity for fewer than two decks or an invalid name.
	MergeDecks(ctx context.Context, ids []uuid.UUID, newName string) (*domain.Deck, error)

	// DeckStats returns a deck's aggregate statistics. With recompute set
	// the stats are re-derived from the cards and persisted before being
	// returned; recomputing an already current block is a no-op.
	DeckStats(ctx context.Context, deckID uuid.UUID, recompute bool) (domain.DeckStats, error)

	// StudyQueue previews the cards a session started now would study,
	// due reviews before new cards, without starting a session.
	StudyQueue(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
}

// deckService is the standard implementation of DeckService.
type deckService struct {
	decks    DeckRepository
	cards    CardRepository
	emitter  events.EventEmitter
	logger   *slog.Logger
	defaults domain.DeckSettings
	clock    func() time.Time
}

// Ensure deckService implements DeckService.
var _ DeckService = (*deckService)(nil)

// NewDeckService creates a new DeckService. The defaults are applied to
// decks created without explicit settings.
// Panics when a required dependency is nil; a nil logger falls back to
// slog.Default().
func NewDeckService(
	decks DeckRepository,
	cards CardRepository,
	emitter events.EventEmitter,
	defaults domain.DeckSettings,
	log *slog.Logger,
) DeckService {
	if decks == nil {
		panic("deck repository cannot be nil")
	}
	if cards == nil {
		panic("card repository cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &deckService{
		decks:    decks,
		cards:    cards,
		emitter:  emitter,
		logger:   log.With(slog.String("component", "deck_service")),
		defaults: defaults,
		clock:    time.Now,
	}
}

// CreateDeck implements DeckService.CreateDeck.
func (s *deckService) CreateDeck(
	ctx context.Context,
	name string,
	settings *domain.DeckSettings,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	applied := s.defaults
	if settings != nil {
		applied = *settings
	}

	deck, err := domain.NewDeck(name, applied, s.clock().UTC())
	if err != nil {
		log.Warn("invalid deck rejected",
			slog.String("error", err.Error()),
			slog.String("deck_name", name))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.decks.Create(ctx, deck); err != nil {
		if errors.Is(err, store.ErrDeckNameExists) {
			log.Warn("deck name already taken", slog.String("deck_name", name))
			return nil, err
		}
		log.Error("failed to save deck",
			slog.String("error", err.Error()),
			slog.String("deck_name", name))
		return nil, NewServiceError("create_deck", "failed to save deck", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("deck_name", deck.Name))
	return deck, nil
}

// GetDeck implements DeckService.GetDeck.
func (s *deckService) GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found", slog.String("deck_id", deckID.String()))
			return nil, err
		}
		log.Error("failed to load deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("get_deck", "failed to load deck", err)
	}

	return deck, nil
}

// ListDecks implements DeckService.ListDecks.
func (s *deckService) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	decks, err := s.decks.List(ctx)
	if err != nil {
		log.Error("failed to list decks", slog.String("error", err.Error()))
		return nil, NewServiceError("list_decks", "failed to list decks", err)
	}

	return decks, nil
}

// UpdateDeckSettings implements DeckService.UpdateDeckSettings.
func (s *deckService) UpdateDeckSettings(
	ctx context.Context,
	deckID uuid.UUID,
	settings domain.DeckSettings,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.decks.UpdateSettings(ctx, deckID, settings); err != nil {
		switch {
		case errors.Is(err, store.ErrDeckNotFound):
			log.Debug("deck not found for settings update", slog.String("deck_id", deckID.String()))
			return nil, err
		case errors.Is(err, store.ErrInvalidEntity):
			log.Warn("invalid deck settings rejected",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, err
		default:
			log.Error("failed to update deck settings",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, NewServiceError("update_deck_settings", "failed to update settings", err)
		}
	}

	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		log.Error("failed to reload deck after settings update",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("update_deck_settings", "failed to reload deck", err)
	}

	log.Info("deck settings updated",
		slog.String("deck_id", deckID.String()),
		slog.Int("new_cards_per_day", settings.NewCardsPerDay),
		slog.Int("review_cards_per_day", settings.ReviewCardsPerDay))
	return deck, nil
}

// DeleteDeck implements DeckService.DeleteDeck.
func (s *deckService) DeleteDeck(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.decks.Delete(ctx, deckID); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found for delete", slog.String("deck_id", deckID.String()))
			return err
		}
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return NewServiceError("delete_deck", "failed to delete deck", err)
	}

	log.Info("deck deleted", slog.String("deck_id", deckID.String()))
	return nil
}

// MergeDecks implements DeckService.MergeDecks.
func (s *deckService) MergeDecks(
	ctx context.Context,
	ids []uuid.UUID,
	newName string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) < 2 {
		log.Warn("merge rejected", slog.Int("deck_count", len(ids)))
		return nil, fmt.Errorf("%w: merging requires at least two decks", store.ErrInvalidEntity)
	}

	merged, err := s.decks.Merge(ctx, ids, newName)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDeckNotFound),
			errors.Is(err, store.ErrDeckNameExists),
			errors.Is(err, store.ErrInvalidEntity):
			log.Warn("merge rejected",
				slog.String("error", err.Error()),
				slog.String("deck_name", newName))
			return nil, err
		default:
			log.Error("failed to merge decks",
				slog.String("error", err.Error()),
				slog.String("deck_name", newName))
			return nil, NewServiceError("merge_decks", "failed to merge decks", err)
		}
	}

	// The merged deck starts with zeroed stats; derive the real aggregates
	// from the cards it just absorbed. On failure the emitted event lets
	// the background refresher catch up.
	if _, err := refreshDeckStats(ctx, s.decks, s.cards, merged.ID); err != nil {
		log.Error("failed to refresh stats after merge",
			slog.String("error", err.Error()),
			slog.String("deck_id", merged.ID.String()))
	}
	emitDeckEvent(ctx, s.emitter, log, events.EventDeckMerged, merged.ID)

	deck, err := s.decks.GetByID(ctx, merged.ID)
	if err != nil {
		log.Error("failed to reload merged deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", merged.ID.String()))
		return nil, NewServiceError("merge_decks", "failed to reload merged deck", err)
	}

	log.Info("decks merged",
		slog.String("deck_id", deck.ID.String()),
		slog.String("deck_name", deck.Name),
		slog.Int("source_count", len(ids)),
		slog.Int("card_count", len(deck.CardIDs)))
	return deck, nil
}

// DeckStats implements DeckService.DeckStats.
func (s *deckService) DeckStats(
	ctx context.Context,
	deckID uuid.UUID,
	recompute bool,
) (domain.DeckStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !recompute {
		deck, err := s.GetDeck(ctx, deckID)
		if err != nil {
			return domain.DeckStats{}, err
		}
		return deck.Stats, nil
	}

	stats, err := refreshDeckStats(ctx, s.decks, s.cards, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found for stats recompute", slog.String("deck_id", deckID.String()))
			return domain.DeckStats{}, err
		}
		log.Error("failed to recompute deck stats",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return domain.DeckStats{}, NewServiceError("deck_stats", "failed to recompute stats", err)
	}

	log.Debug("deck stats recomputed",
		slog.String("deck_id", deckID.String()),
		slog.Int("total", stats.Total))
	return stats, nil
}

// StudyQueue implements DeckService.StudyQueue.
func (s *deckService) StudyQueue(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to list deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("study_queue", "failed to list deck cards", err)
	}

	queue := scheduler.CardsToStudy(deck, cards, s.clock().UTC())
	log.Debug("study queue built",
		slog.String("deck_id", deckID.String()),
		slog.Int("queue_size", len(queue)))
	return queue, nil
}

// refreshDeckStats re-derives a deck's aggregates from its cards and
// persists them. Recomputing is idempotent, so running it twice for the
// same population is harmless.
func refreshDeckStats(
	ctx context.Context,
	decks DeckRepository,
	cards CardRepository,
	deckID uuid.UUID,
) (domain.DeckStats, error) {
	deckCards, err := cards.ListByDeck(ctx, deckID)
	if err != nil {
		return domain.DeckStats{}, err
	}

	stats := scheduler.RecomputeStats(deckCards)
	if err := decks.UpdateStats(ctx, deckID, stats); err != nil {
		return domain.DeckStats{}, err
	}

	return stats, nil
}

// emitDeckEvent emits a deck event, logging instead of failing when no
// handler can take it. The cards are already persisted at this point, so a
// lost event only delays a stats refresh.
func emitDeckEvent(
	ctx context.Context,
	emitter events.EventEmitter,
	log *slog.Logger,
	eventType events.EventType,
	deckID uuid.UUID,
) {
	if err := emitter.EmitEvent(ctx, events.NewDeckEvent(eventType, deckID)); err != nil {
		log.Error("failed to emit deck event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)),
			slog.String("deck_id", deckID.String()))
	}
}
