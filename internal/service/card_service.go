package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/domain/srs"
	"github.com/okeefe/recite-api/internal/events"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/store"
)

// CardRepository defines the persistence operations the card service
// depends on. A store.CardStore satisfies it directly; the postgres-backed
// deployment uses NewCardRepositoryAdapter so Create writes the card row
// and its deck membership atomically.
type CardRepository interface {
	// Create saves a card and appends it to the given deck's membership
	// list, atomically.
	Create(ctx context.Context, deckID uuid.UUID, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck retrieves all cards of a deck in membership order.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// UpdateLearning persists a card's learning state and updated
	// timestamp.
	UpdateLearning(ctx context.Context, card *domain.Card) error

	// UpdateContent modifies an existing card's opaque content field.
	UpdateContent(ctx context.Context, id uuid.UUID, content []byte) error

	// Delete removes a card, its deck membership, and its review history.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CardService manages the cards inside decks: authoring-facing content,
// membership, and the scheduling escape hatch for postponing a review.
// Ratings go through the review service, never through here.
type CardService interface {
	// AddCard creates a card with the given opaque JSON content inside a
	// deck. The card starts in the "new" status and is due immediately.
	// Returns store.ErrDeckNotFound if the deck does not exist and
	// store.ErrInvalidEntity if the content is empty or not valid JSON.
	AddCard(ctx context.Context, deckID uuid.UUID, content json.RawMessage) (*domain.Card, error)

	// GetCard retrieves a card by ID, including its review history.
	// Returns store.ErrCardNotFound if the card does not exist.
	GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)

	// ListCards retrieves all cards of a deck in membership order.
	// Returns store.ErrDeckNotFound if the deck does not exist.
	ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// UpdateCardContent replaces a card's opaque content and returns the
	// updated card. Learning state and history are untouched.
	// Returns store.ErrCardNotFound if the card does not exist and
	// store.ErrInvalidEntity if the content is not valid JSON.
	UpdateCardContent(ctx context.Context, cardID uuid.UUID, content json.RawMessage) (*domain.Card, error)

	// DeleteCard removes a card together with its review history.
	// Returns store.ErrCardNotFound if the card does not exist.
	DeleteCard(ctx context.Context, cardID uuid.UUID) error

	// PostponeCard pushes a card's next review time forward by the given
	// number of days without recording a rating: stability, difficulty,
	// and history are untouched. Days must be at least 1;
	// srs.ErrInvalidDays is returned otherwise.
	PostponeCard(ctx context.Context, cardID uuid.UUID, days int) (*domain.Card, error)
}

// cardService is the standard implementation of CardService.
type cardService struct {
	cards     CardRepository
	decks     DeckRepository
	algorithm srs.Algorithm
	emitter   events.EventEmitter
	logger    *slog.Logger
	clock     func() time.Time
}

// Ensure cardService implements CardService.
var _ CardService = (*cardService)(nil)

// NewCardService creates a new CardService.
// Panics when a required dependency is nil; a nil logger falls back to
// slog.Default().
func NewCardService(
	cards CardRepository,
	decks DeckRepository,
	algorithm srs.Algorithm,
	emitter events.EventEmitter,
	log *slog.Logger,
) CardService {
	if cards == nil {
		panic("card repository cannot be nil")
	}
	if decks == nil {
		panic("deck repository cannot be nil")
	}
	if algorithm == nil {
		panic("algorithm cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &cardService{
		cards:     cards,
		decks:     decks,
		algorithm: algorithm,
		emitter:   emitter,
		logger:    log.With(slog.String("component", "card_service")),
		clock:     time.Now,
	}
}

// AddCard implements CardService.AddCard.
func (s *cardService) AddCard(
	ctx context.Context,
	deckID uuid.UUID,
	content json.RawMessage,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(content, s.clock().UTC())
	if err != nil {
		log.Warn("invalid card rejected",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.cards.Create(ctx, deckID, card); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Warn("deck not found for new card", slog.String("deck_id", deckID.String()))
			return nil, err
		}
		log.Error("failed to save card",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("add_card", "failed to save card", err)
	}

	if _, err := refreshDeckStats(ctx, s.decks, s.cards, deckID); err != nil {
		log.Error("failed to refresh stats after card create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
	}
	emitDeckEvent(ctx, s.emitter, log, events.EventCardCreated, deckID)

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", deckID.String()))
	return card, nil
}

// GetCard implements CardService.GetCard.
func (s *cardService) GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("card not found", slog.String("card_id", cardID.String()))
			return nil, err
		}
		log.Error("failed to load card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("get_card", "failed to load card", err)
	}

	return card, nil
}

// ListCards implements CardService.ListCards.
func (s *cardService) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found for card list", slog.String("deck_id", deckID.String()))
			return nil, err
		}
		log.Error("failed to list cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("list_cards", "failed to list cards", err)
	}

	return cards, nil
}

// UpdateCardContent implements CardService.UpdateCardContent.
func (s *cardService) UpdateCardContent(
	ctx context.Context,
	cardID uuid.UUID,
	content json.RawMessage,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.cards.UpdateContent(ctx, cardID, content); err != nil {
		switch {
		case errors.Is(err, store.ErrCardNotFound):
			log.Debug("card not found for content update", slog.String("card_id", cardID.String()))
			return nil, err
		case errors.Is(err, store.ErrInvalidEntity):
			log.Warn("invalid card content rejected",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
			return nil, err
		default:
			log.Error("failed to update card content",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
			return nil, NewServiceError("update_card_content", "failed to update content", err)
		}
	}

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		log.Error("failed to reload card after content update",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("update_card_content", "failed to reload card", err)
	}

	log.Info("card content updated", slog.String("card_id", cardID.String()))
	return card, nil
}

// DeleteCard implements CardService.DeleteCard.
func (s *cardService) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Resolve the deck first; once the card is gone its membership row no
	// longer exists to tell us which stats to refresh.
	deck, err := s.decks.GetByCardID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("card not found for delete", slog.String("card_id", cardID.String()))
			return err
		}
		log.Error("failed to resolve deck for card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return NewServiceError("delete_card", "failed to resolve deck", err)
	}

	if err := s.cards.Delete(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("card not found for delete", slog.String("card_id", cardID.String()))
			return err
		}
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return NewServiceError("delete_card", "failed to delete card", err)
	}

	if _, err := refreshDeckStats(ctx, s.decks, s.cards, deck.ID); err != nil {
		log.Error("failed to refresh stats after card delete",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
	}
	emitDeckEvent(ctx, s.emitter, log, events.EventCardDeleted, deck.ID)

	log.Info("card deleted",
		slog.String("card_id", cardID.String()),
		slog.String("deck_id", deck.ID.String()))
	return nil
}

// PostponeCard implements CardService.PostponeCard.
func (s *cardService) PostponeCard(
	ctx context.Context,
	cardID uuid.UUID,
	days int,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	state, err := s.algorithm.Postpone(card.Learning, days, now)
	if err != nil {
		log.Warn("postpone rejected",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.Int("days", days))
		return nil, err
	}

	if err := card.ApplyReschedule(state, now); err != nil {
		log.Error("failed to apply reschedule",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("postpone_card", "failed to apply reschedule", err)
	}

	if err := s.cards.UpdateLearning(ctx, card); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("card not found for postpone", slog.String("card_id", cardID.String()))
			return nil, err
		}
		log.Error("failed to persist reschedule",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("postpone_card", "failed to persist reschedule", err)
	}

	log.Info("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", days),
		slog.Time("next_review_at", card.Learning.NextReviewAt))
	return card, nil
}
