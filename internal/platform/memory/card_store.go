package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// CardStore implements store.CardStore over the shared in-memory state.
type CardStore struct {
	core *storage
}

// Ensure CardStore implements store.CardStore interface
var _ store.CardStore = (*CardStore)(nil)

// WithTx implements store.CardStore.WithTx. Memory operations are already
// atomic under the shared mutex, so the same store is returned.
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return s
}

// Create saves a card and appends it to the given deck's membership list.
func (s *CardStore) Create(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	deck, ok := s.core.decks[deckID]
	if !ok {
		return store.ErrDeckNotFound
	}
	if _, exists := s.core.cards[card.ID]; exists {
		return store.ErrDuplicate
	}

	s.core.cards[card.ID] = cloneCard(*card)
	s.core.deckOf[card.ID] = deckID
	deck.CardIDs = append(deck.CardIDs, card.ID)
	s.core.decks[deckID] = deck
	for _, entry := range card.ReviewHistory {
		s.core.logIDs[entry.ID] = struct{}{}
	}

	return nil
}

// GetByID retrieves a card by its unique ID, including its review history.
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	card, ok := s.core.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}

	out := cloneCard(card)
	return &out, nil
}

// ListByDeck retrieves all cards of a deck in membership order.
func (s *CardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	deck, ok := s.core.decks[deckID]
	if !ok {
		return nil, store.ErrDeckNotFound
	}

	cards := []domain.Card{}
	for _, cardID := range deck.CardIDs {
		cards = append(cards, cloneCard(s.core.cards[cardID]))
	}

	return cards, nil
}

// UpdateLearning persists a card's learning state and updated timestamp.
func (s *CardStore) UpdateLearning(ctx context.Context, card *domain.Card) error {
	if err := card.Learning.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	rec, ok := s.core.cards[card.ID]
	if !ok {
		return store.ErrCardNotFound
	}

	rec.Learning = card.Learning
	if card.Learning.LastReviewedAt != nil {
		t := *card.Learning.LastReviewedAt
		rec.Learning.LastReviewedAt = &t
	}
	rec.UpdatedAt = card.UpdatedAt
	s.core.cards[card.ID] = rec

	return nil
}

// UpdateContent modifies an existing card's opaque content field.
func (s *CardStore) UpdateContent(ctx context.Context, id uuid.UUID, content []byte) error {
	if !json.Valid(content) {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrCardContentInvalid)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	rec, ok := s.core.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}

	rec.Content = make(json.RawMessage, len(content))
	copy(rec.Content, content)
	rec.UpdatedAt = time.Now().UTC()
	s.core.cards[id] = rec

	return nil
}

// Delete removes a card, its deck membership, and its review history.
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	card, ok := s.core.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}

	for _, entry := range card.ReviewHistory {
		delete(s.core.logIDs, entry.ID)
	}
	if deckID, ok := s.core.deckOf[id]; ok {
		deck := s.core.decks[deckID]
		deck.CardIDs = removeUUID(deck.CardIDs, id)
		s.core.decks[deckID] = deck
	}
	delete(s.core.cards, id)
	delete(s.core.deckOf, id)

	return nil
}
