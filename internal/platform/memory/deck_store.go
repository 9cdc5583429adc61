package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// DeckStore implements store.DeckStore over the shared in-memory state.
type DeckStore struct {
	core *storage
}

// Ensure DeckStore implements store.DeckStore interface
var _ store.DeckStore = (*DeckStore)(nil)

// WithTx implements store.DeckStore.WithTx. Memory operations are already
// atomic under the shared mutex, so the same store is returned.
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return s
}

// Create saves a new deck row. Membership is managed through CardStore.Create
// and Merge, so a freshly created deck starts empty.
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	if _, exists := s.core.decks[deck.ID]; exists {
		return store.ErrDuplicate
	}
	if _, exists := s.core.names[deck.Name]; exists {
		return store.ErrDeckNameExists
	}

	stored := cloneDeck(*deck)
	stored.CardIDs = []uuid.UUID{}
	s.core.decks[deck.ID] = stored
	s.core.names[deck.Name] = deck.ID
	s.core.order = append(s.core.order, deck.ID)

	return nil
}

// GetByID retrieves a deck by its unique ID, with card IDs in membership order.
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	deck, ok := s.core.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}

	out := cloneDeck(deck)
	return &out, nil
}

// GetByCardID resolves the deck a card belongs to.
func (s *DeckStore) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Deck, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	deckID, ok := s.core.deckOf[cardID]
	if !ok {
		return nil, store.ErrCardNotFound
	}

	out := cloneDeck(s.core.decks[deckID])
	return &out, nil
}

// List retrieves all decks in creation order.
func (s *DeckStore) List(ctx context.Context) ([]*domain.Deck, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	decks := []*domain.Deck{}
	for _, id := range s.core.order {
		deck := cloneDeck(s.core.decks[id])
		decks = append(decks, &deck)
	}

	return decks, nil
}

// UpdateSettings replaces a deck's daily quota settings.
func (s *DeckStore) UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.DeckSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	deck, ok := s.core.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}

	deck.Settings = settings
	deck.UpdatedAt = time.Now().UTC()
	s.core.decks[id] = deck

	return nil
}

// UpdateStats replaces a deck's aggregate statistics.
func (s *DeckStore) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.DeckStats) error {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	deck, ok := s.core.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}

	if stats.LastStudiedAt != nil {
		t := *stats.LastStudiedAt
		stats.LastStudiedAt = &t
	}
	deck.Stats = stats
	deck.UpdatedAt = time.Now().UTC()
	s.core.decks[id] = deck

	return nil
}

// Delete removes a deck together with its cards and their review logs.
func (s *DeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	deck, ok := s.core.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}

	for _, cardID := range deck.CardIDs {
		if card, ok := s.core.cards[cardID]; ok {
			for _, entry := range card.ReviewHistory {
				delete(s.core.logIDs, entry.ID)
			}
		}
		delete(s.core.cards, cardID)
		delete(s.core.deckOf, cardID)
	}

	delete(s.core.decks, id)
	delete(s.core.names, deck.Name)
	s.core.order = removeUUID(s.core.order, id)

	return nil
}

// Merge combines the given decks into a new deck with the given name,
// keeping card order and deleting the source decks. The new deck takes the
// first deck's settings and starts with zeroed stats.
func (s *DeckStore) Merge(ctx context.Context, ids []uuid.UUID, newName string) (*domain.Deck, error) {
	if len(ids) == 0 {
		return nil, store.ErrDeckNotFound
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	sources := make([]domain.Deck, 0, len(ids))
	for _, id := range ids {
		deck, ok := s.core.decks[id]
		if !ok {
			return nil, store.ErrDeckNotFound
		}
		sources = append(sources, deck)
	}

	merged, err := domain.NewDeck(newName, sources[0].Settings, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if _, exists := s.core.names[merged.Name]; exists {
		return nil, store.ErrDeckNameExists
	}

	for _, source := range sources {
		for _, cardID := range source.CardIDs {
			merged.CardIDs = append(merged.CardIDs, cardID)
			s.core.deckOf[cardID] = merged.ID
		}

		delete(s.core.decks, source.ID)
		delete(s.core.names, source.Name)
		s.core.order = removeUUID(s.core.order, source.ID)
	}

	s.core.decks[merged.ID] = cloneDeck(*merged)
	s.core.names[merged.Name] = merged.ID
	s.core.order = append(s.core.order, merged.ID)

	out := cloneDeck(*merged)
	return &out, nil
}
