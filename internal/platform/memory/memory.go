// Package memory provides in-memory implementations of the store interfaces.
// All stores created from one Store share a single mutex-guarded state, so
// the package behaves like one small database. It backs the service tests
// and is not meant for production use; nothing persists across restarts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// storage is the shared state behind the memory stores.
type storage struct {
	mu     sync.RWMutex
	decks  map[uuid.UUID]domain.Deck
	order  []uuid.UUID               // deck creation order
	names  map[string]uuid.UUID      // deck name -> deck ID
	cards  map[uuid.UUID]domain.Card // review history kept inline, in append order
	deckOf map[uuid.UUID]uuid.UUID   // card ID -> deck ID
	logIDs map[string]struct{}       // review log IDs seen so far
}

// Store bundles in-memory implementations of the persistence interfaces
// over one shared state.
type Store struct {
	core *storage

	Decks      *DeckStore
	Cards      *CardStore
	ReviewLogs *ReviewLogStore
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	core := &storage{
		decks:  make(map[uuid.UUID]domain.Deck),
		names:  make(map[string]uuid.UUID),
		cards:  make(map[uuid.UUID]domain.Card),
		deckOf: make(map[uuid.UUID]uuid.UUID),
		logIDs: make(map[string]struct{}),
	}

	return &Store{
		core:       core,
		Decks:      &DeckStore{core: core},
		Cards:      &CardStore{core: core},
		ReviewLogs: &ReviewLogStore{core: core},
	}
}

// cloneDeck deep-copies a deck so callers cannot mutate stored state.
func cloneDeck(d domain.Deck) domain.Deck {
	out := d
	out.CardIDs = make([]uuid.UUID, len(d.CardIDs))
	copy(out.CardIDs, d.CardIDs)
	if d.Stats.LastStudiedAt != nil {
		t := *d.Stats.LastStudiedAt
		out.Stats.LastStudiedAt = &t
	}
	return out
}

// cloneCard deep-copies a card so callers cannot mutate stored state.
func cloneCard(c domain.Card) domain.Card {
	out := c
	out.Content = make(json.RawMessage, len(c.Content))
	copy(out.Content, c.Content)
	if c.Learning.LastReviewedAt != nil {
		t := *c.Learning.LastReviewedAt
		out.Learning.LastReviewedAt = &t
	}
	out.ReviewHistory = make([]domain.ReviewLog, len(c.ReviewHistory))
	copy(out.ReviewHistory, c.ReviewHistory)
	return out
}

// removeUUID returns ids without the first occurrence of id.
func removeUUID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// GetDeck retrieves a deck by ID. It lets a Store stand in for repositories
// that bundle deck lookup with the other review operations.
func (s *Store) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	return s.Decks.GetByID(ctx, id)
}

// ListCards retrieves all cards of a deck in membership order.
func (s *Store) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	return s.Cards.ListByDeck(ctx, deckID)
}

// SaveReview atomically persists a reviewed card's learning state together
// with its new history entry, mirroring the transactional persistence of the
// database-backed repository.
func (s *Store) SaveReview(ctx context.Context, card *domain.Card, entry domain.ReviewLog) error {
	core := s.core
	core.mu.Lock()
	defer core.mu.Unlock()

	rec, ok := core.cards[card.ID]
	if !ok {
		return store.ErrCardNotFound
	}

	if err := card.Learning.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if _, dup := core.logIDs[entry.ID]; dup {
		return store.ErrDuplicate
	}

	rec.Learning = card.Learning
	if card.Learning.LastReviewedAt != nil {
		t := *card.Learning.LastReviewedAt
		rec.Learning.LastReviewedAt = &t
	}
	rec.UpdatedAt = card.UpdatedAt
	rec.ReviewHistory = append(rec.ReviewHistory, entry)
	core.cards[card.ID] = rec
	core.logIDs[entry.ID] = struct{}{}

	return nil
}

// SaveDeckStats replaces a deck's aggregate statistics.
func (s *Store) SaveDeckStats(ctx context.Context, deckID uuid.UUID, stats domain.DeckStats) error {
	return s.Decks.UpdateStats(ctx, deckID, stats)
}
