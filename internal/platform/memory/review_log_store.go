package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// ReviewLogStore implements store.ReviewLogStore over the shared in-memory
// state. History entries live inline on their card.
type ReviewLogStore struct {
	core *storage
}

// Ensure ReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx. Memory operations are
// already atomic under the shared mutex, so the same store is returned.
func (s *ReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return s
}

// Append persists one history entry.
func (s *ReviewLogStore) Append(ctx context.Context, entry domain.ReviewLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	card, ok := s.core.cards[entry.CardID]
	if !ok {
		return store.ErrCardNotFound
	}
	if _, dup := s.core.logIDs[entry.ID]; dup {
		return store.ErrDuplicate
	}

	card.ReviewHistory = append(card.ReviewHistory, entry)
	s.core.cards[entry.CardID] = card
	s.core.logIDs[entry.ID] = struct{}{}

	return nil
}

// ListByCard retrieves a card's history in append order. A card without
// history, or an unknown card, yields an empty slice.
func (s *ReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewLog, error) {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()

	card, ok := s.core.cards[cardID]
	if !ok {
		return []domain.ReviewLog{}, nil
	}

	entries := make([]domain.ReviewLog, len(card.ReviewHistory))
	copy(entries, card.ReviewHistory)
	return entries, nil
}
