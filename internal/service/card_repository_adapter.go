package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// NewCardRepositoryAdapter creates a CardRepository backed by a
// store.CardStore. Create writes the card row and its deck membership, so
// the adapter runs it inside a transaction.
func NewCardRepositoryAdapter(cards store.CardStore, db *sql.DB) CardRepository {
	if cards == nil {
		panic("card store cannot be nil")
	}
	if db == nil {
		panic("db cannot be nil")
	}

	return &cardRepositoryAdapter{
		cards: cards,
		db:    db,
	}
}

// cardRepositoryAdapter adapts a store.CardStore to the CardRepository
// interface.
type cardRepositoryAdapter struct {
	cards store.CardStore
	db    *sql.DB
}

// Create implements CardRepository.Create. The card row and the membership
// row commit as one transaction.
func (a *cardRepositoryAdapter) Create(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	return store.RunInTransaction(ctx, a.db, func(ctx context.Context, tx *sql.Tx) error {
		return a.cards.WithTx(tx).Create(ctx, deckID, card)
	})
}

// GetByID implements CardRepository.GetByID.
func (a *cardRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return a.cards.GetByID(ctx, id)
}

// ListByDeck implements CardRepository.ListByDeck.
func (a *cardRepositoryAdapter) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	return a.cards.ListByDeck(ctx, deckID)
}

// UpdateLearning implements CardRepository.UpdateLearning.
func (a *cardRepositoryAdapter) UpdateLearning(ctx context.Context, card *domain.Card) error {
	return a.cards.UpdateLearning(ctx, card)
}

// UpdateContent implements CardRepository.UpdateContent.
func (a *cardRepositoryAdapter) UpdateContent(ctx context.Context, id uuid.UUID, content []byte) error {
	return a.cards.UpdateContent(ctx, id, content)
}

// Delete implements CardRepository.Delete.
func (a *cardRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.cards.Delete(ctx, id)
}
