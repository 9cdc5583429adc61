package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// NewDeckRepositoryAdapter creates a DeckRepository backed by a
// store.DeckStore. Delete and Merge issue several statements, so the
// adapter runs them inside a transaction; a failure part way leaves no
// partial writes.
func NewDeckRepositoryAdapter(decks store.DeckStore, db *sql.DB) DeckRepository {
	if decks == nil {
		panic("deck store cannot be nil")
	}
	if db == nil {
		panic("db cannot be nil")
	}

	return &deckRepositoryAdapter{
		decks: decks,
		db:    db,
	}
}

// deckRepositoryAdapter adapts a store.DeckStore to the DeckRepository
// interface.
type deckRepositoryAdapter struct {
	decks store.DeckStore
	db    *sql.DB
}

// Create implements DeckRepository.Create.
func (a *deckRepositoryAdapter) Create(ctx context.Context, deck *domain.Deck) error {
	return a.decks.Create(ctx, deck)
}

// GetByID implements DeckRepository.GetByID.
func (a *deckRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	return a.decks.GetByID(ctx, id)
}

// GetByCardID implements DeckRepository.GetByCardID.
func (a *deckRepositoryAdapter) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Deck, error) {
	return a.decks.GetByCardID(ctx, cardID)
}

// List implements DeckRepository.List.
func (a *deckRepositoryAdapter) List(ctx context.Context) ([]*domain.Deck, error) {
	return a.decks.List(ctx)
}

// UpdateSettings implements DeckRepository.UpdateSettings.
func (a *deckRepositoryAdapter) UpdateSettings(
	ctx context.Context,
	id uuid.UUID,
	settings domain.DeckSettings,
) error {
	return a.decks.UpdateSettings(ctx, id, settings)
}

// UpdateStats implements DeckRepository.UpdateStats.
func (a *deckRepositoryAdapter) UpdateStats(
	ctx context.Context,
	id uuid.UUID,
	stats domain.DeckStats,
) error {
	return a.decks.UpdateStats(ctx, id, stats)
}

// Delete implements DeckRepository.Delete. The card rows and the deck row
// are removed in one transaction.
func (a *deckRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return store.RunInTransaction(ctx, a.db, func(ctx context.Context, tx *sql.Tx) error {
		return a.decks.WithTx(tx).Delete(ctx, id)
	})
}

// Merge implements DeckRepository.Merge. Creating the merged deck, moving
// the memberships, and deleting the sources commit as one transaction.
func (a *deckRepositoryAdapter) Merge(
	ctx context.Context,
	ids []uuid.UUID,
	newName string,
) (*domain.Deck, error) {
	var merged *domain.Deck
	err := store.RunInTransaction(ctx, a.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		merged, err = a.decks.WithTx(tx).Merge(ctx, ids, newName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
