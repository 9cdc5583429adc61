package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/okeefe/recite-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a card and appends it to the given deck's membership
	// list. Returns ErrDeckNotFound if the deck does not exist and
	// validation errors wrapped in ErrInvalidEntity if the card is invalid.
	Create(ctx context.Context, deckID uuid.UUID, card *domain.Card) error

	// GetByID retrieves a card by its unique ID, including its review
	// history in append order.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck retrieves all cards of a deck in membership (creation)
	// order, each with its review history in append order.
	// Returns ErrDeckNotFound if the deck does not exist; a deck without
	// cards yields an empty slice.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// UpdateLearning persists a card's learning state and updated
	// timestamp. It does not touch content or review history; history
	// entries are appended through a ReviewLogStore, typically in the same
	// transaction.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateLearning(ctx context.Context, card *domain.Card) error

	// UpdateContent modifies an existing card's opaque content field.
	// Returns ErrCardNotFound if the card does not exist and
	// ErrInvalidEntity if the content is not valid JSON.
	UpdateContent(ctx context.Context, id uuid.UUID, content []byte) error

	// Delete removes a card, its deck membership, and (via ON DELETE
	// CASCADE) its review history.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore running against the provided transaction,
	// so several store operations can commit atomically. The transaction
	// is created and managed by the caller, typically through
	// store.RunInTransaction.
	WithTx(tx *sql.Tx) CardStore
}
