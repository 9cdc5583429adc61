package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/okeefe/recite-api/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck.
	// Returns ErrDeckNameExists if the name is already taken and
	// validation errors wrapped in ErrInvalidEntity if the deck is invalid.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID, with CardIDs populated in
	// membership (creation) order.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// GetByCardID retrieves the deck a card belongs to. Every card lives in
	// exactly one deck, so this resolves unambiguously.
	// Returns ErrCardNotFound if no deck contains the card.
	GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Deck, error)

	// List retrieves all decks ordered by creation time, each with its
	// CardIDs populated.
	List(ctx context.Context) ([]*domain.Deck, error)

	// UpdateSettings persists new daily quotas for a deck.
	// Returns ErrDeckNotFound if the deck does not exist.
	UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.DeckSettings) error

	// UpdateStats persists a freshly recomputed aggregate block. The stats
	// are a derived cache; callers obtain them from the scheduler, never by
	// editing fields directly.
	// Returns ErrDeckNotFound if the deck does not exist.
	UpdateStats(ctx context.Context, id uuid.UUID, stats domain.DeckStats) error

	// Delete removes a deck, its memberships, and (via ON DELETE CASCADE)
	// its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Merge combines the given decks into a new deck with the given name,
	// reassigning all card memberships in order: the decks in the order
	// given, each deck's cards in membership order. Learning state and
	// review history of the cards are untouched. The source decks are
	// deleted; their settings do not carry over (the first deck's settings
	// win). Runs atomically.
	// Returns ErrDeckNotFound if any source deck does not exist,
	// ErrDeckNameExists if the new name is taken, and validation errors
	// wrapped in ErrInvalidEntity if the new name is invalid.
	Merge(ctx context.Context, ids []uuid.UUID, newName string) (*domain.Deck, error)

	// WithTx returns a DeckStore running against the provided transaction.
	WithTx(tx *sql.Tx) DeckStore
}
