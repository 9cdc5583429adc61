package review

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// Repository is the persistence surface the review service depends on. It
// is deliberately narrow: the service reads a deck and its cards to build
// the queue, writes one reviewed card at a time, and writes the refreshed
// deck statistics at the end.
type Repository interface {
	// GetDeck retrieves a deck by ID.
	// Returns store.ErrDeckNotFound if the deck does not exist.
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListCards retrieves all cards of a deck in membership order.
	// Returns store.ErrDeckNotFound if the deck does not exist.
	ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// SaveReview persists a reviewed card's learning state together with
	// its new history entry. The two writes are atomic: either the card
	// advances and the entry exists, or neither happened.
	SaveReview(ctx context.Context, card *domain.Card, entry domain.ReviewLog) error

	// SaveDeckStats persists a freshly recomputed aggregate block.
	SaveDeckStats(ctx context.Context, deckID uuid.UUID, stats domain.DeckStats) error
}

// storeRepository implements Repository over the store interfaces, running
// SaveReview inside a database transaction.
type storeRepository struct {
	db    *sql.DB
	decks store.DeckStore
	cards store.CardStore
	logs  store.ReviewLogStore
}

// Ensure storeRepository implements Repository interface
var _ Repository = (*storeRepository)(nil)

// NewStoreRepository creates a Repository backed by the given stores. The
// database handle is used to open the transaction that makes SaveReview
// atomic.
func NewStoreRepository(
	db *sql.DB,
	decks store.DeckStore,
	cards store.CardStore,
	logs store.ReviewLogStore,
) Repository {
	if db == nil {
		panic("db cannot be nil")
	}
	if decks == nil {
		panic("decks cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logs == nil {
		panic("logs cannot be nil")
	}

	return &storeRepository{
		db:    db,
		decks: decks,
		cards: cards,
		logs:  logs,
	}
}

// GetDeck implements Repository.GetDeck.
func (r *storeRepository) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	return r.decks.GetByID(ctx, id)
}

// ListCards implements Repository.ListCards.
func (r *storeRepository) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	return r.cards.ListByDeck(ctx, deckID)
}

// SaveReview implements Repository.SaveReview. The learning-state update
// and the history append commit in one transaction.
func (r *storeRepository) SaveReview(ctx context.Context, card *domain.Card, entry domain.ReviewLog) error {
	return store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.cards.WithTx(tx).UpdateLearning(ctx, card); err != nil {
			return fmt.Errorf("failed to update learning state: %w", err)
		}
		if err := r.logs.WithTx(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review log: %w", err)
		}
		return nil
	})
}

// SaveDeckStats implements Repository.SaveDeckStats.
func (r *storeRepository) SaveDeckStats(ctx context.Context, deckID uuid.UUID, stats domain.DeckStats) error {
	return r.decks.UpdateStats(ctx, deckID, stats)
}
