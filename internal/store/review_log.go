package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/okeefe/recite-api/internal/domain"
)

// ReviewLogStore defines the interface for the append-only review history.
// Entries are never updated or deleted individually; removal only happens
// through card deletion cascades.
type ReviewLogStore interface {
	// Append persists one history entry.
	// Returns ErrCardNotFound if the referenced card does not exist and
	// validation errors wrapped in ErrInvalidEntity for a bad entry.
	Append(ctx context.Context, entry domain.ReviewLog) error

	// ListByCard retrieves a card's history in append order.
	// A card without history yields an empty slice.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewLog, error)

	// WithTx returns a ReviewLogStore running against the provided
	// transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
