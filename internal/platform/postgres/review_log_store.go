package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the
// ReviewLogStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
// It returns a ReviewLogStore whose operations run against the provided transaction.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{
		db:     tx,
		logger: s.logger,
	}
}

// Append implements store.ReviewLogStore.Append
// It persists one history entry. Entries are insert-only; nothing updates or
// deletes them individually.
// Returns store.ErrCardNotFound if the referenced card does not exist and
// validation errors wrapped in store.ErrInvalidEntity for a bad entry.
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("review log validation failed during append",
			slog.String("error", err.Error()),
			slog.String("review_log_id", entry.ID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_logs (id, card_id, rated_at, rating, time_taken_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.CardID,
		entry.RatedAt,
		int(entry.Rating),
		entry.TimeTaken.Milliseconds(),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("card not found during review log append",
				slog.String("review_log_id", entry.ID),
				slog.String("card_id", entry.CardID.String()))
			return fmt.Errorf("%w: %v", store.ErrCardNotFound, err)
		}

		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("review_log_id", entry.ID),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}

	log.Debug("review log appended successfully",
		slog.String("review_log_id", entry.ID),
		slog.String("card_id", entry.CardID.String()),
		slog.String("rating", entry.Rating.String()))
	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard
// It retrieves a card's history in append order. A card without history
// yields an empty slice.
func (s *PostgresReviewLogStore) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]domain.ReviewLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Review log IDs are ULIDs, so ordering by id is chronological.
	query := `
		SELECT id, card_id, rated_at, rating, time_taken_ms
		FROM review_logs
		WHERE card_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, cardID)
	if err != nil {
		log.Error("failed to query review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []domain.ReviewLog{}
	for rows.Next() {
		entry, err := scanReviewLog(rows)
		if err != nil {
			log.Error("failed to scan review log row",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
			return nil, MapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning review log rows",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return entries, nil
}
