package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/store"
)

// deckColumns is the column list shared by the deck queries, in the order
// expected by scanDeck.
const deckColumns = `id, name, new_cards_per_day, review_cards_per_day,
	stats_total, stats_new, stats_learning, stats_review, stats_mastered,
	stats_mastery_rate, stats_last_studied_at, stats_total_study_time_ms,
	stats_total_reviews, created_at, updated_at`

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed
// by the caller. If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx implements store.DeckStore.WithTx
// It returns a DeckStore whose operations run against the provided transaction.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDeck reads one deck row in deckColumns order. The CardIDs slice is
// initialized empty; membership rows are loaded separately.
func scanDeck(row rowScanner) (*domain.Deck, error) {
	var deck domain.Deck
	var lastStudied sql.NullTime
	var studyTimeMS int64

	err := row.Scan(
		&deck.ID,
		&deck.Name,
		&deck.Settings.NewCardsPerDay,
		&deck.Settings.ReviewCardsPerDay,
		&deck.Stats.Total,
		&deck.Stats.New,
		&deck.Stats.Learning,
		&deck.Stats.Review,
		&deck.Stats.Mastered,
		&deck.Stats.MasteryRate,
		&lastStudied,
		&studyTimeMS,
		&deck.Stats.TotalReviews,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastStudied.Valid {
		t := lastStudied.Time
		deck.Stats.LastStudiedAt = &t
	}
	deck.Stats.TotalStudyTime = time.Duration(studyTimeMS) * time.Millisecond
	deck.CardIDs = []uuid.UUID{}

	return &deck, nil
}

// nullableTime converts an optional timestamp to its SQL representation.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create implements store.DeckStore.Create
// It saves a new deck row. Card membership rows are managed through
// CardStore.Create and Merge, so a freshly created deck starts empty.
// Returns store.ErrDeckNameExists if the deck name is already taken.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO decks (id, name, new_cards_per_day, review_cards_per_day,
			stats_total, stats_new, stats_learning, stats_review, stats_mastered,
			stats_mastery_rate, stats_last_studied_at, stats_total_study_time_ms,
			stats_total_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.Name,
		deck.Settings.NewCardsPerDay,
		deck.Settings.ReviewCardsPerDay,
		deck.Stats.Total,
		deck.Stats.New,
		deck.Stats.Learning,
		deck.Stats.Review,
		deck.Stats.Mastered,
		deck.Stats.MasteryRate,
		nullableTime(deck.Stats.LastStudiedAt),
		deck.Stats.TotalStudyTime.Milliseconds(),
		deck.Stats.TotalReviews,
		deck.CreatedAt,
		deck.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate deck name during create",
				slog.String("deck_id", deck.ID.String()),
				slog.String("deck_name", deck.Name))
			return MapUniqueViolation(err, store.ErrDeckNameExists)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("deck_name", deck.Name))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// It retrieves a deck by its unique ID, with card IDs in membership order.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving deck by ID", slog.String("deck_id", id.String()))

	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = $1`

	deck, err := scanDeck(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, MapError(err)
	}

	cardIDs, err := s.loadCardIDs(ctx, id)
	if err != nil {
		log.Error("failed to load deck card memberships",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, MapError(err)
	}
	deck.CardIDs = cardIDs

	return deck, nil
}

// GetByCardID implements store.DeckStore.GetByCardID
// It resolves the deck a card belongs to. Every card has exactly one
// membership row, so the lookup is unambiguous.
// Returns store.ErrCardNotFound if no deck contains the card.
func (s *PostgresDeckStore) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deckID uuid.UUID
	query := `SELECT deck_id FROM deck_cards WHERE card_id = $1`
	err := s.db.QueryRowContext(ctx, query, cardID).Scan(&deckID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card has no deck membership", slog.String("card_id", cardID.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to resolve deck for card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return s.GetByID(ctx, deckID)
}

// loadCardIDs returns the IDs of the cards belonging to a deck, ordered by
// their membership position.
func (s *PostgresDeckStore) loadCardIDs(ctx context.Context, deckID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT card_id
		FROM deck_cards
		WHERE deck_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cardIDs := []uuid.UUID{}
	for rows.Next() {
		var cardID uuid.UUID
		if err := rows.Scan(&cardID); err != nil {
			return nil, err
		}
		cardIDs = append(cardIDs, cardID)
	}

	return cardIDs, rows.Err()
}

// List implements store.DeckStore.List
// It retrieves all decks ordered by creation time, each with its card IDs in
// membership order. Returns an empty slice when no decks exist.
func (s *PostgresDeckStore) List(ctx context.Context) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query decks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	decks := []*domain.Deck{}
	byID := make(map[uuid.UUID]*domain.Deck)
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		decks = append(decks, deck)
		byID[deck.ID] = deck
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning deck rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if len(decks) == 0 {
		return decks, nil
	}

	memberQuery := `
		SELECT deck_id, card_id
		FROM deck_cards
		ORDER BY deck_id, position ASC
	`
	memberRows, err := s.db.QueryContext(ctx, memberQuery)
	if err != nil {
		log.Error("failed to query deck card memberships", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := memberRows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for memberRows.Next() {
		var deckID, cardID uuid.UUID
		if err := memberRows.Scan(&deckID, &cardID); err != nil {
			log.Error("failed to scan deck card row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		if deck, ok := byID[deckID]; ok {
			deck.CardIDs = append(deck.CardIDs, cardID)
		}
	}
	if err := memberRows.Err(); err != nil {
		log.Error("error after scanning deck card rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed decks", slog.Int("count", len(decks)))
	return decks, nil
}

// UpdateSettings implements store.DeckStore.UpdateSettings
// It replaces a deck's daily quota settings.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) UpdateSettings(
	ctx context.Context,
	id uuid.UUID,
	settings domain.DeckSettings,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := settings.Validate(); err != nil {
		log.Warn("deck settings validation failed during update",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE decks
		SET new_cards_per_day = $1, review_cards_per_day = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		settings.NewCardsPerDay,
		settings.ReviewCardsPerDay,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update deck settings",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrDeckNotFound); err != nil {
		log.Debug("deck not found for settings update", slog.String("deck_id", id.String()))
		return err
	}

	log.Info("deck settings updated successfully",
		slog.String("deck_id", id.String()),
		slog.Int("new_cards_per_day", settings.NewCardsPerDay),
		slog.Int("review_cards_per_day", settings.ReviewCardsPerDay))
	return nil
}

// UpdateStats implements store.DeckStore.UpdateStats
// It replaces a deck's aggregate statistics.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.DeckStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE decks
		SET stats_total = $1, stats_new = $2, stats_learning = $3,
			stats_review = $4, stats_mastered = $5, stats_mastery_rate = $6,
			stats_last_studied_at = $7, stats_total_study_time_ms = $8,
			stats_total_reviews = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		stats.Total,
		stats.New,
		stats.Learning,
		stats.Review,
		stats.Mastered,
		stats.MasteryRate,
		nullableTime(stats.LastStudiedAt),
		stats.TotalStudyTime.Milliseconds(),
		stats.TotalReviews,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update deck stats",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrDeckNotFound); err != nil {
		log.Debug("deck not found for stats update", slog.String("deck_id", id.String()))
		return err
	}

	log.Debug("deck stats updated successfully",
		slog.String("deck_id", id.String()),
		slog.Int("total", stats.Total))
	return nil
}

// Delete implements store.DeckStore.Delete
// It removes a deck together with its cards and their review logs. Callers
// needing atomicity should run this within a transaction via WithTx.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Deleting the cards cascades to membership rows and review logs.
	cardsQuery := `
		DELETE FROM cards
		WHERE id IN (SELECT card_id FROM deck_cards WHERE deck_id = $1)
	`
	if _, err := s.db.ExecContext(ctx, cardsQuery, id); err != nil {
		log.Error("failed to delete deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrDeckNotFound); err != nil {
		log.Debug("deck not found for delete", slog.String("deck_id", id.String()))
		return err
	}

	log.Info("deck deleted successfully", slog.String("deck_id", id.String()))
	return nil
}

// Merge implements store.DeckStore.Merge
// It combines the given decks into a new deck with the given name, keeping
// card order (decks in the order given, each deck's cards in membership
// order) and deleting the source decks. The new deck takes the first deck's
// settings and starts with zeroed stats; callers refresh them via
// UpdateStats. Callers needing atomicity should run this within a
// transaction via WithTx.
func (s *PostgresDeckStore) Merge(
	ctx context.Context,
	ids []uuid.UUID,
	newName string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return nil, store.ErrDeckNotFound
	}

	// Load the source decks first so a missing deck fails the merge before
	// anything is written.
	sources := make([]*domain.Deck, 0, len(ids))
	for _, id := range ids {
		deck, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, deck)
	}

	now := time.Now().UTC()
	merged, err := domain.NewDeck(newName, sources[0].Settings, now)
	if err != nil {
		log.Warn("merged deck validation failed",
			slog.String("error", err.Error()),
			slog.String("deck_name", newName))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.Create(ctx, merged); err != nil {
		return nil, err
	}

	// Reassign memberships card by card, renumbering positions so the
	// combined order is contiguous.
	moveQuery := `
		UPDATE deck_cards
		SET deck_id = $1, position = $2
		WHERE card_id = $3
	`
	position := 0
	for _, source := range sources {
		for _, cardID := range source.CardIDs {
			if _, err := s.db.ExecContext(ctx, moveQuery, merged.ID, position, cardID); err != nil {
				log.Error("failed to move card membership during merge",
					slog.String("error", err.Error()),
					slog.String("card_id", cardID.String()),
					slog.String("deck_id", merged.ID.String()))
				return nil, MapError(err)
			}
			merged.CardIDs = append(merged.CardIDs, cardID)
			position++
		}
	}

	for _, source := range sources {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, source.ID); err != nil {
			log.Error("failed to delete source deck during merge",
				slog.String("error", err.Error()),
				slog.String("deck_id", source.ID.String()))
			return nil, MapError(err)
		}
	}

	log.Info("decks merged successfully",
		slog.String("deck_id", merged.ID.String()),
		slog.String("deck_name", merged.Name),
		slog.Int("source_count", len(sources)),
		slog.Int("card_count", len(merged.CardIDs)))
	return merged, nil
}
