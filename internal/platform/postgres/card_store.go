package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/store"
)

// cardColumns is the column list shared by the card queries, in the order
// expected by scanCard.
const cardColumns = `id, content, stability, difficulty, interval_days,
	repetitions, next_review_at, last_reviewed_at, status, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed
// by the caller. If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
// It returns a CardStore whose operations run against the provided transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanCard reads one card row in cardColumns order. The ReviewHistory slice
// is initialized empty; history rows are loaded separately.
func scanCard(row rowScanner) (domain.Card, error) {
	var card domain.Card
	var content []byte
	var lastReviewed sql.NullTime
	var status string

	err := row.Scan(
		&card.ID,
		&content,
		&card.Learning.Stability,
		&card.Learning.Difficulty,
		&card.Learning.Interval,
		&card.Learning.Repetitions,
		&card.Learning.NextReviewAt,
		&lastReviewed,
		&status,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return domain.Card{}, err
	}

	card.Content = json.RawMessage(content)
	if lastReviewed.Valid {
		t := lastReviewed.Time
		card.Learning.LastReviewedAt = &t
	}
	card.Learning.Status = domain.CardStatus(status)
	card.ReviewHistory = []domain.ReviewLog{}

	return card, nil
}

// scanReviewLog reads one review log row in the order id, card_id, rated_at,
// rating, time_taken_ms.
func scanReviewLog(row rowScanner) (domain.ReviewLog, error) {
	var entry domain.ReviewLog
	var rating int
	var timeTakenMS int64

	err := row.Scan(&entry.ID, &entry.CardID, &entry.RatedAt, &rating, &timeTakenMS)
	if err != nil {
		return domain.ReviewLog{}, err
	}

	entry.Rating = domain.Rating(rating)
	entry.TimeTaken = time.Duration(timeTakenMS) * time.Millisecond

	return entry, nil
}

// Create implements store.CardStore.Create
// It saves a new card and appends it to the given deck's membership list.
// Callers needing atomicity should run this within a transaction via WithTx.
// Returns store.ErrDeckNotFound if the deck does not exist and validation
// errors wrapped in store.ErrInvalidEntity if the card data is invalid.
func (s *PostgresCardStore) Create(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cardQuery := `
		INSERT INTO cards (id, content, stability, difficulty, interval_days,
			repetitions, next_review_at, last_reviewed_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		cardQuery,
		card.ID,
		[]byte(card.Content),
		card.Learning.Stability,
		card.Learning.Difficulty,
		card.Learning.Interval,
		card.Learning.Repetitions,
		card.Learning.NextReviewAt,
		nullableTime(card.Learning.LastReviewedAt),
		string(card.Learning.Status),
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	// The membership position continues the deck's sequence, so card order
	// follows creation order.
	memberQuery := `
		INSERT INTO deck_cards (deck_id, card_id, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0)
		FROM deck_cards
		WHERE deck_id = $1
	`
	_, err = s.db.ExecContext(ctx, memberQuery, deckID, card.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("deck not found during card creation",
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", deckID.String()))
			return fmt.Errorf("%w: %v", store.ErrDeckNotFound, err)
		}

		log.Error("failed to create card membership",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("deck_id", deckID.String()))
		return MapError(err)
	}

	log.Info("card created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", deckID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// It retrieves a card by its unique ID, including its review history in
// append order. Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving card by ID", slog.String("card_id", id.String()))

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	// Review log IDs are ULIDs, so ordering by id is chronological.
	historyQuery := `
		SELECT id, card_id, rated_at, rating, time_taken_ms
		FROM review_logs
		WHERE card_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, historyQuery, id)
	if err != nil {
		log.Error("failed to query card review history",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		entry, err := scanReviewLog(rows)
		if err != nil {
			log.Error("failed to scan review log row",
				slog.String("error", err.Error()),
				slog.String("card_id", id.String()))
			return nil, MapError(err)
		}
		card.ReviewHistory = append(card.ReviewHistory, entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning review log rows",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return &card, nil
}

// ListByDeck implements store.CardStore.ListByDeck
// It retrieves all cards of a deck in membership order, each with its review
// history in append order. Returns store.ErrDeckNotFound if the deck does
// not exist; a deck without cards yields an empty slice.
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM decks WHERE id = $1)`, deckID).
		Scan(&exists)
	if err != nil {
		log.Error("failed to check deck existence",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	if !exists {
		log.Debug("deck not found for card listing", slog.String("deck_id", deckID.String()))
		return nil, store.ErrDeckNotFound
	}

	query := `
		SELECT c.id, c.content, c.stability, c.difficulty, c.interval_days,
			c.repetitions, c.next_review_at, c.last_reviewed_at, c.status,
			c.created_at, c.updated_at
		FROM cards c
		JOIN deck_cards dc ON dc.card_id = c.id
		WHERE dc.deck_id = $1
		ORDER BY dc.position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []domain.Card{}
	indexByID := make(map[uuid.UUID]int)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, MapError(err)
		}
		indexByID[card.ID] = len(cards)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning card rows",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}

	if len(cards) == 0 {
		return cards, nil
	}

	historyQuery := `
		SELECT r.id, r.card_id, r.rated_at, r.rating, r.time_taken_ms
		FROM review_logs r
		JOIN deck_cards dc ON dc.card_id = r.card_id
		WHERE dc.deck_id = $1
		ORDER BY r.card_id, r.id ASC
	`
	historyRows, err := s.db.QueryContext(ctx, historyQuery, deckID)
	if err != nil {
		log.Error("failed to query deck review history",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := historyRows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for historyRows.Next() {
		entry, err := scanReviewLog(historyRows)
		if err != nil {
			log.Error("failed to scan review log row",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, MapError(err)
		}
		if i, ok := indexByID[entry.CardID]; ok {
			cards[i].ReviewHistory = append(cards[i].ReviewHistory, entry)
		}
	}
	if err := historyRows.Err(); err != nil {
		log.Error("error after scanning review log rows",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}

	log.Debug("listed deck cards",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// UpdateLearning implements store.CardStore.UpdateLearning
// It persists a card's learning state and updated timestamp. Content and
// review history are untouched; history entries are appended through a
// ReviewLogStore, typically in the same transaction.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) UpdateLearning(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Learning.Validate(); err != nil {
		log.Warn("learning state validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET stability = $1, difficulty = $2, interval_days = $3,
			repetitions = $4, next_review_at = $5, last_reviewed_at = $6,
			status = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Learning.Stability,
		card.Learning.Difficulty,
		card.Learning.Interval,
		card.Learning.Repetitions,
		card.Learning.NextReviewAt,
		nullableTime(card.Learning.LastReviewedAt),
		string(card.Learning.Status),
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		log.Error("failed to update card learning state",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		log.Debug("card not found for learning state update",
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Debug("card learning state updated successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("status", string(card.Learning.Status)))
	return nil
}

// UpdateContent implements store.CardStore.UpdateContent
// It modifies an existing card's content field.
// Returns store.ErrCardNotFound if the card does not exist and
// store.ErrInvalidEntity if the content is not valid JSON.
func (s *PostgresCardStore) UpdateContent(ctx context.Context, id uuid.UUID, content []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(content) == 0 || !json.Valid(content) {
		log.Warn("invalid card content during update", slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrCardContentInvalid)
	}

	query := `
		UPDATE cards
		SET content = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, content, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		log.Debug("card not found for content update", slog.String("card_id", id.String()))
		return err
	}

	log.Info("card content updated successfully", slog.String("card_id", id.String()))
	return nil
}

// Delete implements store.CardStore.Delete
// It removes a card; the membership row and review history go with it via
// ON DELETE CASCADE. Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		log.Debug("card not found for delete", slog.String("card_id", id.String()))
		return err
	}

	log.Info("card deleted successfully", slog.String("card_id", id.String()))
	return nil
}
