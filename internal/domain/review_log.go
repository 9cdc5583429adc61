package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Common validation errors for ReviewLog.
var (
	ErrReviewLogIDEmpty     = errors.New("review log ID cannot be empty")
	ErrReviewLogCardIDEmpty = errors.New("review log card ID cannot be empty")
	ErrNegativeTimeTaken    = errors.New("time taken cannot be negative")
)

// ReviewLog is one entry of a card's append-only review history: when the
// card was rated, how it was rated, and how long the user spent on it.
// Entries are never mutated or reordered after they are appended.
//
// IDs are ULIDs so that entries sort lexicographically in creation order.
type ReviewLog struct {
	ID        string        `json:"id"`
	CardID    uuid.UUID     `json:"card_id"`
	RatedAt   time.Time     `json:"rated_at"`
	Rating    Rating        `json:"rating"`
	TimeTaken time.Duration `json:"time_taken"`
}

// NewReviewLog creates a history entry for a single review.
// Returns an error if the rating is invalid, the card ID is empty, or the
// time taken is negative.
func NewReviewLog(cardID uuid.UUID, rating Rating, timeTaken time.Duration, now time.Time) (ReviewLog, error) {
	entry := ReviewLog{
		ID:        ulid.Make().String(),
		CardID:    cardID,
		RatedAt:   now.UTC(),
		Rating:    rating,
		TimeTaken: timeTaken,
	}

	if err := entry.Validate(); err != nil {
		return ReviewLog{}, err
	}

	return entry, nil
}

// Validate checks if the ReviewLog has valid data.
func (l ReviewLog) Validate() error {
	if l.ID == "" {
		return ErrReviewLogIDEmpty
	}

	if l.CardID == uuid.Nil {
		return ErrReviewLogCardIDEmpty
	}

	if !l.Rating.IsValid() {
		return ErrInvalidRating
	}

	if l.TimeTaken < 0 {
		return ErrNegativeTimeTaken
	}

	return nil
}
