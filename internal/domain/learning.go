package domain

import (
	"errors"
	"time"
)

// CardStatus represents where a card sits in the learning pipeline.
// It is derived from stability and interval by the update algorithm and is
// never set independently of it.
type CardStatus string

// Possible card status values.
const (
	CardStatusNew      CardStatus = "new"
	CardStatusLearning CardStatus = "learning"
	CardStatusReview   CardStatus = "review"
	CardStatusMastered CardStatus = "mastered"
)

// Initial learning-state values assigned at card creation.
const (
	InitialStability  = 0.6
	InitialDifficulty = 5.0
	InitialInterval   = 1
)

// Common validation errors for LearningState.
var (
	ErrStabilityNotPositive = errors.New("stability must be strictly positive")
	ErrDifficultyOutOfRange = errors.New("difficulty must be between 1 and 10")
	ErrIntervalTooShort     = errors.New("interval must be at least one day")
	ErrNegativeRepetitions  = errors.New("repetitions cannot be negative")
	ErrNextReviewUnset      = errors.New("next review time cannot be zero")
	ErrInvalidCardStatus    = errors.New("invalid card status")
)

// LearningState is the per-card memory model: how strong the memory is
// estimated to be (stability, in days), how hard the item is (difficulty),
// and when the card should next be shown. A never-reviewed card has a nil
// LastReviewedAt and is immediately eligible for study.
type LearningState struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Status         CardStatus `json:"status"`
}

// NewLearningState returns the learning state assigned to a freshly created
// card: low stability, middle difficulty, and a next-review time of now so
// the card is immediately eligible.
func NewLearningState(now time.Time) LearningState {
	return LearningState{
		Stability:    InitialStability,
		Difficulty:   InitialDifficulty,
		Interval:     InitialInterval,
		Repetitions:  0,
		NextReviewAt: now.UTC(),
		Status:       CardStatusNew,
	}
}

// Validate checks the LearningState invariants.
// Returns an error if any field is out of range.
func (s LearningState) Validate() error {
	if s.Stability <= 0 {
		return ErrStabilityNotPositive
	}

	if s.Difficulty < 1 || s.Difficulty > 10 {
		return ErrDifficultyOutOfRange
	}

	if s.Interval < 1 {
		return ErrIntervalTooShort
	}

	if s.Repetitions < 0 {
		return ErrNegativeRepetitions
	}

	if s.NextReviewAt.IsZero() {
		return ErrNextReviewUnset
	}

	if !isValidCardStatus(s.Status) {
		return ErrInvalidCardStatus
	}

	return nil
}

// Reviewed reports whether the card has ever been reviewed.
func (s LearningState) Reviewed() bool {
	return s.LastReviewedAt != nil
}

// isValidCardStatus checks if the given status is a valid CardStatus.
func isValidCardStatus(status CardStatus) bool {
	switch status {
	case CardStatusNew, CardStatusLearning, CardStatusReview, CardStatusMastered:
		return true
	default:
		return false
	}
}
