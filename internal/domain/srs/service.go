package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/okeefe/recite-api/internal/domain"
)

// Common errors
var (
	ErrInvalidState     = errors.New("learning state is invalid")
	ErrInvalidDays      = errors.New("postpone days must be at least 1")
	ErrUnknownAlgorithm = errors.New("unknown scheduling algorithm")
)

// Names accepted by NewAlgorithmFromName, used in configuration.
const (
	AlgorithmFSRS = "fsrs"
	AlgorithmSM2  = "sm2"
)

// Algorithm is the narrow boundary between the scheduling formula and the
// rest of the engine. Schedulers and session controllers depend only on
// this interface, so a different memory model can be substituted without
// touching them.
type Algorithm interface {
	// Review applies a recall rating to a learning state. elapsedDays is
	// the time since the previous review (or card creation), in days,
	// floored at zero. The returned state carries the freshly assigned
	// NextReviewAt (now plus the returned interval) and LastReviewedAt.
	Review(
		state domain.LearningState,
		rating domain.Rating,
		elapsedDays float64,
		now time.Time,
	) (domain.LearningState, int, error)

	// Postpone pushes the next review time forward by the given number of
	// days without touching stability, difficulty, or history.
	Postpone(
		state domain.LearningState,
		days int,
		now time.Time,
	) (domain.LearningState, error)
}

// Compile-time interface checks.
var (
	_ Algorithm = (*defaultAlgorithm)(nil)
	_ Algorithm = (*sm2Algorithm)(nil)
)

// defaultAlgorithm is the forgetting-curve implementation of Algorithm.
type defaultAlgorithm struct {
	params Params
}

// NewDefaultAlgorithm creates the forgetting-curve scheduler with default
// parameters.
func NewDefaultAlgorithm() Algorithm {
	return &defaultAlgorithm{params: DefaultParams()}
}

// NewAlgorithmWithParams creates the forgetting-curve scheduler with custom
// parameters.
func NewAlgorithmWithParams(params Params) Algorithm {
	return &defaultAlgorithm{params: params}
}

// NewAlgorithmFromName builds the scheduler selected by configuration.
func NewAlgorithmFromName(name string) (Algorithm, error) {
	switch name {
	case AlgorithmFSRS, "":
		return NewDefaultAlgorithm(), nil
	case AlgorithmSM2:
		return NewSM2Algorithm(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Review implements the Algorithm interface for the forgetting-curve model.
func (a *defaultAlgorithm) Review(
	state domain.LearningState,
	rating domain.Rating,
	elapsedDays float64,
	now time.Time,
) (domain.LearningState, int, error) {
	if err := state.Validate(); err != nil {
		return domain.LearningState{}, 0, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if !rating.IsValid() {
		return domain.LearningState{}, 0, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	newState, interval := calculateNextState(state, rating, elapsedDays, a.params)

	reviewedAt := now.UTC()
	newState.NextReviewAt = reviewedAt.AddDate(0, 0, interval)
	newState.LastReviewedAt = &reviewedAt

	return newState, interval, nil
}

// Postpone implements the Algorithm interface.
func (a *defaultAlgorithm) Postpone(
	state domain.LearningState,
	days int,
	now time.Time,
) (domain.LearningState, error) {
	return postponeState(state, days, now)
}

// postponeState shifts the next review time forward by the given number of
// days from whichever is later, now or the currently scheduled review. The
// memory model itself is untouched: only the date moves.
func postponeState(state domain.LearningState, days int, now time.Time) (domain.LearningState, error) {
	if err := state.Validate(); err != nil {
		return domain.LearningState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if days < 1 {
		return domain.LearningState{}, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}

	from := state.NextReviewAt
	if now.UTC().After(from) {
		from = now.UTC()
	}

	newState := state
	newState.NextReviewAt = from.AddDate(0, 0, days)
	return newState, nil
}
