package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/okeefe/recite-api/internal/domain"
)

// sm2Algorithm is a classic two-parameter SM-2 variant offered as an
// alternative to the forgetting-curve model.
//
// SM-2 tracks an ease factor per card; to stay substitutable behind the
// Algorithm interface it encodes that ease factor into the difficulty
// field (linearly inverted, so a low ease factor reads as high difficulty)
// and back-derives a stability estimate from the computed interval so that
// status derivation matches the default model.
type sm2Algorithm struct {
	params SM2Params
}

// NewSM2Algorithm creates an SM-2 scheduler with default parameters.
func NewSM2Algorithm() Algorithm {
	return &sm2Algorithm{params: DefaultSM2Params()}
}

// NewSM2AlgorithmWithParams creates an SM-2 scheduler with custom parameters.
func NewSM2AlgorithmWithParams(params SM2Params) Algorithm {
	return &sm2Algorithm{params: params}
}

// Review implements the Algorithm interface using SM-2 ease-factor math.
func (a *sm2Algorithm) Review(
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

	easeFactor := a.easeFactorAdjusted(state.Difficulty, rating)
	interval := a.nextInterval(state, easeFactor, rating)

	newState := state
	newState.Difficulty = a.difficultyFromEaseFactor(easeFactor)
	newState.Interval = interval

	if rating == domain.RatingAgain {
		newState.Stability = a.params.LapseStability
		newState.Repetitions = 0
	} else {
		newState.Stability = a.stabilityForInterval(interval)
		newState.Repetitions = state.Repetitions + 1
	}

	newState.Status = DetermineStatus(newState.Stability, interval)

	reviewedAt := now.UTC()
	newState.NextReviewAt = reviewedAt.AddDate(0, 0, interval)
	newState.LastReviewedAt = &reviewedAt

	return newState, interval, nil
}

// Postpone implements the Algorithm interface.
func (a *sm2Algorithm) Postpone(
	state domain.LearningState,
	days int,
	now time.Time,
) (domain.LearningState, error) {
	return postponeState(state, days, now)
}

// easeFactorAdjusted decodes the ease factor from the difficulty encoding,
// applies the per-rating adjustment, and clamps it to the configured range.
//
//   - "Again" significantly decreases the ease factor (typically -0.20)
//   - "Hard" moderately decreases it (typically -0.15)
//   - "Good" leaves it unchanged
//   - "Easy" moderately increases it (typically +0.15)
func (a *sm2Algorithm) easeFactorAdjusted(difficulty float64, rating domain.Rating) float64 {
	newEF := a.easeFactorFromDifficulty(difficulty) + a.params.EaseFactorAdjustment[rating]

	if newEF < a.params.MinEaseFactor {
		newEF = a.params.MinEaseFactor
	}
	if newEF > a.params.MaxEaseFactor {
		newEF = a.params.MaxEaseFactor
	}

	return newEF
}

// nextInterval determines the new interval in days.
//
// Algorithm behavior:
//   - "Again" resets the interval to one day; the card re-enters
//     short-cycle review.
//   - The first review of a card uses the pre-configured first intervals.
//   - After a lapse (repetitions back at zero but the card has history), a
//     "Good" review regrows the interval by LapseGoodModifier instead of
//     the full ease factor.
//   - Otherwise "Good" multiplies the interval by the ease factor, "Hard"
//     by a smaller fixed modifier, and "Easy" by a larger fixed modifier on
//     top of the ease factor.
func (a *sm2Algorithm) nextInterval(state domain.LearningState, easeFactor float64, rating domain.Rating) int {
	if rating == domain.RatingAgain {
		return 1
	}

	if !state.Reviewed() {
		return a.params.FirstReviewIntervals[rating]
	}

	if state.Repetitions == 0 && rating == domain.RatingGood {
		return a.clampInterval(int(float64(state.Interval) * a.params.LapseGoodModifier))
	}

	var modifier float64
	if rating == domain.RatingGood {
		modifier = easeFactor
	} else {
		modifier = a.params.IntervalModifier[rating]
		if rating == domain.RatingEasy {
			modifier *= easeFactor
		}
	}

	return a.clampInterval(int(float64(state.Interval) * modifier))
}

func (a *sm2Algorithm) clampInterval(interval int) int {
	if interval < 1 {
		return 1
	}
	if interval > a.params.MaxInterval {
		return a.params.MaxInterval
	}
	return interval
}

// stabilityForInterval expresses an interval as the equivalent stability on
// the forgetting curve, interval = -S × ln(target), so that status
// thresholds behave identically across both models.
func (a *sm2Algorithm) stabilityForInterval(interval int) float64 {
	return float64(interval) / -math.Log(a.params.TargetRetention)
}

// easeFactorFromDifficulty maps difficulty in [1,10] back onto the
// configured ease-factor range, inverted: difficulty 1 reads as the maximum
// ease factor.
func (a *sm2Algorithm) easeFactorFromDifficulty(difficulty float64) float64 {
	span := a.params.MaxEaseFactor - a.params.MinEaseFactor
	return a.params.MaxEaseFactor - (difficulty-1)/9*span
}

// difficultyFromEaseFactor is the inverse mapping, clamped to [1,10].
func (a *sm2Algorithm) difficultyFromEaseFactor(easeFactor float64) float64 {
	span := a.params.MaxEaseFactor - a.params.MinEaseFactor
	difficulty := 1 + (a.params.MaxEaseFactor-easeFactor)/span*9

	if difficulty < 1 {
		return 1
	}
	if difficulty > 10 {
		return 10
	}
	return difficulty
}
