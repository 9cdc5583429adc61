package srs

import (
	"math"

	"github.com/okeefe/recite-api/internal/domain"
)

// Card status thresholds. Status is always derived from stability and
// interval in the same update step, never stored independently.
const (
	newStabilityCeiling      = 0.6  // at or below: card still counts as new
	newIntervalCeiling       = 1    // days
	learningStabilityCeiling = 3.0  // below: card is being learned
	reviewIntervalCeiling    = 21   // days; at or above the card is mastered
	statusTolerance          = 0.01 // rounding slack on the stability comparison
)

// calculateRetrievability estimates the probability of successful recall
// after elapsedDays, modeled as exp(-t/stability).
//
// The result is floored at params.MinRetrievability so later logarithms and
// divisions stay well-defined even for long-overdue cards. Negative elapsed
// time (clock skew) is treated as zero.
func calculateRetrievability(elapsedDays, stability float64, params Params) float64 {
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	r := math.Exp(-elapsedDays / stability)
	if r < params.MinRetrievability {
		return params.MinRetrievability
	}
	return r
}

// calculateNewDifficulty applies the fixed per-rating delta and clamps the
// result to the configured difficulty range.
//
// Failed recalls push difficulty up; easy recalls pull it down. The clamp
// keeps the value inside [MinDifficulty, MaxDifficulty] no matter how many
// times a card lapses.
func calculateNewDifficulty(difficulty float64, rating domain.Rating, params Params) float64 {
	newDifficulty := difficulty + params.DifficultyDelta[rating]

	if newDifficulty < params.MinDifficulty {
		newDifficulty = params.MinDifficulty
	}
	if newDifficulty > params.MaxDifficulty {
		newDifficulty = params.MaxDifficulty
	}

	return newDifficulty
}

// calculateNewStability produces the post-review memory strength estimate.
//
// Algorithm behavior:
//   - A failed recall (Again) resets stability to params.LapseStability:
//     forgetting invalidates the old estimate and the card re-enters
//     short-cycle review.
//   - A successful recall grows stability by
//     GrowthRate × (1 − retrievability) × StabilityMultiplier[rating].
//     The (1 − R) term makes the growth proportional to how surprising the
//     recall was: remembering a nearly-forgotten card is strong evidence of
//     a durable memory, remembering a fresh one says little.
//   - The result never drops below params.MinStability.
func calculateNewStability(stability, retrievability float64, rating domain.Rating, params Params) float64 {
	if rating == domain.RatingAgain {
		return params.LapseStability
	}

	growth := params.GrowthRate * (1 - retrievability) * params.StabilityMultiplier[rating]
	newStability := stability * (1 + growth)

	if newStability < params.MinStability {
		return params.MinStability
	}
	return newStability
}

// calculateInterval inverts the forgetting curve at the target retention:
// the next review lands where predicted retrievability decays to
// params.TargetRetention, i.e. round(-stability × ln(target)) days.
//
// The result is a deterministic function of stability alone, floored at one
// day and capped at params.MaxInterval.
func calculateInterval(stability float64, params Params) int {
	interval := int(math.Round(-stability * math.Log(params.TargetRetention)))

	if interval < 1 {
		return 1
	}
	if interval > params.MaxInterval {
		return params.MaxInterval
	}
	return interval
}

// DetermineStatus derives the card status from stability and interval.
// It is the single source of truth for status transitions; callers must
// never assign a status outside an update step.
func DetermineStatus(stability float64, intervalDays int) domain.CardStatus {
	switch {
	case stability <= newStabilityCeiling+statusTolerance && intervalDays <= newIntervalCeiling:
		return domain.CardStatusNew
	case stability < learningStabilityCeiling:
		return domain.CardStatusLearning
	case intervalDays < reviewIntervalCeiling:
		return domain.CardStatusReview
	default:
		return domain.CardStatusMastered
	}
}

// calculateNextState applies one review to a learning state and returns the
// new state together with the next interval in days. It is pure and
// deterministic: no clock, no randomness, no I/O.
//
// The caller owns the review timestamps; NextReviewAt and LastReviewedAt
// are carried over unchanged here and assigned by the Algorithm wrapper.
//
// Algorithm behavior:
//   - Estimates current retrievability from the elapsed time.
//   - Shifts difficulty by the fixed per-rating delta, clamped to [1, 10].
//   - Resets stability on Again, grows it otherwise (see
//     calculateNewStability).
//   - Solves the curve for the next interval (see calculateInterval).
//   - Increments repetitions on success, resets them on Again.
//   - Re-derives the card status from the new stability and interval.
func calculateNextState(
	state domain.LearningState,
	rating domain.Rating,
	elapsedDays float64,
	params Params,
) (domain.LearningState, int) {
	retrievability := calculateRetrievability(elapsedDays, state.Stability, params)

	newState := state
	newState.Difficulty = calculateNewDifficulty(state.Difficulty, rating, params)
	newState.Stability = calculateNewStability(state.Stability, retrievability, rating, params)

	interval := calculateInterval(newState.Stability, params)
	newState.Interval = interval

	if rating == domain.RatingAgain {
		newState.Repetitions = 0
	} else {
		newState.Repetitions = state.Repetitions + 1
	}

	newState.Status = DetermineStatus(newState.Stability, interval)

	return newState, interval
}
