package srs

import (
	"github.com/okeefe/recite-api/internal/domain"
)

// Params defines all configurable parameters for the forgetting-curve model.
// Per-rating tables are indexed by domain.Rating, so every rating has an
// entry by construction.
type Params struct {
	// Forgetting-curve shape
	TargetRetention   float64 // retrievability threshold the interval is solved for
	MinRetrievability float64 // floor applied to exp(-t/S) to avoid log(0)/overflow
	GrowthRate        float64 // scales stability growth on successful recall

	// Stability limits
	LapseStability float64 // stability assigned after a failed recall
	MinStability   float64 // floor after any update
	MaxInterval    int     // hard upper bound on a computed interval, in days

	// Difficulty limits
	MinDifficulty float64
	MaxDifficulty float64

	// Per-rating effects
	DifficultyDelta     [4]float64 // additive difficulty change per rating
	StabilityMultiplier [4]float64 // growth multiplier per rating; Again never grows
}

// DefaultParams returns the standard tuning for the forgetting-curve model.
func DefaultParams() Params {
	return Params{
		TargetRetention:   0.9,
		MinRetrievability: 0.01,
		GrowthRate:        0.6,

		LapseStability: 0.6,
		MinStability:   0.3,
		MaxInterval:    36500,

		MinDifficulty: 1.0,
		MaxDifficulty: 10.0,

		DifficultyDelta: [4]float64{
			domain.RatingAgain: 1.0,
			domain.RatingHard:  0.4,
			domain.RatingGood:  -0.2,
			domain.RatingEasy:  -0.35,
		},

		StabilityMultiplier: [4]float64{
			domain.RatingAgain: 0.0,
			domain.RatingHard:  0.6,
			domain.RatingGood:  1.0,
			domain.RatingEasy:  1.4,
		},
	}
}

// SM2Params defines the configurable parameters for the SM-2 variant.
type SM2Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64
	MaxInterval   int

	// Curve constants shared with the default model, used to express SM-2
	// results in the common learning-state vocabulary.
	TargetRetention float64
	LapseStability  float64

	// Adjustments for different ratings
	EaseFactorAdjustment [4]float64
	IntervalModifier     [4]float64

	// Special case handling
	FirstReviewIntervals [4]int
	LapseGoodModifier    float64
}

// DefaultSM2Params returns the standard SM-2 tuning.
func DefaultSM2Params() SM2Params {
	return SM2Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 2.5,
		MaxInterval:   36500,

		TargetRetention: 0.9,
		LapseStability:  0.6,

		EaseFactorAdjustment: [4]float64{
			domain.RatingAgain: -0.20,
			domain.RatingHard:  -0.15,
			domain.RatingGood:  0.0,
			domain.RatingEasy:  0.15,
		},

		IntervalModifier: [4]float64{
			domain.RatingAgain: 0.0, // interval resets on a lapse
			domain.RatingHard:  1.2, // slight increase
			domain.RatingGood:  1.0, // ease factor applies directly
			domain.RatingEasy:  1.3, // significant increase, on top of the ease factor
		},

		FirstReviewIntervals: [4]int{
			domain.RatingAgain: 1,
			domain.RatingHard:  1,
			domain.RatingGood:  1,
			domain.RatingEasy:  2,
		},

		// After a lapse, a Good review regrows the interval gently.
		LapseGoodModifier: 1.5,
	}
}
