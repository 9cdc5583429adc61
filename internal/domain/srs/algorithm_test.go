package srs

import (
	"math"
	"testing"

	"github.com/okeefe/recite-api/internal/domain"
)

const epsilon = 1e-6

func TestCalculateRetrievability(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name      string
		elapsed   float64
		stability float64
		expected  float64
	}{
		{
			name:      "no elapsed time means certain recall",
			elapsed:   0,
			stability: 5.0,
			expected:  1.0,
		},
		{
			name:      "elapsed equal to stability decays to 1/e",
			elapsed:   5.0,
			stability: 5.0,
			expected:  math.Exp(-1),
		},
		{
			name:      "long overdue card is floored at the minimum",
			elapsed:   10000,
			stability: 1.0,
			expected:  params.MinRetrievability,
		},
		{
			name:      "negative elapsed time is treated as zero",
			elapsed:   -3,
			stability: 2.0,
			expected:  1.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := calculateRetrievability(tc.elapsed, tc.stability, params)

			if math.Abs(r-tc.expected) > epsilon {
				t.Errorf("Expected retrievability %f, got %f", tc.expected, r)
			}
		})
	}
}

func TestCalculateNewDifficulty(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name     string
		current  float64
		rating   domain.Rating
		expected float64
	}{
		{
			name:     "Again increases difficulty by 1.0",
			current:  5.0,
			rating:   domain.RatingAgain,
			expected: 6.0,
		},
		{
			name:     "Hard increases difficulty by 0.4",
			current:  5.0,
			rating:   domain.RatingHard,
			expected: 5.4,
		},
		{
			name:     "Good decreases difficulty by 0.2",
			current:  5.0,
			rating:   domain.RatingGood,
			expected: 4.8,
		},
		{
			name:     "Easy decreases difficulty by 0.35",
			current:  5.0,
			rating:   domain.RatingEasy,
			expected: 4.65,
		},
		{
			name:     "difficulty is clamped at the upper bound",
			current:  9.8,
			rating:   domain.RatingAgain,
			expected: 10.0,
		},
		{
			name:     "difficulty is clamped at the lower bound",
			current:  1.1,
			rating:   domain.RatingEasy,
			expected: 1.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := calculateNewDifficulty(tc.current, tc.rating, params)

			if math.Abs(d-tc.expected) > epsilon {
				t.Errorf("Expected difficulty %f, got %f", tc.expected, d)
			}
		})
	}
}

func TestCalculateNewStability(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name           string
		stability      float64
		retrievability float64
		rating         domain.Rating
		expected       float64
	}{
		{
			name:           "Again resets stability regardless of prior value",
			stability:      42.0,
			retrievability: 0.95,
			rating:         domain.RatingAgain,
			expected:       0.6,
		},
		{
			name:           "Good at half retrievability grows by 30 percent",
			stability:      2.0,
			retrievability: 0.5,
			rating:         domain.RatingGood,
			expected:       2.6, // 2 * (1 + 0.6*0.5*1.0)
		},
		{
			name:           "Hard grows less than Good",
			stability:      2.0,
			retrievability: 0.5,
			rating:         domain.RatingHard,
			expected:       2.36, // 2 * (1 + 0.6*0.5*0.6)
		},
		{
			name:           "Easy grows more than Good",
			stability:      2.0,
			retrievability: 0.5,
			rating:         domain.RatingEasy,
			expected:       2.84, // 2 * (1 + 0.6*0.5*1.4)
		},
		{
			name:           "surprising recall grows stability faster",
			stability:      2.0,
			retrievability: 0.01,
			rating:         domain.RatingGood,
			expected:       3.188, // 2 * (1 + 0.6*0.99)
		},
		{
			name:           "fresh recall barely grows stability",
			stability:      2.0,
			retrievability: 1.0,
			rating:         domain.RatingGood,
			expected:       2.0, // growth term vanishes at R=1
		},
		{
			name:           "result is floored at the minimum stability",
			stability:      0.2,
			retrievability: 1.0,
			rating:         domain.RatingGood,
			expected:       0.3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := calculateNewStability(tc.stability, tc.retrievability, tc.rating, params)

			if math.Abs(s-tc.expected) > epsilon {
				t.Errorf("Expected stability %f, got %f", tc.expected, s)
			}
		})
	}
}

func TestCalculateInterval(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name      string
		stability float64
		expected  int
	}{
		{
			name:      "low stability is floored at one day",
			stability: 0.6,
			expected:  1, // round(0.6 * 0.1054) = 0 → floor
		},
		{
			name:      "stability of 20 gives two days",
			stability: 20,
			expected:  2, // round(2.107)
		},
		{
			name:      "stability of 100 gives eleven days",
			stability: 100,
			expected:  11, // round(10.536)
		},
		{
			name:      "stability of 200 crosses the three week mark",
			stability: 200,
			expected:  21, // round(21.072)
		},
		{
			name:      "absurd stability is capped at the maximum interval",
			stability: 1e6,
			expected:  params.MaxInterval,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			interval := calculateInterval(tc.stability, params)

			if interval != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, interval)
			}
		})
	}
}

// The interval must never shrink when stability grows: the curve inversion
// is monotonically non-decreasing.
func TestCalculateIntervalMonotonic(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	prev := 0
	for s := 0.3; s < 2000; s *= 1.07 {
		interval := calculateInterval(s, params)
		if interval < prev {
			t.Fatalf("interval decreased from %d to %d at stability %f", prev, interval, s)
		}
		if interval < 1 {
			t.Fatalf("interval below one day at stability %f", s)
		}
		prev = interval
	}
}

func TestDetermineStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		stability float64
		interval  int
		expected  domain.CardStatus
	}{
		{
			name:      "creation values stay new",
			stability: 0.6,
			interval:  1,
			expected:  domain.CardStatusNew,
		},
		{
			name:      "stability just inside the tolerance stays new",
			stability: 0.605,
			interval:  1,
			expected:  domain.CardStatusNew,
		},
		{
			name:      "stability past the tolerance is learning",
			stability: 0.62,
			interval:  1,
			expected:  domain.CardStatusLearning,
		},
		{
			name:      "stability below three is learning",
			stability: 2.9,
			interval:  1,
			expected:  domain.CardStatusLearning,
		},
		{
			name:      "short interval with solid stability is review",
			stability: 30,
			interval:  3,
			expected:  domain.CardStatusReview,
		},
		{
			name:      "interval under three weeks is review",
			stability: 190,
			interval:  20,
			expected:  domain.CardStatusReview,
		},
		{
			name:      "interval at three weeks is mastered",
			stability: 200,
			interval:  21,
			expected:  domain.CardStatusMastered,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status := DetermineStatus(tc.stability, tc.interval)

			if status != tc.expected {
				t.Errorf("Expected status %q, got %q", tc.expected, status)
			}
		})
	}
}

func TestCalculateNextStateGoodOnNewCard(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	state := domain.LearningState{
		Stability:   0.6,
		Difficulty:  5.0,
		Interval:    1,
		Repetitions: 0,
		Status:      domain.CardStatusNew,
	}

	newState, interval := calculateNextState(state, domain.RatingGood, 1, params)

	if newState.Stability <= 0.6 {
		t.Errorf("Expected stability to grow past 0.6, got %f", newState.Stability)
	}

	// R = exp(-1/0.6), growth = 0.6*(1-R), stability = 0.6*(1+growth)
	wantStability := 0.6 * (1 + 0.6*(1-math.Exp(-1/0.6)))
	if math.Abs(newState.Stability-wantStability) > epsilon {
		t.Errorf("Expected stability %f, got %f", wantStability, newState.Stability)
	}

	if interval < 1 {
		t.Errorf("Expected interval of at least one day, got %d", interval)
	}

	if math.Abs(newState.Difficulty-4.8) > epsilon {
		t.Errorf("Expected difficulty 4.8, got %f", newState.Difficulty)
	}

	if newState.Repetitions != 1 {
		t.Errorf("Expected repetitions 1, got %d", newState.Repetitions)
	}

	if newState.Status != domain.CardStatusLearning {
		t.Errorf("Expected status learning, got %q", newState.Status)
	}
}

func TestCalculateNextStateAgainResets(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	state := domain.LearningState{
		Stability:   5.0,
		Difficulty:  4.0,
		Interval:    12,
		Repetitions: 6,
		Status:      domain.CardStatusReview,
	}

	newState, interval := calculateNextState(state, domain.RatingAgain, 3, params)

	if newState.Stability != 0.6 {
		t.Errorf("Expected stability exactly 0.6, got %f", newState.Stability)
	}

	if interval != 1 {
		t.Errorf("Expected interval 1, got %d", interval)
	}

	if newState.Repetitions != 0 {
		t.Errorf("Expected repetitions reset to 0, got %d", newState.Repetitions)
	}

	if math.Abs(newState.Difficulty-5.0) > epsilon {
		t.Errorf("Expected difficulty 5.0, got %f", newState.Difficulty)
	}

	if newState.Status != domain.CardStatusNew {
		t.Errorf("Expected status new, got %q", newState.Status)
	}
}

// Every combination of rating and elapsed time must leave the state inside
// its invariants: positive stability, difficulty within [1,10], interval of
// at least one day.
func TestCalculateNextStateInvariants(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	states := []domain.LearningState{
		{Stability: 0.3, Difficulty: 1.0, Interval: 1, Repetitions: 0},
		{Stability: 0.6, Difficulty: 5.0, Interval: 1, Repetitions: 0},
		{Stability: 2.5, Difficulty: 9.9, Interval: 1, Repetitions: 3},
		{Stability: 47.0, Difficulty: 3.3, Interval: 5, Repetitions: 9},
		{Stability: 900.0, Difficulty: 10.0, Interval: 95, Repetitions: 30},
	}
	ratings := []domain.Rating{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy}
	elapsed := []float64{0, 0.25, 1, 7, 365}

	for _, state := range states {
		for _, rating := range ratings {
			for _, days := range elapsed {
				newState, interval := calculateNextState(state, rating, days, params)

				if newState.Stability <= 0 {
					t.Fatalf("stability %f not positive (state=%+v rating=%v elapsed=%f)",
						newState.Stability, state, rating, days)
				}
				if newState.Difficulty < 1 || newState.Difficulty > 10 {
					t.Fatalf("difficulty %f out of range (state=%+v rating=%v elapsed=%f)",
						newState.Difficulty, state, rating, days)
				}
				if interval < 1 || newState.Interval != interval {
					t.Fatalf("bad interval %d (state=%+v rating=%v elapsed=%f)",
						interval, state, rating, days)
				}
				if newState.Repetitions < 0 {
					t.Fatalf("negative repetitions (state=%+v rating=%v elapsed=%f)", state, rating, days)
				}
			}
		}
	}
}

func TestCalculateNextStateDeterministic(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	state := domain.LearningState{
		Stability:   3.7,
		Difficulty:  6.1,
		Interval:    4,
		Repetitions: 2,
		Status:      domain.CardStatusLearning,
	}

	first, firstInterval := calculateNextState(state, domain.RatingHard, 2.5, params)
	second, secondInterval := calculateNextState(state, domain.RatingHard, 2.5, params)

	if first != second || firstInterval != secondInterval {
		t.Errorf("Expected identical results, got %+v/%d and %+v/%d",
			first, firstInterval, second, secondInterval)
	}
}
