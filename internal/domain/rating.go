package domain

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRating is returned when a rating is outside the Again..Easy range.
var ErrInvalidRating = errors.New("invalid rating")

// Rating represents the user's assessment of recall quality for a single
// review. Ratings travel over the wire as the integers 0 through 3.
type Rating int

// Possible rating values, ordered from complete failure to effortless recall.
const (
	RatingAgain Rating = iota // failed to recall
	RatingHard                // recalled with significant difficulty
	RatingGood                // recalled with some effort
	RatingEasy                // recalled effortlessly
)

var ratingNames = [...]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

// Compile-time interface checks.
var (
	_ fmt.Stringer           = Rating(0)
	_ json.Marshaler         = Rating(0)
	_ json.Unmarshaler       = (*Rating)(nil)
	_ encoding.TextMarshaler = Rating(0)
)

// ParseRating converts a raw integer (as received from a client) into a
// Rating. Returns ErrInvalidRating for anything outside 0..3.
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, v)
	}
	return r, nil
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// Success reports whether the card was recalled at all. Again is the only
// failing rating.
func (r Rating) Success() bool {
	return r != RatingAgain
}

// String returns the lowercase name of the rating ("again", "hard", "good",
// "easy"). For invalid values it returns "rating(n)".
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler so that ratings render as
// their names in text output such as logs.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// MarshalJSON implements json.Marshaler. Ratings serialize as their integer
// wire value.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return json.Marshal(int(r))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON number in 0..3.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	parsed, err := ParseRating(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
