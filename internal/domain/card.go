package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardContentEmpty is returned when a card's content is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not valid JSON.
	ErrCardContentInvalid = errors.New("card content must be valid JSON")

	// ErrReviewLogCardMismatch is returned when a history entry is appended
	// to a card it does not belong to.
	ErrReviewLogCardMismatch = errors.New("review log entry belongs to a different card")
)

// Card represents a single flashcard tracked by the scheduling engine.
// The content is an opaque JSONB structure owned by the authoring subsystem;
// the engine never interprets it. The learning state and review history are
// owned by the engine and mutated only through the update algorithm.
type Card struct {
	ID            uuid.UUID       `json:"id"`
	Content       json.RawMessage `json:"content"`
	Learning      LearningState   `json:"learning"`
	ReviewHistory []ReviewLog     `json:"review_history,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CardContent is a sample shape for the content field. Cards can carry any
// JSON object; this struct exists for callers that use the common
// front/back format.
type CardContent struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Hint  string   `json:"hint,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// NewCard creates a new Card with the given opaque content and an
// initialized learning state. The clock is passed in by the caller so that
// creation is deterministic under test.
// Returns an error if validation fails.
func NewCard(content json.RawMessage, now time.Time) (*Card, error) {
	card := &Card{
		ID:        uuid.New(),
		Content:   content,
		Learning:  NewLearningState(now),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if len(c.Content) == 0 {
		return ErrCardContentEmpty
	}

	// Check if content is valid JSON
	var js json.RawMessage
	if err := json.Unmarshal(c.Content, &js); err != nil {
		return ErrCardContentInvalid
	}

	if err := c.Learning.Validate(); err != nil {
		return err
	}

	return nil
}

// IsDue reports whether the card's next review time is at or before now.
func (c *Card) IsDue(now time.Time) bool {
	return !c.Learning.NextReviewAt.After(now)
}

// ApplyReview installs the learning state produced by the update algorithm
// and appends the matching history entry. Ratings mutate learning state
// only through this path, so history stays append-only and status stays in
// lockstep with stability and interval.
func (c *Card) ApplyReview(state LearningState, entry ReviewLog, now time.Time) error {
	if entry.CardID != c.ID {
		return fmt.Errorf("%w: entry %s, card %s", ErrReviewLogCardMismatch, entry.CardID, c.ID)
	}

	if err := state.Validate(); err != nil {
		return err
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	c.Learning = state
	c.ReviewHistory = append(c.ReviewHistory, entry)
	c.UpdatedAt = now.UTC()
	return nil
}

// ApplyReschedule installs a learning state whose review time was moved
// without a rating, as produced by the postpone operation. No history entry
// is appended because no recall happened.
func (c *Card) ApplyReschedule(state LearningState, now time.Time) error {
	if err := state.Validate(); err != nil {
		return err
	}

	c.Learning = state
	c.UpdatedAt = now.UTC()
	return nil
}

// UpdateContent replaces the card's opaque content and bumps the UpdatedAt
// timestamp. Returns an error if the new content is invalid.
func (c *Card) UpdateContent(content json.RawMessage, now time.Time) error {
	// Temporarily update content to validate
	origContent := c.Content
	c.Content = content

	if err := c.Validate(); err != nil {
		// Restore original content if invalid
		c.Content = origContent
		return err
	}

	c.UpdatedAt = now.UTC()
	return nil
}
