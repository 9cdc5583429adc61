package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
)

// Service drives study sessions. A session walks the day's queue one card
// at a time: present, rate, persist, advance. Sessions live in memory only;
// the reviewed cards and their history entries are what persists.
type Service interface {
	// StartSession opens a study session for a deck. The queue is built by
	// the scheduler from the deck's cards and daily quotas at call time.
	// An empty queue completes the session immediately with zero reviews;
	// that is a normal outcome, not an error.
	//
	// Returns store.ErrDeckNotFound if the deck does not exist and
	// ErrSessionActive if the deck already has a session in progress.
	StartSession(ctx context.Context, deckID uuid.UUID) (Session, error)

	// GetSession reports the current state of a running session. Completed
	// and aborted sessions are discarded, so looking them up returns
	// ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error)

	// CurrentCard returns the card waiting at the session's queue position.
	// It is read-only; presenting a card does not change session state.
	//
	// Returns ErrSessionNotFound for an unknown session and ErrSessionState
	// if the session is no longer in progress.
	CurrentCard(ctx context.Context, sessionID uuid.UUID) (*domain.Card, error)

	// RecordRating applies a recall rating to the session's current card:
	// it runs the scheduling algorithm, appends the history entry, persists
	// both atomically, and advances the queue. The session advances only if
	// persistence succeeds; on failure it stays at the same position and
	// the identical call can be retried safely. Rating the last card
	// completes the session and refreshes the deck's statistics.
	//
	// Returns ErrSessionNotFound for an unknown session, ErrSessionState if
	// the session is not in progress or cardID is not the current card, and
	// domain.ErrInvalidRating for a rating outside Again..Easy.
	RecordRating(
		ctx context.Context,
		sessionID uuid.UUID,
		cardID uuid.UUID,
		rating domain.Rating,
		timeTaken time.Duration,
	) (*RatingResult, error)

	// AbortSession abandons a session between cards. Ratings already
	// recorded stay persisted; partial progress is never rolled back. The
	// deck's statistics are refreshed for the partial batch.
	//
	// Returns ErrSessionNotFound for an unknown session and ErrSessionState
	// if the session is not in progress.
	AbortSession(ctx context.Context, sessionID uuid.UUID) (Session, error)
}

// RatingResult is what RecordRating hands back: the card as persisted, the
// assigned interval, and the session state after the advance.
type RatingResult struct {
	// Card carries the updated learning state and the appended history entry.
	Card domain.Card `json:"card"`

	// Interval is the number of days until the card's next review.
	Interval int `json:"interval"`

	// Session is the session view after the advance; its Phase tells the
	// caller whether the session is still in progress or just completed.
	Session Session `json:"session"`
}

// Common error types for the review service.
var (
	// ErrSessionNotFound indicates that no live session has the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionActive indicates that the deck already has a session in
	// progress; a deck runs at most one session at a time.
	ErrSessionActive = errors.New("deck already has an active session")

	// ErrSessionState indicates an operation that the session's current
	// state does not allow, such as rating a completed session or rating a
	// card that is not at the current queue position.
	ErrSessionState = errors.New("session state does not allow this operation")
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service
// errors using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewStartSessionError returns a new ServiceError for the start_session operation.
func NewStartSessionError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "start_session",
		Message:   message,
		Err:       err,
	}
}

// NewRecordRatingError returns a new ServiceError for the record_rating operation.
func NewRecordRatingError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "record_rating",
		Message:   message,
		Err:       err,
	}
}

// NewAbortSessionError returns a new ServiceError for the abort_session operation.
func NewAbortSessionError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "abort_session",
		Message:   message,
		Err:       err,
	}
}
