package review

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
)

// Phase is where a study session sits in its lifecycle.
//
// A session starts in PhaseInProgress. Each RecordRating call moves it
// through PhaseGrading while the rating is computed and persisted, then
// either back to PhaseInProgress at the next queue position or, after the
// last card, to PhaseComplete. AbortSession moves it to PhaseAborted.
// Complete and aborted sessions are terminal and dropped from the registry.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseGrading    Phase = "grading"
	PhaseComplete   Phase = "complete"
	PhaseAborted    Phase = "aborted"
)

// Session is a point-in-time view of a study session, safe to hand to
// callers. The live state stays inside the service.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	DeckID    uuid.UUID     `json:"deck_id"`
	Phase     Phase         `json:"phase"`
	QueueSize int           `json:"queue_size"`
	Position  int           `json:"position"`
	Reviewed  int           `json:"reviewed"`
	StudyTime time.Duration `json:"study_time"`
	StartedAt time.Time     `json:"started_at"`
}

// session is the live state of one study session. The mutex serializes all
// operations against the session, including the persistence call inside
// RecordRating, which gives the single-writer-per-card discipline for free:
// a card sits in at most one live session's queue.
type session struct {
	mu sync.Mutex

	id        uuid.UUID
	deckID    uuid.UUID
	queue     []domain.Card // snapshot taken at session start
	position  int
	phase     Phase
	reviewed  int
	studyTime time.Duration
	startedAt time.Time
}

// newSession builds a live session over an already-validated, non-empty
// queue.
func newSession(deckID uuid.UUID, queue []domain.Card, startedAt time.Time) *session {
	return &session{
		id:        uuid.New(),
		deckID:    deckID,
		queue:     queue,
		phase:     PhaseInProgress,
		startedAt: startedAt,
	}
}

// snapshot captures the session's externally visible state. The caller must
// hold s.mu.
func (s *session) snapshot() Session {
	return Session{
		ID:        s.id,
		DeckID:    s.deckID,
		Phase:     s.phase,
		QueueSize: len(s.queue),
		Position:  s.position,
		Reviewed:  s.reviewed,
		StudyTime: s.studyTime,
		StartedAt: s.startedAt,
	}
}

// current returns the card at the queue position. The caller must hold s.mu
// and have checked that the session is in progress.
func (s *session) current() domain.Card {
	return s.queue[s.position]
}
