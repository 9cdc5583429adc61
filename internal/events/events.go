package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names something that happened to a deck.
type EventType string

// Event types emitted by the services.
const (
	// EventDeckMerged is emitted after source decks are merged into a new one.
	EventDeckMerged EventType = "deck.merged"

	// EventCardCreated is emitted after a card is added to a deck.
	EventCardCreated EventType = "card.created"

	// EventCardDeleted is emitted after a card is removed from a deck.
	EventCardDeleted EventType = "card.deleted"

	// EventSessionCompleted is emitted when a study session reviews its last card.
	EventSessionCompleted EventType = "session.completed"

	// EventSessionAborted is emitted when a study session is abandoned mid-queue.
	EventSessionAborted EventType = "session.aborted"
)

// DeckEvent notifies handlers that a deck's cards changed in a way that may
// invalidate its cached statistics. Handlers decide what to do; the typical
// consumer schedules a stats refresh for the deck.
type DeckEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened to the deck
	Type EventType `json:"type"`

	// DeckID identifies the affected deck
	DeckID uuid.UUID `json:"deck_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewDeckEvent creates a new DeckEvent for the given deck.
func NewDeckEvent(eventType EventType, deckID uuid.UUID) *DeckEvent {
	return &DeckEvent{
		ID:        uuid.New(),
		Type:      eventType,
		DeckID:    deckID,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *DeckEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *DeckEvent) error
}
