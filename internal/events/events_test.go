package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewDeckEvent(t *testing.T) {
	deckID := uuid.New()

	event := NewDeckEvent(EventSessionCompleted, deckID)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventSessionCompleted, event.Type)
	assert.Equal(t, deckID, event.DeckID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)
}

func TestNewDeckEventUniqueIDs(t *testing.T) {
	deckID := uuid.New()

	first := NewDeckEvent(EventCardCreated, deckID)
	second := NewDeckEvent(EventCardCreated, deckID)

	assert.NotEqual(t, first.ID, second.ID)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *DeckEvent
	// Error to return from HandleEvent
	HandlerError error
	// Number of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (m *MockEventHandler) HandleEvent(ctx context.Context, event *DeckEvent) error {
	m.LastEvent = event
	m.HandledCount++
	return m.HandlerError
}
