package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event := NewDeckEvent(EventSessionCompleted, uuid.New())

		// Should not error even with no handlers
		err := emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}

		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := NewDeckEvent(EventDeckMerged, uuid.New())

		err := emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)

		// Verify both handlers received the event
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		// One handler succeeds, one fails
		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{
			HandlerError: errors.New("handler error"),
		}

		emitter.RegisterHandler(successHandler)
		emitter.RegisterHandler(failingHandler)

		event := NewDeckEvent(EventCardDeleted, uuid.New())

		// Should return the error from the failing handler
		err := emitter.EmitEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		// Both handlers should still have received the event
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})

	t.Run("emit event with multiple failing handlers returns first error", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		firstFailing := &MockEventHandler{HandlerError: errors.New("first error")}
		secondFailing := &MockEventHandler{HandlerError: errors.New("second error")}

		emitter.RegisterHandler(firstFailing)
		emitter.RegisterHandler(secondFailing)

		event := NewDeckEvent(EventSessionAborted, uuid.New())

		err := emitter.EmitEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Equal(t, "first error", err.Error())
	})
}
