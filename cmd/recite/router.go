package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okeefe/recite-api/internal/api"
	apiMiddleware "github.com/okeefe/recite-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	deckHandler := api.NewDeckHandler(app.deckService, app.logger)
	cardHandler := api.NewCardHandler(app.cardService, app.logger)
	sessionHandler := api.NewSessionHandler(app.reviewService, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Deck endpoints
		r.Post("/decks", deckHandler.CreateDeck)
		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks/merge", deckHandler.MergeDecks)
		r.Get("/decks/{id}", deckHandler.GetDeck)
		r.Patch("/decks/{id}/settings", deckHandler.UpdateSettings)
		r.Delete("/decks/{id}", deckHandler.DeleteDeck)
		r.Get("/decks/{id}/stats", deckHandler.GetStats)
		r.Get("/decks/{id}/queue", deckHandler.GetQueue)

		// Card endpoints
		r.Post("/decks/{id}/cards", cardHandler.CreateCard)
		r.Get("/decks/{id}/cards", cardHandler.ListCards)
		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Put("/cards/{id}", cardHandler.EditCard)
		r.Delete("/cards/{id}", cardHandler.DeleteCard)
		r.Post("/cards/{id}/postpone", cardHandler.PostponeCard)

		// Study session endpoints
		r.Post("/decks/{id}/sessions", sessionHandler.StartSession)
		r.Get("/sessions/{id}", sessionHandler.GetSession)
		r.Get("/sessions/{id}/card", sessionHandler.CurrentCard)
		r.Post("/sessions/{id}/ratings", sessionHandler.RecordRating)
		r.Post("/sessions/{id}/abort", sessionHandler.AbortSession)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
