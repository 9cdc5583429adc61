package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/domain/srs"
	"github.com/okeefe/recite-api/internal/events"
	"github.com/okeefe/recite-api/internal/platform/memory"
	"github.com/okeefe/recite-api/internal/service"
	"github.com/okeefe/recite-api/internal/service/review"
)

// apiFixture wires the full handler stack over the in-memory store.
type apiFixture struct {
	store  *memory.Store
	router chi.Router
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.NewStore()
	emitter := events.NewInMemoryEventEmitter(discard)
	algorithm := srs.NewDefaultAlgorithm()

	defaults := domain.DefaultDeckSettings()
	deckService := service.NewDeckService(mem.Decks, mem.Cards, emitter, defaults, discard)
	cardService := service.NewCardService(mem.Cards, mem.Decks, algorithm, emitter, discard)
	reviewService := review.NewService(mem, algorithm, emitter, discard)

	deckHandler := NewDeckHandler(deckService, discard)
	cardHandler := NewCardHandler(cardService, discard)
	sessionHandler := NewSessionHandler(reviewService, discard)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/decks", deckHandler.CreateDeck)
		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks/merge", deckHandler.MergeDecks)
		r.Get("/decks/{id}", deckHandler.GetDeck)
		r.Patch("/decks/{id}/settings", deckHandler.UpdateSettings)
		r.Delete("/decks/{id}", deckHandler.DeleteDeck)
		r.Get("/decks/{id}/stats", deckHandler.GetStats)
		r.Get("/decks/{id}/queue", deckHandler.GetQueue)

		r.Post("/decks/{id}/cards", cardHandler.CreateCard)
		r.Get("/decks/{id}/cards", cardHandler.ListCards)
		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Put("/cards/{id}", cardHandler.EditCard)
		r.Delete("/cards/{id}", cardHandler.DeleteCard)
		r.Post("/cards/{id}/postpone", cardHandler.PostponeCard)

		r.Post("/decks/{id}/sessions", sessionHandler.StartSession)
		r.Get("/sessions/{id}", sessionHandler.GetSession)
		r.Get("/sessions/{id}/card", sessionHandler.CurrentCard)
		r.Post("/sessions/{id}/ratings", sessionHandler.RecordRating)
		r.Post("/sessions/{id}/abort", sessionHandler.AbortSession)
	})

	return &apiFixture{store: mem, router: r}
}

// do executes a request against the fixture router and returns the recorder.
func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a JSON response body into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// mustCreateDeck creates a deck through the API and returns its response.
func (f *apiFixture) mustCreateDeck(t *testing.T, name string) DeckResponse {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var deck DeckResponse
	decode(t, rec, &deck)
	return deck
}

// mustCreateCard adds a card to a deck through the API.
func (f *apiFixture) mustCreateCard(t *testing.T, deckID, front string) CardResponse {
	t.Helper()

	content := json.RawMessage(`{"front":"` + front + `","back":"translation"}`)
	rec := f.do(t, http.MethodPost, "/api/decks/"+deckID+"/cards", CreateCardRequest{Content: content})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var card CardResponse
	decode(t, rec, &card)
	return card
}
