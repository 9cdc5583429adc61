package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/api/shared"
	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/service"
)

// DeckHandler handles deck-related HTTP requests.
type DeckHandler struct {
	deckService service.DeckService
	logger      *slog.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(deckService service.DeckService, log *slog.Logger) *DeckHandler {
	if deckService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck service cannot be nil for DeckHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		deckService: deckService,
		logger:      log.With(slog.String("component", "deck_handler")),
	}
}

// CreateDeck handles POST /decks requests.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	// A fully omitted settings block means "use the server defaults"; a
	// partially filled one is rejected rather than guessed at.
	var settings *domain.DeckSettings
	if req.NewCardsPerDay != 0 || req.ReviewCardsPerDay != 0 {
		if req.NewCardsPerDay == 0 || req.ReviewCardsPerDay == 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Both daily quotas must be set together or both omitted")
			return
		}
		settings = &domain.DeckSettings{
			NewCardsPerDay:    req.NewCardsPerDay,
			ReviewCardsPerDay: req.ReviewCardsPerDay,
		}
	}

	deck, err := h.deckService.CreateDeck(r.Context(), req.Name, settings)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to create deck")
		return
	}

	log.Debug("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("deck_name", deck.Name))
	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// ListDecks handles GET /decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.deckService.ListDecks(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, "Failed to list decks")
		return
	}

	response := make([]DeckResponse, 0, len(decks))
	for _, deck := range decks {
		response = append(response, deckToResponse(deck))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// GetDeck handles GET /decks/{id} requests.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	deck, err := h.deckService.GetDeck(r.Context(), deckID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to get deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(deck))
}

// UpdateSettings handles PATCH /decks/{id}/settings requests.
func (h *DeckHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateDeckSettingsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	deck, err := h.deckService.UpdateDeckSettings(r.Context(), deckID, domain.DeckSettings{
		NewCardsPerDay:    req.NewCardsPerDay,
		ReviewCardsPerDay: req.ReviewCardsPerDay,
	})
	if err != nil {
		HandleServiceError(w, r, err, "Failed to update deck settings")
		return
	}

	log.Debug("deck settings updated", slog.String("deck_id", deckID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(deck))
}

// DeleteDeck handles DELETE /decks/{id} requests.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.deckService.DeleteDeck(r.Context(), deckID); err != nil {
		HandleServiceError(w, r, err, "Failed to delete deck")
		return
	}

	log.Debug("deck deleted", slog.String("deck_id", deckID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// MergeDecks handles POST /decks/merge requests.
func (h *DeckHandler) MergeDecks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req MergeDecksRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.DeckIDs))
	for _, raw := range req.DeckIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid deck ID format")
			return
		}
		ids = append(ids, id)
	}

	deck, err := h.deckService.MergeDecks(r.Context(), ids, req.Name)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to merge decks")
		return
	}

	log.Debug("decks merged",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("source_count", len(ids)))
	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// GetStats handles GET /decks/{id}/stats requests. With ?recompute=true the
// stats are re-derived from the cards and persisted before being returned.
func (h *DeckHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	recompute := r.URL.Query().Get("recompute") == "true"

	stats, err := h.deckService.DeckStats(r.Context(), deckID, recompute)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to get deck stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// GetQueue handles GET /decks/{id}/queue requests. It previews the study
// queue a session started now would walk, without starting one.
func (h *DeckHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	queue, err := h.deckService.StudyQueue(r.Context(), deckID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to build study queue")
		return
	}

	cards := make([]CardResponse, 0, len(queue))
	for i := range queue {
		cards = append(cards, cardToResponse(&queue[i]))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QueueResponse{
		DeckID: deckID.String(),
		Count:  len(cards),
		Cards:  cards,
	})
}
