package api

import (
	"log/slog"
	"net/http"

	"github.com/okeefe/recite-api/internal/api/shared"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/service"
)

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService service.CardService, log *slog.Logger) *CardHandler {
	if cardService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card service cannot be nil for CardHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		cardService: cardService,
		logger:      log.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /decks/{id}/cards requests. The new card starts
// in the "new" status and is due immediately.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CreateCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.AddCard(r.Context(), deckID, req.Content)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to create card")
		return
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", deckID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// ListCards handles GET /decks/{id}/cards requests. Cards come back in deck
// membership order.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cards, err := h.cardService.ListCards(r.Context(), deckID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to list cards")
		return
	}

	response := make([]CardResponse, 0, len(cards))
	for i := range cards {
		response = append(response, cardToResponse(&cards[i]))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// GetCard handles GET /cards/{id} requests.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), cardID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to get card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// EditCard handles PUT /cards/{id} requests. Only the opaque content
// changes; learning state and review history are untouched.
func (h *CardHandler) EditCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.UpdateCardContent(r.Context(), cardID, req.Content)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to update card")
		return
	}

	log.Debug("card content updated", slog.String("card_id", cardID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /cards/{id} requests.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), cardID); err != nil {
		HandleServiceError(w, r, err, "Failed to delete card")
		return
	}

	log.Debug("card deleted", slog.String("card_id", cardID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// PostponeCard handles POST /cards/{id}/postpone requests. The next review
// moves forward without a rating; stability, difficulty, and history stay
// as they are.
func (h *CardHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PostponeCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.PostponeCard(r.Context(), cardID, req.Days)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to postpone card")
		return
	}

	log.Debug("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", req.Days))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}
