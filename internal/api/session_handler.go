package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/api/shared"
	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/service/review"
)

// SessionHandler handles study-session HTTP requests.
type SessionHandler struct {
	reviewService review.Service
	logger        *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(reviewService review.Service, log *slog.Logger) *SessionHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review service cannot be nil for SessionHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		reviewService: reviewService,
		logger:        log.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /decks/{id}/sessions requests. An empty queue
// is a normal outcome: the response carries a completed session with
// queue_size zero.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.reviewService.StartSession(r.Context(), deckID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to start session")
		return
	}

	log.Debug("session started",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("queue_size", session.QueueSize))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// GetSession handles GET /sessions/{id} requests.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.reviewService.GetSession(r.Context(), sessionID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to get session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// CurrentCard handles GET /sessions/{id}/card requests. Presenting the
// card is read-only; session state does not change.
func (h *SessionHandler) CurrentCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.reviewService.CurrentCard(r.Context(), sessionID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to get current card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// RecordRating handles POST /sessions/{id}/ratings requests. The card ID
// in the body must match the session's current card; the session advances
// only if persistence succeeds, so retrying the identical request after a
// 500 is safe.
func (h *SessionHandler) RecordRating(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req RecordRatingRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return
	}

	rating, err := domain.ParseRating(*req.Rating)
	if err != nil {
		log.Warn("invalid rating rejected",
			slog.Int("rating", *req.Rating),
			slog.String("session_id", sessionID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Rating must be between 0 and 3")
		return
	}

	result, err := h.reviewService.RecordRating(
		r.Context(),
		sessionID,
		cardID,
		rating,
		time.Duration(req.TimeTakenMs)*time.Millisecond,
	)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to record rating")
		return
	}

	log.Debug("rating recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()),
		slog.Int("interval", result.Interval))
	shared.RespondWithJSON(w, r, http.StatusOK, RatingResultResponse{
		Card:     cardToResponse(&result.Card),
		Interval: result.Interval,
		Session:  sessionToResponse(result.Session),
	})
}

// AbortSession handles POST /sessions/{id}/abort requests. Ratings already
// recorded stay persisted; the deck's statistics cover the partial batch.
func (h *SessionHandler) AbortSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := getPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.reviewService.AbortSession(r.Context(), sessionID)
	if err != nil {
		HandleServiceError(w, r, err, "Failed to abort session")
		return
	}

	log.Debug("session aborted",
		slog.String("session_id", sessionID.String()),
		slog.Int("reviewed", session.Reviewed))
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}
