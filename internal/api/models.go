package api

import (
	"encoding/json"
	"time"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/service/review"
)

// Request structures

// CreateDeckRequest defines the payload for creating a deck. Settings are
// optional; omitted quotas fall back to the server-wide defaults.
type CreateDeckRequest struct {
	Name              string `json:"name"                           validate:"required,min=1,max=200"`
	NewCardsPerDay    int    `json:"new_cards_per_day,omitempty"    validate:"omitempty,gt=0"`
	ReviewCardsPerDay int    `json:"review_cards_per_day,omitempty" validate:"omitempty,gt=0"`
}

// UpdateDeckSettingsRequest defines the payload for replacing a deck's
// daily quotas.
type UpdateDeckSettingsRequest struct {
	NewCardsPerDay    int `json:"new_cards_per_day"    validate:"required,gt=0"`
	ReviewCardsPerDay int `json:"review_cards_per_day" validate:"required,gt=0"`
}

// MergeDecksRequest defines the payload for merging decks into a new one.
type MergeDecksRequest struct {
	DeckIDs []string `json:"deck_ids" validate:"required,min=2,dive,uuid"`
	Name    string   `json:"name"     validate:"required,min=1,max=200"`
}

// CreateCardRequest defines the payload for adding a card to a deck. The
// content is opaque JSON owned by the authoring subsystem.
type CreateCardRequest struct {
	Content json.RawMessage `json:"content" validate:"required"`
}

// UpdateCardRequest defines the payload for replacing a card's content.
type UpdateCardRequest struct {
	Content json.RawMessage `json:"content" validate:"required"`
}

// PostponeCardRequest defines the payload for postponing a card's review.
type PostponeCardRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// RecordRatingRequest defines the payload for rating the current card of a
// session. The rating travels as the integer wire value 0..3; the pointer
// keeps "rating": 0 (Again) distinguishable from an absent field.
type RecordRatingRequest struct {
	CardID      string `json:"card_id"       validate:"required,uuid"`
	Rating      *int   `json:"rating"        validate:"required"`
	TimeTakenMs int64  `json:"time_taken_ms" validate:"gte=0"`
}

// Response structures

// LearningResponse is the wire form of a card's learning state.
type LearningResponse struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Status         string     `json:"status"`
}

// ReviewLogResponse is the wire form of one review history entry.
type ReviewLogResponse struct {
	ID          string    `json:"id"`
	RatedAt     time.Time `json:"rated_at"`
	Rating      int       `json:"rating"`
	TimeTakenMs int64     `json:"time_taken_ms"`
}

// CardResponse is the wire form of a card.
type CardResponse struct {
	ID            string              `json:"id"`
	Content       interface{}         `json:"content"`
	Learning      LearningResponse    `json:"learning"`
	ReviewHistory []ReviewLogResponse `json:"review_history,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// StatsResponse is the wire form of a deck's aggregate statistics.
type StatsResponse struct {
	Total            int        `json:"total"`
	New              int        `json:"new"`
	Learning         int        `json:"learning"`
	Review           int        `json:"review"`
	Mastered         int        `json:"mastered"`
	MasteryRate      float64    `json:"mastery_rate"`
	LastStudiedAt    *time.Time `json:"last_studied_at,omitempty"`
	TotalStudyTimeMs int64      `json:"total_study_time_ms"`
	TotalReviews     int        `json:"total_reviews"`
}

// DeckResponse is the wire form of a deck.
type DeckResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	CardIDs   []string            `json:"card_ids"`
	Settings  domain.DeckSettings `json:"settings"`
	Stats     StatsResponse       `json:"stats"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SessionResponse is the wire form of a study session snapshot.
type SessionResponse struct {
	ID          string    `json:"id"`
	DeckID      string    `json:"deck_id"`
	Phase       string    `json:"phase"`
	QueueSize   int       `json:"queue_size"`
	Position    int       `json:"position"`
	Reviewed    int       `json:"reviewed"`
	StudyTimeMs int64     `json:"study_time_ms"`
	StartedAt   time.Time `json:"started_at"`
}

// RatingResultResponse is the wire form of a recorded rating: the card as
// persisted, the assigned interval, and the session state after the advance.
type RatingResultResponse struct {
	Card     CardResponse    `json:"card"`
	Interval int             `json:"interval"`
	Session  SessionResponse `json:"session"`
}

// QueueResponse is the wire form of a study queue preview.
type QueueResponse struct {
	DeckID string         `json:"deck_id"`
	Count  int            `json:"count"`
	Cards  []CardResponse `json:"cards"`
}

// cardToResponse converts a domain.Card to a CardResponse.
func cardToResponse(card *domain.Card) CardResponse {
	var content interface{}
	if err := json.Unmarshal(card.Content, &content); err != nil {
		// In case we can't unmarshal, return raw bytes as a string representation
		content = string(card.Content)
	}

	history := make([]ReviewLogResponse, 0, len(card.ReviewHistory))
	for _, entry := range card.ReviewHistory {
		history = append(history, ReviewLogResponse{
			ID:          entry.ID,
			RatedAt:     entry.RatedAt,
			Rating:      int(entry.Rating),
			TimeTakenMs: entry.TimeTaken.Milliseconds(),
		})
	}

	return CardResponse{
		ID:            card.ID.String(),
		Content:       content,
		Learning:      learningToResponse(card.Learning),
		ReviewHistory: history,
		CreatedAt:     card.CreatedAt,
		UpdatedAt:     card.UpdatedAt,
	}
}

// learningToResponse converts a domain.LearningState to a LearningResponse.
func learningToResponse(state domain.LearningState) LearningResponse {
	return LearningResponse{
		Stability:      state.Stability,
		Difficulty:     state.Difficulty,
		Interval:       state.Interval,
		Repetitions:    state.Repetitions,
		NextReviewAt:   state.NextReviewAt,
		LastReviewedAt: state.LastReviewedAt,
		Status:         string(state.Status),
	}
}

// statsToResponse converts a domain.DeckStats to a StatsResponse.
func statsToResponse(stats domain.DeckStats) StatsResponse {
	return StatsResponse{
		Total:            stats.Total,
		New:              stats.New,
		Learning:         stats.Learning,
		Review:           stats.Review,
		Mastered:         stats.Mastered,
		MasteryRate:      stats.MasteryRate,
		LastStudiedAt:    stats.LastStudiedAt,
		TotalStudyTimeMs: stats.TotalStudyTime.Milliseconds(),
		TotalReviews:     stats.TotalReviews,
	}
}

// deckToResponse converts a domain.Deck to a DeckResponse.
func deckToResponse(deck *domain.Deck) DeckResponse {
	cardIDs := make([]string, 0, len(deck.CardIDs))
	for _, id := range deck.CardIDs {
		cardIDs = append(cardIDs, id.String())
	}

	return DeckResponse{
		ID:        deck.ID.String(),
		Name:      deck.Name,
		CardIDs:   cardIDs,
		Settings:  deck.Settings,
		Stats:     statsToResponse(deck.Stats),
		CreatedAt: deck.CreatedAt,
		UpdatedAt: deck.UpdatedAt,
	}
}

// sessionToResponse converts a review.Session snapshot to a SessionResponse.
func sessionToResponse(session review.Session) SessionResponse {
	return SessionResponse{
		ID:          session.ID.String(),
		DeckID:      session.DeckID.String(),
		Phase:       string(session.Phase),
		QueueSize:   session.QueueSize,
		Position:    session.Position,
		Reviewed:    session.Reviewed,
		StudyTimeMs: session.StudyTime.Milliseconds(),
		StartedAt:   session.StartedAt,
	}
}
