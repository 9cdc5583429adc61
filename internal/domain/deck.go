package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default daily quotas applied when a deck is created without settings.
const (
	DefaultNewCardsPerDay    = 20
	DefaultReviewCardsPerDay = 200
)

// Common validation errors for Deck.
var (
	ErrDeckIDEmpty         = errors.New("deck ID cannot be empty")
	ErrDeckNameEmpty       = errors.New("deck name cannot be empty")
	ErrInvalidDeckSettings = errors.New("deck daily quotas must be positive")
	ErrDuplicateCardID     = errors.New("card already belongs to the deck")
)

// DeckSettings holds the per-deck daily study quotas.
type DeckSettings struct {
	NewCardsPerDay    int `json:"new_cards_per_day"`
	ReviewCardsPerDay int `json:"review_cards_per_day"`
}

// DefaultDeckSettings returns the quotas used when a deck is created
// without explicit settings.
func DefaultDeckSettings() DeckSettings {
	return DeckSettings{
		NewCardsPerDay:    DefaultNewCardsPerDay,
		ReviewCardsPerDay: DefaultReviewCardsPerDay,
	}
}

// Validate checks that both quotas are positive.
func (s DeckSettings) Validate() error {
	if s.NewCardsPerDay <= 0 || s.ReviewCardsPerDay <= 0 {
		return ErrInvalidDeckSettings
	}
	return nil
}

// DeckStats is the deck-level aggregate view derived from the deck's cards.
// It is a cache, recomputed by the scheduler after each review batch; the
// cards themselves remain the source of truth and the stats must always be
// reproducible by re-scanning them.
type DeckStats struct {
	Total          int           `json:"total"`
	New            int           `json:"new"`
	Learning       int           `json:"learning"`
	Review         int           `json:"review"`
	Mastered       int           `json:"mastered"`
	MasteryRate    float64       `json:"mastery_rate"`
	LastStudiedAt  *time.Time    `json:"last_studied_at,omitempty"`
	TotalStudyTime time.Duration `json:"total_study_time"`
	TotalReviews   int           `json:"total_reviews"`
}

// Deck groups cards for study. It owns its member cards only through their
// IDs, in insertion order; cards carry no back-pointer to the deck, so
// moving a card between decks touches nothing but the membership lists.
type Deck struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	CardIDs   []uuid.UUID  `json:"card_ids"`
	Settings  DeckSettings `json:"settings"`
	Stats     DeckStats    `json:"stats"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewDeck creates a new empty Deck with the given name. Zero-valued
// settings are replaced with the defaults.
// Returns an error if validation fails.
func NewDeck(name string, settings DeckSettings, now time.Time) (*Deck, error) {
	if settings == (DeckSettings{}) {
		settings = DefaultDeckSettings()
	}

	deck := &Deck{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CardIDs:   []uuid.UUID{},
		Settings:  settings,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if strings.TrimSpace(d.Name) == "" {
		return ErrDeckNameEmpty
	}

	if err := d.Settings.Validate(); err != nil {
		return err
	}

	return nil
}

// ContainsCard reports whether the card ID is a member of the deck.
func (d *Deck) ContainsCard(id uuid.UUID) bool {
	for _, cardID := range d.CardIDs {
		if cardID == id {
			return true
		}
	}
	return false
}

// AddCardID appends a card to the deck's membership list, preserving
// insertion order. Returns an error for a nil ID or a duplicate.
func (d *Deck) AddCardID(id uuid.UUID, now time.Time) error {
	if id == uuid.Nil {
		return ErrCardIDEmpty
	}

	if d.ContainsCard(id) {
		return ErrDuplicateCardID
	}

	d.CardIDs = append(d.CardIDs, id)
	d.UpdatedAt = now.UTC()
	return nil
}

// RemoveCardID drops a card from the membership list. Reports whether the
// card was a member.
func (d *Deck) RemoveCardID(id uuid.UUID, now time.Time) bool {
	for i, cardID := range d.CardIDs {
		if cardID == id {
			d.CardIDs = append(d.CardIDs[:i], d.CardIDs[i+1:]...)
			d.UpdatedAt = now.UTC()
			return true
		}
	}
	return false
}

// UpdateSettings replaces the deck's daily quotas.
// Returns an error if the new settings are invalid.
func (d *Deck) UpdateSettings(settings DeckSettings, now time.Time) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	d.Settings = settings
	d.UpdatedAt = now.UTC()
	return nil
}

// UpdateStats installs a freshly recomputed aggregate view.
func (d *Deck) UpdateStats(stats DeckStats, now time.Time) {
	d.Stats = stats
	d.UpdatedAt = now.UTC()
}
