package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/store"
)

// mustDeck creates a deck and saves it, failing the test on any error.
func mustDeck(t *testing.T, s *Store, name string) *domain.Deck {
	t.Helper()

	deck, err := domain.NewDeck(name, domain.DeckSettings{NewCardsPerDay: 5, ReviewCardsPerDay: 10}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Decks.Create(context.Background(), deck))
	return deck
}

// mustCard creates a card in the given deck, failing the test on any error.
func mustCard(t *testing.T, s *Store, deckID uuid.UUID, front string) *domain.Card {
	t.Helper()

	content, err := json.Marshal(domain.CardContent{Front: front, Back: front + " (back)"})
	require.NoError(t, err)

	card, err := domain.NewCard(content, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Cards.Create(context.Background(), deckID, card))
	return card
}

func TestDeckStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")

	got, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.ID, got.ID)
	assert.Equal(t, "Spanish Vocabulary", got.Name)
	assert.Equal(t, deck.Settings, got.Settings)
	assert.NotNil(t, got.CardIDs)
	assert.Empty(t, got.CardIDs)

	_, err = s.Decks.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeckStoreCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")

	sameName, err := domain.NewDeck("Spanish Vocabulary", deck.Settings, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Decks.Create(ctx, sameName), store.ErrDeckNameExists)

	sameID := *deck
	sameID.Name = "Different Name"
	assert.ErrorIs(t, s.Decks.Create(ctx, &sameID), store.ErrDuplicate)

	invalid := &domain.Deck{}
	assert.ErrorIs(t, s.Decks.Create(ctx, invalid), store.ErrInvalidEntity)
}

func TestDeckStoreListKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	mustDeck(t, s, "First")
	mustDeck(t, s, "Second")
	mustDeck(t, s, "Third")

	decks, err := s.Decks.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 3)
	assert.Equal(t, "First", decks[0].Name)
	assert.Equal(t, "Second", decks[1].Name)
	assert.Equal(t, "Third", decks[2].Name)
}

func TestDeckStoreGetByCardID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	other := mustDeck(t, s, "French Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	got, err := s.Decks.GetByCardID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.ID, got.ID)
	assert.NotEqual(t, other.ID, got.ID)

	_, err = s.Decks.GetByCardID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestDeckStoreUpdateSettings(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")

	newSettings := domain.DeckSettings{NewCardsPerDay: 3, ReviewCardsPerDay: 30}
	require.NoError(t, s.Decks.UpdateSettings(ctx, deck.ID, newSettings))

	got, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, newSettings, got.Settings)
	assert.False(t, got.UpdatedAt.Before(deck.UpdatedAt))

	err = s.Decks.UpdateSettings(ctx, deck.ID, domain.DeckSettings{})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	err = s.Decks.UpdateSettings(ctx, uuid.New(), newSettings)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeckStoreUpdateStats(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")

	studiedAt := time.Now().UTC()
	stats := domain.DeckStats{
		Total:          4,
		New:            1,
		Learning:       2,
		Review:         1,
		MasteryRate:    0.0,
		LastStudiedAt:  &studiedAt,
		TotalStudyTime: 90 * time.Second,
		TotalReviews:   12,
	}
	require.NoError(t, s.Decks.UpdateStats(ctx, deck.ID, stats))

	got, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Stats.LastStudiedAt)
	assert.True(t, got.Stats.LastStudiedAt.Equal(studiedAt))
	assert.Equal(t, 12, got.Stats.TotalReviews)
	assert.Equal(t, 90*time.Second, got.Stats.TotalStudyTime)

	// The stored copy must not alias the caller's timestamp.
	studiedAt = studiedAt.Add(time.Hour)
	reread, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.False(t, reread.Stats.LastStudiedAt.Equal(studiedAt))

	err = s.Decks.UpdateStats(ctx, uuid.New(), stats)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeckStoreDeleteRemovesCardsAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	entry, err := domain.NewReviewLog(card.ID, domain.RatingGood, 3*time.Second, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.ReviewLogs.Append(ctx, entry))

	require.NoError(t, s.Decks.Delete(ctx, deck.ID))

	_, err = s.Decks.GetByID(ctx, deck.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	_, err = s.Cards.GetByID(ctx, card.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	entries, err := s.ReviewLogs.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.Decks.Delete(ctx, deck.ID), store.ErrDeckNotFound)
}

func TestDeckStoreMerge(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := mustDeck(t, s, "Spanish A1")
	second := mustDeck(t, s, "Spanish A2")
	a1 := mustCard(t, s, first.ID, "uno")
	a2 := mustCard(t, s, first.ID, "dos")
	b1 := mustCard(t, s, second.ID, "tres")

	merged, err := s.Decks.Merge(ctx, []uuid.UUID{first.ID, second.ID}, "Spanish Combined")
	require.NoError(t, err)
	assert.Equal(t, "Spanish Combined", merged.Name)
	assert.Equal(t, first.Settings, merged.Settings)
	assert.Equal(t, []uuid.UUID{a1.ID, a2.ID, b1.ID}, merged.CardIDs)
	assert.Equal(t, domain.DeckStats{}, merged.Stats)

	_, err = s.Decks.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
	_, err = s.Decks.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	cards, err := s.Cards.ListByDeck(ctx, merged.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, a1.ID, cards[0].ID)
	assert.Equal(t, b1.ID, cards[2].ID)

	decks, err := s.Decks.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, merged.ID, decks[0].ID)
}

func TestDeckStoreMergeFailures(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := mustDeck(t, s, "Spanish A1")
	second := mustDeck(t, s, "Spanish A2")
	mustDeck(t, s, "Taken")

	_, err := s.Decks.Merge(ctx, []uuid.UUID{first.ID, second.ID}, "Taken")
	assert.ErrorIs(t, err, store.ErrDeckNameExists)

	// A failed merge must leave the sources untouched.
	_, err = s.Decks.GetByID(ctx, first.ID)
	assert.NoError(t, err)
	_, err = s.Decks.GetByID(ctx, second.ID)
	assert.NoError(t, err)

	_, err = s.Decks.Merge(ctx, []uuid.UUID{first.ID, second.ID}, "")
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	_, err = s.Decks.Merge(ctx, []uuid.UUID{first.ID, uuid.New()}, "Fresh Name")
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	_, err = s.Decks.Merge(ctx, nil, "Fresh Name")
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestCardStoreCreateAndListByDeck(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	first := mustCard(t, s, deck.ID, "uno")
	second := mustCard(t, s, deck.ID, "dos")

	cards, err := s.Cards.ListByDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, first.ID, cards[0].ID)
	assert.Equal(t, second.ID, cards[1].ID)
	assert.NotNil(t, cards[0].ReviewHistory)

	got, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, got.CardIDs)

	card, err := domain.NewCard(json.RawMessage(`{"front":"x"}`), time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Cards.Create(ctx, uuid.New(), card), store.ErrDeckNotFound)

	_, err = s.Cards.ListByDeck(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	assert.ErrorIs(t, s.Cards.Create(ctx, deck.ID, &domain.Card{}), store.ErrInvalidEntity)
}

func TestCardStoreUpdateLearning(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	now := time.Now().UTC()
	reviewed := now
	card.Learning = domain.LearningState{
		Stability:      1.2,
		Difficulty:     4.8,
		Interval:       2,
		Repetitions:    1,
		NextReviewAt:   now.Add(48 * time.Hour),
		LastReviewedAt: &reviewed,
		Status:         domain.CardStatusLearning,
	}
	card.UpdatedAt = now
	require.NoError(t, s.Cards.UpdateLearning(ctx, card))

	got, err := s.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.2, got.Learning.Stability)
	assert.Equal(t, domain.CardStatusLearning, got.Learning.Status)
	require.NotNil(t, got.Learning.LastReviewedAt)
	assert.True(t, got.Learning.LastReviewedAt.Equal(reviewed))
	assert.JSONEq(t, string(card.Content), string(got.Content))

	card.Learning.Stability = -1
	assert.ErrorIs(t, s.Cards.UpdateLearning(ctx, card), store.ErrInvalidEntity)

	missing := *card
	missing.ID = uuid.New()
	missing.Learning.Stability = 1.2
	assert.ErrorIs(t, s.Cards.UpdateLearning(ctx, &missing), store.ErrCardNotFound)
}

func TestCardStoreUpdateContent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	require.NoError(t, s.Cards.UpdateContent(ctx, card.ID, []byte(`{"front":"hola","back":"hello"}`)))

	got, err := s.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"front":"hola","back":"hello"}`, string(got.Content))

	err = s.Cards.UpdateContent(ctx, card.ID, []byte(`{not json`))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	err = s.Cards.UpdateContent(ctx, uuid.New(), []byte(`{}`))
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	keep := mustCard(t, s, deck.ID, "uno")
	drop := mustCard(t, s, deck.ID, "dos")

	require.NoError(t, s.Cards.Delete(ctx, drop.ID))

	_, err := s.Cards.GetByID(ctx, drop.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	got, err := s.Decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{keep.ID}, got.CardIDs)

	assert.ErrorIs(t, s.Cards.Delete(ctx, drop.ID), store.ErrCardNotFound)
}

func TestReviewLogStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	first, err := domain.NewReviewLog(card.ID, domain.RatingAgain, 5*time.Second, time.Now())
	require.NoError(t, err)
	second, err := domain.NewReviewLog(card.ID, domain.RatingGood, 2*time.Second, time.Now())
	require.NoError(t, err)

	require.NoError(t, s.ReviewLogs.Append(ctx, first))
	require.NoError(t, s.ReviewLogs.Append(ctx, second))

	entries, err := s.ReviewLogs.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)

	assert.ErrorIs(t, s.ReviewLogs.Append(ctx, first), store.ErrDuplicate)

	orphan, err := domain.NewReviewLog(uuid.New(), domain.RatingGood, time.Second, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.ReviewLogs.Append(ctx, orphan), store.ErrCardNotFound)

	assert.ErrorIs(t, s.ReviewLogs.Append(ctx, domain.ReviewLog{}), store.ErrInvalidEntity)
}

func TestStoreSaveReview(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	now := time.Now().UTC()
	entry, err := domain.NewReviewLog(card.ID, domain.RatingGood, 4*time.Second, now)
	require.NoError(t, err)

	state := domain.LearningState{
		Stability:      0.78,
		Difficulty:     4.8,
		Interval:       1,
		Repetitions:    1,
		NextReviewAt:   now.Add(24 * time.Hour),
		LastReviewedAt: &now,
		Status:         domain.CardStatusLearning,
	}
	require.NoError(t, card.ApplyReview(state, entry, now))

	require.NoError(t, s.SaveReview(ctx, card, entry))

	got, err := s.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Learning.Repetitions)
	assert.Equal(t, domain.CardStatusLearning, got.Learning.Status)
	require.Len(t, got.ReviewHistory, 1)
	assert.Equal(t, entry.ID, got.ReviewHistory[0].ID)

	// Saving the same entry twice must not duplicate history.
	assert.ErrorIs(t, s.SaveReview(ctx, card, entry), store.ErrDuplicate)

	missing := *card
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.SaveReview(ctx, &missing, entry), store.ErrCardNotFound)
}

func TestStoreReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	deck := mustDeck(t, s, "Spanish Vocabulary")
	card := mustCard(t, s, deck.ID, "hola")

	got, err := s.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	got.CardIDs = append(got.CardIDs, uuid.New())
	got.Name = "Mutated"

	reread, err := s.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spanish Vocabulary", reread.Name)
	assert.Equal(t, []uuid.UUID{card.ID}, reread.CardIDs)

	cards, err := s.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	cards[0].Content[0] = 'X'

	rereadCard, err := s.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(card.Content), string(rereadCard.Content))
}
