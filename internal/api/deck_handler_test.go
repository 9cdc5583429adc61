package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okeefe/recite-api/internal/domain"
)

func TestCreateDeckEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("creates a deck with default quotas", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{Name: "Spanish Vocabulary"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var deck DeckResponse
		decode(t, rec, &deck)
		assert.Equal(t, "Spanish Vocabulary", deck.Name)
		assert.Equal(t, domain.DefaultDeckSettings(), deck.Settings)
		assert.Empty(t, deck.CardIDs)
	})

	t.Run("creates a deck with explicit quotas", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{
			Name:              "Kanji",
			NewCardsPerDay:    5,
			ReviewCardsPerDay: 30,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var deck DeckResponse
		decode(t, rec, &deck)
		assert.Equal(t, domain.DeckSettings{NewCardsPerDay: 5, ReviewCardsPerDay: 30}, deck.Settings)
	})

	t.Run("rejects a partial quota pair", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{
			Name:           "Kanji",
			NewCardsPerDay: 5,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		f.mustCreateDeck(t, "Spanish Vocabulary")

		rec := f.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{Name: "Spanish Vocabulary"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListDecksEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/decks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var decks []DeckResponse
	decode(t, rec, &decks)
	assert.Empty(t, decks)

	f.mustCreateDeck(t, "First")
	f.mustCreateDeck(t, "Second")

	rec = f.do(t, http.MethodGet, "/api/decks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &decks)
	require.Len(t, decks, 2)
	assert.Equal(t, "First", decks[0].Name)
}

func TestGetDeckEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	created := f.mustCreateDeck(t, "Spanish Vocabulary")

	rec := f.do(t, http.MethodGet, "/api/decks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var deck DeckResponse
	decode(t, rec, &deck)
	assert.Equal(t, created.ID, deck.ID)

	rec = f.do(t, http.MethodGet, "/api/decks/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/decks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDeckSettingsEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	deck := f.mustCreateDeck(t, "Spanish Vocabulary")

	rec := f.do(t, http.MethodPatch, "/api/decks/"+deck.ID+"/settings", UpdateDeckSettingsRequest{
		NewCardsPerDay:    3,
		ReviewCardsPerDay: 15,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated DeckResponse
	decode(t, rec, &updated)
	assert.Equal(t, domain.DeckSettings{NewCardsPerDay: 3, ReviewCardsPerDay: 15}, updated.Settings)

	rec = f.do(t, http.MethodPatch, "/api/decks/"+deck.ID+"/settings", UpdateDeckSettingsRequest{
		NewCardsPerDay: 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDeckEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	deck := f.mustCreateDeck(t, "Spanish Vocabulary")

	rec := f.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/decks/"+deck.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeDecksEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("merges two decks into a new one", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		first := f.mustCreateDeck(t, "Spanish A1")
		second := f.mustCreateDeck(t, "Spanish A2")
		a := f.mustCreateCard(t, first.ID, "uno")
		b := f.mustCreateCard(t, second.ID, "dos")

		rec := f.do(t, http.MethodPost, "/api/decks/merge", MergeDecksRequest{
			DeckIDs: []string{first.ID, second.ID},
			Name:    "Spanish Combined",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var merged DeckResponse
		decode(t, rec, &merged)
		assert.Equal(t, "Spanish Combined", merged.Name)
		assert.Equal(t, []string{a.ID, b.ID}, merged.CardIDs)
		assert.Equal(t, 2, merged.Stats.Total)

		rec = f.do(t, http.MethodGet, "/api/decks/"+first.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects fewer than two decks", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		deck := f.mustCreateDeck(t, "Spanish A1")

		rec := f.do(t, http.MethodPost, "/api/decks/merge", MergeDecksRequest{
			DeckIDs: []string{deck.ID},
			Name:    "Renamed",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed deck IDs", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, http.MethodPost, "/api/decks/merge", MergeDecksRequest{
			DeckIDs: []string{"not-a-uuid", "also-bad"},
			Name:    "Combined",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeckStatsEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	deck := f.mustCreateDeck(t, "Spanish Vocabulary")
	f.mustCreateCard(t, deck.ID, "uno")
	f.mustCreateCard(t, deck.ID, "dos")

	rec := f.do(t, http.MethodGet, "/api/decks/"+deck.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.New)
	assert.Zero(t, stats.MasteryRate)

	rec = f.do(t, http.MethodGet, "/api/decks/"+deck.ID+"/stats?recompute=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Total)

	rec = f.do(t, http.MethodGet, "/api/decks/"+uuid.New().String()+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudyQueueEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	deck := f.mustCreateDeck(t, "Spanish Vocabulary")
	first := f.mustCreateCard(t, deck.ID, "uno")
	second := f.mustCreateCard(t, deck.ID, "dos")

	rec := f.do(t, http.MethodGet, "/api/decks/"+deck.ID+"/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var queue QueueResponse
	decode(t, rec, &queue)
	assert.Equal(t, deck.ID, queue.DeckID)
	assert.Equal(t, 2, queue.Count)
	require.Len(t, queue.Cards, 2)
	assert.Equal(t, first.ID, queue.Cards[0].ID)
	assert.Equal(t, second.ID, queue.Cards[1].ID)

	rec = f.do(t, http.MethodGet, "/api/decks/"+uuid.New().String()+"/queue", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
