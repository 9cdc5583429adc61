package scheduler

import (
	"reflect"
	"testing"
	"time"

	"github.com/okeefe/recite-api/internal/domain"
)

func cardWithStatus(now time.Time, status domain.CardStatus) domain.Card {
	card := makeNewCard(now)
	card.Learning.Status = status
	return card
}

func withHistory(card domain.Card, entries ...domain.ReviewLog) domain.Card {
	card.ReviewHistory = entries
	return card
}

func TestRecomputeStatsCounts(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	cards := []domain.Card{
		cardWithStatus(now, domain.CardStatusNew),
		cardWithStatus(now, domain.CardStatusNew),
		cardWithStatus(now, domain.CardStatusLearning),
		cardWithStatus(now, domain.CardStatusReview),
		cardWithStatus(now, domain.CardStatusMastered),
		cardWithStatus(now, domain.CardStatusMastered),
	}

	stats := RecomputeStats(cards)

	if stats.Total != 6 {
		t.Errorf("Expected total 6, got %d", stats.Total)
	}
	if stats.New != 2 || stats.Learning != 1 || stats.Review != 1 || stats.Mastered != 2 {
		t.Errorf("Unexpected status counts: %+v", stats)
	}
	if stats.Total != stats.New+stats.Learning+stats.Review+stats.Mastered {
		t.Errorf("Status counts do not add up to the total: %+v", stats)
	}

	wantRate := 2.0 / 6.0
	if stats.MasteryRate != wantRate {
		t.Errorf("Expected mastery rate %f, got %f", wantRate, stats.MasteryRate)
	}
}

func TestRecomputeStatsHistory(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	first := withHistory(cardWithStatus(now, domain.CardStatusLearning),
		domain.ReviewLog{ID: "01A", RatedAt: now.Add(-48 * time.Hour), Rating: domain.RatingGood, TimeTaken: 4 * time.Second},
		domain.ReviewLog{ID: "01B", RatedAt: now.Add(-2 * time.Hour), Rating: domain.RatingGood, TimeTaken: 6 * time.Second},
	)
	second := withHistory(cardWithStatus(now, domain.CardStatusReview),
		domain.ReviewLog{ID: "01C", RatedAt: now.Add(-24 * time.Hour), Rating: domain.RatingHard, TimeTaken: 10 * time.Second},
	)

	stats := RecomputeStats([]domain.Card{first, second})

	if stats.TotalReviews != 3 {
		t.Errorf("Expected 3 total reviews, got %d", stats.TotalReviews)
	}

	if stats.TotalStudyTime != 20*time.Second {
		t.Errorf("Expected 20s of study time, got %v", stats.TotalStudyTime)
	}

	wantLast := now.Add(-2 * time.Hour)
	if stats.LastStudiedAt == nil || !stats.LastStudiedAt.Equal(wantLast) {
		t.Errorf("Expected last studied %v, got %v", wantLast, stats.LastStudiedAt)
	}
}

func TestRecomputeStatsEmptyDeck(t *testing.T) {
	t.Parallel()

	stats := RecomputeStats(nil)

	if stats.Total != 0 {
		t.Errorf("Expected total 0, got %d", stats.Total)
	}
	if stats.MasteryRate != 0 {
		t.Errorf("Expected mastery rate 0 for an empty deck, got %f", stats.MasteryRate)
	}
	if stats.LastStudiedAt != nil {
		t.Errorf("Expected no last studied time, got %v", stats.LastStudiedAt)
	}
}

func TestRecomputeStatsIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	cards := []domain.Card{
		withHistory(cardWithStatus(now, domain.CardStatusLearning),
			domain.ReviewLog{ID: "01A", RatedAt: now.Add(-time.Hour), Rating: domain.RatingGood, TimeTaken: 3 * time.Second},
		),
		cardWithStatus(now, domain.CardStatusMastered),
		cardWithStatus(now, domain.CardStatusNew),
	}

	first := RecomputeStats(cards)
	second := RecomputeStats(cards)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical stats, got %+v and %+v", first, second)
	}
}
