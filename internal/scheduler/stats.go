package scheduler

import (
	"time"

	"github.com/samber/lo"

	"github.com/okeefe/recite-api/internal/domain"
)

// RecomputeStats derives a deck's aggregate statistics from its cards.
//
// The stats block on a deck is only a cache; this aggregation is the one
// way it is ever produced, so running it twice over the same card set must
// yield identical results. The card set remains the source of truth.
func RecomputeStats(cards []domain.Card) domain.DeckStats {
	byStatus := lo.CountValuesBy(cards, func(c domain.Card) domain.CardStatus {
		return c.Learning.Status
	})

	stats := domain.DeckStats{
		Total:    len(cards),
		New:      byStatus[domain.CardStatusNew],
		Learning: byStatus[domain.CardStatusLearning],
		Review:   byStatus[domain.CardStatusReview],
		Mastered: byStatus[domain.CardStatusMastered],
		TotalReviews: lo.SumBy(cards, func(c domain.Card) int {
			return len(c.ReviewHistory)
		}),
	}

	if stats.Total > 0 {
		stats.MasteryRate = float64(stats.Mastered) / float64(stats.Total)
	}

	var lastStudied time.Time
	for _, card := range cards {
		for _, entry := range card.ReviewHistory {
			stats.TotalStudyTime += entry.TimeTaken
			if entry.RatedAt.After(lastStudied) {
				lastStudied = entry.RatedAt
			}
		}
	}
	if !lastStudied.IsZero() {
		stats.LastStudiedAt = &lastStudied
	}

	return stats
}
