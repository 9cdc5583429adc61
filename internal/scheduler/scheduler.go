// Package scheduler decides which of a deck's cards are due for study on a
// given day and recomputes the deck-level aggregate statistics. Both
// operations are pure: they take the clock as an argument and never touch
// storage.
package scheduler

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/okeefe/recite-api/internal/domain"
)

// CardsToStudy builds the day's study queue for a deck.
//
// Cards are partitioned into due reviews (next review at or before now,
// status no longer new) and new cards. Due reviews are ordered earliest-due
// first, ties broken by lower stability so the most fragile memories come
// up first, and capped at the deck's ReviewCardsPerDay. New cards keep
// their creation order and are capped at NewCardsPerDay. The returned
// queue is the review group followed by the new group: clearing the
// backlog takes priority over fresh material.
//
// Ordering is fully deterministic for a given now and card set; there is
// no shuffling. A deck with nothing eligible yields an empty queue, which
// callers treat as "nothing to study today", not an error.
func CardsToStudy(deck *domain.Deck, cards []domain.Card, now time.Time) []domain.Card {
	newCards := lo.Filter(cards, func(c domain.Card, _ int) bool {
		return c.Learning.Status == domain.CardStatusNew
	})

	dueCards := lo.Filter(cards, func(c domain.Card, _ int) bool {
		return c.Learning.Status != domain.CardStatusNew && c.IsDue(now)
	})

	sort.SliceStable(dueCards, func(i, j int) bool {
		a, b := dueCards[i].Learning, dueCards[j].Learning
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		return a.Stability < b.Stability
	})

	dueCards = capQueue(dueCards, deck.Settings.ReviewCardsPerDay)
	newCards = capQueue(newCards, deck.Settings.NewCardsPerDay)

	queue := make([]domain.Card, 0, len(dueCards)+len(newCards))
	queue = append(queue, dueCards...)
	queue = append(queue, newCards...)
	return queue
}

func capQueue(cards []domain.Card, limit int) []domain.Card {
	if limit < 0 {
		limit = 0
	}
	if len(cards) > limit {
		return cards[:limit]
	}
	return cards
}
