// Package domain contains the core business entities and value objects of
// the scheduling engine: cards with their per-card learning state, decks
// with settings and derived statistics, recall ratings, and the append-only
// review history. It is independent of any specific infrastructure or
// delivery mechanism.
package domain
