// Package task runs the background maintenance work of the scheduling
// service: refreshing deck statistics when a deck's cards change and
// sweeping all decks on a schedule. Deck stats are a derived cache, so
// every task here is idempotent and safe to lose on shutdown; the queue is
// purely in-memory.
package task
