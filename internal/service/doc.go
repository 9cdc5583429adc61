// Package service contains the application use cases built on top of the
// domain and store layers: deck lifecycle management and card management.
// Study sessions live in the review subpackage.
//
// Services receive their dependencies through constructor injection and
// depend only on repository interfaces, never on a concrete storage
// backend. Each service defines the repository interface it needs;
// store-backed adapters in this package satisfy them and own the
// transaction boundaries for multi-statement operations.
//
// Deck statistics are a derived cache. Operations that change a deck's card
// population refresh the stats synchronously on a best-effort basis and emit
// a deck event so the background refresher can heal a missed update.
package service
