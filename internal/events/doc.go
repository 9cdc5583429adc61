// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. Services can emit events without knowing which
// handlers will process them, enabling better separation of concerns and reducing
// circular dependencies.
//
// The primary components are:
// - DeckEvent: Signals that a deck's cards or review state changed
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
//
// Deck statistics are a derived cache, so every mutation that can change them
// (reviews, merges, card churn) emits a DeckEvent; the background stats
// refresher subscribes and re-derives the aggregates out of band.
package events
