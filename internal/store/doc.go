// Package store defines the persistence interfaces consumed by the
// scheduling engine, together with the shared error vocabulary and
// transaction helpers. Implementations live under internal/platform.
package store
