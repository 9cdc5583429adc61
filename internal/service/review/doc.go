// Package review orchestrates study sessions: it pulls the day's queue
// from the scheduler, presents cards one at a time, forwards each rating
// through the scheduling algorithm, and persists the outcome before the
// session advances.
//
// Sessions are in-memory state machines, never persisted; a crash loses at
// most the position in the queue, never a recorded rating. Each deck runs
// at most one session at a time, and all operations on a session are
// serialized by a per-session lock, which also serializes writes per card
// since a card sits in at most one live queue.
package review
