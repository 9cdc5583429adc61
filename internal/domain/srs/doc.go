// Package srs implements the spaced-repetition update algorithms that turn
// a recall rating into a new learning state and review interval.
//
// The default model is a simplified FSRS-style forgetting curve: recall
// probability decays as exp(-t/stability), a successful review grows
// stability in proportion to how surprising the recall was, and the next
// interval is the time at which predicted recall falls to a fixed target
// retention. The simplification is intentional (fixed linear difficulty
// deltas, a single growth constant); it does not reproduce published FSRS
// parameter fits.
//
// A classic SM-2 ease-factor variant is provided behind the same Algorithm
// interface so schedulers and session controllers never depend on a
// particular formula.
package srs
