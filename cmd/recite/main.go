// Package main implements the recite server, a spaced-repetition
// scheduling service for flashcard decks.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
