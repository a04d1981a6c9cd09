// Package fsrs holds the narrow surface this engine shares with the
// external FSRS scheduler: the rating scale, the scheduler interface the
// review flow consumes, and the display-only derivations shown in card
// info. Interval computation itself lives outside this repository.
package fsrs

import (
	"math"
	"time"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Valid reports whether r is one of the four FSRS ratings.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

// MemoryState is the scheduler-owned part of a card's state.
type MemoryState struct {
	Stability  float64
	Difficulty float64
}

// Result is what the scheduler hands back for one review.
type Result struct {
	State        MemoryState
	IntervalDays int
	Due          time.Time
}

// Scheduler computes the next memory state and interval for a review.
// Implemented outside this engine; the review flow only applies its output.
type Scheduler interface {
	NextState(prev MemoryState, elapsed time.Duration, rating Rating) Result
}

// Retrievability is the probability of recall elapsedDays after the
// last review of a card with the given stability: (1 + t/(9S))^-1.
// Cards with no stability yet (never successfully reviewed) report 0.
func Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return 1 / (1 + elapsedDays/(9*stability))
}

// LegacyEase maps FSRS difficulty (1..10) onto the SM-2 ease scale for
// display beside historic review data. Difficulty 1 shows as 2.8,
// difficulty 10 as the SM-2 floor of 1.3.
func LegacyEase(difficulty float64) float64 {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 10 {
		difficulty = 10
	}
	ease := 2.8 - (difficulty-1)*(1.5/9)
	return math.Round(ease*100) / 100
}
