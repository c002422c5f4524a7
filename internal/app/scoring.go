package app

import (
	"math"
	"time"
)

const (
	// defaultBasePoints applies when a question declares no point value.
	defaultBasePoints = 1000

	// answerGrace is how far past a question's time limit an answer may still
	// arrive; covers clock skew and transport delay.
	answerGrace = 2 * time.Second
)

// scoreAnswer computes the points awarded for an answer.
//
// Incorrect answers score 0. Correct answers decay linearly with elapsed
// time: round(base * (1 - 0.5*elapsed/limit)), clamped to
// [round(base*0.5), base]. Elapsed is clamped to [0, limit] first, so a
// faster correct answer never scores fewer points than a slower one and a
// correct answer never scores below half the base value.
func scoreAnswer(correct bool, elapsed, limit time.Duration, base int) int {
	if !correct {
		return 0
	}
	if base <= 0 {
		base = defaultBasePoints
	}
	if limit <= 0 {
		return base
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		elapsed = limit
	}

	frac := float64(elapsed) / float64(limit)
	points := int(math.Round(float64(base) * (1 - 0.5*frac)))

	floor := int(math.Round(float64(base) * 0.5))
	if points < floor {
		points = floor
	}
	if points > base {
		points = base
	}
	return points
}
