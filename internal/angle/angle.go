// Package angle holds the degree arithmetic used by the receiver: range
// checks, normalisation into [0, 360), wrap-aware interpolation and the
// mapping of a single angle onto one axis of a rotation.
package angle

import "math"

const fullTurn = 360.0

// Valid reports whether a decoded sensor reading is inside the range the
// encoder can produce. Both ends are inclusive; NaN is never valid.
func Valid(a float64) bool {
	return a >= 0 && a <= fullTurn
}

// Normalize maps a finite angle into [0, 360).
func Normalize(a float64) float64 {
	a = math.Mod(a, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	// math.Mod of a tiny negative value can round back up to exactly 360.
	if a >= fullTurn {
		a -= fullTurn
	}
	return a
}

// Process applies the configured multiplier and offset to a raw reading and
// returns the result normalised into [0, 360).
func Process(raw, multiplier, offset float64) float64 {
	return Normalize(math.Mod(raw*multiplier+offset+fullTurn, fullTurn))
}

// Lerp interpolates from current towards target along the shortest arc.
// Going from 350 to 10 moves forward through 0 rather than back by 340.
func Lerp(current, target, alpha float64) float64 {
	diff := math.Mod(target-current, fullTurn)
	if diff > 180 {
		diff -= fullTurn
	} else if diff < -180 {
		diff += fullTurn
	}
	return Normalize(current + diff*clamp01(alpha))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
