package jit

import "jitvault/internal/poolmath"

// Band derives the fixed-width tick band for a swap: the current tick
// floored to the nearest spacing multiple, shifted down one spacing, with
// the upper bound exactly one spacing above the lower.
func Band(tick, spacing int32) (lower, upper int32) {
	lower = poolmath.FloorToSpacing(tick, spacing) - spacing
	upper = lower + spacing
	return lower, upper
}
