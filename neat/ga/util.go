package ga

import (
	"math"
	"math/rand"
	"strings"
)

// clamp and parseBoolAttribute are duplicated from neat/math_util.go rather
// than imported qualified: both are unexported there, and genes.go carried
// the same duplication (commented out, "included here to make genes.go
// runnable standalone") back when this file lived in the core package.
// Now that the genetic representation is its own package, the duplication
// is load-bearing instead of vestigial.

func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

func parseBoolAttribute(valStr string) bool {
	valStr = strings.ToLower(strings.TrimSpace(valStr))
	if valStr == "true" || valStr == "yes" || valStr == "on" || valStr == "1" {
		return true
	}
	if valStr == "random" || valStr == "none" {
		return rand.Float64() < 0.5
	}
	return false
}

// max returns the greater of two integers; genome.go/reproduction.go name
// their own package-level max the way the teacher did, shadowing the
// builtin of the same name within this package.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
