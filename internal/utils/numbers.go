// Package utils provides small, generic helpers shared by the HTTP layer and
// the CLI. They carry no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as a decimal int, returning def when s is empty or
// not a valid int. Surrounding spaces are not trimmed.
//
//	utils.AtoiDefault("25", 0) // 25
//	utils.AtoiDefault("", 10)  // 10
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
