package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the identity key for a concept name. Two names refer to
// the same concept iff their folded forms are equal.
func FoldName(name string) string {
	// A Caser carries state, so one is built per call.
	return cases.Fold().String(strings.TrimSpace(name))
}

// SameName reports whether a and b name the same concept.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
