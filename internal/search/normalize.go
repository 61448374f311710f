// Package search answers launcher queries against one index generation:
// applications by name, then files and folders ranked by folder precedence
// and name relevance.
package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in Unicode NFC with lowercase letters. Queries and
// stored names are compared in this form, so precomposed and decomposed
// spellings of the same accented name match.
func Normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
