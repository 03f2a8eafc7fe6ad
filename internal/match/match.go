// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match decides whether a provider search result is the book that
// was asked for, and which of several matching files to prefer.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// SimilarityThreshold is the bigram similarity a title must exceed to match
// when the normalized forms differ. Fixed; do not tune.
const SimilarityThreshold = 0.8

// formatPriority lists acceptable formats, most preferred first.
var formatPriority = []types.Format{types.FormatEPUB, types.FormatMOBI, types.FormatPDF}

// TitleMatches reports whether candidate names the same book as query.
// Digits are stripped by Normalize, so titles that differ only in a volume
// or year number match.
func TitleMatches(query, candidate string) bool {
	return Normalize(query) == Normalize(candidate) || Similarity(query, candidate) > SimilarityThreshold
}

// FilterByTitle returns the candidates whose title matches query, in input order.
func FilterByTitle(query string, candidates []types.Candidate) []types.Candidate {
	var out []types.Candidate
	for _, c := range candidates {
		if TitleMatches(query, c.Title) {
			out = append(out, c)
		}
	}
	return out
}

// PickFormat returns the first epub, else the first mobi, else the first pdf.
func PickFormat(candidates []types.Candidate) (types.Candidate, bool) {
	for _, f := range formatPriority {
		for _, c := range candidates {
			if c.Format == f {
				return c, true
			}
		}
	}
	return types.Candidate{}, false
}

// BestMatch filters by title and then picks by format.
func BestMatch(query string, candidates []types.Candidate) (types.Candidate, bool) {
	return PickFormat(FilterByTitle(query, candidates))
}

// Normalize lower-cases s and strips the fixed punctuation set: ',' through
// ';' (which covers '-', '.', '/', digits and ':'), the em dash, '!' and '?'.
func Normalize(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if stripped(r) {
			return -1
		}
		return r
	}, s)
}

func stripped(r rune) bool {
	switch {
	case r >= ',' && r <= ';':
		return true
	case r == '—', r == '!', r == '?':
		return true
	}
	return false
}

// Similarity returns the Sørensen–Dice coefficient of the character bigrams
// of a and b, ignoring whitespace. It is case sensitive. Identical inputs
// score 1; inputs shorter than two runes otherwise score 0.
func Similarity(a, b string) float64 {
	ra := []rune(removeSpace(norm.NFC.String(a)))
	rb := []rune(removeSpace(norm.NFC.String(b)))
	if string(ra) == string(rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if bigrams[bg] > 0 {
			bigrams[bg]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}

func removeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
