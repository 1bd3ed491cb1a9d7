/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package text implements the answer normalizer and fuzzy matcher used to
// arbitrate guesses in text mode and to verify guesses in buzzer mode.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// bracketed matches a single non-greedy balanced (...), [...], or {...}
// group. Nesting is not supported, matching spec.md's "single pass" rule.
var bracketed = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]|\{[^{}]*\}`)

// noiseTokens are removed case-insensitively before folding.
var noiseTokens = []*regexp.Regexp{
	regexp.MustCompile(`(?i)official video`),
	regexp.MustCompile(`(?i)lyrics?`),
	regexp.MustCompile(`(?i)audio`),
	regexp.MustCompile(`(?i)remaster(ed)?`),
	regexp.MustCompile(`(?i)\bhd\b`),
	regexp.MustCompile(`(?i)\bhq\b`),
	regexp.MustCompile(`(?i)\bmv\b`),
	regexp.MustCompile(`(?i)feat\.?`),
	regexp.MustCompile(`(?i)ft\.?`),
	regexp.MustCompile(`(?i)prod\.?`),
	regexp.MustCompile(`(?i)produced by`),
}

var nonWordRune = func(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r)
}

var spaceRun = regexp.MustCompile(`\s+`)

// Normalize reduces a free-form string to its canonical comparable form:
// bracketed asides and noise tokens stripped, case-folded, punctuation
// collapsed to whitespace, whitespace collapsed and trimmed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	out := bracketed.ReplaceAllString(s, " ")

	for _, re := range noiseTokens {
		out = re.ReplaceAllString(out, " ")
	}

	out = folder.String(out)

	out = strings.Map(func(r rune) rune {
		if nonWordRune(r) {
			return ' '
		}
		return r
	}, out)

	out = spaceRun.ReplaceAllString(out, " ")

	return strings.TrimSpace(out)
}

// tokens splits a normalized string into the set of its whitespace-separated
// tokens longer than 2 code points, per spec.md's token-overlap rule.
func tokens(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		if len([]rune(tok)) > 2 {
			set[tok] = true
		}
	}
	return set
}

// tokenOverlapRatio returns the overlap ratio of a against b, i.e.
// |a ∩ b| / |a|, or 0 if a is empty.
func tokenOverlapRatio(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if b[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}

// tokenOverlaps reports whether the overlap ratio against either side's
// cardinality reaches min, matching spec.md's "either direction" rule.
func tokenOverlaps(a, b map[string]bool, min float64) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return tokenOverlapRatio(a, b) >= min || tokenOverlapRatio(b, a) >= min
}

// bigrams returns the multiset of rune-bigrams of a normalized string, used
// by the Dice coefficient.
func bigrams(normalized string) map[string]int {
	runes := []rune(normalized)
	set := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])]++
	}
	return set
}

// diceCoefficient computes the Sørensen–Dice bigram similarity of two
// normalized strings, in [0,1].
func diceCoefficient(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		if a == b {
			return 1
		}
		return 0
	}

	ba := bigrams(a)
	bb := bigrams(b)

	overlap := 0
	for g, na := range ba {
		if nb, ok := bb[g]; ok {
			if na < nb {
				overlap += na
			} else {
				overlap += nb
			}
		}
	}

	total := (len(ra) - 1) + (len(rb) - 1)
	if total == 0 {
		return 0
	}

	return 2 * float64(overlap) / float64(total)
}

// substringEitherWay reports whether a is a substring of b or b is a
// substring of a; an empty string is never considered a substring match.
func substringEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
