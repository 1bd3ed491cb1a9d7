/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package text

import "strings"

const (
	unifiedTokenOverlapMin  = 0.7
	unifiedDiceMin          = 0.65
	detailedTokenOverlapMin = 0.7
	detailedDiceMin         = 0.7
)

// MatchUnified implements the text-mode guess arbitration: true if the
// normalized guess contains (or is contained by) the normalized title or
// artist, or their tokens overlap enough, or their bigrams are similar
// enough. An empty normalized guess never matches.
func MatchUnified(guess, title, artist string) bool {
	ng := Normalize(guess)
	if ng == "" {
		return false
	}

	nt := Normalize(title)
	na := Normalize(artist)

	if substringEitherWay(ng, nt) || substringEitherWay(ng, na) {
		return true
	}

	gt := tokens(ng)
	if tokenOverlaps(gt, tokens(nt), unifiedTokenOverlapMin) ||
		tokenOverlaps(gt, tokens(na), unifiedTokenOverlapMin) {
		return true
	}

	if diceCoefficient(ng, nt) >= unifiedDiceMin || diceCoefficient(ng, na) >= unifiedDiceMin {
		return true
	}

	return false
}

// DetailedResult is the outcome of a per-side arbitration used in buzzer
// mode and by host verification.
type DetailedResult struct {
	ArtistCorrect bool
	TitleCorrect  bool
}

// matchesSide reports whether normalized guess g is an acceptable match for
// normalized target t, per the detailed-match rule: equality, substring
// either way, token overlap, or Dice similarity.
func matchesSide(g, t string) bool {
	if g == "" || t == "" {
		return false
	}
	if g == t {
		return true
	}
	if substringEitherWay(g, t) {
		return true
	}
	if tokenOverlaps(tokens(g), tokens(t), detailedTokenOverlapMin) {
		return true
	}
	if diceCoefficient(g, t) >= detailedDiceMin {
		return true
	}
	return false
}

// MatchDetailed arbitrates a buzzer-mode or host-verification guess against
// the round's target, matching each side independently, with cross-fallback:
// a side also matches if the *other* guess field satisfies it, so a single
// combined guess string (passed as either side) can still satisfy both. If
// the target title textually contains the target artist's normalized form,
// the title stripped of that artist substring is also an acceptable
// alternative target for the title side.
func MatchDetailed(guessArtist, guessTitle, targetArtist, targetTitle string) DetailedResult {
	ga := Normalize(guessArtist)
	gt := Normalize(guessTitle)
	ta := Normalize(targetArtist)
	tt := Normalize(targetTitle)

	return DetailedResult{
		ArtistCorrect: matchesSide(ga, ta) || matchesSide(gt, ta),
		TitleCorrect:  matchesSide(gt, tt) || matchesSide(ga, tt) || matchesSide(gt, strippedTitle(tt, ta)) || matchesSide(ga, strippedTitle(tt, ta)),
	}
}

// strippedTitle removes the normalized artist substring from the normalized
// title, if present, collapsing the resulting whitespace. Returns "" (never
// matching) when the artist is absent from the title or either is empty.
func strippedTitle(title, artist string) string {
	if title == "" || artist == "" {
		return ""
	}
	idx := strings.Index(title, artist)
	if idx < 0 {
		return ""
	}
	stripped := title[:idx] + title[idx+len(artist):]
	return Normalize(stripped)
}
