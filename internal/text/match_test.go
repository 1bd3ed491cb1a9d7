/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchUnifiedSelfConsistent(t *testing.T) {
	cases := []struct{ title, artist string }{
		{"Deszcz na betonie", "Taco Hemingway"},
		{"Bohemian Rhapsody", "Queen"},
		{"ラブストーリーは突然に", "小田和正"},
	}
	for _, c := range cases {
		assert.True(t, MatchUnified(c.title, c.title, c.artist), "title self-match: %+v", c)
		assert.True(t, MatchUnified(c.artist, c.title, c.artist), "artist self-match: %+v", c)
	}
}

func TestMatchUnifiedEmptyGuessNeverMatches(t *testing.T) {
	assert.False(t, MatchUnified("", "Deszcz na betonie", "Taco Hemingway"))
	assert.False(t, MatchUnified("   ", "Deszcz na betonie", "Taco Hemingway"))
}

func TestMatchUnifiedRobustnessScenario(t *testing.T) {
	require.True(t, MatchUnified(
		"Deszcz na betonie!",
		"(prod. Rumak) Deszcz na betonie",
		"Taco Hemingway",
	))
}

func TestMatchUnifiedBothTogether(t *testing.T) {
	assert.True(t, MatchUnified("Taco Hemingway Deszcz na betonie", "Deszcz na betonie", "Taco Hemingway"))
}

func TestMatchUnifiedTokenOverlap(t *testing.T) {
	// Overlapping significant tokens across a longer title.
	assert.True(t, MatchUnified("bohemian rhapsody", "Bohemian Rhapsody (Remastered 2011)", "Queen"))
}

func TestMatchUnifiedUnrelatedFails(t *testing.T) {
	assert.False(t, MatchUnified("completely different song entirely", "Deszcz na betonie", "Taco Hemingway"))
}

func TestMatchDetailed(t *testing.T) {
	r := MatchDetailed("Taco Hemingway", "Deszcz na betonie", "Taco Hemingway", "Deszcz na betonie")
	assert.True(t, r.ArtistCorrect)
	assert.True(t, r.TitleCorrect)
}

func TestMatchDetailedTitleOnly(t *testing.T) {
	r := MatchDetailed("", "deszcz na betonie", "Taco Hemingway", "Deszcz na betonie")
	assert.False(t, r.ArtistCorrect)
	assert.True(t, r.TitleCorrect)
}

func TestMatchDetailedStrippedTitleFallback(t *testing.T) {
	// Target title contains the artist's name; guessing just the remainder
	// of the title should still count as a title match.
	r := MatchDetailed("", "betonie", "Taco Hemingway", "Taco Hemingway Deszcz na betonie")
	assert.True(t, r.TitleCorrect)
}

func TestMatchDetailedWrongGuessFails(t *testing.T) {
	r := MatchDetailed("Nirvana", "Smells Like Teen Spirit", "Taco Hemingway", "Deszcz na betonie")
	assert.False(t, r.ArtistCorrect)
	assert.False(t, r.TitleCorrect)
}
