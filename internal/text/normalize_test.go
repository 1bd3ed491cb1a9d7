/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsBracketsAndNoise(t *testing.T) {
	got := Normalize("(prod. Rumak) Deszcz na betonie [Official Video]")
	assert.Equal(t, "deszcz na betonie", got)
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		"Deszcz na betonie (feat. Someone) [HQ]",
		"  Multiple   Spaces!! ",
		"Ærøskøbing",
		"日本語のタイトル",
		"",
	}
	for _, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize not idempotent for %q", s)
	}
}

func TestNormalizeCaseAndPunctuationInsensitive(t *testing.T) {
	a := Normalize("Hello, World!!")
	b := Normalize("hello world")
	assert.Equal(t, a, b)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b", Normalize("a    \t\n  b"))
}

func TestNormalizeUnicodeClassification(t *testing.T) {
	// Unicode letters/numbers outside ASCII must be preserved.
	got := Normalize("Pokémon 第9集")
	assert.Equal(t, "pokémon 第9集", got)
}
