package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sonicsignal/internal/models"
)

func TestTokenSortScorer(t *testing.T) {
	scorer := NewTokenSortScorer()

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "identical",
			a:        "lcd soundsystem",
			b:        "lcd soundsystem",
			expected: 100,
		},
		{
			name:     "reordered tokens",
			a:        "yeah yeah yeahs",
			b:        "yeahs yeah yeah",
			expected: 100,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 100,
		},
		{
			name:     "one empty",
			a:        "interpol",
			b:        "",
			expected: 0,
		},
		{
			name:     "disjoint",
			a:        "xx",
			b:        "qq",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, scorer.Score(tt.a, tt.b), 0.001)
		})
	}
}

func TestTokenSortScorerPartial(t *testing.T) {
	scorer := NewTokenSortScorer()

	// "brooklyn steel" vs "brooklyn steel nyc" (pre-normalization text)
	// share most characters, so the score sits well above zero but below
	// a perfect match.
	score := scorer.Score("brooklyn steel", "brooklyn steel hall")
	assert.Greater(t, score, 70.0)
	assert.Less(t, score, 100.0)
}

func TestScorePairSymmetric(t *testing.T) {
	scorer := NewTokenSortScorer()

	a := &models.Event{Artist: "The National", Venue: "Brooklyn Steel", Date: "2026-09-01"}
	b := &models.Event{Artist: "National", Venue: "Brooklyn Steel NYC", Date: "2026-09-01"}

	aArtist, aVenue := ScorePair(a, b, scorer)
	bArtist, bVenue := ScorePair(b, a, scorer)

	assert.Equal(t, aArtist, bArtist)
	assert.Equal(t, aVenue, bVenue)

	// Normalization absorbs both variants entirely.
	assert.InDelta(t, 100, aArtist, 0.001)
	assert.InDelta(t, 100, aVenue, 0.001)
}

func TestScorePairCachesNormalization(t *testing.T) {
	scorer := NewTokenSortScorer()

	e := &models.Event{Artist: "The Strokes", Venue: "Mercury Lounge NYC"}
	other := &models.Event{Artist: "Strokes", Venue: "Mercury Lounge"}
	ScorePair(e, other, scorer)

	artist, venue, ok := e.Normalized()
	assert.True(t, ok)
	assert.Equal(t, "strokes", artist)
	assert.Equal(t, "mercury lounge", venue)
}

func TestJaroWinklerScorer(t *testing.T) {
	scorer := NewJaroWinklerScorer()

	assert.InDelta(t, 100, scorer.Score("interpol", "interpol"), 0.001)
	assert.Greater(t, scorer.Score("mercury lounge", "mercury lounge east"), 90.0)
}
