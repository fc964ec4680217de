// Package matcher scores name similarity between two event listings.
package matcher

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"sonicsignal/internal/models"
	"sonicsignal/internal/normalizer"
)

// Scorer computes a similarity score in [0,100] for two normalized names.
// The dedup engine accepts any Scorer so the algorithm can be swapped
// without touching classification.
type Scorer interface {
	Score(a, b string) float64
}

// TokenSortScorer is the default Scorer: whitespace tokens are sorted
// before a normalized Levenshtein ratio, so word reordering ("Yeah Yeah
// Yeahs" vs "Yeahs Yeah Yeah") doesn't depress the score.
//
// Two empty strings score 100. Callers that can't tolerate empty names
// matching must validate before scoring.
type TokenSortScorer struct {
	lev *metrics.Levenshtein
}

// NewTokenSortScorer returns a ready TokenSortScorer.
func NewTokenSortScorer() *TokenSortScorer {
	return &TokenSortScorer{lev: metrics.NewLevenshtein()}
}

func (s *TokenSortScorer) Score(a, b string) float64 {
	a = tokenSort(a)
	b = tokenSort(b)
	if a == b {
		return 100
	}
	return strutil.Similarity(a, b, s.lev) * 100
}

func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// JaroWinklerScorer is an alternative Scorer that weights shared prefixes
// heavily; useful when provider variants differ in suffixes only.
type JaroWinklerScorer struct {
	jw *metrics.JaroWinkler
}

func NewJaroWinklerScorer() *JaroWinklerScorer {
	return &JaroWinklerScorer{jw: metrics.NewJaroWinkler()}
}

func (s *JaroWinklerScorer) Score(a, b string) float64 {
	return strutil.Similarity(a, b, s.jw) * 100
}

// ScorePair scores the artist and venue fields of two events using their
// cached normalized forms, normalizing on the fly when a caller hasn't.
// Symmetric in its arguments.
func ScorePair(a, b *models.Event, s Scorer) (artistScore, venueScore float64) {
	aArtist, aVenue := normalizedFields(a)
	bArtist, bVenue := normalizedFields(b)
	return s.Score(aArtist, bArtist), s.Score(aVenue, bVenue)
}

func normalizedFields(e *models.Event) (artist, venue string) {
	if a, v, ok := e.Normalized(); ok {
		return a, v
	}
	artist = normalizer.NormalizeArtist(e.Artist)
	venue = normalizer.NormalizeVenue(e.Venue)
	e.SetNormalized(artist, venue)
	return artist, venue
}
