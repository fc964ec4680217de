package dedup

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"sonicsignal/internal/matcher"
	"sonicsignal/internal/models"
	"sonicsignal/internal/normalizer"
)

// FindDuplicatesBlocked is the indexed variant of FindDuplicates for large
// batches: instead of scoring all n*(n-1)/2 pairs, it buckets records by
// (date, Soundex of the first artist token) and only scores pairs inside a
// bucket. Classification and output ordering are identical to the full
// scan; the tradeoff is recall, since a variant whose first token sounds
// different lands in another bucket and is never compared.
func FindDuplicatesBlocked(events []models.Event, cfg Config, opts ...Option) ([]models.DuplicatePair, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := runOptions{scorer: matcher.NewTokenSortScorer()}
	for _, opt := range opts {
		opt(&o)
	}

	buckets := make(map[string][]int)
	for i := range events {
		e := &events[i]
		e.SetNormalized(
			normalizer.NormalizeArtist(e.Artist),
			normalizer.NormalizeVenue(e.Venue),
		)
		if e.Date == "" {
			continue // can never classify as a duplicate
		}
		artist, _, _ := e.Normalized()
		key := e.Date + "|" + blockKey(artist)
		buckets[key] = append(buckets[key], i)
	}

	var pairs []models.DuplicatePair
	for _, idx := range buckets {
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				i, j := idx[a], idx[b]
				if p, ok := Classify(&events[i], &events[j], cfg, o.scorer); ok {
					p.Event1Index = i
					p.Event2Index = j
					pairs = append(pairs, p)
				}
			}
		}
	}

	// Map iteration order is random; restore the (i, j) contract.
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Event1Index != pairs[b].Event1Index {
			return pairs[a].Event1Index < pairs[b].Event1Index
		}
		return pairs[a].Event2Index < pairs[b].Event2Index
	})
	return pairs, nil
}

// blockKey is a cheap candidate key: the Soundex code of the first
// normalized artist token. Empty names collapse into one shared bucket.
func blockKey(normArtist string) string {
	first, _, _ := strings.Cut(normArtist, " ")
	if first == "" {
		return ""
	}
	return matchr.Soundex(first)
}
