// Package artistmeta resolves artist display names against the Spotify
// catalog to collect popularity and genre data for scoring validation.
package artistmeta

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"sonicsignal/internal/matcher"
	"sonicsignal/internal/models"
	"sonicsignal/internal/normalizer"
)

// Spotify client-credentials flow gives roughly 180 req/min; stay under it.
var spLimiter = rate.NewLimiter(rate.Every(400*time.Millisecond), 1)

type Lookup struct {
	client *spotify.Client
	scorer matcher.Scorer
}

func NewLookup(client *spotify.Client) *Lookup {
	return &Lookup{client: client, scorer: matcher.NewTokenSortScorer()}
}

// Search resolves one artist name. The best candidate is picked by name
// similarity on normalized forms, not by Spotify's own ranking, so a
// popular act with a near-miss name doesn't shadow the literal match.
// Returns nil when the catalog has no plausible candidate.
func (l *Lookup) Search(ctx context.Context, name string) (*models.ArtistMeta, error) {
	if err := spLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := l.client.Search(ctx, "artist:"+name, spotify.SearchTypeArtist, spotify.Limit(5))
	if err != nil {
		return nil, fmt.Errorf("spotify search %q: %w", name, err)
	}
	if res.Artists == nil || len(res.Artists.Artists) == 0 {
		return nil, nil
	}

	want := normalizer.NormalizeArtist(name)

	var (
		best      *spotify.FullArtist
		bestScore float64
	)
	for i := range res.Artists.Artists {
		cand := &res.Artists.Artists[i]
		score := l.scorer.Score(want, normalizer.NormalizeArtist(cand.Name))
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}

	// Below 90 the candidate is a different act sharing some words.
	if best == nil || bestScore < 90 {
		return nil, nil
	}

	return &models.ArtistMeta{
		Query:      name,
		SpotifyID:  string(best.ID),
		Name:       best.Name,
		Genres:     best.Genres,
		Popularity: int(best.Popularity),
		Followers:  uint(best.Followers.Count),
		MatchScore: bestScore,
	}, nil
}
