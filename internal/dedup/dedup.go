// Package dedup decides which concert listings from different providers
// describe the same real-world show. It classifies pairs of events by
// fuzzy artist/venue similarity plus exact date equality, and drives the
// pairwise scan over a batch.
package dedup

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"sonicsignal/internal/matcher"
	"sonicsignal/internal/models"
	"sonicsignal/internal/normalizer"
)

// Option tunes a FindDuplicates run.
type Option func(*runOptions)

type runOptions struct {
	scorer   matcher.Scorer
	workers  int
	progress func(done, total int)
}

// WithScorer overrides the default token-sort similarity algorithm.
func WithScorer(s matcher.Scorer) Option {
	return func(o *runOptions) { o.scorer = s }
}

// WithWorkers spreads the pair scan over n goroutines. Output order is
// unchanged: results are re-sorted by index pair after the merge.
func WithWorkers(n int) Option {
	return func(o *runOptions) { o.workers = n }
}

// WithProgress installs a callback invoked after each record's row of
// comparisons completes. Serial runs only; parallel runs report nothing.
func WithProgress(fn func(done, total int)) Option {
	return func(o *runOptions) { o.progress = fn }
}

// Classify decides whether two events are the same show: artist and venue
// scores must clear their thresholds and the calendar dates must be equal.
// Returns ok=false when the pair is not a duplicate; non-matches carry no
// further information. A record without a date never matches anything.
func Classify(a, b *models.Event, cfg Config, scorer matcher.Scorer) (models.DuplicatePair, bool) {
	if a.Date == "" || b.Date == "" || a.Date != b.Date {
		return models.DuplicatePair{}, false
	}

	artistScore, venueScore := matcher.ScorePair(a, b, scorer)
	if artistScore < cfg.ArtistThreshold || venueScore < cfg.VenueThreshold {
		return models.DuplicatePair{}, false
	}

	confidence := models.ConfidenceMedium
	if artistScore >= cfg.HighConfidenceThreshold && venueScore >= cfg.HighConfidenceThreshold {
		confidence = models.ConfidenceHigh
	}

	return models.DuplicatePair{
		Event1Artist: a.Artist,
		Event2Artist: b.Artist,
		Event1Venue:  a.Venue,
		Event2Venue:  b.Venue,
		Date:         a.Date,
		ArtistMatch:  artistScore,
		VenueMatch:   venueScore,
		Confidence:   confidence,
		Event1Source: sourceLabel(a),
		Event2Source: sourceLabel(b),
	}, true
}

func sourceLabel(e *models.Event) string {
	if e.Source == "" {
		return "unknown"
	}
	return e.Source
}

// FindDuplicates scans every unordered pair (i, j), i < j, and returns the
// accepted pairs ordered by ascending i then j. Normalization happens once
// per record, before any comparison. The config is validated first; an
// invalid config fails the whole run with no partial output.
func FindDuplicates(events []models.Event, cfg Config, opts ...Option) ([]models.DuplicatePair, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := runOptions{scorer: matcher.NewTokenSortScorer()}
	for _, opt := range opts {
		opt(&o)
	}

	for i := range events {
		events[i].SetNormalized(
			normalizer.NormalizeArtist(events[i].Artist),
			normalizer.NormalizeVenue(events[i].Venue),
		)
	}

	if o.workers > 1 {
		return scanParallel(events, cfg, &o), nil
	}
	return scanSerial(events, cfg, &o), nil
}

func scanSerial(events []models.Event, cfg Config, o *runOptions) []models.DuplicatePair {
	var pairs []models.DuplicatePair
	for i := range events {
		for j := i + 1; j < len(events); j++ {
			if p, ok := Classify(&events[i], &events[j], cfg, o.scorer); ok {
				p.Event1Index = i
				p.Event2Index = j
				pairs = append(pairs, p)
			}
		}
		if o.progress != nil {
			o.progress(i+1, len(events))
		}
	}
	return pairs
}

// scanParallel partitions the i-rows across a worker pool. Each worker
// appends to its own slice; the merged result is re-sorted by (i, j) so
// the ordering contract holds regardless of completion order.
func scanParallel(events []models.Event, cfg Config, o *runOptions) []models.DuplicatePair {
	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	var pairs []models.DuplicatePair

	p := pool.New().WithMaxGoroutines(workers)
	for i := range events {
		i := i // pre-Go 1.22 loop variable capture
		p.Go(func() {
			var local []models.DuplicatePair
			for j := i + 1; j < len(events); j++ {
				if pair, ok := Classify(&events[i], &events[j], cfg, o.scorer); ok {
					pair.Event1Index = i
					pair.Event2Index = j
					local = append(local, pair)
				}
			}
			if len(local) > 0 {
				mu.Lock()
				pairs = append(pairs, local...)
				mu.Unlock()
			}
		})
	}
	p.Wait()

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Event1Index != pairs[b].Event1Index {
			return pairs[a].Event1Index < pairs[b].Event1Index
		}
		return pairs[a].Event2Index < pairs[b].Event2Index
	})
	return pairs
}

// Summarize counts pairs by confidence tier.
func Summarize(pairs []models.DuplicatePair) models.Summary {
	s := models.Summary{Total: len(pairs)}
	for _, p := range pairs {
		switch p.Confidence {
		case models.ConfidenceHigh:
			s.HighConfidence++
		case models.ConfidenceMedium:
			s.MediumConfidence++
		}
	}
	return s
}

// DetectionRate returns found/expected as a percentage. ok is false when
// expected is zero: the rate is undefined, not an error and not a panic.
func DetectionRate(found, expected int) (rate float64, ok bool) {
	if expected == 0 {
		return 0, false
	}
	return float64(found) / float64(expected) * 100, true
}

// BuildReport assembles the run output handed to reporting consumers.
// expectedDuplicates > 0 attaches a detection rate (synthetic batches only).
func BuildReport(events []models.Event, pairs []models.DuplicatePair, expectedDuplicates int) models.Report {
	r := models.Report{
		Timestamp:   time.Now().Format(time.RFC3339),
		TotalEvents: len(events),
		Pairs:       pairs,
		Summary:     Summarize(pairs),
	}
	if rate, ok := DetectionRate(len(pairs), expectedDuplicates); ok {
		r.DetectionRate = &rate
	}
	return r
}
