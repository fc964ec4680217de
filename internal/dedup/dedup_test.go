package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonicsignal/internal/matcher"
	"sonicsignal/internal/models"
)

func event(source, artist, venue, date string) models.Event {
	return models.Event{Source: source, Artist: artist, Venue: venue, Date: date}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "defaults valid",
			cfg:  DefaultConfig(),
		},
		{
			name:    "artist above range",
			cfg:     Config{ArtistThreshold: 101, VenueThreshold: 85, HighConfidenceThreshold: 95},
			wantErr: "artist_threshold",
		},
		{
			name:    "venue below range",
			cfg:     Config{ArtistThreshold: 90, VenueThreshold: -1, HighConfidenceThreshold: 95},
			wantErr: "venue_threshold",
		},
		{
			name:    "high confidence above range",
			cfg:     Config{ArtistThreshold: 90, VenueThreshold: 85, HighConfidenceThreshold: 100.5},
			wantErr: "high_confidence_threshold",
		},
		{
			name: "boundaries allowed",
			cfg:  Config{ArtistThreshold: 0, VenueThreshold: 100, HighConfidenceThreshold: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassifyReflexive(t *testing.T) {
	scorer := matcher.NewTokenSortScorer()
	e := event("ticketmaster", "Interpol", "Terminal 5", "2026-09-04")

	p, ok := Classify(&e, &e, DefaultConfig(), scorer)
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceHigh, p.Confidence)
	assert.InDelta(t, 100, p.ArtistMatch, 0.001)
	assert.InDelta(t, 100, p.VenueMatch, 0.001)
}

func TestClassify(t *testing.T) {
	scorer := matcher.NewTokenSortScorer()
	cfg := DefaultConfig()

	tests := []struct {
		name           string
		a, b           models.Event
		wantMatch      bool
		wantConfidence string
	}{
		{
			name:           "case variant is high confidence",
			a:              event("ticketmaster", "LCD Soundsystem", "Brooklyn Steel", "2026-09-05"),
			b:              event("seatgeek", "LCD SOUNDSYSTEM", "Brooklyn Steel", "2026-09-05"),
			wantMatch:      true,
			wantConfidence: models.ConfidenceHigh,
		},
		{
			name:           "the-prefix and city suffix absorbed",
			a:              event("ticketmaster", "The National", "Brooklyn Steel", "2026-09-05"),
			b:              event("songkick", "National", "Brooklyn Steel NYC", "2026-09-05"),
			wantMatch:      true,
			wantConfidence: models.ConfidenceHigh,
		},
		{
			name:      "different dates never match",
			a:         event("ticketmaster", "Interpol", "Terminal 5", "2026-09-05"),
			b:         event("seatgeek", "Interpol", "Terminal 5", "2026-09-06"),
			wantMatch: false,
		},
		{
			name:      "missing date never matches",
			a:         event("ticketmaster", "Interpol", "Terminal 5", ""),
			b:         event("seatgeek", "Interpol", "Terminal 5", ""),
			wantMatch: false,
		},
		{
			name:      "different venues",
			a:         event("ticketmaster", "Interpol", "Terminal 5", "2026-09-05"),
			b:         event("seatgeek", "Interpol", "Mercury Lounge", "2026-09-05"),
			wantMatch: false,
		},
		{
			name:      "different artists",
			a:         event("ticketmaster", "Big Thief", "Warsaw", "2026-09-05"),
			b:         event("seatgeek", "Beach House", "Warsaw", "2026-09-05"),
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Classify(&tt.a, &tt.b, cfg, scorer)
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantConfidence, p.Confidence)
			}
		})
	}
}

// fixedScorer returns canned scores per field pair, keyed by the first
// string; used to pin exact threshold edges.
type fixedScorer struct {
	scores map[string]float64
}

func (s fixedScorer) Score(a, b string) float64 {
	if v, ok := s.scores[a]; ok {
		return v
	}
	return 0
}

func TestClassifyThresholdEdges(t *testing.T) {
	cfg := DefaultConfig()
	a := event("ticketmaster", "A1", "V1", "2026-09-05")
	b := event("seatgeek", "A2", "V2", "2026-09-05")
	a.SetNormalized("artistkey", "venuekey")
	b.SetNormalized("other", "other")

	// artist 92, venue 80: venue under 85, no decision.
	scorer := fixedScorer{scores: map[string]float64{"artistkey": 92, "venuekey": 80}}
	_, ok := Classify(&a, &b, cfg, scorer)
	assert.False(t, ok)

	// artist 92, venue 85: medium confidence duplicate.
	scorer = fixedScorer{scores: map[string]float64{"artistkey": 92, "venuekey": 85}}
	p, ok := Classify(&a, &b, cfg, scorer)
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceMedium, p.Confidence)

	// both at 95: high confidence.
	scorer = fixedScorer{scores: map[string]float64{"artistkey": 95, "venuekey": 95}}
	p, ok = Classify(&a, &b, cfg, scorer)
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceHigh, p.Confidence)
}

func TestFindDuplicatesNoMatches(t *testing.T) {
	events := []models.Event{
		event("ticketmaster", "Interpol", "Terminal 5", "2026-09-01"),
		event("seatgeek", "Big Thief", "Warsaw", "2026-09-02"),
		event("songkick", "Mitski", "Radio City Music Hall", "2026-09-03"),
	}

	pairs, err := FindDuplicates(events, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestFindDuplicatesInvalidConfig(t *testing.T) {
	events := []models.Event{event("x", "Interpol", "Terminal 5", "2026-09-01")}

	pairs, err := FindDuplicates(events, Config{ArtistThreshold: 150, VenueThreshold: 85, HighConfidenceThreshold: 95})
	assert.Error(t, err)
	assert.Nil(t, pairs)
}

func uniqueTen() []models.Event {
	return []models.Event{
		event("sample_data", "Interpol", "Terminal 5", "2026-09-01"),
		event("sample_data", "Big Thief", "Warsaw", "2026-09-01"),
		event("sample_data", "Mitski", "Radio City Music Hall", "2026-09-02"),
		event("sample_data", "Beach House", "Elsewhere", "2026-09-02"),
		event("sample_data", "Snail Mail", "Bowery Ballroom", "2026-09-03"),
		event("sample_data", "Japanese Breakfast", "Webster Hall", "2026-09-03"),
		event("sample_data", "Alvvays", "Music Hall of Williamsburg", "2026-09-04"),
		event("sample_data", "Parquet Courts", "Knockdown Center", "2026-09-04"),
		event("sample_data", "Angel Olsen", "Irving Plaza", "2026-09-05"),
		event("sample_data", "Fleet Foxes", "Mercury Lounge", "2026-09-05"),
	}
}

func TestFindDuplicatesInjectedPair(t *testing.T) {
	events := uniqueTen()
	events = append(events,
		event("ticketmaster", "The National", "Brooklyn Steel", "2026-09-06"),
		event("seatgeek", "National", "Brooklyn Steel NYC", "2026-09-06"),
	)

	pairs, err := FindDuplicates(events, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, 10, p.Event1Index)
	assert.Equal(t, 11, p.Event2Index)
	assert.Equal(t, models.ConfidenceHigh, p.Confidence)
	assert.Equal(t, "ticketmaster", p.Event1Source)
	assert.Equal(t, "seatgeek", p.Event2Source)
}

func TestFindDuplicatesOrdering(t *testing.T) {
	// Three listings of the same show: pairs come out (0,1), (0,2), (1,2)
	// and are not merged into a group.
	events := []models.Event{
		event("ticketmaster", "DIIV", "Warsaw", "2026-09-07"),
		event("seatgeek", "DIIV", "Warsaw NYC", "2026-09-07"),
		event("songkick", "DIIV", "Warsaw", "2026-09-07"),
	}

	pairs, err := FindDuplicates(events, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.Equal(t, [2]int{0, 1}, [2]int{pairs[0].Event1Index, pairs[0].Event2Index})
	assert.Equal(t, [2]int{0, 2}, [2]int{pairs[1].Event1Index, pairs[1].Event2Index})
	assert.Equal(t, [2]int{1, 2}, [2]int{pairs[2].Event1Index, pairs[2].Event2Index})
}

func TestFindDuplicatesParallelMatchesSerial(t *testing.T) {
	events := uniqueTen()
	events = append(events,
		event("ticketmaster", "The National", "Brooklyn Steel", "2026-09-06"),
		event("seatgeek", "National", "Brooklyn Steel NYC", "2026-09-06"),
		event("songkick", "Soccer Mommy", "Elsewhere", "2026-09-02"),
		event("ticketmaster", "SOCCER MOMMY", "Elsewhere NYC", "2026-09-02"),
	)

	serial, err := FindDuplicates(events, DefaultConfig())
	require.NoError(t, err)

	parallel, err := FindDuplicates(events, DefaultConfig(), WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestFindDuplicatesBlocked(t *testing.T) {
	events := uniqueTen()
	events = append(events,
		event("ticketmaster", "The National", "Brooklyn Steel", "2026-09-06"),
		event("seatgeek", "National", "Brooklyn Steel NYC", "2026-09-06"),
	)

	pairs, err := FindDuplicatesBlocked(events, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 10, pairs[0].Event1Index)
	assert.Equal(t, 11, pairs[0].Event2Index)
	assert.Equal(t, models.ConfidenceHigh, pairs[0].Confidence)
}

func TestFindDuplicatesBlockedSkipsDistantDates(t *testing.T) {
	events := []models.Event{
		event("ticketmaster", "Interpol", "Terminal 5", "2026-09-01"),
		event("seatgeek", "Interpol", "Terminal 5", "2026-09-02"),
	}

	pairs, err := FindDuplicatesBlocked(events, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestSummarize(t *testing.T) {
	pairs := []models.DuplicatePair{
		{Confidence: models.ConfidenceHigh},
		{Confidence: models.ConfidenceMedium},
		{Confidence: models.ConfidenceHigh},
	}

	s := Summarize(pairs)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.HighConfidence)
	assert.Equal(t, 1, s.MediumConfidence)
}

func TestDetectionRate(t *testing.T) {
	rate, ok := DetectionRate(18, 20)
	require.True(t, ok)
	assert.InDelta(t, 90, rate, 0.001)

	// Undefined for zero expected, never a panic.
	_, ok = DetectionRate(5, 0)
	assert.False(t, ok)

	// Deterministic.
	again, ok := DetectionRate(18, 20)
	require.True(t, ok)
	assert.Equal(t, rate, again)
}
