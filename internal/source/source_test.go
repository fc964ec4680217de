package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonicsignal/internal/dedup"
)

func TestGenerateSampleDeterministic(t *testing.T) {
	a := GenerateSample(50, 10, 42)
	b := GenerateSample(50, 10, 42)
	assert.Equal(t, a.Events, b.Events)

	assert.Len(t, a.Events, 60)
	assert.Equal(t, 10, a.Metadata.NumDuplicates)
	assert.Equal(t, 50, a.Metadata.NumUnique)
}

func TestGenerateSampleShape(t *testing.T) {
	batch := GenerateSample(30, 5, 7)

	for _, e := range batch.Events {
		assert.NotEmpty(t, e.Artist)
		assert.NotEmpty(t, e.Venue)
		require.Len(t, e.Date, 10, "date should be YYYY-MM-DD")
		assert.NotEmpty(t, e.Source)
	}

	injected := 0
	for _, e := range batch.Events {
		if e.Source != "sample_data" {
			injected++
		}
	}
	assert.Equal(t, 5, injected)
}

func TestGeneratedDuplicatesAreDetectable(t *testing.T) {
	batch := GenerateSample(100, 20, 1)

	pairs, err := dedup.FindDuplicates(batch.Events, dedup.DefaultConfig())
	require.NoError(t, err)

	// Base data repeats artists and venues, so collisions can push the
	// found count past the injected count; the injected pairs themselves
	// should mostly survive the thresholds.
	rate, ok := dedup.DetectionRate(len(pairs), batch.Metadata.NumDuplicates)
	require.True(t, ok)
	assert.Greater(t, rate, 50.0)
}

func TestParseBatchObjectShape(t *testing.T) {
	in := `{
		"sample_data": [
			{"source": "ticketmaster", "artist": "Interpol", "venue": "Terminal 5", "date": "2026-09-04"},
			{"source": "seatgeek", "artist": "Interpol", "venue": "Terminal 5 NYC", "date": "2026-09-04", "venue_capacity": 3000}
		],
		"metadata": {"num_events": 2, "num_duplicates": 1}
	}`

	batch, err := ParseBatch(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, "Interpol", batch.Events[0].Artist)
	assert.Equal(t, 3000, batch.Events[1].VenueCapacity)
	assert.Equal(t, 1, batch.Metadata.NumDuplicates)
}

func TestParseBatchArrayShape(t *testing.T) {
	in := `[{"source": "songkick", "artist": "Mitski", "venue": "Radio City Music Hall", "date": "2026-09-05"}]`

	batch, err := ParseBatch(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, "songkick", batch.Events[0].Source)
	assert.Equal(t, 1, batch.Metadata.NumEvents)
}

func TestParseBatchMissingFieldsTolerated(t *testing.T) {
	// Records missing artist or date are kept; the engine degrades per
	// record instead of rejecting the batch.
	in := `[{"source": "songkick", "venue": "Warsaw", "date": "2026-09-05"}, {"source": "seatgeek", "artist": "DIIV", "venue": "Warsaw"}]`

	batch, err := ParseBatch(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, batch.Events, 2)
	assert.Empty(t, batch.Events[0].Artist)
	assert.Empty(t, batch.Events[1].Date)
}

func TestParseBatchBadShape(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "not json at all"},
		{name: "scalar", input: `42`},
		{name: "array of scalars", input: `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadShape)
		})
	}
}

func TestSplitLocalDatetime(t *testing.T) {
	date, clock := splitLocalDatetime("2026-09-04T20:00:00")
	assert.Equal(t, "2026-09-04", date)
	assert.Equal(t, "20:00:00", clock)

	date, clock = splitLocalDatetime("2026-09-04")
	assert.Equal(t, "2026-09-04", date)
	assert.Empty(t, clock)
}
