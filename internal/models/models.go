package models

// Event is one concert listing as reported by a single provider.
// Artist/Venue/Date drive matching; everything else is carried through
// untouched for reporting.
type Event struct {
	Source        string `json:"source"`
	Artist        string `json:"artist"`
	Venue         string `json:"venue"`
	Date          string `json:"date"` // YYYY-MM-DD, provider-local
	Time          string `json:"time,omitempty"`
	DateTime      string `json:"datetime,omitempty"`
	TicketURL     string `json:"ticket_url,omitempty"`
	VenueCapacity int    `json:"venue_capacity,omitempty"`
	VenueTier     string `json:"venue_tier,omitempty"`
	Description   string `json:"description,omitempty"`

	// Cached normalized forms, computed once per batch run.
	normArtist string
	normVenue  string
	normalized bool
}

// SetNormalized caches the normalized artist/venue strings. Called once
// per record by the aggregator before any scoring.
func (e *Event) SetNormalized(artist, venue string) {
	e.normArtist = artist
	e.normVenue = venue
	e.normalized = true
}

// Normalized reports the cached forms and whether they were computed yet.
func (e *Event) Normalized() (artist, venue string, ok bool) {
	return e.normArtist, e.normVenue, e.normalized
}

// DuplicatePair records two listings judged to be the same real-world show.
// Indices refer to positions in the input batch, Event1Index < Event2Index.
type DuplicatePair struct {
	Event1Index  int     `json:"event1_index"`
	Event2Index  int     `json:"event2_index"`
	Event1Artist string  `json:"event1_artist"`
	Event2Artist string  `json:"event2_artist"`
	Event1Venue  string  `json:"event1_venue"`
	Event2Venue  string  `json:"event2_venue"`
	Date         string  `json:"date"`
	ArtistMatch  float64 `json:"artist_match"`
	VenueMatch   float64 `json:"venue_match"`
	Confidence   string  `json:"confidence"`
	Event1Source string  `json:"event1_source"`
	Event2Source string  `json:"event2_source"`
}

// Confidence tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Summary aggregates one dedup run's output.
type Summary struct {
	Total            int `json:"total"`
	HighConfidence   int `json:"high_confidence"`
	MediumConfidence int `json:"medium_confidence"`
}

// Report is what the service hands to reporting/export consumers.
type Report struct {
	Timestamp   string          `json:"timestamp"`
	TotalEvents int             `json:"total_events"`
	Pairs       []DuplicatePair `json:"pairs"`
	Summary     Summary         `json:"summary"`
	// DetectionRate is only meaningful for synthetic batches where the
	// injected duplicate count is known; nil otherwise.
	DetectionRate *float64 `json:"detection_rate,omitempty"`
}

// Metadata describes a generated batch; NumDuplicates is the ground truth
// used for detection-rate checks on synthetic data.
type Metadata struct {
	GeneratedAt   string `json:"generated_at,omitempty"`
	NumEvents     int    `json:"num_events"`
	NumUnique     int    `json:"num_unique,omitempty"`
	NumDuplicates int    `json:"num_duplicates,omitempty"`
}

// Batch is the raw_events.json shape produced by the sample generator and
// accepted by the dedup endpoint.
type Batch struct {
	Events   []Event  `json:"sample_data"`
	Metadata Metadata `json:"metadata"`
}

// ArtistMeta is catalog metadata for one artist, looked up by name.
type ArtistMeta struct {
	Query      string   `json:"query"`
	SpotifyID  string   `json:"spotify_id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity"`
	Followers  uint     `json:"followers"`
	MatchScore float64  `json:"match_score"`
}
