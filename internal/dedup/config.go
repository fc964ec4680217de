package dedup

import "fmt"

// Config holds the match thresholds for one run. All values are percentages
// in [0,100]; the zero value is not usable, start from DefaultConfig.
type Config struct {
	ArtistThreshold         float64 `json:"artist_threshold"`
	VenueThreshold          float64 `json:"venue_threshold"`
	HighConfidenceThreshold float64 `json:"high_confidence_threshold"`
}

// DefaultConfig returns the tuned production thresholds.
func DefaultConfig() Config {
	return Config{
		ArtistThreshold:         90,
		VenueThreshold:          85,
		HighConfidenceThreshold: 95,
	}
}

// Validate rejects thresholds outside [0,100], naming the offending field.
// A run must not start with an invalid config.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"artist_threshold", c.ArtistThreshold},
		{"venue_threshold", c.VenueThreshold},
		{"high_confidence_threshold", c.HighConfidenceThreshold},
	}
	for _, chk := range checks {
		if chk.value < 0 || chk.value > 100 {
			return fmt.Errorf("dedup config: %s must be in [0,100], got %v", chk.field, chk.value)
		}
	}
	return nil
}
