// Package source supplies event batches: live provider fetchers, synthetic
// sample data for validation runs, and JSON batch ingestion.
package source

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"sonicsignal/internal/models"
)

type venueInfo struct {
	name     string
	capacity int
	tier     string
}

var nycVenues = []venueInfo{
	{"Mercury Lounge", 250, "intimate"},
	{"Bowery Ballroom", 575, "club"},
	{"Brooklyn Steel", 1800, "hall"},
	{"Music Hall of Williamsburg", 550, "club"},
	{"Elsewhere", 600, "club"},
	{"Knockdown Center", 1200, "hall"},
	{"Baby's All Right", 350, "club"},
	{"Rough Trade NYC", 250, "intimate"},
	{"Warsaw", 450, "club"},
	{"Terminal 5", 3000, "hall"},
	{"Webster Hall", 1500, "hall"},
	{"Irving Plaza", 1025, "hall"},
	{"Madison Square Garden", 20000, "arena"},
	{"Barclays Center", 19000, "arena"},
	{"Radio City Music Hall", 6000, "arena"},
}

var sampleArtists = []string{
	"Interpol",
	"Yeah Yeah Yeahs",
	"LCD Soundsystem",
	"The National",
	"TV on the Radio",
	"Vampire Weekend",
	"Beach House",
	"DIIV",
	"Parquet Courts",
	"Japanese Breakfast",
	"Snail Mail",
	"Soccer Mommy",
	"Alvvays",
	"Big Thief",
	"Phoebe Bridgers",
	"Mitski",
	"Car Seat Headrest",
	"Angel Olsen",
	"Fleet Foxes",
	"Father John Misty",
}

var duplicateSources = []string{"ticketmaster", "seatgeek", "songkick"}

// GenerateSample builds a synthetic batch: numEvents base listings over the
// next 7 days plus numDuplicates near-duplicate variants of random base
// listings, shuffled together. The metadata records the injected count so
// a validation run can measure its detection rate. Same seed, same batch.
func GenerateSample(numEvents, numDuplicates int, seed int64) models.Batch {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	events := make([]models.Event, 0, numEvents+numDuplicates)
	for i := 0; i < numEvents; i++ {
		when := now.AddDate(0, 0, rng.Intn(8))
		when = time.Date(when.Year(), when.Month(), when.Day(),
			19+rng.Intn(5), 30*rng.Intn(2), 0, 0, when.Location())

		artist := sampleArtists[rng.Intn(len(sampleArtists))]
		venue := nycVenues[rng.Intn(len(nycVenues))]

		events = append(events, models.Event{
			Source:        "sample_data",
			Artist:        artist,
			Venue:         venue.name,
			VenueCapacity: venue.capacity,
			VenueTier:     venue.tier,
			Date:          when.Format("2006-01-02"),
			Time:          when.Format("15:04:05"),
			DateTime:      when.Format(time.RFC3339),
			TicketURL:     fmt.Sprintf("https://example.com/tickets/%d", i),
			Description:   fmt.Sprintf("%s live at %s", artist, venue.name),
		})
	}

	all := append([]models.Event{}, events...)
	for i := 0; i < numDuplicates; i++ {
		all = append(all, mutate(rng, events[rng.Intn(len(events))]))
	}

	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	return models.Batch{
		Events: all,
		Metadata: models.Metadata{
			GeneratedAt:   now.Format(time.RFC3339),
			NumEvents:     len(all),
			NumUnique:     numEvents,
			NumDuplicates: numDuplicates,
		},
	}
}

// mutate produces a listing of the same show as another source would
// report it: different provider tag plus small artist/venue spelling
// variations of the kind seen across real feeds.
func mutate(rng *rand.Rand, e models.Event) models.Event {
	dup := e
	dup.Source = duplicateSources[rng.Intn(len(duplicateSources))]

	switch rng.Intn(4) {
	case 1:
		dup.Artist = "The " + e.Artist
	case 2:
		dup.Artist = strings.ToUpper(e.Artist)
	case 3:
		dup.Artist = strings.ReplaceAll(e.Artist, " ", "")
	}

	switch rng.Intn(3) {
	case 1:
		dup.Venue = e.Venue + " NYC"
	case 2:
		dup.Venue = strings.TrimPrefix(e.Venue, "The ")
	}

	return dup
}
