package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"sonicsignal/internal/models"
)

// Ticketmaster allows 5 req/s on the Discovery API; stay under it.
var tmLimiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)

const tmBaseURL = "https://app.ticketmaster.com/discovery/v2/events.json"

type tmResponse struct {
	Embedded struct {
		Events []struct {
			Name  string `json:"name"`
			URL   string `json:"url"`
			Dates struct {
				Start struct {
					LocalDate string `json:"localDate"`
					LocalTime string `json:"localTime"`
				} `json:"start"`
			} `json:"dates"`
			Embedded struct {
				Venues []struct {
					Name string `json:"name"`
				} `json:"venues"`
				Attractions []struct {
					Name string `json:"name"`
				} `json:"attractions"`
			} `json:"_embedded"`
		} `json:"events"`
	} `json:"_embedded"`
	Page struct {
		TotalPages int `json:"totalPages"`
		Number     int `json:"number"`
	} `json:"page"`
}

// FetchTicketmaster pulls NYC music events for the next 7 days from the
// Discovery API and maps them to the common event shape. The API key comes
// from the caller; an empty key should be handled upstream by skipping the
// provider entirely.
func FetchTicketmaster(ctx context.Context, apiKey string) ([]models.Event, error) {
	now := time.Now().UTC()

	var events []models.Event
	for page := 0; ; page++ {
		if err := tmLimiter.Wait(ctx); err != nil {
			return events, err
		}

		q := url.Values{}
		q.Set("apikey", apiKey)
		q.Set("city", "New York")
		q.Set("classificationName", "music")
		q.Set("startDateTime", now.Format("2006-01-02T15:04:05Z"))
		q.Set("endDateTime", now.AddDate(0, 0, 7).Format("2006-01-02T15:04:05Z"))
		q.Set("size", "200")
		q.Set("page", fmt.Sprintf("%d", page))

		var res tmResponse
		if err := getJSON(ctx, tmBaseURL+"?"+q.Encode(), &res); err != nil {
			return events, fmt.Errorf("ticketmaster: %w", err)
		}

		for _, ev := range res.Embedded.Events {
			artist := ev.Name
			if len(ev.Embedded.Attractions) > 0 {
				artist = ev.Embedded.Attractions[0].Name
			}
			venue := ""
			if len(ev.Embedded.Venues) > 0 {
				venue = ev.Embedded.Venues[0].Name
			}

			events = append(events, models.Event{
				Source:    "ticketmaster",
				Artist:    artist,
				Venue:     venue,
				Date:      ev.Dates.Start.LocalDate,
				Time:      ev.Dates.Start.LocalTime,
				TicketURL: ev.URL,
			})
		}

		if page >= res.Page.TotalPages-1 {
			break
		}
	}

	return events, nil
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "SonicSignal/1.0 (concert listing aggregator)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
