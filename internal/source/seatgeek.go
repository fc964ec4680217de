package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sonicsignal/internal/models"
)

var sgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

const sgBaseURL = "https://api.seatgeek.com/2/events"

type sgResponse struct {
	Events []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		DatetimeLocal string `json:"datetime_local"`
		Performers    []struct {
			Name    string `json:"name"`
			Primary bool   `json:"primary"`
		} `json:"performers"`
		Venue struct {
			Name     string `json:"name"`
			Capacity int    `json:"capacity"`
		} `json:"venue"`
	} `json:"events"`
	Meta struct {
		Total   int `json:"total"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"meta"`
}

// FetchSeatGeek pulls NYC concerts for the next 7 days from the SeatGeek
// events API.
func FetchSeatGeek(ctx context.Context, clientID string) ([]models.Event, error) {
	now := time.Now()

	var events []models.Event
	for page := 1; ; page++ {
		if err := sgLimiter.Wait(ctx); err != nil {
			return events, err
		}

		q := url.Values{}
		q.Set("client_id", clientID)
		q.Set("venue.city", "New York")
		q.Set("taxonomies.name", "concert")
		q.Set("datetime_local.gte", now.Format("2006-01-02"))
		q.Set("datetime_local.lte", now.AddDate(0, 0, 7).Format("2006-01-02"))
		q.Set("per_page", "100")
		q.Set("page", fmt.Sprintf("%d", page))

		var res sgResponse
		if err := getJSON(ctx, sgBaseURL+"?"+q.Encode(), &res); err != nil {
			return events, fmt.Errorf("seatgeek: %w", err)
		}

		for _, ev := range res.Events {
			artist := ev.Title
			for _, p := range ev.Performers {
				if p.Primary {
					artist = p.Name
					break
				}
			}

			date, clock := splitLocalDatetime(ev.DatetimeLocal)
			events = append(events, models.Event{
				Source:        "seatgeek",
				Artist:        artist,
				Venue:         ev.Venue.Name,
				VenueCapacity: ev.Venue.Capacity,
				Date:          date,
				Time:          clock,
				DateTime:      ev.DatetimeLocal,
				TicketURL:     ev.URL,
			})
		}

		if page*res.Meta.PerPage >= res.Meta.Total || len(res.Events) == 0 {
			break
		}
	}

	return events, nil
}

// splitLocalDatetime splits SeatGeek's "2026-09-04T20:00:00" into calendar
// date and clock time without any timezone interpretation.
func splitLocalDatetime(s string) (date, clock string) {
	date, clock, _ = strings.Cut(s, "T")
	return date, clock
}
