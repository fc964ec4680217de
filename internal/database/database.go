package database

import (
	"database/sql"
	_ "embed"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"sonicsignal/internal/models"
)

//go:embed schema.sql
var schema string

// InitDatabase runs the embedded schema and sets performance PRAGMAs.
// WAL mode keeps writes from blocking concurrent viewer reads during a run.
func InitDatabase(db *sql.DB) error {
	_, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA cache_size=-2000;")
	if err != nil {
		return err
	}
	_, err = db.Exec(schema)
	return err
}

// InsertEvents stores a fetched batch. One transaction per batch.
func InsertEvents(db *sql.DB, events []models.Event) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO events (source, artist, venue, date, time, ticket_url, venue_capacity, venue_tier)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.Source, e.Artist, e.Venue, e.Date, e.Time, e.TicketURL, e.VenueCapacity, e.VenueTier); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListEvents returns stored events, newest fetch first.
func ListEvents(db *sql.DB, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.Query(`
	SELECT source, artist, venue, date, time, ticket_url, venue_capacity, venue_tier
	FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.Source, &e.Artist, &e.Venue, &e.Date, &e.Time, &e.TicketURL, &e.VenueCapacity, &e.VenueTier); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SaveRun stores one dedup run with its pairs and returns the run id.
func SaveRun(db *sql.DB, report models.Report) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	INSERT INTO dedup_runs (ran_at, total_events, total_pairs, high_confidence, medium_confidence, detection_rate)
	VALUES (?, ?, ?, ?, ?, ?)`,
		report.Timestamp, report.TotalEvents, report.Summary.Total,
		report.Summary.HighConfidence, report.Summary.MediumConfidence, report.DetectionRate)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO duplicate_pairs (run_id, event1_index, event2_index, event1_artist, event2_artist,
		event1_venue, event2_venue, date, artist_match, venue_match, confidence, event1_source, event2_source)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, p := range report.Pairs {
		if _, err := stmt.Exec(runID, p.Event1Index, p.Event2Index, p.Event1Artist, p.Event2Artist,
			p.Event1Venue, p.Event2Venue, p.Date, p.ArtistMatch, p.VenueMatch, p.Confidence,
			p.Event1Source, p.Event2Source); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// LatestRun loads the most recent run's report, or sql.ErrNoRows when no
// run has been stored yet.
func LatestRun(db *sql.DB) (*models.Report, error) {
	var (
		runID  int64
		report models.Report
		rate   sql.NullFloat64
	)
	err := db.QueryRow(`
	SELECT id, ran_at, total_events, high_confidence, medium_confidence, detection_rate
	FROM dedup_runs ORDER BY id DESC LIMIT 1`).
		Scan(&runID, &report.Timestamp, &report.TotalEvents,
			&report.Summary.HighConfidence, &report.Summary.MediumConfidence, &rate)
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		report.DetectionRate = &rate.Float64
	}

	rows, err := db.Query(`
	SELECT event1_index, event2_index, event1_artist, event2_artist, event1_venue, event2_venue,
		date, artist_match, venue_match, confidence, event1_source, event2_source
	FROM duplicate_pairs WHERE run_id = ? ORDER BY event1_index, event2_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.DuplicatePair
		if err := rows.Scan(&p.Event1Index, &p.Event2Index, &p.Event1Artist, &p.Event2Artist,
			&p.Event1Venue, &p.Event2Venue, &p.Date, &p.ArtistMatch, &p.VenueMatch,
			&p.Confidence, &p.Event1Source, &p.Event2Source); err != nil {
			return nil, err
		}
		report.Pairs = append(report.Pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.Summary.Total = len(report.Pairs)
	return &report, nil
}

// UpsertArtistMeta inserts or refreshes one artist lookup. COALESCE keeps
// an earlier Spotify ID when a refresh comes back empty.
func UpsertArtistMeta(db *sql.DB, m models.ArtistMeta) error {
	if db == nil {
		return nil
	}

	query := `
	INSERT INTO artist_registry (query, spotify_id, name, genres, popularity, followers, match_score, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(query) DO UPDATE SET
		spotify_id = COALESCE(NULLIF(excluded.spotify_id, ''), artist_registry.spotify_id),
		name = excluded.name,
		genres = excluded.genres,
		popularity = excluded.popularity,
		followers = excluded.followers,
		match_score = excluded.match_score,
		last_updated = CURRENT_TIMESTAMP;`

	_, err := db.Exec(query, m.Query, m.SpotifyID, m.Name, strings.Join(m.Genres, ","), m.Popularity, m.Followers, m.MatchScore)
	return err
}

// GetArtistMeta looks up a previously stored artist by the original query.
func GetArtistMeta(db *sql.DB, query string) (*models.ArtistMeta, error) {
	var (
		m      models.ArtistMeta
		genres string
	)
	err := db.QueryRow(`
	SELECT query, spotify_id, name, genres, popularity, followers, match_score
	FROM artist_registry WHERE query = ?`, query).
		Scan(&m.Query, &m.SpotifyID, &m.Name, &genres, &m.Popularity, &m.Followers, &m.MatchScore)
	if err != nil {
		return nil, err
	}
	if genres != "" {
		m.Genres = strings.Split(genres, ",")
	}
	return &m, nil
}
