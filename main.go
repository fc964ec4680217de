package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"sonicsignal/internal/artistmeta"
	"sonicsignal/internal/database"
	"sonicsignal/internal/dedup"
	"sonicsignal/internal/models"
	"sonicsignal/internal/source"
	"sonicsignal/internal/viewer"
)

/* =========================
   Recovery Middleware
   ========================= */

func RecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %v\n%s", err, debug.Stack())
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

/* =========================
   Types
   ========================= */

// threshold query parameters accepted by the dedup endpoint, overriding
// the process-wide configuration for one run.
var thresholdParams = []struct {
	name string
	dst  func(*dedup.Config) *float64
}{
	{"artist_threshold", func(c *dedup.Config) *float64 { return &c.ArtistThreshold }},
	{"venue_threshold", func(c *dedup.Config) *float64 { return &c.VenueThreshold }},
	{"high_confidence_threshold", func(c *dedup.Config) *float64 { return &c.HighConfidenceThreshold }},
}

/* =========================
   SSE Helpers
   ========================= */

func setupSSE(w http.ResponseWriter) (http.Flusher, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return flusher, nil
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Println("SSE marshal error:", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	flusher.Flush()
}

/* =========================
   Dedup Handler
   ========================= */

func handleDedup(db *sql.DB, baseCfg dedup.Config, w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx := r.Context()

	earlyFail := func(msg string, code int) {
		http.Error(w, msg, code)
	}

	/* =========================
	   Build the batch (NO SSE)
	   ========================= */

	cfg := baseCfg
	for _, p := range thresholdParams {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			earlyFail("invalid "+p.name+" parameter", http.StatusBadRequest)
			return
		}
		*p.dst(&cfg) = f
	}

	// Fail fast on a bad config before reading any events.
	if err := cfg.Validate(); err != nil {
		earlyFail(err.Error(), http.StatusBadRequest)
		return
	}

	var (
		events   []models.Event
		expected int
	)

	if r.URL.Query().Get("sample") == "1" {
		size := 100
		dups := 20
		if v := r.URL.Query().Get("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				earlyFail("invalid size parameter", http.StatusBadRequest)
				return
			}
			size = n
		}
		seed := time.Now().UnixNano()
		if v := r.URL.Query().Get("seed"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				earlyFail("invalid seed parameter", http.StatusBadRequest)
				return
			}
			seed = n
		}
		batch := source.GenerateSample(size, dups, seed)
		events = batch.Events
		expected = batch.Metadata.NumDuplicates
	} else {
		batch, err := source.ParseBatch(r.Body)
		if err != nil {
			earlyFail(err.Error(), http.StatusBadRequest)
			return
		}
		events = batch.Events
		expected = batch.Metadata.NumDuplicates
	}

	/* =========================
	   SSE Setup (SAFE POINT)
	   ========================= */

	flusher, err := setupSSE(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	send := func(v any) { sendEvent(w, flusher, v) }

	send(map[string]any{
		"status":  "scanning",
		"message": fmt.Sprintf("Comparing %d events pairwise", len(events)),
	})

	/* =========================
	   Scan
	   ========================= */

	progress := func(done, total int) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if done%25 == 0 || done == total {
			send(map[string]any{
				"status": "processing",
				"index":  done,
				"total":  total,
			})
		}
	}

	var opts []dedup.Option
	if v := r.URL.Query().Get("workers"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			opts = append(opts, dedup.WithWorkers(n))
		}
	} else {
		opts = append(opts, dedup.WithProgress(progress))
	}

	// Large batches go through the date+phonetic candidate index instead
	// of the full quadratic scan.
	scan := dedup.FindDuplicates
	if r.URL.Query().Get("indexed") == "1" || len(events) > 5000 {
		scan = dedup.FindDuplicatesBlocked
	}

	pairs, err := scan(events, cfg, opts...)
	if err != nil {
		send(map[string]string{"status": "error", "message": err.Error()})
		return
	}

	report := dedup.BuildReport(events, pairs, expected)

	if _, err := database.SaveRun(db, report); err != nil {
		log.Printf("save run: %v", err)
	}

	/* =========================
	   Final
	   ========================= */

	send(map[string]any{
		"status": "complete",
		"report": report,
	})
}

/* =========================
   Fetch Handler
   ========================= */

func handleFetch(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var all []models.Event

	if key := os.Getenv("TICKETMASTER_API_KEY"); key != "" {
		events, err := source.FetchTicketmaster(ctx, key)
		if err != nil {
			log.Printf("ticketmaster fetch: %v", err)
		}
		all = append(all, events...)
	} else {
		log.Println("TICKETMASTER_API_KEY not set, skipping provider")
	}

	if id := os.Getenv("SEATGEEK_CLIENT_ID"); id != "" {
		events, err := source.FetchSeatGeek(ctx, id)
		if err != nil {
			log.Printf("seatgeek fetch: %v", err)
		}
		all = append(all, events...)
	} else {
		log.Println("SEATGEEK_CLIENT_ID not set, skipping provider")
	}

	if len(all) == 0 {
		http.Error(w, "no events fetched; are provider keys configured?", http.StatusBadGateway)
		return
	}

	if err := database.InsertEvents(db, all); err != nil {
		http.Error(w, "store events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"fetched": len(all),
	})
}

/* =========================
   Artist Handler
   ========================= */

func handleArtist(db *sql.DB, lookup *artistmeta.Lookup, w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}

	// Registry first, then the catalog.
	if meta, err := database.GetArtistMeta(db, name); err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meta)
		return
	}

	if lookup == nil {
		http.Error(w, "spotify credentials not configured", http.StatusServiceUnavailable)
		return
	}

	meta, err := lookup.Search(r.Context(), name)
	if err != nil {
		http.Error(w, "lookup failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	if meta == nil {
		http.Error(w, "no catalog match for "+name, http.StatusNotFound)
		return
	}

	if err := database.UpsertArtistMeta(db, *meta); err != nil {
		log.Printf("upsert artist meta: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meta)
}

/* =========================
   Config
   ========================= */

func thresholdsFromEnv() (dedup.Config, error) {
	cfg := dedup.DefaultConfig()

	for _, bind := range []struct {
		env string
		dst *float64
	}{
		{"DEDUP_ARTIST_THRESHOLD", &cfg.ArtistThreshold},
		{"DEDUP_VENUE_THRESHOLD", &cfg.VenueThreshold},
		{"DEDUP_HIGH_CONFIDENCE_THRESHOLD", &cfg.HighConfidenceThreshold},
	} {
		v := os.Getenv(bind.env)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", bind.env, err)
		}
		*bind.dst = f
	}

	return cfg, cfg.Validate()
}

/* =========================
   Main
   ========================= */

func main() {
	// 1. Environment (.env is optional, real env wins)
	_ = godotenv.Load()

	cfg, err := thresholdsFromEnv()
	if err != nil {
		log.Fatalf("CRITICAL: invalid threshold configuration: %v", err)
	}

	// 2. Database Setup
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/sonicsignal.db"
	}
	_ = os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	if err := database.InitDatabase(db); err != nil {
		log.Fatalf("Failed to init DB schema: %v", err)
	}

	// 3. Spotify client (optional; artist metadata lookups disabled without it)
	var lookup *artistmeta.Lookup
	spotifyID := os.Getenv("SPOTIFY_ID")
	spotifySecret := os.Getenv("SPOTIFY_SECRET")
	if spotifyID != "" && spotifySecret != "" {
		config := &clientcredentials.Config{
			ClientID:     spotifyID,
			ClientSecret: spotifySecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		httpClient := config.Client(context.Background())
		lookup = artistmeta.NewLookup(spotify.New(httpClient))
	} else {
		log.Println("SPOTIFY_ID/SPOTIFY_SECRET not set, artist lookups disabled")
	}

	// 4. Routing
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/dedup", RecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleDedup(db, cfg, w, r)
	}))

	mux.HandleFunc("/api/v1/fetch", RecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleFetch(db, w, r)
	}))

	mux.HandleFunc("/api/v1/artist", RecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleArtist(db, lookup, w, r)
	}))

	v, err := viewer.New(db)
	if err != nil {
		log.Fatalf("Failed to init viewer: %v", err)
	}
	v.Register(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("SonicSignal dedup engine listening on :%s (thresholds artist=%.0f venue=%.0f high=%.0f)",
		port, cfg.ArtistThreshold, cfg.VenueThreshold, cfg.HighConfidenceThreshold)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}
