// Package viewer renders dedup results as HTML for localhost inspection.
// It owns presentation only; all numbers come from the dedup engine and
// the run store.
package viewer

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"sonicsignal/internal/database"
	"sonicsignal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type Viewer struct {
	db   *sql.DB
	tmpl *template.Template
}

func New(db *sql.DB) (*Viewer, error) {
	tmpl, err := template.New("viewer").Funcs(template.FuncMap{
		"pct": func(f *float64) string {
			if f == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.1f%%", *f)
		},
		"score": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Viewer{db: db, tmpl: tmpl}, nil
}

// Register mounts the viewer routes on mux.
func (v *Viewer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", v.handleIndex)
	mux.HandleFunc("/duplicates", v.handleDuplicates)
	mux.HandleFunc("/events", v.handleEvents)
}

type indexData struct {
	HasRun bool
	Report *models.Report
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := indexData{}
	report, err := database.LatestRun(v.db)
	switch {
	case err == nil:
		data.HasRun = true
		data.Report = report
	case errors.Is(err, sql.ErrNoRows):
		// first boot, nothing stored yet
	default:
		http.Error(w, "load latest run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	v.render(w, "index.html", data)
}

func (v *Viewer) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	report, err := database.LatestRun(v.db)
	if errors.Is(err, sql.ErrNoRows) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		http.Error(w, "load latest run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	v.render(w, "duplicates.html", report)
}

type eventsData struct {
	Events []models.Event
}

func (v *Viewer) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := database.ListEvents(v.db, 500)
	if err != nil {
		http.Error(w, "load events: "+err.Error(), http.StatusInternalServerError)
		return
	}
	v.render(w, "events.html", eventsData{Events: events})
}

func (v *Viewer) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
