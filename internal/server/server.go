// Package server exposes the dashboard JSON API over the activity store.
package server

import (
	"net/http"
	"time"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

// Config controls the HTTP server.
type Config struct {
	ListenAddr string
}

// Server serves read-only dashboard data.
type Server struct {
	db *storage.DB
}

// Run starts the API server and blocks until it fails.
func Run(cfg Config, db *storage.DB) error {
	s := &Server{db: db}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dashboard", s.dashboardHandler)
	mux.HandleFunc("/api/v1/sdgs", s.sdgsHandler)
	mux.HandleFunc("/api/v1/sdgs/", s.sdgSummaryHandler)
	mux.HandleFunc("/api/v1/activities", s.activitiesHandler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	utils.Log.Infof("Dashboard API listening on %s", cfg.ListenAddr)
	return srv.ListenAndServe()
}
