package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// guardGET handles OPTIONS preflight and rejects non-GET methods; it
// reports whether the caller should continue.
func guardGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodOptions {
		setCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Errorf("API: error encoding response: %v", err)
	}
}

// dashboardHandler serves GET /api/v1/dashboard — the summary card counts.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	if !guardGET(w, r) {
		return
	}

	stats, err := s.db.GetDashboardStats(r.Context())
	if err != nil {
		utils.Log.Errorf("API: error loading dashboard stats: %v", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// sdgsHandler serves GET /api/v1/sdgs — all 17 goals with impact counts.
func (s *Server) sdgsHandler(w http.ResponseWriter, r *http.Request) {
	if !guardGET(w, r) {
		return
	}

	sdgs, err := s.db.GetSDGStats(r.Context())
	if err != nil {
		utils.Log.Errorf("API: error loading SDG stats: %v", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"sdgs": sdgs})
}

// sdgSummaryHandler serves GET /api/v1/sdgs/{n}/summary.
func (s *Server) sdgSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !guardGET(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sdgs/")
	numberStr, tail, _ := strings.Cut(rest, "/")
	number, err := strconv.Atoi(numberStr)
	if err != nil || tail != "summary" || number < 1 || number > 17 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	summary, err := s.db.GetSDGSummary(r.Context(), number)
	if err != nil {
		utils.Log.Errorf("API: error loading SDG %d summary: %v", number, err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

type apiActivity struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ActivityType    string `json:"activity_type"`
	Status          string `json:"status"`
	Authors         string `json:"authors,omitempty"`
	PublicationDate string `json:"original_publication_date,omitempty"`
	ExternalURL     string `json:"external_url,omitempty"`
	IsScraped       bool   `json:"is_scraped"`
	AIClassified    bool   `json:"ai_classified"`
}

// activitiesHandler serves GET /api/v1/activities with optional ?type=,
// ?scraped=true, ?since=YYYY-MM-DD and ?limit= filters.
func (s *Server) activitiesHandler(w http.ResponseWriter, r *http.Request) {
	if !guardGET(w, r) {
		return
	}

	q := r.URL.Query()
	opts := storage.ListOptions{
		Type:        storage.ActivityType(q.Get("type")),
		ScrapedOnly: q.Get("scraped") == "true",
	}
	if sinceStr := q.Get("since"); sinceStr != "" {
		since, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			http.Error(w, `{"error":"invalid since date, use YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		opts.Since = since
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}

	activities, err := s.db.ListActivities(r.Context(), opts)
	if err != nil {
		utils.Log.Errorf("API: error listing activities: %v", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	out := make([]apiActivity, 0, len(activities))
	for _, a := range activities {
		item := apiActivity{
			ID:           a.ID,
			Title:        a.Title,
			Description:  a.Description,
			ActivityType: string(a.ActivityType),
			Status:       a.Status,
			Authors:      a.Authors,
			ExternalURL:  a.ExternalURL,
			IsScraped:    a.IsScraped,
			AIClassified: a.AIClassified,
		}
		if a.OriginalPublicationDate != nil {
			item.PublicationDate = a.OriginalPublicationDate.Format("2006-01-02")
		}
		out = append(out, item)
	}
	writeJSON(w, map[string]interface{}{"activities": out, "total_count": len(out)})
}
