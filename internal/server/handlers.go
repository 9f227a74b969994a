package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Uptime string            `json:"uptime"`
}

// ArchiveListResponse is returned by /api/digests
type ArchiveListResponse struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

// DigestResponse is returned by the single-digest endpoints
type DigestResponse struct {
	Date    string         `json:"date"`
	Count   int            `json:"count"`
	Entries []digest.Entry `json:"entries"`
}

var serverStartTime = time.Now()

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"output_dir": "ok"}
	status := http.StatusOK

	if info, err := os.Stat(s.config.OutputDir); err != nil || !info.IsDir() {
		checks["output_dir"] = "missing"
		status = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status: "ok",
		Checks: checks,
		Uptime: time.Since(serverStartTime).Round(time.Second).String(),
	}
	if status != http.StatusOK {
		resp.Status = "unhealthy"
	}
	s.respondJSON(w, status, resp)
}

// handleListDigests lists archived dates, newest first
func (s *Server) handleListDigests(w http.ResponseWriter, r *http.Request) {
	dates, err := digest.ListArchives(s.config.OutputDir)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list archives")
		s.respondError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	resp := ArchiveListResponse{Dates: make([]string, len(dates)), Count: len(dates)}
	for i, d := range dates {
		resp.Dates[i] = core.FormatDay(d)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleLatestDigest returns the newest archive
func (s *Server) handleLatestDigest(w http.ResponseWriter, r *http.Request) {
	d, err := digest.LoadLatest(s.config.OutputDir)
	if err != nil {
		if errors.Is(err, digest.ErrNoArchives) {
			s.respondError(w, http.StatusNotFound, "no digests archived yet")
			return
		}
		s.log.Error().Err(err).Msg("Failed to load latest digest")
		s.respondError(w, http.StatusInternalServerError, "failed to load digest")
		return
	}
	s.respondDigest(w, d)
}

// handleGetDigest returns the archive of one day
func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	d, err := digest.LoadDate(s.config.OutputDir, date)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, http.StatusNotFound, "no digest for "+core.FormatDay(date))
			return
		}
		s.log.Error().Err(err).Str("date", core.FormatDay(date)).Msg("Failed to load digest")
		s.respondError(w, http.StatusInternalServerError, "failed to load digest")
		return
	}
	s.respondDigest(w, d)
}

func (s *Server) respondDigest(w http.ResponseWriter, d *digest.Digest) {
	s.respondJSON(w, http.StatusOK, DigestResponse{
		Date:    core.FormatDay(d.Date),
		Count:   len(d.Entries),
		Entries: d.Entries,
	})
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes a JSON error body
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
