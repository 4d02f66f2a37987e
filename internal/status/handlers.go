// Package status exposes the monitor's state and poll history over HTTP.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mini-rodalies-3d/ticketwatch/internal/db"
	"github.com/mini-rodalies-3d/ticketwatch/internal/monitor"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// MonitorSource provides monitor snapshots
type MonitorSource interface {
	Snapshot() monitor.Status
}

// HistoryReader reads recorded polls
type HistoryReader interface {
	RecentPolls(ctx context.Context, limit int) ([]db.Poll, error)
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryResponse is the JSON response for GET /api/history
type HistoryResponse struct {
	Polls []db.Poll `json:"polls"`
	Count int       `json:"count"`
}

// Handler serves the status endpoints
type Handler struct {
	monitor MonitorSource
	history HistoryReader
}

// NewHandler creates a handler. history may be nil when poll history is disabled.
func NewHandler(m MonitorSource, history HistoryReader) *Handler {
	return &Handler{monitor: m, history: history}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.monitor.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"monitor":   s.State,
		"history":   h.history != nil,
		"timestamp": time.Now().UTC(),
	})
}

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

// GetHistory handles GET /api/history?limit=N
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Poll history is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	polls, err := h.history.RecentPolls(ctx, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to read poll history"})
		return
	}
	if polls == nil {
		polls = []db.Poll{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Polls: polls, Count: len(polls)})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
