package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mini-rodalies-3d/ticketwatch/internal/db"
	"github.com/mini-rodalies-3d/ticketwatch/internal/monitor"
)

type fakeMonitor struct {
	status monitor.Status
}

func (f fakeMonitor) Snapshot() monitor.Status { return f.status }

type fakeHistory struct {
	polls     []db.Poll
	err       error
	lastLimit int
}

func (f *fakeHistory) RecentPolls(ctx context.Context, limit int) ([]db.Poll, error) {
	f.lastLimit = limit
	return f.polls, f.err
}

var testStatus = monitor.Status{
	FromStation:     "北京北",
	ToStation:       "汉中东",
	TrainDate:       "2025-07-12",
	IntervalSeconds: 60,
	State:           "sleeping",
	Running:         true,
	Polls:           3,
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := NewRouter(NewHandler(fakeMonitor{status: testStatus}, nil))

	rec := get(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["monitor"] != "sleeping" || body["history"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestGetStatus(t *testing.T) {
	router := NewRouter(NewHandler(fakeMonitor{status: testStatus}, nil))

	rec := get(t, router, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got monitor.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.FromStation != "北京北" || got.State != "sleeping" || !got.Running || got.Polls != 3 {
		t.Errorf("status = %+v", got)
	}
}

func TestGetHistory(t *testing.T) {
	history := &fakeHistory{polls: []db.Poll{
		{SnapshotID: "b", PolledAt: time.Now(), TrainCount: 2},
		{SnapshotID: "a", PolledAt: time.Now().Add(-time.Minute), TrainCount: 1},
	}}
	router := NewRouter(NewHandler(fakeMonitor{status: testStatus}, history))

	rec := get(t, router, "/api/history?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	var body HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || body.Polls[0].SnapshotID != "b" {
		t.Errorf("body = %+v", body)
	}
	if history.lastLimit != 5 {
		t.Errorf("limit = %d, expected 5", history.lastLimit)
	}

	get(t, router, "/api/history?limit=100000")
	if history.lastLimit != maxHistoryLimit {
		t.Errorf("limit = %d, expected cap %d", history.lastLimit, maxHistoryLimit)
	}

	get(t, router, "/api/history")
	if history.lastLimit != defaultHistoryLimit {
		t.Errorf("limit = %d, expected default %d", history.lastLimit, defaultHistoryLimit)
	}
}

func TestGetHistory_Errors(t *testing.T) {
	tests := []struct {
		name     string
		history  HistoryReader
		path     string
		expected int
	}{
		{"disabled", nil, "/api/history", http.StatusServiceUnavailable},
		{"bad limit", &fakeHistory{}, "/api/history?limit=abc", http.StatusBadRequest},
		{"zero limit", &fakeHistory{}, "/api/history?limit=0", http.StatusBadRequest},
		{"store failure", &fakeHistory{err: errors.New("locked")}, "/api/history", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(fakeMonitor{status: testStatus}, tt.history))
			rec := get(t, router, tt.path)
			if rec.Code != tt.expected {
				t.Errorf("status = %d, expected %d", rec.Code, tt.expected)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
				t.Errorf("error body = %+v, %v", body, err)
			}
		})
	}
}

func TestGetHistory_Empty(t *testing.T) {
	router := NewRouter(NewHandler(fakeMonitor{status: testStatus}, &fakeHistory{}))

	rec := get(t, router, "/api/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	var body map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&body)
	if polls, ok := body["polls"].([]interface{}); !ok || len(polls) != 0 {
		t.Errorf("polls = %v, expected empty list", body["polls"])
	}
}
