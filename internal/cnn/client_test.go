package cnn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CunXin1/fearwatch/internal/models"
)

const latestFixture = `{
	"data": {
		"fear_and_greed": {"score": 8.2, "rating": "extreme fear", "timestamp": "2026-08-31T16:00:00Z"},
		"market_volatility_vix": {"score": 61.0, "rating": "fear", "date": "2026-08-31"},
		"put_call_options": {"rating": "neutral"},
		"junk_bond_demand": {"score": 44.7, "rating": "neutral", "timestamp": "2026-08-31T16:00:00Z"}
	}
}`

func TestFetchLatest(t *testing.T) {
	var gotKey, gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cnn/v1/fear_and_greed/index" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotKey = r.Header.Get("x-rapidapi-key")
		gotHost = r.Header.Get("x-rapidapi-host")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(latestFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second, 3, time.Millisecond)
	readings, err := c.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("x-rapidapi-key: got %q", gotKey)
	}
	if gotHost == "" {
		t.Error("x-rapidapi-host header should be set")
	}

	// put_call_options has no score and must be dropped.
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}

	byName := make(map[string]models.Reading)
	for _, r := range readings {
		byName[r.IndexName] = r
	}
	fg, ok := byName[models.IndexFearAndGreed]
	if !ok {
		t.Fatal("fear_and_greed reading missing")
	}
	if fg.Score != 8.2 || fg.Date != "2026-08-31" {
		t.Errorf("fear_and_greed: got score=%v date=%q", fg.Score, fg.Date)
	}
	if _, ok := byName["put_call_options"]; ok {
		t.Error("scoreless item should have been skipped")
	}
}

func TestFetchHistorical_UnsupportedIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second, 3, time.Millisecond)
	readings, err := c.FetchHistorical(context.Background(), "safe_haven_demand")
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if readings != nil {
		t.Errorf("expected nil readings for unsupported index, got %v", readings)
	}
}

func TestFetchHistorical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cnn/v1/fear_and_greed/historical" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("order") != "desc" {
			t.Errorf("expected order=desc, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data": [
			{"score": 12.0, "rating": "extreme fear", "date": "2026-08-30"},
			{"score": 15.5, "rating": "extreme fear", "date": "2026-08-29"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second, 3, time.Millisecond)
	readings, err := c.FetchHistorical(context.Background(), "fear_and_greed")
	if err != nil {
		t.Fatalf("FetchHistorical: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].Date != "2026-08-30" || readings[1].Date != "2026-08-29" {
		t.Errorf("dates: got %q, %q", readings[0].Date, readings[1].Date)
	}
}

func TestDoRequest_RetriesOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second, 3, time.Millisecond)
	if _, err := c.FetchLatest(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestFetchLatest_GivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second, 2, time.Millisecond)
	if _, err := c.FetchLatest(context.Background()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}
