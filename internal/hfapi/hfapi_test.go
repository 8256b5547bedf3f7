package hfapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var feedDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

const feedBody = `[
  {"paper": {"id": "2405.00002", "title": "Low", "summary": "s2", "upvotes": 3,
             "authors": [{"name": "Direct Name"}], "publishedAt": "2024-05-01T00:00:00Z"}},
  {"paper": {"id": "2405.00001", "title": "High", "summary": "s1", "upvotes": 42,
             "authors": [{"user": {"fullname": "Linked Name"}}, {}]}},
  {"paper": {"id": "", "title": "No ID"}},
  {"paper": {"id": "2405.00003", "title": "Mid", "summary": "s3", "upvotes": 10}}
]`

func TestFetchDaily(t *testing.T) {
	var gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), WithBaseURL(srv.URL))
	papers, err := client.FetchDaily(context.Background(), feedDay, 2)
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}

	if gotDate != "2024-05-01" {
		t.Errorf("date param = %q, want 2024-05-01", gotDate)
	}

	// Top 2 by upvotes, the id-less item skipped.
	if len(papers) != 2 {
		t.Fatalf("len(papers) = %d, want 2", len(papers))
	}
	if papers[0].ArxivID != "2405.00001" || papers[1].ArxivID != "2405.00003" {
		t.Errorf("order = %s, %s; want 2405.00001, 2405.00003", papers[0].ArxivID, papers[1].ArxivID)
	}

	// Derived links are filled during fetch.
	if papers[0].HFURL != "https://huggingface.co/papers/2405.00001" {
		t.Errorf("HFURL = %q", papers[0].HFURL)
	}
	// The linked-account fallback name is used; empty authors are dropped.
	if len(papers[0].Authors) != 1 || papers[0].Authors[0] != "Linked Name" {
		t.Errorf("Authors = %v", papers[0].Authors)
	}
}

func TestFetchDailyZeroTopNKeepsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), WithBaseURL(srv.URL))
	papers, err := client.FetchDaily(context.Background(), feedDay, 0)
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if len(papers) != 3 {
		t.Errorf("len(papers) = %d, want 3", len(papers))
	}
}

func TestFetchDailyRetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), WithBaseURL(srv.URL))
	client.retryDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := client.FetchDaily(ctx, feedDay, 5)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("FetchDaily() error = %v, want ErrFetchFailed", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 attempts", calls)
	}
}

func TestFetchDailyBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), WithBaseURL(srv.URL))
	client.retryDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := client.FetchDaily(ctx, feedDay, 5); err == nil {
		t.Error("FetchDaily() with invalid JSON, want error")
	}
}
