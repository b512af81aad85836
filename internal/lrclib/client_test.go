package lrclib

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			t.Errorf("path = %q, want /get", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("artist_name") != "Massive Attack" || q.Get("track_name") != "Teardrop" {
			t.Errorf("query = %v", q)
		}
		if q.Get("duration") != "331" {
			t.Errorf("duration = %q, want 331", q.Get("duration"))
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		_ = json.NewEncoder(w).Encode(Result{TrackName: "Teardrop", SyncedLyrics: "[00:01.00]Love"})
	}))
	defer srv.Close()

	got, err := New(srv.URL).Get(t.Context(), "Massive Attack", "Teardrop", 330600*time.Millisecond)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.HasSynced() || got.HasPlain() {
		t.Errorf("HasSynced, HasPlain = %v, %v, want true, false", got.HasSynced(), got.HasPlain())
	}
}

func TestGetNoDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("duration") {
			t.Error("duration sent for unknown length")
		}
		_ = json.NewEncoder(w).Encode(Result{PlainLyrics: "words"})
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Get(t.Context(), "a", "b", 0); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

func TestGetStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL).Get(t.Context(), "a", "b", 0)
			if err == nil {
				t.Fatal("Get() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "teardrop" {
			t.Errorf("request = %s", r.URL)
		}
		_ = json.NewEncoder(w).Encode([]Result{{ID: 1}, {ID: 2}})
	}))
	defer srv.Close()

	got, err := New(srv.URL).Search(t.Context(), "teardrop")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 {
		t.Errorf("Search() = %v, want two results in order", got)
	}
}
