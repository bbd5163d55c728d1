package dddapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchGamesEscapesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"id":       int64(9),
				"itemType": map[string]any{"id": 17, "name": "Video Game"},
			}},
		})
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	if _, err := c.SearchGames(context.Background(), "Baldur's Gate 3 & Friends"); err != nil {
		t.Fatalf("SearchGames() error: %v", err)
	}
	if gotQuery != "Baldur's Gate 3 & Friends" {
		t.Errorf("decoded q = %q, want original title round-tripped", gotQuery)
	}
}

func TestSearchGamesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	_, err := c.SearchGames(context.Background(), "Celeste")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsNotFound(err) {
		t.Errorf("transport failure must not be a NotFoundError: %v", err)
	}
}

func TestMediaTopicStatsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	if _, err := c.MediaTopicStats(context.Background(), 42); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestIsNotFound(t *testing.T) {
	nf := &NotFoundError{Reason: "no games"}
	if !IsNotFound(nf) {
		t.Error("IsNotFound(NotFoundError) = false")
	}
	if !IsNotFound(fmt.Errorf("lookup: %w", nf)) {
		t.Error("IsNotFound(wrapped) = false")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("IsNotFound(other) = true")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) = true")
	}
}

func TestItemIsVideoGame(t *testing.T) {
	var byID, byName, neither Item
	byID.ItemType.ID = 17
	byName.ItemType.Name = "Video Game"
	neither.ItemType.ID = 1
	neither.ItemType.Name = "Movie"

	if !byID.IsVideoGame() || !byName.IsVideoGame() {
		t.Error("expected id 17 and name \"Video Game\" to both qualify")
	}
	if neither.IsVideoGame() {
		t.Error("movie item must not qualify as a video game")
	}
}
