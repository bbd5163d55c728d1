package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// MockTwitchServer creates a test server that mocks Twitch Helix API responses
// plus the OAuth token endpoint.
type MockTwitchServer struct {
	*httptest.Server
	Handlers   map[string]http.HandlerFunc
	UserCalls  atomic.Int64
	TokenCalls atomic.Int64
}

// NewMockTwitchServer creates a new mock Twitch API server.
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			m.UserCalls.Add(1)
		case "/oauth2/token":
			m.TokenCalls.Add(1)
		}
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockUserResponse adds a handler for the /users endpoint.
func (m *MockTwitchServer) MockUserResponse(userID, login string) {
	m.Handlers["/users"] = func(w http.ResponseWriter, r *http.Request) {
		data := []map[string]string{}
		if r.URL.Query().Get("login") == login {
			data = append(data, map[string]string{"id": userID, "login": login})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data}) //nolint:errcheck // test mock response
	}
}

// MockChannelResponse adds a handler for the /channels endpoint.
func (m *MockTwitchServer) MockChannelResponse(broadcasterID, categoryID, categoryName string) {
	m.Handlers["/channels"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"data": []map[string]string{{
				"broadcaster_id": broadcasterID,
				"game_id":        categoryID,
				"game_name":      categoryName,
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockOAuthTokenResponse adds a handler for the OAuth token endpoint.
func (m *MockTwitchServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// TokenURL returns the mock token endpoint URL.
func (m *MockTwitchServer) TokenURL() string { return m.URL + "/oauth2/token" }

// MockDDDServer mocks the doesthedogdie.com API with call counting so tests
// can assert on result caching.
type MockDDDServer struct {
	*httptest.Server
	Handlers    map[string]http.HandlerFunc
	SearchCalls atomic.Int64
	MediaCalls  atomic.Int64
	WantAPIKey  string
}

// NewMockDDDServer creates a new mock doesthedogdie API server.
func NewMockDDDServer(t *testing.T) *MockDDDServer {
	t.Helper()
	m := &MockDDDServer{
		Handlers:   make(map[string]http.HandlerFunc),
		WantAPIKey: "test-api-key",
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.WantAPIKey != "" && r.Header.Get("X-API-KEY") != m.WantAPIKey {
			t.Errorf("missing or wrong X-API-KEY header: %q", r.Header.Get("X-API-KEY"))
		}
		key := r.URL.Path
		if strings.HasPrefix(key, "/media/") {
			m.MediaCalls.Add(1)
			key = "/media"
		} else if key == "/dddsearch" {
			m.SearchCalls.Add(1)
		}
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockSearchResponse adds a handler for the /dddsearch endpoint.
func (m *MockDDDServer) MockSearchResponse(items []map[string]any) {
	m.Handlers["/dddsearch"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items}) //nolint:errcheck // test mock response
	}
}

// MockMediaResponse adds a handler for /media/{id} endpoints.
func (m *MockDDDServer) MockMediaResponse(stats []map[string]any) {
	m.Handlers["/media"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"topicItemStats": stats}) //nolint:errcheck // test mock response
	}
}

// GameItem builds a search item tagged as a video game.
func GameItem(id int64, name string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"itemType": map[string]any{"id": 17, "name": "Video Game"},
	}
}

// MovieItem builds a search item tagged as a movie (not a candidate).
func MovieItem(id int64, name string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"itemType": map[string]any{"id": 1, "name": "Movie"},
	}
}

// TopicStat builds a topic statistics entry for media responses.
func TopicStat(category string, isYes int, isSensitive bool) map[string]any {
	return map[string]any{
		"isYes": isYes,
		"topic": map[string]any{
			"isSensitive":   isSensitive,
			"TopicCategory": map[string]any{"name": category},
		},
	}
}
