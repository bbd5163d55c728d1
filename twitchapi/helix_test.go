package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newTokenServer returns a token endpoint that always issues "test-token".
func newTokenServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("token request parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, helixURL string) *HelixClient {
	t.Helper()
	tokenSrv := newTokenServer(t, nil)
	return &HelixClient{
		AppTokenSource: &TokenSource{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			TokenURL:     tokenSrv.URL,
		},
		ClientID: "test-client-id",
		BaseURL:  helixURL,
	}
}

func TestTokenSourceFetchesFreshTokenPerCall(t *testing.T) {
	var calls atomic.Int64
	tokenSrv := newTokenServer(t, &calls)
	ts := &TokenSource{ClientID: "id", ClientSecret: "secret", TokenURL: tokenSrv.URL}

	for i := 0; i < 3; i++ {
		tok, err := ts.Get(context.Background())
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if tok != "test-token" {
			t.Fatalf("Get() = %q, want test-token", tok)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("token endpoint called %d times, want 3 (no token caching)", calls.Load())
	}
}

func TestTokenSourceMissingCreds(t *testing.T) {
	ts := &TokenSource{}
	if _, err := ts.Get(context.Background()); err == nil {
		t.Fatal("expected error for missing client id/secret")
	}
}

func TestGetBroadcasterByLogin(t *testing.T) {
	tests := []struct {
		response    any
		name        string
		login       string
		wantID      string
		errContains string
		statusCode  int
		wantNil     bool
		wantErr     bool
	}{
		{
			name:  "successful lookup",
			login: "celestestreamer",
			response: map[string]any{
				"data": []map[string]string{
					{"id": "12345", "login": "celestestreamer", "display_name": "CelesteStreamer"},
				},
			},
			statusCode: http.StatusOK,
			wantID:     "12345",
		},
		{
			name:       "unknown user is not an error",
			login:      "nonexistent",
			response:   map[string]any{"data": []map[string]string{}},
			statusCode: http.StatusOK,
			wantNil:    true,
		},
		{
			name:        "empty login",
			login:       "",
			wantErr:     true,
			errContains: "login empty",
		},
		{
			name:        "server error",
			login:       "someone",
			response:    map[string]any{"error": "Internal Server Error"},
			statusCode:  http.StatusInternalServerError,
			wantErr:     true,
			errContains: "helix users failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/users" {
					t.Errorf("path = %s, want /users", r.URL.Path)
				}
				if r.Header.Get("Client-Id") != "test-client-id" {
					t.Errorf("missing or wrong Client-Id header")
				}
				if r.Header.Get("Authorization") != "Bearer test-token" {
					t.Errorf("missing or wrong Authorization header")
				}
				if tt.login != "" && r.URL.Query().Get("login") != tt.login {
					t.Errorf("login query param = %s, want %s", r.URL.Query().Get("login"), tt.login)
				}
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					_ = json.NewEncoder(w).Encode(tt.response)
				}
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			b, err := client.GetBroadcasterByLogin(context.Background(), tt.login)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("GetBroadcasterByLogin() error = nil, want error containing %q", tt.errContains)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBroadcasterByLogin() unexpected error = %v", err)
			}
			if tt.wantNil {
				if b != nil {
					t.Fatalf("GetBroadcasterByLogin() = %+v, want nil for unknown user", b)
				}
				return
			}
			if b == nil || b.ID != tt.wantID {
				t.Errorf("GetBroadcasterByLogin() = %+v, want id %s", b, tt.wantID)
			}
		})
	}
}

func TestGetChannelInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("path = %s, want /channels", r.URL.Path)
		}
		if got := r.URL.Query().Get("broadcaster_id"); got != "12345" {
			t.Errorf("broadcaster_id = %s, want 12345", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{
				"broadcaster_id":       "12345",
				"broadcaster_name":     "CelesteStreamer",
				"broadcaster_language": "en",
				"title":                "strawberry time",
				"game_id":              "492744",
				"game_name":            "Celeste",
			}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	info, err := client.GetChannelInfo(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetChannelInfo() error: %v", err)
	}
	if info == nil || info.CategoryName != "Celeste" || info.Username != "CelesteStreamer" {
		t.Errorf("GetChannelInfo() = %+v, want Celeste channel", info)
	}
}

func TestGetChannelInfoEmptyID(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")
	if _, err := client.GetChannelInfo(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty broadcasterID")
	}
}

func TestGetNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	info, err := client.GetChannelInfo(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetChannelInfo() error on 204: %v", err)
	}
	if info != nil {
		t.Errorf("GetChannelInfo() = %+v on 204, want nil", info)
	}
}

func TestCheckRateLimitHeaders(t *testing.T) {
	// checkRateLimit only logs; this verifies it tolerates absent or
	// malformed headers without panicking.
	h := http.Header{}
	checkRateLimit("users", h)
	h.Set("Ratelimit-Limit", "800")
	h.Set("Ratelimit-Remaining", "100")
	checkRateLimit("users", h)
	h.Set("Ratelimit-Remaining", "garbage")
	checkRateLimit("users", h)
}
