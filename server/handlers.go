// Package server exposes the HTTP API: health, readiness, status, metrics,
// and admin subscriber management. It injects correlation IDs into request
// contexts for consistent logging.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/cw-bot/config"
	"github.com/onnwee/cw-bot/db"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(dbx *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: dbx, cfg: cfg}
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"twitch_credentials", func() error { return h.cfg.ValidateChatReady() }},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a lightweight status summary.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	resp := map[string]any{
		"bot_username":       h.cfg.TwitchBotUsername,
		"ignored_categories": h.cfg.IgnoredCategories,
		"sensitive_only":     h.cfg.SensitiveOnly,
	}
	if n, err := db.CountSubscribers(ctx, h.db); err == nil {
		resp["subscribers"] = n
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleAdminSubscribers manages the opt-in list out of band: GET lists,
// POST adds, DELETE removes. Chat-side join/part takes effect on the next
// bot connect.
func (h *Handlers) HandleAdminSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		subs, err := db.ListSubscribers(ctx, h.db)
		if err != nil {
			slog.Error("failed to list subscribers", slog.Any("err", err))
			http.Error(w, "failed to list subscribers", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(subs))
		for _, s := range subs {
			out = append(out, map[string]any{
				"username":   s.Username,
				"note":       s.Note,
				"created_at": s.CreatedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost, http.MethodDelete:
		var body struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
			http.Error(w, "invalid json: want {\"username\": ...}", http.StatusBadRequest)
			return
		}
		var err error
		if r.Method == http.MethodPost {
			err = db.CreateSubscriber(ctx, h.db, body.Username)
		} else {
			err = db.DeleteSubscriber(ctx, h.db, body.Username)
		}
		if err != nil {
			slog.Error("failed to update subscribers", slog.String("user", body.Username), slog.Any("err", err))
			http.Error(w, "failed to update subscribers", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
