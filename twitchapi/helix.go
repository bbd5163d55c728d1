// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for broadcaster id resolution and live channel metadata, using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/onnwee/cw-bot/telemetry"
)

const defaultHelixBaseURL = "https://api.twitch.tv/helix"

// rateLimitWarnRatio is the remaining/limit fraction below which a warning is
// logged. The warning never delays or blocks a request.
const rateLimitWarnRatio = 0.33

// Broadcaster is a Twitch account resolved from a login name.
type Broadcaster struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// ChannelInfo is the live channel metadata for a broadcaster.
type ChannelInfo struct {
	ID           string `json:"broadcaster_id"`
	Username     string `json:"broadcaster_name"`
	Language     string `json:"broadcaster_language"`
	Title        string `json:"title"`
	CategoryID   string `json:"game_id"`
	CategoryName string `json:"game_name"`
}

// HelixClient provides the minimal Helix surface the bot needs.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	BaseURL        string // defaults to the Twitch Helix endpoint
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return hc.BaseURL
	}
	return defaultHelixBaseURL
}

// get performs an authenticated GET against a Helix endpoint and decodes the
// JSON body into out. A 204 leaves out untouched. A fresh app token is
// requested per call.
func (hc *HelixClient) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/"+endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	resp, err := hc.http().Do(req)
	if err != nil {
		return fmt.Errorf("helix %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	checkRateLimit(endpoint, resp.Header)

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("helix %s failed: %s: %s", endpoint, resp.Status, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("helix %s decode: %w", endpoint, err)
	}
	return nil
}

// checkRateLimit logs when the remaining request budget gets low. Detection
// only; no backoff is applied.
func checkRateLimit(endpoint string, h http.Header) {
	limit, err1 := strconv.ParseFloat(h.Get("Ratelimit-Limit"), 64)
	remaining, err2 := strconv.ParseFloat(h.Get("Ratelimit-Remaining"), 64)
	if err1 != nil || err2 != nil || limit <= 0 {
		return
	}
	if remaining/limit < rateLimitWarnRatio {
		slog.Warn("twitch rate limit budget low",
			slog.String("endpoint", endpoint),
			slog.Float64("remaining", remaining),
			slog.Float64("limit", limit))
		telemetry.CountRateLimitWarning()
	}
}

// GetBroadcasterByLogin resolves a login name to a broadcaster. An unknown
// login returns (nil, nil): "no such user" is a valid terminal state,
// distinct from a transport error.
func (hc *HelixClient) GetBroadcasterByLogin(ctx context.Context, login string) (*Broadcaster, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	q := url.Values{}
	q.Set("login", login)
	var body struct {
		Data []Broadcaster `json:"data"`
	}
	if err := hc.get(ctx, "users", q, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	return &body.Data[0], nil
}

// GetChannelInfo fetches current channel metadata (title, category) for a
// broadcaster id. Always live, never cached: the category changes often.
func (hc *HelixClient) GetChannelInfo(ctx context.Context, broadcasterID string) (*ChannelInfo, error) {
	if broadcasterID == "" {
		return nil, fmt.Errorf("broadcasterID empty")
	}
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	var body struct {
		Data []ChannelInfo `json:"data"`
	}
	if err := hc.get(ctx, "channels", q, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	return &body.Data[0], nil
}
