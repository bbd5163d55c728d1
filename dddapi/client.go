// Package dddapi implements the doesthedogdie.com lookup pipeline: free-text
// game title search, topic statistics fetch, and the filtered, deduplicated
// content-warning list the bot posts in chat.
package dddapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://www.doesthedogdie.com"

// resultDomain is the host used in user-facing reference URLs.
const resultDomain = "doesthedogdie.com"

const (
	itemTypeVideoGameID   = 17
	itemTypeVideoGameName = "Video Game"
)

// Item is a single search result. Only video-game items are candidates.
type Item struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ItemType struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"itemType"`
}

// IsVideoGame reports whether the item is tagged as a video game, by the
// numeric type id or the literal type name.
func (it Item) IsVideoGame() bool {
	return it.ItemType.ID == itemTypeVideoGameID || it.ItemType.Name == itemTypeVideoGameName
}

// TopicStat is one crowdsourced topic entry from the media detail payload.
type TopicStat struct {
	IsYes int `json:"isYes"`
	Topic struct {
		IsSensitive   bool `json:"isSensitive"`
		TopicCategory struct {
			Name string `json:"name"`
		} `json:"TopicCategory"`
	} `json:"topic"`
}

// Client performs authenticated calls against doesthedogdie.com.
type Client struct {
	APIKey     string
	BaseURL    string // defaults to the production endpoint
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)
	resp, err := c.http().Do(req)
	if err != nil {
		return fmt.Errorf("doesthedogdie %s: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("doesthedogdie %s failed: %s: %s", path, resp.Status, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("doesthedogdie %s decode: %w", path, err)
	}
	return nil
}

// SearchGames searches by free-text title and returns the video-game
// candidates in API order. Zero candidates is a NotFoundError, never an
// empty result.
func (c *Client) SearchGames(ctx context.Context, gameTitle string) ([]Item, error) {
	if gameTitle == "" {
		return nil, &NotFoundError{Reason: "no game title sent to search"}
	}
	var body struct {
		Items []Item `json:"items"`
	}
	if err := c.get(ctx, "dddsearch?q="+url.QueryEscape(gameTitle), &body); err != nil {
		return nil, err
	}
	if len(body.Items) == 0 {
		return nil, &NotFoundError{Reason: fmt.Sprintf("no items for %q", gameTitle)}
	}
	games := make([]Item, 0, len(body.Items))
	for _, it := range body.Items {
		if it.IsVideoGame() {
			games = append(games, it)
		}
	}
	if len(games) == 0 {
		return nil, &NotFoundError{Reason: fmt.Sprintf("no games for %q", gameTitle)}
	}
	return games, nil
}

// MediaTopicStats fetches the topic statistics for a media id.
func (c *Client) MediaTopicStats(ctx context.Context, id int64) ([]TopicStat, error) {
	var body struct {
		TopicItemStats []TopicStat `json:"topicItemStats"`
	}
	if err := c.get(ctx, fmt.Sprintf("media/%d", id), &body); err != nil {
		return nil, err
	}
	if len(body.TopicItemStats) == 0 {
		return nil, &NotFoundError{Reason: fmt.Sprintf("no topic items for media id %d", id)}
	}
	return body.TopicItemStats, nil
}
