package dddapi

import (
	"context"
	"fmt"
	"time"

	"github.com/onnwee/cw-bot/cache"
	"github.com/onnwee/cw-bot/telemetry"
)

// resultCacheTTL is deliberately short: the streamed game changes and the
// crowdsourced votes themselves update.
const resultCacheTTL = time.Minute

const resultCacheName = "ddd_result"

// Result is the final output of a content-warning lookup. Immutable once
// constructed.
type Result struct {
	ContentWarnings []string
	URL             string
}

// Service runs the search→detail→filter pipeline with a short-lived result
// cache keyed by (title, sensitive-only flag).
type Service struct {
	client  *Client
	results *cache.Cache[Result]
}

// NewService returns a Service backed by the given client.
func NewService(client *Client) *Service {
	return &Service{client: client, results: cache.New[Result]()}
}

// Lookup resolves a game title to its content warnings. The first
// video-game search result in API order is the canonical match; there is no
// ranking or disambiguation. sensitiveOnly additionally requires topics to
// be marked sensitive by the service.
func (s *Service) Lookup(ctx context.Context, gameTitle string, sensitiveOnly bool) (Result, error) {
	key := resultCacheKey(gameTitle, sensitiveOnly)
	if res, ok := s.results.Get(key); ok {
		telemetry.CountCacheHit(resultCacheName)
		return res, nil
	}
	telemetry.CountCacheMiss(resultCacheName)

	res, err := s.lookup(ctx, gameTitle, sensitiveOnly)
	if err != nil {
		return Result{}, err
	}
	s.results.Set(key, res, resultCacheTTL)
	return res, nil
}

func (s *Service) lookup(ctx context.Context, gameTitle string, sensitiveOnly bool) (Result, error) {
	games, err := s.client.SearchGames(ctx, gameTitle)
	if err != nil {
		return Result{}, err
	}
	game := games[0]

	stats, err := s.client.MediaTopicStats(ctx, game.ID)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ContentWarnings: filterWarnings(stats, sensitiveOnly),
		URL:             fmt.Sprintf("%s/media/%d", resultDomain, game.ID),
	}, nil
}

// filterWarnings keeps affirmatively-voted topics (and, when sensitiveOnly,
// only those the service marks sensitive), mapped to their category name and
// deduplicated in first-occurrence order.
func filterWarnings(stats []TopicStat, sensitiveOnly bool) []string {
	warnings := make([]string, 0, len(stats))
	seen := make(map[string]bool, len(stats))
	for _, st := range stats {
		if st.IsYes != 1 {
			continue
		}
		if sensitiveOnly && !st.Topic.IsSensitive {
			continue
		}
		name := st.Topic.TopicCategory.Name
		if seen[name] {
			continue
		}
		seen[name] = true
		warnings = append(warnings, name)
	}
	return warnings
}

func resultCacheKey(gameTitle string, sensitiveOnly bool) string {
	variant := "all"
	if sensitiveOnly {
		variant = "sensitive"
	}
	return resultCacheName + ":" + gameTitle + ":" + variant
}
