package twitchapi

import (
	"context"
	"strings"
	"time"

	"github.com/onnwee/cw-bot/cache"
	"github.com/onnwee/cw-bot/telemetry"
)

// broadcasterIDCacheTTL bounds how long a login→id mapping is reused.
// Identities rarely change; an hour keeps chatty channels from hammering
// the users endpoint.
const broadcasterIDCacheTTL = time.Hour

const broadcasterIDCacheName = "twitch_broadcaster_id"

// CategoryResolver resolves a channel login to its current game/category
// name. Broadcaster ids are cached; channel metadata is always fetched live.
type CategoryResolver struct {
	helix *HelixClient
	ids   *cache.Cache[string]
}

// NewCategoryResolver returns a resolver backed by the given Helix client.
func NewCategoryResolver(helix *HelixClient) *CategoryResolver {
	return &CategoryResolver{helix: helix, ids: cache.New[string]()}
}

// CurrentCategoryByLogin returns the current category name for a channel, or
// "" when the login is unknown or the channel has no category set. "" is a
// valid terminal state, not an error.
func (r *CategoryResolver) CurrentCategoryByLogin(ctx context.Context, login string) (string, error) {
	id, err := r.broadcasterID(ctx, login)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", nil
	}
	info, err := r.helix.GetChannelInfo(ctx, id)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", nil
	}
	return info.CategoryName, nil
}

func (r *CategoryResolver) broadcasterID(ctx context.Context, login string) (string, error) {
	key := broadcasterIDCacheName + ":" + strings.ToLower(login)
	if id, ok := r.ids.Get(key); ok {
		telemetry.CountCacheHit(broadcasterIDCacheName)
		return id, nil
	}
	telemetry.CountCacheMiss(broadcasterIDCacheName)
	b, err := r.helix.GetBroadcasterByLogin(ctx, login)
	if err != nil {
		return "", err
	}
	if b == nil {
		// Unknown logins are not cached; a typo shouldn't be remembered
		// for an hour.
		return "", nil
	}
	r.ids.Set(key, b.ID, broadcasterIDCacheTTL)
	return b.ID, nil
}
