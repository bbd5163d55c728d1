package twitchapi

import (
	"context"
	"testing"

	"github.com/onnwee/cw-bot/testutil"
)

func newCategoryResolver(t *testing.T, m *testutil.MockTwitchServer) *CategoryResolver {
	t.Helper()
	m.MockOAuthTokenResponse("test-token", 3600)
	hc := &HelixClient{
		AppTokenSource: &TokenSource{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			TokenURL:     m.TokenURL(),
		},
		ClientID: "test-client-id",
		BaseURL:  m.URL,
	}
	return NewCategoryResolver(hc)
}

func TestCurrentCategoryByLogin(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockUserResponse("777", "streamer")
	m.MockChannelResponse("777", "1", "Celeste")
	r := newCategoryResolver(t, m)

	got, err := r.CurrentCategoryByLogin(context.Background(), "streamer")
	if err != nil {
		t.Fatalf("CurrentCategoryByLogin() error: %v", err)
	}
	if got != "Celeste" {
		t.Errorf("category = %q, want Celeste", got)
	}
}

func TestCurrentCategoryCachesBroadcasterID(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockUserResponse("777", "streamer")
	m.MockChannelResponse("777", "1", "Celeste")
	r := newCategoryResolver(t, m)

	for i := 0; i < 3; i++ {
		if _, err := r.CurrentCategoryByLogin(context.Background(), "streamer"); err != nil {
			t.Fatalf("lookup %d error: %v", i, err)
		}
	}
	if m.UserCalls.Load() != 1 {
		t.Errorf("users endpoint called %d times, want 1 (id cached)", m.UserCalls.Load())
	}
}

func TestCurrentCategoryUnknownLogin(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockUserResponse("777", "streamer")
	m.MockChannelResponse("777", "1", "Celeste")
	r := newCategoryResolver(t, m)

	got, err := r.CurrentCategoryByLogin(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unknown login must not be an error, got %v", err)
	}
	if got != "" {
		t.Errorf("category = %q for unknown login, want empty", got)
	}

	// Unknown logins are not cached: a second lookup hits the API again.
	if _, err := r.CurrentCategoryByLogin(context.Background(), "nobody"); err != nil {
		t.Fatalf("second lookup error: %v", err)
	}
	if m.UserCalls.Load() != 2 {
		t.Errorf("users endpoint called %d times for unknown login, want 2", m.UserCalls.Load())
	}
}

func TestCurrentCategoryEmptyCategory(t *testing.T) {
	m := testutil.NewMockTwitchServer(t)
	m.MockUserResponse("777", "streamer")
	m.MockChannelResponse("777", "1", "")
	r := newCategoryResolver(t, m)

	got, err := r.CurrentCategoryByLogin(context.Background(), "streamer")
	if err != nil {
		t.Fatalf("CurrentCategoryByLogin() error: %v", err)
	}
	if got != "" {
		t.Errorf("category = %q, want empty for uncategorized stream", got)
	}
}
