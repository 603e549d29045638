package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/picontrol/panelctl/pkg/panelctl/session"
)

// refreshBackend is an httptest handler that rejects the old token,
// issues a new one from the refresh endpoint, and accepts the new token.
type refreshBackend struct {
	newToken     string
	refreshFails bool
	refreshDelay time.Duration

	refreshCalls atomic.Int64
	resourceHits atomic.Int64
}

func (b *refreshBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			b.refreshCalls.Add(1)
			if b.refreshDelay > 0 {
				time.Sleep(b.refreshDelay)
			}
			if b.refreshFails {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid or expired refresh token"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": b.newToken})
		default:
			b.resourceHits.Add(1)
			if r.Header.Get("Authorization") != "Bearer "+b.newToken {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	})
}

func TestRefreshAndRetrySucceeds(t *testing.T) {
	backend := &refreshBackend{newToken: "fresh"}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	store := &session.MemoryStore{}
	require.NoError(t, store.Save("stale"))

	expired := 0
	c, err := New(
		WithServer(server.URL),
		WithTokenStore(store),
		WithSessionExpiredHandler(func() { expired++ }),
	)
	require.NoError(t, err)

	var result map[string]string
	err = c.do(context.Background(), http.MethodGet, "/resources", nil, &result)
	require.NoError(t, err)
	require.Equal(t, "ok", result["status"])

	// One refresh, original call plus one replay.
	require.EqualValues(t, 1, backend.refreshCalls.Load())
	require.EqualValues(t, 2, backend.resourceHits.Load())
	require.Zero(t, expired)

	// The durable store holds the new token and the client uses it.
	stored, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fresh", stored)
	require.Equal(t, "fresh", c.Token())
}

func TestSecondUnauthorizedIsTerminal(t *testing.T) {
	// The server rejects every token, including the freshly issued one.
	var refreshCalls, resourceHits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
			return
		}
		resourceHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token"})
	}))
	defer server.Close()

	store := &session.MemoryStore{}
	require.NoError(t, store.Save("stale"))

	expired := 0
	c, err := New(
		WithServer(server.URL),
		WithTokenStore(store),
		WithSessionExpiredHandler(func() { expired++ }),
	)
	require.NoError(t, err)

	err = c.do(context.Background(), http.MethodGet, "/resources", nil, nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	// Exactly one refresh and one replay; no loop.
	require.EqualValues(t, 1, refreshCalls.Load())
	require.EqualValues(t, 2, resourceHits.Load())

	// Exactly one side effect, token gone everywhere.
	require.Equal(t, 1, expired)
	_, ok, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.False(t, ok)
	require.Empty(t, c.Token())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	backend := &refreshBackend{newToken: "fresh", refreshFails: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	store := &session.MemoryStore{}
	require.NoError(t, store.Save("stale"))

	expired := 0
	c, err := New(
		WithServer(server.URL),
		WithTokenStore(store),
		WithSessionExpiredHandler(func() { expired++ }),
	)
	require.NoError(t, err)

	err = c.do(context.Background(), http.MethodGet, "/resources", nil, nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	// The original 401 is preserved in the chain.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.Equal(t, 1, expired)
	require.EqualValues(t, 1, backend.refreshCalls.Load())
	// Only the original request hit the resource; no replay without a token.
	require.EqualValues(t, 1, backend.resourceHits.Load())
}

func TestUnauthorizedOnRefreshEndpointDoesNotRecurse(t *testing.T) {
	var refreshCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Refresh token required"})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("stale"))
	require.NoError(t, err)

	err = c.do(context.Background(), http.MethodPost, "auth/refresh", nil, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrSessionExpired)
	require.EqualValues(t, 1, refreshCalls.Load())
}

func TestUnauthorizedOnLoginDoesNotRefresh(t *testing.T) {
	var refreshCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL))
	require.NoError(t, err)

	_, err = c.Auth().Login(context.Background(), LoginRequest{Username: "admin", Password: "wrong"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindAuth, apiErr.Kind)
	require.Equal(t, "Invalid credentials", apiErr.Message)
	require.Zero(t, refreshCalls.Load())
}

func TestConcurrentUnauthorizedCoalescesRefresh(t *testing.T) {
	backend := &refreshBackend{newToken: "fresh", refreshDelay: 100 * time.Millisecond}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	store := &session.MemoryStore{}
	require.NoError(t, store.Save("stale"))

	c, err := New(WithServer(server.URL), WithTokenStore(store))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.do(context.Background(), http.MethodGet, "/resources", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// All parallel 401s share one refresh exchange.
	require.EqualValues(t, 1, backend.refreshCalls.Load())
	require.Equal(t, "fresh", c.Token())
}
