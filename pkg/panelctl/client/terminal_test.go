package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakglassEndpoints(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/terminal/breakglass/status":
			require.Equal(t, http.MethodGet, r.Method)
			_ = json.NewEncoder(w).Encode(BreakglassStatus{
				Active:           true,
				RemainingSeconds: 600,
				ExpiresAt:        expires,
			})
		case "/terminal/breakglass/start":
			var req breakglassStartRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "secret", req.Password)
			require.Equal(t, "123456", req.TOTPCode)
			_ = json.NewEncoder(w).Encode(BreakglassGrant{
				Token:      "bg-token",
				ExpiresAt:  expires,
				TTLSeconds: 600,
			})
		case "/terminal/breakglass/stop":
			var req breakglassStopRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "user_requested", req.Reason)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)
	terminal := c.Terminal()

	status, err := terminal.BreakglassStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.Active)
	require.EqualValues(t, 600, status.RemainingSeconds)
	require.True(t, status.ExpiresAt.Equal(expires))

	grant, err := terminal.BreakglassStart(context.Background(), "secret", "123456")
	require.NoError(t, err)
	require.Equal(t, "bg-token", grant.Token)
	require.EqualValues(t, 600, grant.TTLSeconds)

	require.NoError(t, terminal.BreakglassStop(context.Background(), "user_requested"))
}

func TestBreakglassStartRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid password or TOTP code"})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	grant, err := c.Terminal().BreakglassStart(context.Background(), "wrong", "000000")
	require.Nil(t, grant)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindAuth, apiErr.Kind)
	require.Equal(t, "Invalid password or TOTP code", apiErr.Message)
}

func TestExec(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/terminal/exec", r.URL.Path)
		var req ExecRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "uptime", req.Command)
		_ = json.NewEncoder(w).Encode(ExecResult{Output: "up 3 days", ExitCode: 0})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	result, err := c.Terminal().Exec(context.Background(), "uptime")
	require.NoError(t, err)
	require.Equal(t, "up 3 days", result.Output)
	require.Zero(t, result.ExitCode)
}
