package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
)

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCommand(Config{ConfigPath: configPath, OutputWriter: &buf})
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)
	err := root.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "panelctl")

	out, err = runCommand(t, "", "version", "-o", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"version"`)
}

func TestConfigInitViewUseContext(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCommand(t, configPath, "config", "init", "--name", "pi-lab", "--server", "https://pi-lab.local/api")
	require.NoError(t, err)
	require.Contains(t, out, configPath)

	out, err = runCommand(t, configPath, "config", "view")
	require.NoError(t, err)
	require.Contains(t, out, "pi-lab")
	require.Contains(t, out, "https://pi-lab.local/api")

	_, err = runCommand(t, configPath, "config", "use-context", "missing")
	require.Error(t, err)

	out, err = runCommand(t, configPath, "config", "use-context", "pi-lab")
	require.NoError(t, err)
	require.Contains(t, out, "Switched to context pi-lab")
}

func TestConfigInitRejectsBadStorage(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCommand(t, configPath, "config", "init", "--server", "https://pi.local", "--token-storage", "vault")
	require.Error(t, err)
}

func TestAuthLoginAndStatus(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var req client.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin", req.Username)
		_ = json.NewEncoder(w).Encode(client.LoginResult{
			AccessToken: "at-1",
			User:        client.User{Username: "admin", Role: "admin"},
		})
	}))
	defer server.Close()

	out, err := runCommand(t, "", "--server", server.URL, "auth", "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as admin (admin)")

	// The stored token survives into the next invocation.
	out, err = runCommand(t, "", "--server", server.URL, "auth", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Authenticated")
}

func TestAuthLoginNonInteractiveNeedsCredentials(t *testing.T) {
	_, err := runCommand(t, "", "--server", "https://pi.local", "--non-interactive", "auth", "login")
	require.ErrorContains(t, err, "non-interactive")
}

func TestAuthStatusWithoutToken(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := runCommand(t, "", "--server", "https://pi.local", "auth", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Not authenticated")
}

func TestTerminalExec(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/terminal/exec", r.URL.Path)
		require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(client.ExecResult{Output: "up 3 days", ExitCode: 0})
	}))
	defer server.Close()

	out, err := runCommand(t, "", "--server", server.URL, "--token", "at-1", "terminal", "exec", "uptime")
	require.NoError(t, err)
	require.Contains(t, out, "up 3 days")
}

func TestMissingConfigFails(t *testing.T) {
	_, err := runCommand(t, filepath.Join(t.TempDir(), "missing.yaml"), "device", "list")
	require.Error(t, err)
}
