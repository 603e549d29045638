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

func TestDeviceList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/devices", r.URL.Path)
		require.Equal(t, "relay", r.URL.Query().Get("type"))
		require.Equal(t, "on", r.URL.Query().Get("state"))
		_ = json.NewEncoder(w).Encode([]Device{
			{ID: "relay-1", Name: "Garden pump", Type: "relay", State: "on"},
		})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	devices, err := c.Devices().List(context.Background(), DeviceListOptions{Type: "relay", State: "on"})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "relay-1", devices[0].ID)
}

func TestDeviceCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/devices/relay-1/command", r.URL.Path)
		var cmd DeviceCommand
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cmd))
		require.Equal(t, "toggle", cmd.Command)
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "off"})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	result, err := c.Devices().Command(context.Background(), "relay-1", DeviceCommand{Command: "toggle"})
	require.NoError(t, err)
	require.Equal(t, "off", result["state"])
}

func TestTelemetryHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/telemetry/history", r.URL.Path)
		require.Equal(t, "cpu_pct", r.URL.Query().Get("metric"))
		require.Equal(t, "3600", r.URL.Query().Get("seconds"))
		_ = json.NewEncoder(w).Encode(MetricsResponse{
			Metric: "cpu_pct",
			Points: []MetricPoint{{TS: 1756600000, Value: 12.5}},
		})
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	resp, err := c.Telemetry().History(context.Background(), "cpu_pct", time.Hour)
	require.NoError(t, err)
	require.Equal(t, "cpu_pct", resp.Metric)
	require.Len(t, resp.Points, 1)
	require.InDelta(t, 12.5, resp.Points[0].Value, 0.001)
}

func TestAlertAcknowledge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts/alert-7/ack", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(WithServer(server.URL), WithToken("at-1"))
	require.NoError(t, err)

	require.NoError(t, c.Alerts().Acknowledge(context.Background(), "alert-7"))
}
