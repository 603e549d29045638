package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type TelemetryService struct {
	client *Client
}

func (c *Client) Telemetry() *TelemetryService {
	return &TelemetryService{client: c}
}

// SystemMetrics mirrors the panel's current-telemetry payload.
type SystemMetrics struct {
	CPUPct         float64  `json:"cpu_pct"`
	MemoryPct      float64  `json:"memory_pct"`
	MemoryUsedMB   float64  `json:"memory_used_mb"`
	MemoryTotalMB  float64  `json:"memory_total_mb"`
	DiskPct        float64  `json:"disk_pct"`
	DiskUsedGB     float64  `json:"disk_used_gb"`
	DiskTotalGB    float64  `json:"disk_total_gb"`
	TemperatureC   *float64 `json:"temperature_c"`
	Load1m         float64  `json:"load_1m"`
	Load5m         float64  `json:"load_5m"`
	Load15m        float64  `json:"load_15m"`
	NetworkRxBytes int64    `json:"network_rx_bytes"`
	NetworkTxBytes int64    `json:"network_tx_bytes"`
}

type MetricPoint struct {
	TS    int64   `json:"ts"`
	Value float64 `json:"value"`
}

type MetricsResponse struct {
	Metric string        `json:"metric"`
	Points []MetricPoint `json:"points"`
}

func (s *TelemetryService) Current(ctx context.Context) (*SystemMetrics, error) {
	var metrics SystemMetrics
	if err := s.client.do(ctx, http.MethodGet, "telemetry/current", nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (s *TelemetryService) History(ctx context.Context, metric string, since time.Duration) (*MetricsResponse, error) {
	params := url.Values{}
	params.Set("metric", metric)
	if since > 0 {
		params.Set("seconds", strconv.FormatInt(int64(since.Seconds()), 10))
	}
	endpoint := fmt.Sprintf("telemetry/history?%s", params.Encode())
	var resp MetricsResponse
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
