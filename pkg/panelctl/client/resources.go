package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FileService exposes the panel's managed file browser endpoints.
type FileService struct {
	client *Client
}

func (c *Client) Files() *FileService {
	return &FileService{client: c}
}

type FileEntry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	IsDir      bool   `json:"is_dir"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

func (s *FileService) List(ctx context.Context, dir string) ([]FileEntry, error) {
	endpoint := "files"
	if dir != "" {
		endpoint = fmt.Sprintf("files?path=%s", url.QueryEscape(dir))
	}
	var entries []FileEntry
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *FileService) Delete(ctx context.Context, path string) error {
	endpoint := fmt.Sprintf("files?path=%s", url.QueryEscape(path))
	return s.client.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// AlertService lists and acknowledges fired alerts.
type AlertService struct {
	client *Client
}

func (c *Client) Alerts() *AlertService {
	return &AlertService{client: c}
}

type Alert struct {
	ID             string   `json:"id"`
	RuleID         string   `json:"rule_id"`
	RuleName       string   `json:"rule_name,omitempty"`
	State          string   `json:"state"`
	Severity       string   `json:"severity"`
	Message        string   `json:"message,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	FiredAt        string   `json:"fired_at,omitempty"`
	ResolvedAt     string   `json:"resolved_at,omitempty"`
	AcknowledgedBy *int     `json:"acknowledged_by,omitempty"`
}

type AlertListOptions struct {
	State    string
	Severity string
}

func (s *AlertService) List(ctx context.Context, opts AlertListOptions) ([]Alert, error) {
	endpoint := "alerts"
	params := url.Values{}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if opts.Severity != "" {
		params.Set("severity", opts.Severity)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint = fmt.Sprintf("%s?%s", endpoint, encoded)
	}
	var alerts []Alert
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *AlertService) Acknowledge(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("alerts/%s/ack", url.PathEscape(id))
	return s.client.do(ctx, http.MethodPost, endpoint, nil, nil)
}

// NetworkService reads host network interface state.
type NetworkService struct {
	client *Client
}

func (c *Client) Network() *NetworkService {
	return &NetworkService{client: c}
}

type NetworkInterface struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	MAC     string `json:"mac,omitempty"`
	Up      bool   `json:"up"`
	RxBytes int64  `json:"rx_bytes"`
	TxBytes int64  `json:"tx_bytes"`
}

func (s *NetworkService) Interfaces(ctx context.Context) ([]NetworkInterface, error) {
	var interfaces []NetworkInterface
	if err := s.client.do(ctx, http.MethodGet, "network/interfaces", nil, &interfaces); err != nil {
		return nil, err
	}
	return interfaces, nil
}
