package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type DeviceService struct {
	client *Client
}

func (c *Client) Devices() *DeviceService {
	return &DeviceService{client: c}
}

type Device struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	State        string         `json:"state"`
	Vendor       string         `json:"vendor,omitempty"`
	Product      string         `json:"product,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Telemetry    map[string]any `json:"telemetry,omitempty"`
	LastSeen     string         `json:"last_seen,omitempty"`
}

type DeviceListOptions struct {
	Type  string
	State string
}

type DeviceCommand struct {
	Command string         `json:"command"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (s *DeviceService) List(ctx context.Context, opts DeviceListOptions) ([]Device, error) {
	endpoint := "devices"
	params := url.Values{}
	if opts.Type != "" {
		params.Set("type", opts.Type)
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint = fmt.Sprintf("%s?%s", endpoint, encoded)
	}
	var devices []Device
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *DeviceService) Get(ctx context.Context, id string) (*Device, error) {
	endpoint := fmt.Sprintf("devices/%s", url.PathEscape(id))
	var device Device
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *DeviceService) Command(ctx context.Context, id string, cmd DeviceCommand) (map[string]any, error) {
	endpoint := fmt.Sprintf("devices/%s/command", url.PathEscape(id))
	var result map[string]any
	if err := s.client.do(ctx, http.MethodPost, endpoint, cmd, &result); err != nil {
		return nil, err
	}
	return result, nil
}
