package client

import (
	"context"
	"net/http"
	"time"
)

// TerminalService covers command execution and the break-glass elevation
// endpoints gating full shell access.
type TerminalService struct {
	client *Client
}

func (c *Client) Terminal() *TerminalService {
	return &TerminalService{client: c}
}

type BreakglassStatus struct {
	Active           bool      `json:"active"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// BreakglassGrant is the result of a start exchange. Token is the elevated
// credential; callers must keep it in memory only.
type BreakglassGrant struct {
	Token      string    `json:"breakglass_token"`
	ExpiresAt  time.Time `json:"expires_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

type breakglassStartRequest struct {
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type breakglassStopRequest struct {
	Reason string `json:"reason"`
}

func (s *TerminalService) BreakglassStatus(ctx context.Context) (*BreakglassStatus, error) {
	var status BreakglassStatus
	if err := s.client.do(ctx, http.MethodGet, "terminal/breakglass/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *TerminalService) BreakglassStart(ctx context.Context, password, totpCode string) (*BreakglassGrant, error) {
	req := breakglassStartRequest{Password: password, TOTPCode: totpCode}
	var grant BreakglassGrant
	if err := s.client.do(ctx, http.MethodPost, "terminal/breakglass/start", req, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *TerminalService) BreakglassStop(ctx context.Context, reason string) error {
	return s.client.do(ctx, http.MethodPost, "terminal/breakglass/stop", breakglassStopRequest{Reason: reason}, nil)
}

type ExecRequest struct {
	Command string `json:"command"`
}

type ExecResult struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
}

func (s *TerminalService) Exec(ctx context.Context, command string) (*ExecResult, error) {
	var result ExecResult
	if err := s.client.do(ctx, http.MethodPost, "terminal/exec", ExecRequest{Command: command}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
