package client

import (
	"context"
	"net/http"
)

type AuthService struct {
	client *Client
}

func (c *Client) Auth() *AuthService {
	return &AuthService{client: c}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	HasTOTP  bool   `json:"has_totp"`
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// Login exchanges credentials for an access token and stores it. The
// refresh cookie is set by the server and kept in the client's cookie jar.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var result LoginResult
	if err := s.client.do(ctx, http.MethodPost, "auth/login", req, &result); err != nil {
		return nil, err
	}
	if err := s.client.SetToken(result.AccessToken); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh forces a token refresh outside the 401 recovery path.
func (s *AuthService) Refresh(ctx context.Context) (string, error) {
	return s.client.refreshToken(ctx)
}

// Logout revokes the session server-side on a best-effort basis, then
// unconditionally drops the token and fires the session-expired handler.
// A failed network call is logged, not surfaced.
func (s *AuthService) Logout(ctx context.Context) {
	resp, err := s.client.send(ctx, http.MethodPost, "auth/logout", nil, s.client.Token())
	if err != nil {
		s.client.logf("logout request failed: %v", err)
	} else {
		_ = resp.Body.Close()
	}
	s.client.endSession()
}

func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.do(ctx, http.MethodGet, "auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
