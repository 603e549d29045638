package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picontrol/panelctl/pkg/panelctl/session"
)

const defaultTimeout = 30 * time.Second

// Client is the single choke point for all panel API calls. It attaches the
// bearer token, detects 401 responses, refreshes the token through the
// cookie-authenticated refresh endpoint, and replays the failed request at
// most once.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	verbose   func(format string, args ...any)

	store     session.Store
	onExpired func()

	mu    sync.Mutex
	token string

	refreshMu sync.Mutex
	refresh   *refreshCall
}

// refreshCall coalesces concurrent refresh attempts: the first 401 performs
// the exchange, later ones wait on done and share the outcome.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout, Jar: jar},
		userAgent: "panelctl",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.baseURL == nil {
		return nil, errors.New("server is required")
	}
	if c.token == "" && c.store != nil {
		token, ok, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load token: %w", err)
		}
		if ok {
			c.token = token
		}
	}
	return c, nil
}

func WithServer(server string) Option {
	return func(c *Client) error {
		if server == "" {
			return errors.New("server is required")
		}
		parsed, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
		c.baseURL = parsed
		return nil
	}
}

func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithTokenStore attaches the durable token store. The client loads the
// initial token from it, writes every refreshed token back, and clears it
// when the session ends.
func WithTokenStore(store session.Store) Option {
	return func(c *Client) error {
		c.store = store
		return nil
	}
}

// WithSessionExpiredHandler registers the side effect for a terminal
// authentication failure. It fires exactly once per failed request chain.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) error {
		c.onExpired = fn
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.http.Timeout = timeout
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("http client is nil")
		}
		if httpClient.Jar == nil {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return fmt.Errorf("failed to create cookie jar: %w", err)
			}
			httpClient.Jar = jar
		}
		c.http = httpClient
		return nil
	}
}

func WithVerbose(logf func(format string, args ...any)) Option {
	return func(c *Client) error {
		c.verbose = logf
		return nil
	}
}

func WithTLSConfig(caFile string, insecureSkipTLSVerify bool) Option {
	return func(c *Client) error {
		tlsConfig, err := loadTLSConfig(caFile, insecureSkipTLSVerify)
		if err != nil {
			return err
		}
		c.http.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		return nil
	}
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}
	if caFile == "" {
		return tlsConfig, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// Token returns the access token currently held in memory.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken replaces the in-memory token and mirrors it to the durable
// store. An empty token removes the stored value.
func (c *Client) SetToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	if token == "" {
		return c.store.Clear()
	}
	return c.store.Save(token)
}

func (c *Client) logf(format string, args ...any) {
	if c.verbose != nil {
		c.verbose(format, args...)
	}
}

// Do issues a request against an arbitrary API endpoint, decoding a JSON
// response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	return c.do(ctx, method, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = encoded
	}

	resp, err := c.send(ctx, method, endpoint, payload, c.Token())
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized && !isAuthExempt(endpoint) {
		origErr := decodeError(resp)
		return c.retryAfterRefresh(ctx, method, endpoint, payload, out, origErr)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return decodeResponse(resp, out)
}

// retryAfterRefresh runs the 401 recovery path: one coalesced refresh, one
// replay with the new token. A second 401 or a failed refresh is terminal;
// the stored token is cleared and the session-expired handler fires once.
func (c *Client) retryAfterRefresh(ctx context.Context, method, endpoint string, payload []byte, out any, origErr *APIError) error {
	c.logf("got 401 on %s %s, attempting token refresh", method, endpoint)
	token, err := c.refreshToken(ctx)
	if err != nil {
		c.logf("token refresh failed: %v", err)
		c.endSession()
		return &sessionExpiredError{cause: origErr}
	}

	resp, err := c.send(ctx, method, endpoint, payload, token)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logf("still 401 after refresh on %s %s", method, endpoint)
		retryErr := decodeError(resp)
		c.endSession()
		return &sessionExpiredError{cause: retryErr}
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, token string) (*http.Response, error) {
	fullURL := *c.baseURL
	parsedEndpoint, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	fullURL.Path = path.Join(fullURL.Path, parsedEndpoint.Path)
	if parsedEndpoint.RawQuery != "" {
		fullURL.RawQuery = parsedEndpoint.RawQuery
	}

	var reader *bytes.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logf("%s %s", method, fullURL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// isAuthExempt reports whether a 401 on this endpoint must not trigger the
// refresh protocol. Refresh and login would recurse forever.
func isAuthExempt(endpoint string) bool {
	trimmed := strings.SplitN(endpoint, "?", 2)[0]
	trimmed = strings.Trim(trimmed, "/")
	return trimmed == "auth/refresh" || trimmed == "auth/login"
}

// refreshToken performs the cookie-authenticated refresh exchange. Calls
// arriving while one is in flight wait for its result instead of issuing a
// second exchange.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if call := c.refresh; call != nil {
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refresh = call
	c.refreshMu.Unlock()

	token, err := c.doRefresh(ctx)
	call.token, call.err = token, err

	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()
	close(call.done)

	return token, err
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "auth/refresh", nil, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp)
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, apiErr)
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRefreshFailed)
	}
	if err := c.SetToken(result.AccessToken); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	c.logf("token refreshed")
	return result.AccessToken, nil
}

// endSession clears the token everywhere and fires the session-expired
// handler. Single call site per failed chain keeps the side effect to one
// invocation.
func (c *Client) endSession() {
	if err := c.SetToken(""); err != nil {
		c.logf("failed to clear token: %v", err)
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}
