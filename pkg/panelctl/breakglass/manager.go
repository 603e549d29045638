// Package breakglass manages the time-boxed elevated session that gates
// full shell access. The elevated token lives only in the Manager's memory
// and is never handed to a durable token store.
package breakglass

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
	"github.com/picontrol/panelctl/pkg/panelctl/poll"
)

type State string

const (
	StateIdle            State = "idle"
	StateChecking        State = "checking"
	StateUnauthenticated State = "unauthenticated"
	StateActive          State = "active"
	StateGranted         State = "granted"
)

var (
	ErrSubmitInFlight = errors.New("break-glass start already in flight")
	ErrCodeIncomplete = errors.New("one-time code must be 6 digits")
	ErrNotActive      = errors.New("no active break-glass session")
)

// TerminalAPI is the slice of the panel client the Manager needs.
// *client.TerminalService satisfies it.
type TerminalAPI interface {
	BreakglassStatus(ctx context.Context) (*client.BreakglassStatus, error)
	BreakglassStart(ctx context.Context, password, totpCode string) (*client.BreakglassGrant, error)
	BreakglassStop(ctx context.Context, reason string) error
}

// Grant is what the Manager yields to the caller. Token is empty and
// Reused true when an already-active elevation was continued; the caller
// keeps whatever token it holds.
type Grant struct {
	Token      string
	Reused     bool
	ExpiresAt  time.Time
	TTLSeconds int64
}

type Manager struct {
	api         TerminalAPI
	requireTOTP bool
	logf        func(format string, args ...any)

	mu         sync.Mutex
	state      State
	token      string
	expiresAt  time.Time
	remaining  int64
	submitting bool
}

type Option func(*Manager)

// WithTOTPRequired makes Submit insist on a complete 6-digit code.
func WithTOTPRequired(required bool) Option {
	return func(m *Manager) {
		m.requireTOTP = required
	}
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(m *Manager) {
		m.logf = logf
	}
}

func NewManager(api TerminalAPI, opts ...Option) *Manager {
	m := &Manager{api: api, state: StateIdle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) log(format string, args ...any) {
	if m.logf != nil {
		m.logf(format, args...)
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the in-memory elevated token, empty unless a start
// exchange succeeded in this Manager's lifetime.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

func (m *Manager) RemainingSeconds() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Open queries the server for an existing elevation. It moves the Manager
// to Active when one is running, otherwise to Unauthenticated.
func (m *Manager) Open(ctx context.Context) (State, error) {
	m.mu.Lock()
	m.state = StateChecking
	m.mu.Unlock()

	status, err := m.api.BreakglassStatus(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.log("break-glass status check failed: %v", err)
		m.state = StateUnauthenticated
		return m.state, err
	}
	if status.Active {
		m.state = StateActive
		m.expiresAt = status.ExpiresAt
		m.remaining = status.RemainingSeconds
	} else {
		m.state = StateUnauthenticated
	}
	return m.state, nil
}

// Submit runs the start exchange. Concurrent submits are rejected rather
// than queued, matching the single-flight rule for the credential form. On
// failure the Manager stays Unauthenticated and the server's detail
// message comes back unchanged inside the returned error.
func (m *Manager) Submit(ctx context.Context, password, code string) (*Grant, error) {
	code = NormalizeCode(code)

	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !CodeReady(code, m.requireTOTP) {
		m.mu.Unlock()
		return nil, ErrCodeIncomplete
	}
	m.submitting = true
	m.mu.Unlock()

	grant, err := m.api.BreakglassStart(ctx, password, code)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false
	if err != nil {
		m.state = StateUnauthenticated
		return nil, err
	}
	m.state = StateGranted
	m.token = grant.Token
	m.expiresAt = grant.ExpiresAt
	m.remaining = grant.TTLSeconds
	return &Grant{
		Token:      grant.Token,
		ExpiresAt:  grant.ExpiresAt,
		TTLSeconds: grant.TTLSeconds,
	}, nil
}

// ContinueSession reuses an elevation the server already reports as
// active. The Grant carries no token: the session is elevated server-side
// and there is nothing new for the caller to hold.
func (m *Manager) ContinueSession() (*Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return nil, ErrNotActive
	}
	m.state = StateGranted
	return &Grant{
		Reused:     true,
		ExpiresAt:  m.expiresAt,
		TTLSeconds: m.remaining,
	}, nil
}

// End revokes the elevation with the given reason. Revocation is
// best-effort: a failed stop call is logged and the Manager still drops
// back to Unauthenticated.
func (m *Manager) End(ctx context.Context, reason string) {
	if err := m.api.BreakglassStop(ctx, reason); err != nil {
		m.log("break-glass stop failed: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateUnauthenticated
	m.token = ""
	m.expiresAt = time.Time{}
	m.remaining = 0
}

// Watch polls the status endpoint and reports the countdown through fn
// until the elevation lapses or ctx ends. Poll failures are logged and the
// previous reading stands until the next tick. The returned Runner's Stop
// tears the loop down.
func (m *Manager) Watch(ctx context.Context, interval time.Duration, fn func(remaining int64, expiresAt time.Time)) *poll.Runner {
	runner := poll.NewRunner(interval)
	runner.Start(ctx, func(ctx context.Context) bool {
		status, err := m.api.BreakglassStatus(ctx)
		if err != nil {
			m.log("break-glass status poll failed: %v", err)
			return true
		}
		m.mu.Lock()
		m.expiresAt = status.ExpiresAt
		m.remaining = status.RemainingSeconds
		m.mu.Unlock()
		fn(status.RemainingSeconds, status.ExpiresAt)
		if !status.Active {
			m.mu.Lock()
			m.state = StateUnauthenticated
			m.token = ""
			m.mu.Unlock()
			return false
		}
		return true
	})
	return runner
}
