package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired marks a terminal authentication failure: the access
	// token was rejected and could not be refreshed.
	ErrSessionExpired = errors.New("session expired")

	// ErrRefreshFailed marks a failed token refresh exchange.
	ErrRefreshFailed = errors.New("token refresh failed")
)

type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
	KindServer     ErrorKind = "server"
)

// APIError is the normalized failure for every request the client issues.
// The panel API reports failures as {"detail": ...} where detail can be a
// string, a validation array, or an object; Message carries the flattened
// human-readable form and Raw the original body.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Raw        json.RawMessage

	cause error
}

func (e *APIError) Error() string {
	if e.Kind == KindTransport {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func transportError(err error) *APIError {
	return &APIError{Kind: KindTransport, Message: err.Error(), cause: err}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

func decodeError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    normalizeDetail(body, resp.Status),
		Raw:        json.RawMessage(body),
	}
}

// normalizeDetail flattens the server's detail field into one message.
// FastAPI emits validation failures as a list of {loc, msg, type} objects
// and everything else as a plain string; some endpoints use {"error": ...}.
func normalizeDetail(body []byte, fallback string) string {
	if len(body) > 0 {
		var envelope struct {
			Detail json.RawMessage `json:"detail"`
			Error  string          `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			if msg := flattenDetail(envelope.Detail); msg != "" {
				return msg
			}
			if msg := strings.TrimSpace(envelope.Error); msg != "" {
				return msg
			}
		}
		if msg := strings.TrimSpace(string(body)); msg != "" && !strings.HasPrefix(msg, "{") {
			return msg
		}
	}
	return strings.TrimSpace(fallback)
}

func flattenDetail(detail json.RawMessage) string {
	if len(detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(detail, &obj); err == nil {
		if obj.Msg != "" {
			return strings.TrimSpace(obj.Msg)
		}
		if obj.Message != "" {
			return strings.TrimSpace(obj.Message)
		}
	}
	return strings.TrimSpace(string(detail))
}

// sessionExpiredError carries the error that ended the session while still
// matching ErrSessionExpired in errors.Is chains.
type sessionExpiredError struct {
	cause error
}

func (e *sessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %v", e.cause)
}

func (e *sessionExpiredError) Unwrap() []error {
	return []error{ErrSessionExpired, e.cause}
}
