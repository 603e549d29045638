// Package stream subscribes to the panel's server-sent event channels for
// live telemetry and device updates, reconnecting with exponential backoff
// and resuming from the last seen event ID.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Event is one server-sent event.
type Event struct {
	ID    string
	Event string
	Data  string
}

type Config struct {
	// URL is the absolute SSE endpoint.
	URL string
	// Token is the bearer token attached to the subscription request.
	Token string
	// HTTPClient must have no overall timeout; SSE responses never end.
	HTTPClient *http.Client
	// LastEventID resumes the stream after a reconnect.
	LastEventID string
	Logf        func(format string, args ...any)
}

// Subscribe opens the stream and delivers events until ctx ends. The
// returned channel closes when the subscription is torn down; transient
// connection failures are retried with exponential backoff.
func Subscribe(ctx context.Context, cfg Config) <-chan Event {
	events := make(chan Event)
	go run(ctx, cfg, events)
	return events
}

func run(ctx context.Context, cfg Config, events chan<- Event) {
	defer close(events)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	lastEventID := cfg.LastEventID

	for {
		lastID, err := consume(ctx, httpClient, cfg, lastEventID, func(ev Event) {
			bo.Reset()
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if lastID != "" {
			lastEventID = lastID
		}
		if ctx.Err() != nil {
			return
		}
		wait := bo.NextBackOff()
		if err != nil {
			logf("event stream disconnected: %v (reconnect in %s)", err, wait)
		} else {
			logf("event stream ended, reconnecting in %s", wait)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// consume holds one connection open and dispatches its events. It returns
// the last event ID seen so the next connection can resume.
func consume(ctx context.Context, httpClient *http.Client, cfg Config, lastEventID string, emit func(Event)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return lastEventID, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return lastEventID, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return lastEventID, fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	var current Event
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Data != "" || current.Event != "" {
				if current.ID != "" {
					lastEventID = current.ID
				}
				emit(current)
			}
			current = Event{}
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "id:"):
			current.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "event:"):
			current.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ")
			if current.Data != "" {
				current.Data += "\n"
			}
			current.Data += data
		}
	}
	return lastEventID, scanner.Err()
}
