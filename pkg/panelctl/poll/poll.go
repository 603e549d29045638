// Package poll provides a cancellable ticker task with a start/stop handle,
// so periodic work is always torn down on every exit path.
package poll

import (
	"context"
	"sync"
	"time"
)

// Runner invokes a function at a fixed interval until stopped or until the
// function returns false.
type Runner struct {
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewRunner(interval time.Duration) *Runner {
	return &Runner{interval: interval}
}

// Start begins the loop. fn runs once immediately, then on every tick;
// returning false ends the loop. Start is a no-op while already running.
func (r *Runner) Start(ctx context.Context, fn func(ctx context.Context) bool) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			close(doneCh)
		}()

		if !fn(ctx) {
			return
		}
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !fn(ctx) {
					return
				}
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for the in-flight invocation to finish.
// Safe to call multiple times and when never started.
func (r *Runner) Stop() {
	r.mu.Lock()
	stopCh, doneCh := r.stopCh, r.doneCh
	r.stopCh = nil
	r.mu.Unlock()

	if doneCh == nil {
		return
	}
	if stopCh != nil {
		close(stopCh)
	}
	<-doneCh
}

// Wait blocks until the loop finishes, either by Stop, context
// cancellation, or fn returning false.
func (r *Runner) Wait() {
	r.mu.Lock()
	doneCh := r.doneCh
	r.mu.Unlock()
	if doneCh != nil {
		<-doneCh
	}
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
