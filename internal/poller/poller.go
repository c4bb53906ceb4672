// Package poller re-runs a fetch on a fixed period until stopped.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/metrics"
)

// Default intervals.
const (
	ChatInterval          = 5 * time.Second
	ConversationsInterval = 15 * time.Second
	DashboardInterval     = 30 * time.Second

	MinInterval = 5 * time.Second
	MaxInterval = 30 * time.Second
)

// Poller calls fn every interval on its own goroutine. Ticks never overlap:
// a slow fn delays the next tick instead of running beside it.
type Poller struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped poller.
func New(interval time.Duration, fn func(ctx context.Context) error) *Poller {
	return &Poller{name: "poller", interval: interval, fn: fn}
}

// WithName sets the name used in logs and metrics.
func (p *Poller) WithName(name string) *Poller {
	p.name = name
	return p
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling. The first call happens one interval from now.
// Starting a running poller restarts it.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(ctx, done)
}

// Stop cancels the in-flight call, if any, and waits for the loop to exit.
// fn is never called after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Running reports whether the poller is started.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick may race with cancellation in select.
			if ctx.Err() != nil {
				return
			}
			err := p.fn(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Warn("poll failed", "poller", p.name, "error", err)
			}
			metrics.IncrementPollTick(p.name, err == nil)
		}
	}
}
