package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"feasibility-backend/internal/pkg/clock"
)

// PollFunc fetches remote progress for one published handle and reports it through a Reporter.
type PollFunc func(ctx context.Context, h *Handle) error

// Watcher periodically polls every published handle of a Registry.
// Handles that stay published longer than the timeout have their executing sites failed.
type Watcher struct {
	registry *Registry
	reporter *Reporter
	poll     PollFunc
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	tracked map[string]time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatcher(registry *Registry, reporter *Reporter, poll PollFunc, interval, timeout time.Duration, clk clock.Clock, logger *slog.Logger) *Watcher {
	return &Watcher{
		registry: registry,
		reporter: reporter,
		poll:     poll,
		interval: interval,
		timeout:  timeout,
		clock:    clk,
		logger:   logger,
		tracked:  make(map[string]time.Time),
	}
}

// Track starts the timeout for a freshly published handle.
func (w *Watcher) Track(h *Handle) {
	w.mu.Lock()
	w.tracked[h.ID()] = w.clock.Now()
	w.mu.Unlock()
}

func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.logger.Info("broker watcher started", "interval", w.interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()
}

func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.logger.Info("broker watcher stopped")
}

// Tick runs one polling round.
func (w *Watcher) Tick(ctx context.Context) {
	now := w.clock.Now()
	for _, h := range w.registry.Published() {
		if ctx.Err() != nil {
			return
		}
		if now.Sub(w.publishedAt(h, now)) > w.timeout {
			w.logger.Warn("broker query timed out", "query_id", h.LocalID(), "broker_query_id", h.ID())
			w.reporter.FailExecuting(h)
		} else if err := w.poll(ctx, h); err != nil {
			w.logger.Warn("broker poll failed", "query_id", h.LocalID(), "broker_query_id", h.ID(), "error", err.Error())
		}
		if h.State() != StatePublished {
			w.forget(h.ID())
		}
	}
}

func (w *Watcher) publishedAt(h *Handle, now time.Time) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tracked[h.ID()]
	if !ok {
		w.tracked[h.ID()] = now
		return now
	}
	return t
}

func (w *Watcher) forget(id string) {
	w.mu.Lock()
	delete(w.tracked, id)
	w.mu.Unlock()
}
