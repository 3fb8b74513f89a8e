package inbox

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Inbox is a typed, buffered channel whose sends give up after a timeout instead of blocking forever.
type Inbox[T any] struct {
	ch      chan T
	timeout time.Duration
	logger  *slog.Logger
	stats   Stats

	mu     sync.RWMutex
	closed bool
}

type Stats struct {
	TotalSent     atomic.Int64
	TotalReceived atomic.Int64
	TimeoutCount  atomic.Int64
}

func New[T any](bufferSize int, timeout time.Duration, logger *slog.Logger) *Inbox[T] {
	return &Inbox[T]{
		ch:      make(chan T, bufferSize),
		timeout: timeout,
		logger:  logger,
	}
}

// Send returns false if the inbox is closed or the timeout elapsed before the message was buffered.
func (ib *Inbox[T]) Send(msg T) bool {
	ib.mu.RLock()
	defer ib.mu.RUnlock()
	if ib.closed {
		return false
	}

	timer := time.NewTimer(ib.timeout)
	defer timer.Stop()

	select {
	case ib.ch <- msg:
		ib.stats.TotalSent.Add(1)
		return true
	case <-timer.C:
		ib.stats.TimeoutCount.Add(1)
		ib.logger.Warn("inbox send timeout",
			"timeout", ib.timeout,
			"current_depth", len(ib.ch))
		return false
	}
}

// TryReceive returns the next message if one is buffered.
func (ib *Inbox[T]) TryReceive() (T, bool) {
	select {
	case msg, ok := <-ib.ch:
		if ok {
			ib.stats.TotalReceived.Add(1)
		}
		return msg, ok
	default:
		var zero T
		return zero, false
	}
}

// C exposes the receive side; it is closed by Close.
func (ib *Inbox[T]) C() <-chan T {
	return ib.ch
}

func (ib *Inbox[T]) MarkReceived() {
	ib.stats.TotalReceived.Add(1)
}

func (ib *Inbox[T]) Close() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return
	}
	ib.closed = true
	close(ib.ch)
}

func (ib *Inbox[T]) Depth() int {
	return len(ib.ch)
}

func (ib *Inbox[T]) Sent() int64     { return ib.stats.TotalSent.Load() }
func (ib *Inbox[T]) Received() int64 { return ib.stats.TotalReceived.Load() }
func (ib *Inbox[T]) Timeouts() int64 { return ib.stats.TimeoutCount.Load() }
