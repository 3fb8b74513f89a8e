package broker

import (
	"log/slog"
	"sync"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/inbox"

	"github.com/google/uuid"
)

type Status string

const (
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusUpdate reports one site reaching a new state for one broker-side query.
type StatusUpdate struct {
	LocalQueryID  uuid.UUID
	Broker        query.BrokerType
	BrokerQueryID string
	SiteID        string
	Status        Status
	Result        *query.ResultLine
}

type Publisher interface {
	Publish(update StatusUpdate)
}

// Bus fans every published update out to each subscriber's inbox.
// Publish is safe to call from any goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*inbox.Inbox[StatusUpdate]
	bufferSize  int
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewBus(bufferSize int, sendTimeout time.Duration, logger *slog.Logger) *Bus {
	return &Bus{
		bufferSize:  bufferSize,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Subscribe registers a new consumer. Updates published before the call are not replayed.
func (b *Bus) Subscribe() *inbox.Inbox[StatusUpdate] {
	ib := inbox.New[StatusUpdate](b.bufferSize, b.sendTimeout, b.logger)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ib)
	b.mu.Unlock()
	return ib
}

func (b *Bus) Publish(update StatusUpdate) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.Send(update) {
			b.logger.Warn("status update dropped",
				"broker", update.Broker,
				"query_id", update.LocalQueryID,
				"site_id", update.SiteID,
				"status", update.Status)
		}
	}
}

// Close closes every subscriber inbox so consumer loops terminate.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = nil
	b.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}
