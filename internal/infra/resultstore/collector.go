package resultstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/pkg/inbox"
)

// Collector drains broker status updates into a Store. Only terminal updates carry result lines.
type Collector struct {
	store  *Store
	inbox  *inbox.Inbox[broker.StatusUpdate]
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewCollector subscribes to bus immediately so no update published after construction is missed.
func NewCollector(store *Store, bus *broker.Bus, logger *slog.Logger) *Collector {
	return &Collector{
		store:  store,
		inbox:  bus.Subscribe(),
		logger: logger,
	}
}

// Start consumes updates until the subscription is closed.
func (c *Collector) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for u := range c.inbox.C() {
			c.inbox.MarkReceived()
			c.Apply(u)
		}
	}()
}

// Wait blocks until the consumer goroutine has drained a closed subscription.
func (c *Collector) Wait() {
	c.wg.Wait()
}

// Stop closes the subscription and waits for buffered updates to be applied.
func (c *Collector) Stop() {
	c.inbox.Close()
	c.wg.Wait()
}

func (c *Collector) Apply(u broker.StatusUpdate) {
	if !u.Status.Terminal() || u.Result == nil {
		return
	}
	if u.Status == broker.StatusFailed {
		c.logger.Warn("site failed to answer",
			"query_id", u.LocalQueryID,
			"broker", string(u.Broker),
			"site_id", u.SiteID)
	}
	if !c.store.Add(u.LocalQueryID, *u.Result) {
		c.logger.Debug("duplicate result line discarded",
			"query_id", u.LocalQueryID,
			"site", u.Result.SiteName)
	}
}

// Janitor evicts expired entries at a fixed interval and releases broker queries that finished
// at least one ttl ago, so neither side grows with the number of queries ever dispatched.
type Janitor struct {
	store    *Store
	brokers  []broker.Client
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewJanitor(store *Store, brokers []broker.Client, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{store: store, brokers: brokers, interval: interval, logger: logger}
}

func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(context.WithoutCancel(ctx))
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs one cleanup round.
func (j *Janitor) Sweep(ctx context.Context) {
	if n := j.store.Evict(); n > 0 {
		j.logger.Debug("expired results evicted", "count", n)
	}
	now := j.store.clock.Now()
	for _, c := range j.brokers {
		if n := broker.ReleaseSettled(ctx, c, now, j.store.ttl); n > 0 {
			j.logger.Debug("settled broker queries released", "broker", string(c.Type()), "count", n)
		}
	}
}

func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	j.wg.Wait()
}
