// Package mock is an in-process broker that answers every published query immediately with random counts.
package mock

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
)

const (
	minCount = 10
	maxCount = 500
)

type Client struct {
	*broker.Base
	sites  []string
	intN   func(n int) int
	logger *slog.Logger
}

type Option func(*Client)

// WithRandomSource replaces the count generator; intN(n) must return [0, n).
func WithRandomSource(intN func(n int) int) Option {
	return func(c *Client) { c.intN = intN }
}

func New(sites []string, reporter *broker.Reporter, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		Base:   broker.NewBase(query.BrokerMock, []query.MediaType{query.MediaStructuredQuery}, reporter),
		sites:  sites,
		intN:   rand.IntN,
		logger: logger.With("broker", string(query.BrokerMock)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PublishQuery computes every site's result before it returns.
func (c *Client) PublishQuery(ctx context.Context, brokerQueryID string) error {
	h, err := c.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	if err := h.Publish(); err != nil {
		return err
	}

	for _, site := range c.sites {
		c.Reporter.Executing(h, site)
	}
	for _, site := range c.sites {
		if err := ctx.Err(); err != nil {
			c.Reporter.FailExecuting(h)
			return broker.Communication(err, "mock publish interrupted")
		}
		c.Reporter.Completed(h, site, minCount+c.intN(maxCount-minCount+1))
	}
	h.Settle()
	c.logger.Debug("mock query answered", "broker_query_id", brokerQueryID, "sites", len(c.sites))
	return nil
}
