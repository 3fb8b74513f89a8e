// Package aktin dispatches queries through an AKTIN broker, which relays them to its registered nodes.
// Node progress is polled from the broker's status resource.
package aktin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"

	"github.com/Jeffail/gabs/v2"
	"github.com/google/uuid"
)

const (
	requestPath    = "broker/request"
	aggregatorPath = "aggregator/request"
)

type Client struct {
	*broker.Base
	*broker.Watcher
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg config.AktinBrokerConfig, transport http.RoundTripper, reporter *broker.Reporter, clk clock.Clock, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, errs.Newf("invalid aktin broker base url %q", cfg.BaseURL)
	}
	logger = logger.With("broker", string(query.BrokerAktin))
	c := &Client{
		Base:    broker.NewBase(query.BrokerAktin, []query.MediaType{query.MediaStructuredQuery, query.MediaCQL}, reporter),
		baseURL: base,
		http: &http.Client{
			Transport: broker.APIKeyTransport(cfg.APIKey, transport),
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
	c.Watcher = broker.NewWatcher(c.Registry, reporter, c.poll, cfg.PollInterval, cfg.QueryTimeout, clk, logger)
	return c, nil
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path.Join(elem...)}).String()
}

func (c *Client) do(ctx context.Context, method, target, contentType, body, op string) (*http.Response, error) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, errs.Wrapf(err, "failed to build %s request", op)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, broker.Communication(err, op)
	}
	return resp, nil
}

// CreateQuery allocates the request on the AKTIN broker; its request id becomes the broker query id.
func (c *Client) CreateQuery(ctx context.Context, localQueryID uuid.UUID) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(requestPath), "", "", "create request")
	if err != nil {
		return "", err
	}
	if _, err := broker.ReadSuccess(resp, "create request"); err != nil {
		return "", err
	}
	location := resp.Header.Get("Location")
	id := path.Base(strings.TrimSuffix(location, "/"))
	if location == "" || id == "." || id == "/" {
		return "", broker.Communication(errs.New("missing Location header"), "create request")
	}
	return c.Registry.CreateWithID(id, localQueryID).ID(), nil
}

func (c *Client) AddQueryDefinition(ctx context.Context, brokerQueryID string, mediaType query.MediaType, content string) error {
	h, err := c.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	if err := broker.CheckMediaType(c, mediaType); err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, c.endpoint(requestPath, brokerQueryID), string(mediaType), content, "add definition")
	if err != nil {
		return err
	}
	if _, err := broker.ReadSuccess(resp, "add definition"); err != nil {
		return err
	}
	return h.Define(mediaType, content)
}

// PublishQuery releases the request to the nodes. Node results arrive through the watcher.
func (c *Client) PublishQuery(ctx context.Context, brokerQueryID string) error {
	h, err := c.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	if err := h.Publish(); err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(requestPath, brokerQueryID, "publish"), "", "", "publish request")
	if err == nil {
		_, err = broker.ReadSuccess(resp, "publish request")
	}
	if err != nil {
		c.Reporter.FailExecuting(h)
		return err
	}
	c.Track(h)
	return nil
}

// CloseQuery deletes the request remotely on a best-effort basis and always releases the local handle.
func (c *Client) CloseQuery(ctx context.Context, brokerQueryID string) error {
	if _, err := c.Registry.Get(brokerQueryID); err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint(requestPath, brokerQueryID), "", "", "delete request")
	if err == nil {
		_, err = broker.ReadSuccess(resp, "delete request")
	}
	if err != nil {
		c.logger.Warn("failed to delete aktin request", "broker_query_id", brokerQueryID, "error", err.Error())
	}
	return c.Base.CloseQuery(ctx, brokerQueryID)
}

type nodeState int

const (
	nodePending nodeState = iota
	nodeCompleted
	nodeFailed
)

func parseNodeStatus(s string) nodeState {
	switch strings.ToLower(s) {
	case "completed":
		return nodeCompleted
	case "failed", "rejected", "expired":
		return nodeFailed
	default:
		return nodePending
	}
}

func (c *Client) poll(ctx context.Context, h *broker.Handle) error {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(requestPath, h.ID(), "status"), "", "", "request status")
	if err != nil {
		return err
	}
	body, err := broker.ReadSuccess(resp, "request status")
	if err != nil {
		return err
	}
	doc, err := gabs.ParseJSON(body)
	if err != nil {
		return broker.Communication(err, "request status is not JSON")
	}

	nodes := doc.Search("nodes").Children()
	settled := len(nodes) > 0
	for _, n := range nodes {
		nodeID := nodeIdentifier(n.Search("node").Data())
		if nodeID == "" {
			continue
		}
		if st, ok := h.SiteStatus(nodeID); ok && st.Terminal() {
			continue
		}
		status, _ := n.Search("status").Data().(string)
		switch parseNodeStatus(status) {
		case nodePending:
			settled = false
			if _, known := h.SiteStatus(nodeID); !known {
				c.Reporter.Executing(h, nodeID)
			}
		case nodeFailed:
			c.Reporter.Failed(h, nodeID)
		case nodeCompleted:
			count, err := c.nodeResult(ctx, h.ID(), nodeID)
			if err != nil {
				settled = false
				c.logger.Warn("failed to fetch node result", "broker_query_id", h.ID(), "site_id", nodeID, "error", err.Error())
				continue
			}
			c.Reporter.Completed(h, nodeID, count)
		}
	}
	if settled {
		h.Settle()
	}
	return nil
}

func (c *Client) nodeResult(ctx context.Context, requestID, nodeID string) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(aggregatorPath, requestID, "result", nodeID), "", "", "node result")
	if err != nil {
		return 0, err
	}
	body, err := broker.ReadSuccess(resp, "node result")
	if err != nil {
		return 0, err
	}
	doc, err := gabs.ParseJSON(body)
	if err != nil {
		return 0, broker.Communication(err, "node result is not JSON")
	}
	n, ok := broker.IntValue(doc.Search("count").Data())
	if !ok {
		return 0, broker.Communication(errs.New("missing count"), "node result")
	}
	return n, nil
}

func nodeIdentifier(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := broker.IntValue(v); ok {
		return strconv.Itoa(n)
	}
	return ""
}
