// Package direct talks to a single site without a middleware in between, either to a FHIR server
// evaluating CQL measures or to a flare endpoint that executes structured queries.
package direct

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/asynchttp"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"

	"github.com/Jeffail/gabs/v2"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeCQL   Mode = "cql"
	ModeFlare Mode = "flare"
)

const (
	fhirJSON         = "application/fhir+json"
	flareExecutePath = "query/execute"
	periodStart      = "1900"
	periodEnd        = "2100"
	populationExpr   = "InInitialPopulation"
)

var ErrMalformedReport = errs.New("malformed measure report")

type Client struct {
	*broker.Base
	mode    Mode
	baseURL *url.URL
	siteID  string
	http    *http.Client
	poller  *asynchttp.Poller
	timeout time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Client)

// WithPoller replaces the respond-async poller used for measure evaluation.
func WithPoller(p *asynchttp.Poller) Option { return func(c *Client) { c.poller = p } }

func New(cfg config.DirectBrokerConfig, httpClient *http.Client, reporter *broker.Reporter, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, errs.Newf("invalid direct broker base url %q", cfg.BaseURL)
	}
	mode := Mode(cfg.Mode)
	mediaType := query.MediaCQL
	if mode == ModeFlare {
		mediaType = query.MediaStructuredQuery
	}

	logger = logger.With("broker", string(query.BrokerDirect), "mode", cfg.Mode)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		Base:    broker.NewBase(query.BrokerDirect, []query.MediaType{mediaType}, reporter),
		mode:    mode,
		baseURL: base,
		siteID:  cfg.SiteName,
		http:    httpClient,
		poller:  asynchttp.New(httpClient, logger),
		timeout: cfg.Timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Start(context.Context) {}

// Stop abandons running evaluations and waits for their goroutines to report.
func (c *Client) Stop() {
	c.cancel()
	c.wg.Wait()
}

// PublishQuery returns once the evaluation has started. The site's result is reported when it finishes.
func (c *Client) PublishQuery(_ context.Context, brokerQueryID string) error {
	h, err := c.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	_, definition, err := broker.DefinitionFor(h, c.MediaTypes()...)
	if err != nil {
		return err
	}
	if err := h.Publish(); err != nil {
		return err
	}
	c.Reporter.Executing(h, c.siteID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		var n int
		var err error
		if c.mode == ModeFlare {
			n, err = c.executeFlare(ctx, definition)
		} else {
			n, err = c.evaluateCQL(ctx, definition)
		}
		if err != nil {
			c.logger.Error("direct query failed",
				"query_id", h.LocalID(),
				"broker_query_id", h.ID(),
				"error", err.Error())
			c.Reporter.Failed(h, c.siteID)
		} else {
			c.Reporter.Completed(h, c.siteID, n)
		}
		h.Settle()
	}()
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) executeFlare(ctx context.Context, sq string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(flareExecutePath, nil), strings.NewReader(sq))
	if err != nil {
		return 0, errs.Wrap(err, "failed to build flare request")
	}
	req.Header.Set("Content-Type", string(query.MediaStructuredQuery))
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, broker.Communication(err, "flare request failed")
	}
	body, err := broker.ReadSuccess(resp, "flare execute")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, broker.Communication(err, "flare returned a non-numeric result")
	}
	return n, nil
}

func (c *Client) evaluateCQL(ctx context.Context, cql string) (int, error) {
	libraryURL := "urn:uuid:" + uuid.NewString()
	measureURL := "urn:uuid:" + uuid.NewString()

	if err := c.createResource(ctx, "Library", libraryResource(libraryURL, cql)); err != nil {
		return 0, err
	}
	if err := c.createResource(ctx, "Measure", measureResource(measureURL, libraryURL)); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("Measure/$evaluate-measure", url.Values{
		"measure":     {measureURL},
		"periodStart": {periodStart},
		"periodEnd":   {periodEnd},
	}), nil)
	if err != nil {
		return 0, errs.Wrap(err, "failed to build evaluate-measure request")
	}
	req.Header.Set("Accept", fhirJSON)

	resp, err := c.poller.Do(ctx, req, c.timeout)
	if err != nil {
		return 0, broker.Communication(err, "measure evaluation failed")
	}
	body, err := broker.ReadSuccess(resp, "evaluate-measure")
	if err != nil {
		return 0, err
	}
	return MeasureCount(body)
}

func (c *Client) createResource(ctx context.Context, kind string, resource *gabs.Container) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(kind, nil), bytes.NewReader(resource.Bytes()))
	if err != nil {
		return errs.Wrapf(err, "failed to build %s request", kind)
	}
	req.Header.Set("Content-Type", fhirJSON)
	req.Header.Set("Accept", fhirJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return broker.Communication(err, "failed to create "+kind)
	}
	_, err = broker.ReadSuccess(resp, "create "+kind)
	return err
}

func coding(system, code string) map[string]any {
	return map[string]any{"coding": []any{map[string]any{"system": system, "code": code}}}
}

func libraryResource(libraryURL, cql string) *gabs.Container {
	return gabs.Wrap(map[string]any{
		"resourceType": "Library",
		"url":          libraryURL,
		"status":       "active",
		"type":         coding("http://terminology.hl7.org/CodeSystem/library-type", "logic-library"),
		"content": []any{map[string]any{
			"contentType": string(query.MediaCQL),
			"data":        base64.StdEncoding.EncodeToString([]byte(cql)),
		}},
	})
}

func measureResource(measureURL, libraryURL string) *gabs.Container {
	return gabs.Wrap(map[string]any{
		"resourceType":           "Measure",
		"url":                    measureURL,
		"status":                 "active",
		"subjectCodeableConcept": coding("http://hl7.org/fhir/resource-types", "Patient"),
		"library":                []any{libraryURL},
		"scoring":                coding("http://terminology.hl7.org/CodeSystem/measure-scoring", "cohort"),
		"group": []any{map[string]any{
			"population": []any{map[string]any{
				"code": coding("http://terminology.hl7.org/CodeSystem/measure-population", "initial-population"),
				"criteria": map[string]any{
					"language":   "text/cql-identifier",
					"expression": populationExpr,
				},
			}},
		}},
	})
}

// MeasureCount reads the initial population count of a FHIR MeasureReport.
func MeasureCount(report []byte) (int, error) {
	doc, err := gabs.ParseJSON(report)
	if err != nil {
		return 0, errs.Mark(errs.Wrap(err, "measure report is not JSON"), ErrMalformedReport)
	}
	if rt, _ := doc.Path("resourceType").Data().(string); rt != "MeasureReport" {
		return 0, errs.Wrapf(ErrMalformedReport, "unexpected resource type %q", rt)
	}
	n, ok := broker.IntValue(doc.Search("group", "0", "population", "0", "count").Data())
	if !ok {
		return 0, errs.Wrap(ErrMalformedReport, "missing population count")
	}
	return n, nil
}
