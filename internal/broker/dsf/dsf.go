// Package dsf dispatches queries as FHIR Tasks to a Data Sharing Framework instance, which
// distributes them to the participating sites and collects one output per site on the Task.
package dsf

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"

	"github.com/Jeffail/gabs/v2"
)

const (
	fhirJSON = "application/fhir+json"

	processURL         = "http://medizininformatik-initiative.de/bpe/Process/feasibilityRequest|1.0"
	bpmnMessageSystem  = "http://highmed.org/fhir/CodeSystem/bpmn-message"
	feasibilitySystem  = "http://medizininformatik-initiative.de/fhir/CodeSystem/feasibility"
	organizationSystem = "http://highmed.org/sid/organization-identifier"
	siteExtensionURL   = "http://medizininformatik-initiative.de/fhir/StructureDefinition/dic-identifier"

	codeStructuredQuery = "structured-query"
	codeCQL             = "cql"
	codeSiteResult      = "single-dic-result"
	codeSiteError       = "single-dic-error"
)

type Client struct {
	*broker.Base
	*broker.Watcher
	baseURL      *url.URL
	organization string
	http         *http.Client
	clock        clock.Clock
	logger       *slog.Logger
}

// New expects httpClient to authenticate its requests, typically through an oauth.TokenCache transport.
func New(cfg config.DSFBrokerConfig, httpClient *http.Client, reporter *broker.Reporter, clk clock.Clock, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, errs.Newf("invalid dsf base url %q", cfg.BaseURL)
	}
	logger = logger.With("broker", string(query.BrokerDSF))
	c := &Client{
		Base:         broker.NewBase(query.BrokerDSF, []query.MediaType{query.MediaStructuredQuery, query.MediaCQL}, reporter),
		baseURL:      base,
		organization: cfg.Organization,
		http:         httpClient,
		clock:        clk,
		logger:       logger,
	}
	c.Watcher = broker.NewWatcher(c.Registry, reporter, c.poll, cfg.PollInterval, cfg.QueryTimeout, clk, logger)
	return c, nil
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path.Join(elem...)}).String()
}

// PublishQuery posts the feasibility Task. Site outputs are collected by the watcher.
func (c *Client) PublishQuery(ctx context.Context, brokerQueryID string) error {
	h, err := c.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	task, err := c.task(h)
	if err != nil {
		return err
	}
	if err := h.Publish(); err != nil {
		return err
	}

	taskID, err := c.postTask(ctx, task)
	if err != nil {
		c.Reporter.FailExecuting(h)
		return err
	}
	h.SetRemote(taskID)
	c.Track(h)
	c.logger.Info("feasibility task created", "query_id", h.LocalID(), "task_id", taskID)
	return nil
}

func (c *Client) postTask(ctx context.Context, task *gabs.Container) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("Task"), bytes.NewReader(task.Bytes()))
	if err != nil {
		return "", errs.Wrap(err, "failed to build task request")
	}
	req.Header.Set("Content-Type", fhirJSON)
	req.Header.Set("Accept", fhirJSON)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", broker.Communication(err, "failed to create task")
	}
	body, err := broker.ReadSuccess(resp, "create task")
	if err != nil {
		return "", err
	}
	created, err := gabs.ParseJSON(body)
	if err != nil {
		return "", broker.Communication(err, "created task is not JSON")
	}
	id, _ := created.Path("id").Data().(string)
	if id == "" {
		return "", broker.Communication(errs.New("task without id"), "create task")
	}
	return id, nil
}

func identifier(system, value string) map[string]any {
	return map[string]any{
		"type":       "Organization",
		"identifier": map[string]any{"system": system, "value": value},
	}
}

func inputType(system, code string) map[string]any {
	return map[string]any{"coding": []any{map[string]any{"system": system, "code": code}}}
}

var definitionInputs = []struct {
	mediaType query.MediaType
	code      string
}{
	{query.MediaStructuredQuery, codeStructuredQuery},
	{query.MediaCQL, codeCQL},
}

func (c *Client) task(h *broker.Handle) (*gabs.Container, error) {
	if _, _, err := broker.DefinitionFor(h, c.MediaTypes()...); err != nil {
		return nil, err
	}
	inputs := []any{
		map[string]any{"type": inputType(bpmnMessageSystem, "message-name"), "valueString": "feasibilityRequestMessage"},
		map[string]any{"type": inputType(bpmnMessageSystem, "business-key"), "valueString": h.LocalID().String()},
	}
	for _, d := range definitionInputs {
		content, ok := h.Definition(d.mediaType)
		if !ok {
			continue
		}
		inputs = append(inputs, map[string]any{
			"type": inputType(feasibilitySystem, d.code),
			"valueAttachment": map[string]any{
				"contentType": string(d.mediaType),
				"data":        base64.StdEncoding.EncodeToString([]byte(content)),
			},
		})
	}

	org := identifier(organizationSystem, c.organization)
	return gabs.Wrap(map[string]any{
		"resourceType":          "Task",
		"status":                "requested",
		"intent":                "order",
		"instantiatesCanonical": processURL,
		"authoredOn":            c.clock.Now().UTC().Format(time.RFC3339),
		"requester":             org,
		"restriction":           map[string]any{"recipient": []any{org}},
		"input":                 inputs,
	}), nil
}

func (c *Client) poll(ctx context.Context, h *broker.Handle) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("Task", h.Remote()), nil)
	if err != nil {
		return errs.Wrap(err, "failed to build task read")
	}
	req.Header.Set("Accept", fhirJSON)
	resp, err := c.http.Do(req)
	if err != nil {
		return broker.Communication(err, "failed to read task")
	}
	body, err := broker.ReadSuccess(resp, "read task")
	if err != nil {
		return err
	}
	return c.apply(h, body)
}

// apply reports every site output of a Task and settles the handle once the Task is finished.
func (c *Client) apply(h *broker.Handle, body []byte) error {
	task, err := gabs.ParseJSON(body)
	if err != nil {
		return broker.Communication(err, "task is not JSON")
	}

	for _, out := range task.Search("output").Children() {
		siteID := outputSite(out)
		if siteID == "" {
			continue
		}
		code, _ := out.Search("type", "coding", "0", "code").Data().(string)
		switch code {
		case codeSiteResult:
			n, ok := broker.IntValue(out.Search("valueInteger").Data())
			if !ok {
				c.logger.Warn("site result without count", "task_id", h.Remote(), "site_id", siteID)
				c.Reporter.Failed(h, siteID)
				continue
			}
			c.Reporter.Completed(h, siteID, n)
		case codeSiteError:
			c.Reporter.Failed(h, siteID)
		}
	}

	status, _ := task.Path("status").Data().(string)
	switch status {
	case "completed":
		h.Settle()
	case "failed", "cancelled", "rejected", "entered-in-error":
		c.logger.Warn("feasibility task ended unsuccessfully", "task_id", h.Remote(), "status", status)
		c.Reporter.FailExecuting(h)
	}
	return nil
}

func outputSite(out *gabs.Container) string {
	for _, ext := range out.Search("extension").Children() {
		if u, _ := ext.Search("url").Data().(string); u == siteExtensionURL {
			v, _ := ext.Search("valueIdentifier", "value").Data().(string)
			return v
		}
	}
	return ""
}
