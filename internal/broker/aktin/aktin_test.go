//go:build unit

package aktin_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/broker/aktin"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []broker.StatusUpdate
}

func (p *recordingPublisher) Publish(u broker.StatusUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) byStatus(s broker.Status) []broker.StatusUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broker.StatusUpdate
	for _, u := range p.updates {
		if u.Status == s {
			out = append(out, u)
		}
	}
	return out
}

// fakeBroker imitates the AKTIN broker and aggregator resources for a single request.
type fakeBroker struct {
	mu          sync.Mutex
	definitions map[string]string
	published   bool
	deleted     bool
	failPublish bool
	status      string
	results     map[string]int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		definitions: map[string]string{},
		status:      `{"nodes":[]}`,
		results:     map[string]int{},
	}
}

func (f *fakeBroker) setStatus(s string) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

func (f *fakeBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer key-1" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/broker/request":
		w.Header().Set("Location", "/broker/request/17")
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPut && r.URL.Path == "/broker/request/17":
		body, _ := io.ReadAll(r.Body)
		f.definitions[r.Header.Get("Content-Type")] = string(body)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && r.URL.Path == "/broker/request/17/publish":
		if f.failPublish {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		f.published = true
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/broker/request/17/status":
		_, _ = w.Write([]byte(f.status))
	case r.Method == http.MethodGet && len(r.URL.Path) > len("/aggregator/request/17/result/"):
		node := r.URL.Path[len("/aggregator/request/17/result/"):]
		n, ok := f.results[node]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprintf(w, `{"count":%d}`, n)
	case r.Method == http.MethodDelete && r.URL.Path == "/broker/request/17":
		f.deleted = true
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newClient(t *testing.T, srv *httptest.Server, clk clock.Clock, pub broker.Publisher) *aktin.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sites := broker.NewSiteCatalogue(map[string]string{"1": "Node One", "2": "Node Two"})
	reporter := broker.NewReporter(query.BrokerAktin, pub, sites, nil, logger)
	c, err := aktin.New(config.AktinBrokerConfig{
		BaseURL:      srv.URL,
		APIKey:       "key-1",
		PollInterval: time.Second,
		Timeout:      5 * time.Second,
		QueryTimeout: time.Minute,
	}, srv.Client().Transport, reporter, clk, logger)
	require.NoError(t, err)
	return c
}

func TestAktinClient(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("dispatch and collect node results", func(t *testing.T) {
		fb := newFakeBroker()
		fb.results["2"] = 30
		srv := httptest.NewServer(fb)
		defer srv.Close()

		pub := &recordingPublisher{}
		c := newClient(t, srv, clock.NewMockClock(t0), pub)
		localID := uuid.New()

		id, err := c.CreateQuery(ctx, localID)
		require.NoError(t, err)
		assert.Equal(t, "17", id)
		require.NoError(t, c.AddQueryDefinition(ctx, id, query.MediaStructuredQuery, `{"a":1}`))
		require.NoError(t, c.PublishQuery(ctx, id))

		fb.setStatus(`{"nodes":[{"node":"1","status":"processing"},{"node":2,"status":"completed"}]}`)
		c.Tick(ctx)

		completed := pub.byStatus(broker.StatusCompleted)
		require.Len(t, completed, 1)
		assert.Equal(t, query.SuccessLine("Node Two", 30), *completed[0].Result)
		assert.Equal(t, localID, completed[0].LocalQueryID)
		assert.Len(t, pub.byStatus(broker.StatusExecuting), 1)

		// a repeated status must not report node 2 again
		fb.setStatus(`{"nodes":[{"node":"1","status":"rejected"},{"node":"2","status":"completed"}]}`)
		c.Tick(ctx)

		assert.Len(t, pub.byStatus(broker.StatusCompleted), 1)
		failed := pub.byStatus(broker.StatusFailed)
		require.Len(t, failed, 1)
		assert.Equal(t, query.ErrorLine("Node One"), *failed[0].Result)

		siteIDs, err := c.ResultSiteIDs(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, siteIDs)

		fb.mu.Lock()
		assert.True(t, fb.published)
		assert.Equal(t, `{"a":1}`, fb.definitions["application/sq+json"])
		fb.mu.Unlock()

		require.NoError(t, c.CloseQuery(ctx, id))
		fb.mu.Lock()
		assert.True(t, fb.deleted)
		fb.mu.Unlock()
		_, err = c.ResultSiteIDs(ctx, id)
		assert.True(t, errs.Is(err, broker.ErrQueryNotFound))
	})

	t.Run("publish failure is a communication error", func(t *testing.T) {
		fb := newFakeBroker()
		fb.failPublish = true
		srv := httptest.NewServer(fb)
		defer srv.Close()

		c := newClient(t, srv, clock.NewMockClock(t0), &recordingPublisher{})
		id, err := c.CreateQuery(ctx, uuid.New())
		require.NoError(t, err)
		err = c.PublishQuery(ctx, id)
		require.Error(t, err)
		assert.True(t, errs.Is(err, broker.ErrCommunication))
	})

	t.Run("queries running past the timeout fail their executing nodes", func(t *testing.T) {
		fb := newFakeBroker()
		srv := httptest.NewServer(fb)
		defer srv.Close()

		clk := clock.NewMockClock(t0)
		pub := &recordingPublisher{}
		c := newClient(t, srv, clk, pub)
		id, err := c.CreateQuery(ctx, uuid.New())
		require.NoError(t, err)
		require.NoError(t, c.PublishQuery(ctx, id))

		fb.setStatus(`{"nodes":[{"node":"1","status":"queued"}]}`)
		c.Tick(ctx)
		assert.Empty(t, pub.byStatus(broker.StatusFailed))

		clk.Add(2 * time.Minute)
		c.Tick(ctx)
		require.Len(t, pub.byStatus(broker.StatusFailed), 1)
	})

	t.Run("cql definitions are accepted, fhir search is not", func(t *testing.T) {
		fb := newFakeBroker()
		srv := httptest.NewServer(fb)
		defer srv.Close()

		c := newClient(t, srv, clock.NewMockClock(t0), &recordingPublisher{})
		id, err := c.CreateQuery(ctx, uuid.New())
		require.NoError(t, err)
		require.NoError(t, c.AddQueryDefinition(ctx, id, query.MediaCQL, "library x"))
		err = c.AddQueryDefinition(ctx, id, query.MediaFHIRSearch, "Patient?gender=female")
		assert.True(t, errs.Is(err, broker.ErrUnsupportedMediaType))
	})
}
