//go:build e2e

package query_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"feasibility-backend/internal/handler/api"
	"feasibility-backend/internal/handler/dto/response"
	"feasibility-backend/internal/handler/httperr"
	"feasibility-backend/tests/common/httptest"
	"feasibility-backend/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	queryURL     = "/api/query"
	rateLimitURL = "/api/query/detailed-obfuscated-result-rate-limit"

	roleUser     = "FEASIBILITY_USER"
	rolePower    = "FEASIBILITY_POWER"
	roleDetailed = "FEASIBILITY_ADMIN"
)

var structuredQuery = []byte(`{
  "version": "http://to_be_decided.com/draft-1/schema#",
  "inclusionCriteria": [[{"termCodes": [{"code": "I10", "system": "http://fhir.de/CodeSystem/bfarm/icd-10-gm", "display": "Essential hypertension"}]}]]
}`)

type QuerySuite struct {
	e2e.SharedSuite
}

func TestQuerySuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(QuerySuite))
}

func (s *QuerySuite) create(token string) string {
	t := s.T()
	w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, queryURL, api.MediaTypeStructuredQuery, structuredQuery, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, queryURL+"/"), location)
	return location
}

// =============================================================================
// Query creation and retrieval
// =============================================================================

func (s *QuerySuite) TestCreateQuery() {
	s.Run("Normal case: query is stored and dispatched to the mock broker", func() {
		t := s.T()
		token := s.Token("alice", roleUser)

		location := s.create(token)
		id := strings.TrimPrefix(location, queryURL+"/")

		var createdBy, brokerType string
		err := s.DB.QueryRow(context.Background(),
			`SELECT q.created_by, d.broker_type FROM query q JOIN query_dispatch d ON d.query_id = q.id WHERE q.id = $1`, id).
			Scan(&createdBy, &brokerType)
		require.NoError(t, err)
		assert.Equal(t, "alice", createdBy)
		assert.Equal(t, "MOCK", brokerType)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, location, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got response.QueryResponse
		httptest.DecodeResponseBody(t, w.Body, &got)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "alice", got.CreatedBy)
		assert.JSONEq(t, string(structuredQuery), string(got.Content))
	})

	s.Run("Error case: schema violations are rejected before anything is stored", func() {
		t := s.T()
		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, queryURL, "application/json",
			[]byte(`{"version":"1","inclusionCriteria":[]}`), s.Token("bob", roleUser))
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, string(httperr.CodeInvalidStructuredQuery))

		var n int
		require.NoError(t, s.DB.QueryRow(context.Background(), `SELECT count(*) FROM query`).Scan(&n))
		assert.Zero(t, n)
	})

	s.Run("Error case: soft quota answers 429 with Retry-After", func() {
		t := s.T()
		token := s.Token("carol", roleUser)
		for range s.Config.Quota.SoftAmount {
			s.create(token)
		}

		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, queryURL, api.MediaTypeStructuredQuery, structuredQuery, token)
		httptest.AssertErrorResponse(t, w, http.StatusTooManyRequests, string(httperr.CodeQuotaExceeded))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	s.Run("Normal case: power users are not held to the soft quota and share stored content", func() {
		t := s.T()
		token := s.Token("dave", roleUser, rolePower)
		for range s.Config.Quota.SoftAmount + 1 {
			s.create(token)
		}

		var queries, contents int
		require.NoError(t, s.DB.QueryRow(context.Background(),
			`SELECT count(*), count(DISTINCT content_id) FROM query`).Scan(&queries, &contents))
		assert.Equal(t, s.Config.Quota.SoftAmount+1, queries)
		assert.Equal(t, 1, contents, "identical bodies are stored once")
	})

	s.Run("Error case: blacklisted users cannot create queries", func() {
		t := s.T()
		_, err := s.DB.Exec(context.Background(),
			`INSERT INTO user_blacklist (user_id, blacklisted_at) VALUES ($1, $2)`, "eve", time.Now())
		require.NoError(t, err)

		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, queryURL, api.MediaTypeStructuredQuery, structuredQuery, s.Token("eve", roleUser))
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, string(httperr.CodeUserBlacklisted))
	})

	s.Run("Error case: other users cannot read the query", func() {
		t := s.T()
		location := s.create(s.Token("frank", roleUser))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, location, nil, s.Token("grace", roleUser))
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

// =============================================================================
// Results
// =============================================================================

func (s *QuerySuite) TestResults() {
	s.Run("Normal case: mock results reach every result view", func() {
		t := s.T()
		token := s.Token("heidi", roleUser)
		location := s.create(token)

		var summary response.SummaryResultResponse
		require.Eventually(t, func() bool {
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, location+"/summary-result", nil, token)
			if w.Code != http.StatusOK {
				return false
			}
			summary = response.SummaryResultResponse{}
			_ = json.Unmarshal(w.Body.Bytes(), &summary)
			return summary.TotalNumberOfPatients > 0
		}, 5*time.Second, 100*time.Millisecond)

		admin := s.Token("ivan", roleUser, roleDetailed)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, location+"/detailed-result", nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var detailed response.DetailedResultResponse
		httptest.DecodeResponseBody(t, w.Body, &detailed)
		assert.Equal(t, summary.TotalNumberOfPatients, detailed.TotalNumberOfPatients)

		sites := make([]string, 0, len(detailed.ResultLines))
		for _, l := range detailed.ResultLines {
			sites = append(sites, l.SiteName)
		}
		if diff := cmp.Diff(s.Config.Broker.Mock.Sites, sites, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
			t.Errorf("detailed sites mismatch (-want +got):\n%s", diff)
		}

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, location+"/detailed-obfuscated-result", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var obfuscated response.DetailedResultResponse
		httptest.DecodeResponseBody(t, w.Body, &obfuscated)
		assert.Equal(t, detailed.TotalNumberOfPatients, obfuscated.TotalNumberOfPatients)
		require.Len(t, obfuscated.ResultLines, len(detailed.ResultLines))
		for _, l := range obfuscated.ResultLines {
			assert.NotContains(t, s.Config.Broker.Mock.Sites, l.SiteName, "site names are replaced by tokens")
		}

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, rateLimitURL, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var limit response.RateLimitResponse
		httptest.DecodeResponseBody(t, w.Body, &limit)
		assert.Equal(t, response.RateLimitResponse{
			Limit:     s.Config.RateLimit.ViewCountCapacity,
			Remaining: s.Config.RateLimit.ViewCountCapacity - 1,
		}, limit)
	})

	s.Run("Normal case: unknown ids read as empty results", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			queryURL+"/00000000-0000-0000-0000-000000000001/detailed-obfuscated-result", nil, s.Token("judy", roleUser))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "true", w.Header().Get(api.HeaderDetailedObfuscatedResultWasEmpty))
	})

	s.Run("Error case: detailed results need the elevated role", func() {
		t := s.T()
		token := s.Token("mallory", roleUser)
		location := s.create(token)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, location+"/detailed-result", nil, token)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}
