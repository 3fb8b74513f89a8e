//go:build unit

package queries_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"feasibility-backend/internal/domain/privacy"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/infra/ratelimit"
	"feasibility-backend/internal/infra/resultstore"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/usecase/queries"
	queriesmock "feasibility-backend/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var roles = user.RoleSet{User: "FEASIBILITY_USER", PowerUser: "FEASIBILITY_POWER", DetailedResult: "FEASIBILITY_ADMIN"}

func principal(t *testing.T, name string, rs ...user.Role) *user.Principal {
	t.Helper()
	id, err := user.NewID(name)
	require.NoError(t, err)
	return user.NewPrincipal(id, append([]user.Role{roles.User}, rs...))
}

func storedQuery(t *testing.T, author string, at time.Time) *query.Query {
	t.Helper()
	content, err := query.NewContent([]byte(`{"version":"1"}`))
	require.NoError(t, err)
	q, err := query.NewQuery(clock.NewMockClock(at), content, author)
	require.NoError(t, err)
	return q
}

type ResultQueriesTestSuite struct {
	suite.Suite
	ctx      context.Context
	mockCtrl *gomock.Controller
	reader   *queriesmock.MockQueryReader
	clock    *clock.MockClock
	store    *resultstore.Store
	limiter  *ratelimit.Limiter
	uc       queries.ResultQueries
	logger   *slog.Logger

	alice *user.Principal
	bob   *user.Principal
	admin *user.Principal
	q     *query.Query
}

func (s *ResultQueriesTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.mockCtrl = gomock.NewController(s.T())
	s.reader = queriesmock.NewMockQueryReader(s.mockCtrl)
	s.clock = clock.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s.store = resultstore.New(time.Hour, s.clock)
	s.limiter = ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSummary:            {Capacity: 1, Refill: time.Second},
		ratelimit.ClassDetailedObfuscated: {Capacity: 1, Refill: time.Second},
		ratelimit.ClassViewCount:          {Capacity: 2, Refill: time.Hour},
	}, s.clock)
	s.uc = queries.NewResultQueries(s.reader, s.store, s.limiter,
		privacy.NewGate(privacy.Thresholds{ResultSize: 20, Sites: 2, SiteResult: 5}),
		roles, s.logger, queries.WithSiteTokenKey([]byte("test-key")))

	s.alice = principal(s.T(), "alice")
	s.bob = principal(s.T(), "bob")
	s.admin = principal(s.T(), "root", roles.DetailedResult)
	s.q = storedQuery(s.T(), "alice", s.clock.Now())
}

func (s *ResultQueriesTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestResultQueriesSuite(t *testing.T) {
	suite.Run(t, new(ResultQueriesTestSuite))
}

func (s *ResultQueriesTestSuite) expectQuery() {
	s.reader.EXPECT().FindByID(s.ctx, s.q.ID()).Return(s.q, nil).AnyTimes()
}

func (s *ResultQueriesTestSuite) addResults(lines ...query.ResultLine) {
	for _, l := range lines {
		s.store.Add(s.q.ID(), l)
	}
}

func (s *ResultQueriesTestSuite) nextInterval() {
	s.clock.Add(1100 * time.Millisecond)
}

// ================================================================================
// Summary
// ================================================================================

func (s *ResultQueriesTestSuite) TestSummary() {
	s.expectQuery()

	s.Run("suppressed below the result size threshold", func() {
		s.addResults(query.SuccessLine("A", 12))
		view, err := s.uc.Summary(s.ctx, s.q.ID(), s.alice)
		s.Require().NoError(err)
		s.Zero(view.TotalNumberOfPatients)
		s.Require().Len(view.Issues, 1)
		s.Equal(privacy.IssueResultSize, view.Issues[0].Code)
	})

	s.Run("rate limited on immediate repeat", func() {
		_, err := s.uc.Summary(s.ctx, s.q.ID(), s.alice)
		s.True(errs.Is(err, queries.ErrRateLimited))
		var rl *queries.RateLimitError
		s.Require().True(errs.As(err, &rl))
		s.Equal(1, rl.RetryAfterSeconds)
	})

	s.Run("total once enough patients are in", func() {
		s.nextInterval()
		s.addResults(query.SuccessLine("B", 9), query.ErrorLine("C"))
		view, err := s.uc.Summary(s.ctx, s.q.ID(), s.alice)
		s.Require().NoError(err)
		s.Equal(21, view.TotalNumberOfPatients)
		s.Empty(view.Issues)
	})

	s.Run("other users are rejected", func() {
		_, err := s.uc.Summary(s.ctx, s.q.ID(), s.bob)
		s.True(errs.Is(err, queries.ErrForbidden))
	})

	s.Run("elevated role reads any query without limits", func() {
		for range 3 {
			view, err := s.uc.Summary(s.ctx, s.q.ID(), s.admin)
			s.Require().NoError(err)
			s.Equal(21, view.TotalNumberOfPatients)
		}
	})
}

func (s *ResultQueriesTestSuite) TestSummaryUnknownQueryReadsAsEmpty() {
	unknown := uuid.New()
	s.reader.EXPECT().FindByID(s.ctx, unknown).
		Return(nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "query not found", nil))

	view, err := s.uc.Summary(s.ctx, unknown, s.alice)
	s.Require().NoError(err)
	s.Zero(view.TotalNumberOfPatients)
	s.Require().Len(view.Issues, 1)
}

func (s *ResultQueriesTestSuite) TestSummaryRepositoryFailure() {
	s.reader.EXPECT().FindByID(s.ctx, s.q.ID()).
		Return(nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "select failed", errs.New("conn reset")))

	_, err := s.uc.Summary(s.ctx, s.q.ID(), s.alice)
	s.Require().Error(err)
	s.True(infra.IsKind(err, infra.KindDBFailure))
}

// ================================================================================
// DetailedObfuscated
// ================================================================================

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedEmpty() {
	s.expectQuery()

	view, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
	s.Require().NoError(err)
	s.True(view.Empty)
	s.Empty(view.Issues)
	s.Empty(view.ResultLines)
}

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedSiteThreshold() {
	s.expectQuery()
	s.addResults(query.SuccessLine("A", 30), query.SuccessLine("B", 5))

	view, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
	s.Require().NoError(err)
	s.False(view.Empty)
	s.Require().Len(view.Issues, 1)
	s.Equal(privacy.IssueResultSites, view.Issues[0].Code)
	s.Empty(view.ResultLines)
}

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedTokens() {
	s.expectQuery()
	s.addResults(query.SuccessLine("Berlin", 30), query.SuccessLine("Hamburg", 12), query.ErrorLine("Munich"))

	first, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
	s.Require().NoError(err)
	s.Equal(42, first.TotalNumberOfPatients)
	s.Require().Len(first.ResultLines, 2, "error lines are not shown")
	s.Less(first.ResultLines[0].SiteName, first.ResultLines[1].SiteName)
	for _, l := range first.ResultLines {
		s.True(strings.HasPrefix(l.SiteName, "site-"))
		s.NotContains([]string{"Berlin", "Hamburg"}, l.SiteName)
	}

	s.nextInterval()
	second, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
	s.Require().NoError(err)
	s.Equal(first.ResultLines, second.ResultLines, "tokens are stable for one user and query")

	adminView, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.admin)
	s.Require().NoError(err)
	s.NotEqual(first.ResultLines[0].SiteName, adminView.ResultLines[0].SiteName)
	s.NotEqual(first.ResultLines[1].SiteName, adminView.ResultLines[1].SiteName)
}

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedViewCount() {
	other := storedQuery(s.T(), "alice", s.clock.Now())
	third := storedQuery(s.T(), "alice", s.clock.Now())
	s.expectQuery()
	s.reader.EXPECT().FindByID(s.ctx, other.ID()).Return(other, nil).AnyTimes()
	s.reader.EXPECT().FindByID(s.ctx, third.ID()).Return(third, nil).AnyTimes()

	limit, err := s.uc.DetailedObfuscatedRateLimit(s.alice)
	s.Require().NoError(err)
	s.Equal(&queries.RateLimitView{Limit: 2, Remaining: 2}, limit)

	for range 3 {
		_, err := s.uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
		s.Require().NoError(err, "repeated views of the same query are free")
		s.nextInterval()
	}
	limit, _ = s.uc.DetailedObfuscatedRateLimit(s.alice)
	s.Equal(1, limit.Remaining)

	_, err = s.uc.DetailedObfuscated(s.ctx, other.ID(), s.alice)
	s.Require().NoError(err)
	s.nextInterval()

	_, err = s.uc.DetailedObfuscated(s.ctx, third.ID(), s.alice)
	s.True(errs.Is(err, queries.ErrRateLimited))

	limit, _ = s.uc.DetailedObfuscatedRateLimit(s.alice)
	s.Equal(0, limit.Remaining)
}

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedConcurrentFirstViewsChargeOnce() {
	s.expectQuery()
	limiter := ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSummary:            {Capacity: 1, Refill: time.Second},
		ratelimit.ClassDetailedObfuscated: {Capacity: 50, Refill: time.Second},
		ratelimit.ClassViewCount:          {Capacity: 5, Refill: time.Hour},
	}, s.clock)
	uc := queries.NewResultQueries(s.reader, s.store, limiter,
		privacy.NewGate(privacy.Thresholds{ResultSize: 20, Sites: 2, SiteResult: 5}),
		roles, s.logger, queries.WithSiteTokenKey([]byte("test-key")))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.DetailedObfuscated(s.ctx, s.q.ID(), s.alice)
			s.NoError(err)
		}()
	}
	wg.Wait()

	limit, err := uc.DetailedObfuscatedRateLimit(s.alice)
	s.Require().NoError(err)
	s.Equal(4, limit.Remaining)
}

func (s *ResultQueriesTestSuite) TestDetailedObfuscatedRefusedViewIsNotRemembered() {
	other := storedQuery(s.T(), "alice", s.clock.Now())
	third := storedQuery(s.T(), "alice", s.clock.Now())
	s.expectQuery()
	s.reader.EXPECT().FindByID(s.ctx, other.ID()).Return(other, nil).AnyTimes()
	s.reader.EXPECT().FindByID(s.ctx, third.ID()).Return(third, nil).AnyTimes()

	for _, id := range []uuid.UUID{s.q.ID(), other.ID()} {
		_, err := s.uc.DetailedObfuscated(s.ctx, id, s.alice)
		s.Require().NoError(err)
		s.nextInterval()
	}
	_, err := s.uc.DetailedObfuscated(s.ctx, third.ID(), s.alice)
	s.True(errs.Is(err, queries.ErrRateLimited))
	s.nextInterval()

	// still refused: the failed attempt did not mark the query as viewed
	_, err = s.uc.DetailedObfuscated(s.ctx, third.ID(), s.alice)
	s.True(errs.Is(err, queries.ErrRateLimited))
}

// ================================================================================
// Detailed
// ================================================================================

func (s *ResultQueriesTestSuite) TestDetailed() {
	s.addResults(query.SuccessLine("A", 3), query.ErrorLine("B"))

	_, err := s.uc.Detailed(s.ctx, s.q.ID(), s.alice)
	s.True(errs.Is(err, queries.ErrForbidden))

	view, err := s.uc.Detailed(s.ctx, s.q.ID(), s.admin)
	s.Require().NoError(err)
	s.Equal(3, view.TotalNumberOfPatients)
	s.Equal([]queries.SiteResultView{{SiteName: "A", NumberOfPatients: 3}, {SiteName: "B"}}, view.ResultLines)
	s.Empty(view.Issues, "no privacy gate on detailed results")
}

// ================================================================================
// GetQuery
// ================================================================================

func TestGetQuery(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := storedQuery(t, "alice", at)

	testCases := []struct {
		name      string
		principal *user.Principal
		setupMock func(m *queriesmock.MockQueryReader)
		expectErr error
	}{
		{
			name:      "success: author reads own query",
			principal: principal(t, "alice"),
			setupMock: func(m *queriesmock.MockQueryReader) {
				m.EXPECT().FindByID(ctx, q.ID()).Return(q, nil)
			},
		},
		{
			name:      "error: other user",
			principal: principal(t, "bob"),
			setupMock: func(m *queriesmock.MockQueryReader) {
				m.EXPECT().FindByID(ctx, q.ID()).Return(q, nil)
			},
			expectErr: queries.ErrForbidden,
		},
		{
			name:      "error: unknown query",
			principal: principal(t, "alice"),
			setupMock: func(m *queriesmock.MockQueryReader) {
				m.EXPECT().FindByID(ctx, q.ID()).Return(nil, infra.WrapRepoErr(logger, infra.KindNotFound, "query not found", nil))
			},
			expectErr: queries.ErrQueryNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			reader := queriesmock.NewMockQueryReader(ctrl)
			tc.setupMock(reader)

			view, err := queries.NewQueryQueries(reader, roles).GetQuery(ctx, q.ID(), tc.principal)
			if tc.expectErr != nil {
				assert.True(t, errs.Is(err, tc.expectErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &queries.QueryView{
				ID:        q.ID(),
				Content:   q.Content().Raw(),
				CreatedBy: "alice",
				CreatedAt: at,
			}, view)
		})
	}
}
