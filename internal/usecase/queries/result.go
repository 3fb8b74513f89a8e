package queries

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"feasibility-backend/internal/domain/privacy"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/infra/ratelimit"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrQueryNotFound = errs.New("query not found")
	ErrForbidden     = errs.New("access to query denied")
	ErrRateLimited   = errs.New("polling rate limit exceeded")
)

// RateLimitError tells the caller how long to wait before polling again.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

type QueryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*query.Query, error)
}

type ResultSource interface {
	Snapshot(queryID uuid.UUID) query.Snapshot
}

type RateLimiter interface {
	TryConsume(userID string, class ratelimit.Class) (ratelimit.Decision, error)
	Peek(userID string, class ratelimit.Class) (ratelimit.Decision, error)
	Limit(class ratelimit.Class) (int, error)
}

type ResultQueries interface {
	Summary(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*SummaryView, error)
	DetailedObfuscated(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*DetailedView, error)
	Detailed(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*DetailedView, error)
	DetailedObfuscatedRateLimit(principal *user.Principal) (*RateLimitView, error)
}

type viewKey struct {
	user    string
	queryID uuid.UUID
}

type resultQueriesImpl struct {
	queries QueryReader
	results ResultSource
	limiter RateLimiter
	gate    *privacy.Gate
	roles   user.RoleSet
	logger  *slog.Logger

	tokenKey []byte
	// viewed holds the (user, query) pairs whose detailed view was already paid for.
	viewed sync.Map
}

type ResultOption func(*resultQueriesImpl)

// WithSiteTokenKey fixes the key site tokens are derived from. The default is random per process.
func WithSiteTokenKey(key []byte) ResultOption {
	return func(r *resultQueriesImpl) { r.tokenKey = key }
}

func NewResultQueries(
	queries QueryReader,
	results ResultSource,
	limiter RateLimiter,
	gate *privacy.Gate,
	roles user.RoleSet,
	logger *slog.Logger,
	opts ...ResultOption,
) ResultQueries {
	r := &resultQueriesImpl{
		queries: queries,
		results: results,
		limiter: limiter,
		gate:    gate,
		roles:   roles,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tokenKey == nil {
		r.tokenKey = make([]byte, 32)
		_, _ = rand.Read(r.tokenKey)
	}
	return r
}

func (r *resultQueriesImpl) Summary(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*SummaryView, error) {
	if err := r.consume(principal, ratelimit.ClassSummary); err != nil {
		return nil, err
	}
	if err := r.authorize(ctx, queryID, principal); err != nil {
		return nil, err
	}

	d := r.gate.Summary(r.results.Snapshot(queryID))
	if d.Suppressed {
		return &SummaryView{Issues: []privacy.Issue{*d.Issue}}, nil
	}
	return &SummaryView{TotalNumberOfPatients: d.Snapshot.TotalPatients}, nil
}

func (r *resultQueriesImpl) DetailedObfuscated(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*DetailedView, error) {
	if err := r.consume(principal, ratelimit.ClassDetailedObfuscated); err != nil {
		return nil, err
	}
	if err := r.authorize(ctx, queryID, principal); err != nil {
		return nil, err
	}
	if err := r.consumeView(principal, queryID); err != nil {
		return nil, err
	}

	snap := r.results.Snapshot(queryID)
	if len(snap.Lines) == 0 {
		return &DetailedView{ResultLines: []SiteResultView{}, Empty: true}, nil
	}
	d := r.gate.Detailed(snap)
	if d.Suppressed {
		return &DetailedView{ResultLines: []SiteResultView{}, Issues: []privacy.Issue{*d.Issue}}, nil
	}

	lines := make([]SiteResultView, 0, len(snap.Lines))
	for _, l := range d.Snapshot.SuccessfulLines() {
		lines = append(lines, SiteResultView{
			SiteName:         r.siteToken(principal.ID().Value(), queryID, l.SiteName),
			NumberOfPatients: l.PatientCount,
		})
	}
	// Sorting by token hides the order of the real site names.
	slices.SortFunc(lines, func(a, b SiteResultView) int { return cmp.Compare(a.SiteName, b.SiteName) })
	return &DetailedView{TotalNumberOfPatients: d.Snapshot.TotalPatients, ResultLines: lines}, nil
}

func (r *resultQueriesImpl) Detailed(ctx context.Context, queryID uuid.UUID, principal *user.Principal) (*DetailedView, error) {
	if !principal.CanReadDetailedResult(r.roles) {
		return nil, errs.Wrap(ErrForbidden, "detailed results need the elevated role")
	}
	snap := r.results.Snapshot(queryID)
	lines := make([]SiteResultView, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, SiteResultView{SiteName: l.SiteName, NumberOfPatients: l.PatientCount})
	}
	return &DetailedView{
		TotalNumberOfPatients: snap.TotalPatients,
		ResultLines:           lines,
		Empty:                 len(lines) == 0,
	}, nil
}

func (r *resultQueriesImpl) DetailedObfuscatedRateLimit(principal *user.Principal) (*RateLimitView, error) {
	limit, err := r.limiter.Limit(ratelimit.ClassViewCount)
	if err != nil {
		return nil, err
	}
	d, err := r.limiter.Peek(principal.ID().Value(), ratelimit.ClassViewCount)
	if err != nil {
		return nil, err
	}
	return &RateLimitView{Limit: limit, Remaining: d.Remaining}, nil
}

// authorize lets unknown ids through so they read as empty results.
func (r *resultQueriesImpl) authorize(ctx context.Context, queryID uuid.UUID, principal *user.Principal) error {
	q, err := r.queries.FindByID(ctx, queryID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return errs.Wrap(err, "failed to load query")
	}
	return checkAuthor(q, principal, r.roles)
}

func checkAuthor(q *query.Query, principal *user.Principal, roles user.RoleSet) error {
	if q.CreatedBy() != principal.ID().Value() && !principal.CanReadDetailedResult(roles) {
		return errs.Wrapf(ErrForbidden, "query %s", q.ID())
	}
	return nil
}

// consume applies a polling limit. Holders of the elevated role are not limited.
func (r *resultQueriesImpl) consume(principal *user.Principal, class ratelimit.Class) error {
	if principal.CanReadDetailedResult(r.roles) {
		return nil
	}
	d, err := r.limiter.TryConsume(principal.ID().Value(), class)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return errs.Mark(&RateLimitError{RetryAfterSeconds: d.SecondsToNextRefill}, ErrRateLimited)
	}
	return nil
}

// consumeView charges the view count the first time a user looks at a query's details.
func (r *resultQueriesImpl) consumeView(principal *user.Principal, queryID uuid.UUID) error {
	if principal.CanReadDetailedResult(r.roles) {
		return nil
	}
	k := viewKey{user: principal.ID().Value(), queryID: queryID}
	// The key is claimed before charging so concurrent first views pay once; a refused charge gives it back.
	if _, seen := r.viewed.LoadOrStore(k, struct{}{}); seen {
		return nil
	}
	d, err := r.limiter.TryConsume(k.user, ratelimit.ClassViewCount)
	if err != nil {
		r.viewed.Delete(k)
		return err
	}
	if !d.Allowed {
		r.viewed.Delete(k)
		r.logger.Info("detailed view limit reached", "user_id", k.user, "query_id", queryID)
		return errs.Mark(&RateLimitError{RetryAfterSeconds: d.SecondsToNextRefill}, ErrRateLimited)
	}
	return nil
}

// siteToken is stable for one user and query but unlinkable across users and queries.
func (r *resultQueriesImpl) siteToken(userID string, queryID uuid.UUID, siteName string) string {
	h, _ := blake2b.New256(r.tokenKey)
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write(queryID[:])
	h.Write([]byte(siteName))
	return "site-" + hex.EncodeToString(h.Sum(nil))[:12]
}
