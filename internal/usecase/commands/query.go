package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"
)

var (
	ErrBlacklisted   = errs.New("user is blacklisted")
	ErrQuotaExceeded = errs.New("query creation quota exceeded")
	ErrInvalidQuery  = errs.New("invalid structured query")
)

// QuotaError reports a soft quota hit together with the time until the next query is allowed.
type QuotaError struct {
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("query creation quota exceeded, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds rounds up so clients never retry too early.
func (e *QuotaError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

type CreateQueryResult struct {
	Query    *query.Query
	Dispatch *DispatchOutcome
}

type QueryCommands interface {
	CreateQuery(ctx context.Context, body []byte, principal *user.Principal) (*CreateQueryResult, error)
}

type queryUseCaseImpl struct {
	uow        UnitOfWork
	dispatcher Dispatcher
	quota      config.QuotaConfig
	roles      user.RoleSet
	clock      clock.Clock
	logger     *slog.Logger
}

func NewQueryUseCase(
	uow UnitOfWork,
	dispatcher Dispatcher,
	quota config.QuotaConfig,
	roles user.RoleSet,
	clock clock.Clock,
	logger *slog.Logger,
) QueryCommands {
	return &queryUseCaseImpl{
		uow:        uow,
		dispatcher: dispatcher,
		quota:      quota,
		roles:      roles,
		clock:      clock,
		logger:     logger,
	}
}

// CreateQuery stores the query once the author's quota allows it and then dispatches it.
// Quota checks and the insert share one transaction holding the author lock.
func (u *queryUseCaseImpl) CreateQuery(ctx context.Context, body []byte, principal *user.Principal) (*CreateQueryResult, error) {
	author := principal.ID().Value()

	var (
		q           *query.Query
		blacklisted bool
	)
	err := u.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		q, blacklisted = nil, false
		if err := tx.LockAuthor(ctx, author); err != nil {
			return err
		}

		if !principal.IsPowerUser(u.roles) {
			hit, err := u.checkQuota(ctx, tx, author)
			if err != nil {
				return err
			}
			// The blacklist entry has to be committed, so the rejection happens after the transaction.
			if hit {
				blacklisted = true
				return nil
			}
		}

		content, err := query.NewContent(body)
		if err != nil {
			return errs.Mark(errs.Wrap(err, "parse structured query"), ErrInvalidQuery)
		}
		created, err := query.NewQuery(u.clock, content, author)
		if err != nil {
			return errs.Mark(err, ErrInvalidQuery)
		}
		if err := tx.Queries().Create(ctx, created); err != nil {
			return errs.Wrap(err, "failed to store query")
		}
		q = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, errs.Wrapf(ErrBlacklisted, "user %s exceeded the hard quota", author)
	}

	outcome, err := u.dispatcher.Dispatch(ctx, q)
	if err != nil {
		return nil, err
	}
	return &CreateQueryResult{Query: q, Dispatch: outcome}, nil
}

// checkQuota rejects blacklisted users and asks users over the soft quota to come back later.
// It reports true after blacklisting a user who went over the hard quota.
func (u *queryUseCaseImpl) checkQuota(ctx context.Context, tx Tx, author string) (bool, error) {
	blacklisted, err := tx.Blacklist().IsBlacklisted(ctx, author)
	if err != nil {
		return false, errs.Wrap(err, "failed to read blacklist")
	}
	if blacklisted {
		return false, errs.Wrapf(ErrBlacklisted, "user %s", author)
	}

	now := u.clock.Now()

	hard, err := tx.Queries().CountCreatedSince(ctx, author, now.Add(-u.quota.HardInterval))
	if err != nil {
		return false, errs.Wrap(err, "failed to count queries")
	}
	if hard >= u.quota.HardAmount {
		if err := tx.Blacklist().Add(ctx, author, now); err != nil {
			return false, errs.Wrap(err, "failed to blacklist user")
		}
		u.logger.Warn("user blacklisted after exceeding the hard query quota",
			"user_id", author,
			"queries", hard,
			"window", u.quota.HardInterval.String())
		return true, nil
	}

	softSince := now.Add(-u.quota.SoftInterval)
	soft, err := tx.Queries().CountCreatedSince(ctx, author, softSince)
	if err != nil {
		return false, errs.Wrap(err, "failed to count queries")
	}
	if soft < u.quota.SoftAmount {
		return false, nil
	}

	retry := time.Second
	oldest, ok, err := tx.Queries().OldestCreatedSince(ctx, author, softSince)
	if err != nil {
		return false, errs.Wrap(err, "failed to find oldest query")
	}
	if ok {
		if d := oldest.Add(u.quota.SoftInterval).Sub(now); d > retry {
			retry = d
		}
	}
	return false, errs.Mark(&QuotaError{RetryAfter: retry}, ErrQuotaExceeded)
}
