package queries

import (
	"context"

	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
)

type QueryQueries interface {
	GetQuery(ctx context.Context, id uuid.UUID, principal *user.Principal) (*QueryView, error)
}

type queryQueriesImpl struct {
	queries QueryReader
	roles   user.RoleSet
}

func NewQueryQueries(queries QueryReader, roles user.RoleSet) QueryQueries {
	return &queryQueriesImpl{queries: queries, roles: roles}
}

func (q *queryQueriesImpl) GetQuery(ctx context.Context, id uuid.UUID, principal *user.Principal) (*QueryView, error) {
	found, err := q.queries.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Wrapf(ErrQueryNotFound, "query %s", id)
		}
		return nil, errs.Wrap(err, "failed to load query")
	}
	if err := checkAuthor(found, principal, q.roles); err != nil {
		return nil, err
	}
	return &QueryView{
		ID:        found.ID(),
		Content:   found.Content().Raw(),
		CreatedBy: found.CreatedBy(),
		CreatedAt: found.CreatedAt(),
	}, nil
}
