package commands

import (
	"context"
	"time"

	"feasibility-backend/internal/domain/query"

	"github.com/google/uuid"
)

type Translator interface {
	Translate(ctx context.Context, content query.Content, mediaTypes []query.MediaType) (map[query.MediaType]string, error)
}

type QueryRepository interface {
	Create(ctx context.Context, q *query.Query) error
	FindByID(ctx context.Context, id uuid.UUID) (*query.Query, error)
	CountCreatedSince(ctx context.Context, author string, since time.Time) (int, error)
	// OldestCreatedSince reports false when the author created nothing since the given time.
	OldestCreatedSince(ctx context.Context, author string, since time.Time) (time.Time, bool, error)
}

type DispatchRepository interface {
	FindByQuery(ctx context.Context, queryID uuid.UUID) ([]query.DispatchRecord, error)
	Save(ctx context.Context, records []query.DispatchRecord) error
}

type BlacklistRepository interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
	Add(ctx context.Context, userID string, at time.Time) error
}

// UnitOfWork runs quota checks and query creation in one transaction.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// LockAuthor serializes concurrent creations by the same author until the transaction ends.
	LockAuthor(ctx context.Context, author string) error
	Queries() QueryRepository
	Blacklist() BlacklistRepository
}
