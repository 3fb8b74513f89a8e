package repository

import (
	"context"
	"log/slog"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/infra/db"
	"feasibility-backend/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const (
	// The no-op update makes RETURNING yield the existing row on a hash hit.
	upsertContent = `INSERT INTO query_content (content_hash, content)
VALUES ($1, $2)
ON CONFLICT (content_hash) DO UPDATE SET content_hash = EXCLUDED.content_hash
RETURNING id`
	insertQuery = `INSERT INTO query (id, content_id, created_by, created_at)
VALUES ($1, $2, $3, $4)`
	selectQueryByID = `SELECT q.id, c.content, q.created_by, q.created_at
FROM query q JOIN query_content c ON c.id = q.content_id
WHERE q.id = $1`
	selectContentIDByHash = `SELECT id FROM query_content WHERE content_hash = $1`
	countQueriesSince     = `SELECT count(*) FROM query WHERE created_by = $1 AND created_at > $2`
	oldestQuerySince      = `SELECT min(created_at) FROM query WHERE created_by = $1 AND created_at > $2`
)

type QueryRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewQueryRepository(db db.DBTX, logger *slog.Logger) *QueryRepository {
	return &QueryRepository{db: db, logger: logger}
}

// Create stores q, reusing the content row of an earlier query with the same hash.
// Run it inside a transaction so a failed insert does not leave an orphaned content row.
func (r *QueryRepository) Create(ctx context.Context, q *query.Query) error {
	contentID, err := r.storeContent(ctx, q.Content())
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, insertQuery, q.ID(), contentID, q.CreatedBy(), q.CreatedAt()); err != nil {
		return wrap(r.logger, "failed to create query", err)
	}
	return nil
}

// storeContent looks the body up by hash first so repeated bodies cost a read instead of a row rewrite.
// The upsert still covers two authors storing the same new body at once.
func (r *QueryRepository) storeContent(ctx context.Context, content query.Content) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, selectContentIDByHash, content.Hash()).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case !pgconv.IsNoRows(err):
		return 0, wrap(r.logger, "failed to look up query content", err)
	}
	if err := r.db.QueryRow(ctx, upsertContent, content.Hash(), string(content.Raw())).Scan(&id); err != nil {
		return 0, wrap(r.logger, "failed to store query content", err)
	}
	return id, nil
}

func (r *QueryRepository) FindByID(ctx context.Context, id uuid.UUID) (*query.Query, error) {
	var (
		rowID     uuid.UUID
		raw       string
		createdBy string
		createdAt time.Time
	)
	if err := r.db.QueryRow(ctx, selectQueryByID, id).Scan(&rowID, &raw, &createdBy, &createdAt); err != nil {
		return nil, wrap(r.logger, "failed to find query", err)
	}
	content, err := query.NewContent([]byte(raw))
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored query content is invalid", err)
	}
	return query.RestoreQuery(rowID, content, createdBy, createdAt), nil
}

func (r *QueryRepository) CountCreatedSince(ctx context.Context, author string, since time.Time) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countQueriesSince, author, since).Scan(&n); err != nil {
		return 0, wrap(r.logger, "failed to count queries", err)
	}
	return int(n), nil
}

func (r *QueryRepository) OldestCreatedSince(ctx context.Context, author string, since time.Time) (time.Time, bool, error) {
	var oldest *time.Time
	if err := r.db.QueryRow(ctx, oldestQuerySince, author, since).Scan(&oldest); err != nil {
		return time.Time{}, false, wrap(r.logger, "failed to find oldest query", err)
	}
	if oldest == nil {
		return time.Time{}, false, nil
	}
	return *oldest, true, nil
}
