package repository

import (
	"context"
	"log/slog"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	selectDispatches = `SELECT broker_type, external_query_id, dispatched_at FROM query_dispatch
WHERE query_id = $1 ORDER BY broker_type`
	insertDispatch = `INSERT INTO query_dispatch (query_id, broker_type, external_query_id, dispatched_at)
VALUES ($1, $2, $3, $4)`
)

type DispatchRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewDispatchRepository(db db.DBTX, logger *slog.Logger) *DispatchRepository {
	return &DispatchRepository{db: db, logger: logger}
}

func (r *DispatchRepository) FindByQuery(ctx context.Context, queryID uuid.UUID) ([]query.DispatchRecord, error) {
	rows, err := r.db.Query(ctx, selectDispatches, queryID)
	if err != nil {
		return nil, wrap(r.logger, "failed to list dispatches", err)
	}
	defer rows.Close()

	var out []query.DispatchRecord
	for rows.Next() {
		var (
			brokerType string
			externalID string
			at         time.Time
		)
		if err := rows.Scan(&brokerType, &externalID, &at); err != nil {
			return nil, wrap(r.logger, "failed to scan dispatch", err)
		}
		out = append(out, query.DispatchRecord{
			QueryID:         queryID,
			BrokerType:      query.BrokerType(brokerType),
			ExternalQueryID: externalID,
			DispatchedAt:    at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(r.logger, "failed to list dispatches", err)
	}
	return out, nil
}

// Save inserts all records in one batch, which pgx runs as a single implicit transaction.
// A second record for the same (query, broker) fails with a duplicate key error.
func (r *DispatchRepository) Save(ctx context.Context, records []query.DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertDispatch, rec.QueryID, string(rec.BrokerType), rec.ExternalQueryID, rec.DispatchedAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return wrap(r.logger, "failed to save dispatches", err)
	}
	return nil
}
