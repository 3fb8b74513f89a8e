//go:build unit

package repository

import (
	"context"
	"testing"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/infra"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDispatchRepositoryFindByQuery(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	dbtx := new(MockDBTX)
	dbtx.On("Query", mock.Anything, selectDispatches, []interface{}{id}).Return(&fakeRows{rows: [][]any{
		{"AKTIN", "17", at},
		{"DSF", "Task/9", at},
	}}, nil)

	got, err := NewDispatchRepository(dbtx, testLogger()).FindByQuery(context.Background(), id)
	require.NoError(t, err)

	want := []query.DispatchRecord{
		{QueryID: id, BrokerType: query.BrokerAktin, ExternalQueryID: "17", DispatchedAt: at},
		{QueryID: id, BrokerType: query.BrokerDSF, ExternalQueryID: "Task/9", DispatchedAt: at},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindByQuery() mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchRepositoryFindByQueryFailure(t *testing.T) {
	id := uuid.New()
	dbtx := new(MockDBTX)
	dbtx.On("Query", mock.Anything, selectDispatches, []interface{}{id}).Return(nil, assert.AnError)

	_, err := NewDispatchRepository(dbtx, testLogger()).FindByQuery(context.Background(), id)
	assert.True(t, infra.IsKind(err, infra.KindDBFailure))
}

func TestDispatchRepositorySave(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []query.DispatchRecord{
		{QueryID: id, BrokerType: query.BrokerMock, ExternalQueryID: "m-1", DispatchedAt: at},
		{QueryID: id, BrokerType: query.BrokerDSF, ExternalQueryID: "Task/1", DispatchedAt: at},
	}

	tests := []struct {
		name     string
		batchErr error
		wantKind infra.RepositoryErrorKind
	}{
		{name: "success"},
		{name: "already dispatched", batchErr: &pgconn.PgError{Code: "23505"}, wantKind: infra.KindDuplicateKey},
		{name: "unknown query", batchErr: &pgconn.PgError{Code: "23503"}, wantKind: infra.KindForeignKeyViolated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtx := new(MockDBTX)
			dbtx.On("SendBatch", mock.Anything, mock.MatchedBy(func(b *pgx.Batch) bool {
				return b.Len() == len(records)
			})).Return(fakeBatchResults{err: tt.batchErr})

			err := NewDispatchRepository(dbtx, testLogger()).Save(context.Background(), records)

			if tt.wantKind != "" {
				assert.True(t, infra.IsKind(err, tt.wantKind))
			} else {
				assert.NoError(t, err)
			}
			dbtx.AssertExpectations(t)
		})
	}
}

func TestDispatchRepositorySaveNothing(t *testing.T) {
	dbtx := new(MockDBTX)
	assert.NoError(t, NewDispatchRepository(dbtx, testLogger()).Save(context.Background(), nil))
	dbtx.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything)
}
