//go:build unit

package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const storedContent = `{"version":"http://to_be_decided.com/draft-1/schema#","inclusionCriteria":[[{"termCodes":[{"code":"I10","system":"http://fhir.de/CodeSystem/bfarm/icd-10-gm","display":"Hypertension"}]}]]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueryRepositoryCreate(t *testing.T) {
	content, err := query.NewContent([]byte(storedContent))
	require.NoError(t, err)
	q, err := query.NewQuery(clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), content, "alice")
	require.NoError(t, err)

	stored := fakeRow{values: []any{int64(7)}}
	missing := fakeRow{err: pgx.ErrNoRows}

	tests := []struct {
		name      string
		lookupRow fakeRow
		upsertRow *fakeRow
		execErr   error
		wantExec  bool
		wantKind  infra.RepositoryErrorKind
	}{
		{name: "success: new content is stored", lookupRow: missing, upsertRow: &stored, wantExec: true},
		{name: "success: known content is reused without a write", lookupRow: stored, wantExec: true},
		{
			name:      "duplicate id",
			lookupRow: stored,
			execErr:   &pgconn.PgError{Code: "23505"},
			wantExec:  true,
			wantKind:  infra.KindDuplicateKey,
		},
		{name: "content lookup fails", lookupRow: fakeRow{err: assert.AnError}, wantKind: infra.KindDBFailure},
		{
			name:      "content upsert fails",
			lookupRow: missing,
			upsertRow: &fakeRow{err: assert.AnError},
			wantKind:  infra.KindDBFailure,
		},
		{
			name:      "database error",
			lookupRow: stored,
			execErr:   assert.AnError,
			wantExec:  true,
			wantKind:  infra.KindDBFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtx := new(MockDBTX)
			dbtx.On("QueryRow", mock.Anything, selectContentIDByHash, []interface{}{q.ContentHash()}).
				Return(tt.lookupRow)
			if tt.upsertRow != nil {
				dbtx.On("QueryRow", mock.Anything, upsertContent, []interface{}{q.ContentHash(), storedContent}).
					Return(*tt.upsertRow)
			}
			if tt.wantExec {
				dbtx.On("Exec", mock.Anything, insertQuery,
					[]interface{}{q.ID(), int64(7), "alice", q.CreatedAt()}).
					Return(pgconn.NewCommandTag("INSERT 0 1"), tt.execErr)
			}

			err := NewQueryRepository(dbtx, testLogger()).Create(context.Background(), q)

			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.True(t, infra.IsKind(err, tt.wantKind))
			} else {
				assert.NoError(t, err)
			}
			dbtx.AssertExpectations(t)
			if tt.upsertRow == nil {
				dbtx.AssertNotCalled(t, "QueryRow", mock.Anything, upsertContent, mock.Anything)
			}
		})
	}
}

func TestQueryRepositoryFindByID(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		row      fakeRow
		wantKind infra.RepositoryErrorKind
	}{
		{
			name: "success",
			row:  fakeRow{values: []any{id, storedContent, "alice", createdAt}},
		},
		{
			name:     "not found",
			row:      fakeRow{err: pgx.ErrNoRows},
			wantKind: infra.KindNotFound,
		},
		{
			name:     "corrupt content",
			row:      fakeRow{values: []any{id, "{", "alice", createdAt}},
			wantKind: infra.KindDBFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtx := new(MockDBTX)
			dbtx.On("QueryRow", mock.Anything, selectQueryByID, []interface{}{id}).Return(tt.row)

			got, err := NewQueryRepository(dbtx, testLogger()).FindByID(context.Background(), id)

			if tt.wantKind != "" {
				assert.Nil(t, got)
				assert.True(t, infra.IsKind(err, tt.wantKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got.ID())
			assert.Equal(t, "alice", got.CreatedBy())
			assert.Equal(t, createdAt, got.CreatedAt())
			assert.JSONEq(t, storedContent, string(got.Content().Raw()))
		})
	}
}

func TestQueryRepositoryQuotaWindow(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := since.Add(5 * time.Second)

	t.Run("count", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, countQueriesSince, []interface{}{"alice", since}).
			Return(fakeRow{values: []any{int64(3)}})

		n, err := NewQueryRepository(dbtx, testLogger()).CountCreatedSince(context.Background(), "alice", since)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("oldest present", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, oldestQuerySince, []interface{}{"alice", since}).
			Return(fakeRow{values: []any{&oldest}})

		at, ok, err := NewQueryRepository(dbtx, testLogger()).OldestCreatedSince(context.Background(), "alice", since)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, oldest, at)
	})

	t.Run("oldest absent", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, oldestQuerySince, []interface{}{"bob", since}).
			Return(fakeRow{values: []any{nil}})

		_, ok, err := NewQueryRepository(dbtx, testLogger()).OldestCreatedSince(context.Background(), "bob", since)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("count failure", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, countQueriesSince, []interface{}{"alice", since}).
			Return(fakeRow{err: assert.AnError})

		_, err := NewQueryRepository(dbtx, testLogger()).CountCreatedSince(context.Background(), "alice", since)
		assert.True(t, infra.IsKind(err, infra.KindDBFailure))
	})
}
