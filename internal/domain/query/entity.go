package query

import (
	"errors"
	"time"

	"feasibility-backend/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrEmptyContent     = errors.New("structured query must not be empty")
	ErrMalformedContent = errors.New("structured query is not valid json")
	ErrMissingAuthor    = errors.New("query author is required")
	ErrInvalidDispatch  = errors.New("invalid dispatch record")
)

type Query struct {
	id        uuid.UUID
	content   Content
	createdBy string
	createdAt time.Time
}

func NewQuery(clk clock.Clock, content Content, createdBy string) (*Query, error) {
	if createdBy == "" {
		return nil, ErrMissingAuthor
	}
	return &Query{
		id:        uuid.New(),
		content:   content,
		createdBy: createdBy,
		createdAt: clk.Now(),
	}, nil
}

// RestoreQuery rebuilds a query loaded from storage.
func RestoreQuery(id uuid.UUID, content Content, createdBy string, createdAt time.Time) *Query {
	return &Query{id: id, content: content, createdBy: createdBy, createdAt: createdAt}
}

func (q *Query) ID() uuid.UUID        { return q.id }
func (q *Query) Content() Content     { return q.content }
func (q *Query) ContentHash() string  { return q.content.Hash() }
func (q *Query) CreatedBy() string    { return q.createdBy }
func (q *Query) CreatedAt() time.Time { return q.createdAt }

// DispatchRecord is the one outstanding broker-side query created for a local query.
// There is at most one per (QueryID, BrokerType).
type DispatchRecord struct {
	QueryID         uuid.UUID
	BrokerType      BrokerType
	ExternalQueryID string
	DispatchedAt    time.Time
}

func NewDispatchRecord(queryID uuid.UUID, brokerType BrokerType, externalID string, at time.Time) (DispatchRecord, error) {
	if queryID == uuid.Nil || !brokerType.IsValid() || externalID == "" {
		return DispatchRecord{}, ErrInvalidDispatch
	}
	return DispatchRecord{
		QueryID:         queryID,
		BrokerType:      brokerType,
		ExternalQueryID: externalID,
		DispatchedAt:    at,
	}, nil
}
