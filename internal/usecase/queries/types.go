package queries

import (
	"encoding/json"
	"time"

	"feasibility-backend/internal/domain/privacy"

	"github.com/google/uuid"
)

// SummaryView carries either a total or the issue that suppressed it.
type SummaryView struct {
	TotalNumberOfPatients int
	Issues                []privacy.Issue
}

type SiteResultView struct {
	SiteName         string
	NumberOfPatients int
}

type DetailedView struct {
	TotalNumberOfPatients int
	ResultLines           []SiteResultView
	Issues                []privacy.Issue
	// Empty is set when no site has answered yet. Empty views are never suppressed.
	Empty bool
}

type RateLimitView struct {
	Limit     int
	Remaining int
}

type QueryView struct {
	ID        uuid.UUID
	Content   json.RawMessage
	CreatedBy string
	CreatedAt time.Time
}
