package response

import (
	"encoding/json"
	"time"

	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type IssueResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SummaryResultResponse struct {
	TotalNumberOfPatients int             `json:"totalNumberOfPatients"`
	Issues                []IssueResponse `json:"issues,omitempty"`
}

type SiteResultResponse struct {
	SiteName         string `json:"siteName"`
	NumberOfPatients int    `json:"numberOfPatients"`
}

type DetailedResultResponse struct {
	TotalNumberOfPatients int                  `json:"totalNumberOfPatients"`
	ResultLines           []SiteResultResponse `json:"resultLines"`
	Issues                []IssueResponse      `json:"issues,omitempty"`
}

type RateLimitResponse struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type QueryResponse struct {
	ID        string          `json:"id"`
	Content   json.RawMessage `json:"content"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
}

var copyOptions = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: uuid.UUID{},
			DstType: copier.String,
			Fn: func(src any) (any, error) {
				id, ok := src.(uuid.UUID)
				if !ok {
					return nil, errs.New("expected uuid.UUID")
				}
				return id.String(), nil
			},
		},
	},
}

func copyInto[T any](src any) (*T, error) {
	var dst T
	if err := copier.CopyWithOption(&dst, src, copyOptions); err != nil {
		return nil, errs.Wrap(err, "failed to map response")
	}
	return &dst, nil
}

func FromSummaryView(v *queries.SummaryView) (*SummaryResultResponse, error) {
	return copyInto[SummaryResultResponse](v)
}

func FromDetailedView(v *queries.DetailedView) (*DetailedResultResponse, error) {
	res, err := copyInto[DetailedResultResponse](v)
	if err != nil {
		return nil, err
	}
	if res.ResultLines == nil {
		res.ResultLines = []SiteResultResponse{}
	}
	return res, nil
}

func FromRateLimitView(v *queries.RateLimitView) (*RateLimitResponse, error) {
	return copyInto[RateLimitResponse](v)
}

func FromQueryView(v *queries.QueryView) (*QueryResponse, error) {
	return copyInto[QueryResponse](v)
}
