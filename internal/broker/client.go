// Package broker abstracts the transports through which a feasibility query reaches healthcare sites.
//
// Every variant implements Client. Results are pulled through the accessors or, for every variant,
// pushed as StatusUpdates onto a Publisher the variant was built with. Publishing may happen on the
// caller's goroutine (in-process variants) or on a transport goroutine (networked variants).
package broker

import (
	"context"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrQueryNotFound        = errs.New("broker query not found")
	ErrSiteNotFound         = errs.New("site not found")
	ErrUnsupportedMediaType = errs.New("unsupported media type")
	ErrCommunication        = errs.ErrCommunication
	ErrInvalidState         = errs.New("invalid broker query state")
)

// Client is the capability set of a broker transport.
type Client interface {
	Type() query.BrokerType
	// MediaTypes lists the representations this variant needs before it can publish.
	MediaTypes() []query.MediaType

	CreateQuery(ctx context.Context, localQueryID uuid.UUID) (string, error)
	AddQueryDefinition(ctx context.Context, brokerQueryID string, mediaType query.MediaType, content string) error
	PublishQuery(ctx context.Context, brokerQueryID string) error
	CloseQuery(ctx context.Context, brokerQueryID string) error

	ResultSiteIDs(ctx context.Context, brokerQueryID string) ([]string, error)
	ResultFeasibility(ctx context.Context, brokerQueryID, siteID string) (int, error)
	SiteName(siteID string) (string, error)
}

// SettledLister is implemented by variants that can name their finished broker queries.
type SettledLister interface {
	SettledQueries(now time.Time, retention time.Duration) []string
}

// Runner is implemented by variants that watch remote state in the background.
type Runner interface {
	Start(ctx context.Context)
	Stop()
}

func supports(types []query.MediaType, mt query.MediaType) bool {
	for _, t := range types {
		if t == mt {
			return true
		}
	}
	return false
}

func unsupported(kind query.BrokerType, mt query.MediaType) error {
	return errs.Wrapf(ErrUnsupportedMediaType, "%s broker cannot consume %s", kind, mt)
}

// CheckMediaType fails with ErrUnsupportedMediaType unless mt is one of the variant's media types.
func CheckMediaType(c Client, mt query.MediaType) error {
	if !supports(c.MediaTypes(), mt) {
		return unsupported(c.Type(), mt)
	}
	return nil
}

func errsNoDefinition(h *Handle) error {
	return errs.Wrapf(ErrInvalidState, "broker query %s has no usable definition", h.ID())
}

// Communication marks a transport failure so callers can match it with errs.Is(err, ErrCommunication).
func Communication(err error, msg string) error {
	return errs.Mark(errs.Wrap(err, msg), ErrCommunication)
}
