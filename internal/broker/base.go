package broker

import (
	"context"
	"time"

	"feasibility-backend/internal/domain/query"

	"github.com/google/uuid"
)

// Base implements the local half of Client on top of a Registry.
// Variants embed it and override the operations that talk to a remote side.
type Base struct {
	Registry *Registry
	Reporter *Reporter

	kind       query.BrokerType
	mediaTypes []query.MediaType
}

func NewBase(kind query.BrokerType, mediaTypes []query.MediaType, reporter *Reporter) *Base {
	return &Base{
		Registry:   NewRegistry(),
		Reporter:   reporter,
		kind:       kind,
		mediaTypes: mediaTypes,
	}
}

func (b *Base) Type() query.BrokerType { return b.kind }

func (b *Base) MediaTypes() []query.MediaType { return b.mediaTypes }

func (b *Base) CreateQuery(_ context.Context, localQueryID uuid.UUID) (string, error) {
	return b.Registry.Create(localQueryID).ID(), nil
}

func (b *Base) AddQueryDefinition(_ context.Context, brokerQueryID string, mediaType query.MediaType, content string) error {
	h, err := b.Registry.Get(brokerQueryID)
	if err != nil {
		return err
	}
	if !supports(b.mediaTypes, mediaType) {
		return unsupported(b.kind, mediaType)
	}
	return h.Define(mediaType, content)
}

func (b *Base) CloseQuery(_ context.Context, brokerQueryID string) error {
	_, err := b.Registry.Close(brokerQueryID)
	return err
}

// SettledQueries lists broker queries that finished at least retention ago.
func (b *Base) SettledQueries(now time.Time, retention time.Duration) []string {
	return b.Registry.Settled(now, retention)
}

// ReleaseSettled closes every query c has held in a terminal state for at least retention.
// Closing goes through c so variants with remote state clean it up too. It returns how many were closed.
func ReleaseSettled(ctx context.Context, c Client, now time.Time, retention time.Duration) int {
	s, ok := c.(SettledLister)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range s.SettledQueries(now, retention) {
		if err := c.CloseQuery(ctx, id); err == nil {
			n++
		}
	}
	return n
}

func (b *Base) ResultSiteIDs(_ context.Context, brokerQueryID string) ([]string, error) {
	h, err := b.Registry.Get(brokerQueryID)
	if err != nil {
		return nil, err
	}
	return h.ResultSiteIDs(), nil
}

func (b *Base) ResultFeasibility(_ context.Context, brokerQueryID, siteID string) (int, error) {
	h, err := b.Registry.Get(brokerQueryID)
	if err != nil {
		return 0, err
	}
	return h.Feasibility(siteID)
}

func (b *Base) SiteName(siteID string) (string, error) {
	return b.Reporter.SiteName(siteID)
}

// DefinitionFor returns the definition the handle carries for the first of mediaTypes it has.
func DefinitionFor(h *Handle, mediaTypes ...query.MediaType) (query.MediaType, string, error) {
	for _, mt := range mediaTypes {
		if c, ok := h.Definition(mt); ok {
			return mt, c, nil
		}
	}
	return "", "", errsNoDefinition(h)
}
