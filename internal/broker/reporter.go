package broker

import (
	"log/slog"

	"feasibility-backend/internal/domain/query"
)

// Reporter turns per-site transitions of a Handle into StatusUpdates.
// Each site is reported at most once per handle no matter how often a transport repeats itself.
type Reporter struct {
	broker     query.BrokerType
	publisher  Publisher
	sites      *SiteCatalogue
	obfuscator Obfuscator
	logger     *slog.Logger
}

func NewReporter(broker query.BrokerType, publisher Publisher, sites *SiteCatalogue, obfuscator Obfuscator, logger *slog.Logger) *Reporter {
	if obfuscator == nil {
		obfuscator = NoObfuscation()
	}
	if sites == nil {
		sites = NewSiteCatalogue(nil)
	}
	return &Reporter{
		broker:     broker,
		publisher:  publisher,
		sites:      sites,
		obfuscator: obfuscator,
		logger:     logger.With("broker", string(broker)),
	}
}

func (r *Reporter) SiteName(siteID string) (string, error) {
	return r.sites.Name(siteID)
}

// Completed stores the obfuscated count and publishes a COMPLETED update with a SUCCESS line.
func (r *Reporter) Completed(h *Handle, siteID string, count int) {
	count = r.obfuscator.Obfuscate(count)
	if !h.Complete(siteID, count) {
		r.logger.Debug("duplicate site result ignored", "broker_query_id", h.ID(), "site_id", siteID)
		return
	}
	line := query.SuccessLine(r.siteName(siteID), count)
	r.publish(h, siteID, StatusCompleted, &line)
}

// Failed publishes a FAILED update with an ERROR line.
func (r *Reporter) Failed(h *Handle, siteID string) {
	if !h.Fail(siteID) {
		return
	}
	line := query.ErrorLine(r.siteName(siteID))
	r.publish(h, siteID, StatusFailed, &line)
}

// FailExecuting fails every site still executing so no caller waits on a query that cannot finish.
func (r *Reporter) FailExecuting(h *Handle) {
	for _, siteID := range h.ExecutingSites() {
		r.Failed(h, siteID)
	}
	h.Settle()
}

// Executing records the transition and announces it without a result line.
func (r *Reporter) Executing(h *Handle, siteID string) {
	h.Executing(siteID)
	r.publish(h, siteID, StatusExecuting, nil)
}

func (r *Reporter) siteName(siteID string) string {
	name, err := r.sites.Name(siteID)
	if err != nil {
		return siteID
	}
	return name
}

func (r *Reporter) publish(h *Handle, siteID string, status Status, line *query.ResultLine) {
	r.logger.Debug("broker status update",
		"query_id", h.LocalID(),
		"broker_query_id", h.ID(),
		"site_id", siteID,
		"status", string(status))
	r.publisher.Publish(StatusUpdate{
		LocalQueryID:  h.LocalID(),
		Broker:        r.broker,
		BrokerQueryID: h.ID(),
		SiteID:        siteID,
		Status:        status,
		Result:        line,
	})
}
