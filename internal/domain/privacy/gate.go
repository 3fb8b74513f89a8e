// Package privacy decides how much of a collected result a caller may see.
// Decisions are made on every read, so threshold changes apply to results collected earlier.
package privacy

import "feasibility-backend/internal/domain/query"

type IssueCode string

const (
	IssueResultSize  IssueCode = "FEAS-10003"
	IssueResultSites IssueCode = "FEAS-10004"
)

type Issue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
}

var (
	resultSizeIssue = Issue{
		Code:    IssueResultSize,
		Message: "The total number of results is below the threshold defined by the privacy policy.",
	}
	resultSitesIssue = Issue{
		Code:    IssueResultSites,
		Message: "The number of responding sites above the individual threshold is too low.",
	}
)

type Thresholds struct {
	ResultSize int
	// Sites is the minimum number of sites each reporting strictly more than SiteResult patients.
	Sites      int
	SiteResult int
}

type Gate struct {
	thresholds Thresholds
}

func NewGate(t Thresholds) *Gate {
	return &Gate{thresholds: t}
}

// Decision is either a visible snapshot or a suppression issue, never both.
type Decision struct {
	Snapshot   query.Snapshot
	Suppressed bool
	Issue      *Issue
}

func allow(s query.Snapshot) Decision {
	return Decision{Snapshot: s}
}

func suppress(issue Issue) Decision {
	return Decision{Snapshot: query.EmptySnapshot(), Suppressed: true, Issue: &issue}
}

// Summary applies only the total size threshold.
func (g *Gate) Summary(s query.Snapshot) Decision {
	if s.TotalPatients < g.thresholds.ResultSize {
		return suppress(resultSizeIssue)
	}
	return allow(s)
}

// Detailed applies the total size threshold and then the site count threshold.
func (g *Gate) Detailed(s query.Snapshot) Decision {
	if d := g.Summary(s); d.Suppressed {
		return d
	}
	if g.sitesAboveThreshold(s) < g.thresholds.Sites {
		return suppress(resultSitesIssue)
	}
	return allow(s)
}

func (g *Gate) sitesAboveThreshold(s query.Snapshot) int {
	n := 0
	for _, l := range s.SuccessfulLines() {
		if l.PatientCount > g.thresholds.SiteResult {
			n++
		}
	}
	return n
}
