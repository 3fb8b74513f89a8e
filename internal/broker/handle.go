package broker

import (
	"maps"
	"slices"
	"sync"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
)

// State of a broker-side query:
// CREATED -> DEFINED (0..n) -> PUBLISHED -> COMPLETED | FAILED -> CLOSED.
// CLOSED is terminal and reachable from every other state.
type State string

const (
	StateCreated   State = "CREATED"
	StateDefined   State = "DEFINED"
	StatePublished State = "PUBLISHED"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateClosed    State = "CLOSED"
)

// Handle is the local bookkeeping for one broker-side query. All methods are safe for concurrent use.
type Handle struct {
	mu          sync.Mutex
	id          string
	localID     uuid.UUID
	state       State
	definitions map[query.MediaType]string
	sites       map[string]Status
	results     map[string]int
	// remote is an identifier the remote side assigned at publish time, if any.
	remote string
	// settledAt is when a sweep first saw the handle COMPLETED or FAILED.
	settledAt time.Time
}

func (h *Handle) ID() string         { return h.id }
func (h *Handle) LocalID() uuid.UUID { return h.localID }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Define(mt query.MediaType, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateCreated, StateDefined:
		h.definitions[mt] = content
		h.state = StateDefined
		return nil
	default:
		return errs.Wrapf(ErrInvalidState, "cannot add a definition to a query in state %s", h.state)
	}
}

func (h *Handle) Definition(mt query.MediaType) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.definitions[mt]
	return c, ok
}

// Publish moves the handle to PUBLISHED. Publishing twice is an error.
func (h *Handle) Publish() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateCreated, StateDefined:
		h.state = StatePublished
		return nil
	default:
		return errs.Wrapf(ErrInvalidState, "cannot publish a query in state %s", h.state)
	}
}

func (h *Handle) SetRemote(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remote = id
}

func (h *Handle) Remote() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remote
}

// Executing records that siteID started working on the query. Sites already terminal are left alone.
func (h *Handle) Executing(siteID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sites[siteID]; !ok {
		h.sites[siteID] = StatusExecuting
	}
}

// Complete stores the count for siteID. It reports false if the site already reached a terminal status.
func (h *Handle) Complete(siteID string, count int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed || h.sites[siteID].Terminal() {
		return false
	}
	h.sites[siteID] = StatusCompleted
	h.results[siteID] = count
	return true
}

// Fail marks siteID failed. It reports false if the site already reached a terminal status.
func (h *Handle) Fail(siteID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed || h.sites[siteID].Terminal() {
		return false
	}
	h.sites[siteID] = StatusFailed
	return true
}

// SiteStatus reports the last known status of siteID.
func (h *Handle) SiteStatus(siteID string) (Status, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.sites[siteID]
	return st, ok
}

func (h *Handle) ExecutingSites() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for id, st := range h.sites {
		if st == StatusExecuting {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Settle moves a published handle to COMPLETED or FAILED once no site is executing any more.
func (h *Handle) Settle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StatePublished {
		return
	}
	failed := true
	for _, st := range h.sites {
		switch st {
		case StatusExecuting:
			return
		case StatusCompleted:
			failed = false
		}
	}
	if failed {
		h.state = StateFailed
	} else {
		h.state = StateCompleted
	}
}

func (h *Handle) settledSince(now time.Time) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateCompleted && h.state != StateFailed {
		return time.Time{}, false
	}
	if h.settledAt.IsZero() {
		h.settledAt = now
	}
	return h.settledAt, true
}

func (h *Handle) ResultSiteIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Sorted(maps.Keys(h.results))
}

func (h *Handle) Feasibility(siteID string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.results[siteID]
	if !ok {
		return 0, errs.Wrapf(ErrSiteNotFound, "no result for site %s", siteID)
	}
	return n, nil
}

// Registry owns the handles of one Client. Handles are removed when closed.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

func (r *Registry) Create(localID uuid.UUID) *Handle {
	return r.CreateWithID(uuid.NewString(), localID)
}

func (r *Registry) CreateWithID(id string, localID uuid.UUID) *Handle {
	h := &Handle{
		id:          id,
		localID:     localID,
		state:       StateCreated,
		definitions: make(map[query.MediaType]string),
		sites:       make(map[string]Status),
		results:     make(map[string]int),
	}
	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()
	return h
}

func (r *Registry) Get(id string) (*Handle, error) {
	r.mu.RLock()
	h, ok := r.handles[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.Wrapf(ErrQueryNotFound, "unknown broker query %s", id)
	}
	return h, nil
}

// Close releases the handle. Later reads fail with ErrQueryNotFound.
func (r *Registry) Close(id string) (*Handle, error) {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return nil, errs.Wrapf(ErrQueryNotFound, "unknown broker query %s", id)
	}
	h.mu.Lock()
	h.state = StateClosed
	h.mu.Unlock()
	return h, nil
}

// Published lists handles waiting for remote results.
func (r *Registry) Published() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Handle
	for _, h := range r.handles {
		if h.State() == StatePublished {
			out = append(out, h)
		}
	}
	return out
}

// Settled lists handles that have been COMPLETED or FAILED for at least retention.
// A handle counts as settled from the first call that observes it in a terminal state.
func (r *Registry) Settled(now time.Time, retention time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id, h := range r.handles {
		if since, ok := h.settledSince(now); ok && now.Sub(since) >= retention {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
