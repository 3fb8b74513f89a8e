// Package resultstore keeps the per-site result lines of recently dispatched queries.
package resultstore

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"

	"github.com/google/uuid"
)

type entry struct {
	created time.Time
	// site name -> query.ResultLine; the first line stored for a site wins.
	lines sync.Map
	// expired entries keep their id for another ttl so late lines are recognised and dropped.
	tombstone bool
}

// Store merges result lines per query. Entries expire a fixed time after their first line,
// regardless of reads. Lines arriving after expiry are dropped. All methods are safe for concurrent use.
type Store struct {
	entries sync.Map // uuid.UUID -> *entry
	ttl     time.Duration
	clock   clock.Clock
}

func New(ttl time.Duration, clk clock.Clock) *Store {
	return &Store{ttl: ttl, clock: clk}
}

// Add stores line unless a line for the same site is already present or the query's entry has expired.
// It reports whether line was stored.
func (s *Store) Add(queryID uuid.UUID, line query.ResultLine) bool {
	now := s.clock.Now()
	v, _ := s.entries.LoadOrStore(queryID, &entry{created: now})
	e := v.(*entry)
	if e.tombstone || s.expired(e, now) {
		return false
	}
	_, loaded := e.lines.LoadOrStore(line.SiteName, line)
	return !loaded
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return !now.Before(e.created.Add(s.ttl))
}

// Snapshot returns the lines collected so far, sorted by site name.
// Unknown and expired ids yield an empty snapshot.
func (s *Store) Snapshot(queryID uuid.UUID) query.Snapshot {
	v, ok := s.entries.Load(queryID)
	if !ok {
		return query.EmptySnapshot()
	}
	e := v.(*entry)
	if s.expired(e, s.clock.Now()) {
		return query.EmptySnapshot()
	}
	var lines []query.ResultLine
	e.lines.Range(func(_, l any) bool {
		lines = append(lines, l.(query.ResultLine))
		return true
	})
	slices.SortFunc(lines, func(a, b query.ResultLine) int {
		return cmp.Compare(a.SiteName, b.SiteName)
	})
	return query.NewSnapshot(lines)
}

// Evict replaces expired entries by tombstones and drops tombstones a further ttl later.
// It returns how many entries were dropped.
func (s *Store) Evict() int {
	now := s.clock.Now()
	n := 0
	s.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		switch {
		case !s.expired(e, now):
		case !now.Before(e.created.Add(2 * s.ttl)):
			if s.entries.CompareAndDelete(k, v) {
				n++
			}
		case !e.tombstone:
			s.entries.CompareAndSwap(k, v, &entry{created: e.created, tombstone: true})
		}
		return true
	})
	return n
}

func (s *Store) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
