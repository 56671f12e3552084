package alerts

import (
	"sort"
	"sync"
	"time"

	"rockwatch/internal/model"
)

// Store is a bounded alert log. Once full, the oldest insert is dropped.
type Store struct {
	mu    sync.RWMutex
	buf   []model.AlertRecord
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

func (s *Store) Add(alert model.AlertRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(alert)
}

func (s *Store) add(alert model.AlertRecord) {
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, alert)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = alert
}

// Replace swaps the whole log for records.
func (s *Store) Replace(records []model.AlertRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	for _, r := range records {
		s.add(r)
	}
}

// ReplaceSource drops every alert from source and adds records in its place.
func (s *Store) ReplaceSource(source string, records []model.AlertRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]model.AlertRecord, 0, len(s.buf)+len(records))
	for _, a := range s.buf {
		if a.Source != source {
			kept = append(kept, a)
		}
	}
	s.buf = nil
	for _, a := range append(kept, records...) {
		s.add(a)
	}
}

// Query selects alerts for the dashboard. Zero fields do not filter.
type Query struct {
	Since      time.Time
	ActiveOnly bool
	Limit      int
}

// Query returns matching alerts newest first. Limit applies after the
// other filters; a Limit <= 0 means all.
func (s *Store) Query(q Query) []model.AlertRecord {
	return s.filter(q.Limit, func(a model.AlertRecord) bool {
		if q.ActiveOnly && a.Resolved {
			return false
		}
		return q.Since.IsZero() || !a.Timestamp.Before(q.Since)
	})
}

func (s *Store) filter(limit int, keep func(model.AlertRecord) bool) []model.AlertRecord {
	s.mu.RLock()
	out := make([]model.AlertRecord, 0, len(s.buf))
	for _, a := range s.buf {
		if keep(a) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
