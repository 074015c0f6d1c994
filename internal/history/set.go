package history

import "time"

// Entry is one previously notified item.
// Date is the item's logical date (not the notification time) and drives pruning.
type Entry struct {
	Key  string    `json:"key"`
	Date time.Time `json:"date"`
}

// Set is an ordered collection of entries, unique by key.
// Not safe for concurrent use; a category owns its Set for the whole run.
type Set struct {
	entries []Entry
	index   map[string]int
}

// NewSet builds a Set from persisted entries. On duplicate keys the later
// entry wins but keeps the position of the first one.
func NewSet(entries []Entry) *Set {
	s := &Set{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

func (s *Set) Len() int { return len(s.entries) }

func (s *Set) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Add inserts e, or replaces the entry with the same key.
func (s *Set) Add(e Entry) {
	if s.index == nil {
		s.index = map[string]int{}
	}
	if i, ok := s.index[e.Key]; ok {
		s.entries[i] = e
		return
	}
	s.index[e.Key] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Prune drops every entry whose date is not strictly after cutoff and
// returns how many were removed.
func (s *Set) Prune(cutoff time.Time) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if !e.Date.After(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	s.entries = kept
	s.index = make(map[string]int, len(kept))
	for i, e := range kept {
		s.index[e.Key] = i
	}
	return removed
}

// Entries returns a copy of the entries in insertion order.
func (s *Set) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}
