package index

import "sort"

// MemoryIndex maps keywords to ranked occurrence lists. Keywords are never
// removed. It has no locking of its own; the owning engine serializes
// access.
type MemoryIndex struct {
	index       map[string]OccurrenceList
	occurrences int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]OccurrenceList, 1000),
	}
}

// Merge adds one document's keyword occurrences. A new keyword gets a
// singleton list; an existing one has the occurrence appended and moved
// into rank order.
func (m *MemoryIndex) Merge(kws map[string]Occurrence) {
	for kw, occ := range kws {
		occs, exists := m.index[kw]
		if !exists {
			m.index[kw] = OccurrenceList{occ}
			m.occurrences++
			continue
		}
		occs = append(occs, occ)
		InsertLast(occs)
		m.index[kw] = occs
		m.occurrences++
	}
}

// Lookup returns the ranked list for kw. The slice is shared with the
// index and must not be modified.
func (m *MemoryIndex) Lookup(kw string) (OccurrenceList, bool) {
	occs, ok := m.index[kw]
	return occs, ok
}

// Snapshot copies every keyword's list, sorted by keyword.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.index))
	for kw, occs := range m.index {
		cp := make(OccurrenceList, len(occs))
		copy(cp, occs)
		entries = append(entries, TermEntry{
			Keyword:     kw,
			Occurrences: cp,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Keyword < entries[j].Keyword
	})
	return entries
}

// KeywordCount returns the number of distinct keywords.
func (m *MemoryIndex) KeywordCount() int {
	return len(m.index)
}

// OccurrenceCount returns the number of occurrences across all lists.
func (m *MemoryIndex) OccurrenceCount() int {
	return m.occurrences
}
