package index

// Occurrence records how often one keyword appears in one document.
type Occurrence struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"frequency"`
}

// OccurrenceList holds a keyword's occurrences in descending frequency
// order.
type OccurrenceList []Occurrence

// TermEntry is one keyword with its ranked occurrences.
type TermEntry struct {
	Keyword     string         `json:"keyword"`
	Occurrences OccurrenceList `json:"occurrences"`
}

// InsertLast moves the last element of occs into place. occs[:len(occs)-1]
// must already be in descending frequency order. The returned slice lists
// the midpoints probed by the binary search; it is nil when occs had a
// single element before the append and the search is skipped.
func InsertLast(occs OccurrenceList) []int {
	n := len(occs)
	if n < 2 {
		return nil
	}
	last := occs[n-1]

	if n == 2 {
		if last.Frequency > occs[0].Frequency {
			occs[0], occs[1] = last, occs[0]
		}
		return nil
	}

	probes := make([]int, 0, 4)
	lo, hi := 0, n-2
	pos := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		probes = append(probes, mid)
		f := occs[mid].Frequency
		if f == last.Frequency {
			pos = mid
			break
		}
		if f > last.Frequency {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if pos < 0 {
		pos = lo
	}

	copy(occs[pos+1:], occs[pos:n-1])
	occs[pos] = last
	return probes
}

// IsRanked reports whether occs is in non-increasing frequency order.
func IsRanked(occs OccurrenceList) bool {
	for i := 1; i < len(occs); i++ {
		if occs[i].Frequency > occs[i-1].Frequency {
			return false
		}
	}
	return true
}
