package merger

import "github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"

// DefaultLimit is the number of documents a dual-keyword search returns.
const DefaultLimit = 5

// Merge walks two ranked lists from their highest frequency down and returns
// up to limit document IDs. On equal frequencies first wins and only its
// cursor moves. A document already in the result is skipped, but the step
// still counts toward limit. Either list may be nil.
func Merge(first, second index.OccurrenceList, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	result := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	emit := func(docID string) {
		if _, dup := seen[docID]; dup {
			return
		}
		seen[docID] = struct{}{}
		result = append(result, docID)
	}

	i, j, steps := 0, 0, 0
	for i < len(first) && j < len(second) && steps < limit {
		if second[j].Frequency > first[i].Frequency {
			emit(second[j].DocID)
			j++
		} else {
			emit(first[i].DocID)
			i++
		}
		steps++
	}
	for ; i < len(first) && steps < limit; i++ {
		emit(first[i].DocID)
		steps++
	}
	for ; j < len(second) && steps < limit; j++ {
		emit(second[j].DocID)
		steps++
	}
	return result
}
