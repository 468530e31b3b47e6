package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
)

func renderIndex(w io.Writer, entries []index.TermEntry) {
	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		data = append(data, []string{e.Keyword, formatOccurrences(e.Occurrences)})
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Keyword", "Occurrences"})
	table.Bulk(data)
	table.Render()
}

func formatOccurrences(occs index.OccurrenceList) string {
	parts := make([]string, len(occs))
	for i, o := range occs {
		parts[i] = fmt.Sprintf("(%s,%d)", o.DocID, o.Frequency)
	}
	return strings.Join(parts, " ")
}
