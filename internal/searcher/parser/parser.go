package parser

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// KeywordFunc classifies a raw word, as tokenizer.Normalizer.Keyword does.
type KeywordFunc func(word string) (string, bool)

// QueryPlan is a parsed "kw1 OR kw2" query. Order matters: First wins
// frequency ties. Second is empty for single-keyword queries.
type QueryPlan struct {
	First    string
	Second   string
	RawQuery string
}

// Keywords returns the non-empty keywords in query order.
func (p *QueryPlan) Keywords() []string {
	out := make([]string, 0, 2)
	for _, kw := range []string{p.First, p.Second} {
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Parse accepts "kw1 OR kw2", "kw1 kw2" or "kw1". Each term is passed
// through keyword; a rejected term keeps its lower-cased form so it still
// holds its position and simply matches nothing.
func Parse(query string, keyword KeywordFunc) (*QueryPlan, error) {
	plan := &QueryPlan{RawQuery: query}
	terms := make([]string, 0, 2)
	for _, w := range strings.Fields(query) {
		if strings.EqualFold(w, "OR") {
			continue
		}
		terms = append(terms, Term(w, keyword))
	}
	switch len(terms) {
	case 0:
		return nil, fmt.Errorf("%w: empty query", apperrors.ErrInvalidInput)
	case 1:
		plan.First = terms[0]
	case 2:
		plan.First, plan.Second = terms[0], terms[1]
	default:
		return nil, fmt.Errorf("%w: at most two keywords, got %d", apperrors.ErrInvalidInput, len(terms))
	}
	return plan, nil
}

// Term normalizes a single query word.
func Term(word string, keyword KeywordFunc) string {
	if kw, ok := keyword(word); ok {
		return kw
	}
	return strings.ToLower(word)
}
