// Package source supplies the engine with documents, their raw tokens and
// the noise-word list. Failures to open or read any of them are reported as
// errors wrapping pkg/errors.ErrInputUnavailable. A cancelled context is
// returned as is.
package source

import (
	"context"
	"errors"
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// TokenSource yields the whitespace-delimited raw tokens of a document. A
// read failure is yielded as a non-nil error, after which iteration stops.
type TokenSource interface {
	Tokens(ctx context.Context, docID string) iter.Seq2[string, error]
}

// DocumentListSource lists the documents to index, in indexing order.
type DocumentListSource interface {
	Documents(ctx context.Context) ([]string, error)
}

// NoiseWordSource lists the words excluded from indexing.
type NoiseWordSource interface {
	NoiseWords(ctx context.Context) ([]string, error)
}

// Corpus bundles the three sources an index build reads from.
type Corpus struct {
	Documents  DocumentListSource
	Tokens     TokenSource
	NoiseWords NoiseWordSource
}

func readFailure(source string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Unavailable(source, err)
}
