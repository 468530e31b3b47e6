package source

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// FileTokens reads documents from disk. Document IDs are file names,
// resolved against Dir when it is set.
type FileTokens struct {
	Dir string
}

func (f FileTokens) path(docID string) string {
	if f.Dir == "" || filepath.IsAbs(docID) {
		return docID
	}
	return filepath.Join(f.Dir, docID)
}

func (f FileTokens) Tokens(ctx context.Context, docID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		file, err := os.Open(f.path(docID))
		if err != nil {
			yield("", apperrors.Unavailable(docID, err))
			return
		}
		defer file.Close()
		for w, err := range scanWords(ctx, file) {
			if err != nil {
				yield("", readFailure(docID, err))
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}

// FileDocumentList reads document names, whitespace-delimited, from Path.
type FileDocumentList struct {
	Path string
}

func (f FileDocumentList) Documents(ctx context.Context) ([]string, error) {
	return readWords(ctx, f.Path)
}

// FileNoiseWords reads noise words, whitespace-delimited, from Path.
type FileNoiseWords struct {
	Path string
}

func (f FileNoiseWords) NoiseWords(ctx context.Context) ([]string, error) {
	return readWords(ctx, f.Path)
}

// NewFileCorpus returns a Corpus backed by a docs file, a noise-words file
// and an optional directory the document names are relative to.
func NewFileCorpus(docsFile, noiseWordsFile, docsDir string) Corpus {
	return Corpus{
		Documents:  FileDocumentList{Path: docsFile},
		Tokens:     FileTokens{Dir: docsDir},
		NoiseWords: FileNoiseWords{Path: noiseWordsFile},
	}
}

func readWords(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Unavailable(path, err)
	}
	defer file.Close()
	words := make([]string, 0, 64)
	for w, err := range scanWords(ctx, file) {
		if err != nil {
			return nil, readFailure(path, err)
		}
		words = append(words, w)
	}
	return words, nil
}

func scanWords(ctx context.Context, file *os.File) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := bufio.NewScanner(file)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		sc.Split(bufio.ScanWords)
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !sc.Scan() {
				break
			}
			if !yield(sc.Text(), nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", fmt.Errorf("reading %s: %w", file.Name(), err))
		}
	}
}
