package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// Schema creates the document registry tables read by Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS noise_words (
	word TEXT PRIMARY KEY
);`

// Postgres reads the corpus from the documents and noise_words tables.
// Documents are indexed in insertion order.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// NewPostgresCorpus returns a Corpus whose three sources are p.
func NewPostgresCorpus(p *Postgres) Corpus {
	return Corpus{Documents: p, Tokens: p, NoiseWords: p}
}

func (p *Postgres) Documents(ctx context.Context) ([]string, error) {
	return p.column(ctx, "documents", `SELECT name FROM documents ORDER BY id`)
}

func (p *Postgres) NoiseWords(ctx context.Context) ([]string, error) {
	return p.column(ctx, "noise_words", `SELECT word FROM noise_words ORDER BY word`)
}

func (p *Postgres) Tokens(ctx context.Context, docID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var body string
		err := p.db.QueryRowContext(ctx,
			`SELECT body FROM documents WHERE name = $1`, docID,
		).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			yield("", apperrors.Unavailable(docID, fmt.Errorf("no such document")))
			return
		}
		if err != nil {
			yield("", readFailure(docID, err))
			return
		}
		for _, w := range strings.Fields(body) {
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertDocument registers a document, replacing the body of an existing
// one. The original insertion position is kept.
func InsertDocument(ctx context.Context, ex Execer, name, body string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO documents (name, body) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body`,
		name, body,
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", name, err)
	}
	return nil
}

// InsertNoiseWords adds words to the noise_words table, ignoring duplicates.
func InsertNoiseWords(ctx context.Context, ex Execer, words []string) error {
	for _, w := range words {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO noise_words (word) VALUES ($1) ON CONFLICT DO NOTHING`,
			w,
		)
		if err != nil {
			return fmt.Errorf("inserting noise word %s: %w", w, err)
		}
	}
	return nil
}

func (p *Postgres) column(ctx context.Context, table, query string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, readFailure(table, err)
	}
	defer rows.Close()
	out := make([]string, 0, 64)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, readFailure(table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readFailure(table, err)
	}
	return out, nil
}
