package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
)

func newImportCmd() *cobra.Command {
	var (
		f          corpusFlags
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a file corpus into the Postgres document tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			pg, err := postgres.New(cfg.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			ctx := cmd.Context()
			if err := pg.Migrate(ctx, source.Schema); err != nil {
				return err
			}
			corpus := source.NewFileCorpus(f.docs, f.noise, f.dir)
			var imported int
			err = pg.InTx(ctx, func(tx *sql.Tx) error {
				n, err := importCorpus(ctx, tx, corpus)
				imported = n
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents into %s\n", imported, cfg.Postgres.Database)
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&configPath, "config", "configs/development.yaml", "path to config file")
	return cmd
}

// importCorpus writes the noise words and every listed document to ex.
// Document bodies are stored as their tokens joined by single spaces.
func importCorpus(ctx context.Context, ex source.Execer, corpus source.Corpus) (int, error) {
	noise, err := corpus.NoiseWords.NoiseWords(ctx)
	if err != nil {
		return 0, err
	}
	if err := source.InsertNoiseWords(ctx, ex, noise); err != nil {
		return 0, err
	}
	docIDs, err := corpus.Documents.Documents(ctx)
	if err != nil {
		return 0, err
	}
	for i, docID := range docIDs {
		var words []string
		for w, err := range corpus.Tokens.Tokens(ctx, docID) {
			if err != nil {
				return i, err
			}
			words = append(words, w)
		}
		if err := source.InsertDocument(ctx, ex, docID, strings.Join(words, " ")); err != nil {
			return i, err
		}
	}
	return len(docIDs), nil
}
