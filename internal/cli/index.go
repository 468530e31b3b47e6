package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
)

func newIndexCmd() *cobra.Command {
	var f corpusFlags
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the keyword index and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := indexer.NewEngine()
			stats, err := engine.MakeIndex(cmd.Context(), source.NewFileCorpus(f.docs, f.noise, f.dir))
			if err != nil {
				return err
			}
			renderIndex(cmd.OutOrStdout(), engine.Snapshot())
			fmt.Fprintf(cmd.OutOrStdout(), "%d documents, %d keywords, %d noise words\n",
				stats.Documents, stats.Keywords, stats.NoiseWords)
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}
