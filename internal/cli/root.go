// Package cli implements the lse command line tool.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
)

type corpusFlags struct {
	docs  string
	noise string
	dir   string
}

func (f *corpusFlags) register(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVar(&f.docs, "docs", "", "file listing the documents to index")
	cmd.Flags().StringVar(&f.noise, "noise", "", "file listing the noise words")
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory the document names are relative to")
	if required {
		cmd.MarkFlagRequired("docs")
		cmd.MarkFlagRequired("noise")
	}
}

// NewRootCmd builds the lse command tree. Logs go to stderr so stdout
// carries only results.
func NewRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "lse",
		Short: "Little search engine: keyword index and top-5 search over text files",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newRebuildCmd())
	root.AddCommand(newLoadtestCmd())
	return root
}
