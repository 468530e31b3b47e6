package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
)

const inputNotFound = "One of the files could not be found."

func newSearchCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Interactively build an index and run two-keyword searches",
		Long: `Prompts for a docs file and a noise-words file, builds the index and
prints it, then prompts for two keywords and prints the top 5 documents.
The same index is reused on every round, so building twice counts every
document twice. An empty answer to any prompt exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearchLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory the document names are relative to")
	return cmd
}

func runSearchLoop(ctx context.Context, in io.Reader, out io.Writer, dir string) error {
	sc := bufio.NewScanner(in)
	prompt := func(msg string) (string, bool) {
		fmt.Fprintln(out, msg)
		if !sc.Scan() {
			return "", false
		}
		line := strings.TrimSpace(sc.Text())
		return line, line != ""
	}

	engine := indexer.NewEngine()
	exec := executor.New(engine, 0)
	for {
		docs, ok := prompt("Enter the name of the 'docs file' or hit enter to exit =>")
		if !ok {
			break
		}
		noise, ok := prompt("Enter the name of the 'noise-words file' or hit enter to exit =>")
		if !ok {
			break
		}
		if _, err := engine.MakeIndex(ctx, source.NewFileCorpus(docs, noise, dir)); err != nil {
			fmt.Fprintln(out, inputNotFound)
			return nil
		}
		renderIndex(out, engine.Snapshot())

		kw1, ok := prompt("Enter 'kw1' or hit enter to exit =>")
		if !ok {
			break
		}
		kw2, ok := prompt("Enter 'kw2' or hit enter to exit =>")
		if !ok {
			break
		}
		res := exec.Top5(ctx, parser.Term(kw1, engine.Keyword), parser.Term(kw2, engine.Keyword))
		if !res.Matched {
			fmt.Fprintln(out, "No documents contain either keyword.")
			continue
		}
		fmt.Fprintln(out, strings.Join(res.Documents, ", "))
	}
	return sc.Err()
}
