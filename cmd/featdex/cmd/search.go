package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/domain/index"
)

var (
	searchOffset int
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <terms...>",
	Short: "Search feature titles, flags and items",
	Long: `Every term must occur in a feature's title, flag or one of its items
(case-insensitive substring match). Results are ranked and highlighted.

Exit status is 2 when the terms can never match (for example non-ASCII
letters), which is distinct from a search that simply finds nothing.`,
	Example: `  featdex search async await
  featdex search 'impl trait' --limit 5
  featdex search todo --json`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "skip this many results")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "page size (default: search.page_size)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw result as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchOffset < 0 {
		return fmt.Errorf("invalid offset %d", searchOffset)
	}
	q, err := querier(projectRoot())
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	result, err := q.Search(query, searchOffset, searchLimit)
	if err != nil && !errors.Is(err, index.ErrInvalidQuery) {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if perr := printJSON(out, result); perr != nil {
			return perr
		}
	} else {
		p := newPrinter(out, resolveColor(colorFlag, noColorFlag))
		fmt.Fprint(out, p.formatSearchResult(result))
	}
	// invalid terms still exit non-zero
	return err
}
