package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exploreOffset int
	exploreLimit  int
	exploreJSON   bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore [stable|recent|unstable]",
	Short: "Browse features without a query",
	Long: `Lists one of the fixed views:
  stable    features on the stable channel, newest version first (default)
  recent    features stabilized in the beta and nightly versions
  unstable  features not stabilized yet`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"stable", "recent", "unstable"},
	RunE:      runExplore,
}

func init() {
	exploreCmd.Flags().IntVar(&exploreOffset, "offset", 0, "skip this many features")
	exploreCmd.Flags().IntVarP(&exploreLimit, "limit", "n", 0, "page size (default: search.page_size)")
	exploreCmd.Flags().BoolVar(&exploreJSON, "json", false, "print the page as JSON")
}

func runExplore(cmd *cobra.Command, args []string) error {
	view := ""
	if len(args) == 1 {
		view = args[0]
	}
	q, err := querier(projectRoot())
	if err != nil {
		return err
	}
	result, err := q.Explore(view, exploreOffset, exploreLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exploreJSON {
		return printJSON(out, result)
	}
	p := newPrinter(out, resolveColor(colorFlag, noColorFlag))
	heading := fmt.Sprintf("%s │ %d shown", result.View, len(result.Features))
	fmt.Fprint(out, p.formatFeatureList(heading, result.Features, result.More, result.Offset+len(result.Features)))
	return nil
}
