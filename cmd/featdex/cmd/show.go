package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one feature",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the feature as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	q, err := querier(projectRoot())
	if err != nil {
		return err
	}
	result, err := q.Feature(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showJSON {
		return printJSON(out, result)
	}
	p := newPrinter(out, resolveColor(colorFlag, noColorFlag))
	fmt.Fprint(out, p.formatFeature(result))
	return nil
}
