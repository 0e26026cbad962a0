package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version <number>",
	Short: "List the features stabilized in a version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print the version as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	q, err := querier(projectRoot())
	if err != nil {
		return err
	}
	result, err := q.Version(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if versionJSON {
		return printJSON(out, result)
	}
	p := newPrinter(out, resolveColor(colorFlag, noColorFlag))
	fmt.Fprint(out, p.formatVersion(result))
	return nil
}
