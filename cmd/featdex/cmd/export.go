package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/app"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write features.json and a static index.html",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default: .featdex/export)")
}

func runExport(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	dir := exportOut
	if dir == "" {
		dir = app.NewPaths(root).ExportDir
	}

	c, err := localCorpus(root)
	if err != nil {
		return err
	}
	res, err := app.Export(c, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "⚡ exported %d features\n", res.Features)
	fmt.Fprintf(out, "  %s\n  %s\n", res.JSONPath, res.HTMLPath)
	return nil
}
