package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/adapters/bbolt"
	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/adapters/tomldata"
	"github.com/corey/featdex/internal/app"
)

var buildClean bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the corpus from the data directory",
	Long: `Reads the data directory, validates every feature and stores the corpus.
When a daemon serves this project it rebuilds and swaps in the new corpus instead.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "drop the stored corpus before building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	out := cmd.OutOrStdout()

	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() && !buildClean {
		res, err := client.Reload()
		if err != nil {
			return fmt.Errorf("daemon reload: %w", err)
		}
		fmt.Fprintf(out, "⚡ daemon rebuilt corpus: %d features, %d versions │ %dms\n",
			res.FeatureCount, res.VersionCount, res.ElapsedMs)
		return nil
	}

	paths := app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	store, err := bbolt.NewStore(settings.DBPath)
	if err != nil {
		return storeError(root, err)
	}
	defer store.Close()

	if buildClean {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}

	_, res, err := app.Build(store, tomldata.New(), settings.DataDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "⚡ built corpus: %d features, %d versions │ %s\n",
		res.FeatureCount, res.VersionCount, res.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(out, "  %s → %s\n", settings.DataDir, settings.DBPath)
	return nil
}
