package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/app"
	"github.com/corey/featdex/internal/config"
	"github.com/corey/featdex/internal/logger"
)

var (
	projectFlag string
	colorFlag   string
	noColorFlag bool

	// settings is the resolved configuration, loaded before every command.
	settings *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "featdex",
	Short: "featdex: feature catalogue search",
	Long:  "Substring search over language features with highlighted results, a daemon and a local web page.",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.NewPaths(projectRoot()).LoadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger.Setup(cfg.Log.Level, cfg.Log.Format)
		settings = cfg
		return nil
	},
}

// projectRoot returns the project root: --project, or cwd by default.
func projectRoot() string {
	if projectFlag != "" {
		abs, err := filepath.Abs(projectFlag)
		if err == nil {
			return abs
		}
		return projectFlag
	}
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "C", "", "project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "colorize output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable color output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}
