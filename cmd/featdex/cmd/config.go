package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows paths, daemon status and the effective settings (file plus FEATDEX_* overrides). No daemon required.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	sockPath := socket.SocketPath(root)
	out := cmd.OutOrStdout()
	p := newPrinter(out, resolveColor(colorFlag, noColorFlag))

	client := socket.NewClient(sockPath)
	daemonRunning := client.Ping()
	daemonStatus := p.style(p.dim, "✗ not running")
	if daemonRunning {
		daemonStatus = p.style(p.version, "✓ running")
	}

	fmt.Fprintln(out, p.style(p.header, "⚡ featdex config"))
	fmt.Fprintf(out, "  Root:       %s\n", root)
	fmt.Fprintf(out, "  Config:     %s\n", paths.Config)
	fmt.Fprintf(out, "  Data:       %s\n", settings.DataDir)
	fmt.Fprintf(out, "  DB:         %s\n", settings.DBPath)
	fmt.Fprintf(out, "  Socket:     %s\n", sockPath)
	fmt.Fprintf(out, "  Daemon:     %s\n", daemonStatus)

	if daemonRunning {
		if portData, err := os.ReadFile(paths.PortFile); err == nil {
			fmt.Fprintf(out, "  Web:        http://localhost:%s\n", strings.TrimSpace(string(portData)))
		}
	}

	data, err := settings.Marshal()
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	return nil
}
