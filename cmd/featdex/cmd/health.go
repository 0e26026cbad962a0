package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/adapters/bbolt"
	"github.com/corey/featdex/internal/adapters/socket"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon status and the stored corpus",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	client := socket.NewClient(socket.SocketPath(root))
	out := cmd.OutOrStdout()
	p := newPrinter(out, resolveColor(colorFlag, noColorFlag))

	if client.Ping() {
		h, err := client.Health()
		if err != nil {
			return err
		}
		fmt.Fprint(out, p.formatHealth(h))
		return nil
	}

	fmt.Fprintln(out, "⚡ daemon is not running")
	if _, err := os.Stat(settings.DBPath); err != nil {
		fmt.Fprintln(out, "  corpus:  not built (run 'featdex build')")
		return nil
	}
	store, err := bbolt.OpenReadOnly(settings.DBPath)
	if err != nil {
		return storeError(root, err)
	}
	defer store.Close()
	meta, err := store.Meta()
	if err != nil {
		return fmt.Errorf("read corpus meta: %w", err)
	}
	if meta == nil {
		fmt.Fprintln(out, "  corpus:  not built (run 'featdex build')")
		return nil
	}
	fmt.Fprintf(out, "  corpus:  %d features, %d versions (%d bytes)\n", meta.Features, meta.Versions, meta.Bytes)
	fmt.Fprintf(out, "  built:   %s\n", meta.SavedAt.Local().Format(time.DateTime))
	return nil
}
