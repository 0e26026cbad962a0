package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/app"
	"github.com/corey/featdex/internal/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the featdex daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the foreground",
	Long: `Serves searches over a Unix socket and a local web page until interrupted
or stopped with 'featdex daemon stop'. Logs go to stderr and .featdex/log/daemon.log.`,
	Args: cobra.NoArgs,
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	sockPath := socket.SocketPath(root)
	out := cmd.OutOrStdout()

	// Check if already running
	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Fprintln(out, "⚡ daemon already running")
		return nil
	}

	paths := app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	logFile, err := os.OpenFile(paths.DaemonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()
	logger.SetupWriter(io.MultiWriter(os.Stderr, logFile), settings.Log.Level, settings.Log.Format)

	// Create fully wired app (store, corpus, engine, socket + web servers)
	a, err := app.New(app.Config{ProjectRoot: root, Settings: settings})
	if err != nil {
		if isDBLockError(err) {
			return storeError(root, err)
		}
		return fmt.Errorf("init: %w", err)
	}

	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}
	if err := os.WriteFile(paths.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "warning: write pid file: %v\n", err)
	}

	fmt.Fprintf(out, "⚡ featdex daemon started at %s\n", sockPath)
	if url := a.WebServer.URL(); a.WebServer.Port() != 0 {
		fmt.Fprintf(out, "  search page: %s\n", url)
	}

	// Wait for a signal or a remote shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
	case <-a.Server.ShutdownCh():
	}

	fmt.Fprintln(out, "\n⚡ shutting down...")
	err = a.Stop()
	paths.CleanEphemeral()
	return err
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	client := socket.NewClient(socket.SocketPath(root))
	out := cmd.OutOrStdout()

	if !client.Ping() {
		fmt.Fprintln(out, "⚡ daemon is not running")
		return nil
	}

	if err := client.Shutdown(); err != nil {
		return err
	}

	fmt.Fprintln(out, "⚡ daemon stopped")
	return nil
}
