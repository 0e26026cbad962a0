package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

// Exit codes beyond the generic 1.
const (
	exitInvalidQuery = 2
	exitValidation   = 3
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var verr *corpus.ValidationError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, index.ErrInvalidQuery):
		return exitInvalidQuery
	case errors.As(err, &verr), errors.Is(err, corpus.ErrTooManyFeatures):
		return exitValidation
	default:
		return 1
	}
}

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock checks the daemon state and returns actionable guidance
// when a bbolt open fails due to lock contention. It distinguishes three
// scenarios: daemon running, stale socket, and unknown lock holder.
func diagnoseDBLock(root string) string {
	sockPath := socket.SocketPath(root)
	client := socket.NewClient(sockPath)

	if client.Ping() {
		return "corpus is locked by the running daemon\n" +
			"  → stop it first:  featdex daemon stop\n" +
			"  → or rebuild through it:  featdex build"
	}

	if _, err := os.Stat(sockPath); err == nil {
		return fmt.Sprintf("corpus is locked, the daemon socket exists but is not responding\n"+
			"  → a previous daemon may have crashed\n"+
			"  → find the process:  ps aux | grep 'featdex daemon'\n"+
			"  → kill it:           kill <PID>\n"+
			"  → clean up socket:   rm %s", sockPath)
	}

	return "corpus is locked by another process\n" +
		"  → find the process:  ps aux | grep 'featdex'\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}

// storeError wraps a store open failure, adding lock guidance when the
// database is held by someone else.
func storeError(root string, err error) error {
	if isDBLockError(err) {
		return fmt.Errorf("%w\n%s", err, diagnoseDBLock(root))
	}
	return fmt.Errorf("open store: %w", err)
}
