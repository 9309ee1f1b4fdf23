//go:build !windows

// Package lifecycle maps process signals onto application lifecycle events.
package lifecycle

import (
	"os"
	"syscall"
)

func TerminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

// VisibilitySignals returns the signals reporting the application as hidden
// and visible.
func VisibilitySignals() (hidden, visible []os.Signal) {
	return []os.Signal{syscall.SIGUSR1}, []os.Signal{syscall.SIGUSR2}
}
