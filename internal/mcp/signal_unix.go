//go:build !windows

package mcp

import (
	"os"
	"os/signal"
	"syscall"
)

// notifySignals registers OS signal handlers for graceful shutdown.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}

// stopSignals undoes notifySignals for ch.
func stopSignals(ch chan<- os.Signal) {
	signal.Stop(ch)
}
