//go:build windows

package mcp

import (
	"os"
	"os/signal"
)

// notifySignals registers shutdown signals. Windows has no SIGTERM, so
// only Ctrl+C (os.Interrupt) is watched.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

// stopSignals undoes notifySignals for ch.
func stopSignals(ch chan<- os.Signal) {
	signal.Stop(ch)
}
