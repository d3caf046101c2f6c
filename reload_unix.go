//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// setupReloadSignal calls rebuild whenever the process receives SIGUSR1
func setupReloadSignal(rebuild func(string)) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	go func() {
		for range sigChan {
			rebuild("Manual rebuild triggered (SIGUSR1)")
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(sigChan)
	}
}

const reloadHint = "send SIGUSR1 to trigger a manual rebuild"
