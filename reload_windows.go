//go:build windows

package main

// Windows has no SIGUSR1, so there is no signal-based rebuild
func setupReloadSignal(rebuild func(string)) func() {
	return func() {}
}

const reloadHint = "touch a source file to trigger a rebuild"
