package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/xyproto/natbind/internal/build"
)

const debounceDelay = 500 * time.Millisecond

// watchAndRebuild runs the driver once, then again every time a source file
// changes. Rebuilds are queued on a channel with room for one pending
// request, so runs never overlap and bursts collapse into a single rebuild.
func watchAndRebuild(s Settings) error {
	srcRoot, err := filepath.Abs(s.SourceRoot)
	if err != nil {
		return err
	}
	destRoot, err := filepath.Abs(s.OutputRoot)
	if err != nil {
		return err
	}
	cfg := s.buildConfig()

	fmt.Fprintf(os.Stderr, "Watch mode enabled - monitoring %s\n", srcRoot)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop, or %s\n", reloadHint)
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "Command: kill -USR1 %d\n", os.Getpid())
	}

	rebuild := func(trigger string) {
		if !QuietMode {
			fmt.Fprintf(os.Stderr, "\n[%s] %s\n", time.Now().Format("15:04:05"), trigger)
		}
		if _, err := build.Run(cfg); err != nil {
			reportError(err, s.UseColor)
		}
	}

	// Initial build
	rebuild("Initial build")

	triggers := make(chan string, 1)
	request := func(trigger string) {
		select {
		case triggers <- trigger:
		default:
		}
	}

	stopSignal := setupReloadSignal(request)
	defer stopSignal()

	watcher, err := NewFileWatcher(func(path string) {
		if relevantChange(path, srcRoot, destRoot, cfg.Extension) {
			rel, relErr := filepath.Rel(srcRoot, path)
			if relErr != nil {
				rel = filepath.Base(path)
			}
			request(fmt.Sprintf("File changed: %s", filepath.ToSlash(rel)))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %v", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, srcRoot, destRoot, cfg.Extension); err != nil {
		return err
	}
	go watcher.Watch()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	for {
		select {
		case trigger := <-triggers:
			rebuild(trigger)
			// Pick up directories and files created since the last run
			if err := addTree(watcher, srcRoot, destRoot, cfg.Extension); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		case <-interrupt:
			if !QuietMode {
				fmt.Fprintf(os.Stderr, "\nStopping watch mode\n")
			}
			return nil
		}
	}
}

// addTree watches every visible directory below root and every source file
// in them, skipping the output root
func addTree(watcher *FileWatcher, root, outputRoot, ext string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || path == outputRoot) {
				return filepath.SkipDir
			}
			return watcher.AddPath(path)
		}
		if strings.HasSuffix(path, ext) {
			return watcher.AddPath(path)
		}
		return nil
	})
}

// relevantChange reports whether a change at path can affect the build
func relevantChange(path, root, outputRoot, ext string) bool {
	if path == outputRoot || strings.HasPrefix(path, outputRoot+string(filepath.Separator)) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return false
		}
	}
	if strings.HasSuffix(path, ext) {
		return true
	}
	// A removed or renamed directory has no extension but can take sources with it
	_, statErr := os.Stat(path)
	return os.IsNotExist(statErr) || isDir(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
