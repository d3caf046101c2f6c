//go:build !linux && !darwin

package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls modification times where there is no inotify or kqueue
type FileWatcher struct {
	watchMap    map[string]time.Time
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	onChange    func(string)
	stopChan    chan struct{}
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	return &FileWatcher{
		watchMap:    make(map[string]time.Time),
		debounceMap: make(map[string]*time.Timer),
		onChange:    onChange,
		stopChan:    make(chan struct{}),
	}, nil
}

// AddPath watches a file or a directory. Directories change their
// modification time when entries are added or removed.
func (fw *FileWatcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, exists := fw.watchMap[absPath]; exists {
		return nil
	}
	var modTime time.Time
	if info, err := os.Stat(absPath); err == nil {
		modTime = info.ModTime()
	}
	fw.watchMap[absPath] = modTime
	return nil
}

func (fw *FileWatcher) Watch() {
	ticker := time.NewTicker(debounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fw.checkFiles()
		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) checkFiles() {
	fw.mu.Lock()
	paths := make([]string, 0, len(fw.watchMap))
	for path := range fw.watchMap {
		paths = append(paths, path)
	}
	fw.mu.Unlock()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// Gone; stop polling it and report the removal once
			fw.mu.Lock()
			delete(fw.watchMap, path)
			fw.mu.Unlock()
			fw.debouncedCallback(path)
			continue
		}

		fw.mu.Lock()
		lastMod := fw.watchMap[path]
		fw.watchMap[path] = info.ModTime()
		fw.mu.Unlock()

		if info.ModTime().After(lastMod) {
			fw.debouncedCallback(path)
		}
	}
}

func (fw *FileWatcher) debouncedCallback(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.debounceMap[path]; exists {
		timer.Stop()
	}

	fw.debounceMap[path] = time.AfterFunc(debounceDelay, func() {
		fw.onChange(path)
		fw.mu.Lock()
		delete(fw.debounceMap, path)
		fw.mu.Unlock()
	})
}

func (fw *FileWatcher) Close() error {
	close(fw.stopChan)
	return nil
}
