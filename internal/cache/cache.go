// Package cache persists processed source units between runs, keyed by
// normalized id and validated by content hash.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xyproto/natbind/internal/model"
)

// Dir and FileName locate the cache inside the output root
const (
	Dir      = ".natbind"
	FileName = "cache.json"
)

// Entry is one cached file. Options fingerprints the settings the unit was
// rewritten with; a unit rewritten under other settings is stale.
type Entry struct {
	SourceHash string            `json:"sourceHash"`
	Options    string            `json:"options,omitempty"`
	SourceFile *model.SourceUnit `json:"sourcefile"`
}

// Cache is the id to entry table. It is read once per run and written at
// most once, and only when something changed.
type Cache struct {
	path    string
	entries map[string]*Entry
	dirty   bool
}

// PathFor returns the cache file location for an output root
func PathFor(outputRoot string) string {
	return filepath.Join(outputRoot, Dir, FileName)
}

// New returns an empty cache that will be written to path
func New(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]*Entry)}
}

// Load reads the cache at path. A missing file gives an empty cache.
func Load(path string) (*Cache, error) {
	c := New(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", path, err)
	}
	for id, e := range c.entries {
		if e == nil || e.SourceFile == nil {
			delete(c.entries, id)
			c.dirty = true
		}
	}
	return c, nil
}

// Path is where Flush writes
func (c *Cache) Path() string {
	return c.path
}

// Len returns the number of entries
func (c *Cache) Len() int {
	return len(c.entries)
}

// IDs returns the cached ids in sorted order
func (c *Cache) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the entry for id, or nil
func (c *Cache) Lookup(id string) *Entry {
	return c.entries[id]
}

// ShouldReuse reports whether entry can stand in for a file whose current
// content hashes to hash, rewritten with the options fingerprint options
func ShouldReuse(entry *Entry, hash, options, outputRoot string) bool {
	if entry == nil || entry.SourceFile == nil || entry.SourceHash != hash || entry.Options != options {
		return false
	}
	return entry.SourceFile.IsCacheable(outputRoot)
}

// Record stores a freshly processed unit
func (c *Cache) Record(id, hash, options string, unit *model.SourceUnit) {
	c.entries[id] = &Entry{SourceHash: hash, Options: options, SourceFile: unit}
	c.dirty = true
}

// Prune drops every entry whose id is not in live and returns the removed ids
func (c *Cache) Prune(live map[string]bool) []string {
	var removed []string
	for _, id := range c.IDs() {
		if !live[id] {
			delete(c.entries, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		c.dirty = true
	}
	return removed
}

// Dirty reports whether the table differs from what is on disk
func (c *Cache) Dirty() bool {
	return c.dirty
}

// Flush writes the table if it changed since it was loaded. The file is
// replaced atomically so a crash never leaves a truncated cache.
func (c *Cache) Flush() error {
	if !c.dirty {
		return nil
	}
	// encoding/json sorts map keys, which keeps the file diffable
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Remove deletes the cache directory under outputRoot
func Remove(outputRoot string) error {
	return os.RemoveAll(filepath.Join(outputRoot, Dir))
}
