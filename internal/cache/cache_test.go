package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xyproto/natbind/internal/model"
)

func finishedUnit(t *testing.T, outputRoot, id, content string) *model.SourceUnit {
	t.Helper()
	u := model.New(id+".js", id, model.HashBytes([]byte(content)))
	if err := os.WriteFile(filepath.Join(outputRoot, id+".js"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	u.RecordArtifact(id+".js", model.HashBytes([]byte(content)))
	u.Finish(content)
	return u
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope", FileName))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 0 || c.Dirty() {
		t.Fatalf("Expected an empty clean cache, got %d entries (dirty=%v)", c.Len(), c.Dirty())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected a corrupt cache to fail to load")
	}
}

func TestFlushOnlyWhenDirty(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(dir)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("A clean cache must not be written")
	}

	u := finishedUnit(t, dir, "main", "x();")
	c.Record("main", u.ContentHash, "opts", u)
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected cache file: %v", err)
	}

	// A reload without changes must leave the file alone
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	c2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c2.Flush(); err != nil {
		t.Fatal(err)
	}
	info2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info2.ModTime().Equal(old) {
		t.Errorf("Expected untouched cache file, modified at %v (was %v)", info2.ModTime(), info.ModTime())
	}
	if c2.Len() != 1 || c2.Lookup("main") == nil {
		t.Fatalf("Expected the entry to survive a reload")
	}
}

func TestShouldReuse(t *testing.T) {
	dir := t.TempDir()
	u := finishedUnit(t, dir, "main", "x();")
	entry := &Entry{SourceHash: "h1", Options: "o1", SourceFile: u}

	if !ShouldReuse(entry, "h1", "o1", dir) {
		t.Fatal("Expected a matching hash with intact artifacts to be reused")
	}
	if ShouldReuse(entry, "h2", "o1", dir) {
		t.Error("Expected a hash mismatch to force reprocessing")
	}
	if ShouldReuse(entry, "h1", "o2", dir) {
		t.Error("Expected different rewrite options to force reprocessing")
	}
	if ShouldReuse(nil, "h1", "o1", dir) {
		t.Error("Expected a missing entry not to be reused")
	}
	if err := os.Remove(filepath.Join(dir, "main.js")); err != nil {
		t.Fatal(err)
	}
	if ShouldReuse(entry, "h1", "o1", dir) {
		t.Error("Expected a missing artifact to force reprocessing")
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(PathFor(dir))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		u := finishedUnit(t, dir, id, id)
		c.Record(id, u.ContentHash, "opts", u)
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	removed := c.Prune(map[string]bool{"a": true, "c": true})
	if len(removed) != 1 || removed[0] != "b" {
		t.Fatalf("Expected b to be pruned, got %v", removed)
	}
	if !c.Dirty() {
		t.Error("Expected pruning to mark the cache dirty")
	}
	if c.Lookup("b") != nil {
		t.Error("Expected b to be gone")
	}
}

func TestFlushIsReadable(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(PathFor(dir))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "ui"), 0o755); err != nil {
		t.Fatal(err)
	}
	u := finishedUnit(t, dir, "ui/button", "b();")
	c.Record("ui/button", u.ContentHash, "opts", u)
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	c2, err := Load(PathFor(dir))
	if err != nil {
		t.Fatal(err)
	}
	e := c2.Lookup("ui/button")
	if e == nil || e.SourceHash != u.ContentHash || e.Options != "opts" || e.SourceFile.ID != "ui/button" {
		t.Fatalf("Unexpected entry %+v", e)
	}
	entries, err := os.ReadDir(filepath.Join(dir, Dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the cache file, found %d entries", len(entries))
	}
}
