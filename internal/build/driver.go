// Package build drives one compilation run: enumerate sources, reuse or
// reprocess each file, hand the units to the backend and persist the cache.
package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xyproto/natbind/internal/backend"
	"github.com/xyproto/natbind/internal/cache"
	"github.com/xyproto/natbind/internal/engine"
	"github.com/xyproto/natbind/internal/model"
	"github.com/xyproto/natbind/internal/rewrite"
	"github.com/xyproto/natbind/internal/syntax"
)

// DefaultExtension is the source file extension when none is configured
const DefaultExtension = ".js"

// Config holds everything one run needs
type Config struct {
	SourceRoot string
	OutputRoot string
	Extension  string // source extension including the dot
	Platform   string // backend name, see backend.Platforms

	// Backend overrides Platform when set
	Backend backend.Backend

	Globals []string // host runtime names treated as bound
	Force   bool     // ignore the cache and reprocess everything

	Verbose bool
	Quiet   bool
	Log     io.Writer // progress output, os.Stderr when nil
}

// Result summarizes a finished run
type Result struct {
	Units    []*model.SourceUnit
	Compiled int
	Cached   int
	Changed  []string // ids the backend reported as changed
	Pruned   []string // cache entries dropped for deleted sources
	Flushed  bool     // whether the cache file was written
}

type driver struct {
	cfg Config
	log io.Writer
}

func (d *driver) logf(phase Phase, format string, args ...any) {
	if d.cfg.Verbose {
		fmt.Fprintf(d.log, "[%s] %s\n", phase, fmt.Sprintf(format, args...))
	}
}

func (d *driver) warnf(format string, args ...any) {
	if !d.cfg.Quiet {
		fmt.Fprintf(d.log, "Warning: "+format+"\n", args...)
	}
}

// Run performs one full compilation. Errors are *engine.CompilerError.
func Run(cfg Config) (*Result, error) {
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.Platform == "" {
		cfg.Platform = backend.DefaultPlatform
	}
	d := &driver{cfg: cfg, log: cfg.Log}
	if d.log == nil {
		d.log = os.Stderr
	}
	return d.run()
}

func (d *driver) run() (*Result, error) {
	cfg := d.cfg
	if err := checkRoots(cfg.SourceRoot, cfg.OutputRoot); err != nil {
		return nil, err
	}

	d.logf(PhaseEnumerate, "scanning %s for *%s", cfg.SourceRoot, cfg.Extension)
	files, err := Enumerate(cfg.SourceRoot, cfg.OutputRoot, cfg.Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, engine.ConfigurationError("no %s files found in %s", cfg.Extension, cfg.SourceRoot)
	}

	cachePath := cache.PathFor(cfg.OutputRoot)
	d.logf(PhaseLoadCache, "%s", cachePath)
	c, err := cache.Load(cachePath)
	if err != nil {
		d.warnf("%v, starting with an empty cache", err)
		c = cache.New(cachePath)
	}

	result := &Result{}
	live := make(map[string]bool, len(files))
	for _, path := range files {
		unit, err := d.process(c, path)
		if err != nil {
			return nil, err
		}
		live[unit.ID] = true
		result.Units = append(result.Units, unit)
		if unit.Cached {
			result.Cached++
		} else {
			result.Compiled++
		}
	}

	for _, id := range c.IDs() {
		if !live[id] {
			d.removeArtifacts(c.Lookup(id))
		}
	}
	result.Pruned = c.Prune(live)
	if len(result.Pruned) > 0 {
		d.logf(PhasePrune, "dropped %s", strings.Join(result.Pruned, ", "))
	}

	b := cfg.Backend
	if b == nil {
		if b, err = backend.New(cfg.Platform, cfg.OutputRoot); err != nil {
			return nil, engine.ConfigurationError("%v", err)
		}
	}
	for _, unit := range result.Units {
		b.AddSource(unit)
	}
	d.logf(PhaseGenerate, "backend %s, %d units", b.Platform(), len(result.Units))
	changed, err := b.Generate()
	if err != nil {
		return nil, engine.BackendError(b.Platform(), err)
	}
	result.Changed = changed

	if len(changed) > 0 {
		d.logf(PhaseFlush, "%d changed, writing %s", len(changed), cachePath)
		if err := c.Flush(); err != nil {
			return nil, engine.IOError(cachePath, err)
		}
		result.Flushed = true
	}

	d.logf(PhaseComplete, "%d compiled, %d cached", result.Compiled, result.Cached)
	if !cfg.Quiet {
		fmt.Fprintf(d.log, "natbind: %d compiled, %d cached\n", result.Compiled, result.Cached)
	}
	return result, nil
}

// process reuses the cached unit for path or compiles the file afresh
func (d *driver) process(c *cache.Cache, path string) (*model.SourceUnit, error) {
	cfg := d.cfg
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.IOError(path, err)
	}
	hash := model.HashBytes(data)
	id, err := model.NormalizeID(cfg.SourceRoot, path, cfg.Extension)
	if err != nil {
		return nil, engine.IOError(path, err)
	}

	opts := rewrite.Options{Globals: cfg.Globals}
	fingerprint := opts.Fingerprint()
	if entry := c.Lookup(id); !cfg.Force && cache.ShouldReuse(entry, hash, fingerprint, cfg.OutputRoot) {
		d.logf(PhaseProcess, "%s (cached)", id)
		unit := entry.SourceFile
		unit.Cached = true
		return unit, nil
	}

	d.logf(PhaseProcess, "%s", id)
	prog, err := syntax.Parse(path, string(data))
	if err != nil {
		return nil, err
	}
	unit := model.New(path, id, hash)
	out, err := rewrite.File(prog, unit, opts)
	if err != nil {
		return nil, err
	}
	text := syntax.Print(out)
	if text != "" {
		text += "\n"
	}
	unit.Finish(text)

	rel := id + cfg.Extension
	dest := filepath.Join(cfg.OutputRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, engine.IOError(dest, err)
	}
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return nil, engine.IOError(dest, err)
	}
	unit.RecordArtifact(rel, model.HashBytes([]byte(text)))
	c.Record(id, hash, fingerprint, unit)
	return unit, nil
}

func (d *driver) removeArtifacts(entry *cache.Entry) {
	if entry == nil || entry.SourceFile == nil {
		return
	}
	for _, a := range entry.SourceFile.Artifacts {
		path := filepath.Join(d.cfg.OutputRoot, filepath.FromSlash(a.Path))
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.warnf("could not remove %s: %v", path, err)
		}
	}
}

func checkRoots(src, dest string) error {
	if src == "" {
		return engine.ConfigurationError("no source directory given")
	}
	if dest == "" {
		return engine.ConfigurationError("no output directory given")
	}
	info, err := os.Stat(src)
	if err != nil {
		return engine.ConfigurationError("source directory %s: %v", src, err)
	}
	if !info.IsDir() {
		return engine.ConfigurationError("source %s is not a directory", src)
	}
	if same, _ := samePath(src, dest); same {
		return engine.ConfigurationError("output directory must differ from the source directory")
	}
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// Enumerate lists every file below root with the extension ext, in lexical
// order. Hidden directories and the output root are skipped.
func Enumerate(root, outputRoot, ext string) ([]string, error) {
	skip, _ := filepath.Abs(outputRoot)
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return engine.IOError(path, err)
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(path); abs == skip {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Clean removes every artifact the cache knows about, the backend manifest
// and the cache itself. It returns the number of files removed.
func Clean(outputRoot string) (int, error) {
	if outputRoot == "" {
		return 0, engine.ConfigurationError("no output directory given")
	}
	removed := 0
	c, err := cache.Load(cache.PathFor(outputRoot))
	if err == nil {
		for _, id := range c.IDs() {
			entry := c.Lookup(id)
			if entry.SourceFile == nil {
				continue
			}
			for _, a := range entry.SourceFile.Artifacts {
				if os.Remove(filepath.Join(outputRoot, filepath.FromSlash(a.Path))) == nil {
					removed++
				}
			}
		}
	}
	if os.Remove(filepath.Join(outputRoot, backend.ManifestFile)) == nil {
		removed++
	}
	if err := cache.Remove(outputRoot); err != nil {
		return removed, engine.IOError(outputRoot, err)
	}
	return removed, nil
}
