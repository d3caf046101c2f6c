package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xyproto/natbind/internal/build"
	"github.com/xyproto/natbind/internal/engine"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"window", []string{"window"}},
		{" window , document,,", []string{"window", "document"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.input); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("splitList(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("NATBIND_SRC", "src")
	t.Setenv("NATBIND_DEST", "out")
	t.Setenv("NATBIND_EXT", "mjs")
	t.Setenv("NATBIND_GLOBALS", "window,document")
	t.Setenv("NATBIND_FORCE", "true")
	t.Setenv("NO_COLOR", "1")

	s := settingsFromEnv()
	if s.SourceRoot != "src" || s.OutputRoot != "out" {
		t.Fatalf("Expected roots src and out, got %q and %q", s.SourceRoot, s.OutputRoot)
	}
	if !s.Force {
		t.Errorf("Expected NATBIND_FORCE to enable force")
	}
	if s.UseColor {
		t.Errorf("Expected NO_COLOR to disable color")
	}

	cfg := s.buildConfig()
	if cfg.Extension != ".mjs" {
		t.Errorf("Expected extension .mjs, got %q", cfg.Extension)
	}
	seen := map[string]bool{}
	for _, g := range cfg.Globals {
		seen[g] = true
	}
	for _, name := range []string{"console", "window", "document"} {
		if !seen[name] {
			t.Errorf("Expected %s among the globals", name)
		}
	}
}

func TestRunCLIMissingRoots(t *testing.T) {
	for _, cmd := range []string{"build", "watch", "clean"} {
		err := RunCLI([]string{cmd}, Settings{})
		if !errors.Is(err, engine.ErrConfiguration) {
			t.Errorf("%s: expected a configuration error, got %v", cmd, err)
		}
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	if err := RunCLI([]string{"frobnicate"}, Settings{}); err == nil {
		t.Fatalf("Expected an error for an unknown command")
	}
}

func TestRunCLIBuildAndClean(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	code := "package(\"app\");\nvar b = new Button();\n"
	if err := os.WriteFile(filepath.Join(src, "main.js"), []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	settings := Settings{Extension: build.DefaultExtension, Quiet: true}

	if err := RunCLI([]string{"build", src, dest}, settings); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dest, "main.js"))
	if err != nil {
		t.Fatalf("Expected main.js in the output: %v", err)
	}
	if expected := "var b = __nb_main_0();\n"; string(out) != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}

	if err := RunCLI([]string{"clean", dest}, settings); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "main.js")); !os.IsNotExist(err) {
		t.Errorf("Expected main.js to be removed, got %v", err)
	}
}

func TestRelevantChange(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "out")
	if err := os.MkdirAll(filepath.Join(root, "ui"), 0o755); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path     string
		expected bool
	}{
		{filepath.Join(root, "main.js"), true},
		{filepath.Join(root, "ui", "button.js"), true},
		{filepath.Join(root, "ui"), true},
		{filepath.Join(root, "gone"), true},
		{filepath.Join(root, "notes.txt"), false},
		{filepath.Join(root, ".git", "index.js"), false},
		{filepath.Join(dest, "main.js"), false},
		{filepath.Join(filepath.Dir(root), "other.js"), false},
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		if got := relevantChange(tt.path, root, dest, ".js"); got != tt.expected {
			t.Errorf("relevantChange(%s): expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}
