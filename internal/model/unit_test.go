package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xyproto/natbind/internal/consteval"
	"github.com/xyproto/natbind/internal/engine"
)

func TestNormalizeID(t *testing.T) {
	root := filepath.Join("src", "app")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, "main.js"), "main"},
		{filepath.Join(root, "ui", "button.js"), "ui/button"},
		{filepath.Join(root, "lib", "x.min.js"), "lib/x.min"},
	}
	for _, tt := range tests {
		got, err := NormalizeID(root, tt.path, ".js")
		if err != nil {
			t.Fatalf("NormalizeID(%s) failed: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeID(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if _, err := NormalizeID(root, filepath.Join("elsewhere", "a.js"), ".js"); err == nil {
		t.Error("Expected a path outside the root to fail")
	}
}

func TestNextSymbol(t *testing.T) {
	u := New("src/ui/my-button.js", "ui/my-button", "")
	if got := u.NextSymbol(); got != "__nb_ui_my_button_0" {
		t.Errorf("Expected __nb_ui_my_button_0, got %s", got)
	}
	if got := u.NextSymbol(); got != "__nb_ui_my_button_1" {
		t.Errorf("Expected __nb_ui_my_button_1, got %s", got)
	}
}

func TestPackageRules(t *testing.T) {
	u := New("a.js", "a", "")
	if err := u.AddPackage(consteval.Number(1), engine.SourceLocation{Line: 1}); !errors.Is(err, engine.ErrDeclaration) {
		t.Fatalf("Expected a declaration error for a numeric package, got %v", err)
	}
	if err := u.AddPackage(consteval.String("com.example"), engine.SourceLocation{Line: 1}); err != nil {
		t.Fatalf("AddPackage failed: %v", err)
	}
	if err := u.AddPackage(consteval.String("com.other"), engine.SourceLocation{Line: 2}); !errors.Is(err, engine.ErrDeclaration) {
		t.Fatalf("Expected a duplicate package error, got %v", err)
	}
	if u.Declarations.Package != "com.example" {
		t.Errorf("Expected the first package to stick, got %q", u.Declarations.Package)
	}
}

func TestImportsKeepDuplicates(t *testing.T) {
	u := New("a.js", "a", "")
	for _, path := range []string{"x", "y", "x"} {
		if err := u.AddImport(consteval.String(path), engine.SourceLocation{}); err != nil {
			t.Fatalf("AddImport failed: %v", err)
		}
	}
	if len(u.Declarations.Imports) != 3 {
		t.Fatalf("Expected 3 imports, got %v", u.Declarations.Imports)
	}
	if err := u.AddImport(consteval.Bool(true), engine.SourceLocation{}); !errors.Is(err, engine.ErrDeclaration) {
		t.Errorf("Expected a declaration error for a boolean import, got %v", err)
	}
}

func TestFinishFreezes(t *testing.T) {
	u := New("a.js", "a", "")
	if err := u.AddClass(consteval.String("Foo")); err != nil {
		t.Fatalf("AddClass failed: %v", err)
	}
	u.Finish("output")
	if !u.Finished {
		t.Fatal("Expected unit to be finished")
	}
	if err := u.AddStatic(consteval.Null()); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, got %v", err)
	}
	if err := u.AddNative(nil); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, got %v", err)
	}
	if err := u.AddCallSite(CallSite{Symbol: "s"}); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, got %v", err)
	}
}

func TestIsCacheable(t *testing.T) {
	dir := t.TempDir()
	content := []byte("var a = 1;")
	if err := os.WriteFile(filepath.Join(dir, "a.js"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	u := New("a.js", "a", "")
	u.RecordArtifact("a.js", HashBytes(content))
	if u.IsCacheable(dir) {
		t.Fatal("An unfinished unit must not be cacheable")
	}
	u.Finish(string(content))
	if !u.IsCacheable(dir) {
		t.Fatal("Expected unit with intact artifact to be cacheable")
	}

	if err := os.WriteFile(filepath.Join(dir, "a.js"), []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if u.IsCacheable(dir) {
		t.Error("Expected a modified artifact to invalidate the unit")
	}

	if err := os.Remove(filepath.Join(dir, "a.js")); err != nil {
		t.Fatal(err)
	}
	if u.IsCacheable(dir) {
		t.Error("Expected a missing artifact to invalidate the unit")
	}

	if err := os.Mkdir(filepath.Join(dir, "a.js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if u.IsCacheable(dir) {
		t.Error("Expected a directory in place of an artifact to invalidate the unit")
	}
}

func TestRecordArtifactReplaces(t *testing.T) {
	u := New("a.js", "a", "")
	u.RecordArtifact("out/a.js", "1")
	u.RecordArtifact("out/a.js", "2")
	if len(u.Artifacts) != 1 || u.Artifacts[0].Hash != "2" {
		t.Fatalf("Expected a single updated artifact, got %+v", u.Artifacts)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	u := New("src/a.js", "a", "abc")
	obj := consteval.NewObject()
	obj.Set("zeta", consteval.Number(1))
	obj.Set("alpha", consteval.String("x"))
	mustNil(t, u.AddPackage(consteval.String("p"), engine.SourceLocation{}))
	mustNil(t, u.AddNative(obj))
	mustNil(t, u.AddCallSite(CallSite{Symbol: u.NextSymbol(), FunctionName: "f", RawArguments: []string{"1 + 2"}, Location: engine.SourceLocation{File: "src/a.js", Line: 3, Column: 5}}))
	u.RecordArtifact("a.js", "h")
	u.Finish("text")
	u.Cached = true

	data, err := u.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Cached {
		t.Error("Cached must not be persisted")
	}
	if !back.Finished || back.ID != "a" || back.ContentHash != "abc" {
		t.Errorf("Unexpected header %+v", back)
	}
	if keys := back.Declarations.Natives[0].Keys(); keys[0] != "zeta" || keys[1] != "alpha" {
		t.Errorf("Expected native keys in insertion order, got %v", keys)
	}
	call := back.Declarations.CallSites[0]
	if call.Symbol != "__nb_a_0" || call.RawArguments[0] != "1 + 2" || call.Location.Line != 3 {
		t.Errorf("Unexpected call site %+v", call)
	}
	if back.NextSymbol() != "__nb_a_1" {
		t.Error("Expected the symbol counter to survive a round trip")
	}
	if err := back.AddPackage(consteval.String("q"), engine.SourceLocation{}); err == nil {
		t.Error("Expected a restored unit to stay frozen")
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
