// Package model holds the per-file record of extracted native declarations
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/natbind/internal/consteval"
	"github.com/xyproto/natbind/internal/engine"
)

// ErrFinished is returned when a declaration is added to a frozen unit
var ErrFinished = errors.New("source unit is finished")

// Instantiation records a rewritten `new Name(...)`
type Instantiation struct {
	Symbol    string                `json:"symbol"`
	ClassName string                `json:"className"`
	Location  engine.SourceLocation `json:"location"`
}

// CallSite records a rewritten `name(args...)`. RawArguments keeps the
// argument source text unevaluated.
type CallSite struct {
	Symbol       string                `json:"symbol"`
	FunctionName string                `json:"functionName"`
	RawArguments []string              `json:"rawArguments"`
	Location     engine.SourceLocation `json:"location"`
}

// Artifact is an output file the unit caused to be written, relative to the output root
type Artifact struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Declarations are the ordered lists a rewrite pass fills in
type Declarations struct {
	Package        string              `json:"package,omitempty"`
	Classes        []consteval.Value   `json:"classes,omitempty"`
	Statics        []consteval.Value   `json:"statics,omitempty"`
	Natives        []*consteval.Object `json:"natives,omitempty"`
	Imports        []string            `json:"imports,omitempty"`
	Instantiations []Instantiation     `json:"instantiations,omitempty"`
	CallSites      []CallSite          `json:"callSites,omitempty"`
}

// SourceUnit is the structured record of one input file
type SourceUnit struct {
	OriginalPath string       `json:"originalPath"`
	ID           string       `json:"id"`
	ContentHash  string       `json:"contentHash"`
	Declarations Declarations `json:"declarations"`
	Artifacts    []Artifact   `json:"artifacts,omitempty"`
	OutputHash   string       `json:"outputHash,omitempty"`
	Finished     bool         `json:"finished"`
	NextSymbolID int          `json:"nextSymbol"`

	// Cached is true when the unit was reused from the cache in this run
	Cached bool `json:"-"`

	hasPackage bool
}

// New creates an empty unit for the file at path with the given normalized id
func New(path, id, contentHash string) *SourceUnit {
	return &SourceUnit{OriginalPath: path, ID: id, ContentHash: contentHash}
}

// HashBytes is the content digest used for source files and artifacts
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeID strips root and the source extension from path and uses '/' separators
func NormalizeID(root, path, ext string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("%s is outside of %s", path, root)
	}
	return strings.TrimSuffix(rel, ext), nil
}

// Namespace is the id turned into an identifier fragment
func (u *SourceUnit) Namespace() string {
	var sb strings.Builder
	for _, r := range u.ID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// NextSymbol returns a fresh generated symbol. Numbering restarts for every
// unit, so identical input always yields identical symbols.
func (u *SourceUnit) NextSymbol() string {
	sym := fmt.Sprintf("__nb_%s_%d", u.Namespace(), u.NextSymbolID)
	u.NextSymbolID++
	return sym
}

func (u *SourceUnit) checkOpen() error {
	if u.Finished {
		return fmt.Errorf("%s: %w", u.ID, ErrFinished)
	}
	return nil
}

// AddPackage records the unit's namespace. A unit has at most one.
func (u *SourceUnit) AddPackage(v consteval.Value, loc engine.SourceLocation) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	name, ok := v.Str()
	if !ok {
		return engine.DeclarationError(fmt.Sprintf("package name must be a string, got %s", v.Kind()), loc)
	}
	if u.hasPackage || u.Declarations.Package != "" {
		return engine.DeclarationError(fmt.Sprintf("duplicate package declaration %q (already %q)", name, u.Declarations.Package), loc)
	}
	u.hasPackage = true
	u.Declarations.Package = name
	return nil
}

func (u *SourceUnit) AddClass(v consteval.Value) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.Declarations.Classes = append(u.Declarations.Classes, v)
	return nil
}

func (u *SourceUnit) AddStatic(v consteval.Value) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.Declarations.Statics = append(u.Declarations.Statics, v)
	return nil
}

func (u *SourceUnit) AddNative(obj *consteval.Object) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	if obj == nil {
		obj = consteval.NewObject()
	}
	u.Declarations.Natives = append(u.Declarations.Natives, obj)
	return nil
}

// AddImport records a dependency path. Repeated paths are kept.
func (u *SourceUnit) AddImport(v consteval.Value, loc engine.SourceLocation) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	path, ok := v.Str()
	if !ok {
		return engine.DeclarationError(fmt.Sprintf("import path must be a string, got %s", v.Kind()), loc)
	}
	u.Declarations.Imports = append(u.Declarations.Imports, path)
	return nil
}

func (u *SourceUnit) AddInstantiation(inst Instantiation) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.Declarations.Instantiations = append(u.Declarations.Instantiations, inst)
	return nil
}

func (u *SourceUnit) AddCallSite(call CallSite) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.Declarations.CallSites = append(u.Declarations.CallSites, call)
	return nil
}

// Finish freezes the declarations once the final output text exists
func (u *SourceUnit) Finish(finalSource string) {
	u.OutputHash = HashBytes([]byte(finalSource))
	u.Finished = true
}

// RecordArtifact notes an output file written on behalf of this unit. A
// second record for the same path replaces the first.
func (u *SourceUnit) RecordArtifact(relPath, hash string) {
	relPath = filepath.ToSlash(relPath)
	for i := range u.Artifacts {
		if u.Artifacts[i].Path == relPath {
			u.Artifacts[i].Hash = hash
			return
		}
	}
	u.Artifacts = append(u.Artifacts, Artifact{Path: relPath, Hash: hash})
}

// IsCacheable reports whether every artifact the unit produced is still
// present under outputRoot with the content it was written with
func (u *SourceUnit) IsCacheable(outputRoot string) bool {
	if !u.Finished {
		return false
	}
	for _, a := range u.Artifacts {
		path := filepath.Join(outputRoot, filepath.FromSlash(a.Path))
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
		data, err := os.ReadFile(path)
		if err != nil || HashBytes(data) != a.Hash {
			return false
		}
	}
	return true
}

// Marshal serializes the unit for the cache table
func (u *SourceUnit) Marshal() (json.RawMessage, error) {
	return json.Marshal(u)
}

// Unmarshal restores a unit serialized with Marshal
func Unmarshal(data []byte) (*SourceUnit, error) {
	var u SourceUnit
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	u.hasPackage = u.Declarations.Package != ""
	return &u, nil
}
