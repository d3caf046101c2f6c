package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/xyproto/natbind/internal/model"
)

// ManifestFile is written at the output root
const ManifestFile = "natives.json"

// manifestUnit is the per-file section of the manifest
type manifestUnit struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Declarations model.Declarations `json:"declarations"`
}

type manifestDoc struct {
	Platform string         `json:"platform"`
	Units    []manifestUnit `json:"units"`
}

// Manifest is the reference backend. It collects every declaration and
// native reference into one JSON document that a platform binding
// generator can consume.
type Manifest struct {
	outputRoot string
	units      []*model.SourceUnit
}

func NewManifest(outputRoot string) *Manifest {
	return &Manifest{outputRoot: outputRoot}
}

func (m *Manifest) Platform() string { return "manifest" }

func (m *Manifest) AddSource(unit *model.SourceUnit) {
	m.units = append(m.units, unit)
}

// Path is where the manifest is written
func (m *Manifest) Path() string {
	return filepath.Join(m.outputRoot, ManifestFile)
}

// Generate rewrites the manifest when a unit was reprocessed, a unit
// disappeared since the last manifest, or the manifest is missing
func (m *Manifest) Generate() ([]string, error) {
	var changed []string
	ids := make([]string, 0, len(m.units))
	for _, u := range m.units {
		ids = append(ids, u.ID)
		if !u.Cached {
			changed = append(changed, u.ID)
		}
	}

	previous, err := m.previousIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range previous {
		if !slices.Contains(ids, id) {
			changed = append(changed, id)
		}
	}
	if len(changed) == 0 && previous != nil {
		return nil, nil
	}

	doc := manifestDoc{Platform: m.Platform(), Units: make([]manifestUnit, 0, len(m.units))}
	for _, u := range m.units {
		doc.Units = append(doc.Units, manifestUnit{ID: u.ID, Source: u.OriginalPath, Declarations: u.Declarations})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(m.outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(m.Path(), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if changed == nil {
		// Only the manifest itself was missing
		changed = []string{}
	}
	return changed, nil
}

// previousIDs reads the unit ids of an existing manifest. A missing
// manifest gives nil; an unreadable one is reported.
func (m *Manifest) previousIDs() ([]string, error) {
	data, err := os.ReadFile(m.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var doc manifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		// A damaged manifest is regenerated
		return nil, nil
	}
	ids := make([]string, 0, len(doc.Units))
	for _, u := range doc.Units {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
