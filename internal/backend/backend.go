// Package backend defines the contract between the compilation driver and
// the per-platform generators that consume source units.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xyproto/natbind/internal/model"
)

// Backend is the interface every platform generator must implement
type Backend interface {
	// Platform names the target, as given to New
	Platform() string

	// AddSource hands over one unit. Units arrive in lexical id order.
	AddSource(unit *model.SourceUnit)

	// Generate produces the platform output for every unit added so far and
	// reports the ids whose output changed. An empty result means the
	// previous output is still current.
	Generate() (changed []string, err error)
}

type factory func(outputRoot string) Backend

var registry = map[string]factory{
	"manifest": func(outputRoot string) Backend { return NewManifest(outputRoot) },
}

// DefaultPlatform is used when no platform is configured
const DefaultPlatform = "manifest"

// New creates the backend for platform writing below outputRoot
func New(platform, outputRoot string) (Backend, error) {
	f, ok := registry[strings.ToLower(platform)]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s (supported: %s)", platform, strings.Join(Platforms(), ", "))
	}
	return f(outputRoot), nil
}

// Platforms lists the registered platform names
func Platforms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
