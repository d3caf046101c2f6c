package main

import (
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/natbind/internal/backend"
	"github.com/xyproto/natbind/internal/build"
)

// hostGlobals are runtime-provided names that must never be mistaken for
// native references
var hostGlobals = []string{
	"Array", "Boolean", "Date", "Error", "JSON", "Math", "Number", "Object",
	"Promise", "RegExp", "String", "clearInterval", "clearTimeout", "console",
	"isFinite", "isNaN", "parseFloat", "parseInt", "require", "setInterval",
	"setTimeout",
}

// Settings is the configuration of one invocation. Environment variables
// provide the defaults and command-line flags override them.
type Settings struct {
	SourceRoot string
	OutputRoot string
	Extension  string
	Platform   string
	Globals    []string
	Verbose    bool
	Quiet      bool
	Force      bool
	UseColor   bool
}

func settingsFromEnv() Settings {
	return Settings{
		SourceRoot: env.Str("NATBIND_SRC"),
		OutputRoot: env.Str("NATBIND_DEST"),
		Extension:  env.Str("NATBIND_EXT", build.DefaultExtension),
		Platform:   env.Str("NATBIND_PLATFORM", backend.DefaultPlatform),
		Globals:    splitList(env.Str("NATBIND_GLOBALS")),
		Verbose:    env.Bool("NATBIND_VERBOSE"),
		Quiet:      env.Bool("NATBIND_QUIET"),
		Force:      env.Bool("NATBIND_FORCE"),
		UseColor:   !env.Has("NO_COLOR"),
	}
}

// splitList splits a comma separated list, dropping empty items
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// buildConfig turns the settings into a driver configuration
func (s Settings) buildConfig() build.Config {
	ext := s.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	globals := append(append([]string{}, hostGlobals...), s.Globals...)
	return build.Config{
		SourceRoot: s.SourceRoot,
		OutputRoot: s.OutputRoot,
		Extension:  ext,
		Platform:   s.Platform,
		Globals:    globals,
		Force:      s.Force,
		Verbose:    s.Verbose,
		Quiet:      s.Quiet,
	}
}
