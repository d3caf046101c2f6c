package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xyproto/natbind/internal/backend"
	"github.com/xyproto/natbind/internal/build"
	"github.com/xyproto/natbind/internal/engine"
)

// cli.go - subcommands for natbind
//
// - natbind build <src> <dest> (compile once)
// - natbind watch <src> <dest> (compile, then recompile on change)
// - natbind clean <dest>       (remove outputs and the cache)
//
// Missing directories fall back to $NATBIND_SRC and $NATBIND_DEST.

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Args     []string
	Settings Settings
}

// RunCLI determines which command to run based on arguments
func RunCLI(args []string, settings Settings) error {
	ctx := &CommandContext{
		Args:     args,
		Settings: settings,
	}

	if len(args) == 0 {
		return cmdHelp(ctx, os.Stdout)
	}

	switch subcmd := args[0]; subcmd {
	case "build":
		return cmdBuild(ctx, args[1:])

	case "watch":
		return cmdWatch(ctx, args[1:])

	case "clean":
		return cmdClean(ctx, args[1:])

	case "help", "--help", "-h":
		return cmdHelp(ctx, os.Stdout)

	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil

	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'natbind help' for usage information", subcmd)
	}
}

// resolveRoots fills in the source and output directories from the
// positional arguments, keeping the environment values for the rest
func (ctx *CommandContext) resolveRoots(args []string) (Settings, error) {
	s := ctx.Settings
	if len(args) > 2 {
		return s, fmt.Errorf("too many arguments: %s", strings.Join(args[2:], " "))
	}
	if len(args) > 0 {
		s.SourceRoot = args[0]
	}
	if len(args) > 1 {
		s.OutputRoot = args[1]
	}
	if s.SourceRoot == "" {
		return s, engine.ConfigurationError("no source directory given (argument or $NATBIND_SRC)")
	}
	if s.OutputRoot == "" {
		return s, engine.ConfigurationError("no output directory given (argument or $NATBIND_DEST)")
	}
	return s, nil
}

func cmdBuild(ctx *CommandContext, args []string) error {
	s, err := ctx.resolveRoots(args)
	if err != nil {
		return err
	}
	_, err = build.Run(s.buildConfig())
	return err
}

func cmdWatch(ctx *CommandContext, args []string) error {
	s, err := ctx.resolveRoots(args)
	if err != nil {
		return err
	}
	return watchAndRebuild(s)
}

func cmdClean(ctx *CommandContext, args []string) error {
	dest := ctx.Settings.OutputRoot
	switch len(args) {
	case 0:
	case 1:
		dest = args[0]
	default:
		return fmt.Errorf("usage: natbind clean <dest>")
	}
	if dest == "" {
		return engine.ConfigurationError("no output directory given (argument or $NATBIND_DEST)")
	}
	removed, err := build.Clean(dest)
	if err != nil {
		return err
	}
	if !ctx.Settings.Quiet {
		fmt.Fprintf(os.Stderr, "natbind: removed %d files from %s\n", removed, dest)
	}
	return nil
}

// cmdHelp displays usage information
func cmdHelp(ctx *CommandContext, w io.Writer) error {
	printUsage(w)
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s - extract inline native bindings from script sources

USAGE:
    natbind [flags] <command> [arguments]

COMMANDS:
    build <src> <dest>    Rewrite every source file once
    watch <src> <dest>    Rewrite, then rewrite again whenever a source changes
    clean <dest>          Remove generated files and the cache
    help                  Show this help message
    version               Show version information

FLAGS (must come before the command):
    -v, -verbose          Show every file and build phase
    -q                    Only report errors
    -f, -force            Ignore the cache and reprocess every file
    -ext <ext>            Source file extension (default: %s)
    -platform <name>      Backend platform: %s (default: %s)
    -globals <a,b,c>      Extra host globals that are never native references
    -no-color             Disable colored diagnostics
    -V, -version          Show version information

ENVIRONMENT:
    NATBIND_SRC, NATBIND_DEST, NATBIND_EXT, NATBIND_PLATFORM,
    NATBIND_GLOBALS, NATBIND_VERBOSE, NATBIND_QUIET, NATBIND_FORCE, NO_COLOR

EXAMPLES:
    natbind build src out
    natbind -v watch src out
    NATBIND_SRC=src NATBIND_DEST=out natbind
`, versionString, build.DefaultExtension, strings.Join(backend.Platforms(), ", "), backend.DefaultPlatform)
}
