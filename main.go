package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/natbind/internal/engine"
)

// A source-to-source frontend that extracts inline native bindings

const versionString = "natbind 0.3.0"

var VerboseMode bool
var QuietMode bool

func main() {
	settings := settingsFromEnv()

	// NOTE: Go's flag package stops parsing at the first non-flag argument
	// So flags must come BEFORE the subcommand: natbind -v build src out
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	var verbose = flag.Bool("v", settings.Verbose, "verbose mode (show every file and build phase)")
	var verboseLong = flag.Bool("verbose", settings.Verbose, "verbose mode (show every file and build phase)")
	var quiet = flag.Bool("q", settings.Quiet, "quiet mode (only report errors)")
	var force = flag.Bool("f", settings.Force, "ignore the cache and reprocess every file")
	var forceLong = flag.Bool("force", settings.Force, "ignore the cache and reprocess every file")
	var extFlag = flag.String("ext", settings.Extension, "source file extension")
	var platformFlag = flag.String("platform", settings.Platform, "backend platform")
	var globalsFlag = flag.String("globals", "", "comma separated host globals, added to $NATBIND_GLOBALS")
	var noColor = flag.Bool("no-color", !settings.UseColor, "disable colored diagnostics")
	flag.Usage = func() {
		printUsage(os.Stderr)
	}
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	settings.Verbose = *verbose || *verboseLong
	settings.Quiet = *quiet && !settings.Verbose
	settings.Force = *force || *forceLong
	settings.Extension = *extFlag
	settings.Platform = *platformFlag
	settings.Globals = append(settings.Globals, splitList(*globalsFlag)...)
	settings.UseColor = !*noColor

	VerboseMode = settings.Verbose
	QuietMode = settings.Quiet

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "----=[ %s ]=----\n", versionString)
	}

	args := flag.Args()
	if len(args) == 0 {
		if settings.SourceRoot != "" && settings.OutputRoot != "" {
			args = []string{"build"}
		} else {
			args = []string{"help"}
		}
	}

	if err := RunCLI(args, settings); err != nil {
		reportError(err, settings.UseColor)
		os.Exit(1)
	}
}

// reportError prints compiler errors with their source context and
// anything else on a single line
func reportError(err error, useColor bool) {
	var ce *engine.CompilerError
	if errors.As(err, &ce) {
		fmt.Fprint(os.Stderr, ce.Format(useColor))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
