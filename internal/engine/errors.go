package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorLevel indicates the severity of an error
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies the type of error
type ErrorCategory int

const (
	CategoryConfiguration ErrorCategory = iota
	CategoryUnresolved
	CategoryNotConstant
	CategoryDeclaration
	CategoryParse
	CategoryBackend
	CategoryIO
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryUnresolved:
		return "unresolved reference"
	case CategoryNotConstant:
		return "not constant"
	case CategoryDeclaration:
		return "declaration"
	case CategoryParse:
		return "parse"
	case CategoryBackend:
		return "backend"
	case CategoryIO:
		return "io"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every CompilerError unwraps to the one matching its category.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrNotConstant         = errors.New("not a compile-time constant")
	ErrDeclaration         = errors.New("invalid declaration")
	ErrParseFailure        = errors.New("parse failure")
	ErrBackend             = errors.New("backend error")
	ErrIO                  = errors.New("i/o error")
	ErrInternal            = errors.New("internal error")
)

func (c ErrorCategory) sentinel() error {
	switch c {
	case CategoryConfiguration:
		return ErrConfiguration
	case CategoryUnresolved:
		return ErrUnresolvedReference
	case CategoryNotConstant:
		return ErrNotConstant
	case CategoryDeclaration:
		return ErrDeclaration
	case CategoryParse:
		return ErrParseFailure
	case CategoryBackend:
		return ErrBackend
	case CategoryIO:
		return ErrIO
	default:
		return ErrInternal
	}
}

// SourceLocation represents a position in source code
type SourceLocation struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Length int    `json:"-"` // Length of the problematic token/expression
}

func (loc SourceLocation) String() string {
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// IsZero reports whether the location carries no position at all
func (loc SourceLocation) IsZero() bool {
	return loc.File == "" && loc.Line == 0 && loc.Column == 0
}

// ErrorContext provides additional context for an error
type ErrorContext struct {
	SourceLine string // The actual line of source code
	Suggestion string // "Did you mean 'x'?"
	HelpText   string // Explanatory help text
}

// CompilerError represents a single compilation error
type CompilerError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Message  string
	Location SourceLocation
	Context  ErrorContext

	// Name is the identifier an unresolved reference failed on
	Name string
	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	if e.Location.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Unwrap exposes both the category sentinel and the underlying cause
func (e *CompilerError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Category.sentinel(), e.Err}
	}
	return []error{e.Category.sentinel()}
}

// Format returns a nicely formatted error message with context
func (e *CompilerError) Format(useColor bool) string {
	var sb strings.Builder

	paint := func(code, s string) {
		if useColor {
			sb.WriteString(code)
		}
		sb.WriteString(s)
		if useColor {
			sb.WriteString("\033[0m")
		}
	}

	paint("\033[1;31m", e.Level.String()+":")
	sb.WriteString(" ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if !e.Location.IsZero() {
		paint("\033[1;34m", "  --> "+e.Location.String())
		sb.WriteString("\n")
	}

	// Source context
	if e.Context.SourceLine != "" {
		lineNum := fmt.Sprintf("%d", e.Location.Line)
		padding := strings.Repeat(" ", len(lineNum)+1)

		sb.WriteString(padding)
		sb.WriteString("|\n")
		sb.WriteString(lineNum)
		sb.WriteString(" | ")
		sb.WriteString(e.Context.SourceLine)
		sb.WriteString("\n")
		sb.WriteString(padding)
		sb.WriteString("| ")

		if e.Location.Column > 0 {
			sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			carets := "^"
			if e.Location.Length > 0 {
				carets = strings.Repeat("^", e.Location.Length)
			}
			paint("\033[1;31m", carets)
			sb.WriteString("\n")
		}
	}

	if e.Context.Suggestion != "" {
		paint("\033[1;32m", "   help: ")
		sb.WriteString(e.Context.Suggestion)
		sb.WriteString("\n")
	}

	if e.Context.HelpText != "" {
		paint("\033[1;36m", "   note: ")
		sb.WriteString(e.Context.HelpText)
		sb.WriteString("\n")
	}

	return sb.String()
}

// ErrorCollector accumulates errors during compilation
type ErrorCollector struct {
	errors     []*CompilerError
	warnings   []*CompilerError
	maxErrors  int
	sourceCode string // Full source code for context
}

// NewErrorCollector creates a new error collector
func NewErrorCollector(maxErrors int) *ErrorCollector {
	if maxErrors <= 0 {
		maxErrors = 10 // Default: stop after 10 errors
	}
	return &ErrorCollector{maxErrors: maxErrors}
}

// SetSourceCode stores the source code for error context
func (ec *ErrorCollector) SetSourceCode(source string) {
	ec.sourceCode = source
}

// AddError adds a compilation error
func (ec *ErrorCollector) AddError(err *CompilerError) {
	if err.Context.SourceLine == "" {
		err.Context.SourceLine = SourceLine(ec.sourceCode, err.Location.Line)
	}

	if err.Level == LevelFatal || err.Level == LevelError {
		ec.errors = append(ec.errors, err)
	} else {
		ec.warnings = append(ec.warnings, err)
	}
}

// HasErrors returns true if any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// ErrorCount returns the number of errors
func (ec *ErrorCollector) ErrorCount() int {
	return len(ec.errors)
}

// WarningCount returns the number of warnings
func (ec *ErrorCollector) WarningCount() int {
	return len(ec.warnings)
}

// ShouldStop returns true if we've hit the error limit
func (ec *ErrorCollector) ShouldStop() bool {
	return len(ec.errors) >= ec.maxErrors
}

// First returns the first collected error, or nil
func (ec *ErrorCollector) First() *CompilerError {
	if len(ec.errors) == 0 {
		return nil
	}
	return ec.errors[0]
}

// Report formats all errors and warnings for display
func (ec *ErrorCollector) Report(useColor bool) string {
	var sb strings.Builder

	for i, err := range ec.errors {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(err.Format(useColor))
	}

	for i, warn := range ec.warnings {
		if i > 0 || len(ec.errors) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(warn.Format(useColor))
	}

	if len(ec.errors) > 0 || len(ec.warnings) > 0 {
		sb.WriteString("\n")
		var parts []string
		if len(ec.errors) > 0 {
			parts = append(parts, fmt.Sprintf("%d error(s)", len(ec.errors)))
		}
		if len(ec.warnings) > 0 {
			parts = append(parts, fmt.Sprintf("%d warning(s)", len(ec.warnings)))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(" found\n")
	}

	return sb.String()
}

// SourceLine extracts a specific 1-based line from source code
func SourceLine(source string, lineNum int) string {
	if source == "" || lineNum <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[lineNum-1], "\r")
}

// Helper functions for creating common errors

// ConfigurationError creates an error for missing or invalid compiler input
func ConfigurationError(format string, args ...any) *CompilerError {
	return &CompilerError{
		Level:    LevelFatal,
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf(format, args...),
	}
}

// UnresolvedReferenceError creates an error for an identifier without a binding
func UnresolvedReferenceError(name string, loc SourceLocation, candidates []string) *CompilerError {
	err := &CompilerError{
		Level:    LevelError,
		Category: CategoryUnresolved,
		Message:  fmt.Sprintf("unresolved reference '%s'", name),
		Location: loc,
		Name:     name,
		Context: ErrorContext{
			HelpText: "Declaration arguments must be known at compile time",
		},
	}
	if len(candidates) > 0 {
		err.Context.Suggestion = fmt.Sprintf("did you mean '%s'?", candidates[0])
	}
	return err
}

// NotConstantError creates an error for a value that only exists at run time
func NotConstantError(what string, loc SourceLocation) *CompilerError {
	return &CompilerError{
		Level:    LevelError,
		Category: CategoryNotConstant,
		Message:  fmt.Sprintf("%s is not a compile-time constant", what),
		Location: loc,
	}
}

// DeclarationError creates an error for a malformed marker declaration
func DeclarationError(message string, loc SourceLocation) *CompilerError {
	return &CompilerError{
		Level:    LevelError,
		Category: CategoryDeclaration,
		Message:  message,
		Location: loc,
	}
}

// SyntaxError creates a parse error
func SyntaxError(message string, loc SourceLocation) *CompilerError {
	return &CompilerError{
		Level:    LevelError,
		Category: CategoryParse,
		Message:  message,
		Location: loc,
	}
}

// BackendError wraps a failure reported by a codegen backend
func BackendError(platform string, err error) *CompilerError {
	return &CompilerError{
		Level:    LevelFatal,
		Category: CategoryBackend,
		Message:  fmt.Sprintf("backend %s failed: %v", platform, err),
		Err:      err,
	}
}

// IOError wraps a filesystem failure for the named file
func IOError(path string, err error) *CompilerError {
	return &CompilerError{
		Level:    LevelFatal,
		Category: CategoryIO,
		Message:  fmt.Sprintf("%s: %v", path, err),
		Err:      err,
	}
}
