// Package diag provides the diagnostic taxonomy used across the generation
// pipeline: non-fatal syntax warnings and the fatal structural, resolution and
// configuration errors that abort a run.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic for handling purposes
type Kind int

const (
	// SyntaxWarning is recorded and never escalates
	SyntaxWarning Kind = iota
	// Structural errors come from inconsistent directives across the tree
	Structural
	// Resolution errors come from type references with no declaration
	Resolution
	// Configuration errors are detected before scanning begins
	Configuration
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case SyntaxWarning:
		return "warning"
	case Structural:
		return "structural error"
	case Resolution:
		return "resolution error"
	case Configuration:
		return "configuration error"
	default:
		return "unknown"
	}
}

// Fatal reports whether diagnostics of this kind abort the run.
func (k Kind) Fatal() bool {
	return k != SyntaxWarning
}

// Standard error variables for classification with errors.Is
var (
	// Structural
	ErrMissingTitle        = errors.New("general info is missing @title")
	ErrMissingVersion      = errors.New("general info is missing @version")
	ErrDuplicateOperation  = errors.New("duplicate operation")
	ErrDuplicateServer     = errors.New("duplicate server url")
	ErrPathParamMismatch   = errors.New("path parameter does not match route")
	ErrIncompleteSecurity  = errors.New("incomplete security scheme")
	ErrUnsupportedVersion  = errors.New("unsupported openapi version")
	ErrUnresolvedReference = errors.New("unresolved type reference")

	// Configuration
	ErrExcludeUnmatched   = errors.New("excluded directory matches nothing")
	ErrGeneralInfoMissing = errors.New("general info file not found")
	ErrSearchDirMissing   = errors.New("search directory not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Position is a source location.
type Position struct {
	File string
	Line int
}

// String renders the position as file:line.
func (p Position) String() string {
	if p.File == "" {
		return "-"
	}
	if p.Line <= 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// IsValid reports whether the position names a file.
func (p Position) IsValid() bool {
	return p.File != ""
}

// Diagnostic is a recorded, non-fatal finding.
type Diagnostic struct {
	Kind    Kind
	Pos     Position
	Message string
}

// String renders the diagnostic the way the CLI prints it.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
}

// Error is a fatal, classified diagnostic.
type Error struct {
	Kind      Kind
	Err       error
	Message   string
	Pos       Position
	Related   []Position
	Operation string
	FieldPath string
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Pos.IsValid() {
		sb.WriteString(e.Pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	switch {
	case e.Message != "":
		sb.WriteString(e.Message)
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	}
	if e.Operation != "" {
		sb.WriteString(" (operation ")
		sb.WriteString(e.Operation)
		if e.FieldPath != "" {
			sb.WriteString(", field ")
			sb.WriteString(e.FieldPath)
		}
		sb.WriteString(")")
	}
	for _, rel := range e.Related {
		sb.WriteString("; see ")
		sb.WriteString(rel.String())
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Structuralf builds a structural error classified by sentinel.
func Structuralf(sentinel error, pos Position, format string, args ...any) *Error {
	return &Error{Kind: Structural, Err: sentinel, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Configurationf builds a configuration error classified by sentinel.
func Configurationf(sentinel error, format string, args ...any) *Error {
	return &Error{Kind: Configuration, Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a classified error and whether err carried one.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return SyntaxWarning, false
}

// List is an append-only, order-preserving collection of diagnostics.
// It is not safe for concurrent use; each worker owns its own List and
// results are merged with Extend in a fixed order.
type List struct {
	items []Diagnostic
}

// Warnf records a syntax warning at pos.
func (l *List) Warnf(pos Position, format string, args ...any) {
	l.items = append(l.items, Diagnostic{Kind: SyntaxWarning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Extend appends every diagnostic of other, keeping order.
func (l *List) Extend(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Len returns the number of recorded diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the recorded diagnostics.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}
