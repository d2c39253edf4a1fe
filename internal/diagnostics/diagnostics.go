// Package diagnostics carries positioned messages produced while loading declarations, extracting
// builder models and writing generated sources.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
)

// Severity indicates the seriousness of a diagnostic.
type Severity int

const (
	// SeverityInfo indicates an informational message.
	SeverityInfo Severity = iota
	// SeverityWarning indicates a potential issue that doesn't prevent code generation.
	SeverityWarning
	// SeverityError indicates an issue that prevents a builder from being generated.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Location represents a position in a source file.
type Location struct {
	Path   string
	Line   int
	Column int
}

func (l Location) String() string {
	switch {
	case l.Path == "":
		return ""
	case l.Line <= 0:
		return l.Path
	default:
		return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
	}
}

// RelatedInfo points at a second location relevant to a diagnostic, such as the annotation use
// that triggered it.
type RelatedInfo struct {
	Location Location
	Message  string
}

// Diagnostic is a single message about the input.
type Diagnostic struct {
	Severity Severity
	Message  string
	Code     string // Optional error code (e.g., "E101", "W301")

	Location Location
	// Subject names the declaration the message is about, such as "com.example.Foo".
	Subject string

	Context string // Source line showing the problematic area
	Notes   []string
	Related []RelatedInfo

	Source string // Component that produced the diagnostic (e.g., "loader", "processor")
}

// HasLocation returns true if the diagnostic has a valid location.
func (d Diagnostic) HasLocation() bool {
	return d.Location.Path != "" && d.Location.Line > 0
}

// IsError returns true if the diagnostic is an error.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// IsWarning returns true if the diagnostic is a warning.
func (d Diagnostic) IsWarning() bool {
	return d.Severity == SeverityWarning
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var b strings.Builder
	if loc := d.Location.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	return b.String()
}

// String returns a human-readable representation including notes and related locations.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.HasLocation() {
		fmt.Fprintf(&b, "%s: ", d.Location)
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	if d.Code != "" {
		fmt.Fprintf(&b, " [%s]", d.Code)
	}
	if d.Subject != "" {
		fmt.Fprintf(&b, " (%s)", d.Subject)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "\n  note: %s", note)
	}
	for _, rel := range d.Related {
		fmt.Fprintf(&b, "\n  related: %s: %s", rel.Location, rel.Message)
	}
	return b.String()
}

// Builder provides a fluent API for constructing diagnostics.
type Builder struct {
	diag Diagnostic
}

// NewBuilder creates a new diagnostic builder with the given severity and message.
func NewBuilder(severity Severity, message string) *Builder {
	return &Builder{diag: Diagnostic{Severity: severity, Message: message}}
}

// Error creates a builder for an error-level diagnostic.
func Error(message string) *Builder {
	return NewBuilder(SeverityError, message)
}

// Warning creates a builder for a warning-level diagnostic.
func Warning(message string) *Builder {
	return NewBuilder(SeverityWarning, message)
}

// WithCode sets the error code.
func (b *Builder) WithCode(code string) *Builder {
	b.diag.Code = code
	return b
}

// At sets the location.
func (b *Builder) At(path string, line, column int) *Builder {
	b.diag.Location = Location{Path: path, Line: line, Column: column}
	return b
}

// AtLocation sets the location from a Location struct.
func (b *Builder) AtLocation(loc Location) *Builder {
	b.diag.Location = loc
	return b
}

// About sets the subject declaration.
func (b *Builder) About(subject string) *Builder {
	b.diag.Subject = subject
	return b
}

// WithSource sets the producing component.
func (b *Builder) WithSource(source string) *Builder {
	b.diag.Source = source
	return b
}

// WithNote adds a note.
func (b *Builder) WithNote(note string) *Builder {
	b.diag.Notes = append(b.diag.Notes, note)
	return b
}

// WithRelated adds related information.
func (b *Builder) WithRelated(loc Location, message string) *Builder {
	b.diag.Related = append(b.diag.Related, RelatedInfo{Location: loc, Message: message})
	return b
}

// Build returns the constructed diagnostic.
func (b *Builder) Build() Diagnostic {
	return b.diag
}

// Collection holds a set of diagnostics.
type Collection struct {
	diagnostics []Diagnostic
}

// NewCollection creates a new empty diagnostic collection.
func NewCollection() *Collection {
	return &Collection{diagnostics: make([]Diagnostic, 0)}
}

// Add adds a diagnostic to the collection.
func (c *Collection) Add(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

// AddAll adds all diagnostics from another collection.
func (c *Collection) AddAll(other *Collection) {
	c.diagnostics = append(c.diagnostics, other.diagnostics...)
}

// HasErrors returns true if the collection contains any errors.
func (c *Collection) HasErrors() bool {
	for _, d := range c.diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns all error-level diagnostics.
func (c *Collection) Errors() []Diagnostic {
	return c.Filter(Diagnostic.IsError)
}

// Warnings returns all warning-level diagnostics.
func (c *Collection) Warnings() []Diagnostic {
	return c.Filter(Diagnostic.IsWarning)
}

// All returns all diagnostics.
func (c *Collection) All() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Len returns the number of diagnostics.
func (c *Collection) Len() int {
	return len(c.diagnostics)
}

// Filter returns diagnostics matching the given predicate.
func (c *Collection) Filter(predicate func(Diagnostic) bool) []Diagnostic {
	var result []Diagnostic
	for _, d := range c.diagnostics {
		if predicate(d) {
			result = append(result, d)
		}
	}
	return result
}

// SortByLocation sorts diagnostics by file path, line and column, keeping the emission order of
// diagnostics at the same position.
func (c *Collection) SortByLocation() {
	sort.SliceStable(c.diagnostics, func(i, j int) bool {
		return compareLocation(c.diagnostics[i].Location, c.diagnostics[j].Location) < 0
	})
}

func compareLocation(a, b Location) int {
	if a.Path != b.Path {
		if a.Path < b.Path {
			return -1
		}
		return 1
	}
	if a.Line != b.Line {
		return a.Line - b.Line
	}
	return a.Column - b.Column
}

// Summary provides a quick overview of diagnostics.
type Summary struct {
	Total    int
	Errors   int
	Warnings int
	Infos    int
}

// Summary returns a summary of the diagnostics collection.
func (c *Collection) Summary() Summary {
	s := Summary{Total: len(c.diagnostics)}
	for _, d := range c.diagnostics {
		switch d.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Infos++
		}
	}
	return s
}

// Diagnostic codes. E1xx are builder model errors, E2xx output errors, E3xx configuration errors
// and E4xx declaration loading errors.
const (
	ErrModelNotRecord     = "E101"
	ErrModelNoPrimaryCtor = "E102"

	ErrOutputWriteFailed = "E201"
	ErrOutputCache       = "E202"

	ErrConfigInvalid     = "E301"
	ErrConfigInvalidPath = "E302"
	ErrConfigUnknownKey  = "E303"
	ErrConfigNoSources   = "E304"

	ErrLoadRead             = "E401"
	ErrLoadSyntax           = "E402"
	ErrLoadUnresolvedType   = "E403"
	ErrLoadDuplicateType    = "E404"
	ErrLoadInvalidKind      = "E405"
	ErrLoadNotAnnotation    = "E406"
	ErrLoadNotApplicable    = "E407"
	ErrLoadInvalidComponent = "E408"

	WarnConfigUnknownKey = "W301"
	WarnLoadEmpty        = "W401"
	WarnNoBuilders       = "W101"
)

var descriptions = map[string]string{
	ErrModelNotRecord:     "Builder annotation on a non-record declaration",
	ErrModelNoPrimaryCtor: "Record without a canonical constructor",

	ErrOutputWriteFailed: "Failed to write generated file",
	ErrOutputCache:       "Output cache failure",

	ErrConfigInvalid:     "Invalid configuration",
	ErrConfigInvalidPath: "Invalid file path",
	ErrConfigUnknownKey:  "Unknown configuration key",
	ErrConfigNoSources:   "No declaration sources",

	ErrLoadRead:             "Declaration file could not be read",
	ErrLoadSyntax:           "Declaration syntax error",
	ErrLoadUnresolvedType:   "Reference to unknown type",
	ErrLoadDuplicateType:    "Duplicate type declaration",
	ErrLoadInvalidKind:      "Invalid declaration kind",
	ErrLoadNotAnnotation:    "Annotation use names a non-annotation type",
	ErrLoadNotApplicable:    "Annotation not applicable in this position",
	ErrLoadInvalidComponent: "Invalid record component, parameter or type parameter",

	WarnConfigUnknownKey: "Unknown configuration key",
	WarnLoadEmpty:        "Declaration document declares no types",
	WarnNoBuilders:       "No builder-annotated declarations",
}

// CodeDescription returns a human-readable description for a diagnostic code.
func CodeDescription(code string) string {
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return "Unknown error code"
}

// CategorizedSummary groups error diagnostics by the category of their code.
type CategorizedSummary struct {
	ModelErrors   []Diagnostic
	OutputErrors  []Diagnostic
	ConfigErrors  []Diagnostic
	LoadErrors    []Diagnostic
	Warnings      []Diagnostic
	Uncategorized []Diagnostic
}

// Categorize groups errors by code prefix. Warnings are grouped together whatever their code.
func (c *Collection) Categorize() CategorizedSummary {
	var result CategorizedSummary
	for _, d := range c.diagnostics {
		switch {
		case d.IsWarning():
			result.Warnings = append(result.Warnings, d)
		case !d.IsError():
			result.Uncategorized = append(result.Uncategorized, d)
		case strings.HasPrefix(d.Code, "E1"):
			result.ModelErrors = append(result.ModelErrors, d)
		case strings.HasPrefix(d.Code, "E2"):
			result.OutputErrors = append(result.OutputErrors, d)
		case strings.HasPrefix(d.Code, "E3"):
			result.ConfigErrors = append(result.ConfigErrors, d)
		case strings.HasPrefix(d.Code, "E4"):
			result.LoadErrors = append(result.LoadErrors, d)
		default:
			result.Uncategorized = append(result.Uncategorized, d)
		}
	}
	return result
}

// ErrorBreakdown describes the non-empty error categories, such as "2 load, 1 output".
func (cs CategorizedSummary) ErrorBreakdown() string {
	var parts []string
	for _, cat := range []struct {
		name  string
		diags []Diagnostic
	}{
		{"model", cs.ModelErrors},
		{"output", cs.OutputErrors},
		{"config", cs.ConfigErrors},
		{"load", cs.LoadErrors},
	} {
		if len(cat.diags) > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", len(cat.diags), cat.name))
		}
	}
	return strings.Join(parts, ", ")
}
