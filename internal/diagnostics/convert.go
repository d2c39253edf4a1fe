package diagnostics

import (
	"github.com/electwix/atbuilder/internal/element"
)

// LocationOf converts an element position.
func LocationOf(pos element.Position) Location {
	return Location{Path: pos.Path, Line: pos.Line, Column: pos.Column}
}

// ForElement builds a diagnostic attached to a declaration and, when annotation is not nil, to the
// annotation use that caused it. The primary location is the annotation use when it has one.
func ForElement(severity Severity, message string, e *element.Element, annotation *element.AnnotationMirror) Diagnostic {
	b := NewBuilder(severity, message)
	if e != nil {
		b.About(e.String()).AtLocation(LocationOf(e.Pos))
	}
	if annotation != nil && annotation.Pos.IsValid() {
		if e != nil && e.Pos.IsValid() && e.Pos != annotation.Pos {
			b.WithRelated(LocationOf(e.Pos), "declared here")
		}
		b.AtLocation(LocationOf(annotation.Pos))
	}
	return b.Build()
}
