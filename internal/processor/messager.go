package processor

import (
	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
)

// Collector is a Messager that gathers diagnostics into a collection.
type Collector struct {
	Diagnostics *diagnostics.Collection
}

// NewCollector returns a collector with an empty collection.
func NewCollector() *Collector {
	return &Collector{Diagnostics: diagnostics.NewCollection()}
}

// PrintMessage records a message attached to elem and, when present, the annotation use.
func (c *Collector) PrintMessage(severity diagnostics.Severity, message string, elem *element.Element, annotation *element.AnnotationMirror) {
	c.Diagnostics.Add(diagnostics.ForElement(severity, message, elem, annotation))
}

// Report records d as is.
func (c *Collector) Report(d diagnostics.Diagnostic) {
	c.Diagnostics.Add(d)
}

var (
	_ Messager = (*Collector)(nil)
	_ Reporter = (*Collector)(nil)
)
