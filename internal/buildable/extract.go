package buildable

import (
	"fmt"
	"strings"

	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/typeconv"
)

// Names are the qualified names of the annotations the extractor recognises.
type Names struct {
	Builder      string
	NullMarked   string
	NullUnmarked string
}

// DefaultNames returns the atbuilder and JSpecify annotation names.
func DefaultNames() Names {
	return Names{
		Builder:      "com.osmerion.atbuilder.Builder",
		NullMarked:   "org.jspecify.annotations.NullMarked",
		NullUnmarked: "org.jspecify.annotations.NullUnmarked",
	}
}

// Error reports a declaration a builder cannot be generated for.
type Error struct {
	Code       string
	Message    string
	Element    *element.Element
	Annotation *element.AnnotationMirror
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Element, e.Message)
}

// Diagnostic converts the error into a diagnostic attached to the element and annotation use.
func (e *Error) Diagnostic() diagnostics.Diagnostic {
	d := diagnostics.ForElement(diagnostics.SeverityError, e.Message, e.Element, e.Annotation)
	d.Code = e.Code
	d.Source = "extractor"
	return d
}

// Extractor builds Buildable models.
type Extractor struct {
	names Names
}

// NewExtractor returns an extractor recognising the given annotation names.
func NewExtractor(names Names) *Extractor {
	return &Extractor{names: names}
}

// Extract validates elem and returns its model. marker is the builder annotation use that selected
// the element; it may be nil.
func (x *Extractor) Extract(elem *element.Element, marker *element.AnnotationMirror) (*Buildable, error) {
	if elem.Kind != element.KindRecord {
		return nil, &Error{
			Code:       diagnostics.ErrModelNotRecord,
			Message:    fmt.Sprintf("@%s may only be applied to records", simpleName(x.names.Builder)),
			Element:    elem,
			Annotation: marker,
		}
	}

	ctor := primaryConstructor(elem)
	if ctor == nil {
		return nil, &Error{
			Code:       diagnostics.ErrModelNoPrimaryCtor,
			Message:    "No primary constructor found for record",
			Element:    elem,
			Annotation: marker,
		}
	}

	components := make([]Component, len(elem.RecordComponents))
	for i, rc := range elem.RecordComponents {
		param := ctor.Parameters[i]
		annotations := make([]element.AnnotationMirror, 0, len(param.Annotations)+len(rc.Annotations))
		annotations = append(annotations, param.Annotations...)
		annotations = append(annotations, rc.Annotations...)
		components[i] = Component{
			Name:              rc.Name,
			AnnotationMirrors: annotations,
			Type:              rc.Type,
			Element:           rc,
		}
	}

	return &Buildable{
		Element:        elem,
		Name:           typeconv.ClassName(elem),
		TypeParameters: elem.TypeParameters,
		Components:     components,
		NullMarker:     x.nullMarker(elem),
	}, nil
}

// primaryConstructor returns the constructor whose parameters match the record components in
// number, order and name.
func primaryConstructor(record *element.Element) *element.Element {
	for _, ctor := range record.Constructors() {
		if len(ctor.Parameters) != len(record.RecordComponents) {
			continue
		}
		matches := true
		for i, p := range ctor.Parameters {
			if p.Name != record.RecordComponents[i].Name {
				matches = false
				break
			}
		}
		if matches {
			return ctor
		}
	}
	return nil
}

// nullMarker walks from elem outwards through its enclosing declarations up to and including the
// package. The innermost NullMarked or NullUnmarked annotation wins.
func (x *Extractor) nullMarker(elem *element.Element) NullMarker {
	for cur := elem; cur != nil; cur = cur.Enclosing {
		if cur.Annotation(x.names.NullMarked) != nil {
			return NullMarkerMarked
		}
		if cur.Annotation(x.names.NullUnmarked) != nil {
			return NullMarkerUnmarked
		}
		if cur.Kind == element.KindPackage {
			break
		}
	}
	return NullMarkerNone
}

func simpleName(qualified string) string {
	return qualified[strings.LastIndexByte(qualified, '.')+1:]
}
