// Package element models the declarations and type mirrors a host compiler hands to the builder
// processor. The model is deliberately close to what an annotation-processing round observes:
// elements form a tree rooted at packages, and every use of a type is a mirror carrying its own
// type-use annotations.
package element

import (
	"fmt"
	"strings"
)

// Kind identifies the declaration an Element represents.
type Kind int

const (
	KindPackage Kind = iota
	KindClass
	KindInterface
	KindEnum
	KindRecord
	KindAnnotationType
	KindConstructor
	KindMethod
	KindParameter
	KindRecordComponent
	KindTypeParameter
	KindField
)

var kindNames = [...]string{
	KindPackage:         "package",
	KindClass:           "class",
	KindInterface:       "interface",
	KindEnum:            "enum",
	KindRecord:          "record",
	KindAnnotationType:  "annotation type",
	KindConstructor:     "constructor",
	KindMethod:          "method",
	KindParameter:       "parameter",
	KindRecordComponent: "record component",
	KindTypeParameter:   "type parameter",
	KindField:           "field",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsType reports whether the kind declares a class-like type.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindRecord, KindAnnotationType:
		return true
	default:
		return false
	}
}

// Modifier is a declaration modifier. Only the modifiers the processor inspects are modelled.
type Modifier int

const (
	ModifierPublic Modifier = iota
	ModifierStatic
	ModifierFinal
	ModifierAbstract
)

// Position locates an element or annotation use in its source document.
type Position struct {
	Path   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a source path.
func (p Position) IsValid() bool { return p.Path != "" }

func (p Position) String() string {
	switch {
	case p.Path == "":
		return "<unknown>"
	case p.Line <= 0:
		return p.Path
	case p.Column <= 0:
		return fmt.Sprintf("%s:%d", p.Path, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Column)
	}
}

// Element is a declaration: a package, a type, a constructor, a parameter and so on.
//
// Name is the simple name, except for packages where it is the qualified package name.
// Type is the element's type: the declared type for type elements, the variable type for
// parameters and record components, and the type variable for type parameters.
type Element struct {
	Kind        Kind
	Name        string
	Enclosing   *Element
	Enclosed    []*Element
	Modifiers   []Modifier
	Annotations []AnnotationMirror

	TypeParameters   []*Element
	RecordComponents []*Element
	Parameters       []*Element
	Bounds           []TypeMirror

	Type TypeMirror
	Pos  Position
}

// HasModifier reports whether m is present on the element.
func (e *Element) HasModifier(m Modifier) bool {
	for _, have := range e.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// IsStatic reports whether the element is static. Nested interfaces, enums, records and annotation
// types are implicitly static, as are member types of interfaces.
func (e *Element) IsStatic() bool {
	if e.HasModifier(ModifierStatic) {
		return true
	}
	switch e.Kind {
	case KindInterface, KindEnum, KindRecord, KindAnnotationType:
		return true
	}
	if e.Enclosing != nil && (e.Enclosing.Kind == KindInterface || e.Enclosing.Kind == KindAnnotationType) {
		return true
	}
	return false
}

// IsInner reports whether the element is a non-static member type, whose instances capture an
// instance of the enclosing type.
func (e *Element) IsInner() bool {
	return e.Kind.IsType() && e.Enclosing != nil && e.Enclosing.Kind.IsType() && !e.IsStatic()
}

// Package returns the package enclosing the element, or nil if the element is detached.
func (e *Element) Package() *Element {
	for cur := e; cur != nil; cur = cur.Enclosing {
		if cur.Kind == KindPackage {
			return cur
		}
	}
	return nil
}

// QualifiedName returns the canonical name of a type element (for example "com.example.Foo.Bar")
// or the name of a package. Other elements return their simple name.
func (e *Element) QualifiedName() string {
	if e.Kind == KindPackage {
		return e.Name
	}
	if !e.Kind.IsType() {
		return e.Name
	}
	names := []string{e.Name}
	var pkg string
	for cur := e.Enclosing; cur != nil; cur = cur.Enclosing {
		if cur.Kind == KindPackage {
			pkg = cur.Name
			break
		}
		if cur.Kind.IsType() {
			names = append(names, cur.Name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	if pkg == "" {
		return strings.Join(names, ".")
	}
	return pkg + "." + strings.Join(names, ".")
}

// SimpleNames returns the chain of simple type names from the top-level type down to e.
func (e *Element) SimpleNames() []string {
	var names []string
	for cur := e; cur != nil && cur.Kind.IsType(); cur = cur.Enclosing {
		names = append([]string{cur.Name}, names...)
	}
	return names
}

// Member returns the enclosed type element named name.
func (e *Element) Member(name string) *Element {
	for _, child := range e.Enclosed {
		if child.Kind.IsType() && child.Name == name {
			return child
		}
	}
	return nil
}

// Constructors returns the enclosed constructors in declaration order.
func (e *Element) Constructors() []*Element {
	var out []*Element
	for _, child := range e.Enclosed {
		if child.Kind == KindConstructor {
			out = append(out, child)
		}
	}
	return out
}

// Annotation returns the first annotation use whose type has the given qualified name.
func (e *Element) Annotation(qualifiedName string) *AnnotationMirror {
	return FindAnnotation(e.Annotations, qualifiedName)
}

// AddEnclosed attaches child to e.
func (e *Element) AddEnclosed(child *Element) {
	child.Enclosing = e
	e.Enclosed = append(e.Enclosed, child)
}

func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind.IsType() || e.Kind == KindPackage {
		return e.QualifiedName()
	}
	return e.Name
}

// Walk visits e and every enclosed element depth first in declaration order. Returning false from
// fn skips the element's children.
func Walk(e *Element, fn func(*Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range e.Enclosed {
		Walk(child, fn)
	}
}
