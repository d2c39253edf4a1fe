package element

import (
	"slices"
	"strings"
)

// ElementType is a declaration or type context an annotation may be applied to, as listed by
// java.lang.annotation.ElementType.
type ElementType string

const (
	TargetType            ElementType = "TYPE"
	TargetField           ElementType = "FIELD"
	TargetMethod          ElementType = "METHOD"
	TargetParameter       ElementType = "PARAMETER"
	TargetConstructor     ElementType = "CONSTRUCTOR"
	TargetLocalVariable   ElementType = "LOCAL_VARIABLE"
	TargetAnnotationType  ElementType = "ANNOTATION_TYPE"
	TargetPackage         ElementType = "PACKAGE"
	TargetTypeParameter   ElementType = "TYPE_PARAMETER"
	TargetTypeUse         ElementType = "TYPE_USE"
	TargetModule          ElementType = "MODULE"
	TargetRecordComponent ElementType = "RECORD_COMPONENT"
)

// IsTypeContext reports whether t names a type context rather than a declaration context.
func (t ElementType) IsTypeContext() bool {
	return t == TargetTypeUse || t == TargetTypeParameter
}

// ParseElementType accepts "TYPE_USE", "ElementType.TYPE_USE" or the fully qualified constant.
func ParseElementType(s string) (ElementType, bool) {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	switch t := ElementType(s); t {
	case TargetType, TargetField, TargetMethod, TargetParameter, TargetConstructor, TargetLocalVariable,
		TargetAnnotationType, TargetPackage, TargetTypeParameter, TargetTypeUse, TargetModule, TargetRecordComponent:
		return t, true
	}
	return "", false
}

// Value is an annotation member value: a literal or constant in source form, or an array.
type Value struct {
	Literal string
	Array   []Value
	IsArray bool
}

// Source renders the value as it would appear in source code.
func (v Value) Source() string {
	if !v.IsArray {
		return v.Literal
	}
	if len(v.Array) == 1 {
		return v.Array[0].Source()
	}
	parts := make([]string, len(v.Array))
	for i, elem := range v.Array {
		parts[i] = elem.Source()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Elements returns the array members, or the value itself when it is a single value.
func (v Value) Elements() []Value {
	if v.IsArray {
		return v.Array
	}
	return []Value{v}
}

// AnnotationValue is one explicitly written member of an annotation use.
type AnnotationValue struct {
	Name  string
	Value Value
}

// AnnotationMirror is a single use of an annotation.
type AnnotationMirror struct {
	Type   *Element
	Values []AnnotationValue
	Pos    Position
}

// QualifiedName returns the qualified name of the annotation type.
func (a AnnotationMirror) QualifiedName() string {
	if a.Type == nil {
		return ""
	}
	return a.Type.QualifiedName()
}

// Value returns the member named name and whether it was written.
func (a AnnotationMirror) Value(name string) (Value, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether two uses name the same annotation type with the same member values.
func (a AnnotationMirror) Equal(b AnnotationMirror) bool {
	if a.QualifiedName() != b.QualifiedName() || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i].Name != b.Values[i].Name || a.Values[i].Value.Source() != b.Values[i].Value.Source() {
			return false
		}
	}
	return true
}

func (a AnnotationMirror) String() string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(a.QualifiedName())
	if len(a.Values) == 0 {
		return b.String()
	}
	b.WriteByte('(')
	for i, v := range a.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if !(len(a.Values) == 1 && v.Name == "value") {
			b.WriteString(v.Name)
			b.WriteString(" = ")
		}
		b.WriteString(v.Value.Source())
	}
	b.WriteByte(')')
	return b.String()
}

// FindAnnotation returns the first use of the annotation type named qualifiedName.
func FindAnnotation(annotations []AnnotationMirror, qualifiedName string) *AnnotationMirror {
	for i := range annotations {
		if annotations[i].QualifiedName() == qualifiedName {
			return &annotations[i]
		}
	}
	return nil
}

// Targets returns the contexts declared by the @java.lang.annotation.Target meta-annotation of an
// annotation type. The second result is false when the annotation type declares no target.
func (e *Element) Targets() ([]ElementType, bool) {
	target := e.Annotation(TargetAnnotationName)
	if target == nil {
		return nil, false
	}
	value, ok := target.Value("value")
	if !ok {
		return nil, true
	}
	var out []ElementType
	for _, v := range value.Elements() {
		if t, ok := ParseElementType(v.Literal); ok && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, true
}

// ApplicableTo reports whether uses of the annotation type may appear in context t. Annotation
// types without @Target are applicable in every declaration context and in no type context.
func (e *Element) ApplicableTo(t ElementType) bool {
	targets, declared := e.Targets()
	if !declared {
		return !t.IsTypeContext()
	}
	if slices.Contains(targets, t) {
		return true
	}
	// TYPE covers annotation type declarations.
	return t == TargetAnnotationType && slices.Contains(targets, TargetType)
}
