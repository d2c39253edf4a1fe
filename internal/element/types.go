package element

import (
	"strings"
)

// TypeKind identifies the variant of a TypeMirror.
type TypeKind int

const (
	TypeBoolean TypeKind = iota
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeChar
	TypeFloat
	TypeDouble
	TypeVoid
	TypeNone
	TypeNull
	TypeArray
	TypeDeclared
	TypeVariableKind
	TypeWildcard
	TypeIntersection
)

var typeKindNames = [...]string{
	TypeBoolean:      "boolean",
	TypeByte:         "byte",
	TypeShort:        "short",
	TypeInt:          "int",
	TypeLong:         "long",
	TypeChar:         "char",
	TypeFloat:        "float",
	TypeDouble:       "double",
	TypeVoid:         "void",
	TypeNone:         "none",
	TypeNull:         "null",
	TypeArray:        "array",
	TypeDeclared:     "declared",
	TypeVariableKind: "typevar",
	TypeWildcard:     "wildcard",
	TypeIntersection: "intersection",
}

func (k TypeKind) String() string {
	if int(k) >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k is one of the eight primitive kinds.
func (k TypeKind) IsPrimitive() bool { return k >= TypeBoolean && k <= TypeDouble }

// PrimitiveKind maps a primitive keyword to its kind.
func PrimitiveKind(keyword string) (TypeKind, bool) {
	for k := TypeBoolean; k <= TypeDouble; k++ {
		if typeKindNames[k] == keyword {
			return k, true
		}
	}
	return 0, false
}

// TypeMirror is a use of a type. The set of implementations is closed.
type TypeMirror interface {
	Kind() TypeKind
	// Annotations returns the type-use annotations written on this occurrence.
	Annotations() []AnnotationMirror
	String() string
	mirror()
}

type annotated struct {
	annotations []AnnotationMirror
}

func (a annotated) Annotations() []AnnotationMirror { return a.annotations }
func (annotated) mirror()                           {}

func (a annotated) prefix() string {
	if len(a.annotations) == 0 {
		return ""
	}
	parts := make([]string, len(a.annotations))
	for i, m := range a.annotations {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ") + " "
}

// PrimitiveType is one of boolean, byte, short, int, long, char, float or double.
type PrimitiveType struct {
	annotated
	kind TypeKind
}

// NewPrimitive returns a primitive mirror. It panics if kind is not primitive.
func NewPrimitive(kind TypeKind, annotations ...AnnotationMirror) *PrimitiveType {
	if !kind.IsPrimitive() {
		panic("element: not a primitive kind: " + kind.String())
	}
	return &PrimitiveType{annotated: annotated{annotations}, kind: kind}
}

func (t *PrimitiveType) Kind() TypeKind { return t.kind }
func (t *PrimitiveType) String() string { return t.prefix() + t.kind.String() }

// NoType is the pseudo-type void, or the absence of a type (for example the enclosing type of a
// top-level class).
type NoType struct {
	annotated
	kind TypeKind
}

var (
	Void = &NoType{kind: TypeVoid}
	None = &NoType{kind: TypeNone}
)

func (t *NoType) Kind() TypeKind { return t.kind }
func (t *NoType) String() string { return t.kind.String() }

// NullType is the type of the null literal.
type NullType struct{ annotated }

func (*NullType) Kind() TypeKind { return TypeNull }
func (*NullType) String() string { return "null" }

// DeclaredType is a use of a class or interface, possibly parameterized. Enclosing is the type of
// the enclosing instance for inner classes and None otherwise.
type DeclaredType struct {
	annotated
	Element       *Element
	Enclosing     TypeMirror
	TypeArguments []TypeMirror
}

// NewDeclared returns a declared type for elem with no enclosing instance type.
func NewDeclared(elem *Element, args []TypeMirror, annotations ...AnnotationMirror) *DeclaredType {
	return &DeclaredType{annotated: annotated{annotations}, Element: elem, Enclosing: None, TypeArguments: args}
}

func (*DeclaredType) Kind() TypeKind { return TypeDeclared }

func (t *DeclaredType) String() string {
	var b strings.Builder
	if enc, ok := t.Enclosing.(*DeclaredType); ok {
		b.WriteString(enc.String())
		b.WriteByte('.')
		b.WriteString(t.prefix())
		b.WriteString(t.Element.Name)
	} else {
		name := t.Element.QualifiedName()
		if len(t.annotations) > 0 {
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				b.WriteString(name[:i+1])
				name = name[i+1:]
			}
			b.WriteString(t.prefix())
		}
		b.WriteString(name)
	}
	if len(t.TypeArguments) > 0 {
		b.WriteByte('<')
		for i, arg := range t.TypeArguments {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(arg.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// ArrayType is an array of Component.
type ArrayType struct {
	annotated
	Component TypeMirror
}

// NewArray returns an array mirror whose own annotations are annotations.
func NewArray(component TypeMirror, annotations ...AnnotationMirror) *ArrayType {
	return &ArrayType{annotated: annotated{annotations}, Component: component}
}

func (*ArrayType) Kind() TypeKind { return TypeArray }

// String renders the array as written in source: the element type followed by the dimensions,
// outermost first.
func (t *ArrayType) String() string {
	var dims strings.Builder
	var cur TypeMirror = t
	for {
		array, ok := cur.(*ArrayType)
		if !ok {
			break
		}
		if len(array.annotations) > 0 {
			dims.WriteString(" " + array.prefix())
		}
		dims.WriteString("[]")
		cur = array.Component
	}
	return cur.String() + dims.String()
}

// TypeVariable is a use of a type parameter. Element is the declaring type-parameter element; its
// Bounds carry the declared upper bounds.
type TypeVariable struct {
	annotated
	Element *Element
}

// NewTypeVariable returns a use of the type parameter elem.
func NewTypeVariable(elem *Element, annotations ...AnnotationMirror) *TypeVariable {
	return &TypeVariable{annotated: annotated{annotations}, Element: elem}
}

func (*TypeVariable) Kind() TypeKind   { return TypeVariableKind }
func (t *TypeVariable) String() string { return t.prefix() + t.Element.Name }

// WildcardType is "?", "? extends Extends" or "? super Super". At most one bound is set.
type WildcardType struct {
	annotated
	Extends TypeMirror
	Super   TypeMirror
}

// NewWildcard returns a wildcard mirror.
func NewWildcard(extends, super TypeMirror, annotations ...AnnotationMirror) *WildcardType {
	return &WildcardType{annotated: annotated{annotations}, Extends: extends, Super: super}
}

func (*WildcardType) Kind() TypeKind { return TypeWildcard }

func (t *WildcardType) String() string {
	switch {
	case t.Extends != nil:
		return t.prefix() + "? extends " + t.Extends.String()
	case t.Super != nil:
		return t.prefix() + "? super " + t.Super.String()
	default:
		return t.prefix() + "?"
	}
}

// IntersectionType is the type of a multiply bounded type variable's bound.
type IntersectionType struct {
	annotated
	Bounds []TypeMirror
}

func (*IntersectionType) Kind() TypeKind { return TypeIntersection }

func (t *IntersectionType) String() string {
	parts := make([]string, len(t.Bounds))
	for i, b := range t.Bounds {
		parts[i] = b.String()
	}
	return strings.Join(parts, "&")
}

// WithAnnotations returns a shallow copy of t whose own annotations are annotations.
func WithAnnotations(t TypeMirror, annotations []AnnotationMirror) TypeMirror {
	a := annotated{annotations}
	switch t := t.(type) {
	case *PrimitiveType:
		return &PrimitiveType{annotated: a, kind: t.kind}
	case *DeclaredType:
		cp := *t
		cp.annotated = a
		return &cp
	case *ArrayType:
		return &ArrayType{annotated: a, Component: t.Component}
	case *TypeVariable:
		return &TypeVariable{annotated: a, Element: t.Element}
	case *WildcardType:
		return &WildcardType{annotated: a, Extends: t.Extends, Super: t.Super}
	case *IntersectionType:
		return &IntersectionType{annotated: a, Bounds: t.Bounds}
	default:
		return t
	}
}

// ErasedName returns the qualified name of the erasure of t. Type variables erase to their first
// bound and unbounded ones to java.lang.Object, as do type variables whose bounds lead back to
// themselves.
func ErasedName(t TypeMirror) string {
	return erasedName(t, nil)
}

func erasedName(t TypeMirror, visiting map[*Element]bool) string {
	switch t := t.(type) {
	case *DeclaredType:
		return t.Element.QualifiedName()
	case *ArrayType:
		return erasedName(t.Component, visiting) + "[]"
	case *TypeVariable:
		if len(t.Element.Bounds) == 0 || visiting[t.Element] {
			return ObjectName
		}
		if visiting == nil {
			visiting = make(map[*Element]bool)
		}
		visiting[t.Element] = true
		return erasedName(t.Element.Bounds[0], visiting)
	case *WildcardType:
		if t.Extends != nil {
			return erasedName(t.Extends, visiting)
		}
		return ObjectName
	default:
		return t.Kind().String()
	}
}

// IsDeclaredAs reports whether t is a declared type of the type element named qualifiedName,
// ignoring type arguments and annotations.
func IsDeclaredAs(t TypeMirror, qualifiedName string) bool {
	d, ok := t.(*DeclaredType)
	return ok && d.Element.QualifiedName() == qualifiedName
}
