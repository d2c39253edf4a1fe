// Package poet is a small model of Java source: type names, annotations, fields, methods and
// classes, and a writer that renders them with import management. It is shaped after JavaPoet.
package poet

import (
	"slices"
	"strings"
	"unicode"
)

// TypeName is a reference to a Java type as it appears in source, including its type-use
// annotations.
type TypeName interface {
	Annotations() []AnnotationSpec
	// Annotated returns a copy carrying the receiver's annotations followed by annotations.
	Annotated(annotations ...AnnotationSpec) TypeName
	// WithoutAnnotations returns a copy with no annotations on the outermost occurrence.
	WithoutAnnotations() TypeName
	IsPrimitive() bool
	// Box returns the wrapper class for primitives, keeping annotations, and the receiver otherwise.
	Box() TypeName
	String() string
	emit(w *codeWriter)
}

type annotations []AnnotationSpec

func (a annotations) Annotations() []AnnotationSpec { return a }

func (a annotations) with(more []AnnotationSpec) annotations {
	return append(slices.Clip(a), more...)
}

func (a annotations) emitInline(w *codeWriter) {
	for _, spec := range a {
		spec.emit(w)
		w.emit(" ")
	}
}

func render(t TypeName) string {
	w := newCodeWriter("", "    ")
	t.emit(w)
	return w.String()
}

// PrimitiveName is a primitive type or void.
type PrimitiveName struct {
	annotations
	Keyword string
}

var (
	Boolean = &PrimitiveName{Keyword: "boolean"}
	Byte    = &PrimitiveName{Keyword: "byte"}
	Short   = &PrimitiveName{Keyword: "short"}
	Int     = &PrimitiveName{Keyword: "int"}
	Long    = &PrimitiveName{Keyword: "long"}
	Char    = &PrimitiveName{Keyword: "char"}
	Float   = &PrimitiveName{Keyword: "float"}
	Double  = &PrimitiveName{Keyword: "double"}
	Void    = &PrimitiveName{Keyword: "void"}
)

var boxes = map[string]string{
	"boolean": "Boolean",
	"byte":    "Byte",
	"short":   "Short",
	"int":     "Integer",
	"long":    "Long",
	"char":    "Character",
	"float":   "Float",
	"double":  "Double",
	"void":    "Void",
}

func (p *PrimitiveName) Annotated(more ...AnnotationSpec) TypeName {
	return &PrimitiveName{annotations: p.with(more), Keyword: p.Keyword}
}

func (p *PrimitiveName) WithoutAnnotations() TypeName { return &PrimitiveName{Keyword: p.Keyword} }
func (p *PrimitiveName) IsPrimitive() bool            { return p.Keyword != "void" }
func (p *PrimitiveName) String() string               { return render(p) }

func (p *PrimitiveName) Box() TypeName {
	c := ClassNameOf("java.lang", boxes[p.Keyword])
	c.annotations = slices.Clone(p.annotations)
	return c
}

func (p *PrimitiveName) emit(w *codeWriter) {
	p.emitInline(w)
	w.emit(p.Keyword)
}

// ClassName is a fully qualified class or interface name. Enclosing is set for nested types.
type ClassName struct {
	annotations
	Package   string
	Enclosing *ClassName
	Simple    string
}

// ClassNameOf returns the class named simple in pkg, descending into nested for member types.
func ClassNameOf(pkg, simple string, nested ...string) *ClassName {
	c := &ClassName{Package: pkg, Simple: simple}
	for _, name := range nested {
		c = c.Nested(name)
	}
	return c
}

// BestGuess splits a canonical name into package and class names using the convention that
// packages are lower case and types start with an upper-case letter.
func BestGuess(canonical string) *ClassName {
	parts := strings.Split(canonical, ".")
	i := 0
	for i < len(parts)-1 && !startsUpper(parts[i]) {
		i++
	}
	return ClassNameOf(strings.Join(parts[:i], "."), parts[i], parts[i+1:]...)
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// Nested returns the member type simple of c.
func (c *ClassName) Nested(simple string) *ClassName {
	return &ClassName{Package: c.Package, Enclosing: c.WithoutAnnotations().(*ClassName), Simple: simple}
}

// TopLevel returns the outermost class enclosing c, or c itself.
func (c *ClassName) TopLevel() *ClassName {
	cur := c
	for cur.Enclosing != nil {
		cur = cur.Enclosing
	}
	return cur
}

// SimpleNames returns the simple names from the top-level class down to c.
func (c *ClassName) SimpleNames() []string {
	var names []string
	for cur := c; cur != nil; cur = cur.Enclosing {
		names = append([]string{cur.Simple}, names...)
	}
	return names
}

// CanonicalName returns the dotted name, for example "java.util.Map.Entry".
func (c *ClassName) CanonicalName() string {
	name := strings.Join(c.SimpleNames(), ".")
	if c.Package == "" {
		return name
	}
	return c.Package + "." + name
}

func (c *ClassName) Annotated(more ...AnnotationSpec) TypeName {
	cp := *c
	cp.annotations = c.with(more)
	return &cp
}

func (c *ClassName) WithoutAnnotations() TypeName {
	cp := *c
	cp.annotations = nil
	return &cp
}

func (c *ClassName) IsPrimitive() bool  { return false }
func (c *ClassName) Box() TypeName      { return c }
func (c *ClassName) String() string     { return render(c) }
func (c *ClassName) emit(w *codeWriter) { w.emitClassName(c) }

// ParameterizedTypeName is a class with type arguments. Enclosing is set when the class is a member
// of a parameterized type, as in Outer<String>.Inner<Integer>.
type ParameterizedTypeName struct {
	annotations
	Enclosing *ParameterizedTypeName
	Raw       *ClassName
	Args      []TypeName
}

// Parameterized returns raw<args...>.
func Parameterized(raw *ClassName, args ...TypeName) *ParameterizedTypeName {
	return &ParameterizedTypeName{Raw: raw, Args: args}
}

// Nested returns the member type simple of p, parameterized by args.
func (p *ParameterizedTypeName) Nested(simple string, args ...TypeName) *ParameterizedTypeName {
	return &ParameterizedTypeName{Enclosing: p, Raw: p.Raw.Nested(simple), Args: args}
}

func (p *ParameterizedTypeName) Annotated(more ...AnnotationSpec) TypeName {
	cp := *p
	cp.annotations = p.with(more)
	return &cp
}

func (p *ParameterizedTypeName) WithoutAnnotations() TypeName {
	cp := *p
	cp.annotations = nil
	return &cp
}

func (p *ParameterizedTypeName) IsPrimitive() bool { return false }
func (p *ParameterizedTypeName) Box() TypeName     { return p }
func (p *ParameterizedTypeName) String() string    { return render(p) }

func (p *ParameterizedTypeName) emit(w *codeWriter) {
	if p.Enclosing != nil {
		p.Enclosing.emit(w)
		w.emit(".")
		p.emitInline(w)
		w.emit(p.Raw.Simple)
	} else {
		raw := p.Raw.WithoutAnnotations().(*ClassName)
		raw.annotations = p.annotations
		raw.emit(w)
	}
	if len(p.Args) == 0 {
		// Member of a parameterized type without arguments of its own.
		return
	}
	w.emit("<")
	for i, arg := range p.Args {
		if i > 0 {
			w.emit(", ")
		}
		arg.emit(w)
	}
	w.emit(">")
}

// ArrayTypeName is Component[]. Its annotations apply to the array type itself.
type ArrayTypeName struct {
	annotations
	Component TypeName
}

// ArrayOf returns component[].
func ArrayOf(component TypeName) *ArrayTypeName {
	return &ArrayTypeName{Component: component}
}

func (a *ArrayTypeName) Annotated(more ...AnnotationSpec) TypeName {
	return &ArrayTypeName{annotations: a.with(more), Component: a.Component}
}

func (a *ArrayTypeName) WithoutAnnotations() TypeName { return ArrayOf(a.Component) }
func (a *ArrayTypeName) IsPrimitive() bool            { return false }
func (a *ArrayTypeName) Box() TypeName                { return a }
func (a *ArrayTypeName) String() string               { return render(a) }

func (a *ArrayTypeName) emit(w *codeWriter) {
	// The leaf component comes first, then one pair of brackets per dimension from the outermost
	// array inwards, each preceded by that dimension's annotations.
	dims := []*ArrayTypeName{a}
	leaf := a.Component
	for {
		inner, ok := leaf.(*ArrayTypeName)
		if !ok {
			break
		}
		dims = append(dims, inner)
		leaf = inner.Component
	}
	leaf.emit(w)
	for _, dim := range dims {
		if len(dim.annotations) > 0 {
			w.emit(" ")
			dim.emitInline(w)
		}
		w.emit("[]")
	}
}

// TypeVariable is the declaration of a type variable: its name, declaration annotations and
// bounds. Every use refers back to the same declaration.
type TypeVariable struct {
	Name        string
	Annotations []AnnotationSpec
	Bounds      []TypeName
}

// Ref returns a use of the variable carrying the given type-use annotations.
func (v *TypeVariable) Ref(annotations ...AnnotationSpec) *TypeVariableName {
	return &TypeVariableName{annotations: annotations, Var: v}
}

func (v *TypeVariable) emitDeclaration(w *codeWriter) {
	for _, spec := range v.Annotations {
		spec.emit(w)
		w.emit(" ")
	}
	w.emit(v.Name)
	for i, bound := range v.Bounds {
		if i == 0 {
			w.emit(" extends ")
		} else {
			w.emit(" & ")
		}
		bound.emit(w)
	}
}

// TypeVariableName is a use of a declared type variable.
type TypeVariableName struct {
	annotations
	Var *TypeVariable
}

func (t *TypeVariableName) Annotated(more ...AnnotationSpec) TypeName {
	return &TypeVariableName{annotations: t.with(more), Var: t.Var}
}

func (t *TypeVariableName) WithoutAnnotations() TypeName { return t.Var.Ref() }
func (t *TypeVariableName) IsPrimitive() bool            { return false }
func (t *TypeVariableName) Box() TypeName                { return t }
func (t *TypeVariableName) String() string               { return render(t) }

func (t *TypeVariableName) emit(w *codeWriter) {
	t.emitInline(w)
	w.emit(t.Var.Name)
}

// WildcardTypeName is "?", "? extends Upper" or "? super Lower".
type WildcardTypeName struct {
	annotations
	Upper TypeName
	Lower TypeName
}

// Wildcard returns the unbounded wildcard.
func Wildcard() *WildcardTypeName { return &WildcardTypeName{} }

// SubtypeOf returns "? extends upper".
func SubtypeOf(upper TypeName) *WildcardTypeName { return &WildcardTypeName{Upper: upper} }

// SupertypeOf returns "? super lower".
func SupertypeOf(lower TypeName) *WildcardTypeName { return &WildcardTypeName{Lower: lower} }

func (t *WildcardTypeName) Annotated(more ...AnnotationSpec) TypeName {
	return &WildcardTypeName{annotations: t.with(more), Upper: t.Upper, Lower: t.Lower}
}

func (t *WildcardTypeName) WithoutAnnotations() TypeName {
	return &WildcardTypeName{Upper: t.Upper, Lower: t.Lower}
}

func (t *WildcardTypeName) IsPrimitive() bool { return false }
func (t *WildcardTypeName) Box() TypeName     { return t }
func (t *WildcardTypeName) String() string    { return render(t) }

func (t *WildcardTypeName) emit(w *codeWriter) {
	t.emitInline(w)
	w.emit("?")
	switch {
	case t.Lower != nil:
		w.emit(" super ")
		t.Lower.emit(w)
	case t.Upper != nil:
		w.emit(" extends ")
		t.Upper.emit(w)
	}
}

// IsObject reports whether t is an unannotated java.lang.Object.
func IsObject(t TypeName) bool {
	c, ok := t.(*ClassName)
	return ok && len(c.annotations) == 0 && c.Enclosing == nil && c.Package == "java.lang" && c.Simple == "Object"
}
