// Package typeconv converts host type mirrors into output type names, keeping every type-use
// annotation and the identity of type variables.
package typeconv

import (
	"github.com/cockroachdb/errors"

	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/poet"
)

// Pass is one conversion pass. Type variables converted within a pass share a single declaration,
// so repeated and self-referential uses resolve to the same variable.
type Pass struct {
	vars map[*element.Element]*poet.TypeVariable
}

// NewPass starts an empty pass.
func NewPass() *Pass {
	return &Pass{vars: make(map[*element.Element]*poet.TypeVariable)}
}

// Convert converts t in a fresh pass.
func Convert(t element.TypeMirror) poet.TypeName {
	return NewPass().Convert(t)
}

// Convert converts t. Kinds that never appear in a record component or type parameter bound
// (intersection and null types, and no-types other than void) indicate a processor bug and panic.
func (p *Pass) Convert(t element.TypeMirror) poet.TypeName {
	annotations := Annotations(t.Annotations())

	switch t := t.(type) {
	case *element.PrimitiveType:
		return primitive(t.Kind()).Annotated(annotations...)

	case *element.DeclaredType:
		return p.declared(t).Annotated(annotations...)

	case *element.ArrayType:
		return poet.ArrayOf(p.Convert(t.Component)).Annotated(annotations...)

	case *element.TypeVariable:
		return p.Variable(t.Element).Ref(annotations...)

	case *element.WildcardType:
		var w *poet.WildcardTypeName
		switch {
		case t.Extends != nil:
			w = poet.SubtypeOf(p.Convert(t.Extends))
		case t.Super != nil:
			w = poet.SupertypeOf(p.Convert(t.Super))
		default:
			w = poet.Wildcard()
		}
		return w.Annotated(annotations...)

	case *element.NoType:
		if t.Kind() == element.TypeVoid {
			return poet.Void
		}
	}
	panic(errors.AssertionFailedf("unexpected type kind %s for %s", t.Kind(), t))
}

func (p *Pass) declared(t *element.DeclaredType) poet.TypeName {
	args := make([]poet.TypeName, len(t.TypeArguments))
	for i, arg := range t.TypeArguments {
		args[i] = p.Convert(arg)
	}

	if enclosing, ok := t.Enclosing.(*element.DeclaredType); ok && !t.Element.IsStatic() {
		if outer, ok := p.Convert(enclosing).(*poet.ParameterizedTypeName); ok {
			return outer.Nested(t.Element.Name, args...)
		}
	}

	raw := ClassName(t.Element)
	if len(args) == 0 {
		return raw
	}
	return poet.Parameterized(raw, args...)
}

// Variable returns the declaration of the type variable introduced by the type-parameter element
// elem. The declaration is registered before its bounds are converted; bounds that are an
// unannotated java.lang.Object are dropped.
func (p *Pass) Variable(elem *element.Element) *poet.TypeVariable {
	if v, ok := p.vars[elem]; ok {
		return v
	}
	v := &poet.TypeVariable{Name: elem.Name, Annotations: Annotations(elem.Annotations)}
	p.vars[elem] = v
	for _, bound := range elem.Bounds {
		converted := p.Convert(bound)
		if poet.IsObject(converted) {
			continue
		}
		v.Bounds = append(v.Bounds, converted)
	}
	return v
}

// ClassName returns the output name of a type element.
func ClassName(elem *element.Element) *poet.ClassName {
	var pkg string
	if p := elem.Package(); p != nil {
		pkg = p.Name
	}
	names := elem.SimpleNames()
	return poet.ClassNameOf(pkg, names[0], names[1:]...)
}

// Annotation converts a single annotation use.
func Annotation(m element.AnnotationMirror) poet.AnnotationSpec {
	spec := poet.AnnotationSpec{Type: ClassName(m.Type)}
	for _, v := range m.Values {
		spec.Members = append(spec.Members, poet.AnnotationMember{Name: v.Name, Value: v.Value.Source()})
	}
	return spec
}

// Annotations converts annotation uses, keeping their order.
func Annotations(mirrors []element.AnnotationMirror) []poet.AnnotationSpec {
	if len(mirrors) == 0 {
		return nil
	}
	out := make([]poet.AnnotationSpec, len(mirrors))
	for i, m := range mirrors {
		out[i] = Annotation(m)
	}
	return out
}

func primitive(kind element.TypeKind) *poet.PrimitiveName {
	switch kind {
	case element.TypeBoolean:
		return poet.Boolean
	case element.TypeByte:
		return poet.Byte
	case element.TypeShort:
		return poet.Short
	case element.TypeInt:
		return poet.Int
	case element.TypeLong:
		return poet.Long
	case element.TypeChar:
		return poet.Char
	case element.TypeFloat:
		return poet.Float
	case element.TypeDouble:
		return poet.Double
	}
	panic(errors.AssertionFailedf("not a primitive kind: %s", kind))
}
