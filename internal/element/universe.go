package element

import (
	"sort"
	"strings"
)

// Well-known qualified names.
const (
	ObjectName           = "java.lang.Object"
	TargetAnnotationName = "java.lang.annotation.Target"
)

// Universe indexes every package and type element known to a round by qualified name.
type Universe struct {
	packages map[string]*Element
	types    map[string]*Element
}

// NewUniverse returns a universe preloaded with the well-known JDK, JSpecify, Omittable and
// atbuilder declarations.
func NewUniverse() *Universe {
	u := &Universe{
		packages: make(map[string]*Element),
		types:    make(map[string]*Element),
	}
	declareBuiltins(u)
	return u
}

// Package returns the package element named name, creating it on first use.
func (u *Universe) Package(name string) *Element {
	if pkg, ok := u.packages[name]; ok {
		return pkg
	}
	pkg := &Element{Kind: KindPackage, Name: name}
	u.packages[name] = pkg
	return pkg
}

// HasPackage reports whether a package named name has been declared.
func (u *Universe) HasPackage(name string) bool {
	_, ok := u.packages[name]
	return ok
}

// Lookup returns the type element with the given canonical name.
func (u *Universe) Lookup(qualifiedName string) *Element {
	return u.types[qualifiedName]
}

// Object returns java.lang.Object.
func (u *Universe) Object() *Element { return u.types[ObjectName] }

// Declare registers a type element already attached to its enclosing element. It returns false
// when the canonical name is taken.
func (u *Universe) Declare(e *Element) bool {
	name := e.QualifiedName()
	if _, exists := u.types[name]; exists {
		return false
	}
	u.types[name] = e
	for _, nested := range e.Enclosed {
		if nested.Kind.IsType() {
			u.Declare(nested)
		}
	}
	return true
}

// Types returns the qualified names of all known types in sorted order.
func (u *Universe) Types() []string {
	names := make([]string, 0, len(u.types))
	for name := range u.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// External declares a type the round only knows by name, such as a library class referenced from
// a declaration document. pkg is the package and simpleNames the chain of type names; nested
// external types are treated as static members.
func (u *Universe) External(pkg string, simpleNames []string, kind Kind) *Element {
	qualified := strings.Join(simpleNames, ".")
	if pkg != "" {
		qualified = pkg + "." + qualified
	}
	if e := u.types[qualified]; e != nil {
		return e
	}
	var parent *Element
	if len(simpleNames) > 1 {
		parent = u.External(pkg, simpleNames[:len(simpleNames)-1], KindClass)
	} else {
		parent = u.Package(pkg)
	}
	e := &Element{Kind: kind, Name: simpleNames[len(simpleNames)-1], Modifiers: []Modifier{ModifierPublic}}
	if len(simpleNames) > 1 {
		e.Modifiers = append(e.Modifiers, ModifierStatic)
	}
	parent.AddEnclosed(e)
	e.Type = NewDeclared(e, nil)
	u.types[qualified] = e
	return e
}

// ElementsOf returns the type elements declared directly in the named package, in declaration
// order.
func (u *Universe) ElementsOf(pkg string) []*Element {
	p, ok := u.packages[pkg]
	if !ok {
		return nil
	}
	var out []*Element
	for _, e := range p.Enclosed {
		if e.Kind.IsType() {
			out = append(out, e)
		}
	}
	return out
}
