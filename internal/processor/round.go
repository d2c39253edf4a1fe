package processor

import (
	"github.com/electwix/atbuilder/internal/element"
)

// Round is the set of root declarations handed to one processing round.
type Round struct {
	roots []*element.Element
}

// NewRound returns a round over roots. Roots are packages or type elements.
func NewRound(roots ...*element.Element) *Round {
	return &Round{roots: roots}
}

// RootElements returns the round's roots in the order they were given.
func (r *Round) RootElements() []*element.Element {
	return r.roots
}

// ElementsAnnotatedWith returns the type declarations, including nested ones, that directly carry
// the annotation named qualifiedName. Elements are listed in declaration order and each at most
// once.
func (r *Round) ElementsAnnotatedWith(qualifiedName string) []*element.Element {
	var out []*element.Element
	seen := make(map[*element.Element]bool)
	for _, root := range r.roots {
		element.Walk(root, func(e *element.Element) bool {
			if e.Kind != element.KindPackage && !e.Kind.IsType() {
				return false
			}
			if e.Kind.IsType() && !seen[e] && e.Annotation(qualifiedName) != nil {
				seen[e] = true
				out = append(out, e)
			}
			return true
		})
	}
	return out
}
