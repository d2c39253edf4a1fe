// Package buildable extracts the builder model of a record declaration: its components, type
// parameters and null-marking policy.
package buildable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/poet"
)

// NullMarker is the nullness policy in effect for a declaration.
type NullMarker int

const (
	NullMarkerNone NullMarker = iota
	NullMarkerMarked
	NullMarkerUnmarked
)

func (m NullMarker) String() string {
	switch m {
	case NullMarkerMarked:
		return "marked"
	case NullMarkerUnmarked:
		return "unmarked"
	default:
		return "none"
	}
}

// Component is one record component.
//
// AnnotationMirrors holds the annotations of the matching canonical constructor parameter followed
// by the annotations of the component itself. The same annotation may appear twice.
type Component struct {
	Name              string
	AnnotationMirrors []element.AnnotationMirror
	Type              element.TypeMirror
	Element           *element.Element
}

// Buildable is the immutable model of a record a builder is generated for.
type Buildable struct {
	Element        *element.Element
	Name           *poet.ClassName
	TypeParameters []*element.Element
	Components     []Component
	NullMarker     NullMarker
}

// Fingerprint is a stable digest of everything the generated builder depends on.
func (b *Buildable) Fingerprint() string {
	var s strings.Builder
	fmt.Fprintf(&s, "name=%s\nmarker=%s\n", b.Name.CanonicalName(), b.NullMarker)
	for _, tp := range b.TypeParameters {
		fmt.Fprintf(&s, "tp=%s", tp.Name)
		for _, a := range tp.Annotations {
			fmt.Fprintf(&s, " %s", a)
		}
		for _, bound := range tp.Bounds {
			fmt.Fprintf(&s, " <: %s", bound)
		}
		s.WriteByte('\n')
	}
	for _, c := range b.Components {
		fmt.Fprintf(&s, "component=%s %s", c.Name, c.Type)
		for _, a := range c.AnnotationMirrors {
			fmt.Fprintf(&s, " %s", a)
			if a.Type == nil {
				continue
			}
			if targets, ok := a.Type.Targets(); ok {
				fmt.Fprintf(&s, "%v", targets)
			}
		}
		s.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(s.String()))
	return hex.EncodeToString(sum[:])
}
