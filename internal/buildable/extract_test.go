package buildable

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
)

type world struct {
	u   *element.Universe
	pkg *element.Element
}

func newWorld() *world {
	u := element.NewUniverse()
	return &world{u: u, pkg: u.Package("com.example")}
}

func (w *world) annotation(name string) element.AnnotationMirror {
	return element.AnnotationMirror{Type: w.u.Lookup(name)}
}

func (w *world) str() element.TypeMirror {
	return element.NewDeclared(w.u.Lookup("java.lang.String"), nil)
}

// record declares a record with the given components and a canonical constructor whose parameter
// names are ctorNames.
func (w *world) record(parent *element.Element, name string, components []string, ctorNames []string) *element.Element {
	rec := &element.Element{Kind: element.KindRecord, Name: name}
	parent.AddEnclosed(rec)
	for _, c := range components {
		rc := &element.Element{Kind: element.KindRecordComponent, Name: c, Type: w.str(), Enclosing: rec}
		rec.RecordComponents = append(rec.RecordComponents, rc)
	}
	ctor := &element.Element{Kind: element.KindConstructor, Name: "<init>"}
	for _, p := range ctorNames {
		ctor.Parameters = append(ctor.Parameters, &element.Element{Kind: element.KindParameter, Name: p, Type: w.str(), Enclosing: ctor})
	}
	rec.AddEnclosed(ctor)
	return rec
}

func TestExtract(t *testing.T) {
	w := newWorld()
	rec := w.record(w.pkg, "Foo", []string{"a", "b"}, []string{"a", "b"})
	deprecated := w.annotation("java.lang.Deprecated")
	suppress := w.annotation("java.lang.SuppressWarnings")
	rec.Constructors()[0].Parameters[0].Annotations = []element.AnnotationMirror{suppress}
	rec.RecordComponents[0].Annotations = []element.AnnotationMirror{deprecated, suppress}

	b, err := NewExtractor(DefaultNames()).Extract(rec, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := b.Name.CanonicalName(); got != "com.example.Foo" {
		t.Fatalf("Name = %q", got)
	}
	if b.NullMarker != NullMarkerNone {
		t.Fatalf("NullMarker = %s, want none", b.NullMarker)
	}

	var names []string
	for _, c := range b.Components {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("component order mismatch (-want +got):\n%s", diff)
	}

	// Constructor parameter annotations come first and duplicates are kept.
	var merged []string
	for _, a := range b.Components[0].AnnotationMirrors {
		merged = append(merged, a.QualifiedName())
	}
	want := []string{"java.lang.SuppressWarnings", "java.lang.Deprecated", "java.lang.SuppressWarnings"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged annotations mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractRejectsNonRecords(t *testing.T) {
	w := newWorld()
	class := &element.Element{Kind: element.KindClass, Name: "Foo"}
	w.pkg.AddEnclosed(class)
	marker := w.annotation("com.osmerion.atbuilder.Builder")

	_, err := NewExtractor(DefaultNames()).Extract(class, &marker)
	var extractErr *Error
	if !errors.As(err, &extractErr) {
		t.Fatalf("Extract error = %v, want *Error", err)
	}
	if extractErr.Message != "@Builder may only be applied to records" {
		t.Fatalf("Message = %q", extractErr.Message)
	}
	if extractErr.Annotation != &marker || extractErr.Element != class {
		t.Fatalf("error not attached to the element and the annotation use")
	}
	if d := extractErr.Diagnostic(); d.Code != diagnostics.ErrModelNotRecord || !d.IsError() {
		t.Fatalf("Diagnostic() = %+v", d)
	}
}

func TestExtractRequiresPrimaryConstructor(t *testing.T) {
	tests := []struct {
		name      string
		ctorNames []string
	}{
		{"renamed parameter", []string{"a", "c"}},
		{"reordered parameters", []string{"b", "a"}},
		{"missing parameter", []string{"a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld()
			rec := w.record(w.pkg, "Foo", []string{"a", "b"}, tc.ctorNames)
			_, err := NewExtractor(DefaultNames()).Extract(rec, nil)
			var extractErr *Error
			if !errors.As(err, &extractErr) || extractErr.Code != diagnostics.ErrModelNoPrimaryCtor {
				t.Fatalf("Extract error = %v", err)
			}
			if extractErr.Message != "No primary constructor found for record" {
				t.Fatalf("Message = %q", extractErr.Message)
			}
		})
	}
}

func TestExtractPicksMatchingConstructor(t *testing.T) {
	w := newWorld()
	rec := w.record(w.pkg, "Foo", []string{"a"}, []string{"x"})
	canonical := &element.Element{Kind: element.KindConstructor, Name: "<init>"}
	param := &element.Element{Kind: element.KindParameter, Name: "a", Type: w.str(), Annotations: []element.AnnotationMirror{w.annotation("java.lang.Deprecated")}}
	canonical.Parameters = []*element.Element{param}
	rec.AddEnclosed(canonical)

	b, err := NewExtractor(DefaultNames()).Extract(rec, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := len(b.Components[0].AnnotationMirrors); got != 1 {
		t.Fatalf("annotations from the canonical constructor = %d, want 1", got)
	}
}

func TestNullMarker(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *world, outer, rec *element.Element)
		want  NullMarker
	}{
		{
			name:  "none",
			setup: func(*world, *element.Element, *element.Element) {},
			want:  NullMarkerNone,
		},
		{
			name: "record marked",
			setup: func(w *world, _, rec *element.Element) {
				rec.Annotations = append(rec.Annotations, w.annotation("org.jspecify.annotations.NullMarked"))
			},
			want: NullMarkerMarked,
		},
		{
			name: "inherited from enclosing type",
			setup: func(w *world, outer, _ *element.Element) {
				outer.Annotations = append(outer.Annotations, w.annotation("org.jspecify.annotations.NullMarked"))
			},
			want: NullMarkerMarked,
		},
		{
			name: "inherited from package",
			setup: func(w *world, _, _ *element.Element) {
				w.pkg.Annotations = append(w.pkg.Annotations, w.annotation("org.jspecify.annotations.NullMarked"))
			},
			want: NullMarkerMarked,
		},
		{
			name: "innermost wins",
			setup: func(w *world, outer, rec *element.Element) {
				outer.Annotations = append(outer.Annotations, w.annotation("org.jspecify.annotations.NullMarked"))
				rec.Annotations = append(rec.Annotations, w.annotation("org.jspecify.annotations.NullUnmarked"))
			},
			want: NullMarkerUnmarked,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld()
			outer := &element.Element{Kind: element.KindInterface, Name: "Outer"}
			w.pkg.AddEnclosed(outer)
			rec := w.record(outer, "Foo", []string{"a"}, []string{"a"})
			tc.setup(w, outer, rec)

			b, err := NewExtractor(DefaultNames()).Extract(rec, nil)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if b.NullMarker != tc.want {
				t.Fatalf("NullMarker = %s, want %s", b.NullMarker, tc.want)
			}
			if got := b.Name.CanonicalName(); got != "com.example.Outer.Foo" {
				t.Fatalf("Name = %q", got)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	w := newWorld()
	x := NewExtractor(DefaultNames())
	a, _ := x.Extract(w.record(w.pkg, "Foo", []string{"a"}, []string{"a"}), nil)
	b, _ := x.Extract(w.record(w.pkg, "Bar", []string{"a"}, []string{"a"}), nil)
	again, _ := x.Extract(a.Element, nil)

	if a.Fingerprint() != again.Fingerprint() {
		t.Fatalf("fingerprint not stable")
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("different records share a fingerprint")
	}
}
