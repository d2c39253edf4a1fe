package element

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQualifiedNameNested(t *testing.T) {
	u := NewUniverse()
	foo := &Element{Kind: KindInterface, Name: "Foo"}
	u.Package("com.example").AddEnclosed(foo)
	bar := &Element{Kind: KindRecord, Name: "Bar"}
	foo.AddEnclosed(bar)
	if !u.Declare(foo) {
		t.Fatalf("Declare returned false")
	}

	if got := bar.QualifiedName(); got != "com.example.Foo.Bar" {
		t.Fatalf("QualifiedName = %q", got)
	}
	if u.Lookup("com.example.Foo.Bar") != bar {
		t.Fatalf("nested type not indexed")
	}
	if diff := cmp.Diff([]string{"Foo", "Bar"}, bar.SimpleNames()); diff != "" {
		t.Fatalf("SimpleNames mismatch (-want +got):\n%s", diff)
	}
	if !bar.IsStatic() || bar.IsInner() {
		t.Fatalf("nested record must be implicitly static")
	}
	if u.Declare(foo) {
		t.Fatalf("second Declare should report a duplicate")
	}
}

func TestInnerClass(t *testing.T) {
	outer := &Element{Kind: KindClass, Name: "Outer"}
	inner := &Element{Kind: KindClass, Name: "Inner"}
	nested := &Element{Kind: KindClass, Name: "Nested", Modifiers: []Modifier{ModifierStatic}}
	outer.AddEnclosed(inner)
	outer.AddEnclosed(nested)

	if !inner.IsInner() {
		t.Fatalf("Inner should be an inner class")
	}
	if nested.IsInner() {
		t.Fatalf("Nested is static")
	}
}

func TestTargets(t *testing.T) {
	u := NewUniverse()

	tests := []struct {
		name       string
		want       []ElementType
		applicable map[ElementType]bool
	}{
		{
			name: "org.jspecify.annotations.Nullable",
			want: []ElementType{TargetTypeUse},
			applicable: map[ElementType]bool{
				TargetTypeUse:   true,
				TargetParameter: false,
				TargetField:     false,
			},
		},
		{
			name: "java.lang.Deprecated",
			applicable: map[ElementType]bool{
				TargetTypeUse:         false,
				TargetTypeParameter:   false,
				TargetParameter:       true,
				TargetRecordComponent: true,
			},
		},
		{
			name: "java.lang.annotation.Target",
			want: []ElementType{TargetAnnotationType},
			applicable: map[ElementType]bool{
				TargetAnnotationType: true,
				TargetType:           false,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			elem := u.Lookup(tc.name)
			if elem == nil {
				t.Fatalf("%s not declared", tc.name)
			}
			got, _ := elem.Targets()
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Targets mismatch (-want +got):\n%s", diff)
			}
			for target, want := range tc.applicable {
				if have := elem.ApplicableTo(target); have != want {
					t.Errorf("ApplicableTo(%s) = %v, want %v", target, have, want)
				}
			}
		})
	}
}

func TestTypeMirrorString(t *testing.T) {
	u := NewUniverse()
	nullable := AnnotationMirror{Type: u.Lookup("org.jspecify.annotations.Nullable")}
	list := NewDeclared(u.Lookup("java.util.List"), []TypeMirror{
		NewWildcard(NewDeclared(u.Lookup("java.lang.CharSequence"), nil), nil),
	}, nullable)

	tests := []struct {
		mirror TypeMirror
		want   string
	}{
		{NewPrimitive(TypeInt), "int"},
		{list, "java.util.@org.jspecify.annotations.Nullable List<? extends java.lang.CharSequence>"},
		{NewArray(NewPrimitive(TypeByte), nullable), "byte @org.jspecify.annotations.Nullable []"},
		{NewArray(NewArray(NewPrimitive(TypeInt)), nullable), "int @org.jspecify.annotations.Nullable [][]"},
		{Void, "void"},
	}
	for _, tc := range tests {
		if got := tc.mirror.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestErasedName(t *testing.T) {
	u := NewUniverse()
	tp := &Element{Kind: KindTypeParameter, Name: "T", Bounds: []TypeMirror{NewDeclared(u.Lookup("java.lang.CharSequence"), nil)}}
	unbounded := &Element{Kind: KindTypeParameter, Name: "U"}
	omittable := NewDeclared(u.Lookup("com.osmerion.omittable.Omittable"), []TypeMirror{NewTypeVariable(tp)})

	tests := []struct {
		mirror TypeMirror
		want   string
	}{
		{omittable, "com.osmerion.omittable.Omittable"},
		{NewTypeVariable(tp), "java.lang.CharSequence"},
		{NewTypeVariable(unbounded), ObjectName},
		{NewArray(NewPrimitive(TypeInt)), "int[]"},
	}
	for _, tc := range tests {
		if got := ErasedName(tc.mirror); got != tc.want {
			t.Errorf("ErasedName(%s) = %q, want %q", tc.mirror, got, tc.want)
		}
	}
	self := &Element{Kind: KindTypeParameter, Name: "S"}
	self.Bounds = []TypeMirror{NewTypeVariable(self)}
	left := &Element{Kind: KindTypeParameter, Name: "L"}
	right := &Element{Kind: KindTypeParameter, Name: "R", Bounds: []TypeMirror{NewTypeVariable(left)}}
	left.Bounds = []TypeMirror{NewArray(NewTypeVariable(right))}
	if got := ErasedName(NewTypeVariable(self)); got != ObjectName {
		t.Errorf("ErasedName(S extends S) = %q, want %q", got, ObjectName)
	}
	if got := ErasedName(NewTypeVariable(right)); got != ObjectName+"[]" {
		t.Errorf("ErasedName(R extends L, L extends R[]) = %q, want %q", got, ObjectName+"[]")
	}

	if !IsDeclaredAs(omittable, "com.osmerion.omittable.Omittable") {
		t.Errorf("IsDeclaredAs(Omittable<T>) = false")
	}
}
