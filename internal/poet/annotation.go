package poet

// AnnotationMember is one name = value pair of an annotation. Value is Java source.
type AnnotationMember struct {
	Name  string
	Value string
}

// AnnotationSpec is the use of an annotation.
type AnnotationSpec struct {
	Type    *ClassName
	Members []AnnotationMember
}

// Annotation returns a marker annotation of type t.
func Annotation(t *ClassName, members ...AnnotationMember) AnnotationSpec {
	return AnnotationSpec{Type: t, Members: members}
}

// Equal reports whether both annotations name the same type with the same members.
func (a AnnotationSpec) Equal(b AnnotationSpec) bool {
	if a.Type.CanonicalName() != b.Type.CanonicalName() || len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if a.Members[i] != b.Members[i] {
			return false
		}
	}
	return true
}

func (a AnnotationSpec) String() string {
	w := newCodeWriter("", "    ")
	a.emit(w)
	return w.String()
}

func (a AnnotationSpec) emit(w *codeWriter) {
	w.emit("@")
	w.emitClassName(a.Type)
	switch {
	case len(a.Members) == 0:
	case len(a.Members) == 1 && a.Members[0].Name == "value":
		w.emit("(")
		w.emit(a.Members[0].Value)
		w.emit(")")
	default:
		w.emit("(")
		for i, m := range a.Members {
			if i > 0 {
				w.emit(", ")
			}
			w.emit(m.Name)
			w.emit(" = ")
			w.emit(m.Value)
		}
		w.emit(")")
	}
}

func emitAnnotationLines(w *codeWriter, specs []AnnotationSpec) {
	for _, spec := range specs {
		spec.emit(w)
		w.emit("\n")
	}
}
