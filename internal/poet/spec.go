package poet

// Modifier is a Java modifier keyword.
type Modifier string

const (
	Public    Modifier = "public"
	Protected Modifier = "protected"
	Private   Modifier = "private"
	Abstract  Modifier = "abstract"
	Static    Modifier = "static"
	Final     Modifier = "final"
)

func emitModifiers(w *codeWriter, modifiers []Modifier) {
	for _, m := range modifiers {
		w.emit(string(m))
		w.emit(" ")
	}
}

func emitJavadoc(w *codeWriter, doc CodeBlock) {
	if doc.IsEmpty() {
		return
	}
	w.emit("/**\n")
	w.javadoc = true
	doc.emit(w)
	if !doc.endsWithNewline() {
		w.emit("\n")
	}
	w.javadoc = false
	w.emit(" */\n")
}

// ParameterSpec is a method or constructor parameter.
type ParameterSpec struct {
	Type        TypeName
	Name        string
	Annotations []AnnotationSpec
	Modifiers   []Modifier
}

func (p ParameterSpec) emit(w *codeWriter) {
	for _, spec := range p.Annotations {
		spec.emit(w)
		w.emit(" ")
	}
	emitModifiers(w, p.Modifiers)
	p.Type.emit(w)
	w.emit(" ")
	w.emit(p.Name)
}

// FieldSpec is a field declaration.
type FieldSpec struct {
	Type        TypeName
	Name        string
	Javadoc     CodeBlock
	Annotations []AnnotationSpec
	Modifiers   []Modifier
	Initializer CodeBlock
}

func (f FieldSpec) emit(w *codeWriter) {
	emitJavadoc(w, f.Javadoc)
	emitAnnotationLines(w, f.Annotations)
	emitModifiers(w, f.Modifiers)
	f.Type.emit(w)
	w.emit(" ")
	w.emit(f.Name)
	if !f.Initializer.IsEmpty() {
		w.emit(" = ")
		f.Initializer.emit(w)
	}
	w.emit(";\n")
}

// MethodSpec is a method or, when Constructor is set, a constructor. Constructors take their name
// from the enclosing type.
type MethodSpec struct {
	Name          string
	Constructor   bool
	Javadoc       CodeBlock
	Annotations   []AnnotationSpec
	Modifiers     []Modifier
	TypeVariables []*TypeVariable
	Returns       TypeName
	Parameters    []ParameterSpec
	Code          CodeBlock
}

func (m MethodSpec) emit(w *codeWriter, enclosing string) {
	emitJavadoc(w, m.Javadoc)
	emitAnnotationLines(w, m.Annotations)
	emitModifiers(w, m.Modifiers)
	emitTypeVariables(w, m.TypeVariables)
	if len(m.TypeVariables) > 0 {
		w.emit(" ")
	}
	if m.Constructor {
		w.emit(enclosing)
	} else {
		returns := m.Returns
		if returns == nil {
			returns = Void
		}
		returns.emit(w)
		w.emit(" ")
		w.emit(m.Name)
	}
	w.emit("(")
	for i, p := range m.Parameters {
		if i > 0 {
			w.emit(", ")
		}
		p.emit(w)
	}
	w.emit(")")
	for _, mod := range m.Modifiers {
		if mod == Abstract {
			w.emit(";\n")
			return
		}
	}
	w.emit(" {\n")
	w.indent()
	m.Code.emit(w)
	w.unindent()
	w.emit("}\n")
}

func emitTypeVariables(w *codeWriter, vars []*TypeVariable) {
	if len(vars) == 0 {
		return
	}
	w.emit("<")
	for i, v := range vars {
		if i > 0 {
			w.emit(", ")
		}
		v.emitDeclaration(w)
	}
	w.emit(">")
}

// TypeSpec is a class declaration.
type TypeSpec struct {
	Name          string
	Javadoc       CodeBlock
	Annotations   []AnnotationSpec
	Modifiers     []Modifier
	TypeVariables []*TypeVariable
	Fields        []FieldSpec
	Methods       []MethodSpec
}

func (t TypeSpec) emit(w *codeWriter) {
	emitJavadoc(w, t.Javadoc)
	emitAnnotationLines(w, t.Annotations)
	emitModifiers(w, t.Modifiers)
	w.emit("class ")
	w.emit(t.Name)
	emitTypeVariables(w, t.TypeVariables)
	w.emit(" {\n")
	w.indent()

	first := true
	member := func() {
		if !first {
			w.emit("\n")
		}
		first = false
	}
	for _, f := range t.Fields {
		member()
		f.emit(w)
	}
	for _, m := range t.Methods {
		if m.Constructor {
			member()
			m.emit(w, t.Name)
		}
	}
	for _, m := range t.Methods {
		if !m.Constructor {
			member()
			m.emit(w, t.Name)
		}
	}

	w.unindent()
	w.emit("}\n")
}
