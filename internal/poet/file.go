package poet

import (
	"io"
	"path"
	"sort"
	"strings"
)

// JavaFile is a compilation unit holding a single top-level type.
type JavaFile struct {
	Package string
	Type    TypeSpec
	// Indent is the indentation unit; four spaces when empty.
	Indent string
}

// ClassName returns the name of the declared type.
func (f *JavaFile) ClassName() *ClassName {
	return ClassNameOf(f.Package, f.Type.Name)
}

// Path returns the slash-separated path of the file relative to a source root.
func (f *JavaFile) Path() string {
	name := f.Type.Name + ".java"
	if f.Package == "" {
		return name
	}
	return path.Join(strings.ReplaceAll(f.Package, ".", "/"), name)
}

// Imports returns the canonical names the file imports, sorted.
func (f *JavaFile) Imports() []string {
	_, statements := f.plan()
	return statements
}

func (f *JavaFile) indentUnit() string {
	if f.Indent == "" {
		return "    "
	}
	return f.Indent
}

func (f *JavaFile) plan() (map[string]*ClassName, []string) {
	collector := newCodeWriter(f.Package, f.indentUnit())
	collector.emitClassName(f.ClassName())
	f.Type.emit(collector)

	reserved := make(map[string]bool)
	for _, v := range f.Type.TypeVariables {
		reserved[v.Name] = true
	}
	for _, m := range f.Type.Methods {
		for _, v := range m.TypeVariables {
			reserved[v.Name] = true
		}
	}
	resolvable, statements := planImports(f.Package, collector.referenced, reserved)
	sort.Strings(statements)
	return resolvable, statements
}

// String renders the file.
func (f *JavaFile) String() string {
	resolvable, statements := f.plan()

	w := newCodeWriter(f.Package, f.indentUnit())
	w.imports = resolvable
	if f.Package != "" {
		w.emit("package " + f.Package + ";\n\n")
	}
	for _, imp := range statements {
		w.emit("import " + imp + ";\n")
	}
	if len(statements) > 0 {
		w.emit("\n")
	}
	f.Type.emit(w)
	return w.String()
}

// WriteTo writes the rendered file to out.
func (f *JavaFile) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, f.String())
	return int64(n), err
}
