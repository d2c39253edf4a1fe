package poet

import (
	"strings"
)

// codeWriter renders code with indentation and javadoc prefixes. When imports is nil every class
// is written with its canonical name and references are recorded for import planning.
type codeWriter struct {
	out         strings.Builder
	indentUnit  string
	level       int
	atLineStart bool
	javadoc     bool

	pkg        string
	imports    map[string]*ClassName
	referenced map[string]*ClassName
}

func newCodeWriter(pkg, indent string) *codeWriter {
	return &codeWriter{
		indentUnit:  indent,
		atLineStart: true,
		pkg:         pkg,
		referenced:  make(map[string]*ClassName),
	}
}

func (w *codeWriter) String() string { return w.out.String() }

func (w *codeWriter) indent() { w.level++ }

func (w *codeWriter) unindent() {
	if w.level > 0 {
		w.level--
	}
}

func (w *codeWriter) writeIndent() {
	for i := 0; i < w.level; i++ {
		w.out.WriteString(w.indentUnit)
	}
}

// emit writes s, indenting every non-empty line. Inside javadoc each line gets the " * " prefix and
// empty lines become " *".
func (w *codeWriter) emit(s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			if w.javadoc && w.atLineStart {
				w.writeIndent()
				w.out.WriteString(" *")
			}
			w.out.WriteByte('\n')
			w.atLineStart = true
		}
		if line == "" {
			continue
		}
		if w.atLineStart {
			w.writeIndent()
			if w.javadoc {
				w.out.WriteString(" * ")
			}
			w.atLineStart = false
		}
		w.out.WriteString(line)
	}
}

func (w *codeWriter) emitClassName(c *ClassName) {
	top := c.TopLevel()
	w.referenced[top.CanonicalName()] = top.WithoutAnnotations().(*ClassName)

	names := c.SimpleNames()
	resolved := w.resolves(top)
	if !resolved && c.Package != "" {
		w.emit(c.Package)
		w.emit(".")
	}
	for i, name := range names {
		if i > 0 {
			w.emit(".")
		}
		if i == len(names)-1 {
			c.emitInline(w)
		}
		w.emit(name)
	}
}

// resolves reports whether the top-level class top can be referred to by its simple name.
func (w *codeWriter) resolves(top *ClassName) bool {
	if w.imports == nil {
		return false
	}
	imported, ok := w.imports[top.Simple]
	return ok && imported.CanonicalName() == top.CanonicalName()
}

// planImports decides which referenced top-level classes are written by simple name. Classes in
// java.lang and in the file's own package need no import statement. Simple names used by more than
// one class, or shadowed by a type variable or the declared type, stay qualified.
func planImports(pkg string, referenced map[string]*ClassName, reserved map[string]bool) (resolvable map[string]*ClassName, statements []string) {
	bySimple := make(map[string][]*ClassName)
	for _, c := range referenced {
		bySimple[c.Simple] = append(bySimple[c.Simple], c)
	}
	resolvable = make(map[string]*ClassName)
	for simple, classes := range bySimple {
		if len(classes) != 1 || reserved[simple] {
			continue
		}
		c := classes[0]
		resolvable[simple] = c
		if c.Package == pkg || c.Package == "java.lang" {
			continue
		}
		statements = append(statements, c.CanonicalName())
	}
	return resolvable, statements
}
