package loader

import (
	"slices"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
)

// scope is the position a name is resolved from: a document and the innermost enclosing
// declaration, if any.
type scope struct {
	doc  *docState
	decl *declState
}

func (ds *declState) scope() *scope {
	return &scope{doc: ds.doc, decl: ds}
}

// variableDecl is a resolved component or parameter before its declaration annotations are
// distributed.
type variableDecl struct {
	name        string
	typ         element.TypeMirror
	annotations []element.AnnotationMirror
	pos         element.Position
}

func (l *loader) resolveImports(doc *docState) {
	doc.imports = make(map[string]*element.Element)
	for _, e := range doc.doc.Imports {
		text := strings.TrimSpace(e.Text)
		pos := l.exprPos(doc, e, 1)
		switch {
		case strings.HasPrefix(text, "static "):
			l.errorf(diagnostics.ErrLoadSyntax, pos, "static imports are not supported: %s", text)
		case strings.HasSuffix(text, ".*"):
			pkg := strings.TrimSuffix(text, ".*")
			if !isQualifiedName(pkg) {
				l.errorf(diagnostics.ErrLoadSyntax, pos, "invalid import %q", text)
				continue
			}
			doc.onDemand = append(doc.onDemand, pkg)
		case !isQualifiedName(text) || !strings.Contains(text, "."):
			l.errorf(diagnostics.ErrLoadSyntax, pos, "invalid import %q", text)
		default:
			names := strings.Split(text, ".")
			if chain, ok := l.resolveChain(nil, names, pos, element.KindClass); ok {
				doc.imports[names[len(names)-1]] = chain[len(chain)-1]
			}
		}
	}
}

// lookupSimple finds the type element a simple name denotes from sc: member types of enclosing
// declarations, types of the same document, single-type imports, the same package, on-demand
// imports and finally java.lang.
func (l *loader) lookupSimple(sc *scope, name string) *element.Element {
	for cur := sc.decl; cur != nil; cur = cur.outer {
		if m := cur.elem.Member(name); m != nil {
			return m
		}
	}
	for _, ds := range sc.doc.types {
		if ds.elem.Name == name {
			return ds.elem
		}
	}
	if e := sc.doc.imports[name]; e != nil {
		return e
	}
	if e := l.u.Lookup(qualify(sc.doc.pkg.Name, name)); e != nil {
		return e
	}
	for _, pkg := range sc.doc.onDemand {
		if e := l.u.Lookup(pkg + "." + name); e != nil {
			return e
		}
	}
	return l.u.Lookup("java.lang." + name)
}

// lookupTypeVar finds a type parameter of an enclosing declaration. Static declarations hide the
// type parameters of their enclosing declarations.
func (l *loader) lookupTypeVar(sc *scope, name string) *element.Element {
	for cur := sc.decl; cur != nil; cur = cur.outer {
		for _, tp := range cur.elem.TypeParameters {
			if tp.Name == name {
				return tp
			}
		}
		if cur.elem.IsStatic() {
			break
		}
	}
	return nil
}

// resolveChain resolves a possibly qualified type name. The result has one entry per name; package
// segments are nil. A nil scope resolves against the universe only. Qualified names that are not
// known but follow Java naming conventions are declared as external types of the given kind.
func (l *loader) resolveChain(sc *scope, names []string, pos element.Position, kind element.Kind) ([]*element.Element, bool) {
	chain := make([]*element.Element, len(names))
	start := 0
	if sc != nil {
		if e := l.lookupSimple(sc, names[0]); e != nil {
			chain[0] = e
			start = 1
		}
	}
	for i := 2; start == 0 && i <= len(names); i++ {
		if e := l.u.Lookup(strings.Join(names[:i], ".")); e != nil {
			chain[i-1] = e
			start = i
		}
	}

	kindAt := func(j int) element.Kind {
		if j == len(names)-1 {
			return kind
		}
		return element.KindClass
	}

	if start == 0 {
		k := conventionalTypeStart(names)
		if k < 1 {
			l.errorf(diagnostics.ErrLoadUnresolvedType, pos, "cannot find symbol: class %s", strings.Join(names, "."))
			return nil, false
		}
		pkg := strings.Join(names[:k], ".")
		for j := k; j < len(names); j++ {
			chain[j] = l.u.External(pkg, names[k:j+1], kindAt(j))
		}
		return chain, true
	}

	for j := start; j < len(names); j++ {
		parent := chain[j-1]
		member := parent.Member(names[j])
		if member == nil {
			// Members of declared types are all known; library types may have undeclared members.
			if parent.Pos.IsValid() {
				l.errorf(diagnostics.ErrLoadUnresolvedType, pos, "cannot find symbol: class %s in %s", names[j], parent.QualifiedName())
				return nil, false
			}
			pkg := ""
			if p := parent.Package(); p != nil {
				pkg = p.Name
			}
			member = l.u.External(pkg, append(parent.SimpleNames(), names[j]), kindAt(j))
		}
		chain[j] = member
	}
	return chain, true
}

// conventionalTypeStart returns the index of the first type name in a qualified name whose package
// segments are lower case and type segments upper case, or -1.
func conventionalTypeStart(names []string) int {
	for i, name := range names {
		first := []rune(name)[0]
		if unicode.IsUpper(first) {
			return i
		}
		if !unicode.IsLower(first) {
			return -1
		}
	}
	return -1
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// annotation parses and resolves the annotation use e.
func (l *loader) annotation(sc *scope, e Expr) (element.AnnotationMirror, bool) {
	expr, err := parseAnnotation(e.Text)
	if err != nil {
		l.syntaxError(sc.doc, e, err)
		return element.AnnotationMirror{}, false
	}
	return l.resolveAnnotation(sc, expr, e)
}

// annotations resolves the annotation uses of an expression parsed from base, dropping those that
// fail to resolve.
func (l *loader) annotations(sc *scope, exprs []*annotationExpr, base Expr) []element.AnnotationMirror {
	var out []element.AnnotationMirror
	for _, expr := range exprs {
		if a, ok := l.resolveAnnotation(sc, expr, base); ok {
			out = append(out, a)
		}
	}
	return out
}

// typeUseAnnotations resolves annotations written on a type and keeps those applicable to type
// uses.
func (l *loader) typeUseAnnotations(sc *scope, exprs []*annotationExpr, base Expr) []element.AnnotationMirror {
	return lo.Filter(l.annotations(sc, exprs, base), func(a element.AnnotationMirror, _ int) bool {
		if a.Type.ApplicableTo(element.TargetTypeUse) {
			return true
		}
		l.notApplicable(a, "type use")
		return false
	})
}

func (l *loader) resolveAnnotation(sc *scope, expr *annotationExpr, base Expr) (element.AnnotationMirror, bool) {
	pos := l.exprPos(sc.doc, base, expr.Pos.Column)
	chain, ok := l.resolveChain(sc, expr.Name, pos, element.KindAnnotationType)
	if !ok {
		return element.AnnotationMirror{}, false
	}
	typ := chain[len(chain)-1]
	if !l.known[typ] && typ.Kind == element.KindClass {
		// A library type first seen in an import; its use here shows it is an annotation type.
		typ.Kind = element.KindAnnotationType
	}
	if typ.Kind != element.KindAnnotationType {
		l.errorf(diagnostics.ErrLoadNotAnnotation, pos, "%s is not an annotation type", typ.QualifiedName())
		return element.AnnotationMirror{}, false
	}

	a := element.AnnotationMirror{Type: typ, Pos: pos}
	if expr.Args != nil {
		if expr.Args.Value != nil {
			a.Values = []element.AnnotationValue{{Name: "value", Value: annotationValue(expr.Args.Value)}}
		}
		for _, pair := range expr.Args.Pairs {
			a.Values = append(a.Values, element.AnnotationValue{Name: pair.Name, Value: annotationValue(pair.Value)})
		}
	}
	return a, true
}

func annotationValue(v *valueExpr) element.Value {
	if v.Array == nil {
		return element.Value{Literal: v.source()}
	}
	return element.Value{
		Array:   lo.Map(v.Array.Values, func(e *valueExpr, _ int) element.Value { return annotationValue(e) }),
		IsArray: true,
	}
}

// variable resolves a component or parameter declaration.
func (l *loader) variable(sc *scope, v Variable) (variableDecl, bool) {
	decl := variableDecl{pos: element.Position{Path: sc.doc.path, Line: v.Line, Column: v.Column}}

	if v.Decl != nil {
		expr, err := parseVariable(v.Decl.Text)
		if err != nil {
			l.syntaxError(sc.doc, *v.Decl, err)
			return decl, false
		}
		// Annotations leading a declaration are declaration annotations.
		typ := *expr.Type
		leading := typ.Annotations
		typ.Annotations = nil
		t, ok := l.typeOf(sc, &typ, *v.Decl, false)
		if !ok {
			return decl, false
		}
		decl.name = expr.Name
		decl.typ = t
		decl.annotations = l.annotations(sc, leading, *v.Decl)
	} else {
		if !isIdentifier(v.Name) {
			l.errorf(diagnostics.ErrLoadSyntax, decl.pos, "invalid variable name %q", v.Name)
			return decl, false
		}
		expr, err := parseType(v.Type.Text)
		if err != nil {
			l.syntaxError(sc.doc, v.Type, err)
			return decl, false
		}
		t, ok := l.typeOf(sc, expr, v.Type, false)
		if !ok {
			return decl, false
		}
		decl.name = v.Name
		decl.typ = t
		for _, e := range v.Annotations {
			if a, ok := l.annotation(sc, e); ok {
				decl.annotations = append(decl.annotations, a)
			}
		}
	}

	if decl.typ.Kind() == element.TypeVoid {
		l.errorf(diagnostics.ErrLoadInvalidComponent, decl.pos, "variable %s cannot have type void", decl.name)
		return decl, false
	}
	return decl, true
}

// typeOf resolves a type expression parsed from base. Wildcards are accepted only where
// allowWildcard is set, that is as type arguments.
func (l *loader) typeOf(sc *scope, t *typeExpr, base Expr, allowWildcard bool) (element.TypeMirror, bool) {
	pos := l.exprPos(sc.doc, base, t.Pos.Column)
	leading := l.typeUseAnnotations(sc, t.Annotations, base)

	if t.Wildcard != nil {
		if !allowWildcard || len(t.Dims) > 0 {
			l.errorf(diagnostics.ErrLoadSyntax, pos, "wildcard not allowed here")
			return nil, false
		}
		var extends, super element.TypeMirror
		var ok bool
		if t.Wildcard.Extends != nil {
			if extends, ok = l.typeOf(sc, t.Wildcard.Extends, base, false); !ok {
				return nil, false
			}
		}
		if t.Wildcard.Super != nil {
			if super, ok = l.typeOf(sc, t.Wildcard.Super, base, false); !ok {
				return nil, false
			}
		}
		return element.NewWildcard(extends, super, leading...), true
	}

	var result element.TypeMirror
	if seg := t.Segments[0]; len(t.Segments) == 1 && seg.Args == nil {
		own := func() []element.AnnotationMirror {
			return append(slices.Clone(leading), l.typeUseAnnotations(sc, seg.Annotations, base)...)
		}
		kind, primitive := element.PrimitiveKind(seg.Name)
		switch {
		case seg.Name == "void":
			if len(t.Dims) > 0 || len(leading) > 0 || len(seg.Annotations) > 0 {
				l.errorf(diagnostics.ErrLoadSyntax, pos, "void cannot be annotated or used as an array element type")
				return nil, false
			}
			return element.Void, true
		case primitive:
			result = element.NewPrimitive(kind, own()...)
		default:
			if tp := l.lookupTypeVar(sc, seg.Name); tp != nil {
				result = element.NewTypeVariable(tp, own()...)
			}
		}
	}
	if result == nil {
		declared, ok := l.declaredType(sc, t, leading, base, pos)
		if !ok {
			return nil, false
		}
		result = declared
	}

	// The first dimension is the outermost array type.
	for i := len(t.Dims) - 1; i >= 0; i-- {
		result = element.NewArray(result, l.typeUseAnnotations(sc, t.Dims[i].Annotations, base)...)
	}
	return result, true
}

func (l *loader) declaredType(sc *scope, t *typeExpr, leading []element.AnnotationMirror, base Expr, pos element.Position) (*element.DeclaredType, bool) {
	names := lo.Map(t.Segments, func(s *segmentExpr, _ int) string { return s.Name })
	chain, ok := l.resolveChain(sc, names, pos, element.KindClass)
	if !ok {
		return nil, false
	}

	// Annotations written before package segments apply to the first type.
	pending := leading
	var cur *element.DeclaredType
	for j, seg := range t.Segments {
		pending = append(pending, l.typeUseAnnotations(sc, seg.Annotations, base)...)
		e := chain[j]
		if e == nil {
			continue
		}
		var args []element.TypeMirror
		if seg.Args != nil {
			for _, arg := range seg.Args.Args {
				at, ok := l.typeOf(sc, arg, base, true)
				if !ok {
					return nil, false
				}
				args = append(args, at)
			}
			if l.known[e] && len(args) != len(e.TypeParameters) {
				l.errorf(diagnostics.ErrLoadUnresolvedType, l.exprPos(sc.doc, base, seg.Pos.Column),
					"wrong number of type arguments for %s; required %d", e.QualifiedName(), len(e.TypeParameters))
				return nil, false
			}
		}
		d := element.NewDeclared(e, args, pending...)
		pending = nil
		if e.IsInner() {
			if cur != nil {
				d.Enclosing = cur
			} else if e.Enclosing.Type != nil {
				d.Enclosing = e.Enclosing.Type
			}
		}
		cur = d
	}
	return cur, true
}
