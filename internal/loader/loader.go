// Package loader is the host front end: it reads declaration documents, resolves the Java type,
// annotation and type-parameter expressions they contain, and fills an element universe the way
// a compiler would before an annotation-processing round.
package loader

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
)

// Source is a declaration document and the path it is reported under.
type Source struct {
	Path string
	Data []byte
}

// Read reads the documents at paths. Files that cannot be read are reported as E401 diagnostics
// and left out of the result.
func Read(paths ...string) ([]Source, []diagnostics.Diagnostic) {
	var sources []Source
	var diags []diagnostics.Diagnostic
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, diagnostics.Error(fmt.Sprintf("cannot read declaration file: %v", err)).
				WithCode(diagnostics.ErrLoadRead).
				At(path, 0, 0).
				WithSource("loader").
				Build())
			continue
		}
		sources = append(sources, Source{Path: path, Data: data})
	}
	return sources, diags
}

// Result holds the declarations of one load.
type Result struct {
	Universe *element.Universe
	// Types are the top-level types declared by the documents, in document order.
	Types       []*element.Element
	Diagnostics *diagnostics.Collection
}

// Load declares the types of every source in u. Declarations that fail to resolve are reported and
// dropped or left partially filled; the remaining declarations are usable.
func Load(u *element.Universe, sources ...Source) *Result {
	l := &loader{
		u:     u,
		diags: diagnostics.NewCollection(),
		known: make(map[*element.Element]bool),
	}
	for _, name := range u.Types() {
		l.known[u.Lookup(name)] = true
	}

	for _, src := range sources {
		l.parse(src)
	}
	for _, doc := range l.docs {
		for i := range doc.doc.Types {
			if ds := l.declare(doc, &doc.doc.Types[i], doc.pkg, nil); ds != nil {
				doc.types = append(doc.types, ds)
			}
		}
	}
	// Meta-annotations first, so applicability of every other use is known.
	for _, doc := range l.docs {
		l.resolveImports(doc)
		l.eachDecl(doc, func(ds *declState) {
			if ds.elem.Kind == element.KindAnnotationType {
				l.resolveTypeAnnotations(ds)
			}
		})
	}
	for _, doc := range l.docs {
		l.resolvePackageAnnotations(doc)
		l.eachDecl(doc, func(ds *declState) {
			if ds.elem.Kind != element.KindAnnotationType {
				l.resolveTypeAnnotations(ds)
			}
			l.resolveMembers(ds)
		})
	}

	result := &Result{Universe: u, Diagnostics: l.diags}
	for _, doc := range l.docs {
		for _, ds := range doc.types {
			result.Types = append(result.Types, ds.elem)
		}
	}
	return result
}

type loader struct {
	u     *element.Universe
	diags *diagnostics.Collection
	docs  []*docState
	// known marks the types declared by a document or present before loading; other types were
	// created from references and accept any type arguments.
	known map[*element.Element]bool
}

type docState struct {
	path     string
	doc      *Document
	pkg      *element.Element
	types    []*declState
	imports  map[string]*element.Element
	onDemand []string
}

type declState struct {
	doc        *docState
	decl       *TypeDecl
	elem       *element.Element
	outer      *declState
	nested     []*declState
	typeParams []*typeParamExpr

	// typeParamSrc holds the expression each entry of typeParams was parsed from.
	typeParamSrc []Expr
}

func (l *loader) parse(src Source) {
	doc, nonEmpty, err := ParseDocument(src.Data)
	if err != nil {
		var line, column int
		if syntax, ok := err.(*SyntaxError); ok {
			line, column = syntax.Line, syntax.Column
			err = fmt.Errorf("%s", syntax.Msg)
		}
		l.diags.Add(diagnostics.Error(err.Error()).
			WithCode(diagnostics.ErrLoadSyntax).
			At(src.Path, line, column).
			WithSource("loader").
			Build())
		return
	}
	if !nonEmpty || len(doc.Types) == 0 {
		l.diags.Add(diagnostics.Warning("declaration document declares no types").
			WithCode(diagnostics.WarnLoadEmpty).
			At(src.Path, 0, 0).
			WithSource("loader").
			Build())
	}
	if doc.Package != "" && !isQualifiedName(doc.Package) {
		l.errorf(diagnostics.ErrLoadSyntax, element.Position{Path: src.Path, Line: 1, Column: 1}, "invalid package name %q", doc.Package)
		return
	}
	l.docs = append(l.docs, &docState{path: src.Path, doc: doc, pkg: l.u.Package(doc.Package)})
}

var kinds = map[string]element.Kind{
	"class":      element.KindClass,
	"interface":  element.KindInterface,
	"enum":       element.KindEnum,
	"record":     element.KindRecord,
	"annotation": element.KindAnnotationType,
}

// declare creates the element for decl and its nested declarations under parent. It returns nil
// when the declaration is rejected.
func (l *loader) declare(doc *docState, decl *TypeDecl, parent *element.Element, outer *declState) *declState {
	pos := element.Position{Path: doc.path, Line: decl.Line, Column: decl.Column}
	kind, ok := kinds[decl.Kind]
	if !ok {
		l.errorf(diagnostics.ErrLoadInvalidKind, pos, "unknown declaration kind %q; expected one of class, interface, enum, record, annotation", decl.Kind)
		return nil
	}
	if !isIdentifier(decl.Name) {
		l.errorf(diagnostics.ErrLoadSyntax, pos, "invalid type name %q", decl.Name)
		return nil
	}
	if decl.Static && outer == nil {
		l.errorf(diagnostics.ErrLoadInvalidKind, pos, "modifier static not allowed on top-level %s %s", kind, decl.Name)
	}

	qualified := decl.Name
	if parent.Kind == element.KindPackage && parent.Name != "" {
		qualified = parent.Name + "." + decl.Name
	} else if parent.Kind != element.KindPackage {
		qualified = parent.QualifiedName() + "." + decl.Name
	}
	if prev := l.u.Lookup(qualified); prev != nil {
		b := diagnostics.Error("duplicate class: " + qualified).
			WithCode(diagnostics.ErrLoadDuplicateType).
			AtLocation(diagnostics.LocationOf(pos)).
			WithSource("loader")
		if prev.Pos.IsValid() {
			b.WithRelated(diagnostics.LocationOf(prev.Pos), "previously declared here")
		}
		l.diags.Add(b.Build())
		return nil
	}

	elem := &element.Element{Kind: kind, Name: decl.Name, Modifiers: []element.Modifier{element.ModifierPublic}, Pos: pos}
	if decl.Static {
		elem.Modifiers = append(elem.Modifiers, element.ModifierStatic)
	}
	parent.AddEnclosed(elem)
	l.u.Declare(elem)
	l.known[elem] = true

	ds := &declState{doc: doc, decl: decl, elem: elem, outer: outer}
	args := make([]element.TypeMirror, 0, len(decl.TypeParameters))
	for _, e := range decl.TypeParameters {
		expr, err := parseTypeParam(e.Text)
		if err != nil {
			l.syntaxError(doc, e, err)
			continue
		}
		tp := &element.Element{Kind: element.KindTypeParameter, Name: expr.Name, Enclosing: elem, Pos: l.exprPos(doc, e, expr.Pos.Column)}
		tp.Type = element.NewTypeVariable(tp)
		elem.TypeParameters = append(elem.TypeParameters, tp)
		ds.typeParams = append(ds.typeParams, expr)
		ds.typeParamSrc = append(ds.typeParamSrc, e)
		args = append(args, tp.Type)
	}
	self := element.NewDeclared(elem, args)
	if elem.IsInner() && parent.Type != nil {
		self.Enclosing = parent.Type
	}
	elem.Type = self

	if len(decl.Target) > 0 {
		if kind != element.KindAnnotationType {
			l.errorf(diagnostics.ErrLoadInvalidKind, pos, "target is only allowed on annotation types")
		} else {
			l.declareTarget(doc, elem, decl.Target)
		}
	}

	for i := range decl.Types {
		if nested := l.declare(doc, &decl.Types[i], elem, ds); nested != nil {
			ds.nested = append(ds.nested, nested)
		}
	}
	return ds
}

// declareTarget attaches @Target built from the element type names listed in the document.
func (l *loader) declareTarget(doc *docState, elem *element.Element, targets []Expr) {
	var values []element.Value
	for _, e := range targets {
		t, ok := element.ParseElementType(e.Text)
		if !ok {
			l.errorf(diagnostics.ErrLoadSyntax, l.exprPos(doc, e, 1), "unknown element type %q", e.Text)
			continue
		}
		values = append(values, element.Value{Literal: "ElementType." + string(t)})
	}
	elem.Annotations = append(elem.Annotations, element.AnnotationMirror{
		Type:   l.u.Lookup(element.TargetAnnotationName),
		Values: []element.AnnotationValue{{Name: "value", Value: element.Value{Array: values, IsArray: true}}},
		Pos:    elem.Pos,
	})
}

func (l *loader) eachDecl(doc *docState, fn func(*declState)) {
	var visit func(ds *declState)
	visit = func(ds *declState) {
		fn(ds)
		for _, nested := range ds.nested {
			visit(nested)
		}
	}
	for _, ds := range doc.types {
		visit(ds)
	}
}

func (l *loader) resolvePackageAnnotations(doc *docState) {
	sc := &scope{doc: doc}
	for _, e := range doc.doc.Annotations {
		a, ok := l.annotation(sc, e)
		if !ok {
			continue
		}
		if !a.Type.ApplicableTo(element.TargetPackage) {
			l.notApplicable(a, "package")
			continue
		}
		if !lo.ContainsBy(doc.pkg.Annotations, a.Equal) {
			doc.pkg.Annotations = append(doc.pkg.Annotations, a)
		}
	}
}

func (l *loader) resolveTypeAnnotations(ds *declState) {
	sc := ds.scope()
	context := element.TargetType
	if ds.elem.Kind == element.KindAnnotationType {
		context = element.TargetAnnotationType
	}
	for _, e := range ds.decl.Annotations {
		a, ok := l.annotation(sc, e)
		if !ok {
			continue
		}
		if !a.Type.ApplicableTo(context) && !a.Type.ApplicableTo(element.TargetTypeUse) {
			l.notApplicable(a, ds.elem.Kind.String())
			continue
		}
		ds.elem.Annotations = append(ds.elem.Annotations, a)
	}
}

// resolveMembers resolves type-parameter bounds, record components and constructors.
func (l *loader) resolveMembers(ds *declState) {
	sc := ds.scope()
	elem := ds.elem

	for i, expr := range ds.typeParams {
		tp := elem.TypeParameters[i]
		base := ds.typeParamSrc[i]
		for _, a := range l.annotations(sc, expr.Annotations, base) {
			if !a.Type.ApplicableTo(element.TargetTypeParameter) && !a.Type.ApplicableTo(element.TargetTypeUse) {
				l.notApplicable(a, "type parameter")
				continue
			}
			tp.Annotations = append(tp.Annotations, a)
		}
		for _, bound := range expr.Bounds {
			t, ok := l.typeOf(sc, bound, base, false)
			if !ok {
				continue
			}
			if reason := invalidBound(t, len(expr.Bounds)); reason != "" {
				l.errorf(diagnostics.ErrLoadInvalidComponent, l.exprPos(sc.doc, base, bound.Pos.Column),
					"invalid bound %s of type parameter %s: %s", t, tp.Name, reason)
				continue
			}
			tp.Bounds = append(tp.Bounds, t)
		}
		if len(tp.Bounds) == 0 {
			tp.Bounds = []element.TypeMirror{l.u.Object().Type}
		}
	}
	l.checkBoundCycles(elem)

	if len(ds.decl.Components) > 0 && elem.Kind != element.KindRecord {
		l.errorf(diagnostics.ErrLoadInvalidComponent, elem.Pos, "only records declare components; %s is a %s", elem.Name, elem.Kind)
	}
	if len(ds.decl.Constructors) > 0 && (elem.Kind == element.KindInterface || elem.Kind == element.KindAnnotationType) {
		l.errorf(diagnostics.ErrLoadInvalidComponent, elem.Pos, "%s %s cannot declare constructors", elem.Kind, elem.Name)
	}

	var implicitParams [][]element.AnnotationMirror
	if elem.Kind == element.KindRecord {
		implicitParams = l.resolveComponents(sc, ds)
	}
	if elem.Kind != element.KindInterface && elem.Kind != element.KindAnnotationType {
		for i := range ds.decl.Constructors {
			l.resolveConstructor(sc, ds, &ds.decl.Constructors[i])
		}
	}
	if elem.Kind == element.KindRecord && !l.hasCanonicalConstructor(elem) {
		l.addCanonicalConstructor(elem, implicitParams)
	}
}

// resolveComponents declares the record components. It returns, per component, the declaration
// annotations that belong to the parameter of the implicit canonical constructor.
func (l *loader) resolveComponents(sc *scope, ds *declState) [][]element.AnnotationMirror {
	var params [][]element.AnnotationMirror
	seen := make(map[string]bool)
	for _, v := range ds.decl.Components {
		decl, ok := l.variable(sc, v)
		if !ok {
			continue
		}
		if seen[decl.name] {
			l.errorf(diagnostics.ErrLoadInvalidComponent, decl.pos, "record component %s is already defined in record %s", decl.name, ds.elem.Name)
			continue
		}
		seen[decl.name] = true

		var component, param, typeUse []element.AnnotationMirror
		for _, a := range decl.annotations {
			applied := false
			if a.Type.ApplicableTo(element.TargetRecordComponent) {
				component = append(component, a)
				applied = true
			}
			if a.Type.ApplicableTo(element.TargetParameter) {
				param = append(param, a)
				applied = true
			}
			if a.Type.ApplicableTo(element.TargetTypeUse) {
				typeUse = append(typeUse, a)
				applied = true
			}
			// Fields and accessors are generated but not modelled.
			if !applied && !a.Type.ApplicableTo(element.TargetField) && !a.Type.ApplicableTo(element.TargetMethod) {
				l.notApplicable(a, "record component")
			}
		}

		ds.elem.RecordComponents = append(ds.elem.RecordComponents, &element.Element{
			Kind:        element.KindRecordComponent,
			Name:        decl.name,
			Enclosing:   ds.elem,
			Annotations: component,
			Type:        withDeclarationTypeUse(decl.typ, typeUse),
			Pos:         decl.pos,
		})
		params = append(params, param)
	}
	return params
}

func (l *loader) resolveConstructor(sc *scope, ds *declState, c *Constructor) {
	pos := element.Position{Path: ds.doc.path, Line: c.Line, Column: c.Column}
	ctor := &element.Element{Kind: element.KindConstructor, Name: "<init>", Modifiers: []element.Modifier{element.ModifierPublic}, Pos: pos}
	for _, e := range c.Annotations {
		a, ok := l.annotation(sc, e)
		if !ok {
			continue
		}
		if !a.Type.ApplicableTo(element.TargetConstructor) {
			l.notApplicable(a, "constructor")
			continue
		}
		ctor.Annotations = append(ctor.Annotations, a)
	}
	for _, v := range c.Parameters {
		decl, ok := l.variable(sc, v)
		if !ok {
			continue
		}
		var annotations, typeUse []element.AnnotationMirror
		for _, a := range decl.annotations {
			param := a.Type.ApplicableTo(element.TargetParameter)
			use := a.Type.ApplicableTo(element.TargetTypeUse)
			if param {
				annotations = append(annotations, a)
			}
			if use {
				typeUse = append(typeUse, a)
			}
			if !param && !use {
				l.notApplicable(a, "parameter")
			}
		}
		ctor.Parameters = append(ctor.Parameters, &element.Element{
			Kind:        element.KindParameter,
			Name:        decl.name,
			Enclosing:   ctor,
			Annotations: annotations,
			Type:        withDeclarationTypeUse(decl.typ, typeUse),
			Pos:         decl.pos,
		})
	}
	ds.elem.AddEnclosed(ctor)
}

// hasCanonicalConstructor reports whether a declared constructor takes the component types in
// component order.
func (l *loader) hasCanonicalConstructor(rec *element.Element) bool {
	for _, ctor := range rec.Constructors() {
		if len(ctor.Parameters) != len(rec.RecordComponents) {
			continue
		}
		same := true
		for i, p := range ctor.Parameters {
			if element.ErasedName(p.Type) != element.ErasedName(rec.RecordComponents[i].Type) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func (l *loader) addCanonicalConstructor(rec *element.Element, params [][]element.AnnotationMirror) {
	ctor := &element.Element{Kind: element.KindConstructor, Name: "<init>", Modifiers: []element.Modifier{element.ModifierPublic}, Pos: rec.Pos}
	for i, c := range rec.RecordComponents {
		var annotations []element.AnnotationMirror
		if i < len(params) {
			annotations = params[i]
		}
		ctor.Parameters = append(ctor.Parameters, &element.Element{
			Kind:        element.KindParameter,
			Name:        c.Name,
			Enclosing:   ctor,
			Annotations: annotations,
			Type:        c.Type,
			Pos:         c.Pos,
		})
	}
	rec.AddEnclosed(ctor)
}

// withDeclarationTypeUse adds type-use annotations written in declaration position. On arrays
// they belong to the element type.
func withDeclarationTypeUse(t element.TypeMirror, annotations []element.AnnotationMirror) element.TypeMirror {
	if len(annotations) == 0 {
		return t
	}
	if array, ok := t.(*element.ArrayType); ok {
		return element.NewArray(withDeclarationTypeUse(array.Component, annotations), array.Annotations()...)
	}
	merged := append(append([]element.AnnotationMirror(nil), annotations...), t.Annotations()...)
	return element.WithAnnotations(t, merged)
}

// invalidBound explains why t cannot bound a type parameter with count bounds, or returns "".
func invalidBound(t element.TypeMirror, count int) string {
	switch t.(type) {
	case *element.DeclaredType:
		return ""
	case *element.TypeVariable:
		if count > 1 {
			return "a type variable may not be followed by other bounds"
		}
		return ""
	default:
		return "a class, interface or type variable is required"
	}
}

// checkBoundCycles reports type parameters of elem whose chain of first bounds leads back to
// themselves. The reported parameter is rebound to Object so later passes terminate.
func (l *loader) checkBoundCycles(elem *element.Element) {
	for _, tp := range elem.TypeParameters {
		chain := []string{tp.Name}
		seen := map[*element.Element]bool{tp: true}
		for next := tp; len(next.Bounds) > 0; {
			tv, ok := next.Bounds[0].(*element.TypeVariable)
			if !ok {
				break
			}
			chain = append(chain, tv.Element.Name)
			if tv.Element == tp {
				l.diags.Add(diagnostics.Error(fmt.Sprintf("cyclic inheritance involving %s", tp.Name)).
					WithCode(diagnostics.ErrLoadInvalidComponent).
					AtLocation(diagnostics.LocationOf(tp.Pos)).
					About(elem.QualifiedName()).
					WithSource("loader").
					WithNote(strings.Join(chain, " extends ")).
					Build())
				tp.Bounds = []element.TypeMirror{l.u.Object().Type}
				break
			}
			if seen[tv.Element] {
				break
			}
			seen[tv.Element] = true
			next = tv.Element
		}
	}
}

func (l *loader) errorf(code string, pos element.Position, format string, args ...any) {
	l.diags.Add(diagnostics.Error(fmt.Sprintf(format, args...)).
		WithCode(code).
		AtLocation(diagnostics.LocationOf(pos)).
		WithSource("loader").
		Build())
}

func (l *loader) notApplicable(a element.AnnotationMirror, context string) {
	l.errorf(diagnostics.ErrLoadNotApplicable, a.Pos, "annotation @%s not applicable to %s", a.Type.Name, context)
}

func (l *loader) syntaxError(doc *docState, e Expr, err error) {
	column := 1
	if perr, ok := err.(*parseError); ok {
		column = perr.Column
	}
	l.errorf(diagnostics.ErrLoadSyntax, l.exprPos(doc, e, column), "%s", err.Error())
}

// exprPos locates a 1-based column of expression e.
func (l *loader) exprPos(doc *docState, e Expr, column int) element.Position {
	if column < 1 {
		column = 1
	}
	return element.Position{Path: doc.path, Line: e.Line, Column: e.Column + column - 1}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || r == '$' || unicode.IsLetter(r)
		if !letter && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func isQualifiedName(s string) bool {
	return lo.EveryBy(strings.Split(s, "."), isIdentifier)
}
