// Package generator synthesizes the Java source of a builder class from a buildable record model.
package generator

import (
	"github.com/samber/lo"

	"github.com/electwix/atbuilder/internal/buildable"
	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/poet"
	"github.com/electwix/atbuilder/internal/typeconv"
)

// Names are the qualified names of the library types generated builders reference.
type Names struct {
	Omittable    string
	Nullable     string
	NullMarked   string
	NullUnmarked string
}

// Options configures generated sources.
type Options struct {
	Names Names
	// Indent is the indentation unit of generated files.
	Indent string
}

// DefaultOptions returns the Omittable and JSpecify names with four-space indentation.
func DefaultOptions() Options {
	return Options{
		Names: Names{
			Omittable:    "com.osmerion.omittable.Omittable",
			Nullable:     "org.jspecify.annotations.Nullable",
			NullMarked:   "org.jspecify.annotations.NullMarked",
			NullUnmarked: "org.jspecify.annotations.NullUnmarked",
		},
		Indent: "    ",
	}
}

var (
	objects               = poet.ClassNameOf("java.util", "Objects")
	illegalStateException = poet.ClassNameOf("java.lang", "IllegalStateException")
)

// Generator turns Buildable models into builder source files.
type Generator struct {
	opts         Options
	omittable    *poet.ClassName
	nullMarked   *poet.ClassName
	nullUnmarked *poet.ClassName
}

// New returns a generator.
func New(opts Options) *Generator {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	return &Generator{
		opts:         opts,
		omittable:    poet.BestGuess(opts.Names.Omittable),
		nullMarked:   poet.BestGuess(opts.Names.NullMarked),
		nullUnmarked: poet.BestGuess(opts.Names.NullUnmarked),
	}
}

// Options returns the options the generator was created with.
func (g *Generator) Options() Options { return g.opts }

// component is a record component with its converted type and classification.
type component struct {
	buildable.Component
	converted poet.TypeName
	omittable bool
	nullable  bool
	primitive bool
}

// builder holds the names shared by the members of one builder class.
type builder struct {
	source     *poet.ClassName
	sourceType poet.TypeName
	selfType   poet.TypeName
}

// Generate produces the builder for b. It is deterministic: the same model always yields the same
// file.
func (g *Generator) Generate(b *buildable.Buildable) *poet.JavaFile {
	pass := typeconv.NewPass()

	typeVars := make([]*poet.TypeVariable, len(b.TypeParameters))
	typeArgs := make([]poet.TypeName, len(b.TypeParameters))
	for i, tp := range b.TypeParameters {
		typeVars[i] = pass.Variable(tp)
		typeArgs[i] = typeVars[i].Ref()
	}

	self := BuilderName(b)
	name := self.Simple
	bld := builder{source: b.Name, sourceType: b.Name, selfType: self}
	if len(typeArgs) > 0 {
		bld.sourceType = poet.Parameterized(b.Name, typeArgs...)
		bld.selfType = poet.Parameterized(self, typeArgs...)
	}

	components := lo.Map(b.Components, func(c buildable.Component, _ int) component {
		return component{
			Component: c,
			converted: pass.Convert(c.Type),
			omittable: element.ErasedName(c.Type) == g.opts.Names.Omittable,
			nullable:  element.FindAnnotation(c.Type.Annotations(), g.opts.Names.Nullable) != nil,
			primitive: c.Type.Kind().IsPrimitive(),
		}
	})

	spec := poet.TypeSpec{
		Name:          name,
		Javadoc:       poet.Code("A builder for {@link $T} instances.\n", bld.source),
		Modifiers:     []poet.Modifier{poet.Public, poet.Final},
		TypeVariables: typeVars,
	}
	switch b.NullMarker {
	case buildable.NullMarkerMarked:
		spec.Annotations = append(spec.Annotations, poet.Annotation(g.nullMarked))
	case buildable.NullMarkerUnmarked:
		spec.Annotations = append(spec.Annotations, poet.Annotation(g.nullUnmarked))
	}

	for _, c := range components {
		spec.Fields = append(spec.Fields, g.field(c))
	}
	spec.Methods = append(spec.Methods,
		poet.MethodSpec{Constructor: true},
		g.copyConstructor(bld, components),
	)
	for _, c := range components {
		spec.Methods = append(spec.Methods, g.setter(bld, c))
	}
	spec.Methods = append(spec.Methods, g.build(bld, components))

	return &poet.JavaFile{Package: b.Name.Package, Type: spec, Indent: g.opts.Indent}
}

// BuilderName returns the name of the builder generated for b: a top-level class in the record's
// package named after the record's simple name.
func BuilderName(b *buildable.Buildable) *poet.ClassName {
	return poet.ClassNameOf(b.Name.Package, b.Name.Simple+"Builder")
}

func (g *Generator) field(c component) poet.FieldSpec {
	fieldType := g.typeUse(c)
	if !c.omittable {
		fieldType = poet.Parameterized(g.omittable, fieldType.Box())
	}
	return poet.FieldSpec{
		Type:        fieldType,
		Name:        c.Name,
		Modifiers:   []poet.Modifier{poet.Private},
		Initializer: poet.Code("$T.absent()", g.omittable),
	}
}

func (g *Generator) copyConstructor(bld builder, components []component) poet.MethodSpec {
	var code poet.CodeBuilder
	for _, c := range components {
		if c.omittable {
			code.Statement("this.$N = other.$N()", c.Name, c.Name)
		} else {
			code.Statement("this.$N = $T.of(other.$N())", c.Name, g.omittable, c.Name)
		}
	}
	return poet.MethodSpec{
		Constructor: true,
		Parameters:  []poet.ParameterSpec{{Type: bld.sourceType, Name: "other"}},
		Code:        code.Build(),
	}
}

func (g *Generator) setter(bld builder, c component) poet.MethodSpec {
	var code poet.CodeBuilder
	switch {
	case c.omittable:
		code.Statement("this.$N = $N", c.Name, c.Name)
	case c.nullable || c.primitive:
		code.Statement("this.$N = $T.of($N)", c.Name, g.omittable, c.Name)
	default:
		code.Statement("this.$N = $T.of($T.requireNonNull($N, $S))",
			c.Name, g.omittable, objects, c.Name, "Component '"+c.Name+"' may not be null")
	}
	code.Statement("return this")

	// Annotations that are also type-use already appear on the parameter type.
	params := dedupe(lo.Reject(FilterApplicable(c.AnnotationMirrors, element.TargetParameter),
		func(a element.AnnotationMirror, _ int) bool { return a.Type.ApplicableTo(element.TargetTypeUse) }))
	return poet.MethodSpec{
		Name: c.Name,
		Javadoc: poet.Code("Sets the value of the {@link $T#$N() $N} component.\n\n"+
			"@param $N the value for the component\n\n"+
			"@return  this builder instance\n", bld.source, c.Name, c.Name, c.Name),
		Modifiers: []poet.Modifier{poet.Public},
		Returns:   bld.selfType,
		Parameters: []poet.ParameterSpec{{
			Type:        g.typeUse(c),
			Name:        c.Name,
			Annotations: typeconv.Annotations(params),
		}},
		Code: code.Build(),
	}
}

func (g *Generator) build(bld builder, components []component) poet.MethodSpec {
	args := lo.Map(components, func(c component, _ int) poet.CodeBlock {
		if c.omittable {
			return poet.Code("this.$N", c.Name)
		}
		return poet.Code("this.$N.orElseThrow(() -> new $T($S))", c.Name, illegalStateException, "Component '"+c.Name+"' must be set")
	})

	var code poet.CodeBuilder
	if len(args) == 0 {
		code.Add("return new $T(\n);\n", bld.sourceType)
	} else {
		code.Add("return new $T(\n$>$L\n$<);\n", bld.sourceType, poet.JoinCode(args, ",\n"))
	}

	return poet.MethodSpec{
		Name: "build",
		Javadoc: poet.Code("Builds a new {@link $T} instance with the values set in this builder.\n\n"+
			"@return the newly created instance\n\n"+
			"@throws IllegalStateException   if any of the required components are not set\n", bld.source),
		Modifiers: []poet.Modifier{poet.Public},
		Returns:   bld.sourceType,
		Code:      code.Build(),
	}
}

// typeUse returns the component's type carrying only type-use annotations: those written on the
// type itself, followed by type-use applicable declaration annotations not already present.
func (g *Generator) typeUse(c component) poet.TypeName {
	own := FilterApplicable(c.Type.Annotations(), element.TargetTypeUse)
	t := c.converted.WithoutAnnotations().Annotated(typeconv.Annotations(own)...)
	extra := dedupe(FilterApplicable(c.AnnotationMirrors, element.TargetTypeUse))
	return withTypeUse(t, typeconv.Annotations(extra))
}

// withTypeUse adds annotations to the element type of arrays and to t itself otherwise, skipping
// annotations t already carries.
func withTypeUse(t poet.TypeName, extra []poet.AnnotationSpec) poet.TypeName {
	if len(extra) == 0 {
		return t
	}
	if array, ok := t.(*poet.ArrayTypeName); ok {
		return poet.ArrayOf(withTypeUse(array.Component, extra)).Annotated(array.Annotations()...)
	}
	missing := lo.Filter(extra, func(a poet.AnnotationSpec, _ int) bool {
		return !lo.ContainsBy(t.Annotations(), a.Equal)
	})
	return t.Annotated(missing...)
}

// FilterApplicable returns the annotations whose type may be used in context target, preserving
// order. Annotation types without @Target apply to every declaration context and to no type
// context.
func FilterApplicable(annotations []element.AnnotationMirror, target element.ElementType) []element.AnnotationMirror {
	return lo.Filter(annotations, func(a element.AnnotationMirror, _ int) bool {
		return a.Type != nil && a.Type.ApplicableTo(target)
	})
}

// dedupe drops repeated uses of an identical annotation, keeping the first. Uses of the same type
// with different values are kept.
func dedupe(annotations []element.AnnotationMirror) []element.AnnotationMirror {
	return lo.UniqBy(annotations, element.AnnotationMirror.String)
}
