package element

type builtin struct {
	pkg        string
	name       string
	kind       Kind
	typeParams []string
	targets    []ElementType
}

var builtins = []builtin{
	{pkg: "java.lang", name: "Object", kind: KindClass},
	{pkg: "java.lang", name: "String", kind: KindClass},
	{pkg: "java.lang", name: "CharSequence", kind: KindInterface},
	{pkg: "java.lang", name: "Number", kind: KindClass},
	{pkg: "java.lang", name: "Boolean", kind: KindClass},
	{pkg: "java.lang", name: "Byte", kind: KindClass},
	{pkg: "java.lang", name: "Short", kind: KindClass},
	{pkg: "java.lang", name: "Integer", kind: KindClass},
	{pkg: "java.lang", name: "Long", kind: KindClass},
	{pkg: "java.lang", name: "Character", kind: KindClass},
	{pkg: "java.lang", name: "Float", kind: KindClass},
	{pkg: "java.lang", name: "Double", kind: KindClass},
	{pkg: "java.lang", name: "Void", kind: KindClass},
	{pkg: "java.lang", name: "Class", kind: KindClass, typeParams: []string{"T"}},
	{pkg: "java.lang", name: "Enum", kind: KindClass, typeParams: []string{"E"}},
	{pkg: "java.lang", name: "Record", kind: KindClass},
	{pkg: "java.lang", name: "Comparable", kind: KindInterface, typeParams: []string{"T"}},
	{pkg: "java.lang", name: "Iterable", kind: KindInterface, typeParams: []string{"T"}},
	{pkg: "java.lang", name: "Runnable", kind: KindInterface},
	{pkg: "java.lang", name: "IllegalStateException", kind: KindClass},
	{pkg: "java.lang", name: "Deprecated", kind: KindAnnotationType},
	{pkg: "java.lang", name: "Override", kind: KindAnnotationType, targets: []ElementType{TargetMethod}},
	{pkg: "java.lang", name: "SuppressWarnings", kind: KindAnnotationType},
	{pkg: "java.lang", name: "SafeVarargs", kind: KindAnnotationType, targets: []ElementType{TargetConstructor, TargetMethod}},
	{pkg: "java.lang", name: "FunctionalInterface", kind: KindAnnotationType, targets: []ElementType{TargetType}},

	{pkg: "java.lang.annotation", name: "Target", kind: KindAnnotationType, targets: []ElementType{TargetAnnotationType}},
	{pkg: "java.lang.annotation", name: "Retention", kind: KindAnnotationType, targets: []ElementType{TargetAnnotationType}},
	{pkg: "java.lang.annotation", name: "Documented", kind: KindAnnotationType, targets: []ElementType{TargetAnnotationType}},
	{pkg: "java.lang.annotation", name: "ElementType", kind: KindEnum},
	{pkg: "java.lang.annotation", name: "RetentionPolicy", kind: KindEnum},

	{pkg: "java.util", name: "Collection", kind: KindInterface, typeParams: []string{"E"}},
	{pkg: "java.util", name: "List", kind: KindInterface, typeParams: []string{"E"}},
	{pkg: "java.util", name: "Set", kind: KindInterface, typeParams: []string{"E"}},
	{pkg: "java.util", name: "Map", kind: KindInterface, typeParams: []string{"K", "V"}},
	{pkg: "java.util", name: "Optional", kind: KindClass, typeParams: []string{"T"}},
	{pkg: "java.util", name: "Objects", kind: KindClass},
	{pkg: "java.util", name: "UUID", kind: KindClass},
	{pkg: "java.time", name: "Instant", kind: KindClass},
	{pkg: "java.time", name: "Duration", kind: KindClass},
	{pkg: "java.math", name: "BigDecimal", kind: KindClass},
	{pkg: "java.math", name: "BigInteger", kind: KindClass},

	{pkg: "org.jspecify.annotations", name: "Nullable", kind: KindAnnotationType, targets: []ElementType{TargetTypeUse}},
	{pkg: "org.jspecify.annotations", name: "NonNull", kind: KindAnnotationType, targets: []ElementType{TargetTypeUse}},
	{pkg: "org.jspecify.annotations", name: "NullMarked", kind: KindAnnotationType, targets: []ElementType{TargetModule, TargetPackage, TargetType, TargetMethod, TargetConstructor}},
	{pkg: "org.jspecify.annotations", name: "NullUnmarked", kind: KindAnnotationType, targets: []ElementType{TargetPackage, TargetType, TargetMethod, TargetConstructor}},

	{pkg: "com.osmerion.omittable", name: "Omittable", kind: KindInterface, typeParams: []string{"T"}},
	{pkg: "com.osmerion.atbuilder", name: "Builder", kind: KindAnnotationType, targets: []ElementType{TargetType}},
}

func declareBuiltins(u *Universe) {
	for _, b := range builtins {
		e := &Element{Kind: b.kind, Name: b.name, Modifiers: []Modifier{ModifierPublic}}
		u.Package(b.pkg).AddEnclosed(e)
		u.Declare(e)

		args := make([]TypeMirror, len(b.typeParams))
		for i, name := range b.typeParams {
			tp := &Element{Kind: KindTypeParameter, Name: name, Enclosing: e}
			tp.Type = NewTypeVariable(tp)
			e.TypeParameters = append(e.TypeParameters, tp)
			args[i] = tp.Type
		}
		e.Type = NewDeclared(e, args)
	}

	// @Target itself needs the ElementType constants resolved, so meta-annotations are attached
	// once every builtin exists.
	target := u.Lookup(TargetAnnotationName)
	for _, b := range builtins {
		if b.targets == nil {
			continue
		}
		values := make([]Value, len(b.targets))
		for i, t := range b.targets {
			values[i] = Value{Literal: "ElementType." + string(t)}
		}
		e := u.Lookup(b.pkg + "." + b.name)
		e.Annotations = append(e.Annotations, AnnotationMirror{
			Type:   target,
			Values: []AnnotationValue{{Name: "value", Value: Value{Array: values, IsArray: true}}},
		})
	}
}
