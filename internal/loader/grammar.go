package loader

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

//nolint:govet // Participle struct tags are DSL, not reflect tags
type typeExpr struct {
	Pos         lexer.Position
	Annotations []*annotationExpr `@@*`
	Wildcard    *wildcardExpr     `( @@`
	Segments    []*segmentExpr    `| @@ ( "." @@ )* )`
	Dims        []*dimExpr        `@@*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type wildcardExpr struct {
	Question bool      `@"?"`
	Extends  *typeExpr `( "extends" @@`
	Super    *typeExpr `| "super" @@ )?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type segmentExpr struct {
	Pos         lexer.Position
	Annotations []*annotationExpr `@@*`
	Name        string            `@Ident`
	Args        *typeArgsExpr     `@@?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type typeArgsExpr struct {
	Args []*typeExpr `"<" ( @@ ( "," @@ )* )? ">"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type dimExpr struct {
	Annotations []*annotationExpr `@@* "[" "]"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type annotationExpr struct {
	Pos  lexer.Position
	Name []string            `"@" @Ident ( "." @Ident )*`
	Args *annotationArgsExpr `( "(" @@? ")" )?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type annotationArgsExpr struct {
	Pairs []*annotationPairExpr `  @@ ( "," @@ )*`
	Value *valueExpr            `| @@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type annotationPairExpr struct {
	Name  string     `@Ident "="`
	Value *valueExpr `@@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type valueExpr struct {
	Array  *arrayValueExpr `  @@`
	String *string         `| @String`
	Char   *string         `| @Char`
	Number *string         `| @Number`
	Name   []string        `| @Ident ( "." @Ident )*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type arrayValueExpr struct {
	Values []*valueExpr `"{" ( @@ ( "," @@ )* )? ","? "}"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type variableExpr struct {
	Type *typeExpr `@@`
	Name string    `@Ident`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type typeParamExpr struct {
	Pos         lexer.Position
	Annotations []*annotationExpr `@@*`
	Name        string            `@Ident`
	Bounds      []*typeExpr       `( "extends" @@ ( "&" @@ )* )?`
}

//nolint:govet // Participle DSL uses unkeyed fields
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Whitespace", `\s+`},
	{"String", `"(\\.|[^"\\])*"`},
	{"Char", `'(\\.|[^'\\])+'`},
	{"Number", `-?(0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(\.[0-9_]+)?([eE][+-]?[0-9]+)?)[lLfFdD]?`},
	{"Ident", `[\p{L}_$][\p{L}\p{N}_$]*`},
	{"Punct", `[@<>,.?&\[\](){}=]`},
})

func build[T any]() *participle.Parser[T] {
	return participle.MustBuild[T](
		participle.Lexer(exprLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
}

var (
	typeParser       = build[typeExpr]()
	variableParser   = build[variableExpr]()
	typeParamParser  = build[typeParamExpr]()
	annotationParser = build[annotationExpr]()
)

// parseError is a syntax error at a 1-based column of an expression.
type parseError struct {
	Column int
	Msg    string
}

func (e *parseError) Error() string { return e.Msg }

func parse[T any](p *participle.Parser[T], text string) (*T, error) {
	out, err := p.ParseString("", text)
	if err != nil {
		column := 1
		msg := err.Error()
		if perr, ok := err.(participle.Error); ok {
			column = perr.Position().Column
			msg = perr.Message()
		}
		return nil, &parseError{Column: column, Msg: fmt.Sprintf("invalid expression %q: %s", text, msg)}
	}
	return out, nil
}

func parseType(text string) (*typeExpr, error) { return parse(typeParser, text) }

func parseVariable(text string) (*variableExpr, error) { return parse(variableParser, text) }

func parseTypeParam(text string) (*typeParamExpr, error) { return parse(typeParamParser, text) }

func parseAnnotation(text string) (*annotationExpr, error) { return parse(annotationParser, text) }

// qualifiedName returns the annotation type name as written.
func (a *annotationExpr) qualifiedName() string {
	return strings.Join(a.Name, ".")
}

// source renders the value back to Java source.
func (v *valueExpr) source() string {
	switch {
	case v.Array != nil:
		parts := make([]string, len(v.Array.Values))
		for i, e := range v.Array.Values {
			parts[i] = e.source()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case v.String != nil:
		return *v.String
	case v.Char != nil:
		return *v.Char
	case v.Number != nil:
		return *v.Number
	default:
		return strings.Join(v.Name, ".")
	}
}
