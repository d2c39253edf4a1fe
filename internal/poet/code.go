package poet

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

type partKind int

const (
	partText partKind = iota
	partLiteral
	partName
	partString
	partType
	partIndent
	partUnindent
)

type codePart struct {
	kind partKind
	text string
	typ  TypeName
	code *CodeBlock
}

// CodeBlock is a fragment of Java code built from a format string. Placeholders:
//
//	$L  literal: a string, a CodeBlock or any value formatted with %v
//	$N  name: a string or a spec with a name
//	$S  string literal, quoted and escaped
//	$T  type: a TypeName, rendered with import management
//	$$  a dollar sign
//	$>  increase the indentation level
//	$<  decrease the indentation level
type CodeBlock struct {
	parts []codePart
}

// Code parses format and args into a CodeBlock. Malformed formats are programming errors and
// panic.
func Code(format string, args ...any) CodeBlock {
	var b CodeBlock
	b.add(format, args)
	return b
}

// IsEmpty reports whether the block contains no code.
func (c CodeBlock) IsEmpty() bool { return len(c.parts) == 0 }

func (c CodeBlock) String() string {
	w := newCodeWriter("", "    ")
	c.emit(w)
	return w.String()
}

func (c *CodeBlock) add(format string, args []any) {
	next := 0
	text := func(s string) {
		if s != "" {
			c.parts = append(c.parts, codePart{kind: partText, text: s})
		}
	}
	for {
		i := strings.IndexByte(format, '$')
		if i < 0 {
			text(format)
			break
		}
		if i+1 >= len(format) {
			panic(errors.AssertionFailedf("dangling $ in format %q", format))
		}
		text(format[:i])
		verb := format[i+1]
		format = format[i+2:]
		switch verb {
		case '$':
			text("$")
			continue
		case '>':
			c.parts = append(c.parts, codePart{kind: partIndent})
			continue
		case '<':
			c.parts = append(c.parts, codePart{kind: partUnindent})
			continue
		}
		if next >= len(args) {
			panic(errors.AssertionFailedf("format %q needs more than %d arguments", format, len(args)))
		}
		arg := args[next]
		next++
		switch verb {
		case 'L':
			c.parts = append(c.parts, literalPart(arg))
		case 'N':
			c.parts = append(c.parts, codePart{kind: partName, text: nameOf(arg)})
		case 'S':
			c.parts = append(c.parts, codePart{kind: partString, text: fmt.Sprint(arg)})
		case 'T':
			t, ok := arg.(TypeName)
			if !ok {
				panic(errors.AssertionFailedf("$T expects a TypeName, got %T", arg))
			}
			c.parts = append(c.parts, codePart{kind: partType, typ: t})
		default:
			panic(errors.AssertionFailedf("unknown placeholder $%c", verb))
		}
	}
	if next != len(args) {
		panic(errors.AssertionFailedf("%d unused arguments", len(args)-next))
	}
}

func literalPart(arg any) codePart {
	switch v := arg.(type) {
	case CodeBlock:
		return codePart{kind: partLiteral, code: &v}
	case *CodeBlock:
		return codePart{kind: partLiteral, code: v}
	case string:
		return codePart{kind: partText, text: v}
	default:
		return codePart{kind: partText, text: fmt.Sprint(v)}
	}
}

func nameOf(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case ParameterSpec:
		return v.Name
	case FieldSpec:
		return v.Name
	case MethodSpec:
		return v.Name
	default:
		panic(errors.AssertionFailedf("$N expects a name, got %T", arg))
	}
}

func (c CodeBlock) emit(w *codeWriter) {
	for _, p := range c.parts {
		switch p.kind {
		case partText:
			w.emit(p.text)
		case partLiteral:
			p.code.emit(w)
		case partName:
			w.emit(p.text)
		case partString:
			w.emit(quote(p.text))
		case partType:
			p.typ.emit(w)
		case partIndent:
			w.indent()
		case partUnindent:
			w.unindent()
		}
	}
}

func (c CodeBlock) endsWithNewline() bool {
	for i := len(c.parts) - 1; i >= 0; i-- {
		p := c.parts[i]
		switch p.kind {
		case partIndent, partUnindent:
			continue
		case partText:
			return strings.HasSuffix(p.text, "\n")
		case partLiteral:
			return p.code.endsWithNewline()
		default:
			return false
		}
	}
	return false
}

// quote renders s as a Java string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// CodeBuilder accumulates a CodeBlock.
type CodeBuilder struct {
	block CodeBlock
}

// Add appends formatted code.
func (b *CodeBuilder) Add(format string, args ...any) *CodeBuilder {
	b.block.add(format, args)
	return b
}

// Statement appends formatted code followed by a semicolon and a newline.
func (b *CodeBuilder) Statement(format string, args ...any) *CodeBuilder {
	b.block.add(format, args)
	b.block.parts = append(b.block.parts, codePart{kind: partText, text: ";\n"})
	return b
}

// Indent increases the indentation of subsequent lines.
func (b *CodeBuilder) Indent() *CodeBuilder {
	b.block.parts = append(b.block.parts, codePart{kind: partIndent})
	return b
}

// Unindent decreases the indentation of subsequent lines.
func (b *CodeBuilder) Unindent() *CodeBuilder {
	b.block.parts = append(b.block.parts, codePart{kind: partUnindent})
	return b
}

// Build returns the accumulated block.
func (b *CodeBuilder) Build() CodeBlock {
	return CodeBlock{parts: append([]codePart(nil), b.block.parts...)}
}

// JoinCode joins blocks with sep between them.
func JoinCode(blocks []CodeBlock, sep string) CodeBlock {
	var out CodeBlock
	for i, block := range blocks {
		if i > 0 {
			out.parts = append(out.parts, codePart{kind: partText, text: sep})
		}
		out.parts = append(out.parts, block.parts...)
	}
	return out
}
