package loader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one declaration file: a package and the types it declares.
type Document struct {
	Package     string     `yaml:"package"`
	Annotations []Expr     `yaml:"annotations"`
	Imports     []Expr     `yaml:"imports"`
	Types       []TypeDecl `yaml:"types"`
}

// Expr is a scalar written in Java syntax together with the position of its first character.
type Expr struct {
	Text   string
	Line   int
	Column int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expr) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return syntaxErrorf(value, "expected a scalar expression")
	}
	e.Text = value.Value
	e.Line, e.Column = value.Line, value.Column
	if value.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		e.Column++
	}
	return nil
}

// TypeDecl declares a class, interface, enum, record or annotation type.
type TypeDecl struct {
	Kind           string        `yaml:"kind"`
	Name           string        `yaml:"name"`
	Static         bool          `yaml:"static"`
	Annotations    []Expr        `yaml:"annotations"`
	TypeParameters []Expr        `yaml:"typeParameters"`
	Components     []Variable    `yaml:"components"`
	Constructors   []Constructor `yaml:"constructors"`
	Target         []Expr        `yaml:"target"`
	Types          []TypeDecl    `yaml:"types"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

var typeDeclKeys = []string{"kind", "name", "static", "annotations", "typeParameters", "components", "constructors", "target", "types"}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TypeDecl) UnmarshalYAML(value *yaml.Node) error {
	if err := checkMapping(value, typeDeclKeys); err != nil {
		return err
	}
	type plain TypeDecl
	if err := value.Decode((*plain)(t)); err != nil {
		return err
	}
	t.Line, t.Column = value.Line, value.Column
	return nil
}

// Variable is a record component or constructor parameter. It is written either as a single
// declaration such as "@A List<String> name" (Decl) or as a mapping of name, type and annotations.
type Variable struct {
	Decl        *Expr
	Name        string `yaml:"name"`
	Type        Expr   `yaml:"type"`
	Annotations []Expr `yaml:"annotations"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Variable) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var decl Expr
		if err := value.Decode(&decl); err != nil {
			return err
		}
		*v = Variable{Decl: &decl, Line: decl.Line, Column: decl.Column}
		return nil
	case yaml.MappingNode:
		if err := checkMapping(value, []string{"name", "type", "annotations"}); err != nil {
			return err
		}
		var tmp struct {
			Name        string `yaml:"name"`
			Type        Expr   `yaml:"type"`
			Annotations []Expr `yaml:"annotations"`
		}
		if err := value.Decode(&tmp); err != nil {
			return err
		}
		if tmp.Name == "" || tmp.Type.Text == "" {
			return syntaxErrorf(value, "a variable mapping needs both name and type")
		}
		*v = Variable{Name: tmp.Name, Type: tmp.Type, Annotations: tmp.Annotations, Line: value.Line, Column: value.Column}
		return nil
	default:
		return syntaxErrorf(value, "expected a variable declaration or a mapping")
	}
}

// Constructor is an explicitly declared constructor.
type Constructor struct {
	Annotations []Expr     `yaml:"annotations"`
	Parameters  []Variable `yaml:"parameters"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Constructor) UnmarshalYAML(value *yaml.Node) error {
	if err := checkMapping(value, []string{"annotations", "parameters"}); err != nil {
		return err
	}
	type plain Constructor
	if err := value.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line, c.Column = value.Line, value.Column
	return nil
}

// SyntaxError is a malformed declaration document.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func syntaxErrorf(n *yaml.Node, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

func checkMapping(n *yaml.Node, allowed []string) error {
	if n.Kind != yaml.MappingNode {
		return syntaxErrorf(n, "expected a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return syntaxErrorf(key, "unknown key %q", key.Value)
		}
	}
	return nil
}

// ParseDocument decodes a declaration document. The second result is false for a document that
// contains nothing at all.
func ParseDocument(data []byte) (*Document, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, false, yamlError(err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return &Document{}, false, nil
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		node = node.Content[0]
	}
	if err := checkMapping(node, []string{"package", "annotations", "imports", "types"}); err != nil {
		return nil, false, err
	}
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return nil, false, yamlError(err)
	}
	return &doc, true, nil
}

// yamlError converts the decoder's errors into a SyntaxError carrying the reported line.
func yamlError(err error) error {
	var syntax *SyntaxError
	if errors.As(err, &syntax) {
		return syntax
	}
	msg := err.Error()
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")
	out := &SyntaxError{Msg: msg}
	var line int
	if _, scanErr := fmt.Sscanf(msg, "line %d:", &line); scanErr == nil {
		out.Line = line
		out.Msg = strings.TrimSpace(msg[strings.IndexByte(msg, ':')+1:])
	}
	return out
}
