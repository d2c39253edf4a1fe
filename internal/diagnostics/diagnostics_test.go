package diagnostics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/electwix/atbuilder/internal/element"
)

func TestDiagnosticError(t *testing.T) {
	d := Error("No primary constructor found for record").
		WithCode(ErrModelNoPrimaryCtor).
		At("model/foo.yaml", 4, 5).
		Build()

	want := "model/foo.yaml:4:5: [E102] error: No primary constructor found for record"
	if got := d.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	bare := Warning("nothing to do").Build()
	if got := bare.Error(); got != "warning: nothing to do" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestCollection(t *testing.T) {
	c := NewCollection()
	c.Add(Warning("b").At("b.yaml", 1, 1).Build())
	c.Add(Error("a2").WithCode(ErrLoadSyntax).At("a.yaml", 3, 1).Build())
	c.Add(Error("a1").WithCode(ErrLoadSyntax).At("a.yaml", 1, 7).Build())
	c.Add(Error("model").WithCode(ErrModelNotRecord).Build())

	if !c.HasErrors() {
		t.Fatalf("HasErrors() = false")
	}
	if got := c.Summary(); got != (Summary{Total: 4, Errors: 3, Warnings: 1}) {
		t.Fatalf("Summary() = %+v", got)
	}
	c.SortByLocation()
	var order []string
	for _, d := range c.All() {
		order = append(order, d.Message)
	}
	if got := strings.Join(order, ","); got != "model,a1,a2,b" {
		t.Fatalf("sorted order = %s", got)
	}

	cat := c.Categorize()
	if len(cat.LoadErrors) != 2 || len(cat.ModelErrors) != 1 || len(cat.Warnings) != 1 || len(cat.Uncategorized) != 0 {
		t.Fatalf("Categorize() = %+v", cat)
	}
	if got := cat.ErrorBreakdown(); got != "1 model, 2 load" {
		t.Fatalf("ErrorBreakdown() = %q", got)
	}

	var out bytes.Buffer
	NewFormatter().PrintSummary(&out, c)
	if got := out.String(); got != "3 error(s) (1 model, 2 load), 1 warning(s)\n" {
		t.Fatalf("PrintSummary() = %q", got)
	}
}

func TestCategorizeKeepsCodedWarningsApart(t *testing.T) {
	c := NewCollection()
	c.Add(Warning("cache disabled").WithCode(ErrOutputCache).Build())
	c.Add(Error("write failed").WithCode(ErrOutputWriteFailed).Build())

	cat := c.Categorize()
	if len(cat.Warnings) != 1 || len(cat.OutputErrors) != 1 {
		t.Fatalf("Categorize() = %+v", cat)
	}
	if got := cat.ErrorBreakdown(); got != "1 output" {
		t.Fatalf("ErrorBreakdown() = %q", got)
	}
}

func TestForElement(t *testing.T) {
	u := element.NewUniverse()
	foo := &element.Element{Kind: element.KindClass, Name: "Foo", Pos: element.Position{Path: "foo.yaml", Line: 3, Column: 5}}
	u.Package("com.example").AddEnclosed(foo)
	marker := &element.AnnotationMirror{
		Type: u.Lookup("com.osmerion.atbuilder.Builder"),
		Pos:  element.Position{Path: "foo.yaml", Line: 5, Column: 9},
	}

	d := ForElement(SeverityError, "@Builder may only be applied to records", foo, marker)
	if d.Location != (Location{Path: "foo.yaml", Line: 5, Column: 9}) {
		t.Fatalf("primary location = %+v, want the annotation use", d.Location)
	}
	if d.Subject != "com.example.Foo" {
		t.Fatalf("Subject = %q", d.Subject)
	}
	if len(d.Related) != 1 || d.Related[0].Location.Line != 3 {
		t.Fatalf("Related = %+v, want the declaration", d.Related)
	}

	plain := ForElement(SeverityError, "write failed", foo, nil)
	if plain.Location.Line != 3 || len(plain.Related) != 0 {
		t.Fatalf("element-only diagnostic = %+v", plain)
	}
}

func TestFormatter(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unknown type Strin",
		Code:     ErrLoadUnresolvedType,
		Location: Location{Path: "foo.yaml", Line: 2, Column: 7},
		Context:  "> 2 | - Strin value",
		Notes:    []string{"did you forget an import?"},
	}

	got := NewVerboseFormatter().Format(d)
	for _, want := range []string{
		"foo.yaml:2:7: error: unknown type Strin [E403] (Reference to unknown type)",
		"  | > 2 | - Strin value",
		"  note: did you forget an import?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() missing %q in:\n%s", want, got)
		}
	}

	colored := &Formatter{Colorize: true}
	if !strings.Contains(colored.Format(d), colorRed) {
		t.Errorf("colorized output lacks color codes")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	diags := []Diagnostic{Error("boom").WithCode(ErrOutputWriteFailed).At("x.yaml", 1, 2).Build()}
	if err := WriteJSON(&buf, diags); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded[0]["code"] != "E201" || decoded[0]["line"] != float64(1) {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestContextExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo.yaml")
	content := "package: com.example\ntypes:\n\t- kind: record\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	diags := []Diagnostic{
		Error("bad kind").At(path, 3, 4).Build(),
		Error("no location").Build(),
	}
	NewContextExtractor().Attach(diags)

	want := "> 3 | \t- kind: record\n      \t  ^"
	if diags[0].Context != want {
		t.Fatalf("Context = %q, want %q", diags[0].Context, want)
	}
	if diags[1].Context != "" {
		t.Fatalf("unlocated diagnostic got context %q", diags[1].Context)
	}
}
