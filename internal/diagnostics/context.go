package diagnostics

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ContextExtractor reads source lines for diagnostics, caching files it has read.
type ContextExtractor struct {
	cache map[string][]string
}

// NewContextExtractor creates a new context extractor.
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{cache: make(map[string][]string)}
}

// Attach fills the Context of every located diagnostic that has none. Files that cannot be read
// are skipped.
func (e *ContextExtractor) Attach(diags []Diagnostic) {
	for i := range diags {
		d := &diags[i]
		if d.Context != "" || !d.HasLocation() {
			continue
		}
		ctx, err := e.Extract(d.Location, 0)
		if err != nil {
			continue
		}
		d.Context = ctx.Format()
	}
}

// Extract returns the lines around loc, surrounded by up to contextLines lines on each side.
func (e *ContextExtractor) Extract(loc Location, contextLines int) (Context, error) {
	lines, err := e.lines(loc.Path)
	if err != nil {
		return Context{}, err
	}
	if loc.Line < 1 || loc.Line > len(lines) {
		return Context{}, fmt.Errorf("line %d out of range [1, %d]", loc.Line, len(lines))
	}
	start := max(loc.Line-contextLines, 1)
	end := min(loc.Line+contextLines, len(lines))
	return Context{
		Lines:       append([]string(nil), lines[start-1:end]...),
		StartLine:   start,
		ErrorLine:   loc.Line,
		ErrorColumn: loc.Column,
	}, nil
}

func (e *ContextExtractor) lines(path string) ([]string, error) {
	if lines, ok := e.cache[path]; ok {
		return lines, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	lines := splitLines(content)
	e.cache[path] = lines
	return lines, nil
}

func splitLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// Context is a window of source lines around a diagnostic.
type Context struct {
	Lines       []string
	StartLine   int
	ErrorLine   int
	ErrorColumn int
}

// Format renders the window with line numbers and a caret under the error column.
func (c Context) Format() string {
	if len(c.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	width := len(fmt.Sprintf("%d", c.StartLine+len(c.Lines)-1))
	for i, line := range c.Lines {
		n := c.StartLine + i
		marker := " "
		if n == c.ErrorLine {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %*d | %s\n", marker, width, n, line)
		if n == c.ErrorLine && c.ErrorColumn > 0 {
			b.WriteString(strings.Repeat(" ", width+5))
			for j := 0; j < c.ErrorColumn-1 && j < len(line); j++ {
				if line[j] == '\t' {
					b.WriteByte('\t')
				} else {
					b.WriteByte(' ')
				}
			}
			b.WriteString("^\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
