package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats diagnostics for display.
type Formatter struct {
	// ShowContext controls whether to display source snippets.
	ShowContext bool
	// ShowNotes controls whether to display notes and related locations.
	ShowNotes bool
	// ShowCode controls whether to display diagnostic codes.
	ShowCode bool
	// ShowCodeDescription controls whether to display code descriptions.
	ShowCodeDescription bool
	// Colorize controls whether to use ANSI color codes.
	Colorize bool
}

// NewFormatter creates a new formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowContext: true,
		ShowNotes:   true,
		ShowCode:    true,
	}
}

// NewVerboseFormatter creates a formatter with all options enabled except colors.
func NewVerboseFormatter() *Formatter {
	return &Formatter{
		ShowContext:         true,
		ShowNotes:           true,
		ShowCode:            true,
		ShowCodeDescription: true,
	}
}

// Format formats a single diagnostic.
func (f *Formatter) Format(d Diagnostic) string {
	var b strings.Builder
	if d.HasLocation() {
		fmt.Fprintf(&b, "%s: ", f.colorize(d.Location.String(), colorCyan))
	}
	fmt.Fprintf(&b, "%s: %s", f.colorize(d.Severity.String(), severityColor(d.Severity)), d.Message)
	if f.ShowCode && d.Code != "" {
		fmt.Fprintf(&b, " %s", f.colorize("["+d.Code+"]", colorMagenta))
		if f.ShowCodeDescription {
			if desc, ok := descriptions[d.Code]; ok {
				fmt.Fprintf(&b, " (%s)", desc)
			}
		}
	}
	b.WriteString("\n")

	if f.ShowContext && d.Context != "" {
		for _, line := range strings.Split(d.Context, "\n") {
			fmt.Fprintf(&b, "  %s %s\n", f.colorize("|", colorBlue), line)
		}
	}
	if f.ShowNotes {
		for _, note := range d.Notes {
			fmt.Fprintf(&b, "  %s %s\n", f.colorize("note:", colorBlue), note)
		}
		for _, rel := range d.Related {
			fmt.Fprintf(&b, "  %s %s: %s\n", f.colorize("related:", colorMagenta), rel.Location, rel.Message)
		}
	}
	return b.String()
}

// WriteAll writes all diagnostics to w.
func (f *Formatter) WriteAll(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := io.WriteString(w, f.Format(d)); err != nil {
			return err
		}
	}
	return nil
}

// PrintSummary prints a one-line count of errors, by category, and warnings.
func (f *Formatter) PrintSummary(w io.Writer, c *Collection) {
	summary := c.Summary()
	if summary.Errors+summary.Warnings == 0 {
		return
	}
	var parts []string
	if summary.Errors > 0 {
		text := fmt.Sprintf("%d error(s)", summary.Errors)
		if breakdown := c.Categorize().ErrorBreakdown(); breakdown != "" {
			text += " (" + breakdown + ")"
		}
		parts = append(parts, f.colorize(text, colorRed))
	}
	if summary.Warnings > 0 {
		parts = append(parts, f.colorize(fmt.Sprintf("%d warning(s)", summary.Warnings), colorYellow))
	}
	_, _ = fmt.Fprintln(w, strings.Join(parts, ", "))
}

func severityColor(s Severity) string {
	switch s {
	case SeverityError:
		return colorRed
	case SeverityWarning:
		return colorYellow
	case SeverityInfo:
		return colorBlue
	default:
		return colorReset
	}
}

func (f *Formatter) colorize(s, color string) string {
	if !f.Colorize {
		return s
	}
	return color + s + colorReset
}

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

type jsonDiagnostic struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

// WriteJSON writes diags as a JSON array.
func WriteJSON(w io.Writer, diags []Diagnostic) error {
	out := make([]jsonDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = jsonDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
			Path:     d.Location.Path,
			Line:     d.Location.Line,
			Column:   d.Location.Column,
			Subject:  d.Subject,
			Notes:    d.Notes,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
