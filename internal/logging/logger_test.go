package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_DefaultLevel(t *testing.T) {
	t.Helper()
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	logger.Debug("debug suppressed")
	if got := buf.Len(); got != 0 {
		t.Fatalf("expected debug output to be suppressed, got %d bytes", got)
	}

	logger.Info("visible message")
	if out := buf.String(); !strings.Contains(out, "visible message") {
		t.Fatalf("expected info log to contain message, got %q", out)
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	t.Helper()
	var buf bytes.Buffer
	logger := New(Options{Verbose: true, Writer: &buf})

	logger.Debug("debug visible")
	if out := buf.String(); !strings.Contains(out, "debug visible") {
		t.Fatalf("expected debug output when verbose, got %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, JSON: true})

	logger.Info("generated builder", "builder", "com.example.PersonBuilder")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "generated builder" || record["builder"] != "com.example.PersonBuilder" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger, id := WithRun(New(Options{Writer: &buf}))

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run id %q is not a UUID: %v", id, err)
	}

	logger.Info("message")
	if out := buf.String(); !strings.Contains(out, RunKey+"="+id) {
		t.Fatalf("output = %q, want run id attribute", out)
	}

	_, other := WithRun(nil)
	if other == id {
		t.Fatal("expected distinct run ids")
	}
}
