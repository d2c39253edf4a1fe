package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/electwix/atbuilder/internal/cli"
	"github.com/electwix/atbuilder/internal/diagnostics"
)

func TestRunDryRun(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"generate", "--config", configPath, "--dry-run"}, stdout, stderr)
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", exitCode, stderr.String())
	}

	expected := filepath.Join(filepath.Dir(configPath), "gen", "com", "example", "PersonBuilder.java")
	if !strings.Contains(stdout.String(), expected) {
		t.Fatalf("stdout %q missing generated file %q", stdout.String(), expected)
	}
	if _, err := os.Stat(expected); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote %s", expected)
	}
}

func TestRunGenerate(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"--config", configPath}, stdout, stderr)
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", exitCode, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(configPath), "gen", "com", "example", "PersonBuilder.java"))
	if err != nil {
		t.Fatalf("read generated builder: %v", err)
	}
	for _, want := range []string{
		"public final class PersonBuilder {",
		"private Omittable<@Nullable List<String>> aliases = Omittable.absent();",
		"public PersonBuilder age(int age) {",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("builder missing %q:\n%s", want, data)
		}
	}
}

func TestRunList(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"list", "-c", configPath}, stdout, stderr)
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", exitCode, stderr.String())
	}
	if got := stdout.String(); got != "com.example.Person\n" {
		t.Fatalf("stdout = %q, want the annotated record", got)
	}
}

func TestRunHelp(t *testing.T) {
	stdout := &bytes.Buffer{}
	exitCode := run(context.Background(), []string{"--help"}, stdout, io.Discard)
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}
	if !strings.Contains(stdout.String(), "Usage:") || strings.Contains(stdout.String(), "help requested") {
		t.Fatalf("unexpected help output: %q", stdout.String())
	}
}

func TestRunUsageError(t *testing.T) {
	stderr := &bytes.Buffer{}
	if exitCode := run(context.Background(), []string{"--bogus"}, io.Discard, stderr); exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode)
	}
	if !strings.Contains(stderr.String(), "bogus") {
		t.Fatalf("stderr %q does not name the flag", stderr.String())
	}
}

func TestRunDiagnosticsExitCode(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	writeRecord(t, configPath, `package: com.example
types:
  - kind: record
    name: Broken
    components:
      - Unknown value
`)
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"--config", configPath}, io.Discard, stderr)
	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1; stderr=%q", exitCode, stderr.String())
	}
	out := stderr.String()
	for _, want := range []string{"[E403]", "records/person.yaml:6:", "1 error(s) (1 load)"} {
		if !strings.Contains(filepath.ToSlash(out), want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
}

func TestRunJSONDiagnostics(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	writeRecord(t, configPath, `package: com.example
types:
  - kind: record
    name: Broken
    components:
      - Unknown value
`)
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"--config", configPath, "--format", "json"}, io.Discard, stderr)
	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode)
	}
	var decoded any
	if err := json.Unmarshal(stderr.Bytes(), &decoded); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "E403") {
		t.Fatalf("JSON output missing code: %s", stderr.String())
	}
}

func TestPrintDiagnosticsSortsByLocation(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.Error("third").WithCode(diagnostics.ErrLoadSyntax).At("b.yaml", 2, 1).Build(),
		diagnostics.Error("second").WithCode(diagnostics.ErrLoadSyntax).At("a.yaml", 9, 1).Build(),
		diagnostics.Warning("first").At("a.yaml", 3, 5).Build(),
	}
	var out bytes.Buffer
	printDiagnostics(&out, cli.FormatText, diags)

	text := out.String()
	first, second, third := strings.Index(text, "first"), strings.Index(text, "second"), strings.Index(text, "third")
	if first < 0 || !(first < second && second < third) {
		t.Fatalf("diagnostics not sorted by location:\n%s", text)
	}
	if !strings.HasSuffix(text, "2 error(s) (2 load), 1 warning(s)\n") {
		t.Fatalf("missing summary line:\n%s", text)
	}
	if diags[0].Message != "third" {
		t.Fatal("printDiagnostics reordered the caller's slice")
	}
}

func TestRunWriteFailureExitCode(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	gen := filepath.Join(filepath.Dir(configPath), "gen")
	if err := os.MkdirAll(gen, 0o755); err != nil {
		t.Fatal(err)
	}
	// A file where the package directory belongs makes the write fail.
	if err := os.WriteFile(filepath.Join(gen, "com"), []byte("blocker"), 0o644); err != nil {
		t.Fatal(err)
	}
	stderr := &bytes.Buffer{}

	exitCode := run(context.Background(), []string{"--config", configPath}, io.Discard, stderr)
	if exitCode != 2 {
		t.Fatalf("exit code = %d, want 2; stderr=%q", exitCode, stderr.String())
	}
	if !strings.Contains(stderr.String(), "[E201]") {
		t.Fatalf("stderr missing write diagnostic: %q", stderr.String())
	}
}

func TestRunWatchRegenerates(t *testing.T) {
	configPath := prepareCmdFixtures(t)
	builder := filepath.Join(filepath.Dir(configPath), "gen", "com", "example", "PersonBuilder.java")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "--config", configPath}, io.Discard, &syncBuffer{})
	}()

	waitFor(t, func() bool {
		_, err := os.Stat(builder)
		return err == nil
	})

	updated := `package: com.example
types:
  - kind: record
    name: Person
    annotations: ["@com.osmerion.atbuilder.Builder"]
    components:
      - String name
      - String email
`
	attempts := 0
	waitFor(t, func() bool {
		// The watcher starts after the first run, so rewrite now and then until it sees a change.
		if attempts%4 == 0 {
			writeRecord(t, configPath, updated)
		}
		attempts++
		data, err := os.ReadFile(builder)
		return err == nil && strings.Contains(string(data), "public PersonBuilder email(String email) {")
	})

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("watch exit code = %d, want 0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(250 * time.Millisecond)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func writeRecord(t *testing.T, configPath, contents string) {
	t.Helper()
	path := filepath.Join(filepath.Dir(configPath), "records", "person.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

func prepareCmdFixtures(t *testing.T) string {
	t.Helper()
	src := filepath.Join("testdata")
	dst := t.TempDir()
	copyTree(t, dst, src)
	return filepath.Join(dst, "atbuilder.toml")
}

func copyTree(t *testing.T, dst, src string) {
	t.Helper()
	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatalf("ReadDir %q: %v", src, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				t.Fatalf("MkdirAll %q: %v", dstPath, err)
			}
			copyTree(t, dstPath, srcPath)
			continue
		}
		copyFile(t, dstPath, srcPath)
	}
}

func copyFile(t *testing.T, dst, src string) {
	t.Helper()
	in, err := os.Open(src)
	if err != nil {
		t.Fatalf("open %q: %v", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("create %q: %v", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		t.Fatalf("copy %q -> %q: %v", src, dst, err)
	}
}
