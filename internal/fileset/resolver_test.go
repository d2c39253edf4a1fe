package fileset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestResolverResolveSuccess(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"model/person.yaml":        &fstest.MapFile{Mode: fs.ModePerm},
		"model/address.yaml":       &fstest.MapFile{Mode: fs.ModePerm},
		"api/request.yaml":         &fstest.MapFile{Mode: fs.ModePerm},
		"api/response.yaml":        &fstest.MapFile{Mode: fs.ModePerm},
		"api/legacy/envelope.yaml": &fstest.MapFile{Mode: fs.ModePerm},
	}

	resolver := NewResolver(fsys)
	patterns := []string{
		"api/*.yaml",
		"model/*.yaml",
		"api/request.yaml",
	}

	paths, err := resolver.Resolve(patterns)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	expected := []string{
		"api/request.yaml",
		"api/response.yaml",
		"model/address.yaml",
		"model/person.yaml",
	}
	if diff := cmp.Diff(expected, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverResolveDoubleStar(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"records/person.yaml":            &fstest.MapFile{},
		"records/nested/deep/order.yaml": &fstest.MapFile{},
		"records/nested/notes.txt":       &fstest.MapFile{},
		"records/generated/skipped.yaml": &fstest.MapFile{},
		"other/ignored.yaml":             &fstest.MapFile{},
	}

	resolver := NewResolver(fsys).Exclude("records/generated")

	paths, err := resolver.Resolve([]string{"records/**/*.yaml"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	expected := []string{
		"records/nested/deep/order.yaml",
		"records/person.yaml",
	}
	if diff := cmp.Diff(expected, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverExcludeEverythingIsNoMatch(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"records/a.yaml": &fstest.MapFile{},
		"records/b.yaml": &fstest.MapFile{},
	}

	_, err := NewResolver(fsys).Exclude("**/*.yaml").Resolve([]string{"records/*.yaml"})

	var noMatchErr NoMatchError
	if !errors.As(err, &noMatchErr) {
		t.Fatalf("expected NoMatchError, got %T: %v", err, err)
	}
}

func TestResolverResolveNoMatches(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"api/request.yaml": &fstest.MapFile{Mode: fs.ModePerm},
	}

	resolver := NewResolver(fsys)
	patterns := []string{
		"model/*.yaml",
		"api/nope.yaml",
	}

	_, err := resolver.Resolve(patterns)
	if err == nil {
		t.Fatal("expected error for missing patterns")
	}

	var noMatchErr NoMatchError
	if !errors.As(err, &noMatchErr) {
		t.Fatalf("expected NoMatchError, got %T: %v", err, err)
	}

	if diff := cmp.Diff(patterns, noMatchErr.Patterns); diff != "" {
		t.Fatalf("unexpected missing patterns (-want +got):\n%s", diff)
	}
}

func TestResolverResolveInvalidPattern(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"[", "records/**/["} {
		_, err := NewResolver(fstest.MapFS{}).Resolve([]string{pattern})

		var patternErr PatternError
		if !errors.As(err, &patternErr) {
			t.Fatalf("%s: expected PatternError, got %T: %v", pattern, err, err)
		}
		if patternErr.Pattern != pattern {
			t.Fatalf("unexpected pattern on error: %q", patternErr.Pattern)
		}
	}

	_, err := NewResolver(fstest.MapFS{"a.yaml": &fstest.MapFile{}}).Exclude("[").Resolve([]string{"*.yaml"})
	var patternErr PatternError
	if !errors.As(err, &patternErr) || patternErr.Pattern != "[" {
		t.Fatalf("expected PatternError for exclude, got %v", err)
	}
}

func TestResolverResolveNoPatterns(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(fstest.MapFS{})

	_, err := resolver.Resolve(nil)
	if !errors.Is(err, ErrNoPatterns) {
		t.Fatalf("expected ErrNoPatterns, got %v", err)
	}
}

func TestOSResolverReturnsAbsolutePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "records"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "records", "person.yaml"), []byte("package: p\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	resolver, err := NewOSResolver(dir)
	if err != nil {
		t.Fatalf("NewOSResolver: %v", err)
	}
	paths, err := resolver.Resolve([]string{"records/*.yaml"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := []string{filepath.Join(dir, "records", "person.yaml")}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewOSResolver(filepath.Join(dir, "records", "person.yaml")); err == nil {
		t.Fatal("expected error for a non-directory base")
	}
}
