package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := Options{
		Command:    CommandGenerate,
		ConfigPath: "atbuilder.toml",
		Format:     FormatText,
	}
	if opts != want {
		t.Fatalf("Parse(nil) = %+v, want %+v", opts, want)
	}
}

func TestParseCommands(t *testing.T) {
	for _, command := range []string{CommandGenerate, CommandList, CommandWatch} {
		opts, err := Parse([]string{command})
		if err != nil {
			t.Fatalf("Parse(%s) returned error: %v", command, err)
		}
		if opts.Command != command {
			t.Fatalf("Command = %q, want %q", opts.Command, command)
		}
	}
}

func TestParseOverrides(t *testing.T) {
	args := []string{
		"generate",
		"--config", "project.toml",
		"--out", "build",
		"--dry-run",
		"--strict-config",
		"--log-json",
		"--format", "json",
		"-v",
	}

	opts, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := Options{
		Command:      CommandGenerate,
		ConfigPath:   "project.toml",
		Out:          "build",
		DryRun:       true,
		StrictConfig: true,
		Verbose:      true,
		LogJSON:      true,
		Format:       FormatJSON,
	}
	if opts != want {
		t.Fatalf("Parse = %+v, want %+v", opts, want)
	}
}

func TestParseShortFlagsBeforeCommand(t *testing.T) {
	opts, err := Parse([]string{"-c", "other.toml", "list"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if opts.Command != CommandList || opts.ConfigPath != "other.toml" {
		t.Fatalf("Parse = %+v", opts)
	}
}

func TestParseHelp(t *testing.T) {
	_, err := Parse([]string{"--help"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(err.Error(), "--strict-config") {
		t.Fatalf("help output missing flag documentation: %q", err.Error())
	}
}

func TestParseErrors(t *testing.T) {
	tests := [][]string{
		{"--unknown"},
		{"generate", "extra"},
		{"--format", "xml"},
	}
	for _, args := range tests {
		_, err := Parse(args)
		if err == nil {
			t.Fatalf("Parse(%v) succeeded, want error", args)
		}
		if errors.Is(err, ErrHelp) {
			t.Fatalf("Parse(%v) returned ErrHelp", args)
		}
	}
}
