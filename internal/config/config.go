// Package config loads and validates the atbuilder configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/electwix/atbuilder/internal/cache"
	"github.com/electwix/atbuilder/internal/fileset"
)

// DefaultIndent is the indentation unit of generated sources when indent is not configured.
const DefaultIndent = "    "

// Annotations are the qualified names of the annotations and library types builders are
// generated against. Empty fields keep their defaults.
type Annotations struct {
	Builder      string `toml:"builder"`
	NullMarked   string `toml:"null_marked"`
	NullUnmarked string `toml:"null_unmarked"`
	Nullable     string `toml:"nullable"`
	Omittable    string `toml:"omittable"`
}

// DefaultAnnotations returns the atbuilder, JSpecify and Omittable names.
func DefaultAnnotations() Annotations {
	return Annotations{
		Builder:      "com.osmerion.atbuilder.Builder",
		NullMarked:   "org.jspecify.annotations.NullMarked",
		NullUnmarked: "org.jspecify.annotations.NullUnmarked",
		Nullable:     "org.jspecify.annotations.Nullable",
		Omittable:    "com.osmerion.omittable.Omittable",
	}
}

// CacheConfig mirrors the [cache] table.
type CacheConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	TTL     string `toml:"ttl"`
}

// Cache is the normalized cache configuration forwarded to the pipeline.
type Cache struct {
	Backend string
	Dir     string
	// TTL bounds the lifetime of cached builders; zero keeps them until cleared.
	TTL time.Duration
}

// JobPlan is the fully-resolved configuration used by downstream stages.
type JobPlan struct {
	Sources     []string
	Out         string
	Indent      string
	Annotations Annotations
	Cache       Cache
}

// Config mirrors the expected atbuilder TOML schema.
type Config struct {
	Sources     []string    `toml:"sources"`
	Exclude     []string    `toml:"exclude"`
	Out         string      `toml:"out"`
	Indent      *int        `toml:"indent"`
	Annotations Annotations `toml:"annotations"`
	Cache       CacheConfig `toml:"cache"`
}

// UnknownKeysError reports configuration keys outside the atbuilder schema. Nested keys are
// written as table.key.
type UnknownKeysError struct {
	Path string
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	return fmt.Sprintf("%s: unknown configuration keys: %s", e.Path, strings.Join(e.Keys, ", "))
}

// PathError reports a configured path that cannot be used.
type PathError struct {
	Path   string
	Field  string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Path, e.Field, e.Reason)
}

// LoadOptions tunes config loading behavior.
type LoadOptions struct {
	Strict   bool
	Resolver *fileset.Resolver
}

// Result wraps a loaded job plan alongside any non-fatal warnings.
type Result struct {
	Plan     JobPlan
	Warnings []string
}

var knownKeys = map[string]map[string]struct{}{
	"": {
		"sources":     {},
		"exclude":     {},
		"out":         {},
		"indent":      {},
		"annotations": {},
		"cache":       {},
	},
	"annotations": {
		"builder":       {},
		"null_marked":   {},
		"null_unmarked": {},
		"nullable":      {},
		"omittable":     {},
	},
	"cache": {
		"backend": {},
		"dir":     {},
		"ttl":     {},
	},
}

// Load reads, validates, and resolves an atbuilder configuration file.
func Load(path string, opts LoadOptions) (Result, error) {
	var res Result

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	unknownKeys, err := collectUnknownKeys(data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if len(unknownKeys) > 0 {
		slices.Sort(unknownKeys)
		unknownErr := &UnknownKeysError{Path: path, Keys: unknownKeys}
		if opts.Strict {
			return res, unknownErr
		}
		res.Warnings = append(res.Warnings, unknownErr.Error())
	}

	out, err := resolveOut(path, cfg.Out)
	if err != nil {
		return res, err
	}

	indent, err := resolveIndent(path, cfg.Indent)
	if err != nil {
		return res, err
	}

	annotations, err := resolveAnnotations(path, cfg.Annotations)
	if err != nil {
		return res, err
	}

	cacheCfg, err := resolveCache(path, cfg.Cache)
	if err != nil {
		return res, err
	}

	baseDir := filepath.Dir(path)

	var resolver fileset.Resolver
	if opts.Resolver != nil {
		resolver = *opts.Resolver
	} else {
		resolver, err = fileset.NewOSResolver(baseDir)
		if err != nil {
			return res, fmt.Errorf("%s: %w", path, err)
		}
	}
	resolver = resolver.Exclude(cfg.Exclude...)

	sources, err := resolvePatterns(resolver, "sources", cfg.Sources)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	res.Plan = JobPlan{
		Sources:     sources,
		Out:         out,
		Indent:      indent,
		Annotations: annotations,
		Cache:       cacheCfg,
	}

	return res, nil
}

func collectUnknownKeys(data []byte) ([]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	unknown := make([]string, 0)
	for key, value := range raw {
		if _, ok := knownKeys[""][key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		known, nested := knownKeys[key]
		table, ok := value.(map[string]any)
		if !nested || !ok {
			continue
		}
		for sub := range table {
			if _, ok := known[sub]; !ok {
				unknown = append(unknown, key+"."+sub)
			}
		}
	}

	return unknown, nil
}

func resolveOut(path, out string) (string, error) {
	if out == "" {
		return "", &PathError{Path: path, Field: "out", Reason: "is required"}
	}
	if filepath.IsAbs(out) {
		return "", &PathError{Path: path, Field: "out", Reason: "must be a relative path"}
	}

	cleaned := filepath.Clean(out)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", &PathError{Path: path, Field: "out", Reason: "must not traverse upwards"}
	}

	baseDir := filepath.Dir(path)
	return filepath.Join(baseDir, cleaned), nil
}

func resolveIndent(path string, indent *int) (string, error) {
	if indent == nil {
		return DefaultIndent, nil
	}
	if *indent < 1 || *indent > 8 {
		return "", fmt.Errorf("%s: indent must be between 1 and 8, got %d", path, *indent)
	}
	return strings.Repeat(" ", *indent), nil
}

func resolveAnnotations(path string, cfg Annotations) (Annotations, error) {
	names := DefaultAnnotations()
	fields := []struct {
		key   string
		value string
		dst   *string
	}{
		{"builder", cfg.Builder, &names.Builder},
		{"null_marked", cfg.NullMarked, &names.NullMarked},
		{"null_unmarked", cfg.NullUnmarked, &names.NullUnmarked},
		{"nullable", cfg.Nullable, &names.Nullable},
		{"omittable", cfg.Omittable, &names.Omittable},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if !isQualifiedName(f.value) {
			return Annotations{}, fmt.Errorf("%s: annotations.%s: invalid qualified name %q", path, f.key, f.value)
		}
		*f.dst = f.value
	}
	return names, nil
}

func resolveCache(path string, cfg CacheConfig) (Cache, error) {
	out := Cache{Backend: cfg.Backend}
	switch cfg.Backend {
	case "":
		out.Backend = cache.BackendNone
	case cache.BackendNone, cache.BackendMemory:
	case cache.BackendFile, cache.BackendSQLite:
		if cfg.Dir == "" {
			return Cache{}, &PathError{Path: path, Field: "cache.dir", Reason: "is required for the " + cfg.Backend + " backend"}
		}
		out.Dir = cfg.Dir
		if !filepath.IsAbs(out.Dir) {
			out.Dir = filepath.Join(filepath.Dir(path), filepath.Clean(out.Dir))
		}
	default:
		return Cache{}, fmt.Errorf("%s: unsupported cache.backend %q", path, cfg.Backend)
	}

	if cfg.TTL != "" {
		ttl, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return Cache{}, fmt.Errorf("%s: cache.ttl: %w", path, err)
		}
		if ttl < 0 {
			return Cache{}, fmt.Errorf("%s: cache.ttl must not be negative", path)
		}
		out.TTL = ttl
	}
	return out, nil
}

func isQualifiedName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			letter := r == '_' || r == '$' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
			if !letter && (i == 0 || r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

func resolvePatterns(resolver fileset.Resolver, field string, patterns []string) ([]string, error) {
	paths, err := resolver.Resolve(patterns)
	if err != nil {
		switch {
		case errors.Is(err, fileset.ErrNoPatterns):
			return nil, fmt.Errorf("%s must include at least one pattern: %w", field, err)
		default:
			var noMatchErr fileset.NoMatchError
			if errors.As(err, &noMatchErr) {
				return nil, fmt.Errorf("%s: %w", field, noMatchErr)
			}

			var patternErr fileset.PatternError
			if errors.As(err, &patternErr) {
				return nil, fmt.Errorf("%s: invalid glob pattern %q: %w", field, patternErr.Pattern, patternErr.Err)
			}

			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}

	return paths, nil
}
