// Package pipeline orchestrates a generation run: configuration, declaration loading, the
// processing round and the writing of builder sources.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/electwix/atbuilder/internal/buildable"
	"github.com/electwix/atbuilder/internal/cache"
	"github.com/electwix/atbuilder/internal/config"
	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/fileset"
	"github.com/electwix/atbuilder/internal/generator"
	"github.com/electwix/atbuilder/internal/loader"
	"github.com/electwix/atbuilder/internal/logging"
	"github.com/electwix/atbuilder/internal/processor"
)

// DefaultConfigPath is the configuration file used when RunOptions.ConfigPath is empty.
const DefaultConfigPath = "atbuilder.toml"

// Environment captures external dependencies used by the pipeline.
type Environment struct {
	FSResolver func(string) (fileset.Resolver, error)
	Logger     *slog.Logger
	Writer     Writer
	Hooks      Hooks
	// Cache overrides the cache configured in atbuilder.toml. It is not closed by Run.
	Cache cache.Cache
}

// Writer writes generated files to persistent storage.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// Pipeline orchestrates configuration loading, declaration loading and builder generation.
type Pipeline struct {
	Env Environment
}

// File is a generated builder source.
type File struct {
	Path    string
	Builder string
	Content []byte
	// Unchanged is set when the file on disk already held Content and was not rewritten.
	Unchanged bool
}

// Summary captures generated files and diagnostics collected during a run.
type Summary struct {
	RunID string
	// Sources are the declaration documents matched by the configuration.
	Sources []string
	// Records are the qualified names of the builder-annotated declarations, in declaration order.
	Records     []string
	Files       []File
	Outcomes    []processor.Outcome
	Diagnostics []diagnostics.Diagnostic
}

// RunOptions configures a pipeline execution.
type RunOptions struct {
	ConfigPath   string
	OutOverride  string
	DryRun       bool
	StrictConfig bool
	// List stops after selecting the annotated declarations.
	List bool
}

// DiagnosticsError indicates that errors were reported via diagnostics.
type DiagnosticsError struct {
	Diagnostic diagnostics.Diagnostic
	Cause      error
}

func (e *DiagnosticsError) Error() string {
	return e.Diagnostic.Error()
}

func (e *DiagnosticsError) Unwrap() error {
	return e.Cause
}

// WriteError wraps failures encountered while writing generated files.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewOSWriter returns a Writer that performs atomic writes on the local filesystem.
func NewOSWriter() Writer {
	return &osWriter{perm: 0o644}
}

type osWriter struct {
	perm fs.FileMode
}

func (w *osWriter) WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("pipeline: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".atbuilder-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
		_ = tmp.Close()
	}()
	if w.perm != 0 {
		if err := tmp.Chmod(w.perm); err != nil {
			return fmt.Errorf("chmod temp file: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

// Run executes the pipeline according to the provided options. Diagnostics errors are returned
// as *DiagnosticsError after the round completes; a failed write is returned as *WriteError.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (summary Summary, err error) {
	diags := diagnostics.NewCollection()
	logger, runID := logging.WithRun(p.Env.Logger)
	summary.RunID = runID

	defer func() {
		summary.Diagnostics = diags.All()
		if p.Env.Hooks.AfterWrite != nil {
			if hookErr := p.Env.Hooks.AfterWrite(ctx, summary); hookErr != nil && err == nil {
				err = fmt.Errorf("after write hook: %w", hookErr)
			}
		}
	}()

	fail := func(d diagnostics.Diagnostic, cause error) error {
		diags.Add(d)
		return &DiagnosticsError{Diagnostic: d, Cause: cause}
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return summary, fail(configDiagnostic(configPath, diagnostics.ErrConfigInvalidPath, fmt.Sprintf("resolve config path: %v", err)), err)
	}

	baseDir := filepath.Dir(absConfigPath)
	resolverFn := p.Env.FSResolver
	if resolverFn == nil {
		resolverFn = fileset.NewOSResolver
	}

	resolver, err := resolverFn(baseDir)
	if err != nil {
		return summary, fail(configDiagnostic(absConfigPath, diagnostics.ErrConfigInvalidPath, fmt.Sprintf("resolve filesystem: %v", err)), err)
	}

	loadResult, err := config.Load(absConfigPath, config.LoadOptions{Strict: opts.StrictConfig, Resolver: &resolver})
	if err != nil {
		return summary, fail(configDiagnostic(absConfigPath, configCode(err), err.Error()), err)
	}
	for _, warning := range loadResult.Warnings {
		diags.Add(diagnostics.Warning(warning).
			WithCode(diagnostics.WarnConfigUnknownKey).
			At(absConfigPath, 0, 0).
			WithSource("config").
			Build())
	}

	plan := loadResult.Plan
	if opts.OutOverride != "" {
		override := opts.OutOverride
		if !filepath.IsAbs(override) {
			override = filepath.Join(baseDir, override)
		}
		plan.Out = filepath.Clean(override)
	}
	summary.Sources = plan.Sources
	logger.Debug("configuration loaded", "config", absConfigPath, "sources", len(plan.Sources), "out", plan.Out)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if hook := p.Env.Hooks.BeforeLoad; hook != nil {
		if err := hook(ctx, plan.Sources); err != nil {
			return summary, fmt.Errorf("before load hook: %w", err)
		}
	}

	sources, readDiags := loader.Read(plan.Sources...)
	for _, d := range readDiags {
		diags.Add(d)
	}
	loaded := loader.Load(element.NewUniverse(), sources...)
	diags.AddAll(loaded.Diagnostics)

	if hook := p.Env.Hooks.AfterLoad; hook != nil {
		if err := hook(ctx, loaded); err != nil {
			return summary, fmt.Errorf("after load hook: %w", err)
		}
	}

	if diags.HasErrors() {
		return summary, &DiagnosticsError{Diagnostic: diags.Errors()[0]}
	}

	procOpts := processorOptions(plan)
	procOpts.Logger = logger
	round := processor.NewRound(loaded.Types...)
	annotated := round.ElementsAnnotatedWith(procOpts.Names.Builder)
	summary.Records = lo.Map(annotated, func(e *element.Element, _ int) string { return e.QualifiedName() })
	if len(annotated) == 0 {
		diags.Add(diagnostics.Warning("no declarations are annotated with @" + procOpts.Names.Builder).
			WithCode(diagnostics.WarnNoBuilders).
			At(absConfigPath, 0, 0).
			WithSource("pipeline").
			Build())
	}

	if opts.List {
		return summary, nil
	}

	if hook := p.Env.Hooks.BeforeProcess; hook != nil {
		if err := hook(ctx, round); err != nil {
			return summary, fmt.Errorf("before process hook: %w", err)
		}
	}

	procOpts.Cache = p.Env.Cache
	if procOpts.Cache == nil {
		c, cacheErr := cache.Open(plan.Cache.Backend, plan.Cache.Dir)
		if cacheErr != nil {
			diags.Add(diagnostics.Warning(fmt.Sprintf("cache disabled: %v", cacheErr)).
				WithCode(diagnostics.ErrOutputCache).
				At(absConfigPath, 0, 0).
				WithSource("pipeline").
				Build())
		} else if c != nil {
			procOpts.Cache = c
			if closer, ok := c.(io.Closer); ok {
				defer func() { _ = closer.Close() }()
			}
			if pruner, ok := c.(cache.Pruner); ok {
				if removed := pruner.Prune(ctx); removed > 0 {
					logger.Debug("pruned expired cache entries", "backend", plan.Cache.Backend, "removed", removed)
				}
			}
		}
	}

	writer := p.Env.Writer
	if writer == nil {
		writer = NewOSWriter()
	}
	filer := &sourceFiler{out: plan.Out, writer: writer, dryRun: opts.DryRun}

	collector := &processor.Collector{Diagnostics: diags}
	result, err := processor.New(procOpts, collector, filer).Process(ctx, round)
	summary.Outcomes = result.Outcomes
	summary.Files = filer.files
	if err != nil {
		return summary, err
	}

	logger.Info("generation complete",
		"builders", len(result.Generated()),
		"failed", len(result.Failed()),
		"unchanged", lo.CountBy(filer.files, func(f File) bool { return f.Unchanged }),
		"dry_run", opts.DryRun,
	)

	if filer.writeErr != nil {
		return summary, filer.writeErr
	}
	if diags.HasErrors() {
		return summary, &DiagnosticsError{Diagnostic: diags.Errors()[0]}
	}
	return summary, nil
}

func processorOptions(plan config.JobPlan) processor.Options {
	names := plan.Annotations
	opts := processor.DefaultOptions()
	opts.Names = buildable.Names{
		Builder:      names.Builder,
		NullMarked:   names.NullMarked,
		NullUnmarked: names.NullUnmarked,
	}
	opts.Generator = generator.Options{
		Names: generator.Names{
			Omittable:    names.Omittable,
			Nullable:     names.Nullable,
			NullMarked:   names.NullMarked,
			NullUnmarked: names.NullUnmarked,
		},
		Indent: plan.Indent,
	}
	opts.CacheTTL = plan.Cache.TTL
	return opts
}

func configDiagnostic(path, code, message string) diagnostics.Diagnostic {
	return diagnostics.Error(message).
		WithCode(code).
		At(path, 0, 0).
		WithSource("config").
		Build()
}

func configCode(err error) string {
	var unknownErr *config.UnknownKeysError
	var pathErr *config.PathError
	var noMatchErr fileset.NoMatchError
	switch {
	case errors.As(err, &unknownErr):
		return diagnostics.ErrConfigUnknownKey
	case errors.As(err, &pathErr):
		return diagnostics.ErrConfigInvalidPath
	case errors.Is(err, fileset.ErrNoPatterns), errors.As(err, &noMatchErr):
		return diagnostics.ErrConfigNoSources
	default:
		return diagnostics.ErrConfigInvalid
	}
}

// sourceFiler places builders under the output directory. It skips files whose content is
// unchanged and records nothing on disk in dry-run mode.
type sourceFiler struct {
	out      string
	writer   Writer
	dryRun   bool
	files    []File
	writeErr *WriteError
}

func (f *sourceFiler) CreateSourceFile(name string, content []byte, _ *element.Element) error {
	file := File{
		Path:    filepath.Join(f.out, filepath.FromSlash(processor.SourcePath(name))),
		Builder: name,
		Content: content,
	}
	if f.dryRun {
		f.files = append(f.files, file)
		return nil
	}

	same, err := fileMatches(file.Path, content)
	switch {
	case err != nil:
	case same:
		file.Unchanged = true
	default:
		err = f.writer.WriteFile(file.Path, content)
	}
	if err != nil {
		writeErr := &WriteError{Path: file.Path, Err: err}
		if f.writeErr == nil {
			f.writeErr = writeErr
		}
		return writeErr
	}
	f.files = append(f.files, file)
	return nil
}

func fileMatches(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(existing, content), nil
}
