// Package processor runs annotation-processing rounds: it selects the declarations carrying the
// builder annotation, extracts their models, synthesizes builders and hands the sources to a Filer.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/electwix/atbuilder/internal/buildable"
	"github.com/electwix/atbuilder/internal/cache"
	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/element"
	"github.com/electwix/atbuilder/internal/generator"
	"github.com/electwix/atbuilder/internal/logging"
)

// Messager receives the messages of a round.
type Messager interface {
	PrintMessage(severity diagnostics.Severity, message string, elem *element.Element, annotation *element.AnnotationMirror)
}

// Reporter is implemented by messagers that accept complete diagnostics. The processor uses it
// when available so diagnostic codes are kept.
type Reporter interface {
	Report(d diagnostics.Diagnostic)
}

// Filer persists generated sources. name is the qualified name of the generated type.
type Filer interface {
	CreateSourceFile(name string, content []byte, originating *element.Element) error
}

// SourcePath returns the slash-separated path, relative to a source root, of the file declaring
// the top-level type with qualified name name.
func SourcePath(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".java"
}

// Options configures a processor.
type Options struct {
	Names     buildable.Names
	Generator generator.Options
	// Cache holds rendered builders between rounds; nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// DefaultOptions returns the default annotation names and generator options without a cache.
func DefaultOptions() Options {
	return Options{
		Names:     buildable.DefaultNames(),
		Generator: generator.DefaultOptions(),
	}
}

// Outcome is the result of processing one annotated declaration.
type Outcome struct {
	Element *element.Element
	// Builder is the qualified name of the generated builder; empty when extraction failed.
	Builder string
	Source  []byte
	Cached  bool
	Err     error
}

// Generated reports whether the builder was produced and written.
func (o Outcome) Generated() bool { return o.Err == nil }

// Result lists the outcomes of a round in declaration order.
type Result struct {
	Outcomes []Outcome
}

// Generated returns the successful outcomes.
func (r Result) Generated() []Outcome {
	return lo.Filter(r.Outcomes, func(o Outcome, _ int) bool { return o.Generated() })
}

// Failed returns the outcomes that produced an error.
func (r Result) Failed() []Outcome {
	return lo.Reject(r.Outcomes, func(o Outcome, _ int) bool { return o.Generated() })
}

// Processor generates builders for the annotated records of a round.
type Processor struct {
	opts      Options
	messager  Messager
	filer     Filer
	extractor *buildable.Extractor
	generator *generator.Generator
	logger    *slog.Logger
}

// New returns a processor reporting to messager and writing through filer.
func New(opts Options, messager Messager, filer Filer) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		opts:      opts,
		messager:  messager,
		filer:     filer,
		extractor: buildable.NewExtractor(opts.Names),
		generator: generator.New(opts.Generator),
		logger:    logger,
	}
}

// Process handles every element of round annotated with the builder annotation. An element that
// fails extraction or cannot be written is reported and skipped; the round continues. The only
// error returned is the context's.
func (p *Processor) Process(ctx context.Context, round *Round) (Result, error) {
	var result Result
	for _, elem := range round.ElementsAnnotatedWith(p.opts.Names.Builder) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, p.processElement(ctx, elem))
	}
	return result, nil
}

func (p *Processor) processElement(ctx context.Context, elem *element.Element) Outcome {
	outcome := Outcome{Element: elem}
	marker := elem.Annotation(p.opts.Names.Builder)

	b, err := p.extractor.Extract(elem, marker)
	if err != nil {
		outcome.Err = err
		var d diagnostics.Diagnostic
		if extractErr, ok := err.(*buildable.Error); ok {
			d = extractErr.Diagnostic()
		} else {
			d = diagnostics.ForElement(diagnostics.SeverityError, err.Error(), elem, marker)
		}
		p.report(d, elem, marker)
		p.logger.Debug("skipping declaration", "element", elem.QualifiedName(), "error", err)
		return outcome
	}

	outcome.Builder = generator.BuilderName(b).CanonicalName()
	outcome.Source, outcome.Cached = p.render(ctx, b)

	if err := p.filer.CreateSourceFile(outcome.Builder, outcome.Source, elem); err != nil {
		outcome.Err = fmt.Errorf("write %s: %w", outcome.Builder, err)
		d := diagnostics.ForElement(diagnostics.SeverityError, "Failed to write builder file: "+err.Error(), elem, nil)
		d.Code = diagnostics.ErrOutputWriteFailed
		d.Source = "processor"
		p.report(d, elem, nil)
		return outcome
	}
	p.logger.Debug("generated builder", "builder", outcome.Builder, "cached", outcome.Cached)
	return outcome
}

// render returns the builder source for b, reusing a cached rendering when one exists.
func (p *Processor) render(ctx context.Context, b *buildable.Buildable) ([]byte, bool) {
	if p.opts.Cache == nil {
		return []byte(p.generator.Generate(b).String()), false
	}
	key := p.cacheKey(b)
	if src, ok := p.opts.Cache.Get(ctx, key); ok {
		return src, true
	}
	src := []byte(p.generator.Generate(b).String())
	p.opts.Cache.Set(ctx, key, src, p.opts.CacheTTL)
	return src, false
}

func (p *Processor) cacheKey(b *buildable.Buildable) string {
	content := fmt.Sprintf("%s\n%+v", b.Fingerprint(), p.opts.Generator)
	return cache.ComputeKeyWithPrefix("builder", []byte(content))
}

func (p *Processor) report(d diagnostics.Diagnostic, elem *element.Element, annotation *element.AnnotationMirror) {
	if r, ok := p.messager.(Reporter); ok {
		r.Report(d)
		return
	}
	p.messager.PrintMessage(d.Severity, d.Message, elem, annotation)
}
