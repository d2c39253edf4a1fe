// Package main implements the atbuilder CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/electwix/atbuilder/internal/cli"
	"github.com/electwix/atbuilder/internal/diagnostics"
	"github.com/electwix/atbuilder/internal/fileset"
	"github.com/electwix/atbuilder/internal/logging"
	"github.com/electwix/atbuilder/internal/pipeline"
	"github.com/electwix/atbuilder/internal/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			_, _ = fmt.Fprintln(stdout, strings.TrimPrefix(err.Error(), cli.ErrHelp.Error()+"\n\n"))
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}

	logger := logging.New(logging.Options{
		Verbose: opts.Verbose,
		Writer:  stderr,
		JSON:    opts.LogJSON,
	})

	env := pipeline.Environment{
		Logger:     logger,
		FSResolver: fileset.NewOSResolver,
		Writer:     pipeline.NewOSWriter(),
	}

	pipe := &pipeline.Pipeline{Env: env}
	runOpts := pipeline.RunOptions{
		ConfigPath:   opts.ConfigPath,
		OutOverride:  opts.Out,
		DryRun:       opts.DryRun,
		StrictConfig: opts.StrictConfig,
		List:         opts.Command == cli.CommandList,
	}

	if opts.Command == cli.CommandWatch {
		return watchAndGenerate(ctx, pipe, runOpts, opts, logger, stdout, stderr)
	}

	summary, runErr := pipe.Run(ctx, runOpts)
	return report(opts, summary, runErr, stdout, stderr)
}

// report prints the outcome of one run and returns the exit code: 1 for diagnostics errors and
// 2 for write failures.
func report(opts cli.Options, summary pipeline.Summary, runErr error, stdout, stderr io.Writer) int {
	printDiagnostics(stderr, opts.Format, summary.Diagnostics)

	if runErr != nil {
		var diagErr *pipeline.DiagnosticsError
		if !errors.As(runErr, &diagErr) {
			_, _ = fmt.Fprintln(stderr, runErr.Error())
		}
		var writeErr *pipeline.WriteError
		if errors.As(runErr, &writeErr) {
			return 2
		}
		return 1
	}

	switch {
	case opts.Command == cli.CommandList:
		for _, record := range summary.Records {
			_, _ = fmt.Fprintln(stdout, record)
		}
	case opts.DryRun:
		for _, file := range summary.Files {
			_, _ = fmt.Fprintln(stdout, file.Path)
		}
	}
	return 0
}

func printDiagnostics(w io.Writer, format string, diags []diagnostics.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	collection := diagnostics.NewCollection()
	for _, d := range diags {
		collection.Add(d)
	}
	collection.SortByLocation()
	sorted := collection.All()

	if format == cli.FormatJSON {
		_ = diagnostics.WriteJSON(w, sorted)
		return
	}

	diagnostics.NewContextExtractor().Attach(sorted)
	formatter := diagnostics.NewFormatter()
	_ = formatter.WriteAll(w, sorted)
	formatter.PrintSummary(w, collection)
}

func watchAndGenerate(ctx context.Context, pipe *pipeline.Pipeline, runOpts pipeline.RunOptions, opts cli.Options, logger *slog.Logger, stdout, stderr io.Writer) int {
	configPath, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}

	w, err := watch.New(watch.Options{Filter: isWatchedFile, Logger: logger})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer func() { _ = w.Close() }()

	generate := func(ctx context.Context) {
		summary, runErr := pipe.Run(ctx, runOpts)
		report(opts, summary, runErr, stdout, stderr)
		// Directories of new sources are picked up after each run.
		if err := w.AddFiles(summary.Sources...); err != nil {
			logger.Warn("cannot watch sources", "error", err)
		}
	}

	generate(ctx)
	if err := w.AddFiles(configPath); err != nil {
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}
	logger.Info("watching for changes", "config", configPath)

	if err := w.Run(ctx, generate); err != nil {
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func isWatchedFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}
