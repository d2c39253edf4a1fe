// Package cli parses the atbuilder command line.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Commands.
const (
	CommandGenerate = "generate"
	CommandList     = "list"
	CommandWatch    = "watch"
)

// Diagnostic output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrHelp is returned by Parse when usage was requested. The wrapping error carries the usage text.
var ErrHelp = errors.New("help requested")

// Options are the parsed command line.
type Options struct {
	Command      string
	ConfigPath   string
	Out          string
	DryRun       bool
	StrictConfig bool
	Verbose      bool
	LogJSON      bool
	// Format selects how diagnostics are printed.
	Format string
}

// Parse parses args, not including the program name. Without a command it selects generate.
func Parse(args []string) (Options, error) {
	opts := Options{
		ConfigPath: "atbuilder.toml",
		Format:     FormatText,
	}

	var usage bytes.Buffer
	root := newRootCommand(&opts)
	root.SetArgs(args)
	root.SetOut(&usage)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return Options{}, fmt.Errorf("%w\n\n%s", err, root.UsageString())
	}
	if opts.Command == "" {
		return Options{}, fmt.Errorf("%w\n\n%s", ErrHelp, usage.String())
	}
	if opts.Format != FormatText && opts.Format != FormatJSON {
		return Options{}, fmt.Errorf("unsupported --format %q: want %s or %s", opts.Format, FormatText, FormatJSON)
	}
	return opts, nil
}

func newRootCommand(opts *Options) *cobra.Command {
	selects := func(name string) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			opts.Command = name
			return nil
		}
	}

	root := &cobra.Command{
		Use:   "atbuilder",
		Short: "Generate builders for annotated Java records",
		Long: `atbuilder reads record declarations from YAML documents and writes a builder class
for every record annotated with the builder annotation.

Examples:
  atbuilder generate                     # Generate into the configured out directory
  atbuilder generate --dry-run           # Print the files that would be written
  atbuilder list -c project/atbuilder.toml
  atbuilder watch -v                     # Regenerate when declarations change`,
		Args:          cobra.NoArgs,
		RunE:          selects(CommandGenerate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to configuration file")
	flags.StringVar(&opts.Out, "out", "", "Override output directory; relative paths are resolved against the config directory")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Generate builders without writing files")
	flags.BoolVar(&opts.StrictConfig, "strict-config", false, "Treat unknown configuration keys as errors")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&opts.LogJSON, "log-json", false, "Write logs as JSON")
	flags.StringVar(&opts.Format, "format", opts.Format, "Diagnostics format: text or json")

	root.AddCommand(
		&cobra.Command{
			Use:   CommandGenerate,
			Short: "Generate builders for the configured declarations",
			Args:  cobra.NoArgs,
			RunE:  selects(CommandGenerate),
		},
		&cobra.Command{
			Use:   CommandList,
			Short: "List the records builders would be generated for",
			Args:  cobra.NoArgs,
			RunE:  selects(CommandList),
		},
		&cobra.Command{
			Use:   CommandWatch,
			Short: "Generate builders and regenerate them when declarations change",
			Args:  cobra.NoArgs,
			RunE:  selects(CommandWatch),
		},
	)
	return root
}
