// Package run implements the main logic for the fraud tool in a testable way.
package run

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/lmittmann/tint"
	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	load "github.com/toejough/fraud/fraud/run/2_load"
	detect "github.com/toejough/fraud/fraud/run/3_detect"
	generate "github.com/toejough/fraud/fraud/run/5_generate"
	output "github.com/toejough/fraud/fraud/run/6_output"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// Interfaces - Public

// FileSystem abstracts the file operations a run needs.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Structs - Public

// Config is everything one generation needs.
type Config struct {
	// Template is the template path. Empty selects output.DefaultTemplate.
	Template string
	Output   string
	Headers  []string
	// Includes are the "#include <...>" paths, in registration order.
	Includes     []string
	IncludeDirs  []string
	Frontend     string
	TargetStruct string
	StrictTags   bool
	// Logger overrides the logger carried in the context.
	Logger *slog.Logger
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

// ReadFile reads the file named by name and returns the contents.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Errorf("failed to read file %s: %w", name, err)
	}

	return data, nil
}

// WriteFile writes data to the file named by name.
func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(name, data, perm)
	if err != nil {
		return errors.Errorf("failed to write file %s: %w", name, err)
	}

	return nil
}

// Structs - Private

// cliArgs defines the command-line arguments for the generator.
type cliArgs struct {
	Template    string   `arg:"-t,--template" help:"template file containing ** INCLUDES and ** MOCKS lines"`
	Output      string   `arg:"-o,--output" help:"C file to generate"`
	Include     []string `arg:"-i,--include,separate" help:"add #include <path> at ** INCLUDES (repeatable)"`
	IncludeDirs []string `arg:"-I,--include-dir,separate" help:"include search directory for the cc front-end (repeatable)"`
	Verbose     bool     `arg:"-v,--verbose,env:FRAUD_VERBOSE" help:"print diagnostic output to stderr"`
	Struct      string   `arg:"--struct" help:"mock the function-pointer members of this struct"`
	Frontend    string   `arg:"--frontend,env:FRAUD_FRONTEND" default:"sitter" help:"C front-end: sitter or cc"`
	StrictTags  bool     `arg:"--strict-tags,env:FRAUD_STRICT_TAGS" help:"abort on types that cannot be named instead of emitting ?"`
	Headers     []string `arg:"positional" help:"header files to mock"`
}

// Description is shown at the top of the help text.
func (cliArgs) Description() string {
	return "fraud: Generate a cmocka mock from a header file."
}

// Functions - Public

// Generate runs one generation: parse the headers, walk and emit mocks for
// each of them in order, expand the template, and write the output file.
func Generate(ctx context.Context, cfg Config, fileSys FileSystem, out io.Writer) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slogctx.FromCtx(ctx)
	}

	if cfg.Output == "" {
		return errors.WithDetails(ErrMissingRequired, "flag", "output")
	}

	frontend, err := load.ByName(cfg.Frontend, cfg.IncludeDirs)
	if err != nil {
		return err
	}

	tmpl, err := readTemplate(cfg, fileSys)
	if err != nil {
		return err
	}

	table, err := frontend.Load(cfg.Headers, fileSys)
	if err != nil {
		return err
	}

	logger.Debug("parsed headers", "streams", table.Streams,
		"unit", len(table.Unit), "file", len(table.File), "global", len(table.Global))

	mocks, err := emitMocks(cfg, table, logger)
	if err != nil {
		return err
	}

	includes := &output.Includes{}
	for _, inc := range cfg.Includes {
		includes.Register(inc)
	}

	var code bytes.Buffer

	err = output.Expand(bytes.NewReader(tmpl), &code, output.Directives{
		Includes: includes.String(),
		Mocks:    mocks,
	})
	if err != nil {
		return err
	}

	return output.WriteGeneratedCode(code.String(), cfg.Output, fileSys, out)
}

// Run executes the fraud tool logic. It parses the command-line arguments,
// sets up logging on errOut, and runs Generate. Help goes to out and returns
// nil; usage errors print the usage line to errOut and are returned.
func Run(ctx context.Context, args []string, fileSys FileSystem, out, errOut io.Writer) error {
	parsed, parser, err := parseArgs(args)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(out)

		return nil
	}

	if err == nil {
		err = validateArgs(parsed)
	}

	if err != nil {
		if parser != nil {
			parser.WriteUsage(errOut)
		}

		return err
	}

	logger := newLogger(errOut, parsed.Verbose)
	ctx = slogctx.NewCtx(ctx, logger)

	return Generate(ctx, Config{
		Template:     parsed.Template,
		Output:       parsed.Output,
		Headers:      parsed.Headers,
		Includes:     parsed.Include,
		IncludeDirs:  parsed.IncludeDirs,
		Frontend:     parsed.Frontend,
		TargetStruct: parsed.Struct,
		StrictTags:   parsed.StrictTags,
	}, fileSys, out)
}

// Functions - Private

// emitMocks walks each header in input order and concatenates the mocks.
func emitMocks(cfg Config, table *symtab.Table, logger *slog.Logger) (string, error) {
	emitter := generate.NewEmitter(generate.Config{StrictTags: cfg.StrictTags, Logger: logger})
	walkCfg := detect.Config{TargetStruct: cfg.TargetStruct, Logger: logger}

	var buf bytes.Buffer

	for _, header := range cfg.Headers {
		candidates, err := detect.Walk(header, table, walkCfg)
		if err != nil {
			return "", err
		}

		err = emitter.EmitAll(&buf, candidates)
		if err != nil {
			return "", errors.Errorf("%s: %w", header, err)
		}
	}

	return buf.String(), nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.0000",
		NoColor:    true,
	}))
}

// parseArgs parses command-line arguments into cliArgs. The parser is
// returned even on error so callers can print usage.
func parseArgs(args []string) (cliArgs, *arg.Parser, error) {
	var parsed cliArgs

	parser, err := arg.NewParser(arg.Config{Program: "fraud"}, &parsed)
	if err != nil {
		return cliArgs{}, nil, errors.Errorf("failed to create argument parser: %w", err)
	}

	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}

	err = parser.Parse(cmdArgs)
	if errors.Is(err, arg.ErrHelp) {
		return parsed, parser, arg.ErrHelp
	}

	if err != nil {
		return cliArgs{}, parser, errors.Errorf("failed to parse arguments: %w", err)
	}

	return parsed, parser, nil
}

// readTemplate returns the template bytes, or the default skeleton when no
// template path is configured.
func readTemplate(cfg Config, fileSys FileSystem) ([]byte, error) {
	if cfg.Template == "" {
		return []byte(output.DefaultTemplate(cfg.Headers)), nil
	}

	data, err := fileSys.ReadFile(cfg.Template)
	if err != nil {
		return nil, errors.Errorf("reading template: %w", err)
	}

	return data, nil
}

// validateArgs rejects a command line without both template and output.
func validateArgs(parsed cliArgs) error {
	if parsed.Template == "" || parsed.Output == "" {
		return errors.WithDetails(ErrMissingRequired, "template", parsed.Template, "output", parsed.Output)
	}

	return nil
}

// Exported variables.
var (
	ErrMissingRequired = errors.New("need template & output")
)
