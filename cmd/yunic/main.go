// Package main provides yunic, the command-line driver of the Yuni
// semantic core. It decodes a syntax-tree document, runs type inference,
// ownership checking and pattern compilation over every function, and
// either reports the diagnostics (check, watch) or emits the handoff
// bundle for code generation (compile).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yunilang/yuni/internal/analysis"
	"github.com/yunilang/yuni/internal/astio"
	"github.com/yunilang/yuni/internal/cache"
	"github.com/yunilang/yuni/internal/cli"
	"github.com/yunilang/yuni/internal/config"
	yerrors "github.com/yunilang/yuni/internal/errors"
	"github.com/yunilang/yuni/internal/patterns"
	"github.com/yunilang/yuni/internal/watch"
)

// Exit codes
const (
	exitOK          = 0
	exitDiagnostics = 1
	exitUsage       = 2
	exitInternal    = 3
)

const tool = "yunic"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

var analysisFlags = []cli.Flag{
	{Name: "config", Arg: "FILE", Help: "yuni.yaml to use instead of searching from the document's directory"},
	{Name: "jobs", Short: "j", Arg: "N", Help: "functions analysed in parallel", Default: "number of CPUs"},
	{Name: "verbose", Short: "v", Help: "log progress and attach pattern matrices to diagnostics"},
	{Name: "debug", Help: "log per-function details"},
	{Name: "color", Arg: "WHEN", Help: "color diagnostics: auto, always or never", Default: "auto"},
	{Name: "cache", Arg: "FILE", Help: "SQLite database caching per-function results"},
	{Name: "json", Help: "print machine-readable JSON"},
}

var help = cli.Help{
	Tool:    tool,
	Summary: "type, ownership and pattern checking for Yuni syntax trees",
	Commands: []cli.Command{
		{
			Name:     "check",
			Operand:  "<file.yaml>",
			Summary:  "Report every diagnostic of a document.",
			Flags:    analysisFlags,
			Examples: []string{"yunic check main.yaml", "yunic check --json -j 4 main.yaml"},
		},
		{
			Name:     "compile",
			Operand:  "<file.yaml>",
			Summary:  "Write the code generation bundle to stdout, refusing if any diagnostic is found.",
			Flags:    analysisFlags,
			Examples: []string{"yunic compile main.yaml > main.bundle.json"},
		},
		{
			Name:     "watch",
			Operand:  "<file.yaml>",
			Summary:  "Check a document, then check it again whenever it is saved.",
			Flags:    analysisFlags,
			Examples: []string{"yunic watch --cache .yuni/cache.db main.yaml"},
		},
		{
			Name:    "version",
			Summary: "Show the tool and language versions.",
			Flags:   []cli.Flag{{Name: "json", Help: "print machine-readable JSON"}},
		},
	},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		help.Write(stderr)
		return exitUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "help", "-h", "--help":
		if len(rest) > 0 {
			cmd, ok := help.Lookup(rest[0])
			if !ok {
				fmt.Fprintf(stderr, "unknown command: %s\n", rest[0])
				return exitUsage
			}
			help.WriteCommand(stdout, cmd)
			return exitOK
		}
		help.Write(stdout)
		return exitOK
	case "version", "--version":
		jsonOutput := false
		for _, a := range rest {
			if a == "--json" || a == "-json" {
				jsonOutput = true
			}
		}
		if err := cli.WriteVersion(stdout, tool, jsonOutput); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := help.Lookup(sub)
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n\n", sub)
		help.Write(stderr)
		return exitUsage
	}

	inv, err := parseInvocation(cmd, rest)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			help.WriteCommand(stdout, cmd)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	s, err := newSession(inv, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer s.close()

	switch sub {
	case "check":
		return s.check(ctx, stdout)
	case "compile":
		return s.compile(ctx, stdout)
	default:
		return s.watch(ctx, stdout)
	}
}

// ====== Invocation ======

type invocation struct {
	command    string
	file       string
	configPath string
	json       bool
	overrides  config.Overrides
}

func parseInvocation(cmd cli.Command, args []string) (*invocation, error) {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	inv := &invocation{command: cmd.Name}
	var (
		jobs             int
		verbose, debug   bool
		color, cachePath string
	)
	fs.StringVar(&inv.configPath, "config", "", "")
	fs.IntVar(&jobs, "jobs", 0, "")
	fs.IntVar(&jobs, "j", 0, "")
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	fs.StringVar(&color, "color", config.ColorAuto, "")
	fs.StringVar(&cachePath, "cache", "", "")
	fs.BoolVar(&inv.json, "json", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// flags may also follow the file name
	positional := fs.Args()
	if len(positional) > 1 {
		if err := fs.Parse(positional[1:]); err != nil {
			return nil, err
		}
		positional = append([]string{positional[0]}, fs.Args()...)
	}
	file, err := cmd.OperandOf(tool, positional)
	if err != nil {
		return nil, err
	}
	inv.file = file

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "jobs", "j":
			inv.overrides.Jobs = &jobs
		case "verbose", "v":
			inv.overrides.Verbose = &verbose
		case "debug":
			inv.overrides.Debug = &debug
		case "color":
			inv.overrides.Color = &color
		case "cache":
			inv.overrides.Cache = &cachePath
		}
	})
	return inv, nil
}

// ====== Session ======

// session holds everything one invocation needs across runs
type session struct {
	inv    *invocation
	cfg    *config.Config
	log    *cli.Logger
	cache  *cache.Store
	stderr io.Writer
}

func newSession(inv *invocation, stderr io.Writer) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if inv.configPath != "" {
		cfg, err = config.Load(inv.configPath)
	} else {
		cfg, err = config.Discover(filepath.Dir(inv.file))
	}
	if err != nil {
		return nil, err
	}
	if cfg, err = cfg.Apply(inv.overrides); err != nil {
		return nil, err
	}

	s := &session{inv: inv, cfg: cfg, log: cli.NewLoggerTo(stderr, cfg.Verbose, cfg.Debug), stderr: stderr}
	if cfg.Path != "" {
		s.log.Debug("using config %s", cfg.Path)
	}
	// compile needs full analysis tables, which cached entries lack
	if cfg.Cache != "" && inv.command != "compile" {
		if dir := filepath.Dir(cfg.Cache); dir != "." && cfg.Cache != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating cache directory: %w", err)
			}
		}
		if s.cache, err = cache.Open(cfg.Cache); err != nil {
			return nil, err
		}
		s.log.Debug("using cache %s", cfg.Cache)
	}
	return s, nil
}

func (s *session) close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Warn("closing cache: %v", err)
		}
	}
}

func (s *session) options() analysis.Options {
	opts := analysis.Options{
		Jobs:     s.cfg.Jobs,
		Patterns: patterns.Options{Verbose: s.cfg.Verbose},
		Logger:   s.log,
	}
	if d := s.cfg.Domain; d != nil {
		opts.Patterns.Domain = patterns.NewDomain(d.Min, d.Max)
	}
	if s.cache != nil {
		opts.Cache = s.cache
	}
	return opts
}

// analyze decodes and analyses the document once. A nil report means the
// document could not be analysed; the returned code says why.
func (s *session) analyze(ctx context.Context, useCache bool) (*analysis.Report, int) {
	prog, err := astio.Load(s.inv.file, astio.Options{Languages: s.cfg.Languages()})
	if err != nil {
		s.log.Error("%v", err)
		return nil, exitUsage
	}
	opts := s.options()
	if !useCache {
		opts.Cache = nil
	}
	report, err := analysis.Analyze(ctx, prog, opts)
	switch {
	case err == nil:
		return report, exitOK
	case yerrors.IsInvariant(err):
		s.log.Error("internal error, analysis halted: %v", err)
		return report, exitInternal
	case errors.Is(err, context.Canceled):
		return nil, exitUsage
	default:
		s.log.Error("%v", err)
		return report, exitInternal
	}
}

func (s *session) printer(w io.Writer) *cli.Printer {
	color := s.cfg.Color == config.ColorAlways
	if f, ok := w.(*os.File); ok {
		color = cli.UseColor(s.cfg.Color, f)
	}
	return &cli.Printer{W: w, Color: color, Verbose: s.cfg.Verbose}
}

func (s *session) report(w io.Writer, r *analysis.Report) int {
	if s.inv.json {
		if err := cli.WriteJSON(w, cli.NewCheckOutput(s.log.RunID, s.inv.file, r)); err != nil {
			s.log.Error("writing output: %v", err)
			return exitUsage
		}
	} else {
		s.printer(w).Report(s.inv.file, r)
	}
	if !r.OK() {
		return exitDiagnostics
	}
	return exitOK
}

func (s *session) check(ctx context.Context, stdout io.Writer) int {
	r, code := s.analyze(ctx, true)
	if r == nil {
		return code
	}
	if c := s.report(stdout, r); code == exitOK {
		code = c
	}
	return code
}

func (s *session) compile(ctx context.Context, stdout io.Writer) int {
	r, code := s.analyze(ctx, false)
	if r == nil || code != exitOK {
		return code
	}
	if !r.OK() {
		// refuse, but still explain why
		s.printer(s.stderr).Report(s.inv.file, r)
		return exitDiagnostics
	}
	b, err := cli.NewBundle(s.log.RunID, s.inv.file, r)
	if err != nil {
		s.log.Error("%v", err)
		return exitInternal
	}
	if err := cli.WriteJSON(stdout, b); err != nil {
		s.log.Error("writing bundle: %v", err)
		return exitUsage
	}
	return exitOK
}

func (s *session) watch(ctx context.Context, stdout io.Writer) int {
	w, err := watch.New(s.inv.file, watch.DefaultDebounce)
	if err != nil {
		s.log.Error("%v", err)
		return exitUsage
	}
	defer w.Close()

	code := s.check(ctx, stdout)
	s.log.Info("watching %s", w.Path())
	err = w.Run(ctx, func(ev watch.Event) {
		if ev.Op&(watch.OpRemove|watch.OpRename) != 0 {
			if _, err := os.Stat(w.Path()); err != nil {
				s.log.Warn("%s was removed", w.Path())
				return
			}
		}
		s.log.Info("%s changed (%s), re-checking", w.Path(), ev.Op)
		code = s.check(ctx, stdout)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("%v", err)
		return exitUsage
	}
	return code
}
