// Package analysis drives the semantic core over a whole program.
// Declarations are collected once into an immutable symbol table, then
// every function is type-checked, ownership-checked and pattern-compiled
// independently. Functions run in parallel under a bounded errgroup; a
// panic inside one function aborts only that function, while an invariant
// error cancels the run.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/errors"
	"github.com/yunilang/yuni/internal/ownership"
	"github.com/yunilang/yuni/internal/patterns"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/typecheck"
)

// Logger receives progress messages. The driver never prints directly.
type Logger interface {
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Cache stores the diagnostics of previously analysed functions by
// fingerprint
type Cache interface {
	Lookup(key string) ([]diagnostics.Diagnostic, bool, error)
	Store(key, function string, ds []diagnostics.Diagnostic) error
}

// Options configure a run
type Options struct {
	// Jobs bounds the functions analysed at once; zero means GOMAXPROCS
	Jobs int

	// Patterns is passed to the pattern compiler
	Patterns patterns.Options

	// Cache, when set, short-circuits functions whose fingerprint was
	// analysed before. Cached functions carry diagnostics only.
	Cache Cache

	Logger Logger
}

// FunctionReport is the outcome for one function. Types, Ownership and
// Patterns are nil for cached functions; Ownership and Patterns are also
// nil when the function has type errors.
type FunctionReport struct {
	Name        string
	Fingerprint string
	Types       *typecheck.Result
	Ownership   *ownership.Result
	Patterns    *patterns.Result
	Diagnostics []diagnostics.Diagnostic
	Aborted     bool
	Cached      bool
	Elapsed     time.Duration
}

// OK reports whether the function may proceed to code generation
func (r *FunctionReport) OK() bool { return len(r.Diagnostics) == 0 }

// Report is the outcome of a run
type Report struct {
	Program   *ast.Program
	Table     *symbols.Table
	Functions []*FunctionReport

	// Diagnostics holds every diagnostic of the run, deduplicated and
	// sorted by position
	Diagnostics []diagnostics.Diagnostic
}

// OK reports whether the run produced no diagnostics
func (r *Report) OK() bool { return len(r.Diagnostics) == 0 }

// Function returns the report of the function with the given qualified name
func (r *Report) Function(name string) (*FunctionReport, bool) {
	for _, f := range r.Functions {
		if f != nil && f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Analyze runs the semantic core over prog. The returned report holds
// everything produced so far even when err is non-nil; err is an
// *errors.InvariantError, a cache failure, or the context's error.
func Analyze(ctx context.Context, prog *ast.Program, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bag := diagnostics.NewBag()
	table, ds := symbols.Collect(prog)
	bag.AddAll(ds)
	log.Debug("collected %d declarations with %d diagnostics", len(prog.Items), len(ds))

	fns := prog.Functions()
	report := &Report{Program: prog, Table: table, Functions: make([]*FunctionReport, len(fns))}
	env := environment(prog)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := analyzeCached(table, fn, env, opts, log)
			report.Functions[i] = r
			return err
		})
	}
	err := g.Wait()

	for _, r := range report.Functions {
		if r != nil {
			bag.AddAll(r.Diagnostics)
		}
	}
	report.Diagnostics = bag.Items()
	log.Info("analysed %d functions: %s", len(fns), diagnostics.Summary(report.Diagnostics))
	return report, err
}

func analyzeCached(table *symbols.Table, fn *ast.FuncDecl, env string, opts Options, log Logger) (*FunctionReport, error) {
	key := Fingerprint(fn, env, opts.Patterns)
	if opts.Cache != nil {
		ds, ok, err := opts.Cache.Lookup(key)
		if err != nil {
			return nil, fmt.Errorf("cache lookup for %s: %w", fn.QualifiedName(), err)
		}
		if ok {
			log.Debug("%s: cached (%s)", fn.QualifiedName(), key[:12])
			return &FunctionReport{Name: fn.QualifiedName(), Fingerprint: key, Diagnostics: ds, Cached: true}, nil
		}
	}

	r, err := AnalyzeFunction(table, fn, opts.Patterns, log)
	if r != nil {
		r.Fingerprint = key
	}
	if err != nil {
		return r, err
	}
	if opts.Cache != nil && !r.Aborted {
		if err := opts.Cache.Store(key, r.Name, r.Diagnostics); err != nil {
			return r, fmt.Errorf("cache store for %s: %w", r.Name, err)
		}
	}
	return r, nil
}

// AnalyzeFunction runs the three passes over fn. Ownership checking and
// pattern compilation only run on functions that type-check.
func AnalyzeFunction(table *symbols.Table, fn *ast.FuncDecl, popts patterns.Options, log Logger) (r *FunctionReport, err error) {
	if log == nil {
		log = nopLogger{}
	}
	name := fn.QualifiedName()
	r = &FunctionReport{Name: name}
	start := time.Now()

	defer func() {
		r.Elapsed = time.Since(start)
		v := recover()
		if v == nil {
			return
		}
		if ie, ok := v.(*errors.InvariantError); ok {
			err = ie
			return
		}
		r.Aborted = true
		r.Diagnostics = append(r.Diagnostics, diagnostics.New(diagnostics.AnalysisAborted, fn.Span).
			InFunction(name).
			Messagef("analysis of `%s` was aborted by an internal error", name).
			Hint("this is a checker defect; the remaining functions were analysed").
			Detail(errors.Recovered(name, v).Error()).
			Build())
		log.Warn("%s: analysis aborted: %v", name, v)
	}()

	tres, err := typecheck.Check(table, fn)
	if err != nil {
		return r, err
	}
	r.Types = tres
	r.Diagnostics = append(r.Diagnostics, tres.Diagnostics...)
	if !tres.OK() {
		log.Debug("%s: %d type errors, skipping ownership and patterns", name, len(tres.Diagnostics))
		return r, nil
	}

	r.Ownership = ownership.Check(table, fn, tres)
	r.Diagnostics = append(r.Diagnostics, r.Ownership.Diagnostics...)

	r.Patterns = patterns.Check(fn, tres, popts)
	r.Diagnostics = append(r.Diagnostics, r.Patterns.Diagnostics...)

	log.Debug("%s: %d diagnostics", name, len(r.Diagnostics))
	return r, nil
}

// ====== Fingerprints ======

// environment renders everything outside a function body that can change
// its analysis: type declarations and every signature
func environment(prog *ast.Program) string {
	var sb strings.Builder
	sb.WriteString(prog.Language)
	for _, it := range prog.Items {
		sb.WriteString("\n")
		if fn, ok := it.(*ast.FuncDecl); ok {
			sb.WriteString(fn.String())
			if fn.Lives != nil {
				sb.WriteString(" lives " + strings.Join(fn.Lives.Sources, ", "))
			}
			continue
		}
		sb.WriteString(it.String())
	}
	return sb.String()
}

// Fingerprint identifies the analysis of fn: its position, signature and
// body, the declarations around it, and the pattern options
func Fingerprint(fn *ast.FuncDecl, env string, popts patterns.Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", env, fn.Span, fn)
	if fn.Body != nil {
		fmt.Fprintf(h, "%s\x00", fn.Body)
	}
	if d := popts.Domain; d != nil {
		fmt.Fprintf(h, "domain %s..=%s\x00", d.Min, d.Max)
	}
	fmt.Fprintf(h, "verbose %t", popts.Verbose)
	return hex.EncodeToString(h.Sum(nil))
}
