package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/yunilang/yuni/internal/analysis"
	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/patterns"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorBlue  = "\033[1;34m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// UseColor decides whether output to f is colored under mode (auto, always
// or never). Auto colors terminals unless NO_COLOR is set.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Printer renders diagnostics for humans
type Printer struct {
	W       io.Writer
	Color   bool
	Verbose bool
}

func (p *Printer) paint(color, s string) string {
	if !p.Color {
		return s
	}
	return color + s + colorReset
}

// Diagnostic renders one diagnostic with its secondary labels and hint
func (p *Printer) Diagnostic(d diagnostics.Diagnostic) {
	fmt.Fprintf(p.W, "%s %s\n", p.paint(colorRed, "error["+d.Code()+"]"), p.paint(colorBold, d.Kind.String()+": "+d.Message))
	fmt.Fprintf(p.W, "  %s %s", p.paint(colorBlue, "-->"), d.Span)
	if d.Function != "" {
		fmt.Fprintf(p.W, " (in `%s`)", d.Function)
	}
	fmt.Fprintln(p.W)
	for _, l := range d.Secondary {
		fmt.Fprintf(p.W, "  %s %s: %s\n", p.paint(colorBlue, "  |"), l.Span, l.Message)
	}
	if d.Hint != "" {
		fmt.Fprintf(p.W, "  %s %s\n", p.paint(colorCyan, "= help:"), d.Hint)
	}
	if p.Verbose && d.Detail != "" {
		fmt.Fprintf(p.W, "  %s\n", p.paint(colorCyan, "= detail:"))
		fmt.Fprintf(p.W, "%s\n", indent(d.Detail, "      "))
	}
	fmt.Fprintln(p.W)
}

// Report renders every diagnostic of a run followed by a summary line
func (p *Printer) Report(file string, r *analysis.Report) {
	for _, d := range r.Diagnostics {
		p.Diagnostic(d)
	}
	cached := 0
	for _, f := range r.Functions {
		if f != nil && f.Cached {
			cached++
		}
	}
	line := fmt.Sprintf("%s: %d functions checked, %s", file, len(r.Functions), diagnostics.Summary(r.Diagnostics))
	if cached > 0 {
		line += fmt.Sprintf(" (%d cached)", cached)
	}
	if r.OK() {
		fmt.Fprintln(p.W, p.paint(colorBold, line))
	} else {
		fmt.Fprintln(p.W, p.paint(colorRed, line))
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return prefix + strings.Join(lines, "\n"+prefix)
}

// ====== JSON Output ======

// CheckOutput is the machine-readable result of `yunic check --json`
type CheckOutput struct {
	RunID       string                   `json:"run_id"`
	File        string                   `json:"file"`
	OK          bool                     `json:"ok"`
	Functions   []FunctionStatus         `json:"functions"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

// FunctionStatus summarises one function of a check run
type FunctionStatus struct {
	Name        string `json:"name"`
	OK          bool   `json:"ok"`
	Cached      bool   `json:"cached,omitempty"`
	Aborted     bool   `json:"aborted,omitempty"`
	Diagnostics int    `json:"diagnostics"`
}

// NewCheckOutput builds the JSON view of a run
func NewCheckOutput(runID, file string, r *analysis.Report) *CheckOutput {
	out := &CheckOutput{RunID: runID, File: file, OK: r.OK(), Diagnostics: r.Diagnostics}
	if out.Diagnostics == nil {
		out.Diagnostics = []diagnostics.Diagnostic{}
	}
	for _, f := range r.Functions {
		if f == nil {
			continue
		}
		out.Functions = append(out.Functions, FunctionStatus{
			Name:        f.Name,
			OK:          f.OK(),
			Cached:      f.Cached,
			Aborted:     f.Aborted,
			Diagnostics: len(f.Diagnostics),
		})
	}
	return out
}

// Bundle is what `yunic compile` hands to code generation: for every
// function, the resolved type of each node, the implicit coercions, the
// ownership facts and the decision tree of each match
type Bundle struct {
	RunID     string           `json:"run_id"`
	File      string           `json:"file"`
	Language  string           `json:"language"`
	Functions []FunctionBundle `json:"functions"`
}

// FunctionBundle is the handoff of one accepted function
type FunctionBundle struct {
	Name      string                         `json:"name"`
	Types     map[ast.NodeID]string          `json:"types"`
	Coercions map[ast.NodeID]string          `json:"coercions,omitempty"`
	Moves     map[ast.NodeID]string          `json:"moves,omitempty"`
	Borrows   map[ast.NodeID]string          `json:"borrows,omitempty"`
	Matches   map[ast.NodeID]*patterns.Match `json:"matches,omitempty"`
}

// NewBundle builds the compile handoff. Every function must have been
// analysed in full; cached reports carry no tables and are rejected.
func NewBundle(runID, file string, r *analysis.Report) (*Bundle, error) {
	b := &Bundle{RunID: runID, File: file, Language: r.Program.Language}
	for _, f := range r.Functions {
		if f == nil || f.Types == nil || f.Ownership == nil || f.Patterns == nil {
			name := "<unknown>"
			if f != nil {
				name = f.Name
			}
			return nil, fmt.Errorf("function %s has no complete analysis", name)
		}
		fb := FunctionBundle{
			Name:      f.Name,
			Types:     make(map[ast.NodeID]string, len(f.Types.Types)),
			Coercions: make(map[ast.NodeID]string),
			Moves:     f.Ownership.Moves,
			Borrows:   make(map[ast.NodeID]string, len(f.Ownership.Borrows)),
			Matches:   f.Patterns.Matches,
		}
		for id, t := range f.Types.Types {
			fb.Types[id] = t.String()
		}
		for id, c := range f.Types.Coercions {
			fb.Coercions[id] = c.String()
		}
		for id, k := range f.Ownership.Borrows {
			fb.Borrows[id] = k.String()
		}
		b.Functions = append(b.Functions, fb)
	}
	return b, nil
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
