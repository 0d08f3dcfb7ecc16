package patterns

import (
	"fmt"
	"strings"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/position"
	"github.com/yunilang/yuni/internal/typecheck"
)

// Result holds the compiled matches of one function, keyed by the match
// expression's node id. Refutable let patterns are keyed by the pattern's
// node id.
type Result struct {
	Function    string
	Matches     map[ast.NodeID]*Match
	Diagnostics []diagnostics.Diagnostic
}

// OK reports whether every match was exhaustive and fully reachable
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// Check compiles every match in fn, and every let whose pattern can fail,
// against the types typecheck resolved
func Check(fn *ast.FuncDecl, tres *typecheck.Result, opts Options) *Result {
	res := &Result{Function: fn.QualifiedName(), Matches: make(map[ast.NodeID]*Match)}
	if fn.Body == nil {
		return res
	}
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Match:
			res.checkMatch(x, tres, opts)
		case *ast.LetStmt:
			if x.Init != nil && !ast.Irrefutable(x.Pattern) {
				res.checkLet(x, tres, opts)
			}
		}
		return true
	})
	return res
}

func (r *Result) checkMatch(m *ast.Match, tres *typecheck.Result, opts Options) {
	arms := make([]Arm, len(m.Arms))
	for i, a := range m.Arms {
		arms[i] = Arm{Pattern: a.Pattern, Guarded: a.Guard != nil}
	}
	cm := Compile(tres.TypeOf(m.Scrutinee.ID()), arms, opts)
	r.Matches[m.ID()] = cm

	if !cm.Exhaustive {
		b := r.report(diagnostics.NonExhaustiveMatch, m.Span).
			Messagef("non-exhaustive patterns: %s not covered", listWitnesses(cm.Witnesses)).
			Hint("add an arm for the missing patterns, or a `_` arm")
		if opts.Verbose {
			b.Detail(cm.Matrix)
		}
		r.Diagnostics = append(r.Diagnostics, b.Build())
	}
	for _, i := range cm.Unreachable {
		a := m.Arms[i]
		r.Diagnostics = append(r.Diagnostics, r.report(diagnostics.UnreachableArm, a.Pattern.GetSpan()).
			Messagef("unreachable pattern: arm %d is covered by earlier arms", i+1).
			Secondary(m.Span, "in this match").
			Build())
	}
}

func (r *Result) checkLet(s *ast.LetStmt, tres *typecheck.Result, opts Options) {
	cm := Compile(tres.TypeOf(s.Pattern.ID()), []Arm{{Pattern: s.Pattern}}, opts)
	r.Matches[s.Pattern.ID()] = cm
	if cm.Exhaustive {
		return
	}
	b := r.report(diagnostics.NonExhaustiveMatch, s.Pattern.GetSpan()).
		Messagef("refutable pattern in local binding: %s not covered", listWitnesses(cm.Witnesses)).
		Hint("use `match` to handle the remaining cases")
	if opts.Verbose {
		b.Detail(cm.Matrix)
	}
	r.Diagnostics = append(r.Diagnostics, b.Build())
}

func (r *Result) report(kind diagnostics.Kind, at position.Span) *diagnostics.Builder {
	return diagnostics.New(kind, at).InFunction(r.Function)
}

// listWitnesses renders "`a`", "`a` and `b`" or "`a`, `b` and 3 more"
func listWitnesses(ws []ast.Pattern) string {
	quoted := make([]string, len(ws))
	for i, w := range ws {
		quoted[i] = "`" + w.String() + "`"
	}
	switch len(quoted) {
	case 0:
		return "`_`"
	case 1:
		return quoted[0]
	case 2, 3:
		return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
	default:
		return fmt.Sprintf("%s, %s and %d more", quoted[0], quoted[1], len(quoted)-2)
	}
}
