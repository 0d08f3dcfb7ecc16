package patterns

import (
	"fmt"
	"strings"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/errors"
	"github.com/yunilang/yuni/internal/types"
)

// ====== Pattern Matrix ======

// column is one occurrence tested by the matrix
type column struct {
	path Path
	typ  *types.Type
}

// row is one arm, or one alternative of an arm's or-pattern
type row struct {
	pats    []*pat
	arm     int
	guarded bool
	binds   []Binding
}

type matrix struct {
	cols []column
	rows []row
}

func (r row) replace(j int, p *pat) row {
	pats := make([]*pat, len(r.pats))
	copy(pats, r.pats)
	pats[j] = p
	return row{pats: pats, arm: r.arm, guarded: r.guarded, binds: r.binds}
}

// bindings returns everything row r binds once all its remaining
// patterns are wildcards
func (r row) bindings(cols []column) []Binding {
	out := append([]Binding(nil), r.binds...)
	for j, p := range r.pats {
		out = append(out, bindOf(p, cols[j].path)...)
	}
	return out
}

func (r row) irrefutable() bool {
	for _, p := range r.pats {
		if p.kind != patWild {
			return false
		}
	}
	return true
}

// expandRow splits top-level or-patterns into one row per alternative and
// unwraps guard patterns, marking the row guarded
func expandRow(r row) []row {
	for j, p := range r.pats {
		switch p.kind {
		case patOr:
			var out []row
			for _, alt := range p.args {
				out = append(out, expandRow(r.replace(j, alt))...)
			}
			return out
		case patGuard:
			nr := r.replace(j, p.args[0])
			nr.guarded = true
			return expandRow(nr)
		}
	}
	return []row{r}
}

func (m *matrix) expandAlternatives() *matrix {
	out := &matrix{cols: m.cols}
	for _, r := range m.rows {
		out.rows = append(out.rows, expandRow(r)...)
	}
	return out
}

// structuralColumn returns the first column some row destructures as a
// product, or -1
func (m *matrix) structuralColumn() int {
	for j := range m.cols {
		for _, r := range m.rows {
			if isStructural(r.pats[j]) {
				return j
			}
		}
	}
	return -1
}

// splice replaces column i with sub. f maps each row's pattern in column i
// to its replacement, extra bindings and whether the row survives.
func (m *matrix) splice(i int, sub []column, f func(p *pat) ([]*pat, []Binding, bool)) *matrix {
	cols := make([]column, 0, len(m.cols)-1+len(sub))
	cols = append(cols, m.cols[:i]...)
	cols = append(cols, sub...)
	cols = append(cols, m.cols[i+1:]...)

	out := &matrix{cols: cols}
	for _, r := range m.rows {
		if len(r.pats) != len(m.cols) {
			panic(errors.MalformedMatrix(fmt.Sprintf("row for arm %d has %d patterns for %d columns", r.arm, len(r.pats), len(m.cols))))
		}
		repl, binds, ok := f(r.pats[i])
		if !ok {
			continue
		}
		pats := make([]*pat, 0, len(cols))
		pats = append(pats, r.pats[:i]...)
		pats = append(pats, repl...)
		pats = append(pats, r.pats[i+1:]...)
		nb := r.binds
		if len(binds) > 0 {
			nb = make([]Binding, 0, len(r.binds)+len(binds))
			nb = append(nb, r.binds...)
			nb = append(nb, binds...)
		}
		out.rows = append(out.rows, row{pats: pats, arm: r.arm, guarded: r.guarded, binds: nb})
	}
	return out
}

// productColumns returns the sub-columns of a single-constructor column
func productColumns(col column) []column {
	switch col.typ.Kind {
	case types.TypeKindTuple:
		elems := col.typ.AsTuple().Elements
		out := make([]column, len(elems))
		for i, e := range elems {
			out[i] = column{path: col.path.Child(Step{Kind: StepTuple, Index: i}), typ: e}
		}
		return out
	case types.TypeKindStruct:
		fields := col.typ.AsStruct().Fields()
		out := make([]column, len(fields))
		for i, f := range fields {
			out[i] = column{path: col.path.Child(Step{Kind: StepField, Index: i, Name: f.Name}), typ: f.Type}
		}
		return out
	case types.TypeKindReference:
		return []column{{path: col.path.Child(Step{Kind: StepDeref}), typ: col.typ.AsReference().Target}}
	default:
		return nil
	}
}

// expandProduct destructures column i in place
func (m *matrix) expandProduct(i int) (*matrix, int) {
	col := m.cols[i]
	sub := productColumns(col)
	return m.splice(i, sub, func(p *pat) ([]*pat, []Binding, bool) {
		if isStructural(p) {
			return fit(p.args, len(sub)), nil, true
		}
		return wilds(len(sub)), bindOf(p, col.path), true
	}), len(sub)
}

// specialize keeps the rows admitting case k and replaces column i by k's
// sub-columns
func (m *matrix) specialize(i int, k Ctor) *matrix {
	col := m.cols[i]
	sub := k.columns(col)
	return m.splice(i, sub, func(p *pat) ([]*pat, []Binding, bool) {
		if p.kind == patWild {
			return wilds(len(sub)), bindOf(p, col.path), true
		}
		return k.match(p, len(sub), col.path)
	})
}

// defaultRows keeps the rows with a wildcard in column i and drops it
func (m *matrix) defaultRows(i int) *matrix {
	col := m.cols[i]
	return m.splice(i, nil, func(p *pat) ([]*pat, []Binding, bool) {
		if p.kind != patWild {
			return nil, nil, false
		}
		return nil, bindOf(p, col.path), true
	})
}

// ====== Constructor Families ======

// family lists the cases a Switch on column i needs, in order, and the
// witnesses of the values no case covers. missing is nil when the cases
// are complete.
func (c *compiler) family(m *matrix, i int) (cases []Ctor, missing []ast.Pattern) {
	col := m.cols[i]
	kind := patWild
	for _, r := range m.rows {
		if k := r.pats[i].kind; k != patWild {
			kind = k
			break
		}
	}

	switch kind {
	case patBool:
		seen := [2]bool{}
		for _, r := range m.rows {
			if p := r.pats[i]; p.kind == patBool {
				seen[boolIndex(p.b)] = true
			}
		}
		for _, b := range []bool{false, true} {
			if seen[boolIndex(b)] {
				cases = append(cases, Ctor{Kind: CtorBool, Bool: b})
			} else {
				missing = append(missing, boolLiteral(b))
			}
		}
		return cases, missing

	case patVariant:
		et := col.typ.AsEnum()
		seen := make(map[int]bool)
		for _, r := range m.rows {
			if p := r.pats[i]; p.kind == patVariant {
				seen[p.variant.Index] = true
			}
		}
		for _, v := range et.Def.Variants {
			if seen[v.Index] {
				cases = append(cases, Ctor{Kind: CtorVariant, Variant: v})
			} else {
				missing = append(missing, variantWitness(et.Def, v, nil))
			}
		}
		return cases, missing

	case patInt:
		min, max := c.domain(col.typ)
		var gaps []segment
		for _, s := range segments(m, i, min, max) {
			if s.cover == "" {
				gaps = append(gaps, s)
				continue
			}
			cases = append(cases, Ctor{Kind: CtorRange, Lo: s.lo, Hi: s.hi})
		}
		if len(gaps) > 0 {
			missing = []ast.Pattern{intLiteral(gaps[0].lo)}
		}
		return cases, missing

	case patString, patFloat:
		seen := make(map[string]bool)
		for _, r := range m.rows {
			p := r.pats[i]
			var k Ctor
			switch p.kind {
			case patString:
				k = Ctor{Kind: CtorString, Str: p.str}
			case patFloat:
				k = Ctor{Kind: CtorFloat, Float: p.f}
			default:
				continue
			}
			if key := k.String(); !seen[key] {
				seen[key] = true
				cases = append(cases, k)
			}
		}
		return cases, []ast.Pattern{&ast.WildcardPattern{}}

	case patList:
		maxLen, maxPrefix := 0, 0
		for _, r := range m.rows {
			p := r.pats[i]
			if p.kind != patList {
				continue
			}
			if len(p.args) > maxLen {
				maxLen = len(p.args)
			}
			if p.rest && len(p.args) > maxPrefix {
				maxPrefix = len(p.args)
			}
		}
		for n := 0; n <= maxLen; n++ {
			cases = append(cases, Ctor{Kind: CtorLen, Len: n})
		}
		cases = append(cases, Ctor{Kind: CtorMinLen, Len: maxLen + 1, Prefix: maxPrefix})
		return cases, nil
	}
	return nil, []ast.Pattern{&ast.WildcardPattern{}}
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ====== Matrix Dump ======

// String renders the matrix one row per line for verbose diagnostics
func (m *matrix) String() string {
	var sb strings.Builder
	for j, col := range m.cols {
		if j > 0 {
			sb.WriteString(" | ")
		}
		fmt.Fprintf(&sb, "%s: %s", col.path, col.typ)
	}
	sb.WriteString("\n")
	for _, r := range m.rows {
		for j, p := range r.pats {
			if j > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(p.String())
		}
		fmt.Fprintf(&sb, "  => arm %d", r.arm)
		if r.guarded {
			sb.WriteString(" (guarded)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (p *pat) String() string {
	switch p.kind {
	case patWild:
		if p.bind != "" {
			return p.bind
		}
		return "_"
	case patBool:
		return boolLiteral(p.b).String()
	case patVariant:
		return p.variant.Name + "(" + joinPats(p.args) + ")"
	case patInt:
		if p.lo.Cmp(p.hi) == 0 {
			return p.lo.String()
		}
		return p.lo.String() + "..=" + p.hi.String()
	case patString:
		return (&ast.LiteralPattern{Kind: ast.LitString, Str: p.str}).String()
	case patFloat:
		return (&ast.LiteralPattern{Kind: ast.LitFloat, Float: p.f}).String()
	case patList:
		s := joinPats(p.args)
		if p.rest {
			if s != "" {
				s += ", "
			}
			s += p.restBind + ".."
		}
		return "[" + s + "]"
	case patTuple:
		return "(" + joinPats(p.args) + ")"
	case patDeref:
		return "&" + p.args[0].String()
	case patOr:
		parts := make([]string, len(p.args))
		for i, a := range p.args {
			parts[i] = a.String()
		}
		return strings.Join(parts, " | ")
	case patGuard:
		return p.args[0].String() + " if .."
	default:
		return "?"
	}
}

func joinPats(ps []*pat) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
