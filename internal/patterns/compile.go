// Pattern match compilation for Yuni.
// This file turns the ordered arms of a match into a decision tree by
// repeated specialization of a pattern matrix. Integer columns are split
// into canonical segments of the scrutinee's domain, list columns into
// exact lengths plus an open-ended bucket, and guarded arms keep a
// fallthrough subtree. Every Fail node carries witnesses of the values it
// receives, which become the non-exhaustiveness report.

package patterns

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/types"
)

// maxWitnesses bounds the witnesses reconstructed at one Fail node
const maxWitnesses = 8

// ====== Decision Tree ======

// Tree is a decision tree node: *Switch, *Leaf or *Fail
type Tree interface {
	treeNode()
}

// Switch tests the value at Path against each case in order. Default
// receives every value no case matches and is nil when the cases are
// complete.
type Switch struct {
	Path    Path        `json:"path"`
	Type    *types.Type `json:"type"`
	Cases   []Case      `json:"cases"`
	Default Tree        `json:"default,omitempty"`
}

// Case is one branch of a Switch
type Case struct {
	Ctor Ctor `json:"ctor"`
	Tree Tree `json:"tree"`
}

// Leaf selects Arm. A guarded leaf continues with Fallthrough when the
// guard is false.
type Leaf struct {
	Arm         int       `json:"arm"`
	Bindings    []Binding `json:"bindings,omitempty"`
	Guarded     bool      `json:"guarded,omitempty"`
	Fallthrough Tree      `json:"fallthrough,omitempty"`
}

// Fail is reached by values no arm matches
type Fail struct {
	Witnesses []ast.Pattern
}

func (*Switch) treeNode() {}
func (*Leaf) treeNode()   {}
func (*Fail) treeNode()   {}

func (s *Switch) MarshalJSON() ([]byte, error) {
	type alias Switch
	return json.Marshal(struct {
		Node string `json:"node"`
		*alias
	}{"switch", (*alias)(s)})
}

func (l *Leaf) MarshalJSON() ([]byte, error) {
	type alias Leaf
	return json.Marshal(struct {
		Node string `json:"node"`
		*alias
	}{"leaf", (*alias)(l)})
}

func (f *Fail) MarshalJSON() ([]byte, error) {
	ws := make([]string, len(f.Witnesses))
	for i, w := range f.Witnesses {
		ws[i] = w.String()
	}
	return json.Marshal(struct {
		Node      string   `json:"node"`
		Witnesses []string `json:"witnesses"`
	}{"fail", ws})
}

// ====== Options ======

// Domain restricts the integer values a scrutinee can take
type Domain struct {
	Min, Max *big.Int
}

// NewDomain returns the domain [min, max]
func NewDomain(min, max int64) *Domain {
	return &Domain{Min: big.NewInt(min), Max: big.NewInt(max)}
}

// Options tune a compilation
type Options struct {
	// Domain overrides the type bounds of every integer column
	Domain *Domain

	// Verbose keeps a dump of the initial pattern matrix in Match.Matrix
	Verbose bool
}

// ====== Compilation ======

// Arm is one arm handed to the compiler
type Arm struct {
	Pattern ast.Pattern
	Guarded bool
}

// Match is the result of compiling one match
type Match struct {
	Tree        Tree
	Exhaustive  bool
	Witnesses   []ast.Pattern
	Unreachable []int
	Matrix      string
}

func (m *Match) MarshalJSON() ([]byte, error) {
	ws := make([]string, len(m.Witnesses))
	for i, w := range m.Witnesses {
		ws[i] = w.String()
	}
	return json.Marshal(struct {
		Tree        Tree     `json:"tree"`
		Exhaustive  bool     `json:"exhaustive"`
		Witnesses   []string `json:"witnesses,omitempty"`
		Unreachable []int    `json:"unreachable,omitempty"`
		Matrix      string   `json:"matrix,omitempty"`
	}{m.Tree, m.Exhaustive, ws, m.Unreachable, m.Matrix})
}

type compiler struct {
	opts Options
}

// frame records how one matrix step rewrote the columns, so a Fail node
// can rebuild a witness for the scrutinee from witnesses for its columns.
// Columns col..col+arity-1 collapse back into the patterns build returns.
type frame struct {
	parent *frame
	col    int
	arity  int
	build  func(args []ast.Pattern) []ast.Pattern
}

func (f *frame) push(col, arity int, build func(args []ast.Pattern) []ast.Pattern) *frame {
	return &frame{parent: f, col: col, arity: arity, build: build}
}

// Compile builds the decision tree for arms over a scrutinee of type
// scrutinee and runs the exhaustiveness and reachability analyses
func Compile(scrutinee *types.Type, arms []Arm, opts Options) *Match {
	c := &compiler{opts: opts}
	m := &matrix{cols: []column{{path: Path{}, typ: scrutinee}}}
	for i, a := range arms {
		m.rows = append(m.rows, row{pats: []*pat{lower(a.Pattern, scrutinee)}, arm: i, guarded: a.Guarded})
	}

	res := &Match{}
	if opts.Verbose {
		res.Matrix = m.expandAlternatives().String()
	}
	res.Tree = c.compile(m, nil)

	res.Exhaustive = true
	seen := make(map[string]bool)
	Inspect(res.Tree, func(t Tree) {
		if f, ok := t.(*Fail); ok {
			res.Exhaustive = false
			for _, w := range f.Witnesses {
				if key := w.String(); !seen[key] {
					seen[key] = true
					res.Witnesses = append(res.Witnesses, w)
				}
			}
		}
	})
	res.Unreachable = c.unreachable(m)
	return res
}

func (c *compiler) compile(m *matrix, fr *frame) Tree {
	m, fr = c.normalize(m, fr)
	if len(m.rows) == 0 {
		return &Fail{Witnesses: witnesses(len(m.cols), fr)}
	}

	first := m.rows[0]
	if first.irrefutable() {
		leaf := &Leaf{Arm: first.arm, Bindings: first.bindings(m.cols), Guarded: first.guarded}
		if first.guarded {
			leaf.Fallthrough = c.compile(&matrix{cols: m.cols, rows: m.rows[1:]}, fr)
		}
		return leaf
	}

	i := 0
	for first.pats[i].kind == patWild {
		i++
	}
	col := m.cols[i]
	sw := &Switch{Path: col.path, Type: col.typ}
	cases, missing := c.family(m, i)
	for _, k := range cases {
		k := k
		sub := m.specialize(i, k)
		child := c.compile(sub, fr.push(i, k.arity(), func(args []ast.Pattern) []ast.Pattern {
			return []ast.Pattern{ctorWitness(col, k, args)}
		}))
		sw.Cases = append(sw.Cases, Case{Ctor: k, Tree: child})
	}
	if missing != nil {
		sw.Default = c.compile(m.defaultRows(i), fr.push(i, 0, func([]ast.Pattern) []ast.Pattern {
			return missing
		}))
	}
	return sw
}

// normalize expands or-patterns and guards into rows and destructures
// product columns until every non-wild pattern discriminates
func (c *compiler) normalize(m *matrix, fr *frame) (*matrix, *frame) {
	for {
		m = m.expandAlternatives()
		i := m.structuralColumn()
		if i < 0 {
			return m, fr
		}
		col := m.cols[i]
		var n int
		m, n = m.expandProduct(i)
		fr = fr.push(i, n, func(args []ast.Pattern) []ast.Pattern {
			return []ast.Pattern{productWitness(col.typ, args)}
		})
	}
}

// domain returns the integer bounds of columns of type t
func (c *compiler) domain(t *types.Type) (*big.Int, *big.Int) {
	if c.opts.Domain != nil {
		return c.opts.Domain.Min, c.opts.Domain.Max
	}
	if min, max, ok := types.IntBounds(t); ok {
		return min, max
	}
	return big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64)
}

// ====== Witnesses ======

// witnesses rebuilds scrutinee patterns from a Fail node reached with
// width columns left, all of them unconstrained
func witnesses(width int, fr *frame) []ast.Pattern {
	vec := make([]ast.Pattern, width)
	for i := range vec {
		vec[i] = &ast.WildcardPattern{}
	}
	vecs := [][]ast.Pattern{vec}
	for f := fr; f != nil; f = f.parent {
		var next [][]ast.Pattern
		for _, v := range vecs {
			args := append([]ast.Pattern(nil), v[f.col:f.col+f.arity]...)
			for _, p := range f.build(args) {
				nv := make([]ast.Pattern, 0, len(v)-f.arity+1)
				nv = append(nv, v[:f.col]...)
				nv = append(nv, p)
				nv = append(nv, v[f.col+f.arity:]...)
				next = append(next, nv)
			}
		}
		if len(next) > maxWitnesses {
			next = next[:maxWitnesses]
		}
		vecs = next
	}
	out := make([]ast.Pattern, 0, len(vecs))
	for _, v := range vecs {
		if len(v) > 0 {
			out = append(out, v[0])
		}
	}
	return out
}

func isWildcard(p ast.Pattern) bool {
	_, ok := p.(*ast.WildcardPattern)
	return ok
}

func boolLiteral(b bool) *ast.LiteralPattern {
	return &ast.LiteralPattern{Kind: ast.LitBool, Bool: b}
}

func intLiteral(v *big.Int) *ast.LiteralPattern {
	if v.IsInt64() {
		return &ast.LiteralPattern{Kind: ast.LitInt, Int: v.Int64()}
	}
	return &ast.LiteralPattern{Kind: ast.LitInt, Str: v.String()}
}

func productWitness(t *types.Type, args []ast.Pattern) ast.Pattern {
	switch t.Kind {
	case types.TypeKindTuple:
		return &ast.TuplePattern{Elems: args}
	case types.TypeKindStruct:
		def := t.AsStruct().Def
		rp := &ast.RecordPattern{Name: def.Name}
		for i, a := range args {
			if isWildcard(a) {
				rp.Rest = true
				continue
			}
			rp.Fields = append(rp.Fields, ast.FieldPattern{Name: def.Fields[i].Name, Pattern: a})
		}
		return rp
	case types.TypeKindReference:
		return args[0]
	default:
		return &ast.TuplePattern{}
	}
}

// variantWitness renders v with args as its payload; nil args stand for
// wildcards
func variantWitness(def *types.EnumDef, v *types.Variant, args []ast.Pattern) ast.Pattern {
	vp := &ast.VariantPattern{Enum: def.Name, Variant: v.Name}
	if v.IsStructLike() {
		for i, f := range v.Fields {
			if i >= len(args) || isWildcard(args[i]) {
				vp.Rest = true
				continue
			}
			vp.Fields = append(vp.Fields, ast.FieldPattern{Name: f.Name, Pattern: args[i]})
		}
		return vp
	}
	for i := 0; i < len(v.Payload); i++ {
		if i < len(args) {
			vp.Args = append(vp.Args, args[i])
		} else {
			vp.Args = append(vp.Args, &ast.WildcardPattern{})
		}
	}
	return vp
}

func ctorWitness(col column, k Ctor, args []ast.Pattern) ast.Pattern {
	switch k.Kind {
	case CtorBool:
		return boolLiteral(k.Bool)
	case CtorVariant:
		return variantWitness(col.typ.AsEnum().Def, k.Variant, args)
	case CtorRange:
		return intLiteral(k.Lo)
	case CtorString:
		return &ast.LiteralPattern{Kind: ast.LitString, Str: k.Str}
	case CtorFloat:
		return &ast.LiteralPattern{Kind: ast.LitFloat, Float: k.Float}
	case CtorLen:
		return &ast.ListPattern{Prefix: args}
	case CtorMinLen:
		prefix := args
		for len(prefix) < k.Len {
			prefix = append(prefix, &ast.WildcardPattern{})
		}
		return &ast.ListPattern{Prefix: prefix, HasRest: true}
	}
	return &ast.WildcardPattern{}
}

// ====== Traversal ======

// Inspect calls f for every node of t in depth-first order
func Inspect(t Tree, f func(Tree)) {
	if t == nil {
		return
	}
	f(t)
	switch n := t.(type) {
	case *Switch:
		for _, c := range n.Cases {
			Inspect(c.Tree, f)
		}
		Inspect(n.Default, f)
	case *Leaf:
		Inspect(n.Fallthrough, f)
	}
}

// Arms returns the arms some leaf of t selects
func Arms(t Tree) map[int]bool {
	out := make(map[int]bool)
	Inspect(t, func(n Tree) {
		if l, ok := n.(*Leaf); ok {
			out[l.Arm] = true
		}
	})
	return out
}
