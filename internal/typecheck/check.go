// Package typecheck infers and checks the types of one function body.
// Every expression and pattern node receives a resolved type in
// Result.Types; implicit conversions, generic instantiations and resolved
// callees are recorded alongside for the ownership checker and codegen.
package typecheck

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/errors"
	"github.com/yunilang/yuni/internal/position"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/types"
)

// Result is the annotation table of one function
type Result struct {
	Function string

	// Types maps every expression and pattern node to its resolved type
	Types map[ast.NodeID]*types.Type

	// Coercions records implicit conversions applied to a node's value
	Coercions map[ast.NodeID]types.Coercion

	// LiteralTargets maps implicit struct literals to the chosen struct
	LiteralTargets map[ast.NodeID]*types.StructDef

	// Instantiations holds the type arguments chosen at generic call,
	// struct construction and variant construction nodes
	Instantiations map[ast.NodeID][]*types.Type

	// Calls and Methods hold the resolved callee of call nodes
	Calls   map[ast.NodeID]*symbols.FuncSig
	Methods map[ast.NodeID]*symbols.FuncSig

	// Variants holds the resolved variant of variant literals and patterns
	Variants map[ast.NodeID]symbols.VariantRef

	// Structs holds the struct named by record patterns and struct literals
	Structs map[ast.NodeID]*types.StructDef

	Diagnostics []diagnostics.Diagnostic
}

// TypeOf returns the resolved type of a node, or the invalid type
func (r *Result) TypeOf(id ast.NodeID) *types.Type {
	if t, ok := r.Types[id]; ok {
		return t
	}
	return types.TypeInvalid
}

// OK reports whether the function type-checked without diagnostics
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

func newResult(name string) *Result {
	return &Result{
		Function:       name,
		Types:          make(map[ast.NodeID]*types.Type),
		Coercions:      make(map[ast.NodeID]types.Coercion),
		LiteralTargets: make(map[ast.NodeID]*types.StructDef),
		Instantiations: make(map[ast.NodeID][]*types.Type),
		Calls:          make(map[ast.NodeID]*symbols.FuncSig),
		Methods:        make(map[ast.NodeID]*symbols.FuncSig),
		Variants:       make(map[ast.NodeID]symbols.VariantRef),
		Structs:        make(map[ast.NodeID]*types.StructDef),
	}
}

// local is a variable visible in the current scope
type local struct {
	typ     *types.Type
	mutable bool
}

type pendingCast struct {
	node   *ast.Cast
	target *types.Type
}

type pendingLiteral struct {
	node  ast.Node
	id    ast.NodeID
	value *big.Int
}

// checker holds the inference state of one function
type checker struct {
	table  *symbols.Table
	sig    *symbols.FuncSig
	fn     *ast.FuncDecl
	engine *types.Engine
	res    *Result
	bag    *diagnostics.Bag
	scopes []map[string]*local

	intLiterals []pendingLiteral
	casts       []pendingCast
	diverging   []*types.Type

	// fatal is the first invariant violation; checking stops reporting
	// once it is set
	fatal error
}

// Check type-checks fn against the symbol table. The returned error is
// non-nil only for an internal invariant violation; user errors are in
// Result.Diagnostics.
func Check(table *symbols.Table, fn *ast.FuncDecl) (*Result, error) {
	sig, ok := table.Signature(fn)
	if !ok {
		// Declarations the collector rejected have no signature; they were
		// already reported.
		return newResult(fn.QualifiedName()), nil
	}
	c := &checker{
		table:  table,
		sig:    sig,
		fn:     fn,
		engine: types.NewEngine(),
		res:    newResult(sig.Name),
		bag:    diagnostics.NewBag(),
	}
	c.checkBody()
	if c.fatal != nil {
		c.res.Diagnostics = c.bag.Items()
		return c.res, c.fatal
	}
	c.finish()
	c.res.Diagnostics = c.bag.Items()
	return c.res, nil
}

func (c *checker) checkBody() {
	c.push()
	defer c.pop()
	if c.sig.Receiver != nil {
		c.declare("self", c.sig.ReceiverType(), false)
	}
	for _, p := range c.sig.Params {
		c.declare(p.Name, p.Type, p.Mutable)
	}
	if c.fn.Body == nil {
		return
	}

	ret := c.sig.Return
	bt := c.inferBlock(c.fn.Body, ret)
	c.record(c.fn.Body, bt)
	switch {
	case c.fn.Body.Tail != nil:
		c.assignAt(c.fn.Body.Tail, ret, c.res.Types[c.fn.Body.Tail.ID()])
	case endsInReturn(c.fn.Body):
	case ret.Kind != types.TypeKindUnit:
		diagnostics.New(diagnostics.TypeMismatch, c.fn.Span).
			Messagef("function `%s` returns `%s` but its body produces no value", c.sig.Name, ret).
			InFunction(c.sig.Name).
			Report(c.bag)
	}
}

// finish defaults literals, runs the checks that need final types and
// resolves the annotation table
func (c *checker) finish() {
	c.engine.Default()
	for _, v := range c.diverging {
		if c.engine.Shallow(v).Kind == types.TypeKindVar {
			_ = c.engine.Unify(v, types.TypeUnit)
		}
	}

	for _, lit := range c.intLiterals {
		t := c.engine.Resolve(c.res.Types[lit.id])
		if t.IsInteger() && !types.FitsInt(t, lit.value) {
			c.errorAt(diagnostics.TypeMismatch, lit.node, "integer literal `%d` does not fit in `%s`", lit.value, t)
		}
	}
	for _, pc := range c.casts {
		from := c.engine.Resolve(c.res.Types[pc.node.Operand.ID()])
		if from.Kind == types.TypeKindVar {
			continue
		}
		if !types.CanCast(from, pc.target) {
			diagnostics.New(diagnostics.InvalidCast, pc.node.Span).
				Messagef("cannot cast `%s` as `%s`", from, pc.target).
				Hint("only numeric types and bool-to-integer conversions are allowed").
				InFunction(c.sig.Name).
				Report(c.bag)
		}
	}

	ids := make([]ast.NodeID, 0, len(c.res.Types))
	for id := range c.res.Types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	reported := false
	spans := nodeSpans(c.fn)
	for _, id := range ids {
		t := c.engine.Resolve(c.res.Types[id])
		c.res.Types[id] = t
		if t.HasVars() && !reported {
			reported = true
			diagnostics.New(diagnostics.UnresolvedType, spans[id]).
				Messagef("cannot infer a type for this expression (found `%s`)", t).
				Hint("add a type annotation").
				InFunction(c.sig.Name).
				Report(c.bag)
		}
	}
	for id, args := range c.res.Instantiations {
		resolved := make([]*types.Type, len(args))
		for i, a := range args {
			resolved[i] = c.engine.Resolve(a)
		}
		c.res.Instantiations[id] = resolved
	}
}

func nodeSpans(fn *ast.FuncDecl) map[ast.NodeID]position.Span {
	spans := make(map[ast.NodeID]position.Span)
	ast.Inspect(fn, func(n ast.Node) bool {
		switch x := n.(type) {
		case ast.Expr:
			spans[x.ID()] = x.GetSpan()
		case ast.Pattern:
			spans[x.ID()] = x.GetSpan()
		}
		return true
	})
	return spans
}

// ====== Scopes ======

func (c *checker) push() { c.scopes = append(c.scopes, make(map[string]*local)) }
func (c *checker) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) declare(name string, t *types.Type, mutable bool) {
	c.scopes[len(c.scopes)-1][name] = &local{typ: t, mutable: mutable}
}

func (c *checker) lookup(name string) (*local, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if l, ok := c.scopes[i][name]; ok {
			return l, true
		}
	}
	return nil, false
}

// ====== Recording and reporting ======

func (c *checker) record(n interface{ ID() ast.NodeID }, t *types.Type) *types.Type {
	c.res.Types[n.ID()] = t
	return t
}

func (c *checker) errorAt(kind diagnostics.Kind, n ast.Node, format string, args ...interface{}) {
	if c.fatal != nil {
		return
	}
	diagnostics.New(kind, n.GetSpan()).
		Message(fmt.Sprintf(format, args...)).
		InFunction(c.sig.Name).
		Report(c.bag)
}

// handle converts a unification error into a diagnostic at n. It returns
// false if the types could not be made equal.
func (c *checker) handle(n ast.Node, err error) bool {
	if err == nil {
		return true
	}
	if errors.IsInvariant(err) {
		if c.fatal == nil {
			c.fatal = err
		}
		return false
	}
	if mm, ok := err.(*types.MismatchError); ok {
		c.errorAt(diagnostics.TypeMismatch, n, "mismatched types: expected `%s`, found `%s`", mm.Expected, mm.Found)
		return false
	}
	c.errorAt(diagnostics.TypeMismatch, n, "%v", err)
	return false
}

func (c *checker) unifyAt(n ast.Node, expected, found *types.Type) bool {
	return c.handle(n, c.engine.Unify(expected, found))
}

// assignAt checks that the value of e may be stored where expected is
// required and records any widening
func (c *checker) assignAt(e ast.Expr, expected, found *types.Type) bool {
	if found == nil {
		return true
	}
	coercion, err := c.engine.Assign(expected, found)
	if !c.handle(e, err) {
		return false
	}
	if coercion != types.CoercionNone {
		c.res.Coercions[e.ID()] = coercion
	}
	return true
}

func (c *checker) resolveType(te ast.TypeExpr) *types.Type {
	t, ds := c.table.ResolveType(te, c.sig.TypeParams)
	for _, d := range ds {
		d.Function = c.sig.Name
		c.bag.Add(d)
	}
	return t
}

func endsInReturn(b *ast.Block) bool {
	if b.Tail != nil || len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*ast.ReturnStmt)
	return ok
}

// ====== Statements ======

func (c *checker) inferBlock(b *ast.Block, expected *types.Type) *types.Type {
	c.push()
	defer c.pop()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	if b.Tail != nil {
		return c.infer(b.Tail, expected)
	}
	if endsInReturn(b) {
		v := c.engine.Fresh(types.ClassGeneral)
		c.diverging = append(c.diverging, v)
		return v
	}
	return types.TypeUnit
}

func (c *checker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LetStmt:
		var declared *types.Type
		if s.Type != nil {
			declared = c.resolveType(s.Type)
		}
		t := declared
		if s.Init != nil {
			it := c.infer(s.Init, declared)
			if declared != nil {
				c.assignAt(s.Init, declared, it)
			} else {
				t = it
			}
		}
		if t == nil {
			t = c.engine.Fresh(types.ClassGeneral)
		}
		c.checkPattern(s.Pattern, t)
	case *ast.ExprStmt:
		c.infer(s.X, nil)
	case *ast.ReturnStmt:
		if s.Value == nil {
			c.unifyAt(s, c.sig.Return, types.TypeUnit)
			return
		}
		vt := c.infer(s.Value, c.sig.Return)
		c.assignAt(s.Value, c.sig.Return, vt)
	case *ast.WhileStmt:
		ct := c.infer(s.Cond, types.TypeBool)
		c.unifyAt(s.Cond, types.TypeBool, ct)
		c.record(s.Body, c.inferBlock(s.Body, nil))
	case *ast.ForStmt:
		c.push()
		defer c.pop()
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			ct := c.infer(s.Cond, types.TypeBool)
			c.unifyAt(s.Cond, types.TypeBool, ct)
		}
		c.record(s.Body, c.inferBlock(s.Body, nil))
		if s.Update != nil {
			c.infer(s.Update, nil)
		}
	}
}
