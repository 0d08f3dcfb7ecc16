package ownership

import (
	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/types"
)

// use says how an expression's value is consumed
type use int

const (
	useRead use = iota // inspected or copied
	useMove            // consumed; non-copy places are moved
)

// ====== Statements ======

func (c *checker) block(b *ast.Block, u use) []origin {
	c.push(false, b.Span)
	for _, s := range b.Stmts {
		c.stmt(s)
	}
	var out []origin
	if b.Tail != nil {
		c.push(true, b.Tail.GetSpan())
		out = c.eval(b.Tail, u)
		c.rescope(out, c.enclosingTemp())
		c.pop()
	}
	c.pop()
	return out
}

func (c *checker) stmt(s ast.Stmt) {
	c.push(true, s.GetSpan())
	defer c.pop()

	switch s := s.(type) {
	case *ast.LetStmt:
		var out []origin
		if s.Init != nil {
			out = c.eval(s.Init, c.patternUse(s.Pattern))
		}
		for _, bp := range ast.Bindings(s.Pattern) {
			t := c.typeOf(bp)
			id := c.declare(bp.Name, t, bp.Mutable, bp.Span)
			if s.Init == nil {
				c.dyn[id].moved, c.dyn[id].late = true, true
				continue
			}
			if t.ContainsReference() {
				c.adopt(id, out)
			}
		}

	case *ast.ExprStmt:
		c.eval(s.X, useRead)

	case *ast.ReturnStmt:
		if s.Value != nil {
			out := c.eval(s.Value, useMove)
			c.checkEscape(s.Value, out)
		}
		c.diverged = true

	case *ast.WhileStmt:
		c.loop(s.Cond, s.Body, nil)

	case *ast.ForStmt:
		c.push(false, s.Span)
		defer c.pop()
		if s.Init != nil {
			c.stmt(s.Init)
		}
		c.loop(s.Cond, s.Body, s.Update)
	}
}

// loop checks one loop whose cond and update may be nil. The body may run
// zero times, so the state after the loop joins the paths before and
// after each iteration.
func (c *checker) loop(cond ast.Expr, body *ast.Block, update ast.Expr) {
	before := c.save()
	c.evalOpt(cond)
	afterCond := c.save()
	c.block(body, useRead)
	c.evalOpt(update)
	once := c.save()
	if once.diverged {
		c.restore(afterCond)
	}
	// a second pass catches values moved by the previous iteration
	c.evalOpt(cond)
	c.block(body, useRead)
	c.evalOpt(update)
	twice := c.save()
	c.merge(afterCond, once, twice)
	if before.diverged {
		c.diverged = true
	}
}

func (c *checker) evalOpt(e ast.Expr) {
	if e != nil {
		c.eval(e, useRead)
	}
}

// patternUse moves the matched value only when some binding takes a
// non-copy part of it by value
func (c *checker) patternUse(p ast.Pattern) use {
	for _, bp := range ast.Bindings(p) {
		if !c.typeOf(bp).IsCopy() {
			return useMove
		}
	}
	return useRead
}

// ====== Expressions ======

func (c *checker) eval(e ast.Expr, u use) []origin {
	out := c.evalExpr(e, u)
	if len(out) > 0 && !c.typeOf(e).ContainsReference() {
		return nil
	}
	return out
}

func (c *checker) evalExpr(e ast.Expr, u use) []origin {
	switch e := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit:
		return nil

	case *ast.TemplateString:
		for _, p := range e.Parts {
			if p.Expr != nil {
				c.eval(p.Expr, useRead)
			}
		}
		return nil

	case *ast.Ident:
		b, ok := c.lookup(e.Name)
		if !ok {
			return nil
		}
		c.touchHolder(b, e)
		if u == useMove && !c.bindings[b].Type.IsCopy() {
			c.move(b, e)
		} else {
			c.read(b, e)
		}
		return c.dyn[b].holds

	case *ast.Field, *ast.Index:
		return c.evalPlace(e, u)

	case *ast.Deref:
		if ast.IsPlace(e.Operand) {
			return c.evalPlace(e, u)
		}
		return c.eval(e.Operand, useRead)

	case *ast.Ref:
		return c.borrow(e.Operand, e.Mutable, e)

	case *ast.Binary:
		c.eval(e.Left, useRead)
		c.eval(e.Right, useRead)
		return nil

	case *ast.Unary:
		c.eval(e.Operand, useRead)
		return nil

	case *ast.Cast:
		c.eval(e.Operand, useRead)
		return nil

	case *ast.Call:
		return c.call(e)

	case *ast.MethodCall:
		return c.methodCall(e)

	case *ast.StructLit:
		var out []origin
		for _, f := range e.Fields {
			out = unionOrigins(out, c.eval(f.Value, useMove))
		}
		return out

	case *ast.VariantLit:
		var out []origin
		for _, a := range e.Args {
			out = unionOrigins(out, c.eval(a, useMove))
		}
		for _, f := range e.Fields {
			out = unionOrigins(out, c.eval(f.Value, useMove))
		}
		return out

	case *ast.TupleLit:
		var out []origin
		for _, el := range e.Elems {
			out = unionOrigins(out, c.eval(el, useMove))
		}
		return out

	case *ast.ArrayLit:
		var out []origin
		for _, el := range e.Elems {
			out = unionOrigins(out, c.eval(el, useMove))
		}
		return out

	case *ast.Assign:
		c.assign(e)
		return nil

	case *ast.If:
		return c.ifExpr(e, u)

	case *ast.Match:
		return c.match(e, u)

	case *ast.Block:
		return c.block(e, u)
	}
	return nil
}

// evalPlace handles field, index and dereference places. Taking a non-copy
// part of an owned binding by value moves the whole binding; taking one
// through a reference is an error.
func (c *checker) evalPlace(e ast.Expr, u use) []origin {
	p, ok := c.resolvePlace(e)
	if !ok {
		return c.evalNonPlace(e)
	}
	c.evalIndices(e)
	if p.binding == noBinding {
		return nil
	}
	c.touchHolder(p.binding, e)
	switch {
	case u != useMove || c.typeOf(e).IsCopy():
		c.read(p.binding, e)
	case p.throughRef:
		c.read(p.binding, e)
		c.report(diagnostics.ConflictingBorrow, e.GetSpan()).
			Messagef("cannot move out of borrowed content `%s`", e).
			Hint("borrow it with `&` or copy the parts you need").
			Report(c.bag)
	default:
		c.move(p.binding, e)
	}
	return c.dyn[p.binding].holds
}

// evalNonPlace evaluates projections of temporary values
func (c *checker) evalNonPlace(e ast.Expr) []origin {
	switch e := e.(type) {
	case *ast.Field:
		return c.eval(e.Object, useMove)
	case *ast.Index:
		out := c.eval(e.Object, useMove)
		c.eval(e.Index, useRead)
		return out
	case *ast.Deref:
		return c.eval(e.Operand, useRead)
	}
	return nil
}

// place describes a place expression rooted at a binding
type place struct {
	binding BindingID

	// throughRef is set when the place is reached through a reference;
	// viaMut tells whether every such reference is mutable
	throughRef bool
	viaMut     bool
}

// resolvePlace walks a place down to its root binding
func (c *checker) resolvePlace(e ast.Expr) (place, bool) {
	p := place{viaMut: true}
	cur := e
	for {
		switch x := cur.(type) {
		case *ast.Ident:
			b, ok := c.lookup(x.Name)
			if !ok {
				p.binding = noBinding
				return p, true
			}
			p.binding = b
			return p, true
		case *ast.Field:
			c.crossing(&p, x.Object)
			cur = x.Object
		case *ast.Index:
			c.crossing(&p, x.Object)
			cur = x.Object
		case *ast.Deref:
			c.crossing(&p, x.Operand)
			cur = x.Operand
		default:
			return p, false
		}
	}
}

// evalIndices reads the index operands along a place
func (c *checker) evalIndices(e ast.Expr) {
	for {
		switch x := e.(type) {
		case *ast.Field:
			e = x.Object
		case *ast.Index:
			c.eval(x.Index, useRead)
			e = x.Object
		case *ast.Deref:
			e = x.Operand
		default:
			return
		}
	}
}

func (c *checker) crossing(p *place, obj ast.Expr) {
	if t := c.typeOf(obj); t.Kind == types.TypeKindReference {
		p.throughRef = true
		p.viaMut = p.viaMut && t.AsReference().Mutable
	}
}

// ====== Binding Actions ======

func (c *checker) read(b BindingID, at ast.Expr) {
	if _, v := Transition(c.state(b), ActionRead, c.bindings[b].Mutable); v != nil {
		c.useAfterMove(b, at)
	}
}

func (c *checker) move(b BindingID, at ast.Expr) {
	c.invalidateHeld(b, "moved", at.GetSpan())
	_, v := Transition(c.state(b), ActionMove, c.bindings[b].Mutable)
	if v == nil {
		c.dyn[b].moved, c.dyn[b].movedAt = true, at.GetSpan()
		c.res.Moves[at.ID()] = c.bindings[b].Name
		return
	}
	switch v.Kind {
	case diagnostics.UseAfterMove:
		c.useAfterMove(b, at)
	default:
		l, _ := c.blockingLoan(b)
		c.report(diagnostics.ConflictingBorrow, at.GetSpan()).
			Messagef("cannot move out of `%s` because it is borrowed", c.bindings[b].Name).
			Secondary(l.span, "borrow of `"+c.bindings[b].Name+"` occurs here").
			Report(c.bag)
	}
}

func (c *checker) useAfterMove(b BindingID, at ast.Expr) {
	name := c.bindings[b].Name
	if c.dyn[b].late {
		c.report(diagnostics.UseAfterMove, at.GetSpan()).
			Messagef("use of possibly-uninitialized `%s`", name).
			Report(c.bag)
		return
	}
	c.report(diagnostics.UseAfterMove, at.GetSpan()).
		Messagef("use of moved value `%s`", name).
		Secondary(c.dyn[b].movedAt, "value moved here").
		Hint("the value's type does not implement copy semantics").
		Report(c.bag)
}

// touchHolder reports a use of b while it holds a borrow whose owner is gone
func (c *checker) touchHolder(b BindingID, at ast.Expr) {
	for _, o := range c.dyn[b].holds {
		st, ok := c.live[o.loan]
		if o.loan == 0 || !ok || !st.dead || c.reportedLoans[o.loan] {
			continue
		}
		c.reportedLoans[o.loan] = true
		l := c.loans[o.loan]
		owner := c.bindings[l.owner].Name
		c.report(diagnostics.BorrowOutlivesOwner, at.GetSpan()).
			Messagef("`%s` is used after `%s`, which it borrows, was %s", c.bindings[b].Name, owner, st.reason).
			Secondary(l.span, "`"+owner+"` is borrowed here").
			Secondary(st.deadAt, "`"+owner+"` is "+st.reason+" here").
			Report(c.bag)
	}
}

// borrow takes a shared or mutable reference to operand. Borrowing through
// an existing reference reborrows it and keeps its origins.
func (c *checker) borrow(operand ast.Expr, mutable bool, at ast.Expr) []origin {
	if !ast.IsPlace(operand) {
		out := c.eval(operand, useMove)
		id := c.newLoan(noBinding, mutable, at)
		return unionOrigins(out, []origin{{loan: id}})
	}

	p, _ := c.resolvePlace(operand)
	c.evalIndices(operand)
	if p.binding == noBinding {
		return nil
	}
	b := p.binding
	name := c.bindings[b].Name
	c.touchHolder(b, operand)

	if p.throughRef {
		c.read(b, operand)
		if mutable && !p.viaMut {
			c.report(diagnostics.MutateThroughImmutableBinding, at.GetSpan()).
				Messagef("cannot borrow `%s` as mutable, as it is behind a `&` reference", operand).
				Report(c.bag)
		}
		return c.dyn[b].holds
	}

	action := ActionBorrow
	if mutable {
		action = ActionBorrowMut
	}
	if _, v := Transition(c.state(b), action, c.bindings[b].Mutable); v != nil {
		switch v.Kind {
		case diagnostics.UseAfterMove:
			c.useAfterMove(b, operand)
		case diagnostics.MutateThroughImmutableBinding:
			c.report(diagnostics.MutateThroughImmutableBinding, at.GetSpan()).
				Messagef("cannot borrow `%s` as mutable, as it is not declared as mutable", name).
				Secondary(c.bindings[b].Span, "consider changing this to `mut "+name+"`").
				Report(c.bag)
		default:
			l, _ := c.blockingLoan(b)
			held, want := "immutable", "mutable"
			if l.mutable {
				held = "mutable"
			}
			if !mutable {
				want = "immutable"
			}
			c.report(diagnostics.ConflictingBorrow, at.GetSpan()).
				Messagef("cannot borrow `%s` as %s because it is also borrowed as %s", name, want, held).
				Secondary(l.span, held+" borrow occurs here").
				Report(c.bag)
		}
		return nil
	}
	return []origin{{loan: c.newLoan(b, mutable, at)}}
}

// assign checks writes to a variable, a field or element, or through a
// reference
func (c *checker) assign(e *ast.Assign) {
	out := c.eval(e.Value, useMove)

	p, ok := c.resolvePlace(e.Target)
	if !ok {
		return
	}
	c.evalIndices(e.Target)
	if p.binding == noBinding {
		return
	}
	b := p.binding
	name := c.bindings[b].Name

	if p.throughRef {
		c.read(b, e.Target)
		if !p.viaMut {
			c.report(diagnostics.MutateThroughImmutableBinding, e.Target.GetSpan()).
				Messagef("cannot assign to `%s`, which is behind a `&` reference", e.Target).
				Report(c.bag)
		}
		return
	}

	_, whole := e.Target.(*ast.Ident)
	st := c.state(b)
	if !whole && st.Kind == StateMoved {
		c.useAfterMove(b, e.Target)
		return
	}
	mutable := c.bindings[b].Mutable || (whole && c.dyn[b].late)
	if _, v := Transition(st, ActionWrite, mutable); v != nil {
		switch v.Kind {
		case diagnostics.MutateThroughImmutableBinding:
			msg := "cannot assign twice to immutable variable `" + name + "`"
			if !whole {
				msg = "cannot assign to `" + e.Target.String() + "`, as `" + name + "` is not declared as mutable"
			}
			c.report(diagnostics.MutateThroughImmutableBinding, e.Target.GetSpan()).
				Message(msg).
				Secondary(c.bindings[b].Span, "consider changing this to `mut "+name+"`").
				Report(c.bag)
		default:
			l, _ := c.blockingLoan(b)
			c.report(diagnostics.ConflictingBorrow, e.Target.GetSpan()).
				Messagef("cannot assign to `%s` because it is borrowed", e.Target).
				Secondary(l.span, "borrow of `"+name+"` occurs here").
				Report(c.bag)
		}
		return
	}

	if whole {
		c.dyn[b].moved, c.dyn[b].late = false, false
		if c.bindings[b].Type.ContainsReference() {
			c.adopt(b, out)
		}
	} else if c.typeOf(e.Target).ContainsReference() {
		c.adopt(b, unionOrigins(c.dyn[b].holds, out))
	}
}

// ====== Calls ======

func (c *checker) call(e *ast.Call) []origin {
	sig := c.tres.Calls[e.ID()]
	if _, ok := e.Callee.(*ast.Ident); !ok || sig == nil {
		c.eval(e.Callee, useRead)
	}

	perArg := make([][]origin, len(e.Args))
	for i, a := range e.Args {
		perArg[i] = c.argument(a)
	}
	if sig == nil {
		var out []origin
		for _, o := range perArg {
			out = unionOrigins(out, o)
		}
		return out
	}
	return c.returned(sig, nil, perArg)
}

// argument evaluates a call argument: auto-referenced places are borrowed,
// references are reborrowed and everything else is moved
func (c *checker) argument(a ast.Expr) []origin {
	switch c.tres.Coercions[a.ID()] {
	case types.CoercionAutoRef:
		return c.borrow(a, false, a)
	case types.CoercionAutoRefMut:
		return c.borrow(a, true, a)
	}
	if c.typeOf(a).Kind == types.TypeKindReference {
		return c.eval(a, useRead)
	}
	return c.eval(a, useMove)
}

func (c *checker) methodCall(e *ast.MethodCall) []origin {
	sig := c.tres.Methods[e.ID()]

	var recv []origin
	switch {
	case sig == nil:
		recv = c.eval(e.Receiver, useRead)
	case sig.Receiver != nil && *sig.Receiver == ast.ReceiverValue:
		recv = c.eval(e.Receiver, useMove)
	default:
		recv = c.argument(e.Receiver)
	}

	perArg := make([][]origin, len(e.Args))
	for i, a := range e.Args {
		perArg[i] = c.argument(a)
	}
	if sig == nil {
		out := recv
		for _, o := range perArg {
			out = unionOrigins(out, o)
		}
		return out
	}
	return c.returned(sig, recv, perArg)
}

// returned computes the origins of a call result: the reference arguments
// named by the callee's lives clause, or every reference argument when it
// declares none
func (c *checker) returned(sig *symbols.FuncSig, recv []origin, perArg [][]origin) []origin {
	if !sig.Return.ContainsReference() {
		return nil
	}
	var out []origin
	if sig.Lives == nil {
		out = recv
		for _, o := range perArg {
			out = unionOrigins(out, o)
		}
		return out
	}
	for _, name := range sig.Lives {
		if name == "self" {
			out = unionOrigins(out, recv)
			continue
		}
		if i := sig.ParamIndex(name); i >= 0 && i < len(perArg) {
			out = unionOrigins(out, perArg[i])
		}
	}
	return out
}

// ====== Branches ======

func (c *checker) ifExpr(e *ast.If, u use) []origin {
	c.eval(e.Cond, useRead)
	before := c.save()
	out := c.eval(e.Then, u)
	afterThen := c.save()

	c.restore(before)
	if e.Else != nil {
		out = unionOrigins(out, c.eval(e.Else, u))
	}
	c.merge(afterThen, c.save())
	return out
}

func (c *checker) match(e *ast.Match, u use) []origin {
	su := useRead
	for _, arm := range e.Arms {
		if c.patternUse(arm.Pattern) == useMove {
			su = useMove
		}
	}
	scrutinee := c.eval(e.Scrutinee, su)

	before := c.save()
	var out []origin
	var ends []snapshot
	for _, arm := range e.Arms {
		c.restore(before)
		c.push(false, arm.Span)
		for _, bp := range ast.Bindings(arm.Pattern) {
			t := c.typeOf(bp)
			id := c.declare(bp.Name, t, bp.Mutable, bp.Span)
			if t.ContainsReference() {
				c.adopt(id, scrutinee)
			}
		}
		c.guards(arm.Pattern)
		if arm.Guard != nil {
			c.eval(arm.Guard, useRead)
		}
		out = unionOrigins(out, c.eval(arm.Body, u))
		c.rescope(out, c.enclosingTemp())
		c.pop()
		ends = append(ends, c.save())
	}
	if len(ends) == 0 {
		return out
	}
	c.merge(ends...)
	return out
}

// guards evaluates the conditions of guard patterns nested in p
func (c *checker) guards(p ast.Pattern) {
	ast.Inspect(p, func(n ast.Node) bool {
		if g, ok := n.(*ast.GuardPattern); ok {
			c.eval(g.Cond, useRead)
		}
		return true
	})
}

// ====== Escape ======

// checkEscape rejects returned references that borrow from locals,
// temporaries, or parameters the lives clause does not name
func (c *checker) checkEscape(value ast.Expr, origins []origin) {
	if !c.sig.Return.ContainsReference() {
		return
	}
	at := value.GetSpan()
	for _, o := range origins {
		if o.loan == 0 {
			if c.sig.Lives != nil && !contains(c.sig.Lives, o.param) {
				c.report(diagnostics.DanglingReference, at).
					Messagef("returned reference borrows from `%s`, which the lives clause does not name", o.param).
					Hintf("add `%s` to `lives return <- [...]`", o.param).
					Report(c.bag)
			}
			continue
		}
		l := c.loans[o.loan]
		if l.owner == noBinding {
			c.report(diagnostics.DanglingReference, at).
				Message("returns a reference to a temporary value").
				Secondary(l.span, "temporary value borrowed here").
				Report(c.bag)
			continue
		}
		owner := c.bindings[l.owner]
		what := "local variable"
		if owner.Param {
			what = "parameter"
		}
		c.report(diagnostics.DanglingReference, at).
			Messagef("returns a reference to %s `%s`", what, owner.Name).
			Secondary(l.span, "`"+owner.Name+"` is borrowed here").
			Hint("return an owned value instead").
			Report(c.bag)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
