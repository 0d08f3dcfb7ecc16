// Package ownership verifies moves and borrows in one type-checked function.
// Bindings live in an arena and are addressed by stable ids; scopes form a
// stack of name maps. A borrow is recorded as a loan edge holding the owner
// binding id and the scope it is released with.
package ownership

import (
	"sort"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/errors"
	"github.com/yunilang/yuni/internal/position"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/typecheck"
	"github.com/yunilang/yuni/internal/types"
)

// BindingID identifies a binding within one function
type BindingID int

// ScopeID identifies a lexical or temporary scope within one function
type ScopeID int

// LoanID identifies one borrow
type LoanID int

const noBinding BindingID = -1

// BorrowKind distinguishes shared and mutable borrows
type BorrowKind int

const (
	BorrowShared BorrowKind = iota
	BorrowMutable
)

func (bk BorrowKind) String() string {
	if bk == BorrowMutable {
		return "&mut"
	}
	return "&"
}

// MarshalText implements encoding.TextMarshaler
func (bk BorrowKind) MarshalText() ([]byte, error) { return []byte(bk.String()), nil }

// Result is the ownership verdict of one function
type Result struct {
	Function string

	// Moves maps each node that moves a binding to the binding's name
	Moves map[ast.NodeID]string

	// Borrows maps each node that creates a loan, explicit or implicit
	Borrows map[ast.NodeID]BorrowKind

	Diagnostics []diagnostics.Diagnostic
}

// OK reports whether the function passed ownership checking
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// ====== Bindings and Loans ======

// Binding is the static part of a declared variable
type Binding struct {
	ID      BindingID
	Name    string
	Type    *types.Type
	Mutable bool
	Param   bool
	Scope   ScopeID
	Span    position.Span
}

// bindingState is the flow-sensitive part of a binding
type bindingState struct {
	moved   bool
	late    bool // declared without initializer and not yet assigned
	movedAt position.Span
	holds   []origin
}

type loan struct {
	owner   BindingID
	mutable bool
	node    ast.NodeID
	span    position.Span
}

// loanState is the flow-sensitive part of a loan
type loanState struct {
	scope  ScopeID
	holder BindingID
	dead   bool
	reason string
	deadAt position.Span
}

// origin is one source a reference value may borrow from: a loan, or a
// reference parameter of the function
type origin struct {
	loan  LoanID
	param string
}

type scope struct {
	id       ScopeID
	temp     bool
	end      position.Span
	names    map[string]BindingID
	bindings []BindingID
}

// snapshot captures the flow-sensitive state at one program point
type snapshot struct {
	dyn      []bindingState
	live     map[LoanID]loanState
	diverged bool
}

type checker struct {
	table *symbols.Table
	sig   *symbols.FuncSig
	fn    *ast.FuncDecl
	tres  *typecheck.Result
	bag   *diagnostics.Bag
	res   *Result

	bindings []Binding
	dyn      []bindingState
	loans    []loan
	live     map[LoanID]loanState
	scopes   []*scope
	nextID   ScopeID
	diverged bool

	reportedLoans map[LoanID]bool
}

// Check verifies the ownership rules of fn. tres must be the type-checking
// result of the same function with no unresolved types left.
func Check(table *symbols.Table, fn *ast.FuncDecl, tres *typecheck.Result) *Result {
	sig, ok := table.Signature(fn)
	res := &Result{
		Function: fn.QualifiedName(),
		Moves:    make(map[ast.NodeID]string),
		Borrows:  make(map[ast.NodeID]BorrowKind),
	}
	if !ok || fn.Body == nil {
		return res
	}

	c := &checker{
		table:         table,
		sig:           sig,
		fn:            fn,
		tres:          tres,
		bag:           diagnostics.NewBag(),
		res:           res,
		loans:         []loan{{}},
		live:          make(map[LoanID]loanState),
		reportedLoans: make(map[LoanID]bool),
	}
	c.checkFunction()
	res.Diagnostics = c.bag.Items()
	return res
}

func (c *checker) checkFunction() {
	c.push(false, c.fn.Span)
	if c.sig.Receiver != nil {
		c.declareParam("self", c.sig.ReceiverType(), false, c.fn.Span)
	}
	for i, p := range c.sig.Params {
		span := c.fn.Span
		if i < len(c.fn.Params) {
			span = c.fn.Params[i].Span
		}
		c.declareParam(p.Name, p.Type, p.Mutable, span)
	}

	out := c.block(c.fn.Body, useMove)
	if c.fn.Body.Tail != nil {
		c.checkEscape(c.fn.Body.Tail, out)
	}
	c.pop()
}

func (c *checker) declareParam(name string, t *types.Type, mutable bool, span position.Span) {
	id := c.declare(name, t, mutable, span)
	c.bindings[id].Param = true
	if t != nil && t.Kind == types.TypeKindReference {
		c.dyn[id].holds = []origin{{param: name}}
	}
}

// ====== Scopes ======

func (c *checker) push(temp bool, at position.Span) *scope {
	c.nextID++
	end := position.Span{Start: at.End, End: at.End}
	s := &scope{id: c.nextID, temp: temp, end: end, names: make(map[string]BindingID)}
	c.scopes = append(c.scopes, s)
	return s
}

// pop leaves the innermost scope: loans scoped to it are released, and
// loans on its bindings that outlive it are left dangling
func (c *checker) pop() {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]

	for _, id := range c.liveLoans() {
		if c.live[id].scope == s.id {
			delete(c.live, id)
		}
	}
	for _, b := range s.bindings {
		for _, id := range c.liveLoans() {
			st := c.live[id]
			if c.loans[id].owner == b && !st.dead {
				st.dead, st.reason, st.deadAt = true, "dropped", s.end
				c.live[id] = st
			}
		}
	}
}

// temp returns the innermost temporary scope, or the function scope
func (c *checker) temp() ScopeID {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].temp {
			return c.scopes[i].id
		}
	}
	return c.scopes[0].id
}

// enclosingTemp is the temporary scope outside the innermost lexical scope
func (c *checker) enclosingTemp() ScopeID {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if !c.scopes[i].temp {
			for j := i - 1; j >= 0; j-- {
				if c.scopes[j].temp {
					return c.scopes[j].id
				}
			}
			return c.scopes[0].id
		}
	}
	return c.scopes[0].id
}

func (c *checker) depth(id ScopeID) int {
	for i, s := range c.scopes {
		if s.id == id {
			return i
		}
	}
	return len(c.scopes)
}

// lexical returns the innermost non-temporary scope
func (c *checker) lexical() *scope {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if !c.scopes[i].temp {
			return c.scopes[i]
		}
	}
	return c.scopes[0]
}

func (c *checker) declare(name string, t *types.Type, mutable bool, span position.Span) BindingID {
	s := c.lexical()
	id := BindingID(len(c.bindings))
	c.bindings = append(c.bindings, Binding{
		ID: id, Name: name, Type: t, Mutable: mutable, Scope: s.id, Span: span,
	})
	c.dyn = append(c.dyn, bindingState{})
	s.names[name] = id
	s.bindings = append(s.bindings, id)
	return id
}

func (c *checker) lookup(name string) (BindingID, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if id, ok := c.scopes[i].names[name]; ok {
			return id, true
		}
	}
	return noBinding, false
}

// ====== Loans ======

// liveLoans returns the ids of all live loans in creation order
func (c *checker) liveLoans() []LoanID {
	ids := make([]LoanID, 0, len(c.live))
	for id := range c.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// state derives the borrow state of b from its flags and live loans
func (c *checker) state(b BindingID) State {
	if b < 0 || int(b) >= len(c.bindings) {
		panic(errors.UnknownBinding(int(b)))
	}
	if c.dyn[b].moved {
		return Moved
	}
	shared := 0
	for id, st := range c.live {
		l := c.loans[id]
		if l.owner != b || st.dead {
			continue
		}
		if l.mutable {
			return MutBorrowed
		}
		shared++
	}
	return SharedBorrowed(shared)
}

// blockingLoan returns the oldest live loan on b
func (c *checker) blockingLoan(b BindingID) (loan, bool) {
	for _, id := range c.liveLoans() {
		if l := c.loans[id]; l.owner == b && !c.live[id].dead {
			return l, true
		}
	}
	return loan{}, false
}

func (c *checker) newLoan(owner BindingID, mutable bool, at ast.Expr) LoanID {
	id := LoanID(len(c.loans))
	c.loans = append(c.loans, loan{owner: owner, mutable: mutable, node: at.ID(), span: at.GetSpan()})
	c.live[id] = loanState{scope: c.temp(), holder: noBinding}
	kind := BorrowShared
	if mutable {
		kind = BorrowMutable
	}
	c.res.Borrows[at.ID()] = kind
	return id
}

// adopt makes binding holder keep the loans among origins alive for as
// long as the holder's scope
func (c *checker) adopt(holder BindingID, origins []origin) {
	hs := c.bindings[holder].Scope
	for _, o := range origins {
		st, ok := c.live[o.loan]
		if o.loan == 0 || !ok {
			continue
		}
		st.holder = holder
		if c.depth(hs) < c.depth(st.scope) {
			st.scope = hs
		}
		c.live[o.loan] = st
	}
	c.dyn[holder].holds = unionOrigins(nil, origins)
}

// rescope moves the loans among origins into scope to
func (c *checker) rescope(origins []origin, to ScopeID) {
	for _, o := range origins {
		if st, ok := c.live[o.loan]; ok && o.loan != 0 && c.depth(to) < c.depth(st.scope) {
			st.scope = to
			c.live[o.loan] = st
		}
	}
}

// invalidateHeld marks loans on b that are held by bindings as dangling;
// they are reported if the holder is used again
func (c *checker) invalidateHeld(b BindingID, reason string, at position.Span) {
	for _, id := range c.liveLoans() {
		st := c.live[id]
		if c.loans[id].owner == b && st.holder != noBinding && !st.dead {
			st.dead, st.reason, st.deadAt = true, reason, at
			c.live[id] = st
		}
	}
}

func unionOrigins(a, b []origin) []origin {
	out := make([]origin, 0, len(a)+len(b))
	seen := make(map[origin]bool, len(a)+len(b))
	for _, list := range [][]origin{a, b} {
		for _, o := range list {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}
	return out
}

// ====== Flow Merging ======

func (c *checker) save() snapshot {
	dyn := make([]bindingState, len(c.dyn))
	copy(dyn, c.dyn)
	live := make(map[LoanID]loanState, len(c.live))
	for id, st := range c.live {
		live[id] = st
	}
	return snapshot{dyn: dyn, live: live, diverged: c.diverged}
}

func (c *checker) restore(s snapshot) {
	copy(c.dyn, s.dyn)
	c.live = make(map[LoanID]loanState, len(s.live))
	for id, st := range s.live {
		c.live[id] = st
	}
	c.diverged = s.diverged
}

// merge joins the states reached along several paths. A binding moved on
// any path is moved afterwards; paths that diverged do not contribute.
func (c *checker) merge(paths ...snapshot) {
	var reaching []snapshot
	for _, p := range paths {
		if !p.diverged {
			reaching = append(reaching, p)
		}
	}
	if len(reaching) == 0 {
		c.restore(paths[0])
		c.diverged = true
		return
	}

	c.restore(reaching[0])
	for _, p := range reaching[1:] {
		for i := range p.dyn {
			if i >= len(c.dyn) {
				break
			}
			cur, other := &c.dyn[i], p.dyn[i]
			if other.moved && !cur.moved {
				cur.moved, cur.movedAt = true, other.movedAt
			}
			cur.late = cur.late || other.late
			cur.holds = unionOrigins(cur.holds, other.holds)
		}
		for id, st := range p.live {
			if mine, ok := c.live[id]; ok {
				mine.dead = mine.dead || st.dead
				if mine.reason == "" {
					mine.reason, mine.deadAt = st.reason, st.deadAt
				}
				c.live[id] = mine
				continue
			}
			c.live[id] = st
		}
	}
	c.diverged = false
}

// ====== Reporting ======

func (c *checker) report(kind diagnostics.Kind, at position.Span) *diagnostics.Builder {
	return diagnostics.New(kind, at).InFunction(c.res.Function)
}

// typeOf panics with an invariant error when typecheck left a variable
// behind; accepted functions have fully resolved annotations
func (c *checker) typeOf(n interface{ ID() ast.NodeID }) *types.Type {
	t := c.tres.TypeOf(n.ID())
	if t.Kind == types.TypeKindVar {
		panic(errors.UnresolvedAnnotation(int(n.ID()), c.res.Function))
	}
	return t
}
