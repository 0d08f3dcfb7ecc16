// Unification-based type inference engine.
// Type variables are bound in a substitution that only grows; Resolve applies
// it recursively and leaves unbound variables in place.

package types

import (
	"fmt"

	"github.com/yunilang/yuni/internal/errors"
)

// ====== Substitution ======

// Substitution maps type variable ids to types
type Substitution map[int]*Type

// Apply replaces every bound variable in t. Applying twice yields the same
// result as applying once.
func (s Substitution) Apply(t *Type) *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeKindVar:
		if bound, ok := s[t.AsVar().ID]; ok {
			return s.Apply(bound)
		}
		return t
	case TypeKindStruct:
		st := t.AsStruct()
		if len(st.Args) == 0 {
			return t
		}
		return NewStruct(st.Def, s.applyAll(st.Args)...)
	case TypeKindEnum:
		et := t.AsEnum()
		if len(et.Args) == 0 {
			return t
		}
		return NewEnum(et.Def, s.applyAll(et.Args)...)
	case TypeKindTuple:
		return NewTuple(s.applyAll(t.AsTuple().Elements)...)
	case TypeKindArray:
		return NewArray(s.Apply(t.AsArray().Element))
	case TypeKindReference:
		r := t.AsReference()
		return NewReference(s.Apply(r.Target), r.Mutable)
	case TypeKindFunction:
		f := t.AsFunction()
		return NewFunction(s.applyAll(f.Params), s.Apply(f.Return))
	default:
		return t
	}
}

func (s Substitution) applyAll(ts []*Type) []*Type {
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = s.Apply(t)
	}
	return out
}

// ====== Errors ======

// MismatchError reports two types that cannot be made equal. Both sides are
// resolved as far as the substitution allowed at the time of failure.
type MismatchError struct {
	Expected *Type
	Found    *Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

// ====== Coercions ======

// Coercion is an implicit conversion the checker inserted at a node
type Coercion int

const (
	CoercionNone Coercion = iota
	CoercionWiden
	CoercionAutoRef
	CoercionAutoRefMut
	CoercionAutoDeref
)

func (c Coercion) String() string {
	switch c {
	case CoercionWiden:
		return "widen"
	case CoercionAutoRef:
		return "auto-ref"
	case CoercionAutoRefMut:
		return "auto-ref-mut"
	case CoercionAutoDeref:
		return "auto-deref"
	default:
		return "none"
	}
}

func (c Coercion) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ====== Inference Engine ======

// Engine owns the type variables and substitution of one function
type Engine struct {
	nextVar int
	subst   Substitution
	vars    []*Type
}

// NewEngine creates an engine with an empty substitution
func NewEngine() *Engine {
	return &Engine{subst: make(Substitution)}
}

// Fresh allocates a new type variable of the given literal class
func (e *Engine) Fresh(class LiteralClass) *Type {
	e.nextVar++
	v := &Type{Kind: TypeKindVar, Data: &TypeVar{ID: e.nextVar, Class: class}}
	e.vars = append(e.vars, v)
	return v
}

// Substitution exposes the current bindings
func (e *Engine) Substitution() Substitution { return e.subst }

// Resolve applies the substitution to t
func (e *Engine) Resolve(t *Type) *Type { return e.subst.Apply(t) }

// prune follows variable bindings at the top level only
func (e *Engine) prune(t *Type) *Type {
	for t.Kind == TypeKindVar {
		bound, ok := e.subst[t.AsVar().ID]
		if !ok {
			return t
		}
		t = bound
	}
	return t
}

// Shallow resolves only the outermost constructor of t
func (e *Engine) Shallow(t *Type) *Type { return e.prune(t) }

// Unify makes expected and found equal. It returns a *MismatchError for
// incompatible types and an *errors.InvariantError when binding would
// create an infinite type.
func (e *Engine) Unify(expected, found *Type) error {
	err := e.unify(expected, found)
	if _, ok := err.(*MismatchError); ok {
		return &MismatchError{Expected: e.Resolve(expected), Found: e.Resolve(found)}
	}
	return err
}

func (e *Engine) unify(a, b *Type) error {
	a, b = e.prune(a), e.prune(b)
	if a == b {
		return nil
	}
	if a.Kind == TypeKindInvalid || b.Kind == TypeKindInvalid {
		return nil
	}

	// Type variable cases
	if a.Kind == TypeKindVar && b.Kind == TypeKindVar {
		return e.unifyVars(a, b)
	}
	if a.Kind == TypeKindVar {
		return e.bindVar(a, b)
	}
	if b.Kind == TypeKindVar {
		return e.bindVar(b, a)
	}

	if a.Kind != b.Kind {
		return &MismatchError{Expected: a, Found: b}
	}
	return e.unifyStructural(a, b)
}

func (e *Engine) unifyVars(a, b *Type) error {
	va, vb := a.AsVar(), b.AsVar()
	if va.ID == vb.ID {
		return nil
	}
	switch {
	case va.Class == ClassGeneral:
		e.subst[va.ID] = b
	case vb.Class == ClassGeneral || va.Class == vb.Class:
		e.subst[vb.ID] = a
	default:
		return &MismatchError{Expected: a, Found: b}
	}
	return nil
}

// bindVar binds variable v to the non-variable type t
func (e *Engine) bindVar(v, t *Type) error {
	tv := v.AsVar()
	switch tv.Class {
	case ClassInt:
		if !t.IsInteger() {
			return &MismatchError{Expected: v, Found: t}
		}
	case ClassFloat:
		if !t.IsFloat() {
			return &MismatchError{Expected: v, Found: t}
		}
	}
	if e.occurs(tv.ID, t) {
		return errors.InfiniteType(fmt.Sprintf("?%d", tv.ID), e.Resolve(t).String())
	}
	e.subst[tv.ID] = t
	return nil
}

func (e *Engine) occurs(id int, t *Type) bool {
	found := false
	Walk(e.Resolve(t), func(x *Type) {
		if x.Kind == TypeKindVar && x.AsVar().ID == id {
			found = true
		}
	})
	return found
}

func (e *Engine) unifyStructural(a, b *Type) error {
	switch a.Kind {
	case TypeKindStruct:
		sa, sb := a.AsStruct(), b.AsStruct()
		if sa.Def != sb.Def {
			return &MismatchError{Expected: a, Found: b}
		}
		return e.unifyLists(a, b, sa.Args, sb.Args)
	case TypeKindEnum:
		ea, eb := a.AsEnum(), b.AsEnum()
		if ea.Def != eb.Def {
			return &MismatchError{Expected: a, Found: b}
		}
		return e.unifyLists(a, b, ea.Args, eb.Args)
	case TypeKindTuple:
		return e.unifyLists(a, b, a.AsTuple().Elements, b.AsTuple().Elements)
	case TypeKindArray:
		return e.unify(a.AsArray().Element, b.AsArray().Element)
	case TypeKindReference:
		ra, rb := a.AsReference(), b.AsReference()
		if ra.Mutable != rb.Mutable {
			return &MismatchError{Expected: a, Found: b}
		}
		return e.unify(ra.Target, rb.Target)
	case TypeKindGeneric:
		if a.AsGeneric().Name != b.AsGeneric().Name {
			return &MismatchError{Expected: a, Found: b}
		}
		return nil
	case TypeKindFunction:
		fa, fb := a.AsFunction(), b.AsFunction()
		if err := e.unifyLists(a, b, fa.Params, fb.Params); err != nil {
			return err
		}
		return e.unify(fa.Return, fb.Return)
	default:
		// Primitive types unify if they're the same kind
		return nil
	}
}

func (e *Engine) unifyLists(a, b *Type, xs, ys []*Type) error {
	if len(xs) != len(ys) {
		return &MismatchError{Expected: a, Found: b}
	}
	for i := range xs {
		if err := e.unify(xs[i], ys[i]); err != nil {
			return err
		}
	}
	return nil
}

// Assign is directional unification for assignment contexts: a value of
// type found is stored where expected is required. Besides plain
// unification it accepts implicit numeric widening, reported as
// CoercionWiden.
func (e *Engine) Assign(expected, found *Type) (Coercion, error) {
	want, got := e.Resolve(expected), e.Resolve(found)
	if want.IsNumeric() && got.IsNumeric() && CanWiden(got, want) {
		return CoercionWiden, nil
	}
	return CoercionNone, e.Unify(expected, found)
}

// Default binds every unconstrained literal variable: integer literals
// become i32 and float literals f64.
func (e *Engine) Default() {
	for _, v := range e.vars {
		p := e.prune(v)
		if p.Kind != TypeKindVar {
			continue
		}
		switch p.AsVar().Class {
		case ClassInt:
			e.subst[p.AsVar().ID] = TypeInt32
		case ClassFloat:
			e.subst[p.AsVar().ID] = TypeFloat64
		}
	}
}

// Instantiate creates fresh variables for params and substitutes them into
// each of ts. The fresh variables are returned in parameter order.
func (e *Engine) Instantiate(params []string, ts ...*Type) ([]*Type, []*Type) {
	args := make([]*Type, len(params))
	for i := range params {
		args[i] = e.Fresh(ClassGeneral)
	}
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = Instantiate(t, params, args)
	}
	return args, out
}
