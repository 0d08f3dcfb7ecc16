// Concrete values and reference semantics for Yuni matches.
// Walk runs a decision tree against a value; SelectSequential tries the
// arms one by one in source order. The two agree on every value, which is
// what the package tests check and what match simulators rely on.

package patterns

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/yunilang/yuni/internal/ast"
)

// ValueKind classifies a Value
type ValueKind int

const (
	ValueUnit ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueTuple
	ValueStruct
	ValueVariant
	ValueArray
)

// Value is a concrete scrutinee. Str holds the string payload or the
// variant name; Elems holds tuple elements, struct fields or variant
// payload in declaration order, or array elements. Names parallels Elems
// for structs and struct-like variants.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   *big.Int
	Float float64
	Str   string
	Names []string
	Elems []Value
}

// FieldValue is a named struct or variant field
type FieldValue struct {
	Name  string
	Value Value
}

func UnitValue() Value { return Value{Kind: ValueUnit} }
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }
func IntValue(n int64) Value { return Value{Kind: ValueInt, Int: big.NewInt(n)} }
func BigIntValue(n *big.Int) Value { return Value{Kind: ValueInt, Int: n} }
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }
func TupleValue(elems ...Value) Value { return Value{Kind: ValueTuple, Elems: elems} }
func ArrayValue(elems ...Value) Value { return Value{Kind: ValueArray, Elems: elems} }

// StructValue builds a struct from fields given in declaration order
func StructValue(fields ...FieldValue) Value {
	v := Value{Kind: ValueStruct}
	for _, f := range fields {
		v.Names = append(v.Names, f.Name)
		v.Elems = append(v.Elems, f.Value)
	}
	return v
}

// VariantValue builds a unit or tuple-like variant
func VariantValue(name string, payload ...Value) Value {
	return Value{Kind: ValueVariant, Str: name, Elems: payload}
}

// VariantStructValue builds a struct-like variant
func VariantStructValue(name string, fields ...FieldValue) Value {
	v := StructValue(fields...)
	v.Kind = ValueVariant
	v.Str = name
	return v
}

func (v Value) String() string {
	switch v.Kind {
	case ValueUnit:
		return "()"
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueInt:
		return v.Int.String()
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueTuple:
		return "(" + v.join() + ")"
	case ValueArray:
		return "[" + v.join() + "]"
	case ValueStruct:
		return "{ " + v.join() + " }"
	default:
		if len(v.Elems) == 0 {
			return v.Str
		}
		if len(v.Names) > 0 {
			return v.Str + " { " + v.join() + " }"
		}
		return v.Str + "(" + v.join() + ")"
	}
}

func (v Value) join() string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		if i < len(v.Names) {
			parts[i] = v.Names[i] + ": " + e.String()
		} else {
			parts[i] = e.String()
		}
	}
	return strings.Join(parts, ", ")
}

// At projects v along path. It fails when a payload step names a variant
// other than v's or an index is out of range.
func (v Value) At(path Path) (Value, bool) {
	for _, s := range path {
		switch s.Kind {
		case StepDeref:
			continue
		case StepPayload:
			if v.Kind != ValueVariant || v.Str != s.Name {
				return Value{}, false
			}
		case StepRest:
			if s.Index > len(v.Elems) {
				return Value{}, false
			}
			v = ArrayValue(v.Elems[s.Index:]...)
			continue
		}
		if s.Index < 0 || s.Index >= len(v.Elems) {
			return Value{}, false
		}
		v = v.Elems[s.Index]
	}
	return v, true
}

// accepts reports whether x belongs to case k
func (k Ctor) accepts(x Value) bool {
	switch k.Kind {
	case CtorBool:
		return x.Kind == ValueBool && x.Bool == k.Bool
	case CtorVariant:
		return x.Kind == ValueVariant && x.Str == k.Variant.Name
	case CtorRange:
		return x.Kind == ValueInt && k.Lo.Cmp(x.Int) <= 0 && x.Int.Cmp(k.Hi) <= 0
	case CtorString:
		return x.Kind == ValueString && x.Str == k.Str
	case CtorFloat:
		return x.Kind == ValueFloat && x.Float == k.Float
	case CtorLen:
		return x.Kind == ValueArray && len(x.Elems) == k.Len
	case CtorMinLen:
		return x.Kind == ValueArray && len(x.Elems) >= k.Len
	}
	return false
}

// Guard decides a guarded arm given its bindings
type Guard func(arm int, binds map[string]Value) bool

// Walk runs tree t against v. It returns the selected arm and its
// bindings, or ok false when v reaches a Fail node. A nil guard accepts
// every guarded arm.
func Walk(t Tree, v Value, guard Guard) (arm int, binds map[string]Value, ok bool) {
	for t != nil {
		switch n := t.(type) {
		case *Switch:
			x, ok := v.At(n.Path)
			if !ok {
				return -1, nil, false
			}
			next := n.Default
			for _, c := range n.Cases {
				if c.Ctor.accepts(x) {
					next = c.Tree
					break
				}
			}
			t = next
		case *Leaf:
			binds := make(map[string]Value, len(n.Bindings))
			for _, b := range n.Bindings {
				if x, ok := v.At(b.Path); ok {
					binds[b.Name] = x
				}
			}
			if !n.Guarded || guard == nil || guard(n.Arm, binds) {
				return n.Arm, binds, true
			}
			t = n.Fallthrough
		default:
			return -1, nil, false
		}
	}
	return -1, nil, false
}

// SelectSequential returns the first arm, in source order, whose pattern
// matches v and whose guard (if any) accepts. Or-pattern alternatives are
// tried left to right, so a failing guard on one alternative lets a later
// alternative of the same arm match.
func SelectSequential(arms []Arm, v Value, guard Guard) (arm int, binds map[string]Value, ok bool) {
	for i, a := range arms {
		var found map[string]Value
		hit := matchValue(a.Pattern, v, nil, a.Guarded, func(env []boundValue, guarded bool) bool {
			m := make(map[string]Value, len(env))
			for _, b := range env {
				m[b.name] = b.value
			}
			if guarded && guard != nil && !guard(i, m) {
				return false
			}
			found = m
			return true
		})
		if hit {
			return i, found, true
		}
	}
	return -1, nil, false
}

type boundValue struct {
	name  string
	value Value
}

func bind(env []boundValue, name string, v Value) []boundValue {
	out := make([]boundValue, len(env), len(env)+1)
	copy(out, env)
	return append(out, boundValue{name, v})
}

// matchValue calls k for each way p matches v, stopping at the first k
// that returns true
func matchValue(p ast.Pattern, v Value, env []boundValue, guarded bool, k func([]boundValue, bool) bool) bool {
	switch x := p.(type) {
	case *ast.WildcardPattern:
		return k(env, guarded)
	case *ast.BindingPattern:
		return k(bind(env, x.Name, v), guarded)
	case *ast.LiteralPattern:
		return literalMatches(x, v) && k(env, guarded)
	case *ast.RangePattern:
		if v.Kind != ValueInt {
			return false
		}
		hi := big.NewInt(x.High)
		if !x.Inclusive {
			hi.Sub(hi, bigOne)
		}
		return big.NewInt(x.Low).Cmp(v.Int) <= 0 && v.Int.Cmp(hi) <= 0 && k(env, guarded)
	case *ast.TuplePattern:
		if v.Kind == ValueUnit {
			return len(x.Elems) == 0 && k(env, guarded)
		}
		if v.Kind != ValueTuple || len(x.Elems) != len(v.Elems) {
			return false
		}
		return matchSeq(x.Elems, v.Elems, env, guarded, k)
	case *ast.RecordPattern:
		if v.Kind != ValueStruct {
			return false
		}
		ps, vs, ok := byName(x.Fields, v)
		return ok && matchSeq(ps, vs, env, guarded, k)
	case *ast.VariantPattern:
		if v.Kind != ValueVariant || v.Str != x.Variant {
			return false
		}
		if len(x.Fields) > 0 || x.Rest {
			ps, vs, ok := byName(x.Fields, v)
			return ok && matchSeq(ps, vs, env, guarded, k)
		}
		n := len(x.Args)
		if n > len(v.Elems) {
			return false
		}
		return matchSeq(x.Args, v.Elems[:n], env, guarded, k)
	case *ast.ListPattern:
		if v.Kind != ValueArray {
			return false
		}
		n := len(x.Prefix)
		if len(v.Elems) < n || (!x.HasRest && len(v.Elems) != n) {
			return false
		}
		if x.Rest != nil {
			env = bind(env, x.Rest.Name, ArrayValue(v.Elems[n:]...))
		}
		return matchSeq(x.Prefix, v.Elems[:n], env, guarded, k)
	case *ast.OrPattern:
		for _, alt := range x.Alts {
			if matchValue(alt, v, env, guarded, k) {
				return true
			}
		}
		return false
	case *ast.GuardPattern:
		return matchValue(x.Inner, v, env, true, k)
	}
	return false
}

func matchSeq(ps []ast.Pattern, vs []Value, env []boundValue, guarded bool, k func([]boundValue, bool) bool) bool {
	if len(ps) == 0 {
		return k(env, guarded)
	}
	return matchValue(ps[0], vs[0], env, guarded, func(env []boundValue, guarded bool) bool {
		return matchSeq(ps[1:], vs[1:], env, guarded, k)
	})
}

func byName(fields []ast.FieldPattern, v Value) ([]ast.Pattern, []Value, bool) {
	ps := make([]ast.Pattern, 0, len(fields))
	vs := make([]Value, 0, len(fields))
	for _, f := range fields {
		idx := -1
		for i, n := range v.Names {
			if n == f.Name {
				idx = i
			}
		}
		if idx < 0 {
			return nil, nil, false
		}
		ps = append(ps, f.Pattern)
		vs = append(vs, v.Elems[idx])
	}
	return ps, vs, true
}

func literalMatches(p *ast.LiteralPattern, v Value) bool {
	switch p.Kind {
	case ast.LitBool:
		return v.Kind == ValueBool && v.Bool == p.Bool
	case ast.LitInt:
		if v.Kind != ValueInt {
			return false
		}
		want := big.NewInt(p.Int)
		if p.Str != "" {
			if _, ok := want.SetString(p.Str, 10); !ok {
				return false
			}
		}
		return v.Int.Cmp(want) == 0
	case ast.LitFloat:
		return v.Kind == ValueFloat && v.Float == p.Float
	default:
		return v.Kind == ValueString && v.Str == p.Str
	}
}
