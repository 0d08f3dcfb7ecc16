package patterns

import (
	"math/big"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/types"
)

// patKind classifies a lowered pattern
type patKind int

const (
	patWild patKind = iota
	patBool
	patVariant
	patInt
	patString
	patFloat
	patList
	patTuple // tuples, records and unit: single-constructor product
	patDeref
	patOr
	patGuard
)

// pat is a pattern lowered against the type of the column it sits in.
// Record fields are reordered to declaration order and omitted fields
// become wildcards, so every product pattern has exactly one sub-pattern
// per sub-column.
type pat struct {
	kind     patKind
	bind     string
	b        bool
	variant  *types.Variant
	lo, hi   *big.Int
	str      string
	f        float64
	args     []*pat
	rest     bool
	restBind string
}

var wildPat = &pat{kind: patWild}

func wilds(n int) []*pat {
	out := make([]*pat, n)
	for i := range out {
		out[i] = wildPat
	}
	return out
}

// fit pads or truncates args to exactly n entries
func fit(args []*pat, n int) []*pat {
	if len(args) == n {
		return args
	}
	out := wilds(n)
	copy(out, args)
	return out
}

func bindOf(p *pat, path Path) []Binding {
	if p.bind == "" {
		return nil
	}
	return []Binding{{Name: p.bind, Path: path}}
}

func isStructural(p *pat) bool {
	return p.kind == patTuple || p.kind == patDeref
}

// lower converts p, checked against t, into the compiler's representation.
// A pattern that does not fit t lowers to a wildcard; only well-typed
// functions reach the compiler.
func lower(p ast.Pattern, t *types.Type) *pat {
	if t == nil {
		t = types.TypeInvalid
	}
	switch x := p.(type) {
	case *ast.WildcardPattern:
		return wildPat
	case *ast.BindingPattern:
		return &pat{kind: patWild, bind: x.Name}
	case *ast.OrPattern:
		out := &pat{kind: patOr}
		for _, a := range x.Alts {
			out.args = append(out.args, lower(a, t))
		}
		return out
	case *ast.GuardPattern:
		return &pat{kind: patGuard, args: []*pat{lower(x.Inner, t)}}
	}

	if t.Kind == types.TypeKindReference {
		return &pat{kind: patDeref, args: []*pat{lower(p, t.AsReference().Target)}}
	}

	switch x := p.(type) {
	case *ast.LiteralPattern:
		return lowerLiteral(x, t)

	case *ast.RangePattern:
		if !t.IsInteger() {
			return wildPat
		}
		hi := big.NewInt(x.High)
		if !x.Inclusive {
			hi.Sub(hi, bigOne)
		}
		return &pat{kind: patInt, lo: big.NewInt(x.Low), hi: hi}

	case *ast.TuplePattern:
		switch t.Kind {
		case types.TypeKindUnit:
			return &pat{kind: patTuple}
		case types.TypeKindTuple:
			elems := t.AsTuple().Elements
			out := &pat{kind: patTuple, args: wilds(len(elems))}
			for i, e := range x.Elems {
				if i < len(elems) {
					out.args[i] = lower(e, elems[i])
				}
			}
			return out
		}

	case *ast.RecordPattern:
		if t.Kind != types.TypeKindStruct {
			return wildPat
		}
		fields := t.AsStruct().Fields()
		out := &pat{kind: patTuple, args: wilds(len(fields))}
		for _, fp := range x.Fields {
			for i, f := range fields {
				if f.Name == fp.Name {
					out.args[i] = lower(fp.Pattern, f.Type)
				}
			}
		}
		return out

	case *ast.VariantPattern:
		if t.Kind != types.TypeKindEnum {
			return wildPat
		}
		et := t.AsEnum()
		v, ok := et.Def.Variant(x.Variant)
		if !ok {
			return wildPat
		}
		slots := et.SlotTypes(v)
		out := &pat{kind: patVariant, variant: v, args: wilds(len(slots))}
		if v.IsStructLike() {
			for _, fp := range x.Fields {
				for i, f := range v.Fields {
					if f.Name == fp.Name {
						out.args[i] = lower(fp.Pattern, slots[i])
					}
				}
			}
		} else {
			for i, a := range x.Args {
				if i < len(slots) {
					out.args[i] = lower(a, slots[i])
				}
			}
		}
		return out

	case *ast.ListPattern:
		if t.Kind != types.TypeKindArray {
			return wildPat
		}
		elem := t.AsArray().Element
		out := &pat{kind: patList, rest: x.HasRest}
		for _, e := range x.Prefix {
			out.args = append(out.args, lower(e, elem))
		}
		if x.Rest != nil {
			out.restBind = x.Rest.Name
		}
		return out
	}
	return wildPat
}

func lowerLiteral(x *ast.LiteralPattern, t *types.Type) *pat {
	switch x.Kind {
	case ast.LitBool:
		if t.Kind == types.TypeKindBool {
			return &pat{kind: patBool, b: x.Bool}
		}
	case ast.LitInt:
		if t.IsInteger() {
			v := big.NewInt(x.Int)
			if x.Str != "" {
				if _, ok := v.SetString(x.Str, 10); !ok {
					return wildPat
				}
			}
			return &pat{kind: patInt, lo: v, hi: v}
		}
	case ast.LitString:
		if t.Kind == types.TypeKindString {
			return &pat{kind: patString, str: x.Str}
		}
	case ast.LitFloat:
		if t.IsFloat() {
			return &pat{kind: patFloat, f: x.Float}
		}
	}
	return wildPat
}
