package symbols

import (
	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/types"
)

// ResolveType turns written type syntax into a type. Names in params
// resolve to rigid generic parameters. Unknown names and wrong argument
// counts are reported and yield the invalid type.
func (t *Table) ResolveType(te ast.TypeExpr, params []string) (*types.Type, []diagnostics.Diagnostic) {
	var ds []diagnostics.Diagnostic
	out := t.resolveType(te, params, &ds)
	return out, ds
}

func (t *Table) resolveType(te ast.TypeExpr, params []string, ds *[]diagnostics.Diagnostic) *types.Type {
	switch x := te.(type) {
	case nil:
		return types.TypeUnit
	case *ast.RefType:
		return types.NewReference(t.resolveType(x.Target, params, ds), x.Mutable)
	case *ast.ArrayType:
		return types.NewArray(t.resolveType(x.Elem, params, ds))
	case *ast.TupleType:
		elems := make([]*types.Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = t.resolveType(e, params, ds)
		}
		return types.NewTuple(elems...)
	case *ast.FuncType:
		ps := make([]*types.Type, len(x.Params))
		for i, p := range x.Params {
			ps[i] = t.resolveType(p, params, ds)
		}
		var ret *types.Type
		if x.Return != nil {
			ret = t.resolveType(x.Return, params, ds)
		}
		return types.NewFunction(ps, ret)
	case *ast.NamedType:
		return t.resolveNamed(x, params, ds)
	default:
		return types.TypeInvalid
	}
}

func (t *Table) resolveNamed(x *ast.NamedType, params []string, ds *[]diagnostics.Diagnostic) *types.Type {
	args := make([]*types.Type, len(x.Args))
	for i, a := range x.Args {
		args[i] = t.resolveType(a, params, ds)
	}

	arity := func(want int) bool {
		if len(args) == want {
			return true
		}
		*ds = append(*ds, diagnostics.New(diagnostics.ArityMismatch, x.Span).
			Messagef("type `%s` takes %d type argument(s) but %d were supplied", x.Name, want, len(args)).
			Build())
		return false
	}

	for _, p := range params {
		if p == x.Name {
			if !arity(0) {
				return types.TypeInvalid
			}
			return types.NewGeneric(p)
		}
	}
	if prim, ok := types.Primitive(x.Name); ok {
		if !arity(0) {
			return types.TypeInvalid
		}
		return prim
	}
	if def, ok := t.structs[x.Name]; ok {
		if !arity(len(def.TypeParams)) {
			return types.TypeInvalid
		}
		return types.NewStruct(def, args...)
	}
	if def, ok := t.enums[x.Name]; ok {
		if !arity(len(def.TypeParams)) {
			return types.TypeInvalid
		}
		return types.NewEnum(def, args...)
	}
	*ds = append(*ds, diagnostics.New(diagnostics.UndefinedName, x.Span).
		Messagef("undefined type `%s`", x.Name).
		Build())
	return types.TypeInvalid
}
