package typecheck

import (
	"math/big"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/types"
)

// checkPattern types p against the scrutinee type t and declares the
// bindings it introduces in the current scope
func (c *checker) checkPattern(p ast.Pattern, t *types.Type) {
	c.record(p, t)
	switch p := p.(type) {
	case *ast.WildcardPattern:

	case *ast.BindingPattern:
		c.declare(p.Name, t, p.Mutable)

	case *ast.LiteralPattern:
		switch p.Kind {
		case ast.LitInt:
			c.unifyAt(p, t, c.engine.Fresh(types.ClassInt))
			c.intLiterals = append(c.intLiterals, pendingLiteral{node: p, id: p.ID(), value: big.NewInt(p.Int)})
		case ast.LitFloat:
			c.unifyAt(p, t, c.engine.Fresh(types.ClassFloat))
		case ast.LitString:
			c.unifyAt(p, t, types.TypeString)
		case ast.LitBool:
			c.unifyAt(p, t, types.TypeBool)
		}

	case *ast.RangePattern:
		c.unifyAt(p, t, c.engine.Fresh(types.ClassInt))
		c.intLiterals = append(c.intLiterals,
			pendingLiteral{node: p, id: p.ID(), value: big.NewInt(p.Low)},
			pendingLiteral{node: p, id: p.ID(), value: big.NewInt(p.High)})

	case *ast.TuplePattern:
		c.checkTuplePattern(p, t)

	case *ast.ListPattern:
		elem := c.engine.Fresh(types.ClassGeneral)
		if !c.unifyAt(p, t, types.NewArray(elem)) {
			elem = types.TypeInvalid
		}
		for _, sub := range p.Prefix {
			c.checkPattern(sub, elem)
		}
		if p.Rest != nil {
			c.checkPattern(p.Rest, types.NewArray(elem))
		}

	case *ast.RecordPattern:
		def, ok := c.table.Struct(p.Name)
		if !ok {
			c.errorAt(diagnostics.UndefinedName, p, "cannot find struct `%s`", p.Name)
			c.invalidFields(p.Fields)
			return
		}
		args, _ := c.engine.Instantiate(def.TypeParams)
		st := types.NewStruct(def, args...)
		c.unifyAt(p, t, st)
		c.res.Structs[p.ID()] = def
		c.checkFieldPatterns(p, def.Name, p.Fields, p.Rest, st.AsStruct().Fields())

	case *ast.VariantPattern:
		c.checkVariantPattern(p, t)

	case *ast.OrPattern:
		c.checkOrPattern(p, t)

	case *ast.GuardPattern:
		c.checkPattern(p.Inner, t)
		c.unifyAt(p.Cond, types.TypeBool, c.infer(p.Cond, types.TypeBool))
	}
}

func (c *checker) invalidFields(fields []ast.FieldPattern) {
	for _, f := range fields {
		c.checkPattern(f.Pattern, types.TypeInvalid)
	}
}

func (c *checker) checkTuplePattern(p *ast.TuplePattern, t *types.Type) {
	s := c.shallow(t)
	switch {
	case s.Kind == types.TypeKindTuple && len(s.AsTuple().Elements) == len(p.Elems):
		for i, sub := range p.Elems {
			c.checkPattern(sub, s.AsTuple().Elements[i])
		}
		return
	case s.Kind == types.TypeKindUnit && len(p.Elems) == 0:
		return
	case s.Kind == types.TypeKindVar || s.Kind == types.TypeKindInvalid:
		elems := make([]*types.Type, len(p.Elems))
		for i := range elems {
			elems[i] = c.engine.Fresh(types.ClassGeneral)
		}
		c.unifyAt(p, t, types.NewTuple(elems...))
		for i, sub := range p.Elems {
			c.checkPattern(sub, elems[i])
		}
		return
	}
	c.errorAt(diagnostics.TypeMismatch, p, "mismatched types: expected `%s`, found a tuple pattern with %d element(s)", s, len(p.Elems))
	for _, sub := range p.Elems {
		c.checkPattern(sub, types.TypeInvalid)
	}
}

// checkFieldPatterns types named sub-patterns of a struct or struct-like
// variant. Without rest every field must be mentioned.
func (c *checker) checkFieldPatterns(at ast.Pattern, owner string, pats []ast.FieldPattern, rest bool, fields []types.Field) {
	byName := make(map[string]*types.Type, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Type
	}
	seen := make(map[string]bool, len(pats))
	for _, fp := range pats {
		ft, ok := byName[fp.Name]
		if !ok {
			c.errorAt(diagnostics.UndefinedName, fp.Pattern, "`%s` has no field named `%s`", owner, fp.Name)
			c.checkPattern(fp.Pattern, types.TypeInvalid)
			continue
		}
		if seen[fp.Name] {
			c.errorAt(diagnostics.DuplicateDefinition, fp.Pattern, "field `%s` is bound more than once", fp.Name)
		}
		seen[fp.Name] = true
		c.checkPattern(fp.Pattern, ft)
	}
	if rest {
		return
	}
	for _, f := range fields {
		if !seen[f.Name] {
			if c.fatal != nil {
				return
			}
			diagnostics.New(diagnostics.TypeMismatch, at.GetSpan()).
				Messagef("pattern does not mention field `%s` of `%s`", f.Name, owner).
				Hint("use `..` to ignore the remaining fields").
				InFunction(c.sig.Name).
				Report(c.bag)
		}
	}
}

func (c *checker) checkVariantPattern(p *ast.VariantPattern, t *types.Type) {
	ref, ok := c.resolveVariant(p, p.Enum, p.Variant, t)
	if !ok {
		for _, sub := range p.Args {
			c.checkPattern(sub, types.TypeInvalid)
		}
		c.invalidFields(p.Fields)
		return
	}
	args, _ := c.engine.Instantiate(ref.Enum.TypeParams)
	et := types.NewEnum(ref.Enum, args...)
	c.unifyAt(p, t, et)
	c.res.Variants[p.ID()] = ref

	name := ref.Enum.Name + "::" + ref.Variant.Name
	slots := et.AsEnum().SlotTypes(ref.Variant)
	if ref.Variant.IsStructLike() {
		if len(p.Args) > 0 {
			c.errorAt(diagnostics.ArityMismatch, p, "variant `%s` has named fields", name)
			for _, sub := range p.Args {
				c.checkPattern(sub, types.TypeInvalid)
			}
		}
		fields := make([]types.Field, len(slots))
		for i, f := range ref.Variant.Fields {
			fields[i] = types.Field{Name: f.Name, Type: slots[i]}
		}
		c.checkFieldPatterns(p, name, p.Fields, p.Rest, fields)
		return
	}
	if len(p.Fields) > 0 {
		c.errorAt(diagnostics.TypeMismatch, p, "variant `%s` has no named fields", name)
		c.invalidFields(p.Fields)
	}
	if len(p.Args) != len(slots) {
		c.errorAt(diagnostics.ArityMismatch, p, "variant `%s` has %d field(s) but the pattern has %d", name, len(slots), len(p.Args))
		for _, sub := range p.Args {
			c.checkPattern(sub, types.TypeInvalid)
		}
		return
	}
	for i, sub := range p.Args {
		c.checkPattern(sub, slots[i])
	}
}

// checkOrPattern requires every alternative to bind the same names at the
// same types. The first alternative's bindings are the ones declared.
func (c *checker) checkOrPattern(p *ast.OrPattern, t *types.Type) {
	if len(p.Alts) == 0 {
		return
	}
	c.checkPattern(p.Alts[0], t)
	first := make(map[string]bool)
	for _, b := range ast.Bindings(p.Alts[0]) {
		first[b.Name] = true
	}

	for _, alt := range p.Alts[1:] {
		c.push()
		c.checkPattern(alt, t)
		scope := c.scopes[len(c.scopes)-1]
		c.pop()
		for name, l := range scope {
			if !first[name] {
				c.errorAt(diagnostics.TypeMismatch, alt, "variable `%s` is not bound in all alternatives", name)
				continue
			}
			if orig, ok := c.lookup(name); ok {
				c.unifyAt(alt, orig.typ, l.typ)
			}
		}
		for name := range first {
			if _, ok := scope[name]; !ok {
				c.errorAt(diagnostics.TypeMismatch, alt, "variable `%s` is not bound in all alternatives", name)
			}
		}
	}
}
