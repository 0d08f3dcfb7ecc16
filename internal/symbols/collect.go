package symbols

import (
	"sort"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/position"
	"github.com/yunilang/yuni/internal/types"
)

// Builtins are the functions every program can call. Each takes a shared
// reference so printing never moves its argument.
var Builtins = []string{"print", "println"}

// collector carries the state of one collection pass
type collector struct {
	table *Table
	bag   *diagnostics.Bag
}

// Collect registers every declaration of prog and resolves all signatures.
// Problems are reported as diagnostics; the returned table is always usable,
// with erroneous types replaced by the invalid type.
func Collect(prog *ast.Program) (*Table, []diagnostics.Diagnostic) {
	c := &collector{table: newTable(), bag: diagnostics.NewBag()}
	c.registerBuiltins()

	// Pass 1: type names, so declarations can refer to each other in any order
	var structs []*ast.StructDecl
	var enums []*ast.EnumDecl
	var funcs []*ast.FuncDecl
	for _, item := range prog.Items {
		switch d := item.(type) {
		case *ast.StructDecl:
			if c.declareType(d.Name, d.Span) {
				c.table.structs[d.Name] = &types.StructDef{Name: d.Name, TypeParams: d.TypeParams}
				structs = append(structs, d)
			}
		case *ast.EnumDecl:
			if c.declareType(d.Name, d.Span) {
				c.table.enums[d.Name] = &types.EnumDef{Name: d.Name, TypeParams: d.TypeParams}
				enums = append(enums, d)
			}
		case *ast.FuncDecl:
			funcs = append(funcs, d)
		}
	}

	// Pass 2: members
	for _, d := range structs {
		c.collectStruct(d)
	}
	for _, d := range enums {
		c.collectEnum(d)
	}
	for _, d := range funcs {
		c.collectFunc(d)
	}

	for _, list := range c.table.shapes {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	return c.table, c.bag.Items()
}

func (c *collector) registerBuiltins() {
	for _, name := range Builtins {
		t := types.NewGeneric("T")
		c.table.funcs[name] = &FuncSig{
			Name:       name,
			Kind:       SymbolKindBuiltin,
			TypeParams: []string{"T"},
			Params:     []Param{{Name: "value", Type: types.NewReference(t, false)}},
			Return:     types.TypeUnit,
		}
	}
}

func (c *collector) duplicate(name string, span position.Span) {
	b := diagnostics.New(diagnostics.DuplicateDefinition, span).
		Messagef("`%s` is defined more than once", name)
	if prev, ok := c.table.spans[name]; ok {
		b.Secondary(prev, "first defined here")
	}
	b.Report(c.bag)
}

func (c *collector) declareType(name string, span position.Span) bool {
	if _, prim := types.Primitive(name); prim {
		diagnostics.New(diagnostics.DuplicateDefinition, span).
			Messagef("`%s` is a builtin type", name).
			Report(c.bag)
		return false
	}
	if _, ok := c.table.spans[name]; ok {
		c.duplicate(name, span)
		return false
	}
	c.table.spans[name] = span
	return true
}

func (c *collector) resolve(te ast.TypeExpr, params []string) *types.Type {
	t, ds := c.table.ResolveType(te, params)
	c.bag.AddAll(ds)
	return t
}

func (c *collector) collectStruct(d *ast.StructDecl) {
	def := c.table.structs[d.Name]
	seen := make(map[string]bool)
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if seen[f.Name] {
			diagnostics.New(diagnostics.DuplicateDefinition, f.Span).
				Messagef("field `%s` is declared twice in `%s`", f.Name, d.Name).
				Report(c.bag)
			continue
		}
		seen[f.Name] = true
		names = append(names, f.Name)
		def.Fields = append(def.Fields, types.Field{Name: f.Name, Type: c.resolve(f.Type, d.TypeParams)})
	}
	key := shapeKey(names)
	c.table.shapes[key] = append(c.table.shapes[key], def)
}

func (c *collector) collectEnum(d *ast.EnumDecl) {
	def := c.table.enums[d.Name]
	for _, vd := range d.Variants {
		if _, dup := def.Variant(vd.Name); dup {
			diagnostics.New(diagnostics.DuplicateDefinition, vd.Span).
				Messagef("variant `%s::%s` is declared twice", d.Name, vd.Name).
				Report(c.bag)
			continue
		}
		v := &types.Variant{Name: vd.Name, Index: len(def.Variants)}
		for _, p := range vd.Payload {
			v.Payload = append(v.Payload, c.resolve(p, d.TypeParams))
		}
		for _, f := range vd.Fields {
			v.Fields = append(v.Fields, types.Field{Name: f.Name, Type: c.resolve(f.Type, d.TypeParams)})
		}
		def.Variants = append(def.Variants, v)
		c.table.variants[vd.Name] = append(c.table.variants[vd.Name], VariantRef{Enum: def, Variant: v})
	}
}

func (c *collector) collectFunc(d *ast.FuncDecl) {
	sig := &FuncSig{
		Name: d.QualifiedName(),
		Kind: SymbolKindFunction,
		Decl: d,
		Span: d.Span,
	}

	if d.Receiver != nil {
		sig.Kind = SymbolKindMethod
		self, params, ok := c.selfType(d.Receiver)
		if !ok {
			return
		}
		kind := d.Receiver.Kind
		sig.Receiver = &kind
		sig.Self = self
		sig.TypeParams = append(append([]string(nil), params...), d.TypeParams...)
		if _, dup := c.table.methods[d.Receiver.TypeName][d.Name]; dup {
			c.duplicate(sig.Name, d.Span)
			return
		}
	} else {
		sig.TypeParams = d.TypeParams
		if prev, dup := c.table.funcs[d.Name]; dup {
			if prev.Kind == SymbolKindBuiltin {
				diagnostics.New(diagnostics.DuplicateDefinition, d.Span).
					Messagef("`%s` shadows a builtin function", d.Name).
					Report(c.bag)
			} else {
				diagnostics.New(diagnostics.DuplicateDefinition, d.Span).
					Messagef("function `%s` is defined more than once", d.Name).
					Secondary(prev.Span, "first defined here").
					Report(c.bag)
			}
			return
		}
	}

	seen := make(map[string]bool)
	for _, p := range d.Params {
		if seen[p.Name] || (d.Receiver != nil && p.Name == "self") {
			diagnostics.New(diagnostics.DuplicateDefinition, p.Span).
				Messagef("parameter `%s` is bound more than once", p.Name).
				Report(c.bag)
		}
		seen[p.Name] = true
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: c.resolve(p.Type, sig.TypeParams), Mutable: p.Mutable})
	}
	sig.Return = types.TypeUnit
	if d.Return != nil {
		sig.Return = c.resolve(d.Return, sig.TypeParams)
	}
	if d.Lives != nil {
		sig.Lives = []string{}
		for _, src := range d.Lives.Sources {
			if !seen[src] && !(src == "self" && d.Receiver != nil) {
				diagnostics.New(diagnostics.UndefinedName, d.Lives.Span).
					Messagef("lives clause names `%s`, which is not a parameter of `%s`", src, sig.Name).
					Report(c.bag)
				continue
			}
			sig.Lives = append(sig.Lives, src)
		}
	}

	if d.Receiver != nil {
		if c.table.methods[d.Receiver.TypeName] == nil {
			c.table.methods[d.Receiver.TypeName] = make(map[string]*FuncSig)
		}
		c.table.methods[d.Receiver.TypeName][d.Name] = sig
	} else {
		c.table.funcs[d.Name] = sig
	}
}

// selfType returns the receiver's nominal type applied to its own type
// parameters, and those parameters
func (c *collector) selfType(r *ast.Receiver) (*types.Type, []string, bool) {
	if def, ok := c.table.structs[r.TypeName]; ok {
		return types.NewStruct(def, genericArgs(def.TypeParams)...), def.TypeParams, true
	}
	if def, ok := c.table.enums[r.TypeName]; ok {
		return types.NewEnum(def, genericArgs(def.TypeParams)...), def.TypeParams, true
	}
	diagnostics.New(diagnostics.UndefinedName, r.Span).
		Messagef("cannot declare a method on undefined type `%s`", r.TypeName).
		Report(c.bag)
	return nil, nil, false
}

func genericArgs(params []string) []*types.Type {
	out := make([]*types.Type, len(params))
	for i, p := range params {
		out[i] = types.NewGeneric(p)
	}
	return out
}
