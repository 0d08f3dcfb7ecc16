package typecheck

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/types"
)

// infer computes the type of e and records it. expected is a hint from the
// context (nil when there is none); callers still check the result
// against it.
func (c *checker) infer(e ast.Expr, expected *types.Type) *types.Type {
	return c.record(e, c.inferExpr(e, expected))
}

func (c *checker) shallow(t *types.Type) *types.Type { return c.engine.Shallow(t) }

// deref strips references from t and returns how many were removed
func (c *checker) deref(t *types.Type) (*types.Type, int) {
	base := c.shallow(t)
	n := 0
	for base.Kind == types.TypeKindReference {
		base = c.shallow(base.AsReference().Target)
		n++
	}
	return base, n
}

func (c *checker) inferExpr(e ast.Expr, expected *types.Type) *types.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		c.intLiterals = append(c.intLiterals, pendingLiteral{node: e, id: e.ID(), value: e.Value})
		if e.Suffix != "" {
			t, _ := types.Primitive(e.Suffix)
			return t
		}
		return c.engine.Fresh(types.ClassInt)

	case *ast.FloatLit:
		if e.Suffix != "" {
			t, _ := types.Primitive(e.Suffix)
			return t
		}
		return c.engine.Fresh(types.ClassFloat)

	case *ast.StringLit:
		return types.TypeString

	case *ast.TemplateString:
		for _, p := range e.Parts {
			if p.Expr != nil {
				c.infer(p.Expr, nil)
			}
		}
		return types.TypeString

	case *ast.BoolLit:
		return types.TypeBool

	case *ast.Ident:
		if l, ok := c.lookup(e.Name); ok {
			return l.typ
		}
		if sig, ok := c.table.Function(e.Name); ok {
			args, inst := c.engine.Instantiate(sig.TypeParams, sig.Type())
			if len(args) > 0 {
				c.res.Instantiations[e.ID()] = args
			}
			c.res.Calls[e.ID()] = sig
			return inst[0]
		}
		c.errorAt(diagnostics.UndefinedName, e, "cannot find value `%s` in this scope", e.Name)
		return types.TypeInvalid

	case *ast.Binary:
		return c.inferBinary(e, expected)

	case *ast.Unary:
		return c.inferUnary(e, expected)

	case *ast.Call:
		return c.inferCall(e)

	case *ast.MethodCall:
		return c.inferMethodCall(e)

	case *ast.Field:
		return c.inferField(e)

	case *ast.Index:
		ot := c.infer(e.Object, nil)
		base, n := c.deref(ot)
		if n > 0 {
			c.res.Coercions[e.Object.ID()] = types.CoercionAutoDeref
		}
		it := c.infer(e.Index, nil)
		c.unifyAt(e.Index, c.engine.Fresh(types.ClassInt), it)
		switch base.Kind {
		case types.TypeKindArray:
			return base.AsArray().Element
		case types.TypeKindVar:
			elem := c.engine.Fresh(types.ClassGeneral)
			c.unifyAt(e.Object, types.NewArray(elem), base)
			return elem
		case types.TypeKindInvalid:
			return types.TypeInvalid
		default:
			c.errorAt(diagnostics.TypeMismatch, e, "cannot index into a value of type `%s`", base)
			return types.TypeInvalid
		}

	case *ast.Ref:
		var inner *types.Type
		if expected != nil {
			if x := c.shallow(expected); x.Kind == types.TypeKindReference {
				inner = x.AsReference().Target
			}
		}
		return types.NewReference(c.infer(e.Operand, inner), e.Mutable)

	case *ast.Deref:
		t := c.shallow(c.infer(e.Operand, nil))
		switch t.Kind {
		case types.TypeKindReference:
			return t.AsReference().Target
		case types.TypeKindInvalid:
			return types.TypeInvalid
		case types.TypeKindVar:
			c.errorAt(diagnostics.UnresolvedType, e, "type of dereferenced value must be known here")
			return types.TypeInvalid
		default:
			c.errorAt(diagnostics.TypeMismatch, e, "type `%s` cannot be dereferenced", t)
			return types.TypeInvalid
		}

	case *ast.StructLit:
		return c.inferStructLit(e, expected)

	case *ast.VariantLit:
		return c.inferVariantLit(e, expected)

	case *ast.TupleLit:
		if len(e.Elems) == 0 {
			return types.TypeUnit
		}
		var hints []*types.Type
		if expected != nil {
			if x := c.shallow(expected); x.Kind == types.TypeKindTuple && len(x.AsTuple().Elements) == len(e.Elems) {
				hints = x.AsTuple().Elements
			}
		}
		elems := make([]*types.Type, len(e.Elems))
		for i, el := range e.Elems {
			var hint *types.Type
			if hints != nil {
				hint = hints[i]
			}
			elems[i] = c.infer(el, hint)
		}
		return types.NewTuple(elems...)

	case *ast.ArrayLit:
		var elem *types.Type
		if expected != nil {
			if x := c.shallow(expected); x.Kind == types.TypeKindArray {
				elem = x.AsArray().Element
			}
		}
		if elem == nil {
			elem = c.engine.Fresh(types.ClassGeneral)
		}
		for _, el := range e.Elems {
			c.unifyAt(el, elem, c.infer(el, elem))
		}
		return types.NewArray(elem)

	case *ast.Cast:
		target := c.resolveType(e.Target)
		c.infer(e.Operand, nil)
		c.casts = append(c.casts, pendingCast{node: e, target: target})
		return target

	case *ast.Assign:
		if !ast.IsPlace(e.Target) {
			c.errorAt(diagnostics.TypeMismatch, e.Target, "invalid left-hand side of assignment")
		}
		tt := c.infer(e.Target, nil)
		vt := c.infer(e.Value, tt)
		c.assignAt(e.Value, tt, vt)
		return types.TypeUnit

	case *ast.Match:
		st := c.infer(e.Scrutinee, nil)
		if len(e.Arms) == 0 {
			return types.TypeUnit
		}
		result := c.engine.Fresh(types.ClassGeneral)
		for _, arm := range e.Arms {
			c.push()
			c.checkPattern(arm.Pattern, st)
			if arm.Guard != nil {
				c.unifyAt(arm.Guard, types.TypeBool, c.infer(arm.Guard, types.TypeBool))
			}
			hint := expected
			if hint == nil {
				hint = result
			}
			c.unifyAt(arm.Body, result, c.infer(arm.Body, hint))
			c.pop()
		}
		return result

	case *ast.If:
		c.unifyAt(e.Cond, types.TypeBool, c.infer(e.Cond, types.TypeBool))
		tt := c.infer(e.Then, expected)
		if e.Else == nil {
			c.unifyAt(e.Then, types.TypeUnit, tt)
			return types.TypeUnit
		}
		c.unifyAt(e.Else, tt, c.infer(e.Else, expected))
		return tt

	case *ast.Block:
		return c.inferBlock(e, expected)
	}
	return types.TypeInvalid
}

// ====== Operators ======

func isArithmetic(op ast.BinaryOp) bool {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem:
		return true
	}
	return false
}

func isOrdering(op ast.BinaryOp) bool {
	switch op {
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return true
	}
	return false
}

// require reports a mismatch unless t satisfies ok. Unresolved literal
// variables are checked against their class; general variables pass.
func (c *checker) require(n ast.Node, what string, t *types.Type, ok func(*types.Type) bool, classOK func(types.LiteralClass) bool) bool {
	s := c.shallow(t)
	switch s.Kind {
	case types.TypeKindInvalid:
		return true
	case types.TypeKindVar:
		if classOK(s.AsVar().Class) {
			return true
		}
	default:
		if ok(s) {
			return true
		}
	}
	c.errorAt(diagnostics.TypeMismatch, n, "%s cannot be applied to `%s`", what, s)
	return false
}

func anyClass(types.LiteralClass) bool { return true }

func intClass(cl types.LiteralClass) bool {
	return cl == types.ClassInt || cl == types.ClassGeneral
}

func numeric(t *types.Type) bool { return t.IsNumeric() }
func integer(t *types.Type) bool { return t.IsInteger() }
func integerOrBool(t *types.Type) bool { return t.IsInteger() || t.Kind == types.TypeKindBool }
func orderable(t *types.Type) bool { return t.IsNumeric() || t.Kind == types.TypeKindString }

func (c *checker) inferBinary(e *ast.Binary, expected *types.Type) *types.Type {
	what := "binary operator `" + string(e.Op) + "`"
	switch {
	case isArithmetic(e.Op):
		lt := c.infer(e.Left, expected)
		if !c.unifyAt(e.Right, lt, c.infer(e.Right, lt)) {
			return types.TypeInvalid
		}
		c.require(e, what, lt, numeric, anyClass)
		return lt

	case e.Op == ast.OpBitAnd || e.Op == ast.OpBitOr || e.Op == ast.OpBitXor:
		lt := c.infer(e.Left, expected)
		if !c.unifyAt(e.Right, lt, c.infer(e.Right, lt)) {
			return types.TypeInvalid
		}
		c.require(e, what, lt, integerOrBool, intClass)
		return lt

	case e.Op == ast.OpShl || e.Op == ast.OpShr:
		lt := c.infer(e.Left, expected)
		c.unifyAt(e.Right, c.engine.Fresh(types.ClassInt), c.infer(e.Right, nil))
		c.require(e, what, lt, integer, intClass)
		return lt

	case isOrdering(e.Op):
		lt := c.infer(e.Left, nil)
		if c.unifyAt(e.Right, lt, c.infer(e.Right, lt)) {
			c.require(e, what, lt, orderable, anyClass)
		}
		return types.TypeBool

	case e.Op == ast.OpEq || e.Op == ast.OpNe:
		lt := c.infer(e.Left, nil)
		c.unifyAt(e.Right, lt, c.infer(e.Right, lt))
		return types.TypeBool

	default: // && ||
		c.unifyAt(e.Left, types.TypeBool, c.infer(e.Left, types.TypeBool))
		c.unifyAt(e.Right, types.TypeBool, c.infer(e.Right, types.TypeBool))
		return types.TypeBool
	}
}

func (c *checker) inferUnary(e *ast.Unary, expected *types.Type) *types.Type {
	t := c.infer(e.Operand, expected)
	if lit, ok := e.Operand.(*ast.IntLit); ok && e.Op == ast.OpNeg {
		c.negateLiteral(e, lit)
	}
	what := "unary operator `" + string(e.Op) + "`"
	switch e.Op {
	case ast.OpNeg:
		c.require(e, what, t, func(t *types.Type) bool { return t.IsSigned() || t.IsFloat() }, anyClass)
	case ast.OpNot:
		c.require(e, what, t, integerOrBool, intClass)
	default:
		c.require(e, what, t, integer, intClass)
	}
	return t
}

// negateLiteral range-checks -lit as one literal, so `-128i8` fits
func (c *checker) negateLiteral(neg *ast.Unary, lit *ast.IntLit) {
	for i := len(c.intLiterals) - 1; i >= 0; i-- {
		if c.intLiterals[i].id == lit.ID() {
			c.intLiterals[i].node = neg
			c.intLiterals[i].value = new(big.Int).Neg(lit.Value)
			return
		}
	}
}

// ====== Calls ======

func (c *checker) inferCall(e *ast.Call) *types.Type {
	if id, ok := e.Callee.(*ast.Ident); ok {
		if _, local := c.lookup(id.Name); !local {
			if sig, ok := c.table.Function(id.Name); ok {
				return c.checkCall(e, sig)
			}
		}
	}

	ct := c.shallow(c.infer(e.Callee, nil))
	switch ct.Kind {
	case types.TypeKindFunction:
		ft := ct.AsFunction()
		c.checkArgs(e, e.Callee.String(), e.Args, ft.Params)
		return ft.Return
	case types.TypeKindInvalid:
	default:
		c.errorAt(diagnostics.TypeMismatch, e.Callee, "`%s` of type `%s` is not a function", e.Callee, ct)
	}
	for _, a := range e.Args {
		c.infer(a, nil)
	}
	return types.TypeInvalid
}

func (c *checker) checkCall(e *ast.Call, sig *symbols.FuncSig) *types.Type {
	sigTypes := make([]*types.Type, 0, len(sig.Params)+1)
	for _, p := range sig.Params {
		sigTypes = append(sigTypes, p.Type)
	}
	sigTypes = append(sigTypes, sig.Return)
	args, inst := c.engine.Instantiate(sig.TypeParams, sigTypes...)
	params, ret := inst[:len(sig.Params)], inst[len(sig.Params)]

	c.record(e.Callee, types.NewFunction(params, ret))
	c.res.Calls[e.ID()] = sig
	if len(args) > 0 {
		c.res.Instantiations[e.ID()] = args
	}
	c.checkArgs(e, sig.Name, e.Args, params)
	return ret
}

func (c *checker) checkArgs(at ast.Node, name string, args []ast.Expr, params []*types.Type) {
	if len(args) != len(params) {
		c.errorAt(diagnostics.ArityMismatch, at, "`%s` takes %d argument(s) but %d were supplied", name, len(params), len(args))
		for _, a := range args {
			c.infer(a, nil)
		}
		return
	}
	for i, a := range args {
		c.checkArg(a, params[i])
	}
}

// checkArg passes a to a parameter of type want. A plain place passed where
// a reference is expected is borrowed implicitly. A place still typed by a
// literal class is a value too; only an unconstrained variable is left to
// plain assignment.
func (c *checker) checkArg(a ast.Expr, want *types.Type) {
	w := c.shallow(want)
	if w.Kind == types.TypeKindReference && ast.IsPlace(a) {
		at := c.infer(a, nil)
		if isValue(c.shallow(at)) {
			ref := w.AsReference()
			if c.unifyAt(a, ref.Target, at) {
				if ref.Mutable {
					c.res.Coercions[a.ID()] = types.CoercionAutoRefMut
				} else {
					c.res.Coercions[a.ID()] = types.CoercionAutoRef
				}
			}
			return
		}
		c.assignAt(a, want, at)
		return
	}
	c.assignAt(a, want, c.infer(a, want))
}

func isValue(t *types.Type) bool {
	switch t.Kind {
	case types.TypeKindReference, types.TypeKindInvalid:
		return false
	case types.TypeKindVar:
		return t.AsVar().Class != types.ClassGeneral
	}
	return true
}

func (c *checker) inferMethodCall(e *ast.MethodCall) *types.Type {
	rt := c.infer(e.Receiver, nil)
	base, derefs := c.deref(rt)

	var typeName string
	switch base.Kind {
	case types.TypeKindStruct:
		typeName = base.AsStruct().Def.Name
	case types.TypeKindEnum:
		typeName = base.AsEnum().Def.Name
	case types.TypeKindInvalid:
	case types.TypeKindVar:
		c.errorAt(diagnostics.UnresolvedType, e.Receiver, "type of method receiver must be known to call `%s`", e.Method)
	default:
		c.errorAt(diagnostics.UndefinedName, e, "no method `%s` on type `%s`", e.Method, base)
	}
	var sig *symbols.FuncSig
	if typeName != "" {
		var ok bool
		if sig, ok = c.table.Method(typeName, e.Method); !ok {
			c.errorAt(diagnostics.UndefinedName, e, "no method `%s` on type `%s`", e.Method, base)
		}
	}
	if sig == nil {
		for _, a := range e.Args {
			c.infer(a, nil)
		}
		return types.TypeInvalid
	}

	sigTypes := make([]*types.Type, 0, len(sig.Params)+2)
	for _, p := range sig.Params {
		sigTypes = append(sigTypes, p.Type)
	}
	sigTypes = append(sigTypes, sig.Self, sig.Return)
	args, inst := c.engine.Instantiate(sig.TypeParams, sigTypes...)
	n := len(sig.Params)
	params, self, ret := inst[:n], inst[n], inst[n+1]

	c.unifyAt(e.Receiver, self, base)
	c.res.Methods[e.ID()] = sig
	if len(args) > 0 {
		c.res.Instantiations[e.ID()] = args
	}

	switch *sig.Receiver {
	case ast.ReceiverValue:
		if derefs > 0 {
			c.errorAt(diagnostics.TypeMismatch, e.Receiver, "cannot move `%s` out of a reference to call `%s`", base, e.Method)
		}
	case ast.ReceiverRef:
		if derefs == 0 {
			c.res.Coercions[e.Receiver.ID()] = types.CoercionAutoRef
		}
	case ast.ReceiverMutRef:
		if derefs == 0 {
			c.res.Coercions[e.Receiver.ID()] = types.CoercionAutoRefMut
		} else if !c.shallow(rt).AsReference().Mutable {
			c.errorAt(diagnostics.TypeMismatch, e.Receiver, "cannot borrow `%s` as mutable through a `&` reference to call `%s`", e.Receiver, e.Method)
		}
	}
	c.checkArgs(e, sig.Name, e.Args, params)
	return ret
}

func (c *checker) inferField(e *ast.Field) *types.Type {
	ot := c.infer(e.Object, nil)
	base, n := c.deref(ot)
	if n > 0 {
		c.res.Coercions[e.Object.ID()] = types.CoercionAutoDeref
	}
	switch base.Kind {
	case types.TypeKindStruct:
		if ft, ok := base.AsStruct().FieldType(e.Name); ok {
			return ft
		}
	case types.TypeKindTuple:
		elems := base.AsTuple().Elements
		if i, err := strconv.Atoi(e.Name); err == nil && i >= 0 && i < len(elems) {
			return elems[i]
		}
	case types.TypeKindInvalid:
		return types.TypeInvalid
	case types.TypeKindVar:
		c.errorAt(diagnostics.UnresolvedType, e.Object, "type must be known to access field `%s`", e.Name)
		return types.TypeInvalid
	}
	c.errorAt(diagnostics.UndefinedName, e, "no field `%s` on type `%s`", e.Name, base)
	return types.TypeInvalid
}

// ====== Constructors ======

func fieldNames(fields []ast.FieldInit) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func sameFieldSet(def *types.StructDef, names []string) bool {
	if len(def.Fields) != len(names) {
		return false
	}
	for _, n := range names {
		if _, _, ok := def.Field(n); !ok {
			return false
		}
	}
	return true
}

// implicitTarget picks the struct an anonymous struct literal constructs
func (c *checker) implicitTarget(e *ast.StructLit, expected *types.Type) *types.Type {
	names := fieldNames(e.Fields)
	if expected != nil {
		if x := c.shallow(expected); x.Kind == types.TypeKindStruct && sameFieldSet(x.AsStruct().Def, names) {
			return x
		}
	}
	cands := c.table.StructsWithFields(names)
	switch len(cands) {
	case 1:
		args, _ := c.engine.Instantiate(cands[0].TypeParams)
		if len(args) > 0 {
			c.res.Instantiations[e.ID()] = args
		}
		return types.NewStruct(cands[0], args...)
	case 0:
		c.errorAt(diagnostics.UndefinedName, e, "no struct has exactly the fields {%s}", strings.Join(names, ", "))
	default:
		list := make([]string, len(cands))
		for i, d := range cands {
			list[i] = d.Name
		}
		if c.fatal == nil {
			diagnostics.New(diagnostics.AmbiguousOverload, e.Span).
				Messagef("struct literal matches several structs: %s", strings.Join(list, ", ")).
				Hint("name the struct explicitly").
				InFunction(c.sig.Name).
				Report(c.bag)
		}
	}
	return nil
}

func (c *checker) inferStructLit(e *ast.StructLit, expected *types.Type) *types.Type {
	var st *types.Type
	if e.Name != "" {
		def, ok := c.table.Struct(e.Name)
		if !ok {
			c.errorAt(diagnostics.UndefinedName, e, "cannot find struct `%s`", e.Name)
		} else {
			args, _ := c.engine.Instantiate(def.TypeParams)
			if len(args) > 0 {
				c.res.Instantiations[e.ID()] = args
			}
			st = types.NewStruct(def, args...)
		}
	} else if st = c.implicitTarget(e, expected); st != nil {
		c.res.LiteralTargets[e.ID()] = st.AsStruct().Def
	}
	if st == nil {
		for _, f := range e.Fields {
			c.infer(f.Value, nil)
		}
		return types.TypeInvalid
	}

	s := st.AsStruct()
	c.res.Structs[e.ID()] = s.Def
	c.checkFieldInits(e, s.Def.Name, e.Fields, s.Fields())
	return st
}

// checkFieldInits checks named initializers against the declared fields
func (c *checker) checkFieldInits(at ast.Node, owner string, inits []ast.FieldInit, fields []types.Field) {
	byName := make(map[string]*types.Type, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Type
	}
	seen := make(map[string]bool, len(inits))
	for _, fi := range inits {
		ft, ok := byName[fi.Name]
		switch {
		case !ok:
			c.errorAt(diagnostics.UndefinedName, fi.Value, "`%s` has no field named `%s`", owner, fi.Name)
			c.infer(fi.Value, nil)
			continue
		case seen[fi.Name]:
			c.errorAt(diagnostics.DuplicateDefinition, fi.Value, "field `%s` is initialized more than once", fi.Name)
		}
		seen[fi.Name] = true
		c.assignAt(fi.Value, ft, c.infer(fi.Value, ft))
	}
	for _, f := range fields {
		if !seen[f.Name] {
			c.errorAt(diagnostics.TypeMismatch, at, "missing field `%s` in initializer of `%s`", f.Name, owner)
		}
	}
}

// resolveVariant resolves a possibly unqualified variant name, preferring
// the enum of the expected type
func (c *checker) resolveVariant(at ast.Node, enum, variant string, expected *types.Type) (symbols.VariantRef, bool) {
	if enum == "" && expected != nil {
		if x := c.shallow(expected); x.Kind == types.TypeKindEnum {
			if v, ok := x.AsEnum().Def.Variant(variant); ok {
				return symbols.VariantRef{Enum: x.AsEnum().Def, Variant: v}, true
			}
		}
	}
	ref, cands, ok := c.table.Variant(enum, variant)
	if ok {
		return ref, true
	}
	if len(cands) > 1 {
		names := make([]string, len(cands))
		for i, cand := range cands {
			names[i] = cand.Enum.Name
		}
		c.errorAt(diagnostics.AmbiguousOverload, at, "variant `%s` exists in several enums: %s", variant, strings.Join(names, ", "))
		return ref, false
	}
	if enum != "" {
		c.errorAt(diagnostics.UndefinedName, at, "no variant `%s::%s`", enum, variant)
	} else {
		c.errorAt(diagnostics.UndefinedName, at, "no variant named `%s`", variant)
	}
	return ref, false
}

func (c *checker) inferVariantLit(e *ast.VariantLit, expected *types.Type) *types.Type {
	ref, ok := c.resolveVariant(e, e.Enum, e.Variant, expected)
	if !ok {
		for _, a := range e.Args {
			c.infer(a, nil)
		}
		for _, f := range e.Fields {
			c.infer(f.Value, nil)
		}
		return types.TypeInvalid
	}

	args, _ := c.engine.Instantiate(ref.Enum.TypeParams)
	et := types.NewEnum(ref.Enum, args...)
	if expected != nil {
		if x := c.shallow(expected); x.Kind == types.TypeKindEnum && x.AsEnum().Def == ref.Enum {
			// pre-bind the arguments so payload literals see the expected types
			if err := c.engine.Unify(x, et); err != nil {
				if _, mismatch := err.(*types.MismatchError); !mismatch {
					c.handle(e, err)
				}
			}
		}
	}
	c.res.Variants[e.ID()] = ref
	if len(args) > 0 {
		c.res.Instantiations[e.ID()] = args
	}

	name := ref.Enum.Name + "::" + ref.Variant.Name
	slots := et.AsEnum().SlotTypes(ref.Variant)
	if ref.Variant.IsStructLike() {
		if len(e.Args) > 0 {
			c.errorAt(diagnostics.ArityMismatch, e, "variant `%s` has named fields", name)
		}
		fields := make([]types.Field, len(slots))
		for i, f := range ref.Variant.Fields {
			fields[i] = types.Field{Name: f.Name, Type: slots[i]}
		}
		c.checkFieldInits(e, name, e.Fields, fields)
		return et
	}
	if len(e.Fields) > 0 {
		c.errorAt(diagnostics.TypeMismatch, e, "variant `%s` has no named fields", name)
		for _, f := range e.Fields {
			c.infer(f.Value, nil)
		}
	}
	c.checkArgs(e, name, e.Args, slots)
	return et
}
