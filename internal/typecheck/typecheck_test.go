package typecheck

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/astio"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/types"
)

func checkDoc(t *testing.T, doc, fnName string) (*Result, *ast.FuncDecl) {
	t.Helper()
	prog, err := astio.Decode([]byte("language: \"0.1.0\"\nitems:\n"+doc), "test.yaml", astio.Options{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	table, ds := symbols.Collect(prog)
	if len(ds) != 0 {
		t.Fatalf("collection diagnostics: %v", ds)
	}
	for _, fn := range prog.Functions() {
		if fn.QualifiedName() == fnName {
			res, err := Check(table, fn)
			if err != nil {
				t.Fatalf("invariant error: %v", err)
			}
			return res, fn
		}
	}
	t.Fatalf("function %s not found", fnName)
	return nil, nil
}

func hasDiag(res *Result, kind diagnostics.Kind, fragment string) bool {
	for _, d := range res.Diagnostics {
		if d.Kind == kind && strings.Contains(d.Message, fragment) {
			return true
		}
	}
	return false
}

func letInit(fn *ast.FuncDecl, i int) ast.Expr {
	return fn.Body.Stmts[i].(*ast.LetStmt).Init
}

func letPattern(fn *ast.FuncDecl, i int) ast.Pattern {
	return fn.Body.Stmts[i].(*ast.LetStmt).Pattern
}

func TestLiteralDefaults(t *testing.T) {
	res, fn := checkDoc(t, `
  - fn: main
    body:
      - {let: a, value: 5}
      - {let: b, value: 2.5}
      - {let: c, type: u8, value: 5}
      - {let: d, value: 7i64}
      - {let: e, value: {str: hi}}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	want := []string{"i32", "f64", "u8", "i64", "String"}
	for i, w := range want {
		if got := res.TypeOf(letPattern(fn, i).ID()).String(); got != w {
			t.Errorf("binding %d: got %s, want %s", i, got, w)
		}
	}
}

func TestNoUnresolvedVariablesInAcceptedFunction(t *testing.T) {
	res, _ := checkDoc(t, `
  - enum: Option
    generics: [T]
    variants: {Some: [T], None: []}
  - fn: main
    body:
      - {let: xs, value: {array: [1, 2, 3]}}
      - {let: o, value: {variant: "Option::Some", args: [{index: 0, of: xs}]}}
      - let: n
        value:
          match: o
          arms:
            - {pattern: {variant: "Option::Some", args: [v]}, body: {op: "+", args: [v, 1]}}
            - {pattern: "Option::None", body: 0}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	for id, typ := range res.Types {
		if typ.HasVars() {
			t.Errorf("node %d left unresolved: %s", id, typ)
		}
	}
}

func TestUnresolvedTypeReported(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    body:
      - {let: xs, value: {array: []}}
`, "main")
	if !hasDiag(res, diagnostics.UnresolvedType, "cannot infer") {
		t.Errorf("expected UnresolvedType, got %v", res.Diagnostics)
	}
}

func TestWideningVersusNarrowing(t *testing.T) {
	names := []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64"}
	for _, from := range names {
		for _, to := range names {
			from, to := from, to
			t.Run(from+"->"+to, func(t *testing.T) {
				doc := fmt.Sprintf(`
  - fn: main
    params: [{a: %s}]
    body:
      - {let: b, type: %s, value: a}
`, from, to)
				res, fn := checkDoc(t, doc, "main")
				ft, _ := types.Primitive(from)
				tt, _ := types.Primitive(to)
				accepted := from == to || types.CanWiden(ft, tt)
				if accepted != res.OK() {
					t.Fatalf("accepted=%v but diagnostics=%v", accepted, res.Diagnostics)
				}
				if accepted && from != to && res.Coercions[letInit(fn, 0).ID()] != types.CoercionWiden {
					t.Error("widening was not recorded as a coercion")
				}
				if !accepted && !hasDiag(res, diagnostics.TypeMismatch, "mismatched types") {
					t.Errorf("expected a type mismatch, got %v", res.Diagnostics)
				}
			})
		}
	}
}

func TestNarrowingWithCast(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    params: [{a: i64}]
    body:
      - {let: b, type: i32, value: {cast: a, to: i32}}
      - {let: c, type: u8, value: {cast: true, to: u8}}
`, "main")
	if !res.OK() {
		t.Errorf("casts should be accepted: %v", res.Diagnostics)
	}
}

func TestInvalidCasts(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    body:
      - {let: a, value: {cast: {str: s}, to: i32}}
      - {let: b, value: {cast: 1, to: bool}}
`, "main")
	if n := countKind(res, diagnostics.InvalidCast); n != 2 {
		t.Errorf("expected 2 invalid casts, got %v", res.Diagnostics)
	}
}

func countKind(res *Result, kind diagnostics.Kind) int {
	n := 0
	for _, d := range res.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func TestLiteralRange(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    body:
      - {let: a, type: u8, value: 300}
      - {let: b, type: i8, value: -128}
      - {let: c, type: u16, value: -1}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "`300` does not fit in `u8`") {
		t.Errorf("300 in u8 should be rejected: %v", res.Diagnostics)
	}
	if !hasDiag(res, diagnostics.TypeMismatch, "`-1` does not fit in `u16`") {
		t.Errorf("-1 in u16 should be rejected: %v", res.Diagnostics)
	}
	if countKind(res, diagnostics.TypeMismatch) != 2 {
		t.Errorf("-128 fits in i8: %v", res.Diagnostics)
	}
}

func TestLiteralRangeWithNegationAndLargeValues(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    body:
      - {let: a, type: u64, value: 18446744073709551615}
      - {let: b, value: {op: "-", args: [128i8]}}
      - {let: c, type: i8, value: {op: "-", args: [128]}}
      - {let: d, type: i64, value: {op: "-", args: [9223372036854775808]}}
      - {let: e, type: i8, value: {op: "-", args: [129]}}
      - {let: f, value: 18446744073709551615}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "`-129` does not fit in `i8`") {
		t.Errorf("-129 in i8 should be rejected: %v", res.Diagnostics)
	}
	if !hasDiag(res, diagnostics.TypeMismatch, "`18446744073709551615` does not fit in `i32`") {
		t.Errorf("u64 max defaults to i32 and should be rejected: %v", res.Diagnostics)
	}
	if countKind(res, diagnostics.TypeMismatch) != 2 {
		t.Errorf("only the two out-of-range literals should be reported: %v", res.Diagnostics)
	}
}

func TestGenericInstantiation(t *testing.T) {
	res, fn := checkDoc(t, `
  - fn: id
    generics: [T]
    params: [{x: T}]
    returns: T
    value: x
  - fn: main
    body:
      - {let: a, value: {call: id, args: [5u8]}}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	call := letInit(fn, 0)
	args := res.Instantiations[call.ID()]
	if len(args) != 1 || args[0] != types.TypeUint8 {
		t.Errorf("instantiation = %v", args)
	}
	if res.TypeOf(call.ID()) != types.TypeUint8 {
		t.Errorf("call type = %s", res.TypeOf(call.ID()))
	}
	if res.Calls[call.ID()] == nil {
		t.Error("callee not recorded")
	}
}

func TestGenericBodyIsRigid(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: bad
    generics: [T]
    params: [{x: T}]
    returns: i32
    value: x
`, "bad")
	if !hasDiag(res, diagnostics.TypeMismatch, "expected `i32`, found `T`") {
		t.Errorf("a type parameter must not unify with i32: %v", res.Diagnostics)
	}
}

const pointAndSize = `
  - struct: Point
    fields: {x: i32, y: i32}
  - struct: Size
    fields: {x: i32, y: i32}
  - struct: Named
    fields: {name: String}
`

func TestImplicitStructLiteral(t *testing.T) {
	res, fn := checkDoc(t, pointAndSize+`
  - fn: main
    body:
      - {let: a, value: {fields: {x: 1, y: 2}}}
      - {let: b, type: Point, value: {fields: {x: 1, y: 2}}}
      - {let: c, value: {fields: {name: {str: n}}}}
      - {let: d, value: {fields: {z: 1}}}
`, "main")
	if !hasDiag(res, diagnostics.AmbiguousOverload, "Point, Size") {
		t.Errorf("expected an ambiguity between Point and Size: %v", res.Diagnostics)
	}
	if def := res.LiteralTargets[letInit(fn, 1).ID()]; def == nil || def.Name != "Point" {
		t.Errorf("annotated literal should target Point, got %v", def)
	}
	if def := res.LiteralTargets[letInit(fn, 2).ID()]; def == nil || def.Name != "Named" {
		t.Errorf("unique shape should target Named, got %v", def)
	}
	if !hasDiag(res, diagnostics.UndefinedName, "no struct has exactly the fields {z}") {
		t.Errorf("expected an undefined shape, got %v", res.Diagnostics)
	}
}

func TestStructLiteralFields(t *testing.T) {
	res, _ := checkDoc(t, pointAndSize+`
  - fn: main
    body:
      - {let: a, value: {struct: Point, fields: {x: 1}}}
      - {let: b, value: {struct: Point, fields: {x: 1, y: 2, z: 3}}}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "missing field `y`") {
		t.Errorf("expected missing field: %v", res.Diagnostics)
	}
	if !hasDiag(res, diagnostics.UndefinedName, "no field named `z`") {
		t.Errorf("expected unknown field: %v", res.Diagnostics)
	}
}

func TestMethodAutoRefAndDeref(t *testing.T) {
	res, fn := checkDoc(t, pointAndSize+`
  - method: shift
    on: Point
    receiver: "&mut self"
    params: [{dx: i32}]
    body:
      - {assign: {field: x, of: self}, value: {op: "+", args: [{field: x, of: self}, dx]}}
  - fn: main
    body:
      - {let: p, mut: true, value: {struct: Point, fields: {x: 1, y: 2}}}
      - {method: shift, on: p, args: [3]}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	mc := fn.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.MethodCall)
	if res.Coercions[mc.Receiver.ID()] != types.CoercionAutoRefMut {
		t.Errorf("receiver coercion = %s", res.Coercions[mc.Receiver.ID()])
	}
	if res.Methods[mc.ID()] == nil {
		t.Error("method not recorded")
	}

	res, fn = checkDoc(t, pointAndSize+`
  - method: shift
    on: Point
    receiver: "&mut self"
    body:
      - {assign: {field: x, of: self}, value: 0}
`, "Point.shift")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	field := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.Assign).Target.(*ast.Field)
	if res.Coercions[field.Object.ID()] != types.CoercionAutoDeref {
		t.Errorf("self should be auto-dereferenced, got %s", res.Coercions[field.Object.ID()])
	}
}

func TestMutMethodThroughSharedReference(t *testing.T) {
	res, _ := checkDoc(t, pointAndSize+`
  - method: reset
    on: Point
    receiver: "&mut self"
  - fn: f
    params: [{p: "&Point"}]
    body:
      - {method: reset, on: p}
`, "f")
	if !hasDiag(res, diagnostics.TypeMismatch, "as mutable") {
		t.Errorf("expected a mutability mismatch, got %v", res.Diagnostics)
	}
}

func TestCallAutoRef(t *testing.T) {
	res, fn := checkDoc(t, `
  - fn: main
    body:
      - {let: s, value: {str: a}}
      - {call: println, args: [s]}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	arg := fn.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.Call).Args[0]
	if res.Coercions[arg.ID()] != types.CoercionAutoRef {
		t.Errorf("argument coercion = %s", res.Coercions[arg.ID()])
	}
}

func TestCallAutoRefOfLiteralTypedBinding(t *testing.T) {
	tests := []struct {
		name  string
		value string
		param string
		want  string
	}{
		{"integer to &i32", "1", "&i32", "i32"},
		{"integer to &u8", "7", "&u8", "u8"},
		{"float to &f64", "2.5", "&f64", "f64"},
		{"float to &f32", "0.5", "&f32", "f32"},
		{"integer to builtin", "1", "", "i32"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callee, decl := "println", ""
			if tt.param != "" {
				callee = "show"
				decl = fmt.Sprintf("\n  - fn: show\n    params: [{v: %q}]", tt.param)
			}
			res, fn := checkDoc(t, decl+fmt.Sprintf(`
  - fn: main
    body:
      - {let: a, value: %s}
      - {call: %s, args: [a]}
`, tt.value, callee), "main")
			if !res.OK() {
				t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
			}
			arg := fn.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.Call).Args[0]
			if res.Coercions[arg.ID()] != types.CoercionAutoRef {
				t.Errorf("argument coercion = %s", res.Coercions[arg.ID()])
			}
			if got := res.TypeOf(letPattern(fn, 0).ID()).String(); got != tt.want {
				t.Errorf("binding type %s, want %s", got, tt.want)
			}
		})
	}
}

const countedLoop = `
      - for:
          init: {let: i, mut: true, value: 0}
          cond: {op: "<", args: [i, 3u8]}
          update: {assign: i, value: {op: "+", args: [i, 1]}}
        do:
          - {let: msg, value: {template: [{text: "i = "}, i]}}
          - {call: println, args: [msg]}
`

func TestForLoop(t *testing.T) {
	res, fn := checkDoc(t, `
  - fn: main
    body:`+countedLoop, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	loop := fn.Body.Stmts[0].(*ast.ForStmt)
	counter := loop.Init.(*ast.LetStmt)
	if got := res.TypeOf(counter.Pattern.ID()).String(); got != "u8" {
		t.Errorf("loop variable type %s, want u8", got)
	}
	msg := loop.Body.Stmts[0].(*ast.LetStmt)
	if got := res.TypeOf(msg.Init.ID()).String(); got != "String" {
		t.Errorf("template type %s, want String", got)
	}

	tests := []struct {
		name string
		body string
		kind diagnostics.Kind
		want string
	}{
		{"loop variable is scoped", countedLoop + `
      - {call: println, args: [i]}
`, diagnostics.UndefinedName, "`i`"},
		{"condition must be bool", `
      - for: {cond: 1}
        do: []
`, diagnostics.TypeMismatch, "bool"},
		{"interpolation is checked", `
      - {let: s, value: {template: [{text: "x"}, missing]}}
`, diagnostics.UndefinedName, "`missing`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := checkDoc(t, `
  - fn: main
    body:`+tt.body, "main")
			if !hasDiag(res, tt.kind, tt.want) {
				t.Errorf("expected %s mentioning %s, got %v", tt.kind, tt.want, res.Diagnostics)
			}
		})
	}
}

func TestNameAndArityErrors(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: two
    params: [{a: i32}, {b: i32}]
  - fn: main
    body:
      - {call: two, args: [1]}
      - {call: missing}
      - {let: y, value: ghost}
`, "main")
	if !hasDiag(res, diagnostics.ArityMismatch, "takes 2 argument(s) but 1 were supplied") {
		t.Errorf("expected an arity mismatch: %v", res.Diagnostics)
	}
	if !hasDiag(res, diagnostics.UndefinedName, "`missing`") || !hasDiag(res, diagnostics.UndefinedName, "`ghost`") {
		t.Errorf("expected undefined names: %v", res.Diagnostics)
	}
}

func TestMatchArmTypesAgree(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    params: [{b: bool}]
    body:
      - let: x
        value:
          match: b
          arms:
            - {pattern: true, body: 1}
            - {pattern: false, body: {str: no}}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "mismatched types") {
		t.Errorf("arm bodies of different types should mismatch: %v", res.Diagnostics)
	}
}

func TestPatternTyping(t *testing.T) {
	res, fn := checkDoc(t, pointAndSize+`
  - fn: main
    params: [{p: Point}, {t: "(bool, i64)"}, {xs: "[u8]"}]
    body:
      - {let: {record: Point, fields: {x: a}, rest: true}, value: p}
      - {let: {tuple: [flag, n]}, value: t}
      - let: first
        value:
          match: xs
          arms:
            - {pattern: {list: [h], rest: tail}, body: h}
            - {pattern: _, body: 0}
`, "main")
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	rec := letPattern(fn, 0).(*ast.RecordPattern)
	if res.TypeOf(rec.Fields[0].Pattern.ID()) != types.TypeInt32 {
		t.Errorf("a = %s", res.TypeOf(rec.Fields[0].Pattern.ID()))
	}
	tup := letPattern(fn, 1).(*ast.TuplePattern)
	if res.TypeOf(tup.Elems[1].ID()) != types.TypeInt64 {
		t.Errorf("n = %s", res.TypeOf(tup.Elems[1].ID()))
	}
	if res.TypeOf(letPattern(fn, 2).ID()) != types.TypeUint8 {
		t.Errorf("first = %s", res.TypeOf(letPattern(fn, 2).ID()))
	}

	res, _ = checkDoc(t, pointAndSize+`
  - fn: main
    params: [{p: Point}]
    body:
      - {let: {record: Point, fields: {x: a}}, value: p}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "does not mention field `y`") {
		t.Errorf("expected a missing field pattern: %v", res.Diagnostics)
	}
}

func TestOrPatternBindings(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: main
    params: [{t: "(i32, i32)"}]
    body:
      - let: r
        value:
          match: t
          arms:
            - {pattern: {or: [{tuple: [0, x]}, {tuple: [y, 0]}]}, body: 1}
            - {pattern: _, body: 0}
`, "main")
	if !hasDiag(res, diagnostics.TypeMismatch, "not bound in all alternatives") {
		t.Errorf("expected an or-pattern binding mismatch: %v", res.Diagnostics)
	}
}

func TestFunctionWithoutValue(t *testing.T) {
	res, _ := checkDoc(t, `
  - fn: f
    returns: i32
    body:
      - {let: a, value: 1}
`, "f")
	if !hasDiag(res, diagnostics.TypeMismatch, "produces no value") {
		t.Errorf("expected a missing value diagnostic: %v", res.Diagnostics)
	}
}
