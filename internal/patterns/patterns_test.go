package patterns

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/astio"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/symbols"
	"github.com/yunilang/yuni/internal/typecheck"
	"github.com/yunilang/yuni/internal/types"
)

// ====== Helpers ======

func wild() ast.Pattern { return &ast.WildcardPattern{} }
func name(n string) ast.Pattern { return &ast.BindingPattern{Name: n} }
func intLit(v int64) ast.Pattern { return &ast.LiteralPattern{Kind: ast.LitInt, Int: v} }
func boolLit(b bool) ast.Pattern { return &ast.LiteralPattern{Kind: ast.LitBool, Bool: b} }
func strLit(s string) ast.Pattern { return &ast.LiteralPattern{Kind: ast.LitString, Str: s} }
func tuple(ps ...ast.Pattern) ast.Pattern { return &ast.TuplePattern{Elems: ps} }
func or(ps ...ast.Pattern) ast.Pattern { return &ast.OrPattern{Alts: ps} }

func inclusive(lo, hi int64) ast.Pattern {
	return &ast.RangePattern{Low: lo, High: hi, Inclusive: true}
}

func some(p ast.Pattern) ast.Pattern {
	return &ast.VariantPattern{Enum: "Option", Variant: "Some", Args: []ast.Pattern{p}}
}

func none() ast.Pattern {
	return &ast.VariantPattern{Enum: "Option", Variant: "None"}
}

func list(rest bool, ps ...ast.Pattern) ast.Pattern {
	return &ast.ListPattern{Prefix: ps, HasRest: rest}
}

func optionOf(t *types.Type) *types.Type {
	def := &types.EnumDef{Name: "Option", TypeParams: []string{"T"}, Variants: []*types.Variant{
		{Name: "Some", Index: 0, Payload: []*types.Type{types.NewGeneric("T")}},
		{Name: "None", Index: 1},
	}}
	return types.NewEnum(def, t)
}

func arms(ps ...ast.Pattern) []Arm {
	out := make([]Arm, len(ps))
	for i, p := range ps {
		out[i] = Arm{Pattern: p}
	}
	return out
}

func witnessStrings(m *Match) []string {
	out := make([]string, len(m.Witnesses))
	for i, w := range m.Witnesses {
		out[i] = w.String()
	}
	return out
}

// ====== Exhaustiveness ======

func TestWitnesses(t *testing.T) {
	pair := types.NewTuple(types.TypeBool, types.TypeBool)

	tests := []struct {
		name      string
		scrutinee *types.Type
		arms      []Arm
		opts      Options
		want      []string
	}{
		{"missing bool", types.TypeBool, arms(boolLit(true)), Options{}, []string{"false"}},
		{"both bools", types.TypeBool, arms(boolLit(true), boolLit(false)), Options{}, nil},
		{"wildcard", types.TypeBool, arms(boolLit(true), wild()), Options{}, nil},
		{"range gap", types.TypeInt32, arms(inclusive(0, 58), inclusive(60, 100)), Options{Domain: NewDomain(0, 100)}, []string{"59"}},
		{"ranges cover domain", types.TypeInt32, arms(inclusive(0, 59), inclusive(60, 100)), Options{Domain: NewDomain(0, 100)}, nil},
		{"exclusive range", types.TypeInt32, arms(&ast.RangePattern{Low: 0, High: 60}, inclusive(60, 100)), Options{Domain: NewDomain(0, 100)}, nil},
		{"u8 full", types.TypeUint8, arms(inclusive(0, 255)), Options{}, nil},
		{"u8 top missing", types.TypeUint8, arms(inclusive(0, 254)), Options{}, []string{"255"}},
		{"i8 bottom missing", types.TypeInt8, arms(inclusive(-127, 127)), Options{}, []string{"-128"}},
		{"u64 beyond int64", types.TypeUint64, arms(inclusive(0, 9223372036854775807)), Options{}, []string{"9223372036854775808"}},
		{"option none", optionOf(types.TypeInt32), arms(some(name("x"))), Options{}, []string{"Option::None"}},
		{"option some", optionOf(types.TypeInt32), arms(none()), Options{}, []string{"Option::Some(_)"}},
		{"option nested", optionOf(types.TypeBool), arms(some(boolLit(true)), none()), Options{}, []string{"Option::Some(false)"}},
		{"tuple", pair, arms(tuple(boolLit(false), wild())), Options{}, []string{"(true, _)"}},
		{"tuple second column", pair, arms(tuple(boolLit(false), wild()), tuple(boolLit(true), boolLit(true))), Options{}, []string{"(true, false)"}},
		{"list lengths", types.NewArray(types.TypeInt32), arms(list(false), list(false, name("x"))), Options{}, []string{"[_, _, ..]"}},
		{"list with rest", types.NewArray(types.TypeInt32), arms(list(false), list(true, name("x"))), Options{}, nil},
		{"strings", types.TypeString, arms(strLit("a"), strLit("b")), Options{}, []string{"_"}},
		{"no arms", types.TypeBool, nil, Options{}, []string{"_"}},
		{"or pattern", types.TypeBool, arms(or(boolLit(true), boolLit(false))), Options{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile(tt.scrutinee, tt.arms, tt.opts)
			got := witnessStrings(m)
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("witnesses = %v, want %v", got, tt.want)
			}
			if m.Exhaustive != (tt.want == nil) {
				t.Errorf("Exhaustive = %v with witnesses %v", m.Exhaustive, got)
			}
		})
	}
}

func TestRecordWitness(t *testing.T) {
	def := &types.StructDef{Name: "Flags", Fields: []types.Field{
		{Name: "a", Type: types.TypeBool},
		{Name: "b", Type: types.TypeBool},
	}}
	rec := &ast.RecordPattern{Name: "Flags", Fields: []ast.FieldPattern{{Name: "a", Pattern: boolLit(true)}}, Rest: true}
	m := Compile(types.NewStruct(def), arms(rec), Options{})
	if got := witnessStrings(m); !reflect.DeepEqual(got, []string{"Flags { a: false, .. }"}) {
		t.Errorf("witnesses = %v", got)
	}
}

func TestMissingVariantsAllReported(t *testing.T) {
	def := &types.EnumDef{Name: "Color", Variants: []*types.Variant{
		{Name: "Red", Index: 0},
		{Name: "Green", Index: 1},
		{Name: "Blue", Index: 2},
	}}
	green := &ast.VariantPattern{Enum: "Color", Variant: "Green"}
	m := Compile(types.NewEnum(def), arms(green), Options{})
	if got := witnessStrings(m); !reflect.DeepEqual(got, []string{"Color::Red", "Color::Blue"}) {
		t.Errorf("witnesses = %v", got)
	}
}

// ====== Guards And Reachability ======

func TestGuardNeverCoversUnconditionally(t *testing.T) {
	m := Compile(types.TypeBool, []Arm{{Pattern: name("b"), Guarded: true}}, Options{})
	if m.Exhaustive {
		t.Fatal("a guarded catch-all must not make the match exhaustive")
	}

	m = Compile(types.TypeBool, []Arm{
		{Pattern: boolLit(true), Guarded: true},
		{Pattern: boolLit(true)},
		{Pattern: boolLit(false)},
	}, Options{})
	if !m.Exhaustive {
		t.Fatalf("unexpected witnesses %v", witnessStrings(m))
	}
	var guarded *Leaf
	Inspect(m.Tree, func(n Tree) {
		if l, ok := n.(*Leaf); ok && l.Guarded {
			guarded = l
		}
	})
	if guarded == nil || guarded.Arm != 0 {
		t.Fatalf("expected a guarded leaf for arm 0")
	}
	if next, ok := guarded.Fallthrough.(*Leaf); !ok || next.Arm != 1 {
		t.Errorf("fallthrough = %#v, want a leaf for arm 1", guarded.Fallthrough)
	}
}

func TestUnreachableArms(t *testing.T) {
	opt := optionOf(types.TypeInt32)
	tests := []struct {
		name      string
		scrutinee *types.Type
		arms      []Arm
		want      []int
	}{
		{"after wildcard", types.TypeBool, arms(wild(), boolLit(true)), []int{1}},
		{"after guarded", types.TypeBool, []Arm{{Pattern: boolLit(true), Guarded: true}, {Pattern: boolLit(true)}}, nil},
		{"variant", opt, arms(some(wild()), none(), some(intLit(5))), []int{2}},
		{"range covers literal", types.TypeInt32, arms(inclusive(0, 10), intLit(5), wild()), []int{1}},
		{"range split", types.TypeInt32, arms(inclusive(0, 5), inclusive(6, 10), inclusive(0, 10), wild()), []int{2}},
		{"partial overlap", types.TypeInt32, arms(inclusive(0, 5), inclusive(3, 10), wild()), nil},
		{"or covers", types.TypeBool, arms(or(boolLit(true), boolLit(false)), wild()), []int{1}},
		{"duplicate string", types.TypeString, arms(strLit("a"), strLit("a"), wild()), []int{1}},
		{"list rest", types.NewArray(types.TypeInt32), arms(list(true), list(false, wild())), []int{1}},
		{"nested guard", opt, arms(some(&ast.GuardPattern{Inner: name("x"), Cond: &ast.BoolLit{Value: true}}), some(wild()), none()), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile(tt.scrutinee, tt.arms, Options{})
			if !reflect.DeepEqual(m.Unreachable, tt.want) {
				t.Errorf("unreachable = %v, want %v", m.Unreachable, tt.want)
			}
			// an arm is reachable exactly when some leaf selects it
			leaves := Arms(m.Tree)
			for i := range tt.arms {
				unreachable := false
				for _, u := range m.Unreachable {
					unreachable = unreachable || u == i
				}
				if leaves[i] == unreachable {
					t.Errorf("arm %d: in tree = %v, unreachable = %v", i, leaves[i], unreachable)
				}
			}
		})
	}
}

// ====== Bindings ======

func TestBindingPaths(t *testing.T) {
	scrutinee := types.NewReference(optionOf(types.NewTuple(types.TypeInt32, types.TypeBool)), false)
	m := Compile(scrutinee, arms(some(tuple(name("n"), name("flag"))), name("other")), Options{})
	if !m.Exhaustive {
		t.Fatalf("unexpected witnesses %v", witnessStrings(m))
	}

	got := make(map[string]string)
	Inspect(m.Tree, func(n Tree) {
		if l, ok := n.(*Leaf); ok {
			for _, b := range l.Bindings {
				got[b.Name] = b.Path.String()
			}
		}
	})
	want := map[string]string{
		"n":     "$.*.(Some).0.0",
		"flag":  "$.*.(Some).0.1",
		"other": "$",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bindings = %v, want %v", got, want)
	}

	arm, binds, ok := Walk(m.Tree, VariantValue("Some", TupleValue(IntValue(7), BoolValue(true))), nil)
	if !ok || arm != 0 {
		t.Fatalf("Walk = %d, %v", arm, ok)
	}
	if binds["n"].String() != "7" || binds["flag"].String() != "true" {
		t.Errorf("bindings = %v", binds)
	}
}

func TestListRestBinding(t *testing.T) {
	p := &ast.ListPattern{Prefix: []ast.Pattern{name("head")}, HasRest: true, Rest: &ast.BindingPattern{Name: "tail"}}
	m := Compile(types.NewArray(types.TypeInt32), arms(p, wild()), Options{})
	arm, binds, ok := Walk(m.Tree, ArrayValue(IntValue(1), IntValue(2), IntValue(3)), nil)
	if !ok || arm != 0 {
		t.Fatalf("Walk = %d, %v", arm, ok)
	}
	if binds["head"].String() != "1" || binds["tail"].String() != "[2, 3]" {
		t.Errorf("bindings = %v", binds)
	}
	if arm, _, _ := Walk(m.Tree, ArrayValue(), nil); arm != 1 {
		t.Errorf("empty list selected arm %d", arm)
	}
}

// ====== Reference Semantics ======

func TestDecisionTreeAgreesWithSequentialSemantics(t *testing.T) {
	even := func(arm int, binds map[string]Value) bool {
		x, ok := binds["x"]
		return ok && x.Kind == ValueInt && x.Int.Bit(0) == 0
	}

	var boolOptions []Value
	for _, b := range []bool{false, true} {
		boolOptions = append(boolOptions, TupleValue(BoolValue(b), VariantValue("None")))
		for _, n := range []int64{0, 3, 4, 9, 10, 200, 255} {
			boolOptions = append(boolOptions, TupleValue(BoolValue(b), VariantValue("Some", IntValue(n))))
		}
	}

	var lists []Value
	var grow func(prefix []Value, depth int)
	grow = func(prefix []Value, depth int) {
		lists = append(lists, ArrayValue(append([]Value(nil), prefix...)...))
		if depth == 0 {
			return
		}
		for _, n := range []int64{0, 1} {
			grow(append(prefix, IntValue(n)), depth-1)
		}
	}
	grow(nil, 4)

	var bytes []Value
	for n := int64(-128); n <= 127; n++ {
		bytes = append(bytes, IntValue(n))
	}

	tests := []struct {
		name      string
		scrutinee *types.Type
		arms      []Arm
		values    []Value
	}{
		{
			name:      "tuple of bool and option",
			scrutinee: types.NewTuple(types.TypeBool, optionOf(types.TypeUint8)),
			arms: []Arm{
				{Pattern: tuple(boolLit(true), some(name("x"))), Guarded: true},
				{Pattern: tuple(wild(), some(or(inclusive(0, 3), intLit(200))))},
				{Pattern: tuple(boolLit(false), some(inclusive(4, 100)))},
				{Pattern: tuple(wild(), none())},
			},
			values: boolOptions,
		},
		{
			name:      "lists",
			scrutinee: types.NewArray(types.TypeInt32),
			arms: []Arm{
				{Pattern: list(false)},
				{Pattern: list(true, intLit(0), intLit(1))},
				{Pattern: list(false, name("x")), Guarded: true},
				{Pattern: list(true, wild(), intLit(0))},
				{Pattern: list(false, wild(), wild(), wild())},
			},
			values: lists,
		},
		{
			name:      "i8 ranges",
			scrutinee: types.TypeInt8,
			arms: []Arm{
				{Pattern: inclusive(-10, 10)},
				{Pattern: name("x"), Guarded: true},
				{Pattern: &ast.RangePattern{Low: -128, High: 0}},
				{Pattern: or(intLit(11), intLit(13), inclusive(100, 120))},
			},
			values: bytes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile(tt.scrutinee, tt.arms, Options{})
			for _, v := range tt.values {
				treeArm, _, treeOK := Walk(m.Tree, v, even)
				seqArm, _, seqOK := SelectSequential(tt.arms, v, even)
				if treeOK != seqOK || treeArm != seqArm {
					t.Errorf("%s: tree selects %d (%v), sequential selects %d (%v)", v, treeArm, treeOK, seqArm, seqOK)
				}
				if m.Exhaustive && !treeOK {
					t.Errorf("%s: exhaustive match has no arm", v)
				}
			}
		})
	}
}

// ====== Function Check ======

func checkFunction(t *testing.T, doc string) *Result {
	t.Helper()
	prog, err := astio.Decode([]byte("language: \"0.1.0\"\nitems:\n"+doc), "test.yaml", astio.Options{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	table, ds := symbols.Collect(prog)
	if len(ds) != 0 {
		t.Fatalf("collection diagnostics: %v", ds)
	}
	fn := prog.Functions()[len(prog.Functions())-1]
	tres, err := typecheck.Check(table, fn)
	if err != nil {
		t.Fatalf("invariant error: %v", err)
	}
	if !tres.OK() {
		t.Fatalf("%s does not type-check: %v", fn.QualifiedName(), tres.Diagnostics)
	}
	return Check(fn, tres, Options{Verbose: true})
}

func TestCheckReportsMatchDiagnostics(t *testing.T) {
	res := checkFunction(t, `
  - fn: main
    params: [{b: bool}]
    body:
      - let: r
        value:
          match: b
          arms:
            - {pattern: true, body: 1}
            - {pattern: true, body: 2}
`)
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected two diagnostics, got %v", res.Diagnostics)
	}
	nonEx, unreachable := res.Diagnostics[0], res.Diagnostics[1]
	if nonEx.Kind != diagnostics.NonExhaustiveMatch || !strings.Contains(nonEx.Message, "`false` not covered") {
		t.Errorf("unexpected %s", nonEx)
	}
	if nonEx.Detail == "" || nonEx.Function != "main" {
		t.Errorf("verbose detail or function missing: %+v", nonEx)
	}
	if unreachable.Kind != diagnostics.UnreachableArm || !strings.Contains(unreachable.Message, "arm 2") {
		t.Errorf("unexpected %s", unreachable)
	}
}

func TestCheckRefutableLet(t *testing.T) {
	res := checkFunction(t, `
  - enum: Option
    generics: [T]
    variants: {Some: [T], None: []}
  - fn: main
    params: [{o: "Option<i32>"}]
    body:
      - {let: {variant: "Option::Some", args: [x]}, value: o}
`)
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %v", res.Diagnostics)
	}
	if d := res.Diagnostics[0]; !strings.Contains(d.Message, "refutable pattern in local binding: `Option::None` not covered") {
		t.Errorf("unexpected %s", d)
	}
}

func TestListWitnesses(t *testing.T) {
	ps := []ast.Pattern{none(), boolLit(true), intLit(3), wild(), intLit(4)}
	tests := []struct {
		n    int
		want string
	}{
		{1, "`Option::None`"},
		{2, "`Option::None` and `true`"},
		{3, "`Option::None`, `true` and `3`"},
		{5, "`Option::None`, `true` and 3 more"},
	}
	for _, tt := range tests {
		if got := listWitnesses(ps[:tt.n]); got != tt.want {
			t.Errorf("listWitnesses(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
