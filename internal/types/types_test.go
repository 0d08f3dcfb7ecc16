package types

import (
	"math/big"
	"testing"

	"github.com/yunilang/yuni/internal/errors"
)

func optionDef() *EnumDef {
	return &EnumDef{
		Name:       "Option",
		TypeParams: []string{"T"},
		Variants: []*Variant{
			{Name: "Some", Index: 0, Payload: []*Type{NewGeneric("T")}},
			{Name: "None", Index: 1},
		},
	}
}

func TestTypeString(t *testing.T) {
	opt := optionDef()
	tests := []struct {
		typ  *Type
		want string
	}{
		{TypeInt32, "i32"},
		{TypeUnit, "()"},
		{NewReference(TypeString, false), "&String"},
		{NewReference(NewArray(TypeUint8), true), "&mut [u8]"},
		{NewTuple(TypeBool, TypeFloat64), "(bool, f64)"},
		{NewEnum(opt, TypeInt64), "Option<i64>"},
		{NewFunction([]*Type{TypeInt32}, nil), "fn(i32) -> ()"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCopy(t *testing.T) {
	point := &StructDef{Name: "Point", Fields: []Field{{Name: "x", Type: TypeInt32}}}
	tests := []struct {
		name string
		typ  *Type
		want bool
	}{
		{"int", TypeInt8, true},
		{"float", TypeFloat32, true},
		{"bool", TypeBool, true},
		{"unit", TypeUnit, true},
		{"string", TypeString, false},
		{"shared ref", NewReference(TypeString, false), true},
		{"mut ref", NewReference(TypeInt32, true), false},
		{"tuple of copy", NewTuple(TypeInt32, TypeBool), true},
		{"tuple with string", NewTuple(TypeInt32, TypeString), false},
		{"array of copy", NewArray(TypeUint8), true},
		{"struct", NewStruct(point), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsCopy(); got != tt.want {
				t.Errorf("IsCopy(%s) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestWidening(t *testing.T) {
	tests := []struct {
		from, to *Type
		want     bool
	}{
		{TypeInt8, TypeInt32, true},
		{TypeInt32, TypeInt64, true},
		{TypeInt64, TypeInt32, false},
		{TypeUint8, TypeUint16, true},
		{TypeUint8, TypeInt16, true},
		{TypeUint32, TypeInt32, false},
		{TypeInt8, TypeUint64, false},
		{TypeFloat32, TypeFloat64, true},
		{TypeFloat64, TypeFloat32, false},
		{TypeInt32, TypeFloat64, false},
		{TypeInt32, TypeInt32, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := CanWiden(tt.from, tt.to); got != tt.want {
				t.Errorf("CanWiden = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCasts(t *testing.T) {
	if !CanCast(TypeInt64, TypeUint8) || !CanCast(TypeFloat64, TypeInt32) || !CanCast(TypeBool, TypeInt32) {
		t.Error("numeric and bool-to-int casts should be legal")
	}
	if CanCast(TypeInt32, TypeBool) || CanCast(TypeString, TypeInt32) || CanCast(TypeFloat32, TypeBool) {
		t.Error("casts to bool or from String should be illegal")
	}
}

func TestIntBounds(t *testing.T) {
	n := big.NewInt
	if !FitsInt(TypeUint8, n(255)) || FitsInt(TypeUint8, n(256)) || FitsInt(TypeUint8, n(-1)) {
		t.Error("u8 bounds are wrong")
	}
	if !FitsInt(TypeInt8, n(-128)) || FitsInt(TypeInt8, n(128)) {
		t.Error("i8 bounds are wrong")
	}
	_, max, _ := IntBounds(TypeUint64)
	if max.String() != "18446744073709551615" {
		t.Errorf("u64 max = %s", max)
	}
}

func TestUnifyBindsVariables(t *testing.T) {
	e := NewEngine()
	v := e.Fresh(ClassGeneral)
	opt := optionDef()
	if err := e.Unify(NewEnum(opt, v), NewEnum(opt, TypeString)); err != nil {
		t.Fatalf("unify failed: %v", err)
	}
	if got := e.Resolve(v); got != TypeString {
		t.Errorf("resolved to %s", got)
	}
}

func TestUnifyMismatch(t *testing.T) {
	e := NewEngine()
	opt := optionDef()
	err := e.Unify(NewEnum(opt, TypeInt32), NewEnum(opt, TypeBool))
	mm, ok := err.(*MismatchError)
	if !ok {
		t.Fatalf("expected a mismatch, got %v", err)
	}
	if mm.Expected.String() != "Option<i32>" || mm.Found.String() != "Option<bool>" {
		t.Errorf("mismatch reports %s vs %s", mm.Expected, mm.Found)
	}
}

func TestLiteralClasses(t *testing.T) {
	e := NewEngine()
	i := e.Fresh(ClassInt)
	if err := e.Unify(TypeBool, i); err == nil {
		t.Error("an integer literal must not unify with bool")
	}
	f := e.Fresh(ClassFloat)
	if err := e.Unify(i, f); err == nil {
		t.Error("integer and float literals must not unify")
	}
	g := e.Fresh(ClassGeneral)
	if err := e.Unify(g, i); err != nil {
		t.Fatal(err)
	}
	e.Default()
	if e.Resolve(g) != TypeInt32 {
		t.Errorf("general var bound to an int literal defaults to %s", e.Resolve(g))
	}
	if e.Resolve(f) != TypeFloat64 {
		t.Errorf("float literal defaults to %s", e.Resolve(f))
	}
}

func TestOccursCheckIsInvariant(t *testing.T) {
	e := NewEngine()
	v := e.Fresh(ClassGeneral)
	err := e.Unify(v, NewArray(v))
	if !errors.IsInvariant(err) {
		t.Fatalf("expected an invariant error, got %v", err)
	}
}

func TestAssignWidening(t *testing.T) {
	e := NewEngine()
	c, err := e.Assign(TypeInt64, TypeInt32)
	if err != nil || c != CoercionWiden {
		t.Errorf("i32 into i64: coercion %s, err %v", c, err)
	}
	if _, err := e.Assign(TypeInt32, TypeInt64); err == nil {
		t.Error("i64 into i32 must be rejected")
	}
	lit := e.Fresh(ClassInt)
	c, err = e.Assign(TypeUint8, lit)
	if err != nil || c != CoercionNone || e.Resolve(lit) != TypeUint8 {
		t.Errorf("literal should take the context width: %s %v", e.Resolve(lit), err)
	}
}

func TestSubstitutionIdempotent(t *testing.T) {
	e := NewEngine()
	a, b := e.Fresh(ClassGeneral), e.Fresh(ClassGeneral)
	if err := e.Unify(a, NewTuple(b, TypeBool)); err != nil {
		t.Fatal(err)
	}
	if err := e.Unify(b, TypeString); err != nil {
		t.Fatal(err)
	}
	once := e.Resolve(a)
	twice := e.Substitution().Apply(once)
	if !Equal(once, twice) || once.String() != "(String, bool)" {
		t.Errorf("apply not idempotent: %s vs %s", once, twice)
	}
	if once.HasVars() {
		t.Error("resolved type still has variables")
	}
}

func TestInstantiateFields(t *testing.T) {
	pair := &StructDef{Name: "Pair", TypeParams: []string{"A", "B"}, Fields: []Field{
		{Name: "first", Type: NewGeneric("A")},
		{Name: "second", Type: NewReference(NewGeneric("B"), false)},
	}}
	st := NewStruct(pair, TypeInt32, TypeString).AsStruct()
	ft, ok := st.FieldType("second")
	if !ok || ft.String() != "&String" {
		t.Errorf("second = %v", ft)
	}
	if _, ok := st.FieldType("third"); ok {
		t.Error("unknown field resolved")
	}
}
