// Type representation for the Yuni semantic core.
// Types are a closed set of kinds; compound kinds carry their payload in Data.

package types

import (
	"fmt"
	"strings"
)

// ====== Core Type System ======

// TypeKind represents the kind of a type
type TypeKind int

const (
	// Primitive types
	TypeKindUnit TypeKind = iota
	TypeKindBool
	TypeKindInt8
	TypeKindInt16
	TypeKindInt32
	TypeKindInt64
	TypeKindUint8
	TypeKindUint16
	TypeKindUint32
	TypeKindUint64
	TypeKindFloat32
	TypeKindFloat64
	TypeKindString

	// Compound types
	TypeKindStruct
	TypeKindEnum
	TypeKindTuple
	TypeKindArray
	TypeKindReference
	TypeKindGeneric
	TypeKindFunction

	// Inference only
	TypeKindVar

	// Stands in for the type of an erroneous expression; unifies with anything
	TypeKindInvalid
)

// String returns the string representation of a TypeKind
func (tk TypeKind) String() string {
	switch tk {
	case TypeKindUnit:
		return "()"
	case TypeKindBool:
		return "bool"
	case TypeKindInt8:
		return "i8"
	case TypeKindInt16:
		return "i16"
	case TypeKindInt32:
		return "i32"
	case TypeKindInt64:
		return "i64"
	case TypeKindUint8:
		return "u8"
	case TypeKindUint16:
		return "u16"
	case TypeKindUint32:
		return "u32"
	case TypeKindUint64:
		return "u64"
	case TypeKindFloat32:
		return "f32"
	case TypeKindFloat64:
		return "f64"
	case TypeKindString:
		return "String"
	case TypeKindStruct:
		return "struct"
	case TypeKindEnum:
		return "enum"
	case TypeKindTuple:
		return "tuple"
	case TypeKindArray:
		return "array"
	case TypeKindReference:
		return "reference"
	case TypeKindGeneric:
		return "generic"
	case TypeKindFunction:
		return "function"
	case TypeKindVar:
		return "typevar"
	case TypeKindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Type is a Yuni type. Primitive types have nil Data.
type Type struct {
	Kind TypeKind
	Data interface{}
}

// ====== Compound Types ======

// Field is a named member of a struct or struct-like variant
type Field struct {
	Name string
	Type *Type
}

// StructDef is the declaration-level description of a struct. Field types
// refer to type parameters through Generic types.
type StructDef struct {
	Name       string
	TypeParams []string
	Fields     []Field
}

// Field looks a field up by name
func (d *StructDef) Field(name string) (Field, int, bool) {
	for i, f := range d.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Variant is one alternative of an enum
type Variant struct {
	Name  string
	Index int
	// Payload holds tuple-like payload types; Fields holds struct-like ones
	Payload []*Type
	Fields  []Field
}

// Arity is the number of payload slots
func (v *Variant) Arity() int {
	if len(v.Fields) > 0 {
		return len(v.Fields)
	}
	return len(v.Payload)
}

// IsStructLike reports whether the payload is addressed by field name
func (v *Variant) IsStructLike() bool { return len(v.Fields) > 0 }

// SlotTypes returns the payload slot types in declaration order
func (v *Variant) SlotTypes() []*Type {
	if len(v.Fields) == 0 {
		return v.Payload
	}
	out := make([]*Type, len(v.Fields))
	for i, f := range v.Fields {
		out[i] = f.Type
	}
	return out
}

// EnumDef is the declaration-level description of an enum
type EnumDef struct {
	Name       string
	TypeParams []string
	Variants   []*Variant
}

// Variant looks a variant up by name
func (d *EnumDef) Variant(name string) (*Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// StructType is a struct applied to type arguments
type StructType struct {
	Def  *StructDef
	Args []*Type
}

// EnumType is an enum applied to type arguments
type EnumType struct {
	Def  *EnumDef
	Args []*Type
}

// TupleType is an ordered product; zero elements is never used, unit has its own kind
type TupleType struct {
	Elements []*Type
}

// ArrayType is a homogeneous sequence of statically unknown length
type ArrayType struct {
	Element *Type
}

// ReferenceType is &T or &mut T
type ReferenceType struct {
	Target  *Type
	Mutable bool
}

// GenericType is a rigid type parameter inside a generic body
type GenericType struct {
	Name string
}

// FunctionType is a function signature
type FunctionType struct {
	Params []*Type
	Return *Type
}

// LiteralClass records what kind of literal a type variable stands for
type LiteralClass int

const (
	ClassGeneral LiteralClass = iota
	ClassInt
	ClassFloat
)

func (c LiteralClass) String() string {
	switch c {
	case ClassInt:
		return "integer"
	case ClassFloat:
		return "float"
	default:
		return "general"
	}
}

// TypeVar is an inference placeholder
type TypeVar struct {
	ID    int
	Class LiteralClass
}

// ====== Constructors ======

var (
	TypeUnit    = &Type{Kind: TypeKindUnit}
	TypeBool    = &Type{Kind: TypeKindBool}
	TypeInt8    = &Type{Kind: TypeKindInt8}
	TypeInt16   = &Type{Kind: TypeKindInt16}
	TypeInt32   = &Type{Kind: TypeKindInt32}
	TypeInt64   = &Type{Kind: TypeKindInt64}
	TypeUint8   = &Type{Kind: TypeKindUint8}
	TypeUint16  = &Type{Kind: TypeKindUint16}
	TypeUint32  = &Type{Kind: TypeKindUint32}
	TypeUint64  = &Type{Kind: TypeKindUint64}
	TypeFloat32 = &Type{Kind: TypeKindFloat32}
	TypeFloat64 = &Type{Kind: TypeKindFloat64}
	TypeString  = &Type{Kind: TypeKindString}
	TypeInvalid = &Type{Kind: TypeKindInvalid}
)

var primitivesByName = map[string]*Type{
	"()": TypeUnit, "bool": TypeBool,
	"i8": TypeInt8, "i16": TypeInt16, "i32": TypeInt32, "i64": TypeInt64,
	"u8": TypeUint8, "u16": TypeUint16, "u32": TypeUint32, "u64": TypeUint64,
	"f32": TypeFloat32, "f64": TypeFloat64,
	"String": TypeString,
}

// Primitive returns the primitive type spelled name
func Primitive(name string) (*Type, bool) {
	t, ok := primitivesByName[name]
	return t, ok
}

// NewStruct applies a struct declaration to type arguments
func NewStruct(def *StructDef, args ...*Type) *Type {
	return &Type{Kind: TypeKindStruct, Data: &StructType{Def: def, Args: args}}
}

// NewEnum applies an enum declaration to type arguments
func NewEnum(def *EnumDef, args ...*Type) *Type {
	return &Type{Kind: TypeKindEnum, Data: &EnumType{Def: def, Args: args}}
}

// NewTuple creates a tuple type; an empty element list yields unit
func NewTuple(elems ...*Type) *Type {
	if len(elems) == 0 {
		return TypeUnit
	}
	return &Type{Kind: TypeKindTuple, Data: &TupleType{Elements: elems}}
}

// NewArray creates [elem]
func NewArray(elem *Type) *Type {
	return &Type{Kind: TypeKindArray, Data: &ArrayType{Element: elem}}
}

// NewReference creates &target or &mut target
func NewReference(target *Type, mutable bool) *Type {
	return &Type{Kind: TypeKindReference, Data: &ReferenceType{Target: target, Mutable: mutable}}
}

// NewGeneric creates a rigid type parameter
func NewGeneric(name string) *Type {
	return &Type{Kind: TypeKindGeneric, Data: &GenericType{Name: name}}
}

// NewFunction creates fn(params) -> ret
func NewFunction(params []*Type, ret *Type) *Type {
	if ret == nil {
		ret = TypeUnit
	}
	return &Type{Kind: TypeKindFunction, Data: &FunctionType{Params: params, Return: ret}}
}

// ====== Accessors ======

// AsStruct and friends return the payload of t, or nil for another kind
func (t *Type) AsStruct() *StructType {
	s, _ := t.Data.(*StructType)
	return s
}

func (t *Type) AsEnum() *EnumType {
	e, _ := t.Data.(*EnumType)
	return e
}

func (t *Type) AsTuple() *TupleType {
	tt, _ := t.Data.(*TupleType)
	return tt
}

func (t *Type) AsArray() *ArrayType {
	a, _ := t.Data.(*ArrayType)
	return a
}

func (t *Type) AsReference() *ReferenceType {
	r, _ := t.Data.(*ReferenceType)
	return r
}

func (t *Type) AsGeneric() *GenericType {
	g, _ := t.Data.(*GenericType)
	return g
}

func (t *Type) AsFunction() *FunctionType {
	f, _ := t.Data.(*FunctionType)
	return f
}

func (t *Type) AsVar() *TypeVar {
	v, _ := t.Data.(*TypeVar)
	return v
}

// FieldType returns the instantiated type of a struct field
func (st *StructType) FieldType(name string) (*Type, bool) {
	f, _, ok := st.Def.Field(name)
	if !ok {
		return nil, false
	}
	return Instantiate(f.Type, st.Def.TypeParams, st.Args), true
}

// Fields returns every field with its instantiated type, in declaration order
func (st *StructType) Fields() []Field {
	out := make([]Field, len(st.Def.Fields))
	for i, f := range st.Def.Fields {
		out[i] = Field{Name: f.Name, Type: Instantiate(f.Type, st.Def.TypeParams, st.Args)}
	}
	return out
}

// SlotTypes returns the instantiated payload slot types of variant v
func (et *EnumType) SlotTypes(v *Variant) []*Type {
	slots := v.SlotTypes()
	out := make([]*Type, len(slots))
	for i, s := range slots {
		out[i] = Instantiate(s, et.Def.TypeParams, et.Args)
	}
	return out
}

// ====== Predicates ======

// IsInteger reports whether t is a signed or unsigned integer primitive
func (t *Type) IsInteger() bool {
	return t.Kind >= TypeKindInt8 && t.Kind <= TypeKindUint64
}

// IsSigned reports whether t is a signed integer primitive
func (t *Type) IsSigned() bool {
	return t.Kind >= TypeKindInt8 && t.Kind <= TypeKindInt64
}

// IsFloat reports whether t is f32 or f64
func (t *Type) IsFloat() bool {
	return t.Kind == TypeKindFloat32 || t.Kind == TypeKindFloat64
}

// IsNumeric reports whether t is an integer or float primitive
func (t *Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// IsPrimitive reports whether t has no payload
func (t *Type) IsPrimitive() bool { return t.Kind <= TypeKindString }

// IsCopy reports whether values of t are duplicated rather than moved.
// Numeric primitives, bool, unit, shared references, and tuples and arrays
// of copy types are copy; everything else moves.
func (t *Type) IsCopy() bool {
	switch t.Kind {
	case TypeKindUnit, TypeKindBool, TypeKindInvalid:
		return true
	case TypeKindReference:
		return !t.AsReference().Mutable
	case TypeKindTuple:
		for _, e := range t.AsTuple().Elements {
			if !e.IsCopy() {
				return false
			}
		}
		return true
	case TypeKindArray:
		return t.AsArray().Element.IsCopy()
	default:
		return t.IsNumeric()
	}
}

// ContainsReference reports whether a value of type t can carry a
// reference, looking through struct fields and enum payloads
func (t *Type) ContainsReference() bool {
	return containsReference(t, make(map[string]bool))
}

func containsReference(t *Type, seen map[string]bool) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeKindReference:
		return true
	case TypeKindTuple:
		for _, e := range t.AsTuple().Elements {
			if containsReference(e, seen) {
				return true
			}
		}
	case TypeKindArray:
		return containsReference(t.AsArray().Element, seen)
	case TypeKindStruct:
		st := t.AsStruct()
		if seen[st.Def.Name] {
			return false
		}
		seen[st.Def.Name] = true
		for _, f := range st.Fields() {
			if containsReference(f.Type, seen) {
				return true
			}
		}
	case TypeKindEnum:
		et := t.AsEnum()
		if seen[et.Def.Name] {
			return false
		}
		seen[et.Def.Name] = true
		for _, v := range et.Def.Variants {
			for _, s := range et.SlotTypes(v) {
				if containsReference(s, seen) {
					return true
				}
			}
		}
	}
	return false
}

// HasVars reports whether any type variable occurs in t
func (t *Type) HasVars() bool {
	found := false
	Walk(t, func(x *Type) {
		if x.Kind == TypeKindVar {
			found = true
		}
	})
	return found
}

// Walk calls f for t and every type nested in it
func Walk(t *Type, f func(*Type)) {
	if t == nil {
		return
	}
	f(t)
	switch t.Kind {
	case TypeKindStruct:
		for _, a := range t.AsStruct().Args {
			Walk(a, f)
		}
	case TypeKindEnum:
		for _, a := range t.AsEnum().Args {
			Walk(a, f)
		}
	case TypeKindTuple:
		for _, e := range t.AsTuple().Elements {
			Walk(e, f)
		}
	case TypeKindArray:
		Walk(t.AsArray().Element, f)
	case TypeKindReference:
		Walk(t.AsReference().Target, f)
	case TypeKindFunction:
		fn := t.AsFunction()
		for _, p := range fn.Params {
			Walk(p, f)
		}
		Walk(fn.Return, f)
	}
}

// Equal compares two types structurally. Variables are equal only to
// themselves; callers should resolve first.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypeKindStruct:
		sa, sb := a.AsStruct(), b.AsStruct()
		return sa.Def == sb.Def && equalLists(sa.Args, sb.Args)
	case TypeKindEnum:
		ea, eb := a.AsEnum(), b.AsEnum()
		return ea.Def == eb.Def && equalLists(ea.Args, eb.Args)
	case TypeKindTuple:
		return equalLists(a.AsTuple().Elements, b.AsTuple().Elements)
	case TypeKindArray:
		return Equal(a.AsArray().Element, b.AsArray().Element)
	case TypeKindReference:
		ra, rb := a.AsReference(), b.AsReference()
		return ra.Mutable == rb.Mutable && Equal(ra.Target, rb.Target)
	case TypeKindGeneric:
		return a.AsGeneric().Name == b.AsGeneric().Name
	case TypeKindFunction:
		fa, fb := a.AsFunction(), b.AsFunction()
		return equalLists(fa.Params, fb.Params) && Equal(fa.Return, fb.Return)
	case TypeKindVar:
		return a.AsVar().ID == b.AsVar().ID
	default:
		return true
	}
}

func equalLists(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Instantiate replaces the generic parameters named in params by args.
// Types without generics are returned unchanged.
func Instantiate(t *Type, params []string, args []*Type) *Type {
	if len(params) == 0 || t == nil {
		return t
	}
	m := make(map[string]*Type, len(params))
	for i, p := range params {
		if i < len(args) && args[i] != nil {
			m[p] = args[i]
		}
	}
	return substituteGenerics(t, m)
}

func substituteGenerics(t *Type, m map[string]*Type) *Type {
	switch t.Kind {
	case TypeKindGeneric:
		if r, ok := m[t.AsGeneric().Name]; ok {
			return r
		}
		return t
	case TypeKindStruct:
		st := t.AsStruct()
		return NewStruct(st.Def, substituteAll(st.Args, m)...)
	case TypeKindEnum:
		et := t.AsEnum()
		return NewEnum(et.Def, substituteAll(et.Args, m)...)
	case TypeKindTuple:
		return NewTuple(substituteAll(t.AsTuple().Elements, m)...)
	case TypeKindArray:
		return NewArray(substituteGenerics(t.AsArray().Element, m))
	case TypeKindReference:
		r := t.AsReference()
		return NewReference(substituteGenerics(r.Target, m), r.Mutable)
	case TypeKindFunction:
		f := t.AsFunction()
		return NewFunction(substituteAll(f.Params, m), substituteGenerics(f.Return, m))
	default:
		return t
	}
}

func substituteAll(ts []*Type, m map[string]*Type) []*Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = substituteGenerics(t, m)
	}
	return out
}

// ====== String ======

// String returns the source spelling of t
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeKindStruct:
		st := t.AsStruct()
		return st.Def.Name + typeArgs(st.Args)
	case TypeKindEnum:
		et := t.AsEnum()
		return et.Def.Name + typeArgs(et.Args)
	case TypeKindTuple:
		return "(" + joinTypes(t.AsTuple().Elements) + ")"
	case TypeKindArray:
		return "[" + t.AsArray().Element.String() + "]"
	case TypeKindReference:
		r := t.AsReference()
		if r.Mutable {
			return "&mut " + r.Target.String()
		}
		return "&" + r.Target.String()
	case TypeKindGeneric:
		return t.AsGeneric().Name
	case TypeKindFunction:
		f := t.AsFunction()
		return fmt.Sprintf("fn(%s) -> %s", joinTypes(f.Params), f.Return)
	case TypeKindVar:
		v := t.AsVar()
		switch v.Class {
		case ClassInt:
			return "{integer}"
		case ClassFloat:
			return "{float}"
		default:
			return fmt.Sprintf("?%d", v.ID)
		}
	case TypeKindInvalid:
		return "{error}"
	default:
		return t.Kind.String()
	}
}

func typeArgs(args []*Type) string {
	if len(args) == 0 {
		return ""
	}
	return "<" + joinTypes(args) + ">"
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// MarshalText renders the type in source spelling so annotation tables
// serialize readably.
func (t *Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
