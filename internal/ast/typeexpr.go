package ast

import (
	"strings"

	"github.com/yunilang/yuni/internal/position"
)

// TypeExpr is written type syntax as it appears in annotations and
// signatures. The checker resolves it against the symbol table.
type TypeExpr interface {
	Node
	typeNode()
}

// NamedType is a primitive, a declared type, or a type parameter,
// optionally applied to arguments: `i32`, `Point`, `Option<T>`.
type NamedType struct {
	Name string
	Args []TypeExpr
	Span position.Span
}

func (t *NamedType) GetSpan() position.Span { return t.Span }
func (t *NamedType) typeNode()              {}
func (t *NamedType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "<" + joinTypes(t.Args) + ">"
}

// RefType is `&T` or `&mut T`
type RefType struct {
	Mutable bool
	Target  TypeExpr
	Span    position.Span
}

func (t *RefType) GetSpan() position.Span { return t.Span }
func (t *RefType) typeNode()              {}
func (t *RefType) String() string {
	if t.Mutable {
		return "&mut " + t.Target.String()
	}
	return "&" + t.Target.String()
}

// ArrayType is `[T]`
type ArrayType struct {
	Elem TypeExpr
	Span position.Span
}

func (t *ArrayType) GetSpan() position.Span { return t.Span }
func (t *ArrayType) typeNode()              {}
func (t *ArrayType) String() string         { return "[" + t.Elem.String() + "]" }

// TupleType is `(A, B)`; the empty tuple is unit
type TupleType struct {
	Elems []TypeExpr
	Span  position.Span
}

func (t *TupleType) GetSpan() position.Span { return t.Span }
func (t *TupleType) typeNode()              {}
func (t *TupleType) String() string         { return "(" + joinTypes(t.Elems) + ")" }

// FuncType is `fn(A, B) -> R`
type FuncType struct {
	Params []TypeExpr
	Return TypeExpr
	Span   position.Span
}

func (t *FuncType) GetSpan() position.Span { return t.Span }
func (t *FuncType) typeNode()              {}
func (t *FuncType) String() string {
	ret := "()"
	if t.Return != nil {
		ret = t.Return.String()
	}
	return "fn(" + joinTypes(t.Params) + ") -> " + ret
}

func joinTypes(ts []TypeExpr) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
