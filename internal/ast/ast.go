// Package ast defines the parsed syntax tree handed to the semantic core.
// Expression, statement, pattern and type-syntax nodes are closed variant
// sets: each interface carries an unexported marker method so no node kind
// can be added outside this package.
package ast

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/yunilang/yuni/internal/position"
)

// NodeID identifies an expression or pattern node within a program.
// IDs are assigned by Number and are unique across the whole program.
type NodeID int

// Node is implemented by every syntax node
type Node interface {
	GetSpan() position.Span
	String() string
}

// Expr is an expression node
type Expr interface {
	Node
	ID() NodeID
	SetSpan(position.Span)
	setID(NodeID)
	exprNode()
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Item is a top-level declaration
type Item interface {
	Node
	itemNode()
}

// exprBase carries the fields every expression shares
type exprBase struct {
	NodeID NodeID
	Span   position.Span
}

func (b *exprBase) ID() NodeID               { return b.NodeID }
func (b *exprBase) setID(id NodeID)          { b.NodeID = id }
func (b *exprBase) GetSpan() position.Span   { return b.Span }
func (b *exprBase) exprNode()                {}
func (b *exprBase) SetSpan(s position.Span)  { b.Span = s }

// ====== Program ======

// Program is a whole compilation unit
type Program struct {
	// Language is the language version the document was produced for
	Language string
	File     string
	Items    []Item
}

func (p *Program) GetSpan() position.Span { return position.At(p.File, 1, 1) }
func (p *Program) String() string {
	parts := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, "\n")
}

// Functions returns every function and method declaration in source order
func (p *Program) Functions() []*FuncDecl {
	var out []*FuncDecl
	for _, it := range p.Items {
		if fn, ok := it.(*FuncDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

// ====== Declarations ======

// FieldDecl is a named, typed field of a struct or struct-like variant
type FieldDecl struct {
	Name string
	Type TypeExpr
	Span position.Span
}

// StructDecl declares a nominal struct type
type StructDecl struct {
	Name       string
	TypeParams []string
	Fields     []FieldDecl
	Span       position.Span
}

func (d *StructDecl) GetSpan() position.Span { return d.Span }
func (d *StructDecl) itemNode()              {}
func (d *StructDecl) String() string {
	fields := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = f.Name + ": " + f.Type.String()
	}
	return fmt.Sprintf("struct %s%s { %s }", d.Name, typeParamList(d.TypeParams), strings.Join(fields, ", "))
}

// VariantDecl declares one enum variant. A variant has either a tuple-like
// payload, a struct-like payload, or neither (unit).
type VariantDecl struct {
	Name    string
	Payload []TypeExpr
	Fields  []FieldDecl
	Span    position.Span
}

// EnumDecl declares a nominal enum type
type EnumDecl struct {
	Name       string
	TypeParams []string
	Variants   []VariantDecl
	Span       position.Span
}

func (d *EnumDecl) GetSpan() position.Span { return d.Span }
func (d *EnumDecl) itemNode()              {}
func (d *EnumDecl) String() string {
	names := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		names[i] = v.Name
	}
	return fmt.Sprintf("enum %s%s { %s }", d.Name, typeParamList(d.TypeParams), strings.Join(names, ", "))
}

// Param is a function parameter
type Param struct {
	Name    string
	Type    TypeExpr
	Mutable bool
	Span    position.Span
}

// ReceiverKind says how a method takes its receiver
type ReceiverKind int

const (
	ReceiverValue  ReceiverKind = iota // self
	ReceiverRef                        // &self
	ReceiverMutRef                     // &mut self
)

func (rk ReceiverKind) String() string {
	switch rk {
	case ReceiverValue:
		return "self"
	case ReceiverRef:
		return "&self"
	case ReceiverMutRef:
		return "&mut self"
	default:
		return "unknown"
	}
}

// Receiver marks a function as a method of TypeName
type Receiver struct {
	TypeName string
	Kind     ReceiverKind
	Span     position.Span
}

// LivesClause declares which parameters a returned reference may borrow from
type LivesClause struct {
	Sources []string
	Span    position.Span
}

// FuncDecl declares a function, or a method when Receiver is set
type FuncDecl struct {
	Name       string
	TypeParams []string
	Receiver   *Receiver
	Params     []Param
	Return     TypeExpr // nil means unit
	Lives      *LivesClause
	Body       *Block
	Span       position.Span
}

func (d *FuncDecl) GetSpan() position.Span { return d.Span }
func (d *FuncDecl) itemNode()              {}

// QualifiedName returns "Type.method" for methods and the plain name otherwise
func (d *FuncDecl) QualifiedName() string {
	if d.Receiver != nil {
		return d.Receiver.TypeName + "." + d.Name
	}
	return d.Name
}

func (d *FuncDecl) String() string {
	params := make([]string, 0, len(d.Params)+1)
	if d.Receiver != nil {
		params = append(params, d.Receiver.Kind.String())
	}
	for _, p := range d.Params {
		params = append(params, p.Name+": "+p.Type.String())
	}
	ret := ""
	if d.Return != nil {
		ret = " -> " + d.Return.String()
	}
	return fmt.Sprintf("fn %s%s(%s)%s", d.QualifiedName(), typeParamList(d.TypeParams), strings.Join(params, ", "), ret)
}

func typeParamList(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(params, ", ") + ">"
}

// ====== Statements ======

// LetStmt introduces bindings through an irrefutable pattern
type LetStmt struct {
	Pattern Pattern
	Type    TypeExpr // optional annotation
	Init    Expr     // optional initializer
	Span    position.Span
}

func (s *LetStmt) GetSpan() position.Span { return s.Span }
func (s *LetStmt) stmtNode()              {}
func (s *LetStmt) String() string {
	out := "let " + s.Pattern.String()
	if s.Type != nil {
		out += ": " + s.Type.String()
	}
	if s.Init != nil {
		out += " = " + s.Init.String()
	}
	return out
}

// ExprStmt evaluates an expression for its effects
type ExprStmt struct {
	X    Expr
	Span position.Span
}

func (s *ExprStmt) GetSpan() position.Span { return s.Span }
func (s *ExprStmt) stmtNode()              {}
func (s *ExprStmt) String() string         { return s.X.String() }

// ReturnStmt leaves the function, optionally with a value
type ReturnStmt struct {
	Value Expr
	Span  position.Span
}

func (s *ReturnStmt) GetSpan() position.Span { return s.Span }
func (s *ReturnStmt) stmtNode()              {}
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// WhileStmt loops while Cond holds
type WhileStmt struct {
	Cond Expr
	Body *Block
	Span position.Span
}

func (s *WhileStmt) GetSpan() position.Span { return s.Span }
func (s *WhileStmt) stmtNode()              {}
func (s *WhileStmt) String() string         { return "while " + s.Cond.String() + " " + s.Body.String() }

// ForStmt is the counted loop `for init; cond; update { body }`. Every
// clause is optional; bindings made by Init are scoped to the loop.
type ForStmt struct {
	Init   Stmt
	Cond   Expr
	Update Expr
	Body   *Block
	Span   position.Span
}

func (s *ForStmt) GetSpan() position.Span { return s.Span }
func (s *ForStmt) stmtNode()              {}
func (s *ForStmt) String() string {
	var clauses [3]string
	if s.Init != nil {
		clauses[0] = s.Init.String()
	}
	if s.Cond != nil {
		clauses[1] = s.Cond.String()
	}
	if s.Update != nil {
		clauses[2] = s.Update.String()
	}
	return "for " + strings.Join(clauses[:], "; ") + " " + s.Body.String()
}

// ====== Expressions ======

// IntLit is an integer literal; Suffix fixes its type ("u8", "i64", ...).
// Value is never nil and covers the whole u64 range.
type IntLit struct {
	exprBase
	Value  *big.Int
	Suffix string
}

func (e *IntLit) String() string { return e.Value.String() + e.Suffix }

// FloatLit is a fractional literal
type FloatLit struct {
	exprBase
	Value  float64
	Suffix string
}

func (e *FloatLit) String() string {
	s := strconv.FormatFloat(e.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + e.Suffix
}

// StringLit is a string literal; its type is the owned String
type StringLit struct {
	exprBase
	Value string
}

func (e *StringLit) String() string { return strconv.Quote(e.Value) }

// TemplatePart is one piece of a template string: literal Text, or an
// interpolated Expr when Expr is non-nil
type TemplatePart struct {
	Text string
	Expr Expr
}

// TemplateString builds a String from text and interpolated values.
// Interpolated values are read, never moved.
type TemplateString struct {
	exprBase
	Parts []TemplatePart
}

func (e *TemplateString) String() string {
	var sb strings.Builder
	sb.WriteByte('`')
	for _, p := range e.Parts {
		if p.Expr != nil {
			sb.WriteString("${" + p.Expr.String() + "}")
			continue
		}
		sb.WriteString(p.Text)
	}
	sb.WriteByte('`')
	return sb.String()
}

// BoolLit is true or false
type BoolLit struct {
	exprBase
	Value bool
}

func (e *BoolLit) String() string { return strconv.FormatBool(e.Value) }

// Ident names a local binding, parameter or function
type Ident struct {
	exprBase
	Name string
}

func (e *Ident) String() string { return e.Name }

// BinaryOp is a binary operator
type BinaryOp string

const (
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpRem    BinaryOp = "%"
	OpLt     BinaryOp = "<"
	OpGt     BinaryOp = ">"
	OpLe     BinaryOp = "<="
	OpGe     BinaryOp = ">="
	OpEq     BinaryOp = "=="
	OpNe     BinaryOp = "!="
	OpAnd    BinaryOp = "&&"
	OpOr     BinaryOp = "||"
	OpBitAnd BinaryOp = "&"
	OpBitOr  BinaryOp = "|"
	OpBitXor BinaryOp = "^"
	OpShl    BinaryOp = "<<"
	OpShr    BinaryOp = ">>"
)

// Binary is a binary operation
type Binary struct {
	exprBase
	Op          BinaryOp
	Left, Right Expr
}

func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// UnaryOp is a prefix operator
type UnaryOp string

const (
	OpNeg    UnaryOp = "-"
	OpNot    UnaryOp = "!"
	OpBitNot UnaryOp = "~"
)

// Unary is a prefix operation
type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

func (e *Unary) String() string { return string(e.Op) + e.Operand.String() }

// Call calls a function value; Callee is usually an *Ident
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (e *Call) String() string { return e.Callee.String() + "(" + joinExprs(e.Args) + ")" }

// MethodCall calls a method on Receiver
type MethodCall struct {
	exprBase
	Receiver Expr
	Method   string
	Args     []Expr
}

func (e *MethodCall) String() string {
	return e.Receiver.String() + "." + e.Method + "(" + joinExprs(e.Args) + ")"
}

// Field projects a struct field, or a tuple element when Name is numeric
type Field struct {
	exprBase
	Object Expr
	Name   string
}

func (e *Field) String() string { return e.Object.String() + "." + e.Name }

// Index indexes into an array
type Index struct {
	exprBase
	Object Expr
	Index  Expr
}

func (e *Index) String() string { return e.Object.String() + "[" + e.Index.String() + "]" }

// Ref takes a shared or mutable reference
type Ref struct {
	exprBase
	Mutable bool
	Operand Expr
}

func (e *Ref) String() string {
	if e.Mutable {
		return "&mut " + e.Operand.String()
	}
	return "&" + e.Operand.String()
}

// Deref dereferences a reference
type Deref struct {
	exprBase
	Operand Expr
}

func (e *Deref) String() string { return "*" + e.Operand.String() }

// FieldInit initialises one field in a struct literal
type FieldInit struct {
	Name  string
	Value Expr
	Span  position.Span
}

// StructLit constructs a struct. An empty Name marks the implicit form
// `{ x: 1, y: 2 }` whose target type the checker must infer.
type StructLit struct {
	exprBase
	Name   string
	Fields []FieldInit
}

func (e *StructLit) String() string {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Name + ": " + f.Value.String()
	}
	body := "{ " + strings.Join(fields, ", ") + " }"
	if e.Name == "" {
		return body
	}
	return e.Name + " " + body
}

// VariantLit constructs an enum variant. Enum may be empty when the variant
// name alone is unambiguous.
type VariantLit struct {
	exprBase
	Enum    string
	Variant string
	Args    []Expr
	Fields  []FieldInit
}

func (e *VariantLit) String() string {
	name := e.Variant
	if e.Enum != "" {
		name = e.Enum + "::" + e.Variant
	}
	switch {
	case len(e.Fields) > 0:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = f.Name + ": " + f.Value.String()
		}
		return name + " { " + strings.Join(fields, ", ") + " }"
	case len(e.Args) > 0:
		return name + "(" + joinExprs(e.Args) + ")"
	default:
		return name
	}
}

// TupleLit builds a tuple; the empty tuple is the unit value
type TupleLit struct {
	exprBase
	Elems []Expr
}

func (e *TupleLit) String() string {
	if len(e.Elems) == 1 {
		return "(" + e.Elems[0].String() + ",)"
	}
	return "(" + joinExprs(e.Elems) + ")"
}

// ArrayLit builds an array
type ArrayLit struct {
	exprBase
	Elems []Expr
}

func (e *ArrayLit) String() string { return "[" + joinExprs(e.Elems) + "]" }

// Cast converts Operand with the `as` operator
type Cast struct {
	exprBase
	Operand Expr
	Target  TypeExpr
}

func (e *Cast) String() string { return e.Operand.String() + " as " + e.Target.String() }

// Assign stores Value into the place Target
type Assign struct {
	exprBase
	Target Expr
	Value  Expr
}

func (e *Assign) String() string { return e.Target.String() + " = " + e.Value.String() }

// MatchArm is one arm of a match; arm order is significant
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // optional
	Body    Expr
	Span    position.Span
}

func (a *MatchArm) String() string {
	if a.Guard != nil {
		return a.Pattern.String() + " if " + a.Guard.String() + " => " + a.Body.String()
	}
	return a.Pattern.String() + " => " + a.Body.String()
}

// Match selects the first arm whose pattern matches Scrutinee
type Match struct {
	exprBase
	Scrutinee Expr
	Arms      []*MatchArm
}

func (e *Match) String() string {
	arms := make([]string, len(e.Arms))
	for i, a := range e.Arms {
		arms[i] = a.String()
	}
	return "match " + e.Scrutinee.String() + " { " + strings.Join(arms, ", ") + " }"
}

// If is a conditional expression; Else may be nil
type If struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (e *If) String() string {
	if e.Else == nil {
		return "if " + e.Cond.String() + " " + e.Then.String()
	}
	return "if " + e.Cond.String() + " " + e.Then.String() + " else " + e.Else.String()
}

// Block is a lexical scope with an optional tail value
type Block struct {
	exprBase
	Stmts []Stmt
	Tail  Expr
}

func (e *Block) String() string {
	parts := make([]string, 0, len(e.Stmts)+1)
	for _, s := range e.Stmts {
		parts = append(parts, s.String()+";")
	}
	if e.Tail != nil {
		parts = append(parts, e.Tail.String())
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// IsPlace reports whether e denotes a memory location that can be borrowed
// or assigned: a variable, a field of a place, an index of a place, or a
// dereference.
func IsPlace(e Expr) bool {
	switch x := e.(type) {
	case *Ident:
		return true
	case *Field:
		return IsPlace(x.Object)
	case *Index:
		return IsPlace(x.Object)
	case *Deref:
		return true
	default:
		return false
	}
}

// RootIdent returns the variable a place expression is rooted at
func RootIdent(e Expr) (*Ident, bool) {
	switch x := e.(type) {
	case *Ident:
		return x, true
	case *Field:
		return RootIdent(x.Object)
	case *Index:
		return RootIdent(x.Object)
	case *Deref:
		return RootIdent(x.Operand)
	default:
		return nil, false
	}
}
