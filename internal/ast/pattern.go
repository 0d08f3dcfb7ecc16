package ast

import (
	"strconv"
	"strings"

	"github.com/yunilang/yuni/internal/position"
)

// Pattern is a pattern node. Patterns are visited through PatternVisitor so
// that every consumer handles every variant.
type Pattern interface {
	Node
	ID() NodeID
	SetSpan(position.Span)
	setID(NodeID)
	Accept(v PatternVisitor) interface{}
	patternNode()
}

// PatternVisitor has one method per pattern variant
type PatternVisitor interface {
	VisitWildcard(p *WildcardPattern) interface{}
	VisitBinding(p *BindingPattern) interface{}
	VisitLiteral(p *LiteralPattern) interface{}
	VisitTuple(p *TuplePattern) interface{}
	VisitList(p *ListPattern) interface{}
	VisitRecord(p *RecordPattern) interface{}
	VisitVariant(p *VariantPattern) interface{}
	VisitOr(p *OrPattern) interface{}
	VisitRange(p *RangePattern) interface{}
	VisitGuard(p *GuardPattern) interface{}
}

type patternBase struct {
	NodeID NodeID
	Span   position.Span
}

func (b *patternBase) ID() NodeID              { return b.NodeID }
func (b *patternBase) setID(id NodeID)         { b.NodeID = id }
func (b *patternBase) GetSpan() position.Span  { return b.Span }
func (b *patternBase) SetSpan(s position.Span) { b.Span = s }
func (b *patternBase) patternNode()            {}

// WildcardPattern is `_`
type WildcardPattern struct{ patternBase }

func (p *WildcardPattern) String() string                      { return "_" }
func (p *WildcardPattern) Accept(v PatternVisitor) interface{} { return v.VisitWildcard(p) }

// BindingPattern binds the matched value to Name
type BindingPattern struct {
	patternBase
	Name    string
	Mutable bool
}

func (p *BindingPattern) String() string {
	if p.Mutable {
		return "mut " + p.Name
	}
	return p.Name
}
func (p *BindingPattern) Accept(v PatternVisitor) interface{} { return v.VisitBinding(p) }

// LiteralKind distinguishes literal pattern payloads
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
)

// LiteralPattern matches one constant. For integers outside the int64
// range Str holds the decimal text and Int is unused.
type LiteralPattern struct {
	patternBase
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func (p *LiteralPattern) String() string {
	switch p.Kind {
	case LitInt:
		if p.Str != "" {
			return p.Str
		}
		return strconv.FormatInt(p.Int, 10)
	case LitFloat:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	case LitString:
		return strconv.Quote(p.Str)
	default:
		return strconv.FormatBool(p.Bool)
	}
}
func (p *LiteralPattern) Accept(v PatternVisitor) interface{} { return v.VisitLiteral(p) }

// TuplePattern destructures a tuple
type TuplePattern struct {
	patternBase
	Elems []Pattern
}

func (p *TuplePattern) String() string { return "(" + joinPatterns(p.Elems) + ")" }
func (p *TuplePattern) Accept(v PatternVisitor) interface{} { return v.VisitTuple(p) }

// ListPattern matches an array by its prefix; with HasRest the array may be
// longer, and Rest (if any) binds the remaining slice.
type ListPattern struct {
	patternBase
	Prefix  []Pattern
	HasRest bool
	Rest    *BindingPattern
}

func (p *ListPattern) String() string {
	parts := make([]string, 0, len(p.Prefix)+1)
	for _, e := range p.Prefix {
		parts = append(parts, e.String())
	}
	if p.HasRest {
		if p.Rest != nil {
			parts = append(parts, p.Rest.Name+"..")
		} else {
			parts = append(parts, "..")
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (p *ListPattern) Accept(v PatternVisitor) interface{} { return v.VisitList(p) }

// FieldPattern matches one named field
type FieldPattern struct {
	Name    string
	Pattern Pattern
}

// RecordPattern destructures a struct by field name. Fields not listed are
// only permitted with Rest.
type RecordPattern struct {
	patternBase
	Name   string
	Fields []FieldPattern
	Rest   bool
}

func (p *RecordPattern) String() string {
	parts := make([]string, 0, len(p.Fields)+1)
	for _, f := range p.Fields {
		parts = append(parts, f.Name+": "+f.Pattern.String())
	}
	if p.Rest {
		parts = append(parts, "..")
	}
	return p.Name + " { " + strings.Join(parts, ", ") + " }"
}
func (p *RecordPattern) Accept(v PatternVisitor) interface{} { return v.VisitRecord(p) }

// VariantPattern matches an enum variant and its payload. Args holds
// tuple-like payload patterns; Fields holds struct-like ones.
type VariantPattern struct {
	patternBase
	Enum    string
	Variant string
	Args    []Pattern
	Fields  []FieldPattern
	Rest    bool
}

// QualifiedName returns "Enum::Variant", or just the variant without an enum
func (p *VariantPattern) QualifiedName() string {
	if p.Enum == "" {
		return p.Variant
	}
	return p.Enum + "::" + p.Variant
}

func (p *VariantPattern) String() string {
	name := p.QualifiedName()
	switch {
	case len(p.Fields) > 0 || p.Rest:
		parts := make([]string, 0, len(p.Fields)+1)
		for _, f := range p.Fields {
			parts = append(parts, f.Name+": "+f.Pattern.String())
		}
		if p.Rest {
			parts = append(parts, "..")
		}
		return name + " { " + strings.Join(parts, ", ") + " }"
	case len(p.Args) > 0:
		return name + "(" + joinPatterns(p.Args) + ")"
	default:
		return name
	}
}
func (p *VariantPattern) Accept(v PatternVisitor) interface{} { return v.VisitVariant(p) }

// OrPattern matches if any alternative matches
type OrPattern struct {
	patternBase
	Alts []Pattern
}

func (p *OrPattern) String() string {
	parts := make([]string, len(p.Alts))
	for i, a := range p.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}
func (p *OrPattern) Accept(v PatternVisitor) interface{} { return v.VisitOr(p) }

// RangePattern matches integers in Low..High or Low..=High
type RangePattern struct {
	patternBase
	Low, High int64
	Inclusive bool
}

func (p *RangePattern) String() string {
	op := ".."
	if p.Inclusive {
		op = "..="
	}
	return strconv.FormatInt(p.Low, 10) + op + strconv.FormatInt(p.High, 10)
}
func (p *RangePattern) Accept(v PatternVisitor) interface{} { return v.VisitRange(p) }

// GuardPattern matches Inner only when Cond holds
type GuardPattern struct {
	patternBase
	Inner Pattern
	Cond  Expr
}

func (p *GuardPattern) String() string { return p.Inner.String() + " if " + p.Cond.String() }
func (p *GuardPattern) Accept(v PatternVisitor) interface{} { return v.VisitGuard(p) }

func joinPatterns(ps []Pattern) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Irrefutable reports whether p matches every value of its type without
// consulting the scrutinee's declarations. Variant patterns are treated as
// refutable; the pattern compiler decides the single-variant case.
func Irrefutable(p Pattern) bool {
	switch x := p.(type) {
	case *WildcardPattern, *BindingPattern:
		return true
	case *TuplePattern:
		for _, e := range x.Elems {
			if !Irrefutable(e) {
				return false
			}
		}
		return true
	case *RecordPattern:
		for _, f := range x.Fields {
			if !Irrefutable(f.Pattern) {
				return false
			}
		}
		return true
	case *OrPattern:
		for _, a := range x.Alts {
			if Irrefutable(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Bindings lists the binding patterns introduced by p in source order.
// Alternatives of an or-pattern bind the same names; only the first
// alternative is reported.
func Bindings(p Pattern) []*BindingPattern {
	var out []*BindingPattern
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch x := p.(type) {
		case *BindingPattern:
			out = append(out, x)
		case *TuplePattern:
			for _, e := range x.Elems {
				walk(e)
			}
		case *ListPattern:
			for _, e := range x.Prefix {
				walk(e)
			}
			if x.Rest != nil {
				out = append(out, x.Rest)
			}
		case *RecordPattern:
			for _, f := range x.Fields {
				walk(f.Pattern)
			}
		case *VariantPattern:
			for _, a := range x.Args {
				walk(a)
			}
			for _, f := range x.Fields {
				walk(f.Pattern)
			}
		case *OrPattern:
			if len(x.Alts) > 0 {
				walk(x.Alts[0])
			}
		case *GuardPattern:
			walk(x.Inner)
		}
	}
	walk(p)
	return out
}
