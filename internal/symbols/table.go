// Symbol table for the Yuni semantic core.
// The table is filled once by Collect and is read-only afterwards, so it can
// be shared by goroutines analysing different functions.

package symbols

import (
	"sort"
	"strings"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/position"
	"github.com/yunilang/yuni/internal/types"
)

// SymbolKind represents the kind of symbol
type SymbolKind int

const (
	SymbolKindStruct SymbolKind = iota
	SymbolKindEnum
	SymbolKindFunction
	SymbolKindMethod
	SymbolKindBuiltin
)

// String returns the string representation of SymbolKind
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolKindStruct:
		return "struct"
	case SymbolKindEnum:
		return "enum"
	case SymbolKindFunction:
		return "function"
	case SymbolKindMethod:
		return "method"
	case SymbolKindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Param is a resolved function parameter
type Param struct {
	Name    string
	Type    *types.Type
	Mutable bool
}

// FuncSig is a resolved function or method signature. Type parameters stay
// rigid Generic types; callers instantiate them per call site.
type FuncSig struct {
	Name       string
	Kind       SymbolKind
	TypeParams []string
	Params     []Param
	Return     *types.Type

	// Receiver is set for methods; Self is the receiver's nominal type
	Receiver *ast.ReceiverKind
	Self     *types.Type

	// Lives lists the parameters a returned reference may borrow from;
	// nil means no clause was declared
	Lives []string

	Decl *ast.FuncDecl
	Span position.Span
}

// Type returns the signature as a function type
func (s *FuncSig) Type() *types.Type {
	params := make([]*types.Type, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Type
	}
	return types.NewFunction(params, s.Return)
}

// ReceiverType returns the type the receiver parameter is passed as
func (s *FuncSig) ReceiverType() *types.Type {
	if s.Receiver == nil {
		return nil
	}
	switch *s.Receiver {
	case ast.ReceiverRef:
		return types.NewReference(s.Self, false)
	case ast.ReceiverMutRef:
		return types.NewReference(s.Self, true)
	default:
		return s.Self
	}
}

// ParamIndex returns the position of the named parameter
func (s *FuncSig) ParamIndex(name string) int {
	for i, p := range s.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// VariantRef names an enum variant together with its enum
type VariantRef struct {
	Enum    *types.EnumDef
	Variant *types.Variant
}

// Table is the frozen symbol table
type Table struct {
	structs  map[string]*types.StructDef
	enums    map[string]*types.EnumDef
	funcs    map[string]*FuncSig
	methods  map[string]map[string]*FuncSig
	variants map[string][]VariantRef
	shapes   map[string][]*types.StructDef
	spans    map[string]position.Span
}

func newTable() *Table {
	return &Table{
		structs:  make(map[string]*types.StructDef),
		enums:    make(map[string]*types.EnumDef),
		funcs:    make(map[string]*FuncSig),
		methods:  make(map[string]map[string]*FuncSig),
		variants: make(map[string][]VariantRef),
		shapes:   make(map[string][]*types.StructDef),
		spans:    make(map[string]position.Span),
	}
}

// Struct looks up a struct declaration
func (t *Table) Struct(name string) (*types.StructDef, bool) {
	d, ok := t.structs[name]
	return d, ok
}

// Enum looks up an enum declaration
func (t *Table) Enum(name string) (*types.EnumDef, bool) {
	d, ok := t.enums[name]
	return d, ok
}

// Function looks up a free function or builtin
func (t *Table) Function(name string) (*FuncSig, bool) {
	s, ok := t.funcs[name]
	return s, ok
}

// Method looks up a method declared on typeName
func (t *Table) Method(typeName, name string) (*FuncSig, bool) {
	s, ok := t.methods[typeName][name]
	return s, ok
}

// Variant resolves `Enum::Variant`. With an empty enum name the variant
// must be unique across all enums; the candidates are returned either way.
func (t *Table) Variant(enum, variant string) (VariantRef, []VariantRef, bool) {
	if enum != "" {
		def, ok := t.enums[enum]
		if !ok {
			return VariantRef{}, nil, false
		}
		v, ok := def.Variant(variant)
		if !ok {
			return VariantRef{}, nil, false
		}
		ref := VariantRef{Enum: def, Variant: v}
		return ref, []VariantRef{ref}, true
	}
	cands := t.variants[variant]
	if len(cands) == 1 {
		return cands[0], cands, true
	}
	return VariantRef{}, cands, false
}

// StructsWithFields returns the structs whose field-name set is exactly
// names, sorted by struct name
func (t *Table) StructsWithFields(names []string) []*types.StructDef {
	return t.shapes[shapeKey(names)]
}

// DeclSpan returns where a top-level name was declared
func (t *Table) DeclSpan(name string) (position.Span, bool) {
	s, ok := t.spans[name]
	return s, ok
}

// Functions returns every user function and method signature sorted by
// qualified name. Builtins are not included.
func (t *Table) Functions() []*FuncSig {
	var out []*FuncSig
	for _, s := range t.funcs {
		if s.Kind != SymbolKindBuiltin {
			out = append(out, s)
		}
	}
	for _, ms := range t.methods {
		for _, s := range ms {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Signature returns the signature collected for a declaration
func (t *Table) Signature(fn *ast.FuncDecl) (*FuncSig, bool) {
	if fn.Receiver != nil {
		s, ok := t.Method(fn.Receiver.TypeName, fn.Name)
		return s, ok && s.Decl == fn
	}
	s, ok := t.Function(fn.Name)
	return s, ok && s.Decl == fn
}

func shapeKey(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
