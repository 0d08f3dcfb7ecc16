// Package diagnostics defines the structured records every analysis stage
// reports: a kind, a primary span, a message, optional secondary spans and an
// optional hint. Rendering them is the job of the surrounding tool.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yunilang/yuni/internal/position"
)

// Class groups diagnostic kinds by the stage that raises them
type Class int

const (
	ClassType Class = iota
	ClassOwnership
	ClassPattern
	ClassInternal
)

func (c Class) String() string {
	switch c {
	case ClassType:
		return "TypeError"
	case ClassOwnership:
		return "OwnershipError"
	case ClassPattern:
		return "PatternError"
	case ClassInternal:
		return "InternalError"
	default:
		return "unknown"
	}
}

// Kind identifies a specific diagnostic
type Kind int

const (
	// Type errors
	TypeMismatch Kind = iota
	UnresolvedType
	AmbiguousOverload
	UndefinedName
	ArityMismatch
	InvalidCast
	DuplicateDefinition

	// Ownership errors
	UseAfterMove
	ConflictingBorrow
	MutateThroughImmutableBinding
	DanglingReference
	BorrowOutlivesOwner

	// Pattern errors
	NonExhaustiveMatch
	UnreachableArm

	// A function whose analysis aborted on a checker defect
	AnalysisAborted
)

var kindInfo = map[Kind]struct {
	name  string
	code  string
	class Class
}{
	TypeMismatch:                  {"TypeMismatch", "E0100", ClassType},
	UnresolvedType:                {"UnresolvedType", "E0101", ClassType},
	AmbiguousOverload:             {"AmbiguousOverload", "E0102", ClassType},
	UndefinedName:                 {"UndefinedName", "E0103", ClassType},
	ArityMismatch:                 {"ArityMismatch", "E0104", ClassType},
	InvalidCast:                   {"InvalidCast", "E0105", ClassType},
	DuplicateDefinition:           {"DuplicateDefinition", "E0106", ClassType},
	UseAfterMove:                  {"UseAfterMove", "E0200", ClassOwnership},
	ConflictingBorrow:             {"ConflictingBorrow", "E0201", ClassOwnership},
	MutateThroughImmutableBinding: {"MutateThroughImmutableBinding", "E0202", ClassOwnership},
	DanglingReference:             {"DanglingReference", "E0203", ClassOwnership},
	BorrowOutlivesOwner:           {"BorrowOutlivesOwner", "E0204", ClassOwnership},
	NonExhaustiveMatch:            {"NonExhaustiveMatch", "E0300", ClassPattern},
	UnreachableArm:                {"UnreachableArm", "E0301", ClassPattern},
	AnalysisAborted:               {"AnalysisAborted", "E0900", ClassInternal},
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "unknown"
}

// Code returns the stable error code, e.g. "E0200"
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "E0000"
}

// Class returns the class the kind belongs to
func (k Kind) Class() Class {
	if info, ok := kindInfo[k]; ok {
		return info.class
	}
	return ClassInternal
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindInfo[k]; !ok {
		return nil, fmt.Errorf("unknown diagnostic kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, info := range kindInfo {
		if info.name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", string(text))
}

// Label attaches a message to a secondary source location
type Label struct {
	Span    position.Span `json:"span"`
	Message string        `json:"message"`
}

// Diagnostic represents a single finding about the analysed program
type Diagnostic struct {
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Span      position.Span `json:"span"`
	Secondary []Label       `json:"secondary,omitempty"`
	Hint      string        `json:"hint,omitempty"`

	// Function is the name of the function being analysed, if any
	Function string `json:"function,omitempty"`

	// Detail holds verbose-only context such as a pattern matrix dump
	Detail string `json:"detail,omitempty"`
}

// Code returns the diagnostic's error code
func (d Diagnostic) Code() string { return d.Kind.Code() }

// Class returns the diagnostic's class
func (d Diagnostic) Class() Class { return d.Kind.Class() }

// String formats the diagnostic on a single line
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: error[%s] %s: %s", d.Span, d.Code(), d.Kind, d.Message)
}

func (d Diagnostic) key() string {
	return fmt.Sprintf("%d|%s|%s", d.Kind, d.Span, d.Message)
}

// ====== Bag ======

// Bag accumulates diagnostics for one analysis unit. Identical diagnostics
// (same kind, span and message) are kept once. A Bag is not safe for
// concurrent use; the driver gives each function its own.
type Bag struct {
	items []Diagnostic
	seen  map[string]bool
}

// NewBag creates an empty bag
func NewBag() *Bag {
	return &Bag{seen: make(map[string]bool)}
}

// Add records a diagnostic
func (b *Bag) Add(d Diagnostic) {
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}
	k := d.key()
	if b.seen[k] {
		return
	}
	b.seen[k] = true
	b.items = append(b.items, d)
}

// Merge adds every diagnostic from other
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// AddAll adds every diagnostic in ds
func (b *Bag) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

// Len returns the number of diagnostics
func (b *Bag) Len() int { return len(b.items) }

// HasErrors reports whether any diagnostic was recorded
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// Count returns the number of diagnostics of the given kind
func (b *Bag) Count(kind Kind) int {
	n := 0
	for _, d := range b.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Items returns the diagnostics sorted by source position
func (b *Bag) Items() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	Sort(out)
	return out
}

// Sort orders diagnostics by primary span, then kind
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if c := ds[i].Span.Start.Compare(ds[j].Span.Start); c != 0 {
			return c < 0
		}
		return ds[i].Kind < ds[j].Kind
	})
}

// Summary returns a short "N errors" style summary by class
func Summary(ds []Diagnostic) string {
	if len(ds) == 0 {
		return "no diagnostics"
	}

	counts := make(map[Class]int)
	for _, d := range ds {
		counts[d.Class()]++
	}

	parts := make([]string, 0, len(counts))
	for _, c := range []Class{ClassType, ClassOwnership, ClassPattern, ClassInternal} {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	return strings.Join(parts, ", ")
}
