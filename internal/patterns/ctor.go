package patterns

import (
	"math/big"
	"sort"
	"strconv"

	"github.com/yunilang/yuni/internal/types"
)

// CtorKind identifies the test a Switch case performs
type CtorKind int

const (
	CtorBool CtorKind = iota
	CtorVariant
	CtorRange
	CtorString
	CtorFloat
	CtorLen
	CtorMinLen
)

func (ck CtorKind) String() string {
	switch ck {
	case CtorBool:
		return "bool"
	case CtorVariant:
		return "variant"
	case CtorRange:
		return "range"
	case CtorString:
		return "string"
	case CtorFloat:
		return "float"
	case CtorLen:
		return "len"
	case CtorMinLen:
		return "min-len"
	default:
		return "unknown"
	}
}

// Ctor is one Switch case. Ranges are inclusive on both ends. A CtorMinLen
// case matches lists of at least Len elements and projects the first Prefix.
type Ctor struct {
	Kind    CtorKind
	Bool    bool
	Variant *types.Variant
	Lo, Hi  *big.Int
	Str     string
	Float   float64
	Len     int
	Prefix  int
}

func (k Ctor) String() string {
	switch k.Kind {
	case CtorBool:
		return strconv.FormatBool(k.Bool)
	case CtorVariant:
		return k.Variant.Name
	case CtorRange:
		if k.Lo.Cmp(k.Hi) == 0 {
			return k.Lo.String()
		}
		return k.Lo.String() + "..=" + k.Hi.String()
	case CtorString:
		return strconv.Quote(k.Str)
	case CtorFloat:
		return strconv.FormatFloat(k.Float, 'g', -1, 64)
	case CtorLen:
		return "len " + strconv.Itoa(k.Len)
	case CtorMinLen:
		return "len >= " + strconv.Itoa(k.Len)
	default:
		return "?"
	}
}

// MarshalText renders the case label for the JSON decision tree dump
func (k Ctor) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// arity is the number of sub-columns a specialization on k introduces
func (k Ctor) arity() int {
	switch k.Kind {
	case CtorVariant:
		return k.Variant.Arity()
	case CtorLen:
		return k.Len
	case CtorMinLen:
		return k.Prefix
	default:
		return 0
	}
}

// columns returns the sub-columns a specialization on k introduces
func (k Ctor) columns(col column) []column {
	switch k.Kind {
	case CtorVariant:
		et := col.typ.AsEnum()
		slots := et.SlotTypes(k.Variant)
		out := make([]column, len(slots))
		for i, st := range slots {
			out[i] = column{path: col.path.Child(Step{Kind: StepPayload, Index: i, Name: k.Variant.Name}), typ: st}
		}
		return out
	case CtorLen, CtorMinLen:
		elem := col.typ.AsArray().Element
		n := k.arity()
		out := make([]column, n)
		for i := 0; i < n; i++ {
			out[i] = column{path: col.path.Child(Step{Kind: StepElem, Index: i}), typ: elem}
		}
		return out
	default:
		return nil
	}
}

// match specializes a non-wild pattern p on k. It returns the sub-patterns
// that replace p, any bindings p makes at path, and whether p admits k.
func (k Ctor) match(p *pat, n int, path Path) ([]*pat, []Binding, bool) {
	switch k.Kind {
	case CtorBool:
		return nil, nil, p.kind == patBool && p.b == k.Bool
	case CtorVariant:
		if p.kind != patVariant || p.variant.Index != k.Variant.Index {
			return nil, nil, false
		}
		return fit(p.args, n), nil, true
	case CtorRange:
		return nil, nil, p.kind == patInt && p.lo.Cmp(k.Lo) <= 0 && k.Hi.Cmp(p.hi) <= 0
	case CtorString:
		return nil, nil, p.kind == patString && p.str == k.Str
	case CtorFloat:
		return nil, nil, p.kind == patFloat && p.f == k.Float
	case CtorLen, CtorMinLen:
		if p.kind != patList {
			return nil, nil, false
		}
		if !p.rest {
			if k.Kind == CtorMinLen || len(p.args) != k.Len {
				return nil, nil, false
			}
			return p.args, nil, true
		}
		if len(p.args) > n {
			return nil, nil, false
		}
		var binds []Binding
		if p.restBind != "" {
			binds = []Binding{{Name: p.restBind, Path: path.Child(Step{Kind: StepRest, Index: len(p.args)})}}
		}
		return fit(p.args, n), binds, true
	}
	return nil, nil, false
}

// ====== Integer Segments ======

var bigOne = big.NewInt(1)

type segment struct {
	lo, hi *big.Int
	cover  string
}

// segments splits [min, max] at every range boundary in column i and
// merges neighbouring pieces covered by the same set of rows
func segments(m *matrix, i int, min, max *big.Int) []segment {
	end := new(big.Int).Add(max, bigOne)
	points := []*big.Int{min, end}
	clamp := func(v *big.Int) *big.Int {
		switch {
		case v.Cmp(min) < 0:
			return min
		case v.Cmp(end) > 0:
			return end
		}
		return v
	}
	for _, r := range m.rows {
		p := r.pats[i]
		if p.kind != patInt || p.lo.Cmp(p.hi) > 0 {
			continue
		}
		points = append(points, clamp(p.lo), clamp(new(big.Int).Add(p.hi, bigOne)))
	}
	points = sortBig(points)

	var out []segment
	for k := 0; k+1 < len(points); k++ {
		lo := points[k]
		hi := new(big.Int).Sub(points[k+1], bigOne)
		cover := coverKey(m, i, lo, hi)
		if n := len(out); n > 0 && out[n-1].cover == cover {
			out[n-1].hi = hi
			continue
		}
		out = append(out, segment{lo: lo, hi: hi, cover: cover})
	}
	return out
}

func coverKey(m *matrix, i int, lo, hi *big.Int) string {
	var key []byte
	for ri, r := range m.rows {
		p := r.pats[i]
		if p.kind == patInt && p.lo.Cmp(lo) <= 0 && hi.Cmp(p.hi) <= 0 {
			key = strconv.AppendInt(key, int64(ri), 10)
			key = append(key, ',')
		}
	}
	return string(key)
}

// sortBig sorts vs and drops duplicates
func sortBig(vs []*big.Int) []*big.Int {
	sort.Slice(vs, func(a, b int) bool { return vs[a].Cmp(vs[b]) < 0 })
	out := vs[:1]
	for _, v := range vs[1:] {
		if v.Cmp(out[len(out)-1]) != 0 {
			out = append(out, v)
		}
	}
	return out
}
