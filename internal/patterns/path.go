// Projection paths for the Yuni pattern compiler.
// A Path names a sub-value of the scrutinee: every Switch tests the value
// at its path and every Leaf binding extracts its value by path.

package patterns

import (
	"strconv"
	"strings"
)

// StepKind identifies one projection
type StepKind int

const (
	StepTuple StepKind = iota
	StepField
	StepPayload
	StepElem
	StepRest
	StepDeref
)

func (sk StepKind) String() string {
	switch sk {
	case StepTuple:
		return "tuple"
	case StepField:
		return "field"
	case StepPayload:
		return "payload"
	case StepElem:
		return "elem"
	case StepRest:
		return "rest"
	case StepDeref:
		return "deref"
	default:
		return "unknown"
	}
}

// Step is one projection. Index is the tuple element, field, payload slot
// or list position; for StepRest it is the number of skipped elements.
// Name carries the field name, or the variant name for StepPayload.
type Step struct {
	Kind  StepKind
	Index int
	Name  string
}

func (s Step) String() string {
	switch s.Kind {
	case StepTuple:
		return "." + strconv.Itoa(s.Index)
	case StepField:
		return "." + s.Name
	case StepPayload:
		return ".(" + s.Name + ")." + strconv.Itoa(s.Index)
	case StepElem:
		return "[" + strconv.Itoa(s.Index) + "]"
	case StepRest:
		return "[" + strconv.Itoa(s.Index) + "..]"
	default:
		return ".*"
	}
}

// Path is a sequence of projections from the scrutinee, which is `$`
type Path []Step

// Child returns a new path extended by s; p is never modified
func (p Path) Child(s Step) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = s
	return out
}

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, s := range p {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// MarshalText renders the path for the JSON decision tree dump
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Binding extracts the value at Path into the pattern variable Name
type Binding struct {
	Name string `json:"name"`
	Path Path   `json:"path"`
}
