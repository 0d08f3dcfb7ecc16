// Package position provides source position tracking for the Yuni semantic
// core. Every syntax node carries a Span so that diagnostics can point back
// at the exact source range that produced them.
package position

import (
	"fmt"
	"path/filepath"
)

// Position represents a single point in source code
type Position struct {
	Filename string `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int    `json:"line" yaml:"line"`     // 1-based line number
	Column   int    `json:"column" yaml:"column"` // 1-based column number
	Offset   int    `json:"offset" yaml:"offset"` // 0-based byte offset, 0 when unknown
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before returns true if this position comes before other.
// Positions are ordered by file, then line, then column.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// After returns true if this position comes after other
func (p Position) After(other Position) bool {
	return p.Compare(other) > 0
}

// Compare orders two positions, returning -1, 0 or 1.
func (p Position) Compare(other Position) int {
	switch {
	case p.Filename != other.Filename:
		if p.Filename < other.Filename {
			return -1
		}
		return 1
	case p.Line != other.Line:
		if p.Line < other.Line {
			return -1
		}
		return 1
	case p.Column != other.Column:
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Span represents a range of source code between two positions
type Span struct {
	Start Position `json:"start" yaml:"start"` // inclusive
	End   Position `json:"end" yaml:"end"`     // exclusive
}

// At returns a zero-width span located at the given line and column.
func At(filename string, line, column int) Span {
	p := Position{Filename: filename, Line: line, Column: column}
	return Span{Start: p, End: p}
}

// IsValid returns true if the span is valid
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() &&
		s.Start.Filename == s.End.Filename &&
		!s.End.Before(s.Start)
}

// String returns a string representation of the span
func (s Span) String() string {
	if !s.IsValid() {
		return "<unknown>"
	}
	if s.Start == s.End {
		return s.Start.String()
	}

	prefix := ""
	if s.Start.Filename != "" {
		prefix = filepath.Base(s.Start.Filename) + ":"
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s%d:%d-%d", prefix, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s%d:%d-%d:%d", prefix, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Contains returns true if the span contains the given position
func (s Span) Contains(pos Position) bool {
	if !s.IsValid() || !pos.IsValid() || s.Start.Filename != pos.Filename {
		return false
	}
	return !pos.Before(s.Start) && pos.Before(s.End)
}

// Union returns a span that encompasses both this span and other
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	if s.Start.Filename != other.Start.Filename {
		return s // Cannot union spans from different files
	}

	start := s.Start
	if other.Start.Before(start) {
		start = other.Start
	}

	end := s.End
	if other.End.After(end) {
		end = other.End
	}

	return Span{Start: start, End: end}
}
