package diagnostics

import (
	"fmt"

	"github.com/yunilang/yuni/internal/position"
)

// Builder provides a fluent interface for building diagnostics.
type Builder struct {
	diagnostic Diagnostic
}

// New starts a diagnostic of the given kind at span.
func New(kind Kind, span position.Span) *Builder {
	return &Builder{diagnostic: Diagnostic{Kind: kind, Span: span}}
}

// Message sets the main diagnostic message.
func (db *Builder) Message(message string) *Builder {
	db.diagnostic.Message = message

	return db
}

// Messagef sets the main diagnostic message using a format string.
func (db *Builder) Messagef(format string, args ...interface{}) *Builder {
	db.diagnostic.Message = fmt.Sprintf(format, args...)

	return db
}

// Secondary attaches a labelled secondary span. Invalid spans are ignored.
func (db *Builder) Secondary(span position.Span, message string) *Builder {
	if span.IsValid() {
		db.diagnostic.Secondary = append(db.diagnostic.Secondary, Label{Span: span, Message: message})
	}

	return db
}

// Hint sets the hint text.
func (db *Builder) Hint(hint string) *Builder {
	db.diagnostic.Hint = hint

	return db
}

// Hintf sets the hint text using a format string.
func (db *Builder) Hintf(format string, args ...interface{}) *Builder {
	db.diagnostic.Hint = fmt.Sprintf(format, args...)

	return db
}

// InFunction records the enclosing function.
func (db *Builder) InFunction(name string) *Builder {
	db.diagnostic.Function = name

	return db
}

// Detail attaches verbose-only detail.
func (db *Builder) Detail(detail string) *Builder {
	db.diagnostic.Detail = detail

	return db
}

// Build returns the finished diagnostic.
func (db *Builder) Build() Diagnostic {
	return db.diagnostic
}

// Report builds the diagnostic and adds it to bag.
func (db *Builder) Report(bag *Bag) {
	bag.Add(db.diagnostic)
}
