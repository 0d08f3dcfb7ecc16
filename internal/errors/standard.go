// Package errors provides the error type used for defects inside the
// semantic core itself, as opposed to problems in the analysed program
// (those are diagnostics).
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorCategory represents different categories of internal errors
type ErrorCategory string

const (
	CategoryInference ErrorCategory = "INFERENCE"
	CategoryOwnership ErrorCategory = "OWNERSHIP"
	CategoryPattern   ErrorCategory = "PATTERN"
	CategorySystem    ErrorCategory = "SYSTEM"
)

// InvariantError signals that the checker broke one of its own invariants.
// It is fatal: the driver stops the whole run when one surfaces.
type InvariantError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "internal invariant violated [%s:%s] %s", e.Category, e.Code, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}

	fmt.Fprintf(&b, " (caller: %s)", e.Caller)
	return b.String()
}

// NewInvariantError creates a new invariant error, recording the caller
func NewInvariantError(category ErrorCategory, code, message string, context map[string]interface{}) *InvariantError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &InvariantError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// IsInvariant reports whether err is or wraps an *InvariantError
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// Common error constructors

func InfiniteType(variable, typ string) *InvariantError {
	return NewInvariantError(CategoryInference, "INFINITE_TYPE",
		fmt.Sprintf("occurs check failed: %s occurs in %s", variable, typ),
		map[string]interface{}{"var": variable, "type": typ})
}

func UnresolvedAnnotation(node int, function string) *InvariantError {
	return NewInvariantError(CategoryOwnership, "UNRESOLVED_ANNOTATION",
		fmt.Sprintf("expression node %d reached ownership checking without a resolved type", node),
		map[string]interface{}{"node": node, "function": function})
}

func UnknownBinding(id int) *InvariantError {
	return NewInvariantError(CategoryOwnership, "UNKNOWN_BINDING",
		fmt.Sprintf("binding id %d is not in the arena", id),
		map[string]interface{}{"binding": id})
}

func MalformedMatrix(details string) *InvariantError {
	return NewInvariantError(CategoryPattern, "MALFORMED_MATRIX",
		fmt.Sprintf("pattern matrix is malformed: %s", details),
		map[string]interface{}{"details": details})
}

func Recovered(function string, value interface{}) *InvariantError {
	return NewInvariantError(CategorySystem, "PANIC",
		fmt.Sprintf("analysis of %s panicked: %v", function, value),
		map[string]interface{}{"function": function})
}
