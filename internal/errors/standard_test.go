package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestInvariantErrorFormatting(t *testing.T) {
	err := InfiniteType("?3", "[?3]")

	msg := err.Error()
	for _, want := range []string{"INFERENCE:INFINITE_TYPE", "?3 occurs in [?3]", "type=[?3]", "var=?3", "caller:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	if !strings.Contains(err.Caller, "InfiniteType") {
		t.Errorf("Caller = %q, want the constructor", err.Caller)
	}
}

func TestIsInvariant(t *testing.T) {
	wrapped := fmt.Errorf("analysing main: %w", MalformedMatrix("ragged row"))
	if !IsInvariant(wrapped) {
		t.Error("wrapped invariant error not detected")
	}
	if IsInvariant(fmt.Errorf("plain")) {
		t.Error("plain error reported as invariant")
	}
}
