// Ownership states for the Yuni borrow checker.
// This file defines the per-binding borrow state and the transition table
// the checker consults for every read, move, borrow, write and release.
// Transition is a total function: every (state, action) pair yields either
// a next state or a violation.

package ownership

import (
	"fmt"

	"github.com/yunilang/yuni/internal/diagnostics"
)

// ====== Borrow State ======

// StateKind classifies a binding's borrow state
type StateKind int

const (
	StateOwned StateKind = iota
	StateMoved
	StateSharedBorrowed
	StateMutBorrowed
)

func (sk StateKind) String() string {
	switch sk {
	case StateOwned:
		return "owned"
	case StateMoved:
		return "moved"
	case StateSharedBorrowed:
		return "shared-borrowed"
	case StateMutBorrowed:
		return "mut-borrowed"
	default:
		return "unknown"
	}
}

// State is the borrow state of one binding. Shared counts the live shared
// borrows and is only meaningful for StateSharedBorrowed.
type State struct {
	Kind   StateKind
	Shared int
}

var (
	Owned       = State{Kind: StateOwned}
	Moved       = State{Kind: StateMoved}
	MutBorrowed = State{Kind: StateMutBorrowed}
)

// SharedBorrowed returns the state with n live shared borrows
func SharedBorrowed(n int) State {
	if n <= 0 {
		return Owned
	}
	return State{Kind: StateSharedBorrowed, Shared: n}
}

func (s State) String() string {
	if s.Kind == StateSharedBorrowed {
		return fmt.Sprintf("shared-borrowed(%d)", s.Shared)
	}
	return s.Kind.String()
}

// IsBorrowed reports whether any borrow is live
func (s State) IsBorrowed() bool {
	return s.Kind == StateSharedBorrowed || s.Kind == StateMutBorrowed
}

// ====== Actions ======

// Action is an operation applied to a binding
type Action int

const (
	ActionDeclare Action = iota
	ActionRead
	ActionMove
	ActionBorrow
	ActionBorrowMut
	ActionWrite
	ActionRelease
	ActionReleaseMut
)

func (a Action) String() string {
	switch a {
	case ActionDeclare:
		return "declare"
	case ActionRead:
		return "read"
	case ActionMove:
		return "move"
	case ActionBorrow:
		return "borrow"
	case ActionBorrowMut:
		return "borrow-mut"
	case ActionWrite:
		return "write"
	case ActionRelease:
		return "release"
	case ActionReleaseMut:
		return "release-mut"
	default:
		return "unknown"
	}
}

// Violation is a rejected transition
type Violation struct {
	Kind   diagnostics.Kind
	Action Action
	State  State
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s of a %s binding: %s", v.Action, v.State, v.Kind)
}

// Transition applies action a to a binding in state s. mutable tells
// whether the binding may be written or mutably borrowed.
func Transition(s State, a Action, mutable bool) (State, *Violation) {
	deny := func(kind diagnostics.Kind) (State, *Violation) {
		return s, &Violation{Kind: kind, Action: a, State: s}
	}

	switch a {
	case ActionDeclare:
		return Owned, nil

	case ActionRead:
		if s.Kind == StateMoved {
			return deny(diagnostics.UseAfterMove)
		}
		return s, nil

	case ActionMove:
		switch s.Kind {
		case StateOwned:
			return Moved, nil
		case StateMoved:
			return deny(diagnostics.UseAfterMove)
		default:
			return deny(diagnostics.ConflictingBorrow)
		}

	case ActionBorrow:
		switch s.Kind {
		case StateOwned:
			return SharedBorrowed(1), nil
		case StateSharedBorrowed:
			return SharedBorrowed(s.Shared + 1), nil
		case StateMoved:
			return deny(diagnostics.UseAfterMove)
		default:
			return deny(diagnostics.ConflictingBorrow)
		}

	case ActionBorrowMut:
		switch {
		case s.Kind == StateMoved:
			return deny(diagnostics.UseAfterMove)
		case !mutable:
			return deny(diagnostics.MutateThroughImmutableBinding)
		case s.Kind != StateOwned:
			return deny(diagnostics.ConflictingBorrow)
		}
		return MutBorrowed, nil

	case ActionWrite:
		switch {
		case s.IsBorrowed():
			return deny(diagnostics.ConflictingBorrow)
		case !mutable:
			return deny(diagnostics.MutateThroughImmutableBinding)
		}
		return Owned, nil

	case ActionRelease:
		if s.Kind == StateSharedBorrowed {
			return SharedBorrowed(s.Shared - 1), nil
		}
		return s, nil

	case ActionReleaseMut:
		if s.Kind == StateMutBorrowed {
			return Owned, nil
		}
		return s, nil
	}
	return deny(diagnostics.AnalysisAborted)
}
