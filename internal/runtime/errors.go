package runtime

import (
	"fmt"
	"strings"
)

// Error ids. Every recoverable failure raised by the core carries one of
// these, so hosts can dispatch on the id instead of parsing message text.
// The rendering templates live in the boot catalog (see RegisterErrors);
// a compiled-in copy is kept so the core works before boot data loads.
const (
	ErrDupVars        = "dup-vars"
	ErrBadFuncDef     = "bad-func-def"
	ErrDupReturner    = "dup-returner"
	ErrNoValue        = "no-value"
	ErrNotBound       = "not-bound"
	ErrNeedNonEnd     = "need-non-end"
	ErrExpectArg      = "expect-arg"
	ErrBadReturnType  = "bad-return-type"
	ErrNoCatch        = "no-catch"
	ErrNoArg          = "no-arg"
	ErrBadVoid        = "bad-void"
	ErrBadConditional = "bad-conditional"
	ErrBadTrash       = "bad-trash"
	ErrHalted         = "halted"
	ErrBadCast        = "bad-cast"
	ErrUnhandled      = "unhandled"
	ErrPastEnd        = "past-end"
	ErrLocked         = "locked"
	ErrProtected      = "protected"
	ErrMathOverflow   = "math-overflow"
	ErrZeroDivide     = "zero-divide"
	ErrInvalidArity   = "invalid-arity"
	ErrScan           = "scan"
	ErrNotDone        = "not-done"
	ErrBadPredicate   = "bad-predicate"
	ErrBadRefine      = "bad-refine"
	ErrNotRunning     = "not-running"
)

var errorCatalog = map[string]string{
	ErrDupVars:        "duplicate variable specified: %s",
	ErrBadFuncDef:     "invalid function definition: %s",
	ErrDupReturner:    "duplicate %s: in function spec",
	ErrNoValue:        "%s has no value",
	ErrNotBound:       "%s is not bound to a context",
	ErrNeedNonEnd:     "%s needs a value, end of block reached",
	ErrExpectArg:      "%s expects %s for its %s argument",
	ErrBadReturnType:  "%s attempted to return a disallowed %s",
	ErrNoCatch:        "no CATCH for THROW of %s",
	ErrNoArg:          "%s is missing its %s argument",
	ErrBadVoid:        "void where a value is required",
	ErrBadConditional: "conditional test must produce a value (got %s)",
	ErrBadTrash:       "trash (unset) where a value is required",
	ErrHalted:         "halted by user or script",
	ErrBadCast:        "cannot use %s where %s is needed",
	ErrUnhandled:      "datatype %s has no handler for %s",
	ErrPastEnd:        "out of range or past end",
	ErrLocked:         "value or series locked at source level",
	ErrProtected:      "attempt to modify a protected value",
	ErrMathOverflow:   "math or number overflow",
	ErrZeroDivide:     "attempt to divide by zero",
	ErrInvalidArity:   "wrong number of arguments for %s",
	ErrScan:           "syntax error: %s",
	ErrNotDone:        "evaluation did not reach completion",
	ErrBadPredicate:   "predicate %s returned an unusable result",
	ErrBadRefine:      "%s is not a refinement of %s",
	ErrNotRunning:     "frame for %s is not running on the stack",
}

// RegisterErrors merges catalog templates decoded from the boot blob.
// Compiled-in templates are kept when the blob does not mention an id.
func RegisterErrors(templates map[string]string) {
	for id, tpl := range templates {
		errorCatalog[id] = tpl
	}
}

// Error is a recoverable, cooperative failure. It propagates through the
// core as an ordinary Go error return; nothing unwinds implicitly. Natives
// and executors that see one either handle it or pass it up to the
// trampoline, which converts it for script-level inspection.
type Error struct {
	ID   string
	Msg  string
	Near string // mold of the code neighborhood, when known
}

func (e *Error) Error() string {
	if e.Near != "" {
		return e.Msg + " (near: " + e.Near + ")"
	}
	return e.Msg
}

func newError(id string, args ...any) *Error {
	tpl, ok := errorCatalog[id]
	if !ok {
		tpl = id + strings.Repeat(" %v", len(args))
	}
	return &Error{ID: id, Msg: fmt.Sprintf(tpl, args...)}
}

// AsError gives the catalog error inside err, or nil if err is foreign.
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}

// Violation is a broken internal contract: wrong-tag cell access, bad stub
// flavor, an executor resuming at a state it never set. These are bugs, not
// user errors, so they panic and bypass the cooperative error chain. Only
// the trampoline top and RESCUE recover them.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string { return "internal violation: " + v.Msg }

func panicf(format string, args ...any) {
	panic(&Violation{Msg: fmt.Sprintf(format, args...)})
}
