package regalloc

import "fmt"

// ErrorKind classifies why an allocation call failed. See AllocError.
type ErrorKind uint8

const (
	// MalformedInput means the instruction stream violates a liveness
	// precondition the allocator relies on: a read or modify of a vreg
	// or rreg before it has ever been written, a vreg index outside
	// [0, V), or a register-class mismatch on a flagged move.
	MalformedInput ErrorKind = iota
	// OutOfSpillSlots means Stage 3 could not find a free slot for a
	// live virtual register; the caller-supplied slot table is too small.
	OutOfSpillSlots
	// NoRegForClass means Stage 5 could not find or evict a candidate
	// real register of the class an instruction's operand requires.
	NoRegForClass
	// InternalInvariant means one of the §3 sanity checks failed; this
	// is always a bug in the allocator itself, never a caller error.
	InternalInvariant
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case OutOfSpillSlots:
		return "out of spill slots"
	case NoRegForClass:
		return "no register for class"
	case InternalInvariant:
		return "internal invariant violated"
	default:
		return "unknown error"
	}
}

// AllocError is the single error type returned by Allocate. It reports
// both the kind of failure and the instruction index at which it was
// detected, so callers can point a diagnostic at the offending
// instruction without the allocator knowing how to print one.
type AllocError struct {
	Kind  ErrorKind
	Instr int
	msg   string
}

// Error implements the error interface.
func (e *AllocError) Error() string {
	if e.Instr < 0 {
		return fmt.Sprintf("regalloc: %s: %s", e.Kind, e.msg)
	}
	return fmt.Sprintf("regalloc: %s at instruction %d: %s", e.Kind, e.Instr, e.msg)
}

// fail raises an AllocError by panicking with it. Every exported entry
// point installs a recover that turns this back into a returned error;
// this mirrors the teacher's compilerError/CompileC67WithOptions idiom
// of panicking freely inside the implementation and only converting to
// an error at the single public boundary.
func fail(kind ErrorKind, instr int, format string, args ...any) {
	panic(&AllocError{Kind: kind, Instr: instr, msg: fmt.Sprintf(format, args...)})
}

// recoverAllocError is installed via defer at every exported entry
// point. It leaves *err untouched on a normal return, converts a panic
// carrying an *AllocError into that error, and re-panics anything else
// (a genuine programmer bug we don't want to swallow).
func recoverAllocError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ae, ok := r.(*AllocError); ok {
		*err = ae
		return
	}
	panic(r)
}
