package queue

import "errors"

// Code is the closed set of results a queue operation can report.
type Code int

const (
	Success Code = iota
	UninitializedQueue
	UninitializedItem
	Overflow
	Underflow
	InvalidCapacity
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case UninitializedQueue:
		return "uninitialized queue"
	case UninitializedItem:
		return "uninitialized item"
	case Overflow:
		return "overflow"
	case Underflow:
		return "underflow"
	case InvalidCapacity:
		return "invalid capacity"
	default:
		return "unknown"
	}
}

// Error reports which operation failed and why.
type Error struct {
	Op   string
	Code Code
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "queue: " + e.Code.String()
	}
	return "queue: " + e.Op + ": " + e.Code.String()
}

// Is matches any *Error carrying the same code, so errors.Is works with the
// sentinels regardless of Op.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUninitializedQueue = &Error{Code: UninitializedQueue}
	ErrUninitializedItem  = &Error{Code: UninitializedItem}
	ErrOverflow           = &Error{Code: Overflow}
	ErrUnderflow          = &Error{Code: Underflow}
	ErrInvalidCapacity    = &Error{Code: InvalidCapacity}
)

// CodeOf extracts the queue code from err. nil maps to Success and foreign
// errors to -1.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}

func opErr(op string, code Code) error {
	return &Error{Op: op, Code: code}
}
