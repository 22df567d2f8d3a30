// Package kernel defines the error type shared by all kernel subsystems.
package kernel

// Error describes a kernel error. Kernel errors are defined as package-level
// variables that are pointers to the Error structure so callers can compare
// them by identity (err == pmm.ErrOutOfFrames) or via errors.Is.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// String returns the error message prefixed with the originating module in
// the same "[module] message" format used by the boot log.
func (e *Error) String() string {
	if e == nil {
		return "<nil>"
	}
	return "[" + e.Module + "] " + e.Message
}
