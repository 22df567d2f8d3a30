package proc

import (
	"github.com/gopheros/kcore/kernel/mm"
	"github.com/gopheros/kcore/kernel/security"
)

// PID identifies a process. The zero PID marks a free table slot and is never
// assigned to a process.
type PID uint32

// FreePID is the sentinel PID stored in unused table slots.
const FreePID = PID(0)

// AddressSpace is an opaque handle to the address space owned by a process.
type AddressSpace uint32

// Process is a process-control record.
type Process struct {
	PID   PID
	Level security.Level

	AddressSpace AddressSpace

	// StackBase is the lowest address of the stack page bound at creation
	// and StackPointer the initial top of stack inside it.
	StackBase    uintptr
	StackPointer uintptr
	StackFrame   mm.Frame

	CPUTime     uint64
	MemoryUsage mm.Size

	// Token identifies the kernel instance that created the process. It is
	// not a capability.
	Token uint32

	// Locked quarantines the process: every access check it makes is
	// denied. It is only ever set through Table.Lock.
	Locked bool
}

// IsPrivileged returns true if the process may access kernel space.
func (p *Process) IsPrivileged() bool {
	return p.Level.Privileged()
}

func (p *Process) free() bool {
	return p.PID == FreePID
}
