// Package access decides whether a process may touch a virtual address.
package access

import (
	"github.com/gopheros/kcore/kernel/mm/vmm"
	"github.com/gopheros/kcore/kernel/proc"
	"github.com/gopheros/kcore/kernel/status"
	"go.uber.org/zap"
)

// Type describes the kind of access being requested.
type Type uint8

// The supported access types. Read is implied by every access.
const (
	Read  Type = 0
	Write Type = 1 << (iota - 1)
	Execute
)

// Reason explains the outcome of an access decision.
type Reason uint8

// Access decision reasons, listed in evaluation order.
const (
	Allowed Reason = iota
	DeniedLocked
	DeniedKernelSpace
	DeniedNotPresent
	DeniedReadOnly
	DeniedSupervisorPage
)

func (r Reason) String() string {
	switch r {
	case Allowed:
		return "allowed"
	case DeniedLocked:
		return "process locked"
	case DeniedKernelSpace:
		return "kernel space access from unprivileged process"
	case DeniedNotPresent:
		return "page not present"
	case DeniedReadOnly:
		return "write to read-only page"
	case DeniedSupervisorPage:
		return "supervisor page access from unprivileged process"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// PageTable resolves the page table entry that governs an address.
type PageTable interface {
	EntryForAddress(virtAddr uintptr) (vmm.PageTableEntry, bool)
}

// Validator evaluates access requests against the page table. Every denial
// is counted as a security violation; the validator never locks or otherwise
// punishes the offending process.
type Validator struct {
	pages  PageTable
	status *status.SystemStatus
	logger *zap.Logger
}

// NewValidator returns a validator that resolves entries through pages and
// records violations into st.
func NewValidator(pages PageTable, st *status.SystemStatus, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		st = new(status.SystemStatus)
	}

	return &Validator{
		pages:  pages,
		status: st,
		logger: logger.With(zap.String("module", "access")),
	}
}

// Check returns true if p may perform an access of type at on addr.
func (v *Validator) Check(p *proc.Process, addr uintptr, at Type) bool {
	return v.Decide(p, addr, at).Allowed
}

// Decide evaluates the access request and reports why it was allowed or
// denied. The checks run in a fixed order: process lock, kernel space,
// then the page table entry.
func (v *Validator) Decide(p *proc.Process, addr uintptr, at Type) Decision {
	reason := v.evaluate(p, addr, at)
	if reason == Allowed {
		return Decision{Allowed: true, Reason: Allowed}
	}

	v.status.RecordViolation()
	v.logger.Debug("access denied",
		zap.Uint32("pid", uint32(p.PID)),
		zap.Uintptr("addr", addr),
		zap.Bool("write", at&Write != 0),
		zap.Stringer("reason", reason),
	)

	return Decision{Reason: reason}
}

func (v *Validator) evaluate(p *proc.Process, addr uintptr, at Type) Reason {
	if p.Locked {
		return DeniedLocked
	}

	privileged := p.IsPrivileged()
	if vmm.IsKernelAddress(addr) && !privileged {
		return DeniedKernelSpace
	}

	pte, ok := v.pages.EntryForAddress(addr)
	switch {
	case !ok || !pte.Present:
		return DeniedNotPresent
	case at&Write != 0 && !pte.Writable:
		return DeniedReadOnly
	case !pte.UserAccessible && !privileged:
		return DeniedSupervisorPage
	}

	return Allowed
}
