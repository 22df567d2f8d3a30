// Package status tracks the kernel-wide counters reported by the monitor.
package status

import "github.com/google/uuid"

// ErrorCode identifies the last error recorded by a kernel subsystem.
type ErrorCode uint8

// The supported error codes.
const (
	None ErrorCode = iota
	TableFull
	ResourceExhausted
	InvalidArgument
	CapacityMisconfigured
	InitFailed
)

func (c ErrorCode) String() string {
	switch c {
	case None:
		return "none"
	case TableFull:
		return "table-full"
	case ResourceExhausted:
		return "resource-exhausted"
	case InvalidArgument:
		return "invalid-argument"
	case CapacityMisconfigured:
		return "capacity-misconfigured"
	case InitFailed:
		return "init-failed"
	default:
		return "unknown"
	}
}

// State describes the lifecycle state of the kernel.
type State uint8

// The kernel lifecycle states.
const (
	Off State = iota
	Running
	Halted
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// SystemStatus aggregates the kernel counters. Subsystems hold a pointer to
// the single SystemStatus owned by the monitor and update it in place.
type SystemStatus struct {
	BootID uuid.UUID
	State  State

	UptimeTicks           uint64
	TotalProcessesCreated uint32
	ActiveProcesses       uint32
	MemoryUsedFrames      uint32
	SecurityViolations    uint32
	LastErrorCode         ErrorCode
}

// RecordError stores code as the last error.
func (s *SystemStatus) RecordError(code ErrorCode) {
	s.LastErrorCode = code
}

// RecordViolation increments the security violation counter.
func (s *SystemStatus) RecordViolation() {
	s.SecurityViolations++
}

// RecordProcessCreated updates the counters after a successful process creation.
func (s *SystemStatus) RecordProcessCreated() {
	s.TotalProcessesCreated++
	s.ActiveProcesses++
}

// Snapshot returns a copy of the current counters.
func (s *SystemStatus) Snapshot() SystemStatus {
	return *s
}
