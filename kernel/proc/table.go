// Package proc implements the fixed-capacity process table.
package proc

import (
	"github.com/gopheros/kcore/kernel"
	"github.com/gopheros/kcore/kernel/mm"
	"github.com/gopheros/kcore/kernel/mm/pmm"
	"github.com/gopheros/kcore/kernel/mm/vmm"
	"github.com/gopheros/kcore/kernel/security"
	"github.com/gopheros/kcore/kernel/status"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of process slots used when none is configured.
const DefaultCapacity = 64

var (
	// ErrInvalidSecurityLevel is returned when creating a process with an
	// undefined security level.
	ErrInvalidSecurityLevel = &kernel.Error{Module: "proc", Message: "invalid security level"}

	// ErrTableFull is returned when every process slot is in use.
	ErrTableFull = &kernel.Error{Module: "proc", Message: "process table full"}

	// ErrNoSuchProcess is returned when looking up an unknown PID.
	ErrNoSuchProcess = &kernel.Error{Module: "proc", Message: "no such process"}
)

// FrameAllocator reserves physical frames for process stacks.
type FrameAllocator interface {
	AllocFrame(page mm.Page, profile pmm.AccessProfile) (pmm.FrameBinding, *kernel.Error)
}

// TokenIssuer mints process security tokens.
type TokenIssuer interface {
	IssueToken() uint32
}

// Table is a fixed-capacity arena of process-control records. Slots are
// scanned linearly; a slot whose PID is FreePID is available.
type Table struct {
	slots   []Process
	lastPID PID

	frames FrameAllocator
	tokens TokenIssuer
	status *status.SystemStatus
	logger *zap.Logger
}

// NewTable returns a table with capacity slots that binds process stacks
// using frames and mints tokens using tokens. Counters are recorded into st.
// A nil logger disables logging.
func NewTable(capacity int, frames FrameAllocator, tokens TokenIssuer, st *status.SystemStatus, logger *zap.Logger) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		st = new(status.SystemStatus)
	}

	return &Table{
		slots:  make([]Process, capacity),
		frames: frames,
		tokens: tokens,
		status: st,
		logger: logger.With(zap.String("module", "proc")),
	}
}

// Create allocates a slot for a new process running at level, binds its
// stack page to a physical frame and returns the assigned PID.
//
// Creation is all-or-nothing: if any step fails the slot stays free and
// neither the PID counter nor the token counter advance.
func (t *Table) Create(level security.Level) (PID, *kernel.Error) {
	if !level.Valid() {
		t.status.RecordError(status.InvalidArgument)
		return FreePID, ErrInvalidSecurityLevel
	}

	slot := t.freeSlot()
	if slot < 0 {
		t.status.RecordError(status.TableFull)
		t.logger.Warn("process table full", zap.Int("capacity", len(t.slots)))
		return FreePID, ErrTableFull
	}

	binding, err := t.frames.AllocFrame(mm.PageFromAddress(vmm.StackBase), pmm.AccessProfile{Level: level})
	if err != nil {
		t.status.RecordError(status.ResourceExhausted)
		t.logger.Warn("unable to bind process stack",
			zap.Stringer("level", level),
			zap.String("err", err.Message),
		)
		return FreePID, err
	}

	t.lastPID++
	pid := t.lastPID
	t.slots[slot] = Process{
		PID:          pid,
		Level:        level,
		AddressSpace: AddressSpace(pid),
		StackBase:    vmm.StackBase,
		StackPointer: vmm.StackBase + vmm.StackSize - 4,
		StackFrame:   binding.Frame,
		MemoryUsage:  mm.Size(mm.PageSize),
		Token:        t.tokens.IssueToken(),
	}
	t.status.RecordProcessCreated()

	t.logger.Debug("created process",
		zap.Uint32("pid", uint32(pid)),
		zap.Stringer("level", level),
		zap.Int("slot", slot),
		zap.Uint64("stack_frame", uint64(binding.Frame)),
	)

	return pid, nil
}

// freeSlot returns the index of the lowest free slot or -1 if the table is full.
func (t *Table) freeSlot() int {
	for i := range t.slots {
		if t.slots[i].free() {
			return i
		}
	}
	return -1
}

// Lookup returns the record for pid.
func (t *Table) Lookup(pid PID) (*Process, *kernel.Error) {
	if pid == FreePID {
		return nil, ErrNoSuchProcess
	}

	for i := range t.slots {
		if t.slots[i].PID == pid {
			return &t.slots[i], nil
		}
	}
	return nil, ErrNoSuchProcess
}

// Lock quarantines pid. Locking is never triggered automatically; it is the
// hook for a future violation-response policy.
func (t *Table) Lock(pid PID) *kernel.Error {
	p, err := t.Lookup(pid)
	if err != nil {
		return err
	}

	p.Locked = true
	t.logger.Info("process locked", zap.Uint32("pid", uint32(pid)))
	return nil
}

// Processes returns a copy of the live records in slot order.
func (t *Table) Processes() []Process {
	list := make([]Process, 0, len(t.slots))
	for _, p := range t.slots {
		if !p.free() {
			list = append(list, p)
		}
	}
	return list
}

// FreeSlots returns the number of unused slots.
func (t *Table) FreeSlots() int {
	var count int
	for i := range t.slots {
		if t.slots[i].free() {
			count++
		}
	}
	return count
}

// Capacity returns the number of slots in the table.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// LastPID returns the most recently assigned PID.
func (t *Table) LastPID() PID {
	return t.lastPID
}
