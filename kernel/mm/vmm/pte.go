// Package vmm describes the virtual memory view of the kernel: the address
// space layout and the page table entries that bind virtual pages to
// physical frames.
package vmm

import (
	"github.com/gopheros/kcore/kernel"
	"github.com/gopheros/kcore/kernel/mm"
)

var (
	// ErrFrameOutOfRange is returned when a frame number does not fit in
	// the frame field of a page table entry.
	ErrFrameOutOfRange = &kernel.Error{Module: "vmm", Message: "frame number does not fit in a page table entry"}
)

// PageTableEntryFlag describes a flag that can be applied to a page table entry.
type PageTableEntryFlag uint32

// PageTableEntry describes the binding of a virtual page to a physical frame.
// Only Present, Writable and UserAccessible drive access decisions; the
// remaining flags are advisory. Frame is only meaningful when Present is set.
type PageTableEntry struct {
	Present        bool
	Writable       bool
	UserAccessible bool
	WriteThrough   bool
	CacheDisabled  bool
	Accessed       bool
	Dirty          bool
	Global         bool

	frame mm.Frame
}

// Frame returns the physical page frame that this page table entry points to.
func (pte PageTableEntry) Frame() mm.Frame {
	return pte.frame
}

// SetFrame updates the page table entry to point the the given physical frame.
func (pte *PageTableEntry) SetFrame(frame mm.Frame) *kernel.Error {
	if frame > mm.MaxFrame {
		return ErrFrameOutOfRange
	}

	pte.frame = frame
	return nil
}

// Flags packs the boolean fields of the entry into a flag set.
func (pte PageTableEntry) Flags() PageTableEntryFlag {
	var flags PageTableEntryFlag
	for _, f := range []struct {
		set  bool
		flag PageTableEntryFlag
	}{
		{pte.Present, FlagPresent},
		{pte.Writable, FlagRW},
		{pte.UserAccessible, FlagUserAccessible},
		{pte.WriteThrough, FlagWriteThroughCaching},
		{pte.CacheDisabled, FlagDoNotCache},
		{pte.Accessed, FlagAccessed},
		{pte.Dirty, FlagDirty},
		{pte.Global, FlagGlobal},
	} {
		if f.set {
			flags |= f.flag
		}
	}

	return flags
}

// HasFlags returns true if this entry has all the input flags set.
func (pte PageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return pte.Flags()&flags == flags
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte PageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return pte.Flags()&flags != 0
}

// Word encodes the entry using the 32-bit x86 layout: flags in the low 12
// bits and the frame number in bits 12-31.
func (pte PageTableEntry) Word() uint32 {
	return uint32(pte.frame)<<uint32(mm.PageShift) | uint32(pte.Flags())
}
