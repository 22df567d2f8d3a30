// Package pmm contains code that manages physical memory frame allocations.
package pmm

import (
	"math/bits"

	"github.com/gopheros/kcore/kernel"
	"github.com/gopheros/kcore/kernel/mm"
	"github.com/gopheros/kcore/kernel/mm/vmm"
	"github.com/gopheros/kcore/kernel/security"
)

// DefaultCapacity is the number of frames managed by a pool when no
// capacity is configured.
const DefaultCapacity = 1024

var (
	// ErrCapacity is returned by Init when the requested capacity or
	// reserved frame count cannot be represented by the pool.
	ErrCapacity = &kernel.Error{Module: "pmm", Message: "invalid pool capacity or reserved frame count"}

	// ErrAlreadyInitialized is returned when Init is invoked more than once.
	ErrAlreadyInitialized = &kernel.Error{Module: "pmm", Message: "frame pool already initialized"}

	// ErrNotInitialized is returned when allocating from a pool whose
	// Init call did not succeed.
	ErrNotInitialized = &kernel.Error{Module: "pmm", Message: "frame pool not initialized"}

	// ErrOutOfFrames is returned when the pool has no free frames left.
	ErrOutOfFrames = &kernel.Error{Module: "pmm", Message: "out of memory"}
)

// AccessProfile describes who a frame is being allocated for.
type AccessProfile struct {
	Level security.Level
}

// FrameBinding describes a page that has been bound to a physical frame.
type FrameBinding struct {
	Page  mm.Page
	Frame mm.Frame
}

// PageFramePool implements a physical frame allocator over a fixed number of
// frames. Frame availability is tracked by a bitmap where a set bit marks a
// free frame. Frame i lives in block i/64 at bit (63 - i%64) so a left-to-right
// scan of the bitmap visits frames in ascending order.
//
// Frames are never released: the pool only hands out frames.
type PageFramePool struct {
	initialized bool

	// capacity is the number of frames managed by the pool.
	capacity uint32

	// freeCount tracks the available frames in the pool. The allocator
	// uses this field to fail fast without scanning the bitmap.
	freeCount uint32

	// freeBitmap tracks used/free frames in the pool.
	freeBitmap []uint64

	// pageTable holds the entries installed by AllocFrame. Pages without
	// an entry are treated as not present.
	pageTable map[mm.Page]vmm.PageTableEntry
}

// Init sets up the pool to manage capacity frames and marks the first
// reservedCount frames as used. Init fails with ErrCapacity if reservedCount
// exceeds capacity or if capacity is zero or cannot be encoded in a page
// table entry; the pool remains unusable in that case.
func (p *PageFramePool) Init(capacity, reservedCount uint32) *kernel.Error {
	if p.initialized {
		return ErrAlreadyInitialized
	}

	if capacity == 0 || reservedCount > capacity || mm.Frame(capacity-1) > mm.MaxFrame {
		return ErrCapacity
	}

	p.capacity = capacity
	p.freeBitmap = make([]uint64, (capacity+63)>>6)
	p.pageTable = make(map[mm.Page]vmm.PageTableEntry)
	p.freeCount = 0

	for frame := mm.Frame(reservedCount); frame < mm.Frame(capacity); frame++ {
		p.markFrame(frame, markFree)
	}

	p.initialized = true
	return nil
}

type markAs bool

const (
	markReserved markAs = false
	markFree     markAs = true
)

// markFrame updates the bitmap bit for frame and adjusts the free counter.
// Calls for frames outside the pool or that do not change the frame state
// are a no-op.
func (p *PageFramePool) markFrame(frame mm.Frame, flag markAs) {
	if frame >= mm.Frame(p.capacity) {
		return
	}

	block := frame >> 6
	mask := uint64(1 << (63 - (frame - block<<6)))
	isFree := p.freeBitmap[block]&mask != 0

	switch {
	case flag == markFree && !isFree:
		p.freeBitmap[block] |= mask
		p.freeCount++
	case flag == markReserved && isFree:
		p.freeBitmap[block] &^= mask
		p.freeCount--
	}
}

// AllocFrame reserves the lowest-numbered free frame and binds it to page.
// The installed page table entry is present and writable; it is user
// accessible unless the profile describes a kernel-level caller.
//
// AllocFrame returns ErrOutOfFrames without modifying the pool if no free
// frame is left.
func (p *PageFramePool) AllocFrame(page mm.Page, profile AccessProfile) (FrameBinding, *kernel.Error) {
	if !p.initialized {
		return FrameBinding{Page: page, Frame: mm.InvalidFrame}, ErrNotInitialized
	}

	if p.freeCount == 0 {
		return FrameBinding{Page: page, Frame: mm.InvalidFrame}, ErrOutOfFrames
	}

	for blockIndex, block := range p.freeBitmap {
		if block == 0 {
			continue
		}

		frame := mm.Frame(blockIndex<<6 + bits.LeadingZeros64(block))
		if frame >= mm.Frame(p.capacity) {
			break
		}

		pte := vmm.PageTableEntry{
			Present:        true,
			Writable:       true,
			UserAccessible: profile.Level > security.Kernel,
		}
		if err := pte.SetFrame(frame); err != nil {
			return FrameBinding{Page: page, Frame: mm.InvalidFrame}, err
		}

		p.markFrame(frame, markReserved)
		p.pageTable[page] = pte

		return FrameBinding{Page: page, Frame: frame}, nil
	}

	return FrameBinding{Page: page, Frame: mm.InvalidFrame}, ErrOutOfFrames
}

// Entry returns the page table entry installed for page.
func (p *PageFramePool) Entry(page mm.Page) (vmm.PageTableEntry, bool) {
	pte, ok := p.pageTable[page]
	return pte, ok
}

// EntryForAddress returns the page table entry for the page containing virtAddr.
func (p *PageFramePool) EntryForAddress(virtAddr uintptr) (vmm.PageTableEntry, bool) {
	return p.Entry(mm.PageFromAddress(virtAddr))
}

// IsFree returns true if frame is managed by the pool and not allocated.
func (p *PageFramePool) IsFree(frame mm.Frame) bool {
	if frame >= mm.Frame(p.capacity) {
		return false
	}

	block := frame >> 6
	return p.freeBitmap[block]&(1<<(63-(frame-block<<6))) != 0
}

// Initialized returns true once Init has succeeded.
func (p *PageFramePool) Initialized() bool { return p.initialized }

// Capacity returns the number of frames managed by the pool.
func (p *PageFramePool) Capacity() uint32 { return p.capacity }

// FreeCount returns the number of frames available for allocation.
func (p *PageFramePool) FreeCount() uint32 { return p.freeCount }

// UsedCount returns the number of reserved or allocated frames.
func (p *PageFramePool) UsedCount() uint32 { return p.capacity - p.freeCount }

// MappedPages returns the number of pages with an installed entry.
func (p *PageFramePool) MappedPages() int { return len(p.pageTable) }
