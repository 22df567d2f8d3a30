package vmm

import "github.com/gopheros/kcore/kernel/mm"

const (
	// KernelSpaceStart is the first virtual address of the kernel half of
	// the address space. Only privileged processes may touch addresses at
	// or above it.
	KernelSpaceStart = uintptr(0xc0000000)

	// UserSpaceTop is the first address past the end of user space.
	UserSpaceTop = KernelSpaceStart

	// StackSize is the size of the stack bound to each process at creation.
	StackSize = mm.PageSize

	// StackBase is the lowest address of the per-process stack region.
	StackBase = UserSpaceTop - StackSize
)

const (
	// FlagPresent is set when the page is available in memory and not swapped out.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this page. If
	// not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and write-back
	// caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set when this page is accessed.
	FlagAccessed

	// FlagDirty is set when this page is modified.
	FlagDirty

	// bit 7 is the page size bit which this core does not use.
	_

	// FlagGlobal if set, prevents the TLB from flushing the cached memory address
	// for this page when the swapping page tables by updating the CR3 register.
	FlagGlobal
)

// IsKernelAddress returns true if virtAddr lies in the kernel half of the
// address space.
func IsKernelAddress(virtAddr uintptr) bool {
	return virtAddr >= KernelSpaceStart
}
