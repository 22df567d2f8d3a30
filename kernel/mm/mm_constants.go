package mm

const (
	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a page number (shift right by PageShift)
	// and vice-versa.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)

	// FrameBits is the number of bits a page table entry uses to encode
	// a physical frame number.
	FrameBits = 20

	// MaxFrame is the highest frame number that fits in a page table entry.
	MaxFrame = Frame(1<<FrameBits - 1)
)
