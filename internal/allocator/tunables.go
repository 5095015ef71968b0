package allocator

import "syscall"

// Compile-time tunables.
const (
	// Alignment is the granularity every block size is rounded up to.
	Alignment uintptr = 8

	// HeapPrealloc is how much the program break is grown by on the very
	// first heap-regime request, to amortize brk(2) calls for small
	// allocations.
	HeapPrealloc uintptr = 128 * 1024

	// MmapThreshold is the boundary above which Allocate/Reallocate serve
	// a request from a fresh mapping instead of the heap.
	MmapThreshold uintptr = 128 * 1024
)

// pageSize is used in place of MmapThreshold by ZeroAllocate: zero-filled
// buffers are typically large and benefit from page-granular mappings
// regardless of where MmapThreshold happens to be set.
var pageSize = uintptr(syscall.Getpagesize())

// alignUp rounds size up to the nearest multiple of alignment, which must
// be a power of two. Internal helpers beyond this point assume their
// input is already aligned.
func alignUp(size, alignment uintptr) uintptr {
	return (size + alignment - 1) &^ (alignment - 1)
}
