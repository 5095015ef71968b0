package allocator

import (
	"log"
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator/blocklist"
	allocerrors "github.com/orizon-lang/orizon-allocator/internal/errors"
)

// Allocate returns nil for size <= 0, otherwise dispatches to the heap
// or a fresh mapping depending on the aligned size and MmapThreshold.
func Allocate(size int) unsafe.Pointer {
	stateMu.Lock()
	defer stateMu.Unlock()

	ensureSentinel()

	return allocateLocked(size)
}

func allocateLocked(size int) unsafe.Pointer {
	if size <= 0 {
		if size < 0 {
			log.Print(allocerrors.InvalidSize(uintptr(size), "Allocate").Error())
		}

		return nil
	}

	aligned := alignUp(uintptr(size), Alignment)

	var b *blocklist.Block
	if aligned+blocklist.Meta < state.config.MmapThreshold {
		b = acquireHeapBlock(aligned)
	} else {
		b = mmapAlloc(aligned)
	}

	if b == nil {
		return nil
	}

	return blocklist.Payload(b)
}

// Free is a no-op on nil or on an already-Free block, unmaps Mapped
// blocks, and marks Allocated heap blocks Free. It never coalesces —
// coalescing happens eagerly on the next heap-regime allocation.
func Free(p unsafe.Pointer) {
	stateMu.Lock()
	defer stateMu.Unlock()

	ensureSentinel()
	freeLocked(p)
}

func freeLocked(p unsafe.Pointer) {
	if p == nil {
		return
	}

	b := findBlockByPayload(p)
	if b == nil {
		log.Print(allocerrors.PointerArithmetic("Free: unrecognized payload pointer").Error())

		return
	}

	if b.Status == blocklist.Free {
		return
	}

	if b.Status == blocklist.Mapped {
		unmapBlock(b)
		return
	}

	b.Status = blocklist.Free
}

// ZeroAllocate returns nil if either operand is zero, or on
// multiplication/alignment overflow, otherwise dispatches using the
// page-size threshold instead of MmapThreshold and zero-fills the
// payload before returning.
func ZeroAllocate(n, size uintptr) unsafe.Pointer {
	stateMu.Lock()
	defer stateMu.Unlock()

	ensureSentinel()

	if n == 0 || size == 0 {
		return nil
	}

	product := n * size
	aligned := alignUp(product, Alignment)

	if product/size != n || aligned < n || aligned < size {
		log.Print(allocerrors.IntegerOverflow("ZeroAllocate",
			map[string]interface{}{"n": n, "size": size}).Error())

		return nil
	}

	var b *blocklist.Block
	if aligned+blocklist.Meta < state.config.PageSize {
		b = acquireHeapBlock(aligned)
	} else {
		b = mmapAlloc(aligned)
	}

	if b == nil {
		return nil
	}

	p := blocklist.Payload(b)
	zeroFill(p, aligned)

	return p
}

func zeroFill(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	buf := unsafe.Slice((*byte)(p), n)
	for i := range buf {
		buf[i] = 0
	}
}
