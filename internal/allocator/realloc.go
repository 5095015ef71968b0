package allocator

import (
	"log"
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator/blocklist"
	allocerrors "github.com/orizon-lang/orizon-allocator/internal/errors"
)

// Reallocate resizes the block owning p, possibly moving it. A
// successful call may invalidate p; callers must use the returned
// pointer from that point on.
func Reallocate(p unsafe.Pointer, size int) unsafe.Pointer {
	stateMu.Lock()
	defer stateMu.Unlock()

	ensureSentinel()

	if p == nil {
		return allocateLocked(size)
	}

	if size <= 0 {
		freeLocked(p)
		return nil
	}

	b := findBlockByPayload(p)
	if b == nil || b.Status == blocklist.Free {
		log.Print(allocerrors.PointerArithmetic("Reallocate: unrecognized or already-freed payload pointer").Error())

		return nil
	}

	a := alignUp(uintptr(size), Alignment)
	if a == b.Size {
		return p
	}

	if a > b.Size {
		return reallocGrow(b, a)
	}

	return reallocShrink(b, a)
}

// reallocShrink handles a < b.Size.
func reallocShrink(b *blocklist.Block, a uintptr) unsafe.Pointer {
	if b.Status == blocklist.Mapped {
		if a >= state.config.MmapThreshold {
			nb := mmapAlloc(a)
			if nb == nil {
				return nil
			}

			copyPayload(nb, b, minUintptr(a, b.Size))
			unmapBlock(b)

			return blocklist.Payload(nb)
		}

		nb := acquireHeapBlock(a)
		if nb == nil {
			return nil
		}

		copyPayload(nb, b, a)
		unmapBlock(b)

		return blocklist.Payload(nb)
	}

	// b is Allocated on the heap: attempt a split at a, same pointer.
	split(b, a)

	return blocklist.Payload(b)
}

// reallocGrow handles a > b.Size.
func reallocGrow(b *blocklist.Block, a uintptr) unsafe.Pointer {
	if b.Status == blocklist.Mapped {
		nb := mmapAlloc(a)
		if nb == nil {
			return nil
		}

		copyPayload(nb, b, b.Size)
		unmapBlock(b)

		return blocklist.Payload(nb)
	}

	if a >= state.config.MmapThreshold {
		nb := mmapAlloc(a)
		if nb == nil {
			return nil
		}

		copyPayload(nb, b, b.Size)
		b.Status = blocklist.Free

		return blocklist.Payload(nb)
	}

	if lastHeapBlock() == b {
		delta := a - b.Size

		if _, ok := state.provider.ExtendBreak(delta); !ok {
			return nil
		}

		b.Size = a

		return blocklist.Payload(b)
	}

	originalSize := b.Size

	sentinel := state.list.Sentinel()
	node := b.Next

	for node != sentinel && b.Size < a {
		if node.Status == blocklist.Mapped {
			node = node.Next
			continue
		}

		if node.Status != blocklist.Free {
			break
		}

		absorbed := node
		node = node.Next

		b.Size += blocklist.Meta + absorbed.Size
		state.list.Unlink(absorbed)
	}

	if b.Size >= a {
		split(b, a)
		return blocklist.Payload(b)
	}

	nb := acquireHeapBlock(a)
	if nb == nil {
		return nil
	}

	copyPayload(nb, b, originalSize)
	b.Status = blocklist.Free

	return blocklist.Payload(nb)
}

// copyPayload copies n bytes from src's payload to dst's payload using
// Go's built-in copy, which — like memmove — copies correctly even when
// the two ranges overlap (possible in the forward-coalesce fallback,
// where source and destination can share the same heap region).
func copyPayload(dst, src *blocklist.Block, n uintptr) {
	if n == 0 {
		return
	}

	s := unsafe.Slice((*byte)(blocklist.Payload(src)), n)
	d := unsafe.Slice((*byte)(blocklist.Payload(dst)), n)

	copy(d, s)
}

func minUintptr(a, b uintptr) uintptr {
	if a < b {
		return a
	}

	return b
}
