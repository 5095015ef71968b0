package allocator

import (
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator/blocklist"
)

// ensureHeapPreallocated performs the first-use heap pre-allocation:
// extend the break by HeapPrealloc and install a single Free block
// spanning it. The flag is set before the attempt, so a failed
// pre-allocation is never retried, even once whatever fraction of the
// span did land is entirely freed again.
func ensureHeapPreallocated() {
	if state.heapPreallocated {
		return
	}

	state.heapPreallocated = true

	base, ok := state.provider.ExtendBreak(state.config.HeapPrealloc)
	if !ok {
		return
	}

	b := blocklist.FromAddr(base)
	b.Size = state.config.HeapPrealloc - blocklist.Meta
	b.Status = blocklist.Free
	state.list.Append(b)
}

// coalescePass walks the list from the head, merging every run of
// list-adjacent Free blocks into their leftmost member. It runs before
// every placement search. Allocated blocks reset the coalescing
// anchor; Mapped blocks are skipped without resetting it, since heap
// blocks can never be physically adjacent across one — skipping past a
// Mapped block without losing the current run keeps list order useful
// as a proxy for physical adjacency among heap blocks only.
func coalescePass() {
	sentinel := state.list.Sentinel()

	var left *blocklist.Block

	node := sentinel.Next
	for node != sentinel {
		next := node.Next

		switch node.Status {
		case blocklist.Allocated:
			left = nil
		case blocklist.Mapped:
			// left unchanged: purely a list-traversal skip.
		case blocklist.Free:
			if left != nil {
				left.Size += blocklist.Meta + node.Size
				state.list.Unlink(node)
			} else {
				left = node
			}
		}

		node = next
	}
}

// bestFit scans the list for the smallest Free block of at least size
// bytes, breaking ties by first occurrence.
func bestFit(size uintptr) *blocklist.Block {
	var best *blocklist.Block

	sentinel := state.list.Sentinel()
	for node := sentinel.Next; node != sentinel; node = node.Next {
		if node.Status == blocklist.Free && node.Size >= size {
			if best == nil || node.Size < best.Size {
				best = node
			}
		}
	}

	return best
}

// split carves a trailing Free block off b once the surplus can hold a
// new descriptor plus at least one payload byte. Otherwise b is left
// untouched and returned whole.
func split(b *blocklist.Block, size uintptr) {
	if b.Size < size+blocklist.Meta+Alignment {
		return
	}

	trailing := blocklist.FromAddr(blocklist.Addr(b) + blocklist.Meta + size)
	trailing.Size = b.Size - size - blocklist.Meta
	trailing.Status = blocklist.Free

	state.list.InsertAfter(b, trailing)

	b.Size = size
}

// lastHeapBlock returns the list tail scanning backward past any
// trailing Mapped blocks, or nil if the list holds no heap blocks at
// all.
func lastHeapBlock() *blocklist.Block {
	sentinel := state.list.Sentinel()

	for node := sentinel.Prev; node != sentinel; node = node.Prev {
		if node.Status != blocklist.Mapped {
			return node
		}
	}

	return nil
}

// acquireHeapBlock runs the full placement engine for a heap-regime
// request of aligned size bytes: pre-allocate on first use, coalesce,
// best-fit and split, fall back to last-block expansion, and finally
// fall back to a fresh block. Returns nil on OS resource exhaustion.
func acquireHeapBlock(size uintptr) *blocklist.Block {
	ensureHeapPreallocated()
	coalescePass()

	if b := bestFit(size); b != nil {
		split(b, size)
		b.Status = blocklist.Allocated

		return b
	}

	if last := lastHeapBlock(); last != nil && last.Status == blocklist.Free {
		delta := size - last.Size

		if _, ok := state.provider.ExtendBreak(delta); !ok {
			return nil
		}

		last.Size = size
		last.Status = blocklist.Allocated

		return last
	}

	base, ok := state.provider.ExtendBreak(blocklist.Meta + size)
	if !ok {
		return nil
	}

	b := blocklist.FromAddr(base)
	b.Size = size
	b.Status = blocklist.Allocated

	state.list.Append(b)

	return b
}

// mmapAlloc obtains a fresh mapped-regime block of exactly size payload
// bytes. Returns nil on mapping failure.
func mmapAlloc(size uintptr) *blocklist.Block {
	base, ok := state.provider.MapAnon(blocklist.Meta + size)
	if !ok {
		return nil
	}

	b := blocklist.FromAddr(base)
	b.Size = size
	b.Status = blocklist.Mapped

	state.list.Append(b)

	return b
}

// unmapBlock releases a Mapped block's entire backing region and
// unlinks it from the list. Unmap failure is fatal: there is no way to
// recover a region the kernel refuses to release.
func unmapBlock(b *blocklist.Block) {
	addr := blocklist.Addr(b)
	size := blocklist.Meta + b.Size

	state.list.Unlink(b)

	if err := state.provider.Unmap(addr, size); err != nil {
		FatalHandler("osmem: unmap of mapped block at %#x (%d bytes) failed: %v", addr, size, err)
	}
}

// findBlockByPayload locates the block whose payload begins at p,
// scanning the list in insertion order.
func findBlockByPayload(p unsafe.Pointer) *blocklist.Block {
	target := uintptr(p) - blocklist.Meta

	sentinel := state.list.Sentinel()
	for node := sentinel.Next; node != sentinel; node = node.Next {
		if blocklist.Addr(node) == target {
			return node
		}
	}

	return nil
}
