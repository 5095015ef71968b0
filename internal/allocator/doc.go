// Package allocator implements a general-purpose dynamic memory allocator
// for a single-threaded mutator, built directly on program-break extension
// and anonymous memory mapping rather than on Go's own garbage-collected
// heap. It exposes four operations — Allocate, Free, ZeroAllocate and
// Reallocate — matching malloc/free/calloc/realloc.
//
// The core is the block registry and placement engine: a circular
// doubly-linked list of block descriptors that decides, per request,
// whether to serve from the heap (program break) or from a fresh mapping,
// performs best-fit search, splitting, coalescing and in-place expansion
// on the heap, and preserves payload contents across reallocations that
// migrate a block between regimes.
package allocator
