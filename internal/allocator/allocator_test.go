package allocator

import (
	"testing"
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator/blocklist"
	"github.com/orizon-lang/orizon-allocator/internal/allocator/semverinfo"
	"github.com/orizon-lang/orizon-allocator/internal/osmem"
)

// freshState gives each test its own simulated heap so scenarios never
// observe each other's program-break growth.
func freshState(t *testing.T) *osmem.FakeProvider {
	t.Helper()

	fake := osmem.NewFakeProvider(8 * 1024 * 1024)
	SetProvider(fake)
	Reset()

	return fake
}

func writePattern(p unsafe.Pointer, n int, seed byte) {
	buf := unsafe.Slice((*byte)(p), n)
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

func checkPattern(t *testing.T, p unsafe.Pointer, n int, seed byte) {
	t.Helper()

	buf := unsafe.Slice((*byte)(p), n)
	for i := range buf {
		if buf[i] != seed+byte(i) {
			t.Fatalf("pattern mismatch at byte %d: got %d want %d", i, buf[i], seed+byte(i))
		}
	}
}

func TestAllocateAlignment(t *testing.T) {
	freshState(t)

	for _, n := range []int{1, 3, 7, 8, 9, 100, 4096} {
		p := Allocate(n)
		if p == nil {
			t.Fatalf("Allocate(%d) returned nil", n)
		}

		if uintptr(p)%8 != 0 {
			t.Errorf("Allocate(%d) = %p is not 8-byte aligned", n, p)
		}
	}
}

func TestAllocateZeroOrNegativeReturnsNil(t *testing.T) {
	freshState(t)

	if p := Allocate(0); p != nil {
		t.Error("Allocate(0) should return nil")
	}

	if p := Allocate(-1); p != nil {
		t.Error("Allocate(-1) should return nil")
	}
}

func TestRoundTripIntegrity(t *testing.T) {
	freshState(t)

	for _, n := range []int{1, 8, 64, 4096} {
		p := Allocate(n)
		if p == nil {
			t.Fatalf("Allocate(%d) failed", n)
		}

		writePattern(p, n, 0x42)
		checkPattern(t, p, n, 0x42)

		Free(p)
	}
}

func TestFreeIdempotent(t *testing.T) {
	freshState(t)

	p := Allocate(64)
	if p == nil {
		t.Fatal("Allocate failed")
	}

	Free(p)
	Free(p) // must not panic or corrupt state

	stats := GetStats()
	if stats.HeapBytesInUse != 0 {
		t.Errorf("expected 0 bytes in use after double free, got %d", stats.HeapBytesInUse)
	}
}

func TestFreeNil(t *testing.T) {
	freshState(t)
	Free(nil) // must be a no-op
}

// Freeing non-adjacent neighbors then freeing the block between them
// should let a later allocation reuse the coalesced run without
// growing the break.
func TestScenarioSplitAndCoalesce(t *testing.T) {
	fake := freshState(t)

	a := Allocate(32)
	b := Allocate(32)
	c := Allocate(32)

	if a == nil || b == nil || c == nil {
		t.Fatal("initial allocations failed")
	}

	Free(a)
	Free(c)

	usedBefore := fake.BreakUsed()

	d := Allocate(32)
	if d == nil {
		t.Fatal("Allocate(32) after freeing a and c failed")
	}

	if fake.BreakUsed() != usedBefore {
		t.Error("reusing a freed block should not advance the program break")
	}

	Free(b)

	usedBefore = fake.BreakUsed()

	e := Allocate(96)
	if e == nil {
		t.Fatal("Allocate(96) after coalescing should succeed without growing the break")
	}

	if fake.BreakUsed() != usedBefore {
		t.Error("coalesced run should satisfy Allocate(96) without growing the break")
	}
}

// Allocations above MmapThreshold should be served from fresh mappings,
// never from the heap.
func TestScenarioMappedRegime(t *testing.T) {
	fake := freshState(t)

	usedBefore := fake.BreakUsed()

	p := Allocate(200 * 1024)
	if p == nil {
		t.Fatal("Allocate(200KiB) failed")
	}

	if fake.BreakUsed() != usedBefore {
		t.Error("a 200KiB allocation should be served from a mapping, not the heap")
	}

	Free(p)

	usedBefore = fake.BreakUsed()

	q := Allocate(200 * 1024)
	if q == nil {
		t.Fatal("second Allocate(200KiB) failed")
	}

	if fake.BreakUsed() != usedBefore {
		t.Error("repeated 200KiB allocation should again be mapped, not heap-served")
	}

	Free(q)
}

// Growing the last heap block in place should extend the break by
// exactly the size delta and keep the same pointer.
func TestScenarioReallocateGrowInPlace(t *testing.T) {
	fake := freshState(t)

	// Size the pre-allocation to hold exactly one 64-byte block, so p is
	// not split off a larger span and really is the last heap block.
	SetConfig(WithHeapPrealloc(blocklist.Meta + 64))

	p := Allocate(64)
	if p == nil {
		t.Fatal("Allocate(64) failed")
	}

	usedBefore := fake.BreakUsed()

	q := Reallocate(p, 128)
	if q != p {
		t.Errorf("expected in-place growth to keep the same pointer, got %p want %p", q, p)
	}

	if fake.BreakUsed()-usedBefore != 64 {
		t.Errorf("expected the break to advance by 64 bytes, advanced by %d", fake.BreakUsed()-usedBefore)
	}
}

// Growing a heap block past MmapThreshold should migrate it to a
// fresh mapping and preserve its contents.
func TestScenarioReallocateMigrateHeapToMapped(t *testing.T) {
	freshState(t)

	p := Allocate(64)
	if p == nil {
		t.Fatal("Allocate(64) failed")
	}

	writePattern(p, 64, 0x7)

	q := Reallocate(p, 200*1024)
	if q == nil {
		t.Fatal("Reallocate to 200KiB failed")
	}

	if q == p {
		t.Error("migrating to the mapped regime must return a different pointer")
	}

	checkPattern(t, q, 64, 0x7)
}

// Shrinking a mapped block below MmapThreshold should migrate it back
// to the heap and preserve its contents.
func TestScenarioReallocateShrinkMappedToHeap(t *testing.T) {
	freshState(t)

	p := Allocate(200 * 1024)
	if p == nil {
		t.Fatal("Allocate(200KiB) failed")
	}

	writePattern(p, 32, 0x9)

	q := Reallocate(p, 32)
	if q == nil {
		t.Fatal("Reallocate to 32 bytes failed")
	}

	checkPattern(t, q, 32, 0x9)
}

// ZeroAllocate must reject an n*size product that overflows uintptr
// without touching allocator state.
func TestScenarioZeroAllocateOverflow(t *testing.T) {
	fake := freshState(t)

	usedBefore := fake.BreakUsed()

	p := ZeroAllocate(^uintptr(0)/2, 4)
	if p != nil {
		t.Error("ZeroAllocate with an overflowing product should return nil")
	}

	if fake.BreakUsed() != usedBefore {
		t.Error("a failed ZeroAllocate must not change allocator state")
	}
}

// Free(nil), Reallocate(nil, n) and Reallocate(p, 0) are the documented
// null/zero edge cases.
func TestScenarioNullAndZeroEdgeCases(t *testing.T) {
	freshState(t)

	Free(nil)

	p := Reallocate(nil, 64)
	if p == nil {
		t.Fatal("Reallocate(nil, 64) should behave as Allocate(64)")
	}

	q := Reallocate(p, 0)
	if q != nil {
		t.Error("Reallocate(p, 0) should return nil")
	}

	stats := GetStats()
	if stats.HeapBytesInUse != 0 {
		t.Errorf("expected 0 bytes in use after Reallocate(p, 0), got %d", stats.HeapBytesInUse)
	}
}

func TestReallocatePreservesPrefix(t *testing.T) {
	freshState(t)

	p := Allocate(40)
	if p == nil {
		t.Fatal("Allocate(40) failed")
	}

	writePattern(p, 40, 0x11)

	q := Reallocate(p, 20)
	if q == nil {
		t.Fatal("shrinking Reallocate failed")
	}

	checkPattern(t, q, 20, 0x11)
}

func TestReallocateUnknownPointerFails(t *testing.T) {
	freshState(t)

	var x [8]byte

	if p := Reallocate(unsafe.Pointer(&x[0]), 16); p != nil {
		t.Error("Reallocate on an unknown pointer should return nil")
	}
}

func TestNoAdjacentFreeAfterOperations(t *testing.T) {
	freshState(t)

	blocks := make([]unsafe.Pointer, 0, 8)
	for i := 0; i < 8; i++ {
		p := Allocate(16)
		if p == nil {
			t.Fatalf("Allocate(16) #%d failed", i)
		}

		blocks = append(blocks, p)
	}

	for i := 0; i < len(blocks); i += 2 {
		Free(blocks[i])
	}

	// Force a coalesce pass via any heap allocation.
	Allocate(8)

	var prevFree bool

	state.list.Iterate(func(b *blocklist.Block) bool {
		if b.Status == blocklist.Free && prevFree {
			t.Error("found two adjacent Free blocks after a coalesce pass")
		}

		prevFree = b.Status == blocklist.Free

		return true
	})
}

func TestExtendBreakFailureReturnsNil(t *testing.T) {
	// A zero-capacity heap means every ExtendBreak call fails: the
	// one-shot failure consumed by ensureHeapPreallocated's attempt, and
	// the fresh-block fallback's own attempt in acquireHeapBlock, since
	// there is no capacity for either to succeed against.
	fake := osmem.NewFakeProvider(0)
	SetProvider(fake)
	Reset()

	fake.FailNextExtend()

	// The very first Allocate triggers ensureHeapPreallocated, which
	// consumes this failure and leaves heapPreallocated permanently true
	// (a failed pre-allocation is never retried). The subsequent
	// fresh-block extend in acquireHeapBlock then fails on its own,
	// against zero remaining capacity.
	if p := Allocate(16); p != nil {
		t.Error("Allocate should fail when the heap has no capacity to extend into")
	}

	stats := GetStats()
	if !stats.HeapPreallocated {
		t.Error("a failed pre-allocation attempt must still be marked as attempted")
	}
}

func TestSemverRevisionParses(t *testing.T) {
	if ok, err := semverinfo.Satisfies("^1.0.0"); err != nil || !ok {
		t.Errorf("expected the current revision to satisfy ^1.0.0, got ok=%v err=%v", ok, err)
	}
}
