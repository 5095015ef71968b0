package osmem

import (
	"fmt"
	"sync"
	"unsafe"
)

// FakeProvider simulates program-break extension with a bump pointer
// over a single pre-allocated Go byte slice. It gives allocator tests a
// deterministic, isolated heap: each scenario constructs its own
// FakeProvider instead of sharing the real process break with every
// other test in the binary.
//
// Mapped regions are simulated with ordinary make([]byte, n) calls kept
// alive in a side table until Unmap, since real mapped blocks occupy
// arbitrary, mutually non-adjacent addresses anyway.
type FakeProvider struct {
	mu       sync.Mutex
	heap     []byte
	used     uintptr
	mapped   map[uintptr][]byte
	failNext bool
}

// NewFakeProvider creates a fake provider whose simulated heap can grow up
// to capacity bytes before ExtendBreak starts failing, mimicking OS
// resource exhaustion.
func NewFakeProvider(capacity uintptr) *FakeProvider {
	return &FakeProvider{
		heap:   make([]byte, capacity),
		mapped: make(map[uintptr][]byte),
	}
}

// FailNextExtend makes the next ExtendBreak call fail once, regardless of
// remaining capacity, to exercise OS-resource-exhaustion paths.
func (f *FakeProvider) FailNextExtend() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

func (f *FakeProvider) ExtendBreak(delta uintptr) (uintptr, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		return 0, false
	}

	if f.used+delta > uintptr(len(f.heap)) {
		return 0, false
	}

	base := uintptr(unsafe.Pointer(&f.heap[0])) + f.used
	f.used += delta

	return base, true
}

func (f *FakeProvider) MapAnon(n uintptr) (uintptr, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := make([]byte, n)
	if len(buf) == 0 && n != 0 {
		return 0, false
	}

	var base uintptr
	if n == 0 {
		base = uintptr(unsafe.Pointer(&buf))
	} else {
		base = uintptr(unsafe.Pointer(&buf[0]))
	}

	f.mapped[base] = buf

	return base, true
}

func (f *FakeProvider) Unmap(base, n uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.mapped[base]; !ok {
		return fmt.Errorf("osmem: unmap of unknown region %#x", base)
	}

	delete(f.mapped, base)

	return nil
}

// BreakUsed reports how many bytes of the simulated heap have been
// committed, so tests can assert that a call did or did not advance the
// program break.
func (f *FakeProvider) BreakUsed() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.used
}
