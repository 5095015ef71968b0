package allocator

import (
	"log"
	"sync"

	"github.com/orizon-lang/orizon-allocator/internal/allocator/blocklist"
	"github.com/orizon-lang/orizon-allocator/internal/osmem"
)

// allocatorState is the process-wide singleton: the sentinel list plus
// the two lazily-initialized flags. A single instance is scoped to the
// package — there is exactly one allocator per process, matching the
// resource it wraps (one program break, one address space).
type allocatorState struct {
	list             blocklist.List
	provider         osmem.Provider
	config           *Config
	sentinelInit     bool
	heapPreallocated bool
}

var (
	stateMu sync.Mutex
	state   = &allocatorState{
		provider: osmem.System,
		config:   defaultConfig(),
	}
)

// FatalHandler is invoked when an operation hits a critical invariant
// violation — currently only an unmap failure. It defaults to
// log.Fatalf so production use crashes loudly, but tests can override
// it to capture the failure instead of exiting the process.
var FatalHandler = func(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

// ensureSentinel lazily initializes the list on first use.
func ensureSentinel() {
	if state.sentinelInit {
		return
	}

	state.list.Init()
	state.sentinelInit = true
}

// SetProvider installs a custom OS primitives adapter, for tests that
// want a FakeProvider instead of the real program break and mmap.
func SetProvider(p osmem.Provider) {
	stateMu.Lock()
	defer stateMu.Unlock()

	state.provider = p
}

// Reset reinitializes the sentinel, the pre-allocation flag and the
// active Config, for test isolation between scenarios. It does not and
// cannot shrink a real program break; pair it with a fresh FakeProvider
// (see internal/osmem) for true per-scenario isolation.
func Reset() {
	stateMu.Lock()
	defer stateMu.Unlock()

	state.list.Init()
	state.sentinelInit = true
	state.heapPreallocated = false
	state.config = defaultConfig()
}

// Stats reports allocator-wide counters by walking the live block list.
type Stats struct {
	HeapBlocks       int
	MappedBlocks     int
	HeapBytesInUse   uintptr
	MappedBytesInUse uintptr
	HeapPreallocated bool
}

// GetStats walks the block list and summarizes it. O(n) in the number of
// live blocks, matching blocklist.List.Iterate's cost.
func GetStats() Stats {
	stateMu.Lock()
	defer stateMu.Unlock()

	var s Stats

	s.HeapPreallocated = state.heapPreallocated

	if !state.sentinelInit {
		return s
	}

	state.list.Iterate(func(b *blocklist.Block) bool {
		switch b.Status {
		case blocklist.Mapped:
			s.MappedBlocks++
			s.MappedBytesInUse += b.Size
		case blocklist.Allocated:
			s.HeapBlocks++
			s.HeapBytesInUse += b.Size
		case blocklist.Free:
			s.HeapBlocks++
		}

		return true
	})

	return s
}
