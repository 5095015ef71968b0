package allocator

// Config carries runtime overrides for the otherwise compile-time
// tunables, following a functional-options shape: construction-time
// configuration, bare methods on the hot path.
//
// The four public operations (Allocate/Free/ZeroAllocate/Reallocate)
// never take a Config argument — only SetConfig (used by the CLI driver
// and by tests) does, matching that split.
type Config struct {
	HeapPrealloc  uintptr
	MmapThreshold uintptr
	PageSize      uintptr
	Serialize     bool
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		HeapPrealloc:  HeapPrealloc,
		MmapThreshold: MmapThreshold,
		PageSize:      pageSize,
	}
}

// WithHeapPrealloc overrides the one-time heap pre-allocation size.
func WithHeapPrealloc(n uintptr) Option {
	return func(c *Config) { c.HeapPrealloc = n }
}

// WithMmapThreshold overrides the heap/mapped-regime boundary used by
// Allocate and Reallocate.
func WithMmapThreshold(n uintptr) Option {
	return func(c *Config) { c.MmapThreshold = n }
}

// WithPageSize overrides the threshold ZeroAllocate uses in place of
// MmapThreshold. Tests use this to avoid depending on the host's real
// page size.
func WithPageSize(n uintptr) Option {
	return func(c *Config) { c.PageSize = n }
}

// WithSerialize documents intent to share one allocator across
// goroutines. The package already guards its global bookkeeping with a
// single mutex held for the entire duration of every public call; this
// option exists so callers can record that they rely on that guarantee
// rather than treating it as an implementation detail. The allocator
// otherwise remains designed for a single mutator: it does no
// finer-grained locking, retry, or backoff.
func WithSerialize(enabled bool) Option {
	return func(c *Config) { c.Serialize = enabled }
}

// SetConfig applies options and installs the result as the active
// configuration. It does not reset the block list — pair it with Reset
// when starting a fresh scenario.
func SetConfig(opts ...Option) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	stateMu.Lock()
	state.config = cfg
	stateMu.Unlock()
}
