// Package config loads tunable overrides for the allocator from a JSON
// file on disk, the same shape cmd/orizon-config uses for project
// settings: a typed struct, a default, and a best-effort load that
// falls back to the default when the file is absent.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
)

// Workload carries the overrides an operator can tune without
// recompiling: the two regime thresholds and whether the caller
// intends to share one allocator across goroutines.
type Workload struct {
	HeapPrealloc  uintptr `json:"heap_prealloc"`
	MmapThreshold uintptr `json:"mmap_threshold"`
	PageSize      uintptr `json:"page_size,omitempty"`
	Serialize     bool    `json:"serialize"`
}

// Default mirrors the allocator's own compile-time tunables so a
// freshly written config file documents the defaults it overrides.
func Default() *Workload {
	return &Workload{
		HeapPrealloc:  allocator.HeapPrealloc,
		MmapThreshold: allocator.MmapThreshold,
	}
}

// Load reads path and returns a Workload, or the default if path does
// not exist. A malformed file is reported as an error rather than
// silently ignored.
func Load(path string) (*Workload, error) {
	w := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}

		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return w, nil
}

// Save writes w to path as indented JSON.
func (w *Workload) Save(path string) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	return nil
}

// Options converts the Workload into allocator.Option values ready for
// allocator.SetConfig.
func (w *Workload) Options() []allocator.Option {
	opts := []allocator.Option{
		allocator.WithHeapPrealloc(w.HeapPrealloc),
		allocator.WithMmapThreshold(w.MmapThreshold),
		allocator.WithSerialize(w.Serialize),
	}

	if w.PageSize != 0 {
		opts = append(opts, allocator.WithPageSize(w.PageSize))
	}

	return opts
}

// Apply loads path and installs the result as the allocator's active
// configuration.
func Apply(path string) (*Workload, error) {
	w, err := Load(path)
	if err != nil {
		return nil, err
	}

	allocator.SetConfig(w.Options()...)

	return w, nil
}
