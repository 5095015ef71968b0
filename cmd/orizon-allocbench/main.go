// Command orizon-allocbench drives the allocator through a synthetic
// workload: a mix of allocate, free and reallocate calls against
// randomly chosen sizes, then reports the resulting
// block-list statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"time"
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
	"github.com/orizon-lang/orizon-allocator/internal/allocator/semverinfo"
	"github.com/orizon-lang/orizon-allocator/internal/cli"
	"github.com/orizon-lang/orizon-allocator/internal/config"
)

func main() {
	var (
		showVersion bool
		jsonOutput  bool
		workload    string
		iterations  int
		configFile  string
		watchConfig bool
		seed        int64
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&jsonOutput, "json", false, "output results in JSON format")
	flag.StringVar(&workload, "workload", "mixed", "workload shape: mixed, heap, mapped")
	flag.IntVar(&iterations, "n", 10000, "number of operations to perform")
	flag.StringVar(&configFile, "config", "", "path to a workload config file (JSON)")
	flag.BoolVar(&watchConfig, "watch-config", false, "reload -config on every write while running")
	flag.Int64Var(&seed, "seed", 1, "random seed for the workload generator")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("orizon-allocbench", jsonOutput)
		fmt.Printf("allocator tunables revision: %s\n", semverinfo.Revision)

		return
	}

	if configFile != "" {
		if watchConfig {
			w, err := config.WatchFile(configFile)
			if err != nil {
				cli.ExitWithError("watching config: %v", err)
			}
			defer w.Close()
		} else if _, err := config.Apply(configFile); err != nil {
			cli.ExitWithError("loading config: %v", err)
		}
	}

	logger := cli.NewLogger(false)
	result := runWorkload(logger, workload, iterations, seed)

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			cli.ExitWithError("marshaling results: %v", err)
		}

		fmt.Println(string(data))

		return
	}

	fmt.Printf("workload=%s iterations=%d duration=%s\n", workload, iterations, result.Duration)
	fmt.Printf("allocations=%d frees=%d reallocations=%d failures=%d\n",
		result.Allocations, result.Frees, result.Reallocations, result.Failures)
	fmt.Printf("heap_blocks=%d mapped_blocks=%d heap_bytes_in_use=%d mapped_bytes_in_use=%d\n",
		result.Stats.HeapBlocks, result.Stats.MappedBlocks,
		result.Stats.HeapBytesInUse, result.Stats.MappedBytesInUse)
}

// Result is the JSON/text report shape for a single workload run.
type Result struct {
	Workload      string          `json:"workload"`
	Iterations    int             `json:"iterations"`
	Duration      string          `json:"duration"`
	Allocations   int             `json:"allocations"`
	Frees         int             `json:"frees"`
	Reallocations int             `json:"reallocations"`
	Failures      int             `json:"failures"`
	Stats         allocator.Stats `json:"stats"`
}

func runWorkload(logger *cli.Logger, workload string, iterations int, seed int64) Result {
	rng := rand.New(rand.NewSource(seed))

	live := make([]unsafe.Pointer, 0, iterations)
	res := Result{Workload: workload, Iterations: iterations}

	start := time.Now()

	for i := 0; i < iterations; i++ {
		size := pickSize(rng, workload)

		switch {
		case len(live) > 0 && rng.Intn(4) == 0:
			idx := rng.Intn(len(live))
			p := live[idx]

			if rng.Intn(2) == 0 {
				allocator.Free(p)
				res.Frees++
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
			} else {
				np := allocator.Reallocate(p, size)
				res.Reallocations++

				if np == nil {
					res.Failures++
					live[idx] = live[len(live)-1]
					live = live[:len(live)-1]
				} else {
					live[idx] = np
				}
			}
		default:
			p := allocator.Allocate(size)
			res.Allocations++

			if p == nil {
				res.Failures++
			} else {
				live = append(live, p)
			}
		}

		if i%1000 == 0 {
			logger.Debug("iteration %d: %d live blocks", i, len(live))
		}
	}

	res.Duration = time.Since(start).String()
	res.Stats = allocator.GetStats()

	return res
}

func pickSize(rng *rand.Rand, workload string) int {
	switch workload {
	case "heap":
		return 1 + rng.Intn(int(allocator.MmapThreshold)-1)
	case "mapped":
		return int(allocator.MmapThreshold) + rng.Intn(1<<20)
	default:
		if rng.Intn(20) == 0 {
			return int(allocator.MmapThreshold) + rng.Intn(1<<20)
		}

		return 1 + rng.Intn(4096)
	}
}
