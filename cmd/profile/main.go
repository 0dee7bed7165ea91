// Package main provides a profiling wrapper for the testbench to identify
// simulation performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/axitb/config"
	"github.com/sarchlab/axitb/timing/platform"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 5*time.Minute, "max duration to run (for profiling)")
	configPath = flag.String("config", "", "testbench configuration JSON file")
	cycles     = flag.Uint64("cycles", 20000, "cycle at which masters stop generating (0 = config value)")
	parallel   = flag.Bool("parallel", false, "use the parallel engine")
)

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if *cycles > 0 {
		cfg.GenCycles = *cycles
		widenAddrMap(cfg)
	}
	if *parallel {
		cfg.Parallel = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	p := platform.MakeBuilder().
		WithConfig(cfg).
		WithLogger(log.New(io.Discard, "", 0)).
		Build()

	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping generation\n", *duration)
		p.Stop.Raise()
	}()

	start := time.Now()
	report, runErr := p.Run()
	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	totals := report.Totals()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Simulated cycles: %d\n", report.Cycles)
	fmt.Printf("Bursts completed: %d\n", totals.RBursts+totals.BResps)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("Cycles/second: %.0f\n",
			float64(report.Cycles)/elapsed.Seconds())
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", runErr)
		os.Exit(1)
	}
}

// widenAddrMap stretches the last range so that long runs keep every
// generated address mapped.
func widenAddrMap(cfg *config.Config) {
	if len(cfg.AddrMap) == 0 {
		return
	}

	lanes := uint64(max(cfg.RdMasterLanes, cfg.WrMasterLanes))
	need := cfg.GenCycles*lanes + cfg.AddrStride + lanes*uint64(cfg.MaxIncrLen)

	last := &cfg.AddrMap[len(cfg.AddrMap)-1]
	if last.High < need {
		last.High = need
	}
}
