// Command benchmark runs the testbench over every scenario and reports how
// each interconnect configuration fared.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv      Output results in CSV format (default: human-readable)
//	-json     Output results in JSON format
//	-seed     Base seed of every scenario
//	-cycles   Cycle at which masters stop generating
//	-faults   Also run the fault injection scenarios
//	-record   Record every transaction into this SQLite database
//
// Example:
//
//	# Run all scenarios with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/axitb/benchmarks"
	"github.com/sarchlab/axitb/recording"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	seed := flag.Int64("seed", 1, "Base seed of every scenario")
	cycles := flag.Uint64("cycles", 2000, "Cycle at which masters stop generating")
	faults := flag.Bool("faults", false, "Also run the fault injection scenarios")
	record := flag.String("record", "", "Record transactions into this SQLite database")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.Seed = *seed
	config.GenCycles = *cycles
	config.Output = os.Stdout

	var tr *recording.TransactionRecorder
	if *record != "" {
		tr = recording.NewTransactionRecorder(recording.New(*record))
		tr.Property("Seed", fmt.Sprint(*seed))
		config.Recorder = tr
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(benchmarks.GetScenarios())
	if *faults {
		harness.AddBenchmarks(benchmarks.GetFaultScenarios())
	}

	human := !*csvOutput && !*jsonOutput
	if human {
		fmt.Println("AXI Testbench Scenario Harness")
		fmt.Println("==============================")
		fmt.Printf("Seed:       %d\n", config.Seed)
		fmt.Printf("Gen Cycles: %d\n", config.GenCycles)
		fmt.Printf("Faults:     %v\n", *faults)
		fmt.Println("")
	}

	results := harness.RunAll()

	if tr != nil {
		tr.End()
	}

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if human {
		fmt.Println("=== Summary ===")
		fmt.Printf("%d/%d scenarios passed\n", len(results)-failed, len(results))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
