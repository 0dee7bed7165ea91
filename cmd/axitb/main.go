// Command axitb runs the AXI width-converting testbench.
//
// Usage:
//
//	axitb run [flags]
//	axitb config default [--out FILE]
//	axitb config validate FILE
//
// Defaults for --config and --seed may be supplied through AXITB_CONFIG and
// AXITB_SEED, either in the environment or in a .env file.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/axitb/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
