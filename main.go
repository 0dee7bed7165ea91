// Package main provides the entry point for axitb.
// axitb is a cycle-level AXI4/ACE interconnect testbench built on Akita.
//
// For the full CLI, use: go run ./cmd/axitb
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/axitb/cli"
)

func main() {
	root := cli.NewRootCommand()

	fmt.Println("axitb - " + root.Short)
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Commands:")
	for _, u := range cli.Usage(root) {
		fmt.Printf("  %-24s %s\n", u[0], u[1])
	}
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/axitb' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/axitb' instead.")
	}
}
