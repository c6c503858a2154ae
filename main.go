// Command ptaxisim provides the entry point for the ptaxi tag-propagation
// and policy-enforcement engine's reference CLI.
//
// For the full CLI, use: go run ./cmd/ptaxi-run
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ptaxi - tag-propagation and policy-enforcement engine")
	fmt.Println("")
	fmt.Println("Usage: ptaxi-run [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -bench       collect benchmark counters and print the RESULT CSV line")
	fmt.Println("  -policies    path to a JSON policy-fixture file")
	fmt.Println("  -max-insns   stop after this many retired instructions")
	fmt.Println("  -v           verbose engine logging")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ptaxi-run' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ptaxi-run' instead.")
	}
}
