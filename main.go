// Package main provides the entry point for cachesim.
// cachesim replays memory access traces through an L1I/L1D/L2 cache
// hierarchy built on Akita.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - Multi-level Cache Hierarchy Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: cachesim run [options] <trace>")
	fmt.Println("       cachesim defaults")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  --config      Path to hierarchy configuration YAML file")
	fmt.Println("  --timing      Path to timing configuration JSON file")
	fmt.Println("  --access-log  Access log file (default cacheLog.txt)")
	fmt.Println("  --image       AArch64 ELF image to preload into memory")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
