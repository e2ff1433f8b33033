// Command fccachectl is a reference client for the stats socket of
// spec.md §6, reproducing the interaction of
// original_source/ipfixprobe_stats.cpp.
package main

import (
	"fmt"
	"os"

	"github.com/flowdeck/fccache/cmd/fccachectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
