// Command tomasulotui is an interactive, single-step debugger for a
// Tomasulo assembly program: the out-of-scope visualization
// collaborator spec.md §1 describes, realized as a thin consumer of
// the engine package's public API.
package main

import (
	"flag"
	"fmt"
	"os"

	"tomasulo/asm"
	"tomasulo/engine"
)

func main() {
	path := flag.String("program", "", "path to an assembly source file (required)")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "tomasulotui: -program is required")
		os.Exit(2)
	}

	src, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasulotui: %v\n", err)
		os.Exit(1)
	}

	instrs, labels, err := asm.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasulotui: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	s := engine.Initialize(instrs, labels, cfg)

	final, err := run(s, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tomasulotui:", err)
		os.Exit(1)
	}
	fmt.Printf("stopped at cycle %d, finished=%v\n", final.Cycle, final.Finished)
}
