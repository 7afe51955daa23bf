// Command tomasuloctl runs a Tomasulo assembly program headlessly to
// completion and prints the final machine state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"tomasulo/asm"
	"tomasulo/engine"
)

func main() {
	var (
		path      = flag.String("program", "", "path to an assembly source file (required)")
		maxCycles = flag.Int("max-cycles", 10000, "abort if the program has not finished after this many cycles")
		cacheOff  = flag.Bool("no-cache", false, "disable the data cache")
		mult      = flag.Int("rs-mult", 0, "override the MULT reservation-station count (0 = default)")
		add       = flag.Int("rs-add", 0, "override the ADD reservation-station count (0 = default)")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "tomasuloctl: -program is required")
		os.Exit(2)
	}

	src, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasuloctl: %v\n", err)
		os.Exit(1)
	}

	instrs, labels, err := asm.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasuloctl: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	cfg.Cache.Enabled = !*cacheOff
	if *mult > 0 {
		cfg.RSSizes.MULT = *mult
	}
	if *add > 0 {
		cfg.RSSizes.ADD = *add
	}

	s := engine.Initialize(instrs, labels, cfg)

	for i := 0; i < *maxCycles && !s.Finished; i++ {
		s, err = engine.Step(s, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tomasuloctl: %v\n", err)
			fmt.Println(spew.Sdump(s))
			os.Exit(1)
		}
	}

	if !s.Finished {
		fmt.Fprintf(os.Stderr, "tomasuloctl: did not finish within %d cycles\n", *maxCycles)
	}

	fmt.Println(spew.Sdump(s))
}
