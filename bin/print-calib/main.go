package main

import (
	"fmt"
	"os"

	"calsym"
	"calsym/calib"
	"calsym/layout"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("USAGE: print-calib <file>")
		os.Exit(1)
	}

	resolver, err := calsym.Open(os.Args[1], calib.DefaultPolicy())
	if err != nil {
		panic(err)
	}

	fmt.Println("symbols:")
	for _, name := range resolver.AllSymbols() {
		symbol, _ := resolver.Lookup(name)
		fmt.Printf(
			"  %08x %6d %s\n",
			uint64(symbol.Address),
			symbol.ByteSize,
			name)
	}

	fmt.Println("calibrations:")
	for _, object := range resolver.AllCalibrations() {
		fmt.Printf("  %s: %s\n", object.Symbol, object.Kind)
		for idx, axis := range object.Axes {
			source := "internal"
			if !axis.Internal {
				source = axis.SymbolName
			}
			fmt.Printf("    axis %d: %s, %d points\n", idx, source, axis.Length)
		}
	}

	fmt.Println("leaves:")
	err = resolver.WalkLeaves(
		func(path string, leaf *layout.Node) error {
			fmt.Printf("  %08x %s\n", uint64(leaf.Address), path)
			return nil
		})
	if err != nil {
		panic(err)
	}

	defects := resolver.BuildErrors()
	if len(defects) > 0 {
		fmt.Println("defects:")
		for _, defect := range defects {
			fmt.Println(" ", defect)
		}
	}
}
