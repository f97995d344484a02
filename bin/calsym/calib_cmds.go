package main

import (
	"fmt"

	"calsym"
	"calsym/calib"
)

func listCalibrations(resolver *calsym.Resolver, args []string) error {
	objects := resolver.AllCalibrations()
	if len(objects) == 0 {
		fmt.Println("  (none)")
	}

	for _, object := range objects {
		printObject(object)
	}

	return nil
}

func classifySymbol(resolver *calsym.Resolver, args []string) error {
	if len(args) == 0 {
		fmt.Println("expected symbol name")
		return nil
	}

	object, err := resolver.Classify(args[0])
	if err != nil {
		fmt.Println(err)
		return nil
	}

	if object == nil {
		fmt.Println("  (not calibration data)")
		return nil
	}

	printObject(object)
	return nil
}

func printObject(object *calib.Object) {
	fmt.Printf("  %s: %s (%d bytes)\n", object.Symbol, object.Kind, object.ByteSize)

	if object.Value != nil && object.Value.Name != "" {
		fmt.Printf("    value member: %s\n", object.Value.Name)
	}

	for idx, axis := range object.Axes {
		where := "internal"
		if !axis.Internal {
			where = axis.SymbolName
		}
		fmt.Printf(
			"    axis %d: %s, %d points\n",
			idx,
			where,
			axis.Length)
	}
}
