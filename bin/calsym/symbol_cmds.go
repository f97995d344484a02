package main

import (
	"fmt"
	"strconv"
	"strings"

	"calsym"
	"calsym/elf"
	"calsym/layout"
	"calsym/typegraph"
)

func listSymbols(resolver *calsym.Resolver, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	count := 0
	for _, name := range resolver.AllSymbols() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		symbol, _ := resolver.Lookup(name)
		fmt.Printf(
			"  %s: address = 0x%x size = %d type = %s\n",
			name,
			uint64(symbol.Address),
			symbol.ByteSize,
			typeName(symbol.Type))
		count++
	}

	if count == 0 {
		fmt.Println("  (none)")
	}

	return nil
}

func resolveQuery(resolver *calsym.Resolver, args []string) error {
	if len(args) == 0 {
		fmt.Println("expected member path, e.g. struct_b.s1.val_i32")
		return nil
	}

	resolution, err := resolver.Resolve(strings.Join(args, ""))
	if err != nil {
		fmt.Println(err)
		return nil
	}

	printResolution(resolution)
	return nil
}

func resolveAddress(resolver *calsym.Resolver, args []string) error {
	if len(args) == 0 {
		fmt.Println("expected address")
		return nil
	}

	address, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		fmt.Println("invalid address:", args[0])
		return nil
	}

	resolution, err := resolver.ResolveAddress(elf.FileAddress(address))
	if err != nil {
		fmt.Println(err)
		return nil
	}

	printResolution(resolution)
	return nil
}

func printLeaves(resolver *calsym.Resolver, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	return resolver.WalkLeaves(
		func(path string, leaf *layout.Node) error {
			if !strings.HasPrefix(path, prefix) {
				return nil
			}

			fmt.Printf(
				"  0x%08x  %s%s\n",
				uint64(leaf.Address),
				path,
				bitRange(leaf))
			return nil
		})
}

func printBuildErrors(resolver *calsym.Resolver, args []string) error {
	errs := resolver.BuildErrors()
	if len(errs) == 0 {
		fmt.Println("  (none)")
	}

	for _, err := range errs {
		fmt.Println(" ", err)
	}

	return nil
}

func printResolution(resolution *calsym.Resolution) {
	fmt.Printf("%s:\n", resolution.Path)
	printLayoutNode(resolution.Node, "  ")

	if resolution.Calibration != nil {
		fmt.Println("Calibration:")
		printObject(resolution.Calibration)
	}
}

func printLayoutNode(node *layout.Node, indent string) {
	fmt.Printf(
		"%s0x%08x  %s: %s%s\n",
		indent,
		uint64(node.Address),
		displayName(node),
		typeName(node.Type),
		bitRange(node))

	for _, child := range node.Children {
		printLayoutNode(child, indent+"  ")
	}
}

func displayName(node *layout.Node) string {
	if node.Name == "" {
		return "(anonymous)"
	}
	return node.Name
}

func bitRange(node *layout.Node) string {
	if node.BitWidth == 0 || node.BitWidth == int(node.ByteSize)*8 {
		return ""
	}
	return fmt.Sprintf(" bits [%d:%d]", node.BitOffset, node.BitWidth)
}

func typeName(node *typegraph.Node) string {
	if node == nil {
		return "void"
	}

	switch node.Kind {
	case typegraph.KindPointer:
		return "*" + typeName(node.Target)
	case typegraph.KindArray:
		dims := ""
		for _, dim := range node.Dims {
			dims += fmt.Sprintf("[%d]", dim)
		}
		return dims + typeName(node.Element)
	case typegraph.KindFunction:
		return "func"
	}

	if node.Name != "" {
		return node.Name
	}
	return node.Kind.String()
}
