// Package calsym resolves calibration symbols in ELF images.  It
// reconstructs the type graph from DWARF debug info, expands symbol
// layouts down to addressed leaves, and classifies symbols into
// calibration shapes.
package calsym

import (
	"fmt"
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"calsym/calib"
	"calsym/dwarf"
	"calsym/elf"
	"calsym/layout"
	"calsym/target"
	"calsym/typegraph"
)

// Layouts are cheap to rebuild but queries tend to revisit the same
// handful of symbols, so keep a small hot set.
const layoutCacheSize = 512

type UnknownSymbolError struct {
	Name string
}

func (err *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol (%s)", err.Name)
}

type UnknownMemberError struct {
	Path string
	Step PathStep
}

func (err *UnknownMemberError) Error() string {
	return fmt.Sprintf("%s has no member %s", err.Path, err.Step)
}

// Symbol is a statically allocated variable with a reconstructed type.
type Symbol struct {
	Name    string
	Address elf.FileAddress

	// From the ELF symbol table entry when present, otherwise the
	// type's size.
	ByteSize uint64

	Type *typegraph.Node
}

// Resolution is the result of a symbol query.
type Resolution struct {
	Path   *SymbolPath
	Symbol *Symbol

	// The layout subtree the path selects; the whole symbol when the
	// path has no member steps.
	Node *layout.Node

	// nil when the selected data is not calibration shaped.
	Calibration *calib.Object
}

// Resolver is the engine facade.  Construction parses the image and
// builds the type graph; afterwards all methods are read only and safe
// for concurrent use.
type Resolver struct {
	File  *elf.File
	Debug *dwarf.File

	desc  target.Descriptor
	graph *typegraph.Graph

	symbols map[string]*Symbol

	// mangled or demangled symbol table spellings of known symbols
	aliases map[string]string

	// sorted symbol names, the iteration order of AllSymbols and
	// WalkLeaves
	names []string

	layouts    *lru.Cache[string, *layout.Node]
	classifier *calib.Classifier

	buildErrors []error
}

func NewResolver(
	file *elf.File,
	policy calib.AxisPolicy,
) (
	*Resolver,
	error,
) {
	desc, err := target.FromELF(file)
	if err != nil {
		return nil, err
	}

	debug, err := dwarf.NewFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse debug info: %w", err)
	}

	store, variables, err := ingestDebugEntries(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to parse debug info: %w", err)
	}

	graph, buildErrors := typegraph.Build(store, desc)

	layouts, err := lru.New[string, *layout.Node](layoutCacheSize)
	if err != nil {
		panic("should never happen")
	}

	resolver := &Resolver{
		File:        file,
		Debug:       debug,
		desc:        desc,
		graph:       graph,
		symbols:     map[string]*Symbol{},
		aliases:     map[string]string{},
		layouts:     layouts,
		buildErrors: buildErrors,
	}

	resolver.classifier = calib.NewClassifier(policy, file, desc)
	resolver.collectSymbols(variables)

	return resolver, nil
}

// Open parses the ELF image at path and constructs a resolver over it.
func Open(path string, policy calib.AxisPolicy) (*Resolver, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file, err := elf.ParseBytes(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return NewResolver(file, policy)
}

func (resolver *Resolver) collectSymbols(variables []variableInfo) {
	symbolTable, hasSymbolTable := resolver.File.SymbolTable()

	for _, variable := range variables {
		_, exists := resolver.symbols[variable.name]
		if exists {
			// Function statics may shadow each other; the first
			// definition wins.
			continue
		}

		node, ok := resolver.graph.Node(variable.typeRef)
		if !ok {
			resolver.buildErrors = append(
				resolver.buildErrors,
				&typegraph.DanglingTypeReferenceError{
					Ref: variable.typeRef,
				})
			continue
		}

		symbol := &Symbol{
			Name:     variable.name,
			Address:  variable.address,
			ByteSize: node.ByteSize,
			Type:     node,
		}

		if hasSymbolTable {
			for _, entry := range symbolTable.SymbolsByName(variable.name) {
				if entry.Size > 0 {
					symbol.ByteSize = entry.Size
				}
				if entry.Name != variable.name {
					resolver.aliases[entry.Name] = variable.name
				}
				if entry.DemangledName != "" &&
					entry.DemangledName != variable.name {

					resolver.aliases[entry.DemangledName] = variable.name
				}
			}
		}

		resolver.symbols[variable.name] = symbol
		resolver.names = append(resolver.names, variable.name)
	}

	sort.Strings(resolver.names)
}

// BuildErrors returns the non-fatal defects found while reconstructing
// the type graph.  Affected nodes degrade to opaque; everything else
// remains usable.
func (resolver *Resolver) BuildErrors() []error {
	return resolver.buildErrors
}

// AllSymbols returns the resolvable symbol names in sorted order.
func (resolver *Resolver) AllSymbols() []string {
	names := make([]string, len(resolver.names))
	copy(names, resolver.names)
	return names
}

// Lookup finds a symbol by source name, or by its mangled or demangled
// symbol table spelling.
func (resolver *Resolver) Lookup(name string) (*Symbol, bool) {
	symbol, ok := resolver.symbols[name]
	if ok {
		return symbol, true
	}

	canonical, ok := resolver.aliases[name]
	if ok {
		symbol, ok = resolver.symbols[canonical]
		return symbol, ok
	}

	return nil, false
}

// Layout returns the symbol's expanded layout tree rooted at its
// static address.
func (resolver *Resolver) Layout(name string) (*layout.Node, error) {
	symbol, ok := resolver.Lookup(name)
	if !ok {
		return nil, &UnknownSymbolError{Name: name}
	}

	cached, ok := resolver.layouts.Get(symbol.Name)
	if ok {
		return cached, nil
	}

	tree, err := layout.Resolve(symbol.Type, symbol.Address)
	if err != nil {
		return nil, err
	}

	resolver.layouts.Add(symbol.Name, tree)
	return tree, nil
}

// ResolveSibling implements calib.SiblingResolver.
func (resolver *Resolver) ResolveSibling(name string) (*layout.Node, bool) {
	tree, err := resolver.Layout(name)
	if err != nil {
		return nil, false
	}
	return tree, true
}

// Resolve evaluates a member path query such as "struct_b.s1.val_i32"
// or "TEST_structarr[2].value" and classifies the selected data.
func (resolver *Resolver) Resolve(query string) (*Resolution, error) {
	path, err := ParseSymbolPath(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query (%s): %w", query, err)
	}

	symbol, ok := resolver.Lookup(path.Symbol)
	if !ok {
		return nil, &UnknownSymbolError{Name: path.Symbol}
	}

	tree, err := resolver.Layout(symbol.Name)
	if err != nil {
		return nil, err
	}

	node, err := navigate(path, tree)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Path:        path,
		Symbol:      symbol,
		Node:        node,
		Calibration: resolver.classifier.Classify(path.String(), node, resolver),
	}, nil
}

// ResolveAddress finds the symbol spanning the address and drills down
// to the innermost layout node containing it.
func (resolver *Resolver) ResolveAddress(
	address elf.FileAddress,
) (
	*Resolution,
	error,
) {
	for _, name := range resolver.names {
		symbol := resolver.symbols[name]
		if address < symbol.Address ||
			symbol.Address+elf.FileAddress(symbol.ByteSize) <= address {

			continue
		}

		tree, err := resolver.Layout(name)
		if err != nil {
			return nil, err
		}

		node, steps := drillDown(tree, address)

		return &Resolution{
			Path: &SymbolPath{
				Symbol: name,
				Steps:  steps,
			},
			Symbol: symbol,
			Node:   node,
			Calibration: resolver.classifier.Classify(
				name,
				tree,
				resolver),
		}, nil
	}

	return nil, fmt.Errorf("no symbol spans address (0x%x)", uint64(address))
}

// WalkLeaves visits every addressed leaf of every resolvable symbol in
// sorted symbol order.  Symbols whose layout fails to expand are
// skipped; the walk continues.
func (resolver *Resolver) WalkLeaves(
	visit func(path string, leaf *layout.Node) error,
) error {
	for _, name := range resolver.names {
		tree, err := resolver.Layout(name)
		if err != nil {
			continue
		}

		err = tree.WalkLeaves(func(path string, leaf *layout.Node) error {
			return visit(joinSymbolPath(name, path), leaf)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Classify classifies a symbol as a whole.
func (resolver *Resolver) Classify(name string) (*calib.Object, error) {
	symbol, ok := resolver.Lookup(name)
	if !ok {
		return nil, &UnknownSymbolError{Name: name}
	}

	tree, err := resolver.Layout(symbol.Name)
	if err != nil {
		return nil, err
	}

	return resolver.classifier.Classify(symbol.Name, tree, resolver), nil
}

// AllCalibrations classifies every resolvable symbol and emits the
// calibration shaped ones in sorted symbol order.
func (resolver *Resolver) AllCalibrations() []*calib.Object {
	result := []*calib.Object{}
	for _, name := range resolver.names {
		object, err := resolver.Classify(name)
		if err != nil || object == nil {
			continue
		}
		result = append(result, object)
	}
	return result
}

func joinSymbolPath(symbol string, path string) string {
	if path == "" {
		return symbol
	}
	if path[0] == '[' {
		return symbol + path
	}
	return symbol + "." + path
}

func navigate(path *SymbolPath, tree *layout.Node) (*layout.Node, error) {
	node := tree
	for idx, step := range path.Steps {
		child := findChild(node, step)
		if child == nil {
			partial := &SymbolPath{
				Symbol: path.Symbol,
				Steps:  path.Steps[:idx],
			}
			return nil, &UnknownMemberError{
				Path: partial.String(),
				Step: step,
			}
		}
		node = child
	}
	return node, nil
}

func findChild(node *layout.Node, step PathStep) *layout.Node {
	name := step.String()
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// drillDown descends to the innermost node spanning the address,
// recording the member path taken.
func drillDown(
	tree *layout.Node,
	address elf.FileAddress,
) (
	*layout.Node,
	[]PathStep,
) {
	node := tree
	steps := []PathStep{}

	for {
		descended := false
		for _, child := range node.Children {
			if child.ByteSize == 0 {
				continue
			}

			end := child.Address + elf.FileAddress(child.ByteSize)
			if child.Address <= address && address < end {
				steps = append(steps, stepForChild(child))
				node = child
				descended = true
				break
			}
		}

		if !descended {
			return node, steps
		}
	}
}

func stepForChild(child *layout.Node) PathStep {
	if len(child.Name) > 0 && child.Name[0] == '[' {
		var index uint64
		_, err := fmt.Sscanf(child.Name, "[%d]", &index)
		if err == nil {
			return PathStep{Index: index, IsIndex: true}
		}
	}
	return PathStep{Member: child.Name}
}

var _ calib.SiblingResolver = &Resolver{}
