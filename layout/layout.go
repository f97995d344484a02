// Package layout expands a type node into a fully resolved memory
// layout: every leaf scalar with its absolute address, bit offset and
// bit width, every composite with its structural shape.  Layout trees
// describe storage, never runtime contents.
package layout

import (
	"fmt"
	"strings"

	"calsym/elf"
	"calsym/typegraph"
)

// MaxDepth bounds layout expansion.  Well formed type graphs stay far
// below it; pointer targets are never followed, so only a malformed
// graph can approach the limit.
const MaxDepth = 64

var ErrRecursionLimitExceeded = fmt.Errorf("recursion limit exceeded")

// Node is one position in a layout tree.  Name is the path component
// relative to the parent: a member name, or "[i]" for an array
// element.  The root's name is empty.
type Node struct {
	Name string

	Type *typegraph.Node

	Address  elf.FileAddress
	ByteSize uint64

	// Bit storage within the leaf's addressed unit.  BitOffset is 0 and
	// BitWidth covers the full unit for byte-aligned leaves.
	BitOffset int
	BitWidth  int

	Children []*Node
}

func (node *Node) IsLeaf() bool {
	return len(node.Children) == 0 && !node.Type.IsAggregate() &&
		node.Type.Kind != typegraph.KindArray
}

// Walk visits the node and all descendants depth first in declaration
// order.
func (node *Node) Walk(visit func(path string, node *Node) error) error {
	return node.walk("", visit)
}

func (node *Node) walk(
	prefix string,
	visit func(path string, node *Node) error,
) error {
	path := joinPath(prefix, node.Name)

	err := visit(path, node)
	if err != nil {
		return err
	}

	for _, child := range node.Children {
		err := child.walk(path, visit)
		if err != nil {
			return err
		}
	}

	return nil
}

// WalkLeaves visits only leaf nodes, each with its dotted member path.
func (node *Node) WalkLeaves(visit func(path string, leaf *Node) error) error {
	return node.Walk(
		func(path string, current *Node) error {
			if !current.IsLeaf() {
				return nil
			}
			return visit(path, current)
		})
}

func joinPath(prefix string, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	if strings.HasPrefix(name, "[") {
		return prefix + name
	}
	return prefix + "." + name
}

// Resolve expands a type node rooted at the given base address.  The
// type graph is only read; every call allocates a fresh tree.
func Resolve(
	root *typegraph.Node,
	base elf.FileAddress,
) (
	*Node,
	error,
) {
	return expand("", root, base, 0)
}

func expand(
	name string,
	nodeType *typegraph.Node,
	address elf.FileAddress,
	depth int,
) (
	*Node,
	error,
) {
	if depth > MaxDepth {
		return nil, ErrRecursionLimitExceeded
	}

	switch nodeType.Kind {
	case typegraph.KindScalar,
		typegraph.KindEnum,
		typegraph.KindOpaque:

		return newLeaf(name, nodeType, address), nil

	case typegraph.KindPointer:
		// A pointer leaf is only its own storage. The pointee is never
		// expanded; for function pointers the signature stays reachable
		// through the type node as metadata.
		return newLeaf(name, nodeType, address), nil

	case typegraph.KindFunction:
		// Signatures have no static storage of their own.
		return &Node{
			Name: name,
			Type: nodeType,

			Address: address,
		}, nil

	case typegraph.KindArray:
		return expandArray(name, nodeType, address, depth)

	case typegraph.KindStruct:
		return expandStruct(name, nodeType, address, depth)

	case typegraph.KindUnion:
		return expandUnion(name, nodeType, address, depth)

	default:
		return nil, fmt.Errorf(
			"cannot layout %s type node",
			nodeType.Kind)
	}
}

func newLeaf(
	name string,
	nodeType *typegraph.Node,
	address elf.FileAddress,
) *Node {
	return &Node{
		Name: name,
		Type: nodeType,

		Address:  address,
		ByteSize: nodeType.ByteSize,

		BitOffset: 0,
		BitWidth:  int(8 * nodeType.ByteSize),
	}
}

// expandArray expands one array dimension per tree level, row-major:
// the last dimension varies fastest, so the element stride at level k
// is the product of all later extents times the element stride.
func expandArray(
	name string,
	nodeType *typegraph.Node,
	address elf.FileAddress,
	depth int,
) (
	*Node,
	error,
) {
	return expandArrayDim(name, nodeType, nodeType.Dims, address, depth)
}

func expandArrayDim(
	name string,
	nodeType *typegraph.Node,
	dims []uint64,
	address elf.FileAddress,
	depth int,
) (
	*Node,
	error,
) {
	if depth > MaxDepth {
		return nil, ErrRecursionLimitExceeded
	}

	if len(dims) == 0 {
		return expand(name, nodeType.Element, address, depth)
	}

	levelStride := nodeType.Stride
	for _, dim := range dims[1:] {
		levelStride *= dim
	}

	node := &Node{
		Name: name,
		Type: nodeType,

		Address:  address,
		ByteSize: levelStride * dims[0],
	}

	for idx := uint64(0); idx < dims[0]; idx++ {
		child, err := expandArrayDim(
			fmt.Sprintf("[%d]", idx),
			nodeType,
			dims[1:],
			address+elf.FileAddress(idx*levelStride),
			depth+1)
		if err != nil {
			return nil, err
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

func expandStruct(
	name string,
	nodeType *typegraph.Node,
	address elf.FileAddress,
	depth int,
) (
	*Node,
	error,
) {
	node := &Node{
		Name: name,
		Type: nodeType,

		Address:  address,
		ByteSize: nodeType.ByteSize,
	}

	err := appendMembers(node, nodeType.Members, address, depth, false)
	if err != nil {
		return nil, err
	}

	return node, nil
}

func expandUnion(
	name string,
	nodeType *typegraph.Node,
	address elf.FileAddress,
	depth int,
) (
	*Node,
	error,
) {
	node := &Node{
		Name: name,
		Type: nodeType,

		Address:  address,
		ByteSize: nodeType.ByteSize,
	}

	err := appendMembers(node, nodeType.Members, address, depth, true)
	if err != nil {
		return nil, err
	}

	return node, nil
}

// appendMembers expands members into node's children.  Anonymous
// aggregate members are spliced flat into the parent at their offset,
// matching source-level field access through an anonymous struct or
// union.  Union members all expand at the base address itself.
func appendMembers(
	node *Node,
	members []typegraph.Member,
	base elf.FileAddress,
	depth int,
	isUnion bool,
) error {
	if depth > MaxDepth {
		return ErrRecursionLimitExceeded
	}

	for _, member := range members {
		memberAddress := base
		if !isUnion {
			memberAddress += elf.FileAddress(member.ByteOffset)
		}

		if member.Name == "" && member.Type.IsAggregate() {
			err := appendMembers(
				node,
				member.Type.Members,
				memberAddress,
				depth+1,
				member.Type.Kind == typegraph.KindUnion)
			if err != nil {
				return err
			}
			continue
		}

		child, err := expand(member.Name, member.Type, memberAddress, depth+1)
		if err != nil {
			return err
		}

		if member.IsBitfield {
			child.BitOffset = member.BitOffset
			child.BitWidth = member.BitWidth
		}

		node.Children = append(node.Children, child)
	}

	return nil
}
