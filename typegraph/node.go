package typegraph

import (
	"fmt"
)

type NodeKind int

const (
	KindScalar NodeKind = iota + 1
	KindEnum
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindFunction
	KindOpaque

	// Placeholder for a node whose children are still being built.
	// Observable only during construction of cyclic composites; a fully
	// built graph contains none.
	KindUnresolved
)

func (kind NodeKind) String() string {
	switch kind {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindFunction:
		return "function"
	case KindOpaque:
		return "opaque"
	case KindUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(kind))
	}
}

type Enumerator struct {
	Name  string
	Value int64
}

// Member of a struct or union.  An empty name marks an anonymous
// aggregate member, addressable only by embedding.
type Member struct {
	Name string
	Type *Node

	ByteOffset uint64

	// Bitfield storage, normalized during graph construction: BitOffset
	// counts from the storage unit's least significant bit regardless of
	// the producer's encoding style.
	IsBitfield bool
	BitOffset  int
	BitWidth   int
}

// Node is a single type in the graph.  Nodes are allocated once,
// keyed by debug entry id, and shared by every use site; cyclic
// references (self-referential structs via Pointer) are represented by
// shared pointer identity rather than structural embedding.
type Node struct {
	Kind NodeKind

	// The declared type name, when the debug entry carries one.
	Name string

	// Typedef names this node was reached through, in first-seen order.
	Aliases []string

	ByteSize uint64

	// Scalar
	Encoding ScalarEncoding

	// Enum: the underlying scalar node, plus enumerators in declaration
	// order.
	Underlying  *Node
	Enumerators []Enumerator

	// Pointer: nil target means void*.
	Target *Node

	// Array
	Element *Node
	Dims    []uint64
	Stride  uint64

	// Struct/union members in declaration order.
	Members []Member

	// Function: nil Return means void.
	Return *Node
	Params []*Node
}

// IsFunctionPointer reports whether the node is a pointer to a
// function signature, directly or through qualifiers.
func (node *Node) IsFunctionPointer() bool {
	return node.Kind == KindPointer &&
		node.Target != nil &&
		node.Target.Kind == KindFunction
}

// IsAggregate reports whether the node has internal structure worth
// splicing through when it appears as an anonymous member.
func (node *Node) IsAggregate() bool {
	return node.Kind == KindStruct || node.Kind == KindUnion
}

// IsNumeric reports whether the node is a numeric scalar or enum,
// suitable as calibration axis or value element.
func (node *Node) IsNumeric() bool {
	switch node.Kind {
	case KindScalar:
		return node.Encoding != EncodingBool
	case KindEnum:
		return true
	default:
		return false
	}
}

// ElementCount returns the total number of elements of an array node
// across all dimensions.
func (node *Node) ElementCount() uint64 {
	if node.Kind != KindArray {
		return 0
	}

	count := uint64(1)
	for _, dim := range node.Dims {
		count *= dim
	}
	return count
}

// KnownAs reports whether the node's declared name or one of its
// typedef aliases matches.
func (node *Node) KnownAs(name string) bool {
	if node.Name == name {
		return true
	}
	for _, alias := range node.Aliases {
		if alias == name {
			return true
		}
	}
	return false
}

func (node *Node) addAlias(alias string) {
	if alias == "" || node.KnownAs(alias) {
		return
	}
	node.Aliases = append(node.Aliases, alias)
}
