// Package calib classifies resolved symbol layouts into calibration
// data shapes: scalar values, curves with internal or external axes,
// maps, value blocks and opaque blobs.  Classification is a total,
// priority-ordered pattern match; symbols outside every rule are
// simply not calibration data.
package calib

import (
	"fmt"

	"calsym/layout"
)

type Kind int

const (
	Value Kind = iota + 1
	ValueBlock
	CurveInternalAxis
	CurveExternalAxis
	MapInternalAxis
	MapExternalAxis
	Blob
)

func (kind Kind) String() string {
	switch kind {
	case Value:
		return "value"
	case ValueBlock:
		return "value-block"
	case CurveInternalAxis:
		return "curve (internal axis)"
	case CurveExternalAxis:
		return "curve (external axis)"
	case MapInternalAxis:
		return "map (internal axes)"
	case MapExternalAxis:
		return "map (external axes)"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(kind))
	}
}

// Axis describes one calibration axis.  Internal axes live inside the
// classified symbol's own layout; external axes reference a sibling
// symbol by name.
type Axis struct {
	Internal bool

	// Only set for external axes.
	SymbolName string

	Layout *layout.Node
	Length uint64
}

// Object is the classification result for one symbol.  Constructed on
// demand per query; the facade may memoize.
type Object struct {
	Kind   Kind
	Symbol string

	// The value layout: the scalar itself for Value, the value array
	// for curves, maps and value blocks, the whole symbol for Blob.
	Value *layout.Node

	// Curve: one axis. Map: x axis first, then y axis.
	Axes []Axis

	// Raw byte range size, only meaningful for Blob.
	ByteSize uint64
}
