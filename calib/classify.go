package calib

import (
	"math"

	"calsym/elf"
	"calsym/layout"
	"calsym/target"
	"calsym/typegraph"
)

// ByteReader supplies raw memory content for axis monotonicity checks.
// elf.File satisfies it directly; regions without file backing (.bss)
// read as zeros.
type ByteReader interface {
	ReadVirtual(address elf.FileAddress, out []byte) (int, error)
}

// SiblingResolver resolves a sibling symbol name to its layout, used
// for external axis lookups.
type SiblingResolver interface {
	ResolveSibling(name string) (*layout.Node, bool)
}

type Classifier struct {
	policy AxisPolicy

	// May be nil, in which case axis candidates are assumed monotonic.
	reader ByteReader

	desc target.Descriptor
}

func NewClassifier(
	policy AxisPolicy,
	reader ByteReader,
	desc target.Descriptor,
) *Classifier {
	return &Classifier{
		policy: policy,
		reader: reader,
		desc:   desc,
	}
}

// Classify pattern-matches a symbol's layout into a calibration shape.
// Rules are priority ordered and first match wins; nil means the
// symbol is not calibration data, which is not an error.
func (classifier *Classifier) Classify(
	name string,
	tree *layout.Node,
	siblings SiblingResolver,
) *Object {
	// Bare scalars are calibration values.
	switch tree.Type.Kind {
	case typegraph.KindScalar, typegraph.KindEnum:
		return &Object{
			Kind:   Value,
			Symbol: name,
			Value:  tree,
		}
	}

	if tree.Type.Kind == typegraph.KindStruct {
		return classifier.classifyComposite(name, tree)
	}

	if tree.Type.Kind == typegraph.KindArray &&
		tree.Type.Element.IsNumeric() {

		return classifier.classifyArray(name, tree, siblings)
	}

	// Pointers, unions, function types and everything else are plain
	// variables.
	return nil
}

// classifyComposite handles structs: curve with internal axis, map
// with internal axes, or blob for array-bearing structs with no clean
// value/axis separation.
func (classifier *Classifier) classifyComposite(
	name string,
	tree *layout.Node,
) *Object {
	axes := []Axis{}
	arrays := []*layout.Node{}

	for _, child := range tree.Children {
		if !isFlatNumericArray(child) {
			if child.Type.Kind == typegraph.KindArray {
				arrays = append(arrays, child)
			}
			continue
		}

		if classifier.policy.isAxisMember(child.Name) &&
			classifier.isMonotonic(child) {

			axes = append(
				axes,
				Axis{
					Internal: true,
					Layout:   child,
					Length:   child.Type.Dims[0],
				})
			continue
		}

		arrays = append(arrays, child)
	}

	value := classifier.pickValueMember(arrays)

	switch {
	case len(axes) == 1 && value != nil &&
		isFlatNumericArray(value) &&
		value.Type.Dims[0] == axes[0].Length:

		return &Object{
			Kind:   CurveInternalAxis,
			Symbol: name,
			Value:  value,
			Axes:   axes,
		}

	case len(axes) == 2 && value != nil &&
		is2DNumericArray(value) &&
		value.Type.Dims[0] == axes[1].Length &&
		value.Type.Dims[1] == axes[0].Length:

		// value[len(y)][len(x)], x axis declared first
		return &Object{
			Kind:   MapInternalAxis,
			Symbol: name,
			Value:  value,
			Axes:   axes,
		}
	}

	// A single flat numeric array with no axis members is a value
	// block.
	if len(axes) == 0 && len(arrays) == 1 && isFlatNumericArray(arrays[0]) {
		return &Object{
			Kind:   ValueBlock,
			Symbol: name,
			Value:  arrays[0],
		}
	}

	if len(arrays) > 0 || len(axes) > 0 {
		// Arrays without a recognizable value/axis separation.
		return &Object{
			Kind:     Blob,
			Symbol:   name,
			Value:    tree,
			ByteSize: tree.ByteSize,
		}
	}

	return nil
}

// classifyArray handles numeric array symbols: externally-referenced
// axis shapes first, then value blocks, with single byte element
// arrays degrading to opaque blobs.
func (classifier *Classifier) classifyArray(
	name string,
	tree *layout.Node,
	siblings SiblingResolver,
) *Object {
	dims := tree.Type.Dims

	switch len(dims) {
	case 1:
		axis, ok := classifier.findExternalAxes(name, siblings, dims[0])
		if ok {
			return &Object{
				Kind:   CurveExternalAxis,
				Symbol: name,
				Value:  tree,
				Axes:   axis,
			}
		}

	case 2:
		axes, ok := classifier.findExternalAxes(name, siblings, dims[1], dims[0])
		if ok {
			return &Object{
				Kind:   MapExternalAxis,
				Symbol: name,
				Value:  tree,
				Axes:   axes,
			}
		}
	}

	if tree.Type.Element.ByteSize == 1 {
		// opaque byte array
		return &Object{
			Kind:     Blob,
			Symbol:   name,
			Value:    tree,
			ByteSize: tree.ByteSize,
		}
	}

	return &Object{
		Kind:   ValueBlock,
		Symbol: name,
		Value:  tree,
	}
}

func (classifier *Classifier) pickValueMember(
	arrays []*layout.Node,
) *layout.Node {
	if classifier.policy.ValueMember != "" {
		for _, candidate := range arrays {
			if candidate.Name == classifier.policy.ValueMember {
				return candidate
			}
		}
	}

	if len(arrays) == 1 {
		return arrays[0]
	}

	return nil
}

// findExternalAxes resolves external axis symbols for a value symbol,
// one per wanted length, in axis order.  Every resolved axis must be a
// flat monotonic numeric array whose length matches the corresponding
// value dimension.
func (classifier *Classifier) findExternalAxes(
	name string,
	siblings SiblingResolver,
	lengths ...uint64,
) (
	[]Axis,
	bool,
) {
	if siblings == nil {
		return nil, false
	}

	for _, candidates := range classifier.policy.externalAxisCandidates(name) {
		axes := classifier.matchAxisCandidates(candidates, siblings, lengths)
		if axes != nil {
			return axes, true
		}
	}

	return nil, false
}

func (classifier *Classifier) matchAxisCandidates(
	candidates []string,
	siblings SiblingResolver,
	lengths []uint64,
) []Axis {
	resolved := []Axis{}
	for _, candidate := range candidates {
		sibling, ok := siblings.ResolveSibling(candidate)
		if !ok {
			continue
		}

		if !isFlatNumericArray(sibling) || !classifier.isMonotonic(sibling) {
			continue
		}

		resolved = append(
			resolved,
			Axis{
				SymbolName: candidate,
				Layout:     sibling,
				Length:     sibling.Type.Dims[0],
			})
	}

	if len(resolved) != len(lengths) {
		return nil
	}

	// Assign axes to value dimensions by length, preferring declaration
	// order when lengths are ambiguous.
	axes := make([]Axis, 0, len(lengths))
	used := make([]bool, len(resolved))
	for _, length := range lengths {
		found := false
		for idx, axis := range resolved {
			if used[idx] || axis.Length != length {
				continue
			}

			axes = append(axes, axis)
			used[idx] = true
			found = true
			break
		}

		if !found {
			return nil
		}
	}

	return axes
}

func isFlatNumericArray(node *layout.Node) bool {
	return node.Type.Kind == typegraph.KindArray &&
		len(node.Type.Dims) == 1 &&
		node.Type.Dims[0] > 0 &&
		node.Type.Element.IsNumeric()
}

func is2DNumericArray(node *layout.Node) bool {
	return node.Type.Kind == typegraph.KindArray &&
		len(node.Type.Dims) == 2 &&
		node.Type.Element.IsNumeric()
}

// isMonotonic checks that an axis candidate's elements are
// non-decreasing in memory.  Ties are permitted; axes with repeated
// breakpoints are valid.  Without a byte reader the check passes, and
// unreadable memory fails it.
func (classifier *Classifier) isMonotonic(node *layout.Node) bool {
	if classifier.reader == nil {
		return true
	}

	previous := math.Inf(-1)
	for _, element := range node.Children {
		value, ok := classifier.leafValue(element)
		if !ok {
			return false
		}

		if value < previous {
			return false
		}
		previous = value
	}

	return true
}

func (classifier *Classifier) leafValue(leaf *layout.Node) (float64, bool) {
	buffer := make([]byte, leaf.ByteSize)
	_, err := classifier.reader.ReadVirtual(leaf.Address, buffer)
	if err != nil {
		return 0, false
	}

	leafType := leaf.Type
	encoding := leafType.Encoding
	if leafType.Kind == typegraph.KindEnum {
		encoding = leafType.Underlying.Encoding
	}

	byteOrder := classifier.desc.ByteOrder

	switch len(buffer) {
	case 1:
		raw := uint64(buffer[0])
		return numericValue(raw, 1, encoding), true
	case 2:
		raw := uint64(byteOrder.Uint16(buffer))
		return numericValue(raw, 2, encoding), true
	case 4:
		raw := uint64(byteOrder.Uint32(buffer))
		if encoding == typegraph.EncodingFloat {
			return float64(math.Float32frombits(uint32(raw))), true
		}
		return numericValue(raw, 4, encoding), true
	case 8:
		raw := byteOrder.Uint64(buffer)
		if encoding == typegraph.EncodingFloat {
			return math.Float64frombits(raw), true
		}
		return numericValue(raw, 8, encoding), true
	default:
		return 0, false
	}
}

func numericValue(
	raw uint64,
	byteSize int,
	encoding typegraph.ScalarEncoding,
) float64 {
	switch encoding {
	case typegraph.EncodingSigned, typegraph.EncodingSignedChar:
		shift := 64 - 8*byteSize
		return float64(int64(raw<<shift) >> shift)
	default:
		return float64(raw)
	}
}
