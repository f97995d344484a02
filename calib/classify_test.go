package calib

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"calsym/elf"
	"calsym/layout"
	"calsym/target"
	"calsym/typegraph"
)

func littleEndian32() target.Descriptor {
	return target.Descriptor{
		PointerSize:      4,
		ByteOrder:        binary.LittleEndian,
		DefaultAlignment: 4,
	}
}

func floatType() *typegraph.Node {
	return &typegraph.Node{
		Kind:     typegraph.KindScalar,
		Name:     "float",
		ByteSize: 4,
		Encoding: typegraph.EncodingFloat,
	}
}

func byteType() *typegraph.Node {
	return &typegraph.Node{
		Kind:     typegraph.KindScalar,
		Name:     "unsigned char",
		ByteSize: 1,
		Encoding: typegraph.EncodingUnsignedChar,
	}
}

func arrayOf(element *typegraph.Node, dims ...uint64) *typegraph.Node {
	byteSize := element.ByteSize
	for _, dim := range dims {
		byteSize *= dim
	}

	return &typegraph.Node{
		Kind:     typegraph.KindArray,
		ByteSize: byteSize,
		Element:  element,
		Dims:     dims,
		Stride:   element.ByteSize,
	}
}

func mustLayout(
	t *testing.T,
	nodeType *typegraph.Node,
	base elf.FileAddress,
) *layout.Node {
	tree, err := layout.Resolve(nodeType, base)
	expect.Nil(t, err)
	return tree
}

// memoryImage is a ByteReader over a contiguous chunk of fake target
// memory.
type memoryImage struct {
	base    elf.FileAddress
	content []byte
}

func (image *memoryImage) ReadVirtual(
	address elf.FileAddress,
	out []byte,
) (
	int,
	error,
) {
	if address < image.base {
		return 0, fmt.Errorf("address (0x%x) not mapped", uint64(address))
	}

	offset := int(address - image.base)
	if offset+len(out) > len(image.content) {
		return 0, fmt.Errorf("address (0x%x) not mapped", uint64(address))
	}

	copy(out, image.content[offset:offset+len(out)])
	return len(out), nil
}

func floatImage(base elf.FileAddress, values ...float32) *memoryImage {
	content := make([]byte, 4*len(values))
	for idx, value := range values {
		binary.LittleEndian.PutUint32(
			content[4*idx:],
			math.Float32bits(value))
	}

	return &memoryImage{base: base, content: content}
}

// mapSiblings resolves sibling symbols from a fixed name to layout
// mapping.
type mapSiblings map[string]*layout.Node

func (siblings mapSiblings) ResolveSibling(name string) (*layout.Node, bool) {
	tree, ok := siblings[name]
	return tree, ok
}

type ClassifySuite struct{}

func TestClassify(t *testing.T) {
	suite.RunTests(t, &ClassifySuite{})
}

func (ClassifySuite) TestScalarValue(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	tree := mustLayout(t, floatType(), 0x1000)
	object := classifier.Classify("Value_f32", tree, nil)

	expect.NotNil(t, object)
	expect.Equal(t, Value, object.Kind)
	expect.Equal(t, "Value_f32", object.Symbol)
}

func (ClassifySuite) TestEnumValue(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	enumType := &typegraph.Node{
		Kind:     typegraph.KindEnum,
		Name:     "gear",
		ByteSize: 4,
		Underlying: &typegraph.Node{
			Kind:     typegraph.KindScalar,
			ByteSize: 4,
			Encoding: typegraph.EncodingUnsigned,
		},
	}

	object := classifier.Classify("Gear", mustLayout(t, enumType, 0x1000), nil)
	expect.NotNil(t, object)
	expect.Equal(t, Value, object.Kind)
}

func (ClassifySuite) TestCurveInternalAxis(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "curve_data",
		ByteSize: 48,
		Members: []typegraph.Member{
			{Name: "x", Type: arrayOf(floatType(), 6), ByteOffset: 0},
			{Name: "value", Type: arrayOf(floatType(), 6), ByteOffset: 24},
		},
	}

	image := floatImage(
		0x1000,
		// x breakpoints, ascending
		0, 10, 20, 30, 40, 50,
		// values, arbitrary
		1, 4, 9, 7, 2, 8)

	classifier := NewClassifier(DefaultPolicy(), image, littleEndian32())
	object := classifier.Classify(
		"TorqueCurve",
		mustLayout(t, structType, 0x1000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, CurveInternalAxis, object.Kind)
	expect.Equal(t, 1, len(object.Axes))
	expect.True(t, object.Axes[0].Internal)
	expect.Equal(t, 6, object.Axes[0].Length)
	expect.Equal(t, "value", object.Value.Name)
}

func (ClassifySuite) TestCurveAxisTiesAllowed(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "curve_data",
		ByteSize: 32,
		Members: []typegraph.Member{
			{Name: "x", Type: arrayOf(floatType(), 4), ByteOffset: 0},
			{Name: "value", Type: arrayOf(floatType(), 4), ByteOffset: 16},
		},
	}

	image := floatImage(
		0x1000,
		// repeated breakpoints are valid
		0, 10, 10, 20,
		1, 2, 3, 4)

	classifier := NewClassifier(DefaultPolicy(), image, littleEndian32())
	object := classifier.Classify(
		"Curve",
		mustLayout(t, structType, 0x1000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, CurveInternalAxis, object.Kind)
}

func (ClassifySuite) TestDescendingAxisRejected(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "curve_data",
		ByteSize: 32,
		Members: []typegraph.Member{
			{Name: "x", Type: arrayOf(floatType(), 4), ByteOffset: 0},
			{Name: "value", Type: arrayOf(floatType(), 4), ByteOffset: 16},
		},
	}

	image := floatImage(
		0x1000,
		30, 20, 10, 0,
		1, 2, 3, 4)

	classifier := NewClassifier(DefaultPolicy(), image, littleEndian32())
	object := classifier.Classify(
		"Curve",
		mustLayout(t, structType, 0x1000),
		nil)

	// the descending member is not an axis, so the struct holds two
	// arrays with no value/axis separation
	expect.NotNil(t, object)
	expect.Equal(t, Blob, object.Kind)
}

func (ClassifySuite) TestMapInternalAxes(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "map_data",
		ByteSize: 76,
		Members: []typegraph.Member{
			{Name: "x", Type: arrayOf(floatType(), 4), ByteOffset: 0},
			{Name: "y", Type: arrayOf(floatType(), 3), ByteOffset: 16},
			{Name: "value", Type: arrayOf(floatType(), 3, 4), ByteOffset: 28},
		},
	}

	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())
	object := classifier.Classify(
		"PressureMap",
		mustLayout(t, structType, 0x2000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, MapInternalAxis, object.Kind)
	expect.Equal(t, 2, len(object.Axes))
	expect.Equal(t, 4, object.Axes[0].Length)
	expect.Equal(t, 3, object.Axes[1].Length)
}

func (ClassifySuite) TestValueBlockStruct(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "block_data",
		ByteSize: 32,
		Members: []typegraph.Member{
			{Name: "value", Type: arrayOf(floatType(), 8), ByteOffset: 0},
		},
	}

	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())
	object := classifier.Classify(
		"Block",
		mustLayout(t, structType, 0x3000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, ValueBlock, object.Kind)
}

func (ClassifySuite) TestAmbiguousStructIsBlob(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "tangle",
		ByteSize: 64,
		Members: []typegraph.Member{
			{Name: "first", Type: arrayOf(floatType(), 8), ByteOffset: 0},
			{Name: "second", Type: arrayOf(floatType(), 8), ByteOffset: 32},
		},
	}

	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())
	object := classifier.Classify(
		"Tangle",
		mustLayout(t, structType, 0x4000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, Blob, object.Kind)
	expect.Equal(t, 64, object.ByteSize)
}

func (ClassifySuite) TestScalarOnlyStructNotCalibration(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "config",
		ByteSize: 8,
		Members: []typegraph.Member{
			{Name: "a", Type: floatType(), ByteOffset: 0},
			{Name: "b", Type: floatType(), ByteOffset: 4},
		},
	}

	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())
	object := classifier.Classify(
		"Config",
		mustLayout(t, structType, 0x5000),
		nil)

	expect.Nil(t, object)
}

func (ClassifySuite) TestCurveExternalAxis(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	siblings := mapSiblings{
		"Torque_x": mustLayout(t, arrayOf(floatType(), 8), 0x6000),
	}

	object := classifier.Classify(
		"Torque",
		mustLayout(t, arrayOf(floatType(), 8), 0x6100),
		siblings)

	expect.NotNil(t, object)
	expect.Equal(t, CurveExternalAxis, object.Kind)
	expect.Equal(t, 1, len(object.Axes))
	expect.False(t, object.Axes[0].Internal)
	expect.Equal(t, "Torque_x", object.Axes[0].SymbolName)
}

func (ClassifySuite) TestMapExternalAxes(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	siblings := mapSiblings{
		"Pressure_x": mustLayout(t, arrayOf(floatType(), 4), 0x7000),
		"Pressure_y": mustLayout(t, arrayOf(floatType(), 3), 0x7100),
	}

	object := classifier.Classify(
		"Pressure",
		mustLayout(t, arrayOf(floatType(), 3, 4), 0x7200),
		siblings)

	expect.NotNil(t, object)
	expect.Equal(t, MapExternalAxis, object.Kind)
	expect.Equal(t, 2, len(object.Axes))

	// x axis matches the fast dimension, y the slow one
	expect.Equal(t, "Pressure_x", object.Axes[0].SymbolName)
	expect.Equal(t, 4, object.Axes[0].Length)
	expect.Equal(t, "Pressure_y", object.Axes[1].SymbolName)
	expect.Equal(t, 3, object.Axes[1].Length)
}

func (ClassifySuite) TestExplicitExternalAxisBinding(t *testing.T) {
	policy := DefaultPolicy()
	policy.ExternalAxes = map[string][]string{
		"SpeedLimit": {"Axis_0"},
	}

	classifier := NewClassifier(policy, nil, littleEndian32())

	siblings := mapSiblings{
		"Axis_0": mustLayout(t, arrayOf(floatType(), 5), 0x8000),
	}

	object := classifier.Classify(
		"SpeedLimit",
		mustLayout(t, arrayOf(floatType(), 5), 0x8100),
		siblings)

	expect.NotNil(t, object)
	expect.Equal(t, CurveExternalAxis, object.Kind)
	expect.Equal(t, "Axis_0", object.Axes[0].SymbolName)
}

func (ClassifySuite) TestLengthMismatchFallsBackToValueBlock(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	siblings := mapSiblings{
		"Torque_x": mustLayout(t, arrayOf(floatType(), 6), 0x9000),
	}

	object := classifier.Classify(
		"Torque",
		mustLayout(t, arrayOf(floatType(), 8), 0x9100),
		siblings)

	expect.NotNil(t, object)
	expect.Equal(t, ValueBlock, object.Kind)
	expect.Equal(t, 0, len(object.Axes))
}

func (ClassifySuite) TestByteArrayIsBlob(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())

	object := classifier.Classify(
		"SerialNumber",
		mustLayout(t, arrayOf(byteType(), 16), 0xa000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, Blob, object.Kind)
	expect.Equal(t, 16, object.ByteSize)
}

func (ClassifySuite) TestUnionNotCalibration(t *testing.T) {
	unionType := &typegraph.Node{
		Kind:     typegraph.KindUnion,
		ByteSize: 4,
		Members: []typegraph.Member{
			{Name: "raw", Type: floatType()},
		},
	}

	classifier := NewClassifier(DefaultPolicy(), nil, littleEndian32())
	object := classifier.Classify(
		"Overlay",
		mustLayout(t, unionType, 0xb000),
		nil)

	expect.Nil(t, object)
}

func (ClassifySuite) TestUnreadableAxisRejected(t *testing.T) {
	structType := &typegraph.Node{
		Kind:     typegraph.KindStruct,
		Name:     "curve_data",
		ByteSize: 32,
		Members: []typegraph.Member{
			{Name: "x", Type: arrayOf(floatType(), 4), ByteOffset: 0},
			{Name: "value", Type: arrayOf(floatType(), 4), ByteOffset: 16},
		},
	}

	// image too small to cover the x member
	image := &memoryImage{base: 0x1000, content: make([]byte, 4)}

	classifier := NewClassifier(DefaultPolicy(), image, littleEndian32())
	object := classifier.Classify(
		"Curve",
		mustLayout(t, structType, 0x1000),
		nil)

	expect.NotNil(t, object)
	expect.Equal(t, Blob, object.Kind)
}
