package calsym

import (
	"strings"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"calsym/calib"
	"calsym/elf"
	"calsym/layout"
	"calsym/typegraph"
)

type ResolverSuite struct{}

func TestResolver(t *testing.T) {
	suite.RunTests(t, &ResolverSuite{})
}

func (ResolverSuite) open(t *testing.T, path string) *Resolver {
	resolver, err := Open(path, calib.DefaultPolicy())
	expect.Nil(t, err)
	expect.Equal(t, 0, len(resolver.BuildErrors()))
	return resolver
}

func (s ResolverSuite) TestAllSymbols(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	expect.Equal(
		t,
		[]string{
			"Boost",
			"Boost_axis",
			"Gear",
			"NodeList",
			"Overlay",
			"PressureMap",
			"SerialNumber",
			"Torque",
			"TorqueCurve",
			"Torque_x",
			"TypedefValue",
			"Value_i8",
			"Value_u32",
			"Wrapper",
			"struct_b",
		},
		resolver.AllSymbols())
}

func (s ResolverSuite) TestLookup(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	symbol, ok := resolver.Lookup("Value_u32")
	expect.True(t, ok)
	expect.Equal(t, uint64(4), symbol.ByteSize)
	expect.Equal(t, typegraph.KindScalar, symbol.Type.Kind)

	symbolTable, ok := resolver.File.SymbolTable()
	expect.True(t, ok)

	entries := symbolTable.SymbolsByName("Value_u32")
	expect.Equal(t, 1, len(entries))
	expect.Equal(t, entries[0].Value, uint64(symbol.Address))

	_, ok = resolver.Lookup("NoSuchSymbol")
	expect.False(t, ok)
}

func (s ResolverSuite) TestTypedefAlias(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	symbol, ok := resolver.Lookup("TypedefValue")
	expect.True(t, ok)

	// volatile u32 folds down to the underlying unsigned int node.
	expect.Equal(t, typegraph.KindScalar, symbol.Type.Kind)
	expect.Equal(t, "unsigned int", symbol.Type.Name)
	expect.True(t, symbol.Type.KnownAs("u32"))
}

func (s ResolverSuite) TestResolveMemberPath(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	base, ok := resolver.Lookup("struct_b")
	expect.True(t, ok)
	expect.Equal(t, uint64(104), base.ByteSize)

	resolution, err := resolver.Resolve("struct_b.s2.val_i32")
	expect.Nil(t, err)
	expect.Equal(t, base.Address+16, resolution.Node.Address)
	expect.Equal(t, uint64(4), resolution.Node.ByteSize)
	expect.NotNil(t, resolution.Calibration)
	expect.Equal(t, calib.Value, resolution.Calibration.Kind)

	resolution, err = resolver.Resolve("struct_b.matrix[1][3]")
	expect.Nil(t, err)
	expect.Equal(t, base.Address+76, resolution.Node.Address)
	expect.Equal(t, uint64(4), resolution.Node.ByteSize)
}

func (s ResolverSuite) TestResolveErrors(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	_, err := resolver.Resolve("NoSuchSymbol")
	expect.Error(t, err, "unknown symbol")

	_, err = resolver.Resolve("struct_b.s1.bogus")
	expect.Error(t, err, "struct_b.s1 has no member bogus")

	_, err = resolver.Resolve("struct_b..val_u32")
	expect.Error(t, err, "invalid query")
}

func (s ResolverSuite) TestBitfieldLayout(t *testing.T) {
	fixtures := []string{
		"test_targets/calib_sample",
		"test_targets/calib_sample_dwarf5",
		"test_targets/calib_sample_dwarf2",
	}

	// All dwarf versions normalize to least-significant-bit-relative
	// offsets within the storage unit at byte 8.
	for _, fixture := range fixtures {
		resolver := s.open(t, fixture)

		base, ok := resolver.Lookup("struct_b")
		expect.True(t, ok)

		resolution, err := resolver.Resolve("struct_b.s1.mode")
		expect.Nil(t, err)
		expect.Equal(t, base.Address+8, resolution.Node.Address)
		expect.Equal(t, 0, resolution.Node.BitOffset)
		expect.Equal(t, 3, resolution.Node.BitWidth)

		resolution, err = resolver.Resolve("struct_b.s1.level")
		expect.Nil(t, err)
		expect.Equal(t, base.Address+8, resolution.Node.Address)
		expect.Equal(t, 3, resolution.Node.BitOffset)
		expect.Equal(t, 5, resolution.Node.BitWidth)
	}
}

func (s ResolverSuite) TestAnonymousStructSpliced(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	wrapper, ok := resolver.Lookup("Wrapper")
	expect.True(t, ok)

	resolution, err := resolver.Resolve("Wrapper.lo")
	expect.Nil(t, err)
	expect.Equal(t, wrapper.Address+4, resolution.Node.Address)

	resolution, err = resolver.Resolve("Wrapper.hi")
	expect.Nil(t, err)
	expect.Equal(t, wrapper.Address+8, resolution.Node.Address)
}

func (s ResolverSuite) TestLayoutCached(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	tree1, err := resolver.Layout("struct_b")
	expect.Nil(t, err)

	tree2, err := resolver.Layout("struct_b")
	expect.Nil(t, err)

	expect.True(t, tree1 == tree2)
}

func (s ResolverSuite) TestClassifyKinds(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	expected := map[string]calib.Kind{
		"Value_u32":    calib.Value,
		"Value_i8":     calib.Value,
		"TypedefValue": calib.Value,
		"Gear":         calib.Value,
		"TorqueCurve":  calib.CurveInternalAxis,
		"PressureMap":  calib.MapInternalAxis,
		"Torque":       calib.CurveExternalAxis,
		"Boost":        calib.CurveExternalAxis,
		"Torque_x":     calib.ValueBlock,
		"Boost_axis":   calib.ValueBlock,
		"SerialNumber": calib.Blob,
		"struct_b":     calib.Blob,
	}

	for name, kind := range expected {
		object, err := resolver.Classify(name)
		expect.Nil(t, err)
		expect.NotNil(t, object)
		expect.Equal(t, kind, object.Kind)
	}

	for _, name := range []string{"Wrapper", "Overlay", "NodeList"} {
		object, err := resolver.Classify(name)
		expect.Nil(t, err)
		expect.Nil(t, object)
	}
}

func (s ResolverSuite) TestInternalAxes(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	curve, err := resolver.Classify("TorqueCurve")
	expect.Nil(t, err)
	expect.Equal(t, 1, len(curve.Axes))
	expect.True(t, curve.Axes[0].Internal)
	expect.Equal(t, uint64(6), curve.Axes[0].Length)
	expect.Equal(t, "value", curve.Value.Name)

	pressure, err := resolver.Classify("PressureMap")
	expect.Nil(t, err)
	expect.Equal(t, 2, len(pressure.Axes))
	expect.Equal(t, "x", pressure.Axes[0].Layout.Name)
	expect.Equal(t, uint64(4), pressure.Axes[0].Length)
	expect.Equal(t, "y", pressure.Axes[1].Layout.Name)
	expect.Equal(t, uint64(3), pressure.Axes[1].Length)
}

func (s ResolverSuite) TestExternalAxes(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	torque, err := resolver.Classify("Torque")
	expect.Nil(t, err)
	expect.Equal(t, 1, len(torque.Axes))
	expect.False(t, torque.Axes[0].Internal)
	expect.Equal(t, "Torque_x", torque.Axes[0].SymbolName)
	expect.Equal(t, uint64(8), torque.Axes[0].Length)

	boost, err := resolver.Classify("Boost")
	expect.Nil(t, err)
	expect.Equal(t, 1, len(boost.Axes))
	expect.Equal(t, "Boost_axis", boost.Axes[0].SymbolName)
}

func (s ResolverSuite) TestAllCalibrations(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	objects := resolver.AllCalibrations()
	expect.Equal(t, 12, len(objects))
	expect.Equal(t, "Boost", objects[0].Symbol)

	for _, object := range objects {
		expect.True(t, object.Kind != 0)
	}
}

func (s ResolverSuite) TestResolveAddress(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	base, ok := resolver.Lookup("struct_b")
	expect.True(t, ok)

	resolution, err := resolver.ResolveAddress(base.Address + 76)
	expect.Nil(t, err)
	expect.Equal(t, "struct_b.matrix[1][3]", resolution.Path.String())
	expect.Equal(t, base.Address+76, resolution.Node.Address)

	scalar, ok := resolver.Lookup("Value_u32")
	expect.True(t, ok)

	resolution, err = resolver.ResolveAddress(scalar.Address)
	expect.Nil(t, err)
	expect.Equal(t, "Value_u32", resolution.Path.String())

	_, err = resolver.ResolveAddress(elf.FileAddress(0x10))
	expect.Error(t, err, "no symbol spans address")
}

func (s ResolverSuite) TestWalkLeaves(t *testing.T) {
	resolver := s.open(t, "test_targets/calib_sample")

	curveLeaves := []string{}
	wrapperLeaves := []string{}
	err := resolver.WalkLeaves(func(path string, leaf *layout.Node) error {
		if strings.HasPrefix(path, "TorqueCurve") {
			curveLeaves = append(curveLeaves, path)
		}
		if strings.HasPrefix(path, "Wrapper") {
			wrapperLeaves = append(wrapperLeaves, path)
		}
		return nil
	})
	expect.Nil(t, err)

	expect.Equal(t, 12, len(curveLeaves))
	expect.Equal(t, "TorqueCurve.x[0]", curveLeaves[0])
	expect.Equal(t, "TorqueCurve.value[5]", curveLeaves[11])

	expect.Equal(
		t,
		[]string{"Wrapper.tag", "Wrapper.lo", "Wrapper.hi"},
		wrapperLeaves)
}
